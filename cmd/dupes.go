package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/kozaktomas/imagehash/internal/constants"
	"github.com/kozaktomas/imagehash/internal/fingerprint"
	"github.com/kozaktomas/imagehash/internal/imageio"
	"github.com/kozaktomas/imagehash/internal/index"
	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var dupesCmd = &cobra.Command{
	Use:   "dupes [files...]",
	Short: "Find groups of near-duplicate images",
	Long: `Hash every image and group the ones whose fingerprints are within the
similarity threshold of each other, directly or through other members of the
group.

Examples:
  # Near duplicates by perceptual hash
  imagehash dupes photos/*.jpg

  # Stricter grouping with difference hashes
  imagehash dupes --algorithm dhash --threshold 4 photos/*.jpg`,
	Args: cobra.MinimumNArgs(2),
	RunE: runDupes,
}

func init() {
	rootCmd.AddCommand(dupesCmd)

	dupesCmd.Flags().StringP("algorithm", "a", string(fingerprint.AlgorithmPerceptual), "Grid hash algorithm (ahash, dhash, dhash-vertical, phash, phash-simple, whash)")
	dupesCmd.Flags().Int("size", fingerprint.DefaultSize, "Fingerprint side length in bits")
	dupesCmd.Flags().Int("threshold", 0, "Largest distance between duplicates (0 uses IMAGEHASH_SIMILARITY_THRESHOLD)")
	dupesCmd.Flags().Int("candidates", constants.DefaultDuplicateCandidates, "Nearest fingerprints checked per image")
	dupesCmd.Flags().Int("concurrency", 0, "Number of parallel workers (0 uses IMAGEHASH_WORKERS or one per CPU)")
	dupesCmd.Flags().Bool("json", false, "Output as JSON")
}

// DupesReport lists the duplicate groups found.
type DupesReport struct {
	Algorithm     fingerprint.Algorithm `json:"algorithm"`
	Threshold     int                   `json:"threshold"`
	ImagesScanned int                   `json:"images_scanned"`
	Groups        []index.Group         `json:"groups"`
	Duplicates    int                   `json:"duplicates"`
	Errors        int                   `json:"errors"`
	DurationMs    int64                 `json:"duration_ms"`
}

func runDupes(cmd *cobra.Command, args []string) error {
	alg, err := algorithmFlag(cmd)
	if err != nil {
		return err
	}
	if alg == fingerprint.AlgorithmColor || alg == fingerprint.AlgorithmCropResistant {
		return fmt.Errorf("dupes needs a grid hash algorithm, got %s", alg)
	}
	jsonOutput := mustGetBool(cmd, "json")
	candidates := mustGetInt(cmd, "candidates")
	if candidates < 1 {
		return errors.New("--candidates must be positive")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts := cfg.Options()
	threshold := similarityThreshold(mustGetInt(cmd, "threshold"), cfg)
	startTime := time.Now()

	var bar *progressbar.ProgressBar
	if !jsonOutput {
		bar = progressbar.NewOptions(len(args),
			progressbar.OptionSetDescription("Hashing images"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionSetItsString("images"),
			progressbar.OptionFullWidth(),
			progressbar.OptionClearOnFinish(),
		)
	}

	results, err := fingerprint.HashAll(context.Background(), args, func(path string) (*fingerprint.Result, error) {
		defer func() {
			if bar != nil {
				_ = bar.Add(1)
			}
		}()
		img, err := imageio.Open(path)
		if err != nil {
			return nil, err
		}
		return fingerprint.Compute(img, alg, opts)
	}, workerCount(mustGetInt(cmd, "concurrency"), cfg))
	if err != nil {
		return fmt.Errorf("hashing images: %w", err)
	}
	if bar != nil {
		_ = bar.Finish()
	}

	ix := index.New()
	report := DupesReport{Algorithm: alg, Threshold: threshold, ImagesScanned: len(args)}
	for _, r := range results {
		path := args[r.Index]
		if r.Err != nil {
			report.Errors++
			log.WithError(r.Err).WithField("file", path).Warn("skipping image")
			continue
		}
		fp, err := fingerprint.FromHexShape(r.Value.Hash, r.Value.Rows, r.Value.Cols)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := ix.Add(path, fp); err != nil {
			return fmt.Errorf("indexing %s: %w", path, err)
		}
	}

	if ix.Len() > 0 {
		if report.Groups, err = ix.Groups(threshold, candidates); err != nil {
			return err
		}
	}
	for _, g := range report.Groups {
		report.Duplicates += len(g.Keys) - 1
	}
	report.DurationMs = time.Since(startTime).Milliseconds()

	if jsonOutput {
		return outputJSON(report)
	}
	printDupes(report)
	return nil
}

func printDupes(report DupesReport) {
	if len(report.Groups) == 0 {
		fmt.Printf("No duplicates among %d images.\n", report.ImagesScanned)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GROUP\tMAX DISTANCE\tFILE")
	fmt.Fprintln(w, "-----\t------------\t----")
	for i, g := range report.Groups {
		for j, key := range g.Keys {
			if j == 0 {
				fmt.Fprintf(w, "%d\t%d\t%s\n", i+1, g.MaxDistance, key)
			} else {
				fmt.Fprintf(w, "\t\t%s\n", key)
			}
		}
	}
	w.Flush()

	fmt.Printf("\n%d groups, %d duplicates among %d images", len(report.Groups), report.Duplicates, report.ImagesScanned)
	if report.Errors > 0 {
		fmt.Printf(" (%d failed)", report.Errors)
	}
	fmt.Printf(" in %s\n", formatDuration(time.Duration(report.DurationMs)*time.Millisecond))
}
