package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/kozaktomas/imagehash/internal/constants"
	"github.com/kozaktomas/imagehash/internal/fingerprint"
	"github.com/kozaktomas/imagehash/internal/imageio"
	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var hashCmd = &cobra.Command{
	Use:   "hash [files...]",
	Short: "Compute fingerprints of image files",
	Long: `Compute a perceptual fingerprint for each image file.

Images are decoded (JPEG, PNG, GIF, BMP, TIFF, WebP) with their EXIF
orientation applied and hashed in parallel.

Examples:
  # Perceptual hash of a single image
  imagehash hash photo.jpg

  # 16x16 difference hashes of a directory
  imagehash hash --algorithm dhash --size 16 photos/*.jpg

  # Crop-resistant hashes as JSON for scripting
  imagehash hash --algorithm crop-resistant --json photos/*.png`,
	Args: cobra.MinimumNArgs(1),
	RunE: runHash,
}

func init() {
	rootCmd.AddCommand(hashCmd)

	addAlgorithmFlag(hashCmd, fingerprint.AlgorithmPerceptual)
	hashCmd.Flags().Int("size", fingerprint.DefaultSize, "Fingerprint side length in bits")
	hashCmd.Flags().Int("binbits", fingerprint.DefaultBinBits, "Bits per colour hash bin")
	hashCmd.Flags().Int("concurrency", 0, "Number of parallel workers (0 uses IMAGEHASH_WORKERS or one per CPU)")
	hashCmd.Flags().Bool("json", false, "Output as JSON")
	hashCmd.Flags().Bool("yaml", false, "Output as YAML")
}

// HashOutput is the fingerprint of one file.
type HashOutput struct {
	File     string `json:"file" yaml:"file"`
	Hash     string `json:"hash,omitempty" yaml:"hash,omitempty"`
	Rows     int    `json:"rows,omitempty" yaml:"rows,omitempty"`
	Cols     int    `json:"cols,omitempty" yaml:"cols,omitempty"`
	Segments int    `json:"segments,omitempty" yaml:"segments,omitempty"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

// HashReport summarizes a hash run.
type HashReport struct {
	Algorithm  fingerprint.Algorithm `json:"algorithm" yaml:"algorithm"`
	Results    []HashOutput          `json:"results" yaml:"results"`
	Errors     int                   `json:"errors" yaml:"errors"`
	DurationMs int64                 `json:"duration_ms" yaml:"duration_ms"`
}

func algorithmNames() string {
	names := make([]string, len(fingerprint.Algorithms))
	for i, a := range fingerprint.Algorithms {
		names[i] = string(a)
	}
	return strings.Join(names, ", ")
}

func runHash(cmd *cobra.Command, args []string) error {
	alg, err := algorithmFlag(cmd)
	if err != nil {
		return err
	}
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts := cfg.Options()
	workers := workerCount(mustGetInt(cmd, "concurrency"), cfg)
	startTime := time.Now()

	// Create progress bar (only for table output of larger batches)
	var bar *progressbar.ProgressBar
	if format == "" && len(args) >= constants.ProgressBarMinFiles {
		bar = progressbar.NewOptions(len(args),
			progressbar.OptionSetDescription("Hashing images"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("images"),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionFullWidth(),
			progressbar.OptionClearOnFinish(),
		)
	}

	log.WithFields(log.Fields{
		"algorithm": alg,
		"files":     len(args),
		"workers":   workers,
	}).Debug("hashing images")

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
	}, workers)
	if err != nil {
		return fmt.Errorf("hashing images: %w", err)
	}
	if bar != nil {
		_ = bar.Finish()
	}

	report := HashReport{
		Algorithm:  alg,
		Results:    make([]HashOutput, len(results)),
		DurationMs: time.Since(startTime).Milliseconds(),
	}
	for i, r := range results {
		out := HashOutput{File: args[r.Index]}
		if r.Value != nil {
			out.Hash = r.Value.Hash
			out.Rows = r.Value.Rows
			out.Cols = r.Value.Cols
			out.Segments = r.Value.Segments
		}
		if r.Err != nil {
			out.Error = r.Err.Error()
			report.Errors++
			log.WithError(r.Err).WithField("file", out.File).Debug("failed to hash image")
		}
		report.Results[i] = out
	}

	if format != "" {
		if err := writeStructured(format, report); err != nil {
			return err
		}
	} else {
		printHashTable(report)
	}

	if report.Errors > 0 {
		return fmt.Errorf("%d of %d images failed", report.Errors, len(args))
	}
	return nil
}

func printHashTable(report HashReport) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tHASH")
	fmt.Fprintln(w, "----\t----")
	for _, r := range report.Results {
		if r.Error != "" {
			fmt.Fprintf(w, "%s\terror: %s\n", r.File, r.Error)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\n", r.File, r.Hash)
	}
	w.Flush()

	if len(report.Results) > 1 {
		fmt.Printf("\n%d images in %s\n", len(report.Results), formatDuration(time.Duration(report.DurationMs)*time.Millisecond))
	}
}
