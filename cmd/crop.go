package cmd

import (
	"context"
	"fmt"
	"image"
	"os"
	"text/tabwriter"

	"github.com/kozaktomas/imagehash/internal/constants"
	"github.com/kozaktomas/imagehash/internal/fingerprint"
	"github.com/kozaktomas/imagehash/internal/imageio"
	"github.com/spf13/cobra"
)

var cropCmd = &cobra.Command{
	Use:   "crop <file>",
	Short: "Report how well fingerprints survive cropping",
	Long: `Crop an image progressively from every side and compare each crop with
the original, once with the crop-resistant hash and once with the perceptual
hash. The perceptual distance grows quickly while the crop-resistant score
stays high as long as the segments survive.

Examples:
  imagehash crop photo.jpg
  imagehash crop --steps 10 --json photo.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: runCrop,
}

func init() {
	rootCmd.AddCommand(cropCmd)

	cropCmd.Flags().Int("steps", constants.DefaultCropSteps, "Number of progressively tighter crops")
	cropCmd.Flags().Float64("fraction", constants.CropStepFraction, "Share of each side removed per step")
	cropCmd.Flags().Int("cutoff", 0, "Hamming distance up to which segments match (overrides --bit-error-rate)")
	cropCmd.Flags().Bool("exact", false, "Only identical segments match")
	cropCmd.Flags().Float64("bit-error-rate", fingerprint.DefaultBitErrorRate, "Share of differing bits up to which segments match")
	cropCmd.Flags().Int("concurrency", 0, "Number of parallel workers (0 uses IMAGEHASH_WORKERS or one per CPU)")
	cropCmd.Flags().Bool("json", false, "Output as JSON")
}

// CropStep is the comparison of one crop with the original image.
type CropStep struct {
	Step               int     `json:"step"`
	Margin             float64 `json:"margin"`
	Width              int     `json:"width"`
	Height             int     `json:"height"`
	Segments           int     `json:"segments"`
	Matched            int     `json:"matched"`
	Score              float64 `json:"score"`
	PerceptualDistance int     `json:"perceptual_distance"`
	Error              string  `json:"error,omitempty"`
}

type cropHashes struct {
	multi      *fingerprint.MultiFingerprint
	perceptual *fingerprint.Fingerprint
}

// cropRect removes margin of each side of bounds.
func cropRect(bounds image.Rectangle, margin float64) image.Rectangle {
	dx := int(float64(bounds.Dx()) * margin)
	dy := int(float64(bounds.Dy()) * margin)
	return image.Rect(bounds.Min.X+dx, bounds.Min.Y+dy, bounds.Max.X-dx, bounds.Max.Y-dy)
}

func runCrop(cmd *cobra.Command, args []string) error {
	steps := mustGetInt(cmd, "steps")
	fraction := mustGetFloat64(cmd, "fraction")
	if steps < 1 {
		return fmt.Errorf("--steps must be positive, got %d", steps)
	}
	if fraction <= 0 || fraction*float64(steps) >= 0.5 {
		return fmt.Errorf("--fraction %.3f with %d steps would crop the whole image", fraction, steps)
	}
	jsonOutput := mustGetBool(cmd, "json")
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts := cfg.Options()

	img, err := imageio.Open(args[0])
	if err != nil {
		return err
	}

	crops := make([]image.Image, steps+1)
	crops[0] = img
	for i := 1; i <= steps; i++ {
		crops[i] = imageio.Crop(img, cropRect(img.Bounds(), float64(i)*fraction))
	}

	results, err := fingerprint.HashAll(context.Background(), crops, func(crop image.Image) (cropHashes, error) {
		multi, err := fingerprint.CropResistantHash(crop, opts.Crop)
		if err != nil {
			return cropHashes{}, err
		}
		perceptual, err := fingerprint.PerceptualHash(crop, opts.Perceptual)
		if err != nil {
			return cropHashes{}, err
		}
		return cropHashes{multi: multi, perceptual: perceptual}, nil
	}, workerCount(mustGetInt(cmd, "concurrency"), cfg))
	if err != nil {
		return fmt.Errorf("hashing crops: %w", err)
	}
	if results[0].Err != nil {
		return fmt.Errorf("hashing %s: %w", args[0], results[0].Err)
	}
	original := results[0].Value

	report := make([]CropStep, 0, steps)
	for _, r := range results[1:] {
		b := crops[r.Index].Bounds()
		step := CropStep{
			Step:   r.Index,
			Margin: float64(r.Index) * fraction,
			Width:  b.Dx(),
			Height: b.Dy(),
		}
		if err := compareCrop(&step, original, r.Value, r.Err, opts.Match); err != nil {
			step.Error = err.Error()
		}
		report = append(report, step)
	}

	if jsonOutput {
		return outputJSON(report)
	}
	printCropReport(args[0], original, report)
	return nil
}

func compareCrop(step *CropStep, original, crop cropHashes, hashErr error, matchOpts fingerprint.MatchOptions) error {
	if hashErr != nil {
		return hashErr
	}
	match, err := original.multi.Match(crop.multi, matchOpts)
	if err != nil {
		return err
	}
	distance, err := original.perceptual.Distance(crop.perceptual)
	if err != nil {
		return err
	}
	step.Segments = crop.multi.Len()
	step.Matched = match.Count
	step.Score = match.Score
	step.PerceptualDistance = distance
	return nil
}

func printCropReport(path string, original cropHashes, report []CropStep) {
	fmt.Printf("%s: %d segments, perceptual hash %s\n\n", path, original.multi.Len(), original.perceptual)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tMARGIN\tSIZE\tSEGMENTS\tMATCHED\tSCORE\tPHASH DISTANCE")
	fmt.Fprintln(w, "----\t------\t----\t--------\t-------\t-----\t--------------")
	for _, s := range report {
		if s.Error != "" {
			fmt.Fprintf(w, "%d\t%.0f%%\t%dx%d\terror: %s\n", s.Step, s.Margin*100, s.Width, s.Height, s.Error)
			continue
		}
		fmt.Fprintf(w, "%d\t%.0f%%\t%dx%d\t%d\t%d\t%.2f\t%d\n",
			s.Step, s.Margin*100, s.Width, s.Height, s.Segments, s.Matched, s.Score, s.PerceptualDistance)
	}
	w.Flush()
}
