package cmd

import (
	"context"
	"fmt"

	"github.com/kozaktomas/imagehash/internal/config"
	"github.com/kozaktomas/imagehash/internal/constants"
	"github.com/kozaktomas/imagehash/internal/fingerprint"
	"github.com/kozaktomas/imagehash/internal/imageio"
	"github.com/spf13/cobra"
)

var compareCmd = &cobra.Command{
	Use:   "compare <a> <b>",
	Short: "Compare two images or two fingerprints",
	Long: `Compare two images by the distance between their fingerprints.

With --hex the arguments are fingerprints printed by "imagehash hash"
instead of image files.

Examples:
  # Perceptual hash distance of two images
  imagehash compare original.jpg copy.jpg

  # Crop-resistant comparison with a stricter segment cutoff
  imagehash compare --algorithm crop-resistant --cutoff 8 original.jpg cropped.jpg

  # Compare stored fingerprints
  imagehash compare --hex --algorithm ahash f0f0f0f0f0f0f0f0 f0f0f0f0f0f0f0f1`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)

	addAlgorithmFlag(compareCmd, fingerprint.AlgorithmPerceptual)
	compareCmd.Flags().Int("size", fingerprint.DefaultSize, "Fingerprint side length in bits")
	compareCmd.Flags().Int("binbits", fingerprint.DefaultBinBits, "Bits per colour hash bin")
	compareCmd.Flags().Int("cutoff", 0, "Hamming distance up to which crop-resistant segments match (overrides --bit-error-rate)")
	compareCmd.Flags().Float64("bit-error-rate", fingerprint.DefaultBitErrorRate, "Share of differing bits up to which crop-resistant segments match")
	compareCmd.Flags().Bool("exact", false, "Only identical crop-resistant segments match")
	compareCmd.Flags().Int("threshold", 0, "Largest distance reported as similar (0 uses IMAGEHASH_SIMILARITY_THRESHOLD)")
	compareCmd.Flags().Bool("hex", false, "Arguments are fingerprints rather than image files")
	compareCmd.Flags().Bool("json", false, "Output as JSON")
}

// CompareOutput is the result of the compare command.
type CompareOutput struct {
	A       string `json:"a"`
	B       string `json:"b"`
	HashA   string `json:"hash_a"`
	HashB   string `json:"hash_b"`
	Similar bool   `json:"similar"`
	*fingerprint.Comparison
}

func runCompare(cmd *cobra.Command, args []string) error {
	alg, err := algorithmFlag(cmd)
	if err != nil {
		return err
	}
	jsonOutput := mustGetBool(cmd, "json")
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts := cfg.Options()

	hashes := args
	if !mustGetBool(cmd, "hex") {
		if hashes, err = hashPair(args, alg, opts); err != nil {
			return err
		}
	}

	cmp, err := fingerprint.CompareHex(alg, hashes[0], hashes[1], opts)
	if err != nil {
		return err
	}

	out := CompareOutput{
		A:          args[0],
		B:          args[1],
		HashA:      hashes[0],
		HashB:      hashes[1],
		Similar:    cmp.Similar(similarityThreshold(mustGetInt(cmd, "threshold"), cfg), constants.DefaultRegionCutoff),
		Comparison: cmp,
	}
	if jsonOutput {
		return outputJSON(out)
	}
	printComparison(out)
	return nil
}

// hashPair hashes two image files concurrently.
func hashPair(paths []string, alg fingerprint.Algorithm, opts fingerprint.Options) ([]string, error) {
	results, err := fingerprint.HashAll(context.Background(), paths, func(path string) (*fingerprint.Result, error) {
		img, err := imageio.Open(path)
		if err != nil {
			return nil, err
		}
		return fingerprint.Compute(img, alg, opts)
	}, len(paths))
	if err != nil {
		return nil, err
	}

	hashes := make([]string, len(results))
	for i, r := range results {
		if r.Err != nil {
			return nil, fmt.Errorf("hashing %s: %w", paths[r.Index], r.Err)
		}
		hashes[i] = r.Value.Hash
	}
	return hashes, nil
}

func similarityThreshold(flag int, cfg *config.Config) int {
	if flag > 0 {
		return flag
	}
	if cfg.Match.SimilarityThreshold > 0 {
		return cfg.Match.SimilarityThreshold
	}
	return constants.DefaultSimilarityThreshold
}

func printComparison(out CompareOutput) {
	fmt.Printf("Algorithm: %s\n", out.Algorithm)
	fmt.Printf("  %s  %s\n", out.HashA, out.A)
	fmt.Printf("  %s  %s\n", out.HashB, out.B)
	fmt.Println()

	if out.Match != nil {
		fmt.Printf("Matched segments: %d (weighted %.2f)\n", out.Match.Count, out.Match.Weighted)
		fmt.Printf("Score:            %.3f\n", out.Match.Score)
		fmt.Printf("Difference:       %.3f\n", out.Distance)
	} else if out.Bits > 0 {
		fmt.Printf("Distance: %d of %d bits\n", int(out.Distance), out.Bits)
	} else {
		fmt.Printf("Distance: %d\n", int(out.Distance))
	}

	if out.Similar {
		fmt.Println("Verdict:  similar")
	} else {
		fmt.Println("Verdict:  different")
	}
}
