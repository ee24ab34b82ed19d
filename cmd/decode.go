package cmd

import (
	"fmt"
	"strings"

	"github.com/kozaktomas/imagehash/internal/fingerprint"
	"github.com/spf13/cobra"
)

var decodeCmd = &cobra.Command{
	Use:   "decode <hex>",
	Short: "Print the bit grid of a fingerprint",
	Long: `Decode a textual fingerprint and print its bits as a grid, one row per
line, with '#' for set bits.

Square fingerprints are decoded from their length; --size forces a side.
Crop-resistant fingerprints (comma-separated segments) print every segment.
With --legacy the input is read in the old byte-per-row-chunk format and the
current encoding is printed alongside.

Examples:
  imagehash decode f0f0f0f0f0f0f0f0
  imagehash decode --legacy 0f0f0f0f0f0f0f0f`,
	Args: cobra.ExactArgs(1),
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)

	decodeCmd.Flags().Bool("legacy", false, "Input uses the legacy encoding")
	decodeCmd.Flags().Int("size", 0, "Side of the fingerprint (required for --legacy fingerprints other than 8x8)")
	decodeCmd.Flags().Bool("json", false, "Output as JSON")
}

// DecodeOutput describes one decoded fingerprint.
type DecodeOutput struct {
	Hex    string   `json:"hex"`
	Legacy string   `json:"legacy,omitempty"`
	Rows   int      `json:"rows"`
	Cols   int      `json:"cols"`
	Ones   int      `json:"ones"`
	Grid   []string `json:"grid"`
}

func runDecode(cmd *cobra.Command, args []string) error {
	size := mustGetInt(cmd, "size")
	legacy := mustGetBool(cmd, "legacy")
	jsonOutput := mustGetBool(cmd, "json")

	fps, err := decodeFingerprints(args[0], size, legacy)
	if err != nil {
		return err
	}

	outputs := make([]DecodeOutput, len(fps))
	for i, fp := range fps {
		outputs[i] = DecodeOutput{
			Hex:  fp.Hex(),
			Rows: fp.Rows(),
			Cols: fp.Cols(),
			Ones: fp.OnesCount(),
			Grid: renderGrid(fp),
		}
		if legacy {
			outputs[i].Legacy = args[0]
		}
	}

	if jsonOutput {
		return outputJSON(outputs)
	}
	for i, out := range outputs {
		if len(outputs) > 1 {
			fmt.Printf("Segment %d\n", i)
		}
		if out.Legacy != "" {
			fmt.Printf("Legacy:  %s\n", out.Legacy)
		}
		fmt.Printf("Hex:     %s\n", out.Hex)
		fmt.Printf("Shape:   %dx%d, %d bits set\n\n", out.Rows, out.Cols, out.Ones)
		fmt.Println(strings.Join(out.Grid, "\n"))
		if i < len(outputs)-1 {
			fmt.Println()
		}
	}
	return nil
}

// decodeFingerprints parses a single, legacy or comma-separated fingerprint.
func decodeFingerprints(s string, size int, legacy bool) ([]*fingerprint.Fingerprint, error) {
	s = strings.TrimSpace(s)
	switch {
	case legacy:
		if size == 0 {
			size = fingerprint.DefaultSize
		}
		fp, err := fingerprint.FromLegacyHex(s, size)
		if err != nil {
			return nil, err
		}
		return []*fingerprint.Fingerprint{fp}, nil
	case strings.Contains(s, fingerprint.MultiSeparator):
		m, err := fingerprint.MultiFromHex(s)
		if err != nil {
			return nil, err
		}
		fps := make([]*fingerprint.Fingerprint, 0, m.Len())
		for _, seg := range m.Segments() {
			fps = append(fps, seg.Fingerprint)
		}
		return fps, nil
	case size > 0:
		fp, err := fingerprint.FromHexShape(s, size, size)
		if err != nil {
			return nil, err
		}
		return []*fingerprint.Fingerprint{fp}, nil
	default:
		fp, err := fingerprint.FromHex(s)
		if err != nil {
			return nil, err
		}
		return []*fingerprint.Fingerprint{fp}, nil
	}
}

// renderGrid draws the fingerprint with '#' for set bits and '.' otherwise.
func renderGrid(fp *fingerprint.Fingerprint) []string {
	lines := make([]string, fp.Rows())
	for r := range lines {
		var sb strings.Builder
		for c := range fp.Cols() {
			if fp.Bit(r, c) {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		lines[r] = sb.String()
	}
	return lines
}
