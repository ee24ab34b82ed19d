package cmd

import (
	"fmt"
	"runtime"

	"github.com/kozaktomas/imagehash/internal/fingerprint"
	"github.com/spf13/cobra"
)

// Set by -ldflags at build time.
var (
	Version   = "dev"
	CommitSHA = "unknown"
	BuildDate = "unknown"
)

// VersionInfo describes the running binary.
type VersionInfo struct {
	Version    string                  `json:"version" yaml:"version"`
	Commit     string                  `json:"commit" yaml:"commit"`
	Built      string                  `json:"built" yaml:"built"`
	GoVersion  string                  `json:"go_version" yaml:"go_version"`
	Algorithms []fingerprint.Algorithm `json:"algorithms" yaml:"algorithms"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and the supported algorithms",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().Bool("json", false, "Output as JSON")
	versionCmd.Flags().Bool("yaml", false, "Output as YAML")
}

func currentVersion() VersionInfo {
	return VersionInfo{
		Version:    Version,
		Commit:     CommitSHA,
		Built:      BuildDate,
		GoVersion:  runtime.Version(),
		Algorithms: fingerprint.Algorithms,
	}
}

func runVersion(cmd *cobra.Command, _ []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	info := currentVersion()
	if format != "" {
		return writeStructured(format, info)
	}

	fmt.Printf("imagehash %s\n", info.Version)
	fmt.Printf("  Commit:     %s\n", info.Commit)
	fmt.Printf("  Built:      %s\n", info.Built)
	fmt.Printf("  Go:         %s\n", info.GoVersion)
	fmt.Printf("  Algorithms: %s\n", algorithmNames())
	return nil
}
