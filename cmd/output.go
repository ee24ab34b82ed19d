package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/kozaktomas/imagehash/internal/config"
	"github.com/kozaktomas/imagehash/internal/constants"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// outputJSON writes data to stdout as indented JSON.
func outputJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}

// outputYAML writes data to stdout as YAML.
func outputYAML(data any) error {
	encoder := yaml.NewEncoder(os.Stdout)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding YAML output: %w", err)
	}
	return encoder.Close()
}

// outputFormat returns "json", "yaml" or "" for the --json and --yaml flags.
func outputFormat(cmd *cobra.Command) (string, error) {
	jsonOutput := mustGetBool(cmd, "json")
	yamlOutput := cmd.Flags().Lookup("yaml") != nil && mustGetBool(cmd, "yaml")
	switch {
	case jsonOutput && yamlOutput:
		return "", errors.New("--json and --yaml are mutually exclusive")
	case jsonOutput:
		return "json", nil
	case yamlOutput:
		return "yaml", nil
	}
	return "", nil
}

// writeStructured writes data in the given format.
func writeStructured(format string, data any) error {
	if format == "yaml" {
		return outputYAML(data)
	}
	return outputJSON(data)
}

// loadConfig loads the configuration, applies the hashing flags shared by
// the commands and validates the result.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Load()

	if f := cmd.Flags().Lookup("size"); f != nil && f.Changed {
		cfg.Hash.Size = mustGetInt(cmd, "size")
	}
	if f := cmd.Flags().Lookup("binbits"); f != nil && f.Changed {
		cfg.Hash.BinBits = mustGetInt(cmd, "binbits")
	}
	if f := cmd.Flags().Lookup("cutoff"); f != nil && f.Changed {
		cfg.Match.HammingCutoff = mustGetInt(cmd, "cutoff")
	}
	if f := cmd.Flags().Lookup("bit-error-rate"); f != nil && f.Changed {
		cfg.Match.BitErrorRate = mustGetFloat64(cmd, "bit-error-rate")
	}
	if f := cmd.Flags().Lookup("exact"); f != nil && f.Changed {
		cfg.Match.Exact = mustGetBool(cmd, "exact")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// workerCount resolves the number of hashing workers: the flag, then the
// configuration, then one per CPU up to the pool size.
func workerCount(flag int, cfg *config.Config) int {
	if flag > 0 {
		return flag
	}
	if cfg.Workers > 0 {
		return cfg.Workers
	}
	return min(runtime.NumCPU(), constants.WorkerPoolSize)
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}
