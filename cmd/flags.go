package cmd

import (
	"fmt"

	"github.com/kozaktomas/imagehash/internal/fingerprint"
	"github.com/spf13/cobra"
)

// mustGet reads a flag registered in init(). A lookup error means the flag
// was never defined, which is a programming bug, so it panics.
func mustGet[T any](name string, get func(string) (T, error)) T {
	val, err := get(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

func mustGetBool(cmd *cobra.Command, name string) bool {
	return mustGet(name, cmd.Flags().GetBool)
}

func mustGetInt(cmd *cobra.Command, name string) int {
	return mustGet(name, cmd.Flags().GetInt)
}

func mustGetString(cmd *cobra.Command, name string) string {
	return mustGet(name, cmd.Flags().GetString)
}

func mustGetFloat64(cmd *cobra.Command, name string) float64 {
	return mustGet(name, cmd.Flags().GetFloat64)
}

// addAlgorithmFlag registers --algorithm/-a with the given default.
func addAlgorithmFlag(cmd *cobra.Command, def fingerprint.Algorithm) {
	cmd.Flags().StringP("algorithm", "a", string(def), "Hash algorithm: "+algorithmNames())
}

// algorithmFlag parses --algorithm. Unknown names are user errors, not bugs.
func algorithmFlag(cmd *cobra.Command) (fingerprint.Algorithm, error) {
	return fingerprint.ParseAlgorithm(mustGetString(cmd, "algorithm"))
}
