package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "warden",
	Short: "Contract validation for LLM responses",
	Long: `Warden sits between an LLM call and its caller: it proves (or repairs)
that a raw response conforms to a two-layer contract - a fixed envelope
wrapper plus a per-task payload schema - and recursively drives nested
task calls under strict depth and cycle limits.

Core capabilities:
- Validates envelope shape, meta contracts, and payload schemas per tier
- Applies a single lossless repair pass before giving up
- Aggregates payload risk annotations into a top-level risk level
- Expands nested name(args) directives with cycle and depth guards
- Returns a canonical error envelope for every failure, never a fault`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
