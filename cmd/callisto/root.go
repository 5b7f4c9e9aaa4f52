package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "callisto",
	Short: "Callisto - OpenAI-compatible proxy for llama.cpp",
	Long: `Callisto puts an OpenAI-compatible API in front of a llama.cpp server.

It provides:
  - /v1/chat/completions and /v1/completions, buffered or streamed
  - Jinja chat templates for turning messages into prompts
  - Two API keys: one unlimited, one under a sliding-window rate limit
  - Prometheus metrics, OpenTelemetry traces and health endpoints

Configuration comes from an optional YAML file (--config), then environment
variables (CALLISTO_*, UNLIMITED_API_KEY, LIMITED_API_KEY, LLAMA_SERVER_URL),
then command-line flags.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults and environment only when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
}
