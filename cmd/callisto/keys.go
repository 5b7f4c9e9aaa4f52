package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"mercator-hq/callisto/pkg/cli"
)

// keyPrefix marks generated keys so they are picked up by log redaction.
const keyPrefix = "sk-"

var keysFlags struct {
	count  int
	bytes  int
	format string
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage API keys",
	Long: `Utilities for the API keys callisto accepts.

Callisto accepts two keys, configured through UNLIMITED_API_KEY and
LIMITED_API_KEY (or auth.unlimited_api_key and auth.limited_api_key in the
config file). Requests with the limited key are rate limited.

Subcommands:
  generate - Generate new random API keys`,
}

var keysGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate new API keys",
	Long: `Generate random API keys from the operating system's secure random source.

Keys look like "sk-" followed by URL-safe base64 text.

Examples:
  # One key
  callisto keys generate

  # A pair, one for each tier
  callisto keys generate --count 2

  # JSON output for scripting
  callisto keys generate --format json`,
	RunE: generateKeys,
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(keysGenerateCmd)

	keysGenerateCmd.Flags().IntVarP(&keysFlags.count, "count", "n", 1, "number of keys to generate")
	keysGenerateCmd.Flags().IntVar(&keysFlags.bytes, "bytes", 32, "random bytes per key (minimum 16)")
	keysGenerateCmd.Flags().StringVar(&keysFlags.format, "format", "text", "output format: text, json")
}

type generatedKeys struct {
	Keys []string `json:"keys"`
}

func (g *generatedKeys) RenderText(w io.Writer) error {
	for _, k := range g.Keys {
		if _, err := fmt.Fprintln(w, k); err != nil {
			return err
		}
	}
	return nil
}

// newAPIKey returns keyPrefix followed by n random bytes in unpadded
// URL-safe base64.
func newAPIKey(r io.Reader, n int) (string, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return keyPrefix + base64.RawURLEncoding.EncodeToString(buf), nil
}

func generateKeys(cmd *cobra.Command, args []string) error {
	if keysFlags.count < 1 {
		return cli.NewConfigError("count", "must be at least 1")
	}
	if keysFlags.bytes < 16 {
		return cli.NewConfigError("bytes", "must be at least 16")
	}

	formatter, err := cli.NewFormatter(cli.OutputFormat(keysFlags.format))
	if err != nil {
		return err
	}

	out := &generatedKeys{Keys: make([]string, 0, keysFlags.count)}
	for i := 0; i < keysFlags.count; i++ {
		key, err := newAPIKey(rand.Reader, keysFlags.bytes)
		if err != nil {
			return cli.NewCommandError("keys generate", err)
		}
		out.Keys = append(out.Keys, key)
	}

	return formatter.FormatTo(cmd.OutOrStdout(), out)
}
