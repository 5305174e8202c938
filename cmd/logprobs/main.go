// logprobs
//
// Scores text with an OpenAI-style completions endpoint: every prompt
// token is returned with its log-probability.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version    = "dev"
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "logprobs",
	Short: "logprobs - per-token log-probabilities for a prompt",
	Long: `logprobs asks a completions endpoint to echo a prompt and reports the
log-probability of every token.

  logprobs score "The quick brown fox"          Score a prompt
  logprobs score --model large "some text"      Score with a named model
  logprobs serve --listen :8085                 Start the HTTP API

Configuration is read from logprobs.yaml (or --config / LOGPROBS_CONFIG)
and can be overridden by OPENAI_API_KEY, OPENAI_BASE_URL, LOGPROBS_MODEL
and LOGPROBS_LISTEN.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to logprobs.yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log model calls to stderr")
	rootCmd.AddCommand(scoreCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
