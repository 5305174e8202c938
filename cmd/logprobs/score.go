package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ncecere/logprobs"
	"github.com/ncecere/logprobs/config"
)

var scoreModel string

var scoreCmd = &cobra.Command{
	Use:   "score PROMPT...",
	Short: "Print the log-probability of every token in PROMPT",
	Long: `Score sends PROMPT (arguments joined by spaces) to the completions
endpoint and prints one line per token:

  <index>  <logprob or ->  <quoted token>

followed by a summary line. A non-200 answer from the server is printed
verbatim to stderr and the command exits with status 1.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().StringVarP(&scoreModel, "model", "m", "", "registry name of the model (default from config)")
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	reg, err := buildRegistry(cfg, verbose)
	if err != nil {
		return err
	}

	modelName := scoreModel
	if modelName == "" {
		modelName = cfg.DefaultModel
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	res, err := logprobs.ScoreWithRegistry(ctx, reg, modelName, logprobs.ScoreRequest{
		Prompt: strings.Join(args, " "),
	})
	result := logprobs.NewResult(res, err)
	if !result.OK() {
		return fmt.Errorf("%s: %s", result.Kind, result.Error)
	}

	writeTokens(cmd.OutOrStdout(), result.Tokens)
	return nil
}

func writeTokens(w io.Writer, tokens []logprobs.TokenProbability) {
	for i, t := range tokens {
		lp := "-"
		if t.Logprob != nil {
			lp = strconv.FormatFloat(*t.Logprob, 'f', 4, 64)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", i, lp, strconv.Quote(t.Token))
	}
	s := logprobs.Summarize(tokens)
	fmt.Fprintf(w, "tokens=%d scored=%d total=%.4f mean=%.4f perplexity=%.4f\n",
		len(tokens), s.Scored, s.TotalLogprob, s.MeanLogprob, s.Perplexity)
}
