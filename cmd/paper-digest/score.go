package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-digest/internal/fetch"
	"github.com/pdiddy/paper-digest/internal/llm"
	"github.com/pdiddy/paper-digest/internal/relevance"
	"github.com/pdiddy/paper-digest/pkg/types"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score today's papers against your interests",
	Long: `Score fetches the day's papers and asks the configured language model to
rate each one against the interest statement from the config file. Papers
at or above the relevance threshold are printed by descending score.`,
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().Bool("json", false, "output results as JSON")
	scoreCmd.Flags().Int("threshold", 0, "minimum relevancy score to keep (default 6)")

	rootCmd.AddCommand(scoreCmd)
}

// fetchAndScore runs the fetch and scoring stages shared by the score and
// digest commands.
func fetchAndScore(ctx context.Context, cfg types.PipelineConfig) ([]types.Paper, types.RunResult, error) {
	if cfg.Fetch.Timeout == 0 {
		cfg.Fetch.Timeout = defaultTimeout
	}
	f := &fetch.Fetcher{
		Client: &http.Client{Timeout: cfg.Fetch.Timeout},
		Config: cfg.Fetch,
	}
	papers, err := f.Topics(ctx, cfg.Topics, cfg.Categories, os.Stderr)
	if err != nil {
		return nil, types.RunResult{}, err
	}

	if cfg.Scoring.Interest == "" {
		return nil, types.RunResult{}, fmt.Errorf("config: scoring.interest is empty; describe what you want to read about")
	}

	client, err := llm.NewClient(cfg.Scoring, os.Stderr)
	if err != nil {
		return nil, types.RunResult{}, err
	}

	result, err := relevance.Score(ctx, client, papers, cfg.Scoring, os.Stderr)
	if err != nil {
		return nil, types.RunResult{}, err
	}
	return papers, result, nil
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if threshold, _ := cmd.Flags().GetInt("threshold"); threshold > 0 {
		cfg.Scoring.Threshold = threshold
	}

	_, result, err := fetchAndScore(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	if result.Hallucination {
		fmt.Fprintln(os.Stderr, "warning: the model returned mismatched record counts; some annotations may be misattributed")
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Papers)
	}

	for _, p := range result.Papers {
		fmt.Printf("%2d  %s\n    %s\n", p.Score, p.Title, p.URL)
		if reason := p.Fields["Reasons for match"]; reason != "" {
			fmt.Printf("    %s\n", reason)
		}
	}
	fmt.Fprintf(os.Stderr, "%d papers kept\n", len(result.Papers))
	return nil
}
