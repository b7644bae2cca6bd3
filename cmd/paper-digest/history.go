package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-digest/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived digest runs",
	Long: `History lists past digest runs from the archive database, newest first.
Pass --run to print the papers kept by one run.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int64("run", 0, "show the papers archived for this run id")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	s, err := store.Open(cfg.Archive)
	if err != nil {
		return err
	}
	defer s.Close()

	if runID, _ := cmd.Flags().GetInt64("run"); runID > 0 {
		papers, err := s.RunPapers(cmd.Context(), runID)
		if err != nil {
			return err
		}
		if len(papers) == 0 {
			return fmt.Errorf("no papers archived for run %d", runID)
		}
		for _, p := range papers {
			fmt.Printf("%2d  %s\n    %s\n", p.Score, p.Title, p.URL)
		}
		return nil
	}

	runs, err := s.History(cmd.Context())
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no archived runs")
		return nil
	}

	fmt.Printf("%4s  %-10s  %7s  %4s  %s\n", "id", "date", "fetched", "kept", "topics")
	for _, r := range runs {
		mark := ""
		if r.Hallucination {
			mark = "  (hallucination)"
		}
		fmt.Printf("%4d  %-10s  %7d  %4d  %s%s\n", r.ID, r.Date, r.Fetched, r.Kept, r.Topics, mark)
	}
	return nil
}
