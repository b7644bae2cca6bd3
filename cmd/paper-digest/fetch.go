package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-digest/internal/fetch"
)

const defaultTimeout = 60 * time.Second

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download today's new arXiv submissions",
	Long: `Fetch downloads the day's new submissions for each configured topic and
caches them in date-keyed files under the data directory. A second run on
the same day reads the cache instead of hitting arXiv again.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringSlice("topic", nil, "topics to fetch (overrides config)")
	fetchCmd.Flags().Bool("use-api", false, "query the arXiv API instead of scraping the listing page")
	fetchCmd.Flags().String("data-dir", "", "directory for cached listings (default \"data\")")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if topics, _ := cmd.Flags().GetStringSlice("topic"); len(topics) > 0 {
		cfg.Topics = topics
	}
	if useAPI, _ := cmd.Flags().GetBool("use-api"); useAPI {
		cfg.Fetch.UseAPI = true
	}
	if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
		cfg.Fetch.DataDir = dataDir
	}
	if cfg.Fetch.Timeout == 0 {
		cfg.Fetch.Timeout = defaultTimeout
	}

	f := &fetch.Fetcher{
		Client: &http.Client{Timeout: cfg.Fetch.Timeout},
		Config: cfg.Fetch,
	}
	papers, err := f.Topics(cmd.Context(), cfg.Topics, cfg.Categories, os.Stderr)
	if err != nil {
		return err
	}

	for _, p := range papers {
		fmt.Printf("%s\n    %s\n", p.Title, p.URL)
	}
	fmt.Fprintf(os.Stderr, "%d papers\n", len(papers))
	return nil
}
