// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch downloads the day's new arXiv submissions and caches them
// in date-keyed JSON-lines files. Listings come either from the
// /list/<field>/new HTML page or from the Atom API.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// now is the clock used for day-store keys. Tests override it.
var now = time.Now

// Fetcher downloads and caches daily listings.
type Fetcher struct {
	Client *http.Client
	Config types.FetchConfig
}

// Papers returns today's new submissions for one topic. When the day file
// for the topic already exists, it is read back without touching the
// network; otherwise the listing is downloaded and cached first.
func (f *Fetcher) Papers(ctx context.Context, topic string, w io.Writer) ([]types.Paper, error) {
	abbr, err := FieldAbbr(topic)
	if err != nil {
		return nil, err
	}

	dataDir := f.Config.DataDir
	if dataDir == "" {
		dataDir = "data"
	}
	path := DayFile(dataDir, abbr, now())

	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(w, "using cached listing %s\n", path)
		return ReadDayFile(path)
	}

	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: f.Config.Timeout}
	}

	var papers []types.Paper
	if f.Config.UseAPI {
		papers, err = downloadAPI(ctx, client, f.Config, abbr)
	} else {
		papers, err = downloadListing(ctx, client, f.Config, abbr)
	}
	if err != nil {
		return nil, fmt.Errorf("topic %q: %w", topic, err)
	}

	if err := WriteDayFile(path, papers); err != nil {
		return nil, err
	}
	fmt.Fprintf(w, "fetched %d papers for %s\n", len(papers), topic)
	return papers, nil
}

// Topics fetches several topics and concatenates the results, filtering each
// topic's papers to the categories arXiv actually files under that topic.
// An empty category list keeps every paper.
func (f *Fetcher) Topics(ctx context.Context, topics, categories []string, w io.Writer) ([]types.Paper, error) {
	if w == nil {
		w = io.Discard
	}

	var all []types.Paper
	for _, topic := range topics {
		papers, err := f.Papers(ctx, topic, w)
		if err != nil {
			return nil, err
		}

		if len(categories) > 0 {
			relevant := ValidCategories(topic, categories)
			if len(relevant) == 0 {
				fmt.Fprintf(w, "no requested categories apply to %s, skipping\n", topic)
				continue
			}
			kept := papers[:0:0]
			for _, p := range papers {
				if p.InAnyCategory(relevant) {
					kept = append(kept, p)
				}
			}
			fmt.Fprintf(w, "%s: %d of %d papers match categories\n", topic, len(kept), len(papers))
			papers = kept
		}

		all = append(all, papers...)
	}
	return all, nil
}
