// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/paper-digest/internal/httputil"
	"github.com/pdiddy/paper-digest/pkg/types"
)

const (
	defaultListingBase = "https://arxiv.org/list"
	defaultAPIBase     = "https://export.arxiv.org/api/query"
	arxivAbsBase       = "https://arxiv.org/abs/"
)

// downloadListing scrapes the "new submissions" HTML page for one field and
// returns the papers in listing order.
func downloadListing(ctx context.Context, client *http.Client, cfg types.FetchConfig, abbr string) ([]types.Paper, error) {
	base := cfg.ListingBase
	if base == "" {
		base = defaultListingBase
	}
	url := fmt.Sprintf("%s/%s/new", base, abbr)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("fetching listing %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing %s returned HTTP %d", url, resp.StatusCode)
	}

	return parseListing(resp.Body)
}

// parseListing extracts papers from a listing page. Entries are dt/dd pairs
// under the content div: the dt carries the /abs/ link, the dd the title,
// authors, subjects, and abstract. Entries without a resolvable identifier
// or title are skipped rather than failing the page.
func parseListing(r io.Reader) ([]types.Paper, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing listing HTML: %w", err)
	}

	var papers []types.Paper
	dts := doc.Find("dl dt")
	dds := doc.Find("dl dd")
	if dts.Length() != dds.Length() {
		return nil, fmt.Errorf("malformed listing: %d dt entries vs %d dd entries", dts.Length(), dds.Length())
	}

	dts.Each(func(i int, dt *goquery.Selection) {
		dd := dds.Eq(i)

		id := listingID(dt)
		if id == "" {
			return
		}

		p := types.Paper{
			URL:      arxivAbsBase + id,
			PDF:      strings.Replace(arxivAbsBase, "/abs/", "/pdf/", 1) + id,
			Title:    cleanField(dd.Find("div.list-title").Text(), "Title:"),
			Authors:  cleanField(dd.Find("div.list-authors").Text(), "Authors:"),
			Subjects: cleanField(dd.Find("div.list-subjects").Text(), "Subjects:"),
			Abstract: strings.TrimSpace(strings.ReplaceAll(dd.Find("p.mathjax").Text(), "\n", " ")),
		}
		if p.Title == "" {
			return
		}
		papers = append(papers, p)
	})

	return papers, nil
}

// listingID pulls the arXiv identifier out of a dt element, preferring the
// /abs/ href and falling back to the "arXiv:NNNN.NNNNN" link text.
func listingID(dt *goquery.Selection) string {
	var id string
	dt.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if href, ok := a.Attr("href"); ok && strings.HasPrefix(href, "/abs/") {
			id = strings.TrimPrefix(href, "/abs/")
			return false
		}
		return true
	})
	if id != "" {
		return id
	}

	text := dt.Text()
	if idx := strings.Index(text, "arXiv:"); idx >= 0 {
		rest := text[idx+len("arXiv:"):]
		end := strings.IndexFunc(rest, func(r rune) bool {
			return !(r >= '0' && r <= '9') && r != '.'
		})
		if end < 0 {
			end = len(rest)
		}
		id = strings.TrimSpace(rest[:end])
	}
	return id
}

// cleanField strips the listing's label prefix and collapses whitespace.
func cleanField(s, label string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, label)
	return strings.Join(strings.Fields(s), " ")
}

// arXiv Atom feed XML structures, for API mode.
type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID         string         `xml:"id"`
	Title      string         `xml:"title"`
	Summary    string         `xml:"summary"`
	Authors    []atomAuthor   `xml:"author"`
	Categories []atomCategory `xml:"category"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}

// downloadAPI queries the arXiv Atom API for the field's most recent
// submissions. Category terms come back as codes (e.g. "cs.LG"), so the
// subjects line carries codes in this mode rather than readable names.
func downloadAPI(ctx context.Context, client *http.Client, cfg types.FetchConfig, abbr string) ([]types.Paper, error) {
	base := cfg.APIBase
	if base == "" {
		base = defaultAPIBase
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 100
	}

	url := fmt.Sprintf("%s?search_query=cat:%s.*&start=0&max_results=%d&sortBy=submittedDate&sortOrder=descending",
		base, abbr, maxResults)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed atomFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv API response: %w", err)
	}

	var papers []types.Paper
	for _, entry := range feed.Entries {
		id := extractAbsID(entry.ID)
		if id == "" || strings.TrimSpace(entry.Title) == "" {
			continue
		}

		var authors []string
		for _, a := range entry.Authors {
			authors = append(authors, strings.TrimSpace(a.Name))
		}
		var cats []string
		for _, c := range entry.Categories {
			cats = append(cats, c.Term)
		}

		papers = append(papers, types.Paper{
			URL:      arxivAbsBase + id,
			PDF:      strings.Replace(arxivAbsBase, "/abs/", "/pdf/", 1) + id,
			Title:    strings.Join(strings.Fields(entry.Title), " "),
			Authors:  strings.Join(authors, ", "),
			Abstract: strings.TrimSpace(strings.ReplaceAll(entry.Summary, "\n", " ")),
			Subjects: strings.Join(cats, "; "),
		})
	}
	return papers, nil
}

// extractAbsID pulls the arXiv ID from an Atom entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" → "2301.07041v1").
func extractAbsID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	return idURL[idx+len(prefix):]
}
