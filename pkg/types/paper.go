// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// Paper holds the metadata for one arXiv listing entry. The JSON field
// names match the day-store line format, so records written by older
// tooling remain readable.
type Paper struct {
	// URL is the abstract page for the paper (e.g. "https://arxiv.org/abs/2301.07041").
	URL string `json:"main_page" yaml:"main_page"`

	// PDF is the direct PDF link.
	PDF string `json:"pdf,omitempty" yaml:"pdf,omitempty"`

	// Title is the paper title. A paper with an empty title is rejected
	// before any scoring request is made.
	Title string `json:"title" yaml:"title"`

	// Authors is the author list as free text, in source order.
	Authors string `json:"authors" yaml:"authors"`

	// Abstract is the paper abstract as free text.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Subjects is the semicolon-delimited subject line from the listing,
	// e.g. "Machine Learning (cs.LG); Artificial Intelligence (cs.AI)".
	Subjects string `json:"subjects" yaml:"subjects"`
}

// Categories splits the Subjects line into category names with the
// parenthesized codes stripped: "Machine Learning (cs.LG)" becomes
// "Machine Learning".
func (p Paper) Categories() []string {
	if p.Subjects == "" {
		return nil
	}
	parts := strings.Split(p.Subjects, ";")
	out := make([]string, 0, len(parts))
	for _, s := range parts {
		name, _, _ := strings.Cut(s, " (")
		out = append(out, strings.TrimSpace(name))
	}
	return out
}

// InAnyCategory reports whether the paper lists at least one of the given
// category names. An empty filter matches everything.
func (p Paper) InAnyCategory(categories []string) bool {
	if len(categories) == 0 {
		return true
	}
	want := make(map[string]bool, len(categories))
	for _, c := range categories {
		want[c] = true
	}
	for _, c := range p.Categories() {
		if want[c] {
			return true
		}
	}
	return false
}

// ScoredPaper is a Paper that survived the relevance threshold, carrying
// the annotation fields merged from the model's structured record. The
// identity fields of the embedded Paper are never modified.
type ScoredPaper struct {
	Paper `yaml:",inline"`

	// Score is the relevancy score on the 0-10 scale.
	Score int `json:"relevancy_score" yaml:"relevancy_score"`

	// Fields holds every named field from the model's record for this
	// paper, stringified (e.g. "Reasons for match", "中文原因",
	// "Detailed Summary", "详细总结").
	Fields map[string]string `json:"fields" yaml:"fields"`

	// Summary is a human-readable composite of title, authors, link, and
	// all merged fields, for display and debugging.
	Summary string `json:"summarized_text" yaml:"summarized_text"`
}

// BatchResult is the outcome of scoring one batch of papers.
type BatchResult struct {
	// Papers lists the surviving papers in original batch order.
	Papers []ScoredPaper

	// Hallucination is set when the number of structured records in the
	// reply did not match the number of papers sent.
	Hallucination bool
}

// RunResult is the outcome of a full scoring run across all batches.
type RunResult struct {
	// Papers lists every surviving paper, sorted by Score descending.
	// Ties keep the order in which batches produced them.
	Papers []ScoredPaper

	// Hallucination is the OR of the per-batch flags.
	Hallucination bool
}
