// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package relevance

import (
	"errors"
	"strings"
	"testing"

	"github.com/pdiddy/paper-digest/pkg/types"
)

func samplePapers() []types.Paper {
	return []types.Paper{
		{
			URL:      "https://arxiv.org/abs/2301.00001",
			Title:    "Transformers for Circuit Sizing",
			Authors:  "A. Author, B. Author",
			Abstract: "We apply transformers to analog circuit sizing.",
			Subjects: "Machine Learning (cs.LG)",
		},
		{
			URL:      "https://arxiv.org/abs/2301.00002",
			Title:    "A Survey of Nothing",
			Authors:  "C. Author",
			Abstract: "This survey surveys nothing in particular.",
			Subjects: "Artificial Intelligence (cs.AI)",
		},
	}
}

func TestEncodePromptDeterministic(t *testing.T) {
	papers := samplePapers()
	a, err := EncodePrompt("analog circuit design", papers)
	if err != nil {
		t.Fatalf("EncodePrompt() error = %v", err)
	}
	b, err := EncodePrompt("analog circuit design", papers)
	if err != nil {
		t.Fatalf("EncodePrompt() error = %v", err)
	}
	if a != b {
		t.Error("identical inputs produced different prompts")
	}
}

func TestEncodePromptStructure(t *testing.T) {
	prompt, err := EncodePrompt("my interests", samplePapers())
	if err != nil {
		t.Fatalf("EncodePrompt() error = %v", err)
	}

	for _, want := range []string{
		"my interests",
		"###\n1. Title: Transformers for Circuit Sizing",
		"1. Authors: A. Author, B. Author",
		"1. Abstract: We apply transformers",
		"2. Title: A Survey of Nothing",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if !strings.HasSuffix(prompt, "Generate response:\n1.") {
		t.Errorf("prompt does not end with the response directive:\n...%s", prompt[len(prompt)-40:])
	}
}

func TestEncodePromptEmptyTitle(t *testing.T) {
	papers := samplePapers()
	papers[1].Title = ""

	_, err := EncodePrompt("q", papers)
	if !errors.Is(err, ErrEmptyTitle) {
		t.Fatalf("EncodePrompt() error = %v, want ErrEmptyTitle", err)
	}
	if !strings.Contains(err.Error(), "paper 1") {
		t.Errorf("error %q does not name the offending paper", err)
	}
}
