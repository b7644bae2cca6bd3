// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package relevance

import (
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// ErrEmptyTitle reports a paper that cannot be scored because its title is
// missing. Raised before any completion request is made.
var ErrEmptyTitle = errors.New("paper has empty title")

// promptPreambleTmpl is the fixed task preamble for the scoring prompt. The
// model is asked for one JSON record per paper, in input order, with a
// bilingual field set; the reconciler recognizes both the English-only and
// the bilingual keys.
var promptPreambleTmpl = template.Must(template.New("preamble").Parse(`You have been asked to read a list of arXiv papers, each with title, authors and abstract.
Based on my specific research interests, give a relevancy score out of 10 for each paper, with a higher score indicating greater relevance. A relevance score more than 7 will need person's attention for a detailed read.
Additionally, please generate 1-2 sentence summaries for each paper explaining why it is relevant to my interests, in both English and Chinese, plus a detailed summary of the paper's contribution in both languages.
Please keep the paper order the same as in the input list, with one JSON format per line. Example:
1. {"Relevancy score": "an integer score out of 10", "Reasons for match": "1-2 sentence short reasoning", "中文原因": "中文的匹配原因", "Detailed Summary": "detailed summary of the contribution", "详细总结": "中文的详细总结"}

My research interests are:
{{.Interest}}
`))

// EncodePrompt builds one scoring prompt from the interest statement and an
// ordered batch of papers. Each paper appears as a delimited block carrying
// its 1-based position; the trailing directive asks the model to begin a
// numbered, parallel response.
//
// The encoding is deterministic for identical inputs. A paper with an empty
// title fails with ErrEmptyTitle before anything is sent to a backend.
func EncodePrompt(interest string, papers []types.Paper) (string, error) {
	var b strings.Builder
	if err := promptPreambleTmpl.Execute(&b, struct{ Interest string }{Interest: interest}); err != nil {
		return "", fmt.Errorf("rendering preamble: %w", err)
	}

	for i, p := range papers {
		if p.Title == "" {
			return "", fmt.Errorf("paper %d: %w", i, ErrEmptyTitle)
		}
		fmt.Fprintf(&b, "###\n")
		fmt.Fprintf(&b, "%d. Title: %s\n", i+1, p.Title)
		fmt.Fprintf(&b, "%d. Authors: %s\n", i+1, p.Authors)
		fmt.Fprintf(&b, "%d. Abstract: %s\n", i+1, p.Abstract)
	}

	b.WriteString("\n Generate response:\n1.")
	return b.String(), nil
}
