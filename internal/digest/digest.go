// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package digest renders a scored run as a self-contained HTML page
// suitable both for writing to disk and for mailing as the message body.
package digest

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/paper-digest/pkg/types"
)

const defaultOutputPath = "digest.html"

// knownFields lists the record fields rendered with their own label, in
// display order. Anything else the model returned is appended after them.
var knownFields = []string{
	"Reasons for match",
	"中文原因",
	"Detailed Summary",
	"详细总结",
}

var pageTmpl = template.Must(template.New("digest").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Heading}}</title>
<style>
body { font-family: Georgia, serif; max-width: 48em; margin: 2em auto; padding: 0 1em; }
.warning { background: #fff3cd; border: 1px solid #ffc107; padding: 0.6em 1em; }
.paper { margin: 1.5em 0; border-bottom: 1px solid #ddd; padding-bottom: 1em; }
.score { color: #666; font-size: 0.9em; }
.field-label { font-weight: bold; }
</style>
</head>
<body>
<h1>{{.Heading}}</h1>
{{if .HeadingLocalized}}<h2>{{.HeadingLocalized}}</h2>{{end}}
<p class="score">{{.Date}} · {{len .Papers}} papers</p>
{{if .Hallucination}}<p class="warning">Warning: the model returned a different number of records than papers sent in at least one batch. Some annotations below may be misattributed.</p>{{end}}
{{if not .Papers}}<p>No papers met the relevance threshold today.</p>{{end}}
{{range .Papers}}<div class="paper">
<h3><a href="{{.URL}}">{{.Title}}</a> <span class="score">(score {{.Score}})</span></h3>
<p>{{.Authors}}</p>
{{if .Subjects}}<p class="score">{{.Subjects}}</p>{{end}}
{{range .Fields}}<p><span class="field-label">{{.Label}}:</span> {{.Value}}</p>
{{end}}{{if .PDF}}<p><a href="{{.PDF}}">PDF</a></p>{{end}}
</div>
{{end}}</body>
</html>
`))

type pageData struct {
	Heading          string
	HeadingLocalized string
	Date             string
	Hallucination    bool
	Papers           []paperData
}

type paperData struct {
	URL      string
	PDF      string
	Title    string
	Authors  string
	Subjects string
	Score    int
	Fields   []fieldData
}

type fieldData struct {
	Label string
	Value string
}

// Render produces the digest HTML for one run. Papers are rendered in the
// order they arrive, which the scoring stage has already sorted by score.
func Render(cfg types.DigestConfig, result types.RunResult, date time.Time) (string, error) {
	heading := cfg.Heading
	if heading == "" {
		heading = "Personalized arXiv digest"
	}

	data := pageData{
		Heading:          heading,
		HeadingLocalized: cfg.HeadingLocalized,
		Date:             date.Format("Monday, 2 January 2006"),
		Hallucination:    result.Hallucination,
	}
	for _, p := range result.Papers {
		data.Papers = append(data.Papers, paperData{
			URL:      p.URL,
			PDF:      p.PDF,
			Title:    p.Title,
			Authors:  p.Authors,
			Subjects: p.Subjects,
			Score:    p.Score,
			Fields:   orderFields(p.Fields),
		})
	}

	var b strings.Builder
	if err := pageTmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("rendering digest: %w", err)
	}
	return b.String(), nil
}

// Write renders the digest and writes it to the configured output path,
// creating parent directories as needed. It returns the path written.
func Write(cfg types.DigestConfig, result types.RunResult, date time.Time) (string, error) {
	html, err := Render(cfg, result, date)
	if err != nil {
		return "", err
	}

	path := cfg.OutputPath
	if path == "" {
		path = defaultOutputPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("creating digest directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return "", fmt.Errorf("writing digest: %w", err)
	}
	return path, nil
}

// orderFields flattens a record's field map into display order: the known
// labels first, then any extra fields the model returned, alphabetically.
// The score key is dropped; the title line already shows the score.
func orderFields(fields map[string]string) []fieldData {
	var out []fieldData
	seen := make(map[string]bool, len(fields))
	for _, label := range knownFields {
		if v, ok := fields[label]; ok {
			out = append(out, fieldData{Label: label, Value: v})
			seen[label] = true
		}
	}

	var extra []string
	for label := range fields {
		if seen[label] || strings.EqualFold(label, "Relevancy score") {
			continue
		}
		extra = append(extra, label)
	}
	sort.Strings(extra)
	for _, label := range extra {
		out = append(out, fieldData{Label: label, Value: fields[label]})
	}
	return out
}
