// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package relevance

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/paper-digest/internal/llm"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// recordKeys are the field names that mark a line as a structured record.
// Models interleave explanatory prose with the requested output, so only
// lines mentioning one of these (case-insensitively) are considered.
var recordKeys = []string{
	"relevancy score",
	"reasons for match",
	"中文原因",
	"detailed summary",
	"详细总结",
}

// enumPattern strips leading enumeration markers ("1. ") and stray escape
// backslashes from a candidate line.
var enumPattern = regexp.MustCompile(`^\d+\. |\\`)

// ParseError reports a completion from which no usable structured records
// could be extracted. Raw carries the full response content for diagnosis;
// retrying the same prompt is unlikely to help, so the caller decides
// whether to resubmit.
type ParseError struct {
	Raw string
}

func (e *ParseError) Error() string {
	return "no structured records parsed from completion"
}

// Reconcile maps a normalized completion back onto the ordered batch of
// input papers and applies the relevance threshold.
//
// The first K parsed records are assumed to correspond positionally to the
// first K input papers. A reply with more records than papers is truncated
// to the input count; a reply with fewer leaves the tail of the batch
// unannotated. Either mismatch sets the hallucination flag but is never an
// error. Individual malformed lines and unparsable scores degrade locally
// (line skipped, score zero).
func Reconcile(papers []types.Paper, comp llm.Completion, threshold int) (types.BatchResult, error) {
	content := strings.ReplaceAll(comp.Text(), "\n\n", "\n")

	records := parseRecords(content)
	if len(records) == 0 {
		if strings.TrimSpace(content) == "" {
			// An empty reply is a count mismatch, not a parse failure.
			return types.BatchResult{Hallucination: len(papers) > 0}, nil
		}
		return types.BatchResult{}, &ParseError{Raw: content}
	}

	var result types.BatchResult
	if len(records) != len(papers) {
		result.Hallucination = true
		if len(records) > len(papers) {
			records = records[:len(papers)]
		}
	}

	for i, rec := range records {
		score := extractScore(rec)
		if score < threshold {
			continue
		}

		sp := types.ScoredPaper{
			Paper:  papers[i],
			Score:  score,
			Fields: make(map[string]string, len(rec)),
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Title: %s\n", sp.Title)
		fmt.Fprintf(&b, "Authors: %s\n", sp.Authors)
		fmt.Fprintf(&b, "Link: %s\n", sp.URL)
		for _, key := range orderedKeys(rec) {
			value := stringify(rec[key])
			sp.Fields[key] = value
			fmt.Fprintf(&b, "%s: %s\n", key, value)
		}
		sp.Summary = b.String()

		result.Papers = append(result.Papers, sp)
	}

	return result, nil
}

// parseRecords extracts self-contained JSON records from the completion
// text, one per line. Lines that do not look like a record, or that fail to
// decode, are skipped.
func parseRecords(content string) []map[string]any {
	var records []map[string]any
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" || !looksLikeRecord(line) {
			continue
		}

		cleaned := strings.TrimSpace(enumPattern.ReplaceAllString(line, ""))
		if cleaned == "" {
			continue
		}
		if !strings.HasPrefix(cleaned, "{") && !strings.Contains(strings.ToLower(cleaned), `"relevancy score"`) {
			continue
		}
		// A record split across lines cannot be recovered; wait for a
		// complete one.
		if !strings.HasSuffix(cleaned, "}") {
			continue
		}

		var rec map[string]any
		if err := json.Unmarshal([]byte(cleaned), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records
}

// looksLikeRecord reports whether the line mentions any recognized field name.
func looksLikeRecord(line string) bool {
	lower := strings.ToLower(line)
	for _, key := range recordKeys {
		if strings.Contains(lower, key) {
			return true
		}
	}
	return false
}

// extractScore pulls the relevancy score from a parsed record. The score may
// be a bare integer, a float, or a "score/max" string; any unparsable form
// degrades to 0 rather than failing the record.
func extractScore(rec map[string]any) int {
	for key, value := range rec {
		if !strings.EqualFold(key, "relevancy score") {
			continue
		}
		switch v := value.(type) {
		case float64:
			return int(v)
		case string:
			s := v
			if before, _, found := strings.Cut(s, "/"); found {
				s = before
			}
			n, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil {
				return 0
			}
			return n
		}
		return 0
	}
	return 0
}

// canonicalOrder positions the well-known annotation fields in display order.
var canonicalOrder = map[string]int{
	"relevancy score":   0,
	"reasons for match": 1,
	"中文原因":              2,
	"detailed summary":  3,
	"详细总结":              4,
}

// orderedKeys returns the record's keys with the well-known fields first, in
// canonical order, and any extra fields after them alphabetically. JSON
// object decoding loses the model's ordering, so this keeps the composite
// summary deterministic.
func orderedKeys(rec map[string]any) []string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, iKnown := canonicalOrder[strings.ToLower(keys[i])]
		rj, jKnown := canonicalOrder[strings.ToLower(keys[j])]
		switch {
		case iKnown && jKnown:
			return ri < rj
		case iKnown:
			return true
		case jKnown:
			return false
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}

// stringify renders a record value for the Fields map and the composite summary.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}
