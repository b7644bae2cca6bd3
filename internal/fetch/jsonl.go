// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// dayLayout is the date key used in day-store filenames, matching the
// listing page's own date format ("Wed, 10 May 23").
const dayLayout = "Mon, 02 Jan 06"

// DayFile returns the day-store path for one field and date,
// e.g. "data/cs_Wed, 10 May 23.jsonl".
func DayFile(dataDir, abbr string, date time.Time) string {
	return filepath.Join(dataDir, fmt.Sprintf("%s_%s.jsonl", abbr, date.Format(dayLayout)))
}

// WriteDayFile writes papers to path as JSON lines, one paper per line,
// creating the parent directory if needed.
func WriteDayFile(path string, papers []types.Paper) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating day file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, p := range papers {
		if err := enc.Encode(p); err != nil {
			return fmt.Errorf("encoding paper %q: %w", p.Title, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing day file: %w", err)
	}
	return nil
}

// ReadDayFile reads papers back from a JSON-lines day file. Blank lines are
// skipped; a malformed line fails the read, since the store is written only
// by this tool.
func ReadDayFile(path string) ([]types.Paper, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening day file: %w", err)
	}
	defer f.Close()

	var papers []types.Paper
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var p types.Paper
		if err := json.Unmarshal(sc.Bytes(), &p); err != nil {
			return nil, fmt.Errorf("day file %s line %d: %w", path, line, err)
		}
		papers = append(papers, p)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading day file: %w", err)
	}
	return papers, nil
}
