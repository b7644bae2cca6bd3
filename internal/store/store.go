// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store archives scored runs in a SQLite database so past digests
// can be listed and inspected after the HTML files are gone.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/paper-digest/pkg/types"
)

const defaultDBPath = "data/digest.db"

// Store manages the run archive database.
type Store struct {
	db      *sql.DB
	maxRuns int
}

// Open opens or creates the archive database, creating the schema and any
// missing parent directories.
func Open(cfg types.ArchiveConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = defaultDBPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating archive directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening archive database: %w", err)
	}

	maxRuns := cfg.MaxRuns
	if maxRuns <= 0 {
		maxRuns = 20
	}

	s := &Store{db: db, maxRuns: maxRuns}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating archive schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_date TEXT NOT NULL,
			topics TEXT,
			fetched INTEGER NOT NULL,
			kept INTEGER NOT NULL,
			hallucination INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS run_papers (
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			url TEXT,
			pdf TEXT,
			title TEXT NOT NULL,
			authors TEXT,
			subjects TEXT,
			score INTEGER NOT NULL,
			fields TEXT,
			summary TEXT,
			PRIMARY KEY (run_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_date ON runs(run_date)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RunSummary describes one archived run for history listings.
type RunSummary struct {
	ID            int64
	Date          string
	Topics        string
	Fetched       int
	Kept          int
	Hallucination bool
}

// SaveRun archives one scored run. fetched is the number of papers sent to
// scoring; the kept papers come from the result. It returns the run's id.
func (s *Store) SaveRun(ctx context.Context, date time.Time, topics []string, fetched int, result types.RunResult) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	topicsJSON, _ := json.Marshal(topics)
	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_date, topics, fetched, kept, hallucination, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		date.Format("2006-01-02"), string(topicsJSON), fetched, len(result.Papers),
		boolToInt(result.Hallucination), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_papers (run_id, position, url, pdf, title, authors, subjects, score, fields, summary)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range result.Papers {
		fieldsJSON, _ := json.Marshal(p.Fields)
		_, err := stmt.ExecContext(ctx,
			runID, i, p.URL, p.PDF, p.Title, p.Authors, p.Subjects,
			p.Score, string(fieldsJSON), p.Summary,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting paper %q: %w", p.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// History lists archived runs, newest first, capped at the configured
// maximum.
func (s *Store) History(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_date, topics, fetched, kept, hallucination
		 FROM runs ORDER BY id DESC LIMIT ?`, s.maxRuns)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		var topicsJSON string
		var hallucination int
		if err := rows.Scan(&r.ID, &r.Date, &topicsJSON, &r.Fetched, &r.Kept, &hallucination); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Hallucination = hallucination != 0

		var topics []string
		if json.Unmarshal([]byte(topicsJSON), &topics) == nil && len(topics) > 0 {
			r.Topics = topics[0]
			for _, t := range topics[1:] {
				r.Topics += ", " + t
			}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading runs: %w", err)
	}
	return out, nil
}

// RunPapers returns the archived papers for one run in stored order.
func (s *Store) RunPapers(ctx context.Context, runID int64) ([]types.ScoredPaper, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT url, pdf, title, authors, subjects, score, fields, summary
		 FROM run_papers WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying run %d: %w", runID, err)
	}
	defer rows.Close()

	var out []types.ScoredPaper
	for rows.Next() {
		var p types.ScoredPaper
		var fieldsJSON string
		if err := rows.Scan(&p.URL, &p.PDF, &p.Title, &p.Authors, &p.Subjects, &p.Score, &fieldsJSON, &p.Summary); err != nil {
			return nil, fmt.Errorf("scanning paper: %w", err)
		}
		if fieldsJSON != "" {
			if err := json.Unmarshal([]byte(fieldsJSON), &p.Fields); err != nil {
				return nil, fmt.Errorf("decoding fields for %q: %w", p.Title, err)
			}
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading papers: %w", err)
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
