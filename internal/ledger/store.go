// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger records harvest runs and the pages they wrote in a
// SQLite database, so later runs can report pages the feed no longer
// produces.
package ledger

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/rifsite/pkg/types"
)

const timeLayout = time.RFC3339

// Store is an open ledger database.
type Store struct {
	db *sql.DB
}

// PageEntry is one page the ledger knows about.
type PageEntry struct {
	types.SummaryRow
	Path      string
	LastRunID int64
	UpdatedAt time.Time
}

// Open opens or creates the ledger at path, creating parent directories
// and the schema as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "creating ledger directory")
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, errors.Wrap(err, "opening ledger")
	}
	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating ledger schema")
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
			run_uuid TEXT NOT NULL,
			profile TEXT NOT NULL,
			feed_url TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			pages_fetched INTEGER NOT NULL DEFAULT 0,
			records_seen INTEGER NOT NULL DEFAULT 0,
			written INTEGER NOT NULL DEFAULT 0,
			skipped_no_rules INTEGER NOT NULL DEFAULT 0,
			skipped_unresolved INTEGER NOT NULL DEFAULT 0,
			summary_rows INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS pages (
			profile TEXT NOT NULL,
			identifier TEXT NOT NULL,
			type TEXT,
			subtype TEXT,
			key TEXT,
			name TEXT,
			path TEXT NOT NULL,
			last_run_id INTEGER NOT NULL REFERENCES runs(id),
			updated_at TEXT NOT NULL,
			PRIMARY KEY (profile, identifier)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pages_last_run ON pages(last_run_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return errors.Wrap(err, "executing schema statement")
		}
	}
	return nil
}

// BeginRun inserts a run row for st's RunID, Profile, FeedURL and Started
// and returns its id.
func (s *Store) BeginRun(ctx context.Context, st types.RunStats) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_uuid, profile, feed_url, started_at) VALUES (?, ?, ?, ?)`,
		st.RunID, st.Profile, st.FeedURL, st.Started.UTC().Format(timeLayout))
	if err != nil {
		return 0, errors.Wrap(err, "inserting run")
	}
	return res.LastInsertId()
}

// RecordPage upserts a written page against runID.
func (s *Store) RecordPage(ctx context.Context, runID int64, profile string, row types.SummaryRow, path string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pages (profile, identifier, type, subtype, key, name, path, last_run_id, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (profile, identifier) DO UPDATE SET
			type = excluded.type,
			subtype = excluded.subtype,
			key = excluded.key,
			name = excluded.name,
			path = excluded.path,
			last_run_id = excluded.last_run_id,
			updated_at = excluded.updated_at`,
		profile, row.Identifier, row.Type, row.Subtype, row.Key, row.Name, path, runID,
		at.UTC().Format(timeLayout))
	return errors.Wrapf(err, "recording page %s", row.Identifier)
}

// FinishRun stores the final counts of runID.
func (s *Store) FinishRun(ctx context.Context, runID int64, st types.RunStats) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE runs SET finished_at = ?, pages_fetched = ?, records_seen = ?, written = ?,
			skipped_no_rules = ?, skipped_unresolved = ?, summary_rows = ?
		WHERE id = ?`,
		st.Finished.UTC().Format(timeLayout), st.PagesFetched, st.RecordsSeen, st.Written,
		st.SkippedNoRules, st.SkippedUnresolved, st.SummaryRows, runID)
	return errors.Wrapf(err, "finishing run %d", runID)
}

// Stale returns the pages of profile that runID did not write, sorted by
// identifier. After a complete harvest these are pages whose records have
// left the feed.
func (s *Store) Stale(ctx context.Context, profile string, runID int64) ([]PageEntry, error) {
	return s.queryPages(ctx,
		`WHERE profile = ? AND last_run_id <> ? ORDER BY identifier`, profile, runID)
}

// Pages returns every page recorded for profile, sorted by identifier.
func (s *Store) Pages(ctx context.Context, profile string) ([]PageEntry, error) {
	return s.queryPages(ctx, `WHERE profile = ? ORDER BY identifier`, profile)
}

func (s *Store) queryPages(ctx context.Context, where string, args ...any) ([]PageEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT identifier, type, subtype, key, name, path, last_run_id, updated_at FROM pages `+where, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying pages")
	}
	defer rows.Close()

	var out []PageEntry
	for rows.Next() {
		var p PageEntry
		var updated string
		if err := rows.Scan(&p.Identifier, &p.Type, &p.Subtype, &p.Key, &p.Name, &p.Path, &p.LastRunID, &updated); err != nil {
			return nil, errors.Wrap(err, "scanning page")
		}
		p.UpdatedAt, _ = time.Parse(timeLayout, updated)
		out = append(out, p)
	}
	return out, errors.Wrap(rows.Err(), "iterating pages")
}

// LastRun returns the most recent finished run of profile, or nil.
func (s *Store) LastRun(ctx context.Context, profile string) (*types.RunStats, error) {
	var st types.RunStats
	var started, finished string
	err := s.db.QueryRowContext(ctx, `
		SELECT run_uuid, profile, feed_url, started_at, finished_at, pages_fetched, records_seen, written,
			skipped_no_rules, skipped_unresolved, summary_rows
		FROM runs WHERE profile = ? AND finished_at IS NOT NULL
		ORDER BY id DESC LIMIT 1`, profile).Scan(
		&st.RunID, &st.Profile, &st.FeedURL, &started, &finished, &st.PagesFetched, &st.RecordsSeen, &st.Written,
		&st.SkippedNoRules, &st.SkippedUnresolved, &st.SummaryRows)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "querying last run")
	}
	st.Started, _ = time.Parse(timeLayout, started)
	st.Finished, _ = time.Parse(timeLayout, finished)
	return &st, nil
}
