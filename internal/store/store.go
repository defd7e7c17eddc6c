// Package store caches verdicts in SQLite so re-analyzing an unchanged
// file is a lookup rather than a full extractor run.
//
// Entries are keyed by path plus a content fingerprint; editing the
// file invalidates the cached verdict automatically.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"aivid/internal/detect"
)

// Schema for the verdict cache.
const schema = `
CREATE TABLE IF NOT EXISTS verdicts (
    path         TEXT NOT NULL,
    fingerprint  BLOB NOT NULL,
    analyzed_at  INTEGER NOT NULL,
    verdict      TEXT NOT NULL,
    PRIMARY KEY (path, fingerprint)
);

CREATE INDEX IF NOT EXISTS idx_verdicts_fingerprint ON verdicts(fingerprint);
`

// Store is the SQLite verdict cache.
type Store struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path and
// applies the schema.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get returns the cached verdict for a path and fingerprint, with a
// second return of false on a cache miss.
func (s *Store) Get(path string, fingerprint [32]byte) (detect.Verdict, time.Time, bool, error) {
	var (
		verdictJSON string
		analyzedAt  int64
	)
	err := s.db.QueryRow(
		`SELECT verdict, analyzed_at FROM verdicts WHERE path = ? AND fingerprint = ?`,
		path, fingerprint[:],
	).Scan(&verdictJSON, &analyzedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return detect.Verdict{}, time.Time{}, false, nil
	}
	if err != nil {
		return detect.Verdict{}, time.Time{}, false, fmt.Errorf("query verdict: %w", err)
	}

	var v detect.Verdict
	if err := json.Unmarshal([]byte(verdictJSON), &v); err != nil {
		return detect.Verdict{}, time.Time{}, false, fmt.Errorf("decode cached verdict: %w", err)
	}
	return v, time.Unix(0, analyzedAt), true, nil
}

// Put stores a verdict, replacing any previous entry for the same path
// and fingerprint.
func (s *Store) Put(path string, fingerprint [32]byte, v detect.Verdict, analyzedAt time.Time) error {
	verdictJSON, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode verdict: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO verdicts (path, fingerprint, analyzed_at, verdict) VALUES (?, ?, ?, ?)`,
		path, fingerprint[:], analyzedAt.UnixNano(), string(verdictJSON),
	)
	if err != nil {
		return fmt.Errorf("insert verdict: %w", err)
	}
	return nil
}
