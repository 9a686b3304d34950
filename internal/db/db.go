// Package db is the completion ledger: a sqlite table keyed by source URL
// recording every transfer that finished. It is the single synchronization
// point that keeps concurrent workers from recording the same URL twice.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/WaffleThief123/myrient-downloader/pkg/models"
)

// ConflictError reports a ledger row whose recorded local path disagrees
// with the path a new record carries. The on-disk layout changed underneath
// the ledger; the caller must treat this as fatal rather than overwrite.
type ConflictError struct {
	URL       string
	Existing  string
	Attempted string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("ledger conflict for %s: recorded at %s, attempted %s", e.URL, e.Existing, e.Attempted)
}

// DB is a ledger backed by a sqlite database file.
type DB struct {
	conn *sql.DB

	// mu serializes writes; reads go through sqlite's own WAL handling.
	mu sync.Mutex
}

// New opens (or creates) the ledger at path and ensures the schema exists.
func New(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", path, err)
	}

	db := &DB{conn: conn}
	if err := db.initialize(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initialize ledger %s: %w", path, err)
	}
	return db, nil
}

func (db *DB) initialize() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS downloads (
			url TEXT PRIMARY KEY,
			relative_path TEXT,
			local_path TEXT,
			completed_at TIMESTAMP,
			file_size INTEGER,
			status TEXT
		);
		PRAGMA journal_mode=WAL;
		PRAGMA synchronous=NORMAL;
		PRAGMA busy_timeout=5000;
	`)
	return err
}

// Contains reports whether a completed record exists for url.
func (db *DB) Contains(url string) (bool, error) {
	var one int
	err := db.conn.QueryRow(`SELECT 1 FROM downloads WHERE url = ?`, url).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ledger lookup %s: %w", url, err)
	}
	return true, nil
}

// Record appends a completed record. Records are append-only: recording the
// same URL with the same local path again is a no-op, while a differing
// local path returns a ConflictError. The insert is synchronous, so the row
// is durable once Record returns.
func (db *DB) Record(rec models.Record) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	res, err := db.conn.Exec(`
		INSERT OR IGNORE INTO downloads (url, relative_path, local_path, completed_at, file_size, status)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.URL, rec.RelativePath, rec.LocalPath, rec.CompletedAt, rec.Size, rec.Status)
	if err != nil {
		return fmt.Errorf("ledger record %s: %w", rec.URL, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("ledger record %s: %w", rec.URL, err)
	}
	if n == 1 {
		return nil
	}

	// Row already present: idempotent if it points at the same path.
	var existing string
	if err := db.conn.QueryRow(`SELECT local_path FROM downloads WHERE url = ?`, rec.URL).Scan(&existing); err != nil {
		return fmt.Errorf("ledger record %s: %w", rec.URL, err)
	}
	if existing != rec.LocalPath {
		return &ConflictError{URL: rec.URL, Existing: existing, Attempted: rec.LocalPath}
	}
	return nil
}

// Stats returns totals over the completed records.
func (db *DB) Stats() (*models.Stats, error) {
	var stats models.Stats
	err := db.conn.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(file_size), 0)
		FROM downloads
		WHERE status = ?
	`, models.StatusCompleted).Scan(&stats.CompletedFiles, &stats.CompletedSize)
	if err != nil {
		return nil, fmt.Errorf("ledger stats: %w", err)
	}
	return &stats, nil
}

// Close flushes and releases the store.
func (db *DB) Close() error {
	return db.conn.Close()
}
