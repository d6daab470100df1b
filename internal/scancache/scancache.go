// Package scancache is a small local ledger of files already processed,
// keyed by content hash. The scanfile CLI uses it to skip re-OCR of
// unchanged files without needing the Postgres instance.
package scancache

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/grupoeventa/comprobantes/internal/common"
)

type Entry struct {
	ContentHash string
	FileName    string
	Kind        string
	Confidence  int
	ScannedAt   time.Time
}

type Cache struct {
	db *sql.DB
}

func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open scan cache: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS scanned_files (
		content_hash TEXT PRIMARY KEY,
		file_name    TEXT NOT NULL,
		kind         TEXT NOT NULL DEFAULT '',
		confidence   INTEGER NOT NULL DEFAULT 0,
		scanned_at   DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_scanned_files_scanned_at ON scanned_files(scanned_at);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init scan cache schema: %w", err)
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Seen reports whether the file bytes were processed before.
func (c *Cache) Seen(hash string) (bool, error) {
	var count int
	err := c.db.QueryRow(`SELECT COUNT(*) FROM scanned_files WHERE content_hash = ?`, hash).Scan(&count)
	return count > 0, err
}

// Record stores the outcome for a content hash, replacing a previous run
// of the same bytes.
func (c *Cache) Record(hash, fileName, kind string, confidence int) error {
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO scanned_files (content_hash, file_name, kind, confidence)
		 VALUES (?, ?, ?, ?)`,
		hash, fileName, kind, confidence,
	)
	return err
}

// Lookup returns the recorded outcome for a content hash.
func (c *Cache) Lookup(hash string) (Entry, error) {
	var e Entry
	err := c.db.QueryRow(
		`SELECT content_hash, file_name, kind, confidence, scanned_at
		 FROM scanned_files WHERE content_hash = ?`,
		hash,
	).Scan(&e.ContentHash, &e.FileName, &e.Kind, &e.Confidence, &e.ScannedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, common.ErrNotFound
	}
	return e, err
}

// Recent returns the latest entries, newest first.
func (c *Cache) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := c.db.Query(
		`SELECT content_hash, file_name, kind, confidence, scanned_at
		 FROM scanned_files
		 ORDER BY scanned_at DESC, content_hash
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ContentHash, &e.FileName, &e.Kind, &e.Confidence, &e.ScannedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
