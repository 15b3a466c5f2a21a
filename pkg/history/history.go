// Package history records which tests the user navigated to, backed by a
// SQLite database under the project's .statcompass/ directory. The log is a
// convenience cache; deleting the file loses nothing but the trail.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// FileName is the database file inside the settings directory.
const FileName = "history.db"

// Entry is one recorded navigation to a leaf node.
type Entry struct {
	ID        int64     `json:"id"`
	NodeID    string    `json:"node_id"`
	Test      string    `json:"test"`
	Path      []string  `json:"path"`
	VisitedAt time.Time `json:"visited_at"`
}

// Store is a SQLite-backed navigation log.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database inside dir, creating dir if
// needed.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	db, err := sql.Open("sqlite", filepath.Join(dir, FileName))
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS visits (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			node_id TEXT NOT NULL,
			test TEXT NOT NULL,
			path TEXT NOT NULL,
			visited_at TEXT NOT NULL
		);`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends a navigation event. path is the root-to-leaf node id chain.
func (s *Store) Record(nodeID, test string, path []string) error {
	_, err := s.db.Exec(
		"INSERT INTO visits (node_id, test, path, visited_at) VALUES (?, ?, ?, ?)",
		nodeID, test, strings.Join(path, "/"),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("record visit: %w", err)
	}
	return nil
}

// Recent returns the latest n entries, newest first. n <= 0 returns all.
func (s *Store) Recent(n int) ([]Entry, error) {
	query := "SELECT id, node_id, test, path, visited_at FROM visits ORDER BY id DESC"
	var args []any
	if n > 0 {
		query += " LIMIT ?"
		args = append(args, n)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query visits: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var path, visited string
		if err := rows.Scan(&e.ID, &e.NodeID, &e.Test, &path, &visited); err != nil {
			return nil, fmt.Errorf("scan visit row: %w", err)
		}
		if path != "" {
			e.Path = strings.Split(path, "/")
		}
		if t, err := time.Parse(time.RFC3339, visited); err == nil {
			e.VisitedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Clear deletes all recorded visits.
func (s *Store) Clear() error {
	if _, err := s.db.Exec("DELETE FROM visits"); err != nil {
		return fmt.Errorf("clear visits: %w", err)
	}
	return nil
}
