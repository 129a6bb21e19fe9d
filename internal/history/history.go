// Package history persists submitted search queries so the UI can offer
// recent searches. Search-as-you-type dispatches are never recorded; only
// explicit submissions reach Add.
package history

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/justyntemme/scour/internal/debug"
)

const defaultMaxEntries = 200

// Store is a small sqlite-backed history log.
type Store struct {
	conn       *sql.DB
	maxEntries int
}

// Open initializes the history database and schema.
func Open(dbPath string, maxEntries int) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// WAL mode allows simultaneous readers and writers
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA synchronous=NORMAL;"); err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS search_history (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		query       TEXT NOT NULL,
		searched_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}

	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &Store{conn: db, maxEntries: maxEntries}, nil
}

// Add records a submitted query and prunes the log to the configured size.
func (s *Store) Add(query string) {
	if s == nil || query == "" {
		return
	}
	if _, err := s.conn.Exec("INSERT INTO search_history (query) VALUES (?)", query); err != nil {
		debug.Log(debug.STORE, "history insert failed: %v", err)
		return
	}
	_, err := s.conn.Exec(`DELETE FROM search_history WHERE id NOT IN
		(SELECT id FROM search_history ORDER BY id DESC LIMIT ?)`, s.maxEntries)
	if err != nil {
		debug.Log(debug.STORE, "history prune failed: %v", err)
	}
}

// Recent returns up to n distinct queries, most recent first.
func (s *Store) Recent(n int) ([]string, error) {
	if n <= 0 {
		n = 10
	}
	rows, err := s.conn.Query(`SELECT query FROM search_history
		GROUP BY query ORDER BY MAX(id) DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var queries []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err == nil {
			queries = append(queries, q)
		}
	}
	return queries, rows.Err()
}

// Clear drops the entire history.
func (s *Store) Clear() error {
	_, err := s.conn.Exec("DELETE FROM search_history")
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
