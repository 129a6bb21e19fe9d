// Package index maintains the background filesystem index: a SQLite snapshot
// of file metadata (and optionally capped file content) under the configured
// roots. The query dispatcher never touches this package directly; all
// lookups go through the task executor.
package index

import (
	"context"
	"database/sql"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/justyntemme/scour/internal/debug"
	"github.com/justyntemme/scour/internal/filter"
	"github.com/justyntemme/scour/internal/search"
)

const (
	// Rows per transaction during a rebuild
	batchSize = 500

	// Files larger than this never have content indexed regardless of cap
	maxContentFileSize = 10 * 1024 * 1024
)

// Options configures an index instance.
type Options struct {
	Enabled       bool
	ContentSearch bool     // Store capped file content for global content search
	Roots         []string // Directories the index covers
	ContentCap    int64    // Max bytes of content stored per file
}

// Status is the externally visible state of the index.
type Status struct {
	IsIndexing    bool
	IndexedFiles  int64
	TotalFiles    int64
	LastIndexTime time.Time
}

// Index is the queryable filesystem snapshot. Read-mostly: multiple windows
// share one instance; only Rebuild and the watcher mutate it.
type Index struct {
	conn *sql.DB
	opts Options

	mu            sync.Mutex
	isIndexing    bool
	lastIndexTime time.Time

	filesIndexed atomic.Int64
	totalFiles   atomic.Int64
}

// Open initializes the index database at dbPath, creating the schema if
// needed. The index may be opened while disabled; queries then short-circuit.
func Open(dbPath string, opts Options) (*Index, error) {
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
	// Synchronous NORMAL is safe against app crashes, faster than FULL
	if _, err := db.Exec("PRAGMA synchronous=NORMAL;"); err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS files (
		path       TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		name_lower TEXT NOT NULL,
		dir        TEXT NOT NULL,
		ext        TEXT NOT NULL,
		size       INTEGER NOT NULL,
		mtime      INTEGER NOT NULL,
		is_dir     INTEGER NOT NULL,
		hidden     INTEGER NOT NULL,
		content    TEXT,
		gen        INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_files_name ON files(name_lower);
	CREATE INDEX IF NOT EXISTS idx_files_dir ON files(dir);
	CREATE TABLE IF NOT EXISTS index_meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}

	idx := &Index{conn: db, opts: opts}

	// Restore status from the previous run
	var count int64
	if err := db.QueryRow("SELECT COUNT(*) FROM files").Scan(&count); err == nil {
		idx.totalFiles.Store(count)
	}
	var last string
	if err := db.QueryRow("SELECT value FROM index_meta WHERE key = 'last_index_time'").Scan(&last); err == nil {
		if t, err := time.Parse(time.RFC3339, last); err == nil {
			idx.lastIndexTime = t
		}
	}

	debug.Log(debug.INDEX, "opened index at %q: %d files, last built %v", dbPath, count, idx.lastIndexTime)
	return idx, nil
}

// Close closes the underlying database.
func (idx *Index) Close() error {
	if idx == nil || idx.conn == nil {
		return nil
	}
	return idx.conn.Close()
}

// Enabled reports whether the index is available for queries.
func (idx *Index) Enabled() bool {
	return idx != nil && idx.opts.Enabled
}

// ContentSearchEnabled reports whether file content is indexed.
func (idx *Index) ContentSearchEnabled() bool {
	return idx != nil && idx.opts.Enabled && idx.opts.ContentSearch
}

// Status returns indexing progress and counts.
func (idx *Index) Status() Status {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return Status{
		IsIndexing:    idx.isIndexing,
		IndexedFiles:  idx.filesIndexed.Load(),
		TotalFiles:    idx.totalFiles.Load(),
		LastIndexTime: idx.lastIndexTime,
	}
}

// Rebuild walks every configured root and replaces the snapshot. Entries
// not seen during the walk are dropped at the end, so a cancelled rebuild
// leaves the previous rows in place. Only one rebuild runs at a time.
func (idx *Index) Rebuild(ctx context.Context) error {
	if !idx.Enabled() {
		return search.ErrIndexDisabled
	}

	idx.mu.Lock()
	if idx.isIndexing {
		idx.mu.Unlock()
		return nil // A rebuild is already running
	}
	idx.isIndexing = true
	idx.mu.Unlock()

	defer func() {
		idx.mu.Lock()
		idx.isIndexing = false
		idx.mu.Unlock()
	}()

	gen := time.Now().UnixNano()
	idx.filesIndexed.Store(0)

	debug.Log(debug.INDEX, "rebuild starting: roots=%v gen=%d", idx.opts.Roots, gen)

	for _, root := range idx.opts.Roots {
		if err := idx.walkRoot(ctx, root, gen); err != nil {
			debug.Log(debug.INDEX, "rebuild aborted at root %q: %v", root, err)
			return err
		}
	}

	// Drop rows the walk did not touch (deleted files, removed roots)
	if _, err := idx.conn.Exec("DELETE FROM files WHERE gen < ?", gen); err != nil {
		return err
	}

	now := time.Now()
	idx.conn.Exec("INSERT OR REPLACE INTO index_meta (key, value) VALUES ('last_index_time', ?)",
		now.Format(time.RFC3339))

	idx.mu.Lock()
	idx.lastIndexTime = now
	idx.mu.Unlock()
	idx.totalFiles.Store(idx.filesIndexed.Load())

	debug.Log(debug.INDEX, "rebuild complete: %d files", idx.filesIndexed.Load())
	return nil
}

// row is one staged insert during a rebuild.
type row struct {
	entry   search.Entry
	content sql.NullString
}

func (idx *Index) walkRoot(ctx context.Context, root string, gen int64) error {
	var mu sync.Mutex
	batch := make([]row, 0, batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := idx.insertBatch(batch, gen); err != nil {
			return err
		}
		idx.filesIndexed.Add(int64(len(batch)))
		batch = batch[:0]
		return nil
	}

	// Don't follow symlinks: index roots can contain cycles
	conf := &fastwalk.Config{Follow: false}

	err := fastwalk.Walk(conf, root, func(fullPath string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			return nil // Skip unreadable entries, keep walking
		}
		if fullPath == root {
			return nil
		}
		if shouldSkipPath(fullPath) {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		info, err := fastwalk.StatDirEntry(fullPath, d)
		if err != nil {
			return nil
		}
		if !info.IsDir() && !info.Mode().IsRegular() {
			return nil
		}

		r := row{entry: entryFromInfo(fullPath, d.Name(), info)}
		if idx.opts.ContentSearch && r.entry.IsFile {
			if text, ok := idx.readContent(fullPath, info.Size()); ok {
				r.content = sql.NullString{String: text, Valid: true}
			}
		}

		mu.Lock()
		defer mu.Unlock()
		batch = append(batch, r)
		if len(batch) >= batchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	return flush()
}

func (idx *Index) insertBatch(batch []row, gen int64) error {
	tx, err := idx.conn.Begin()
	if err != nil {
		return err
	}
	// name_lower is folded in Go, not with SQL lower(), which only folds
	// ASCII; the stored content is folded the same way at read time.
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO files
		(path, name, name_lower, dir, ext, size, mtime, is_dir, hidden, content, gen)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, r := range batch {
		e := r.entry
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(e.Name), "."))
		if _, err := stmt.Exec(e.Path, e.Name, strings.ToLower(e.Name),
			filepath.Dir(e.Path), ext,
			e.Size, e.ModTime.Unix(), boolInt(e.IsDir), boolInt(e.Hidden),
			r.content, gen); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// RefreshDir re-scans the immediate children of dir and reconciles the index
// rows for that directory. Used by the change watcher.
func (idx *Index) RefreshDir(dir string) error {
	if !idx.Enabled() {
		return search.ErrIndexDisabled
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		// Directory is gone: drop everything beneath it
		if os.IsNotExist(err) {
			_, derr := idx.conn.Exec("DELETE FROM files WHERE dir = ? OR path = ? OR path LIKE ?",
				dir, dir, dir+string(filepath.Separator)+"%")
			return derr
		}
		return err
	}

	gen := time.Now().UnixNano()
	batch := make([]row, 0, len(entries))
	for _, d := range entries {
		fullPath := filepath.Join(dir, d.Name())
		info, err := d.Info()
		if err != nil {
			continue
		}
		if !info.IsDir() && !info.Mode().IsRegular() {
			continue
		}
		r := row{entry: entryFromInfo(fullPath, d.Name(), info)}
		if idx.opts.ContentSearch && r.entry.IsFile {
			if text, ok := idx.readContent(fullPath, info.Size()); ok {
				r.content = sql.NullString{String: text, Valid: true}
			}
		}
		batch = append(batch, r)
	}

	if err := idx.insertBatch(batch, gen); err != nil {
		return err
	}
	// Remove direct children that no longer exist
	if _, err := idx.conn.Exec("DELETE FROM files WHERE dir = ? AND gen < ?", dir, gen); err != nil {
		return err
	}

	var count int64
	if err := idx.conn.QueryRow("SELECT COUNT(*) FROM files").Scan(&count); err == nil {
		idx.totalFiles.Store(count)
	}
	debug.Log(debug.INDEX, "refreshed %q: %d entries", dir, len(batch))
	return nil
}

// readContent reads up to the content cap from a file, returning false for
// files that should not have content indexed at all. Content is stored
// lowercased; it exists only for matching, never for display.
func (idx *Index) readContent(path string, size int64) (string, bool) {
	if size > maxContentFileSize {
		return "", false
	}
	switch filter.TypeOf(path) {
	case "text", "code":
	default:
		return "", false
	}

	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	limit := idx.opts.ContentCap
	if limit <= 0 {
		limit = 100 * 1024
	}
	data, err := io.ReadAll(io.LimitReader(f, limit))
	if err != nil {
		return "", false
	}
	return strings.ToLower(string(data)), true
}

func entryFromInfo(path, name string, info fs.FileInfo) search.Entry {
	isDir := info.IsDir()
	return search.Entry{
		Name:    name,
		Path:    path,
		IsDir:   isDir,
		IsFile:  !isDir,
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Hidden:  strings.HasPrefix(name, "."),
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// skipDirRoots contains top-level directories never worth indexing.
var skipDirRoots = map[string]bool{
	"dev":        true,
	"proc":       true,
	"sys":        true,
	"run":        true,
	"snap":       true,
	"boot":       true,
	"lost+found": true,
}

// shouldSkipPath returns true if the path should be skipped during a walk.
func shouldSkipPath(path string) bool {
	if len(path) < 2 || path[0] != '/' {
		return false
	}
	rest := path[1:]
	slashIdx := strings.IndexByte(rest, '/')
	var firstComponent string
	if slashIdx == -1 {
		firstComponent = rest
	} else {
		firstComponent = rest[:slashIdx]
	}
	return skipDirRoots[firstComponent]
}
