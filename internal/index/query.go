package index

import (
	"context"
	"database/sql"
	"time"

	"github.com/justyntemme/scour/internal/debug"
	"github.com/justyntemme/scour/internal/filter"
	"github.com/justyntemme/scour/internal/search"
)

// checkEvery controls how often row loops poll for cancellation.
const checkEvery = 256

// SearchName finds indexed entries whose name matches the query. Substring
// terms are narrowed in SQL against the Go-folded name_lower column (SQL
// lower() only folds ASCII); regex patterns are evaluated in Go over the
// candidate rows. Structured filters apply after the name match.
func (idx *Index) SearchName(ctx context.Context, m *search.Matcher, f *filter.Filters) ([]search.Entry, error) {
	if !idx.Enabled() {
		return nil, search.ErrIndexDisabled
	}

	var rows *sql.Rows
	var err error
	if m.Pattern() == nil {
		rows, err = idx.conn.QueryContext(ctx,
			`SELECT path, name, size, mtime, is_dir, hidden FROM files
			 WHERE instr(name_lower, ?) > 0`, m.Term())
	} else {
		// Regex terms cannot be narrowed in SQL; scan every row
		rows, err = idx.conn.QueryContext(ctx,
			`SELECT path, name, size, mtime, is_dir, hidden FROM files`)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return idx.collect(ctx, rows, m, f, false)
}

// SearchContent finds indexed entries whose stored content matches the query.
// Stored content is already lowercased, so substring terms compare directly.
// Requires the content-search capability; without it the index behaves as
// disabled for this operation.
func (idx *Index) SearchContent(ctx context.Context, m *search.Matcher, f *filter.Filters) ([]search.Entry, error) {
	if !idx.ContentSearchEnabled() {
		return nil, search.ErrIndexDisabled
	}

	var rows *sql.Rows
	var err error
	if m.Pattern() == nil {
		rows, err = idx.conn.QueryContext(ctx,
			`SELECT path, name, size, mtime, is_dir, hidden FROM files
			 WHERE content IS NOT NULL AND instr(content, ?) > 0`, m.Term())
	} else {
		rows, err = idx.conn.QueryContext(ctx,
			`SELECT path, name, size, mtime, is_dir, hidden, content FROM files
			 WHERE content IS NOT NULL`)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return idx.collect(ctx, rows, m, f, true)
}

// collect drains a result set into normalized entries, applying the matcher
// (for regex terms) and the structured filter predicate.
func (idx *Index) collect(ctx context.Context, rows *sql.Rows, m *search.Matcher, f *filter.Filters, content bool) ([]search.Entry, error) {
	regex := m.Pattern() != nil
	var results []search.Entry
	n := 0

	for rows.Next() {
		n++
		if n%checkEvery == 0 && ctx.Err() != nil {
			return results, ctx.Err()
		}

		var path, name string
		var size, mtime int64
		var isDir, hidden int
		var body sql.NullString

		var err error
		if content && regex {
			err = rows.Scan(&path, &name, &size, &mtime, &isDir, &hidden, &body)
		} else {
			err = rows.Scan(&path, &name, &size, &mtime, &isDir, &hidden)
		}
		if err != nil {
			return results, err
		}

		if regex {
			if content {
				if !body.Valid || !m.MatchContent([]byte(body.String)) {
					continue
				}
			} else if !m.MatchName(name) {
				continue
			}
		}

		e := search.Entry{
			Name:    name,
			Path:    path,
			IsDir:   isDir == 1,
			IsFile:  isDir == 0,
			Size:    size,
			ModTime: time.Unix(mtime, 0),
			Hidden:  hidden == 1,
		}
		if !filter.Matches(e, f) {
			continue
		}
		results = append(results, e)
	}

	debug.Log(debug.INDEX, "query returned %d entries (content=%v regex=%v)", len(results), content, regex)
	return results, rows.Err()
}
