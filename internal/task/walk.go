package task

import (
	"context"
	"io"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"

	"github.com/justyntemme/scour/internal/debug"
	"github.com/justyntemme/scour/internal/filter"
	"github.com/justyntemme/scour/internal/index"
	"github.com/justyntemme/scour/internal/search"
)

// defaultContentCap bounds content scans when the caller did not set one.
const defaultContentCap = 50 * 1024

// WalkRunner is the general-purpose runner: it serves the local kinds by
// walking the live filesystem, and doubles as the fallback for index kinds
// when no dedicated index runner exists.
type WalkRunner struct {
	opSet
	idx *index.Index // May be nil; only used for the fallback path
}

// NewWalkRunner creates the general-purpose runner. idx may be nil when no
// background index exists at all.
func NewWalkRunner(idx *index.Index) *WalkRunner {
	return &WalkRunner{idx: idx}
}

// Run executes one operation. Cancellation is cooperative: the walk checks
// its context between entries and gives up promptly, and the caller's epoch
// guard covers whatever races remain.
func (w *WalkRunner) Run(kind Kind, p Params, opID string) ([]search.Entry, error) {
	ctx := w.begin(opID)
	defer w.end(opID)

	debug.Log(debug.TASK, "run %s op=%s dir=%q", kind, opID, p.Scope.Dir)

	switch kind {
	case SearchIndex, SearchContentIndex:
		entries, err := runIndexKind(ctx, w.idx, kind, p)
		return finish(ctx, entries, err)
	case SearchContent:
		entries, err := w.walk(ctx, p, true)
		return finish(ctx, entries, err)
	default:
		entries, err := w.walk(ctx, p, false)
		return finish(ctx, entries, err)
	}
}

// walk scans the scope directory recursively. With content=false an entry
// matches on name alone. With content=true a file also matches if its
// scanned bytes contain the query; scanning is capped per file, and a file
// whose content cannot be (fully) scanned still matches by name.
func (w *WalkRunner) walk(ctx context.Context, p Params, content bool) ([]search.Entry, error) {
	contentCap := p.ContentCap
	if contentCap <= 0 {
		contentCap = defaultContentCap
	}

	var results []search.Entry
	var mu sync.Mutex

	// Don't follow symlinks in recursive searches to avoid cycles
	conf := &fastwalk.Config{Follow: false}

	err := fastwalk.Walk(conf, p.Scope.Dir, func(fullPath string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			return nil // Skip errors, continue walking
		}
		if fullPath == p.Scope.Dir {
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
			info, err = os.Lstat(fullPath)
			if err != nil {
				debug.Log(debug.WALK_ENTRY, "skipping %q: stat error: %v", d.Name(), err)
				return nil
			}
		}

		isDir := info.IsDir()
		if !isDir && !info.Mode().IsRegular() {
			return nil
		}

		matched := p.Matcher.MatchName(d.Name())
		if !matched && content && !isDir {
			matched = scanContent(fullPath, p.Matcher, contentCap)
		}
		if !matched {
			return nil
		}

		e := search.Entry{
			Name:    d.Name(),
			Path:    fullPath,
			IsDir:   isDir,
			IsFile:  !isDir,
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Hidden:  strings.HasPrefix(d.Name(), "."),
		}
		if !filter.Matches(e, p.Filters) {
			return nil
		}

		debug.Log(debug.WALK_ENTRY, "match %s", fullPath)
		mu.Lock()
		results = append(results, e)
		mu.Unlock()
		return nil
	})

	if err != nil && ctx.Err() == nil {
		debug.Log(debug.WALK, "walk error: %v", err)
		return results, err
	}

	debug.Log(debug.WALK, "walk of %q complete, %d results", p.Scope.Dir, len(results))
	return results, nil
}

// scanContent reads at most limit bytes of a file and matches the query
// against them. Read errors and truncation never fail the file; they just
// mean no content match.
func scanContent(path string, m *search.Matcher, limit int64) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	chunk, err := io.ReadAll(io.LimitReader(f, limit))
	if err != nil {
		return false
	}
	return m.MatchContent(chunk)
}

// skipDirRoots contains top-level directories to skip during walks.
var skipDirRoots = map[string]bool{
	"dev":        true,
	"proc":       true,
	"sys":        true,
	"run":        true,
	"snap":       true,
	"boot":       true,
	"lost+found": true,
}

// shouldSkipPath returns true if the path should be skipped during search.
// Extracts the first path component after "/" and does a single map lookup.
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
