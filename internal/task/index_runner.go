package task

import (
	"errors"

	"github.com/justyntemme/scour/internal/debug"
	"github.com/justyntemme/scour/internal/index"
	"github.com/justyntemme/scour/internal/search"
)

// IndexRunner is the dedicated runner for index-backed kinds. It refuses the
// local kinds; routing them here is a programming error surfaced as a plain
// error rather than a crash.
type IndexRunner struct {
	opSet
	idx *index.Index
}

// NewIndexRunner creates a runner over idx. Returns nil when idx is nil so
// Select falls back to the general-purpose runner.
func NewIndexRunner(idx *index.Index) *IndexRunner {
	if idx == nil {
		return nil
	}
	return &IndexRunner{idx: idx}
}

// Run executes an index-backed operation.
func (r *IndexRunner) Run(kind Kind, p Params, opID string) ([]search.Entry, error) {
	ctx := r.begin(opID)
	defer r.end(opID)

	debug.Log(debug.TASK, "index run %s op=%s", kind, opID)

	switch kind {
	case SearchIndex, SearchContentIndex:
		entries, err := runIndexKind(ctx, r.idx, kind, p)
		return finish(ctx, entries, err)
	default:
		return nil, errLocalKind
	}
}

var errLocalKind = errors.New("local search kind routed to the index runner")
