// Package task runs named search operations to completion or cancellation.
// Two runner implementations exist: a general-purpose runner that walks the
// live filesystem, and a dedicated runner that queries the background index.
// The dispatcher selects between them once, through Select, and then only
// talks to the Runner interface.
package task

import (
	"context"
	"sync"

	"github.com/justyntemme/scour/internal/debug"
	"github.com/justyntemme/scour/internal/filter"
	"github.com/justyntemme/scour/internal/index"
	"github.com/justyntemme/scour/internal/search"
)

// Kind names a search operation.
type Kind int

const (
	// SearchByName matches file names under a directory.
	SearchByName Kind = iota
	// SearchContent matches file names or capped byte content under a directory.
	SearchContent
	// SearchIndex matches file names against the background index.
	SearchIndex
	// SearchContentIndex matches indexed file content.
	SearchContentIndex
)

func (k Kind) String() string {
	switch k {
	case SearchContent:
		return "search-content"
	case SearchIndex:
		return "search-index"
	case SearchContentIndex:
		return "search-content-index"
	default:
		return "search-by-name"
	}
}

// Params carries everything a runner needs for one operation. The matcher is
// built (and, in regex mode, compiled) by the dispatcher before dispatch, so
// runners never see an invalid pattern.
type Params struct {
	Scope      search.Scope // Local(dir) for the local kinds, Global() otherwise
	Matcher    *search.Matcher
	Filters    *filter.Filters
	ContentCap int64 // Max bytes scanned per file for SearchContent
}

// Runner runs one operation at a time per operation id and supports
// fire-and-forget cancellation. Results are returned as a value/error pair;
// runners never panic across this boundary.
type Runner interface {
	Run(kind Kind, p Params, opID string) ([]search.Entry, error)
	Cancel(opID string)
}

// Select returns the runner to use for index-backed kinds: the dedicated
// index runner when present, otherwise the general-purpose runner. Callers
// use the returned Runner identically either way.
func Select(dedicated *IndexRunner, general Runner) Runner {
	if dedicated != nil {
		return dedicated
	}
	return general
}

// opSet tracks in-flight operations so Cancel can reach them. Cancelling an
// id that already finished or never started is a no-op.
type opSet struct {
	mu  sync.Mutex
	ops map[string]context.CancelFunc
}

func (s *opSet) begin(opID string) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	if s.ops == nil {
		s.ops = make(map[string]context.CancelFunc)
	}
	s.ops[opID] = cancel
	s.mu.Unlock()
	return ctx
}

func (s *opSet) end(opID string) {
	s.mu.Lock()
	if cancel, ok := s.ops[opID]; ok {
		delete(s.ops, opID)
		cancel()
	}
	s.mu.Unlock()
}

// Cancel requests cancellation of an in-flight operation.
func (s *opSet) Cancel(opID string) {
	s.mu.Lock()
	cancel, ok := s.ops[opID]
	s.mu.Unlock()
	if ok {
		debug.Log(debug.TASK, "cancel requested for op %s", opID)
		cancel()
	}
}

// runIndexKind serves the index-backed kinds for either runner. Presence and
// enabled state are checked before any I/O.
func runIndexKind(ctx context.Context, idx *index.Index, kind Kind, p Params) ([]search.Entry, error) {
	if idx == nil || !idx.Enabled() {
		return nil, search.ErrIndexDisabled
	}

	switch kind {
	case SearchContentIndex:
		return idx.SearchContent(ctx, p.Matcher, p.Filters)
	default:
		return idx.SearchName(ctx, p.Matcher, p.Filters)
	}
}

// finish normalizes a runner result: a cancelled context always wins over
// whatever the strategy returned.
func finish(ctx context.Context, entries []search.Entry, err error) ([]search.Entry, error) {
	if ctx.Err() != nil {
		return nil, search.ErrCancelled
	}
	return entries, err
}
