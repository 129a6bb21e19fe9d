// Package search holds the types shared between the query dispatcher and the
// task executors: normalized result entries, query scope, and the name matcher
// that interprets the query string as a substring or a compiled pattern.
package search

import "time"

// Entry is a single search result in a normalized shape. Both strategies
// (live walk and index lookup) produce the same shape, so consumers never
// need to know which one an entry came from.
type Entry struct {
	Name    string
	Path    string
	IsDir   bool
	IsFile  bool
	Size    int64
	ModTime time.Time
	Hidden  bool
}

// ScopeKind selects where a query looks for matches.
type ScopeKind int

const (
	// ScopeLocal searches under a single concrete directory.
	ScopeLocal ScopeKind = iota
	// ScopeGlobal searches the whole background index.
	ScopeGlobal
)

func (k ScopeKind) String() string {
	if k == ScopeGlobal {
		return "global"
	}
	return "local"
}

// Scope pairs a scope kind with the directory a local search targets.
// Dir is empty for global scope.
type Scope struct {
	Kind ScopeKind
	Dir  string
}

// Local returns a scope targeting dir.
func Local(dir string) Scope { return Scope{Kind: ScopeLocal, Dir: dir} }

// Global returns the global scope.
func Global() Scope { return Scope{Kind: ScopeGlobal} }
