// Package dispatch owns the foreground side of a search: mode state, filter
// edits, debouncing, and the epoch bookkeeping that keeps late results from a
// superseded query off the screen. One Dispatcher exists per window; each has
// its own epoch sequence and operation ids, so concurrently open windows never
// interfere with each other.
package dispatch

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/justyntemme/scour/internal/debug"
	"github.com/justyntemme/scour/internal/filter"
	"github.com/justyntemme/scour/internal/history"
	"github.com/justyntemme/scour/internal/search"
	"github.com/justyntemme/scour/internal/task"
)

// Sink renders returned entries. The highlight term is non-empty only for
// content searches, where the UI marks matching text.
type Sink interface {
	ShowResults(entries []search.Entry, highlight string)
}

// Notifier surfaces user-facing notices. Info is for precondition notices,
// Warn for the index-disabled condition, Error for everything else.
type Notifier interface {
	Info(msg string)
	Warn(msg string)
	Error(msg string)
}

// Deps wires a Dispatcher to its collaborators.
type Deps struct {
	Local   task.Runner // General-purpose runner (always present)
	Indexer task.Runner // Runner for index kinds, usually from task.Select
	Sink    Sink
	Notify  Notifier
	History *history.Store // Optional; submitted queries are recorded here
	Reload  func()         // Invoked when search closes to restore the plain view
}

// Options tunes per-dispatch behavior.
type Options struct {
	Debounce   time.Duration // Default delay for DebouncedSearch
	ContentCap int64         // Max bytes scanned per file in local content search
}

// Dispatcher coordinates queries for one window.
type Dispatcher struct {
	deps Deps
	opts Options

	mu            sync.Mutex
	active        bool
	location      string // Current directory; empty means the synthetic home view
	global        bool
	contentSearch bool
	regexMode     bool
	query         string
	filters       *filter.Filters // Immutable once attached to a dispatched query
	pending       *filter.Filters // Mutable copy for the open filter editor
	epoch         int64
	activeOp      string
	activeRunner  task.Runner
	debounce      *time.Timer
}

// New creates a dispatcher. Deps.Local, Deps.Sink and Deps.Notify must be set.
func New(deps Deps, opts Options) *Dispatcher {
	if opts.Debounce <= 0 {
		opts.Debounce = 250 * time.Millisecond
	}
	if deps.Indexer == nil {
		deps.Indexer = deps.Local
	}
	return &Dispatcher{deps: deps, opts: opts}
}

// SetLocation records the directory the window is showing. An empty string
// means the synthetic home view, where local search is unavailable.
func (d *Dispatcher) SetLocation(dir string) {
	d.mu.Lock()
	d.location = dir
	d.mu.Unlock()
}

// Active reports whether search mode is on.
func (d *Dispatcher) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// Global reports whether the current scope is global.
func (d *Dispatcher) Global() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.global
}

// ToggleSearch flips search mode. Activating from the home view forces
// global scope, since local search needs a concrete directory. Deactivating
// behaves exactly like CloseSearch.
func (d *Dispatcher) ToggleSearch() {
	d.mu.Lock()
	if d.active {
		d.mu.Unlock()
		d.CloseSearch()
		return
	}
	d.active = true
	d.global = d.location == ""
	global := d.global
	d.mu.Unlock()
	debug.Log(debug.DISPATCH, "search activated (global=%v)", global)
}

// OpenSearch enters search mode directly in the given scope. Local scope is
// still forced to global from the home view.
func (d *Dispatcher) OpenSearch(global bool) {
	d.mu.Lock()
	d.active = true
	d.global = global || d.location == ""
	d.mu.Unlock()
}

// SetQuery updates the query text.
func (d *Dispatcher) SetQuery(text string) {
	d.mu.Lock()
	d.query = text
	d.mu.Unlock()
}

// Query returns the current query text.
func (d *Dispatcher) Query() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.query
}

// SetContentSearch toggles content matching for subsequent dispatches.
func (d *Dispatcher) SetContentSearch(on bool) {
	d.mu.Lock()
	d.contentSearch = on
	d.mu.Unlock()
}

// SetRegexMode toggles regex interpretation of the query string.
func (d *Dispatcher) SetRegexMode(on bool) {
	d.mu.Lock()
	d.regexMode = on
	d.mu.Unlock()
}

// EditFilters returns the pending filter copy, creating it from the applied
// set if needed. The pending copy never affects dispatches until applied.
func (d *Dispatcher) EditFilters() *filter.Filters {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending == nil {
		if d.filters != nil {
			cp := *d.filters
			d.pending = &cp
		} else {
			d.pending = &filter.Filters{}
		}
	}
	return d.pending
}

// ApplyFilters validates the pending edit and promotes it to the applied
// set. An inverted size range is rejected here, before any dispatch.
func (d *Dispatcher) ApplyFilters() error {
	d.mu.Lock()
	pending := d.pending
	d.mu.Unlock()

	if err := pending.Validate(); err != nil {
		d.deps.Notify.Error("Invalid filters: " + err.Error())
		return err
	}

	d.mu.Lock()
	if pending != nil {
		cp := *pending
		d.filters = &cp
	}
	d.pending = nil
	d.mu.Unlock()
	return nil
}

// ClearFilters drops both the applied and pending filter sets.
func (d *Dispatcher) ClearFilters() {
	d.mu.Lock()
	d.filters = nil
	d.pending = nil
	d.mu.Unlock()
}

// Filters returns a copy of the applied filter set, nil when none is active.
func (d *Dispatcher) Filters() *filter.Filters {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.filters == nil {
		return nil
	}
	cp := *d.filters
	return &cp
}

// PerformSearch validates, allocates a fresh operation id and epoch, cancels
// any still-running prior operation, and routes the query to the right
// executor. The call returns once the operation is dispatched; the result is
// applied asynchronously, guarded by the captured epoch.
func (d *Dispatcher) PerformSearch() {
	d.dispatch(true)
}

// DebouncedSearch schedules a dispatch after delay, restarting the timer on
// every call so only the last call within the window actually searches.
// Non-positive delay uses the configured default.
func (d *Dispatcher) DebouncedSearch(delay time.Duration) {
	if delay <= 0 {
		delay = d.opts.Debounce
	}
	d.mu.Lock()
	if d.debounce != nil {
		d.debounce.Stop()
	}
	d.debounce = time.AfterFunc(delay, func() { d.dispatch(false) })
	d.mu.Unlock()
}

// CancelActiveSearch asks the executor to cancel the outstanding operation,
// if any, and bumps the epoch so its result is discarded even if the cancel
// signal loses the race. Safe to call repeatedly.
func (d *Dispatcher) CancelActiveSearch() {
	d.mu.Lock()
	opID := d.activeOp
	runner := d.activeRunner
	d.activeOp = ""
	d.activeRunner = nil
	if opID != "" {
		d.epoch++
	}
	d.mu.Unlock()

	if opID != "" {
		debug.Log(debug.DISPATCH, "cancelling op %s", opID)
		runner.Cancel(opID)
	}
}

// CloseSearch leaves search mode: cancels any in-flight operation, clears
// all transient state, bumps the epoch, and asks the owner to reload the
// unfiltered view.
func (d *Dispatcher) CloseSearch() {
	d.mu.Lock()
	opID := d.activeOp
	runner := d.activeRunner
	if d.debounce != nil {
		d.debounce.Stop()
		d.debounce = nil
	}
	d.active = false
	d.global = false
	d.contentSearch = false
	d.regexMode = false
	d.query = ""
	d.filters = nil
	d.pending = nil
	d.activeOp = ""
	d.activeRunner = nil
	d.epoch++
	d.mu.Unlock()

	if opID != "" {
		runner.Cancel(opID)
	}
	if d.deps.Reload != nil {
		d.deps.Reload()
	}
	debug.Log(debug.DISPATCH, "search closed")
}

// dispatch is the single entry point for actually starting an operation.
// submitted marks an explicit user action (Enter) worth recording in history.
func (d *Dispatcher) dispatch(submitted bool) {
	d.mu.Lock()
	query := d.query
	global := d.global
	location := d.location
	contentSearch := d.contentSearch
	regexMode := d.regexMode
	filters := d.filters
	d.mu.Unlock()

	if query == "" {
		return
	}

	// Local search needs a concrete directory; the home view has none.
	if !global && location == "" {
		d.deps.Notify.Info("Local search is unavailable here. Switch to global search.")
		return
	}

	// Regex mode compiles before anything else; a bad pattern never
	// allocates an operation id or cancels the running search.
	matcher, err := search.NewMatcher(query, regexMode)
	if err != nil {
		d.deps.Notify.Error(err.Error())
		return
	}

	if err := filters.Validate(); err != nil {
		d.deps.Notify.Error("Invalid filters: " + err.Error())
		return
	}

	scope := search.Local(location)
	if global {
		scope = search.Global()
	}

	var kind task.Kind
	var runner task.Runner
	switch {
	case !global && !contentSearch:
		kind, runner = task.SearchByName, d.deps.Local
	case !global && contentSearch:
		kind, runner = task.SearchContent, d.deps.Local
	case global && !contentSearch:
		kind, runner = task.SearchIndex, d.deps.Indexer
	default:
		kind, runner = task.SearchContentIndex, d.deps.Indexer
	}

	opID := uuid.NewString()

	// At most one operation per dispatcher: cancel the previous one before
	// the new dispatch. Cancellation is best-effort; the epoch bump below is
	// what actually guarantees the old result is never applied.
	d.mu.Lock()
	// The lock was dropped for validation; search may have closed meanwhile.
	// A late dispatch must not resurrect it.
	if !d.active {
		d.mu.Unlock()
		return
	}
	prevOp := d.activeOp
	prevRunner := d.activeRunner
	d.epoch++
	epoch := d.epoch
	d.activeOp = opID
	d.activeRunner = runner
	d.mu.Unlock()

	if prevOp != "" {
		prevRunner.Cancel(prevOp)
	}

	if submitted && len(query) >= 2 && d.deps.History != nil {
		d.deps.History.Add(query)
	}

	params := task.Params{
		Scope:      scope,
		Matcher:    matcher,
		Filters:    filters,
		ContentCap: d.opts.ContentCap,
	}

	debug.Log(debug.DISPATCH, "dispatch %s op=%s epoch=%d query=%q", kind, opID, epoch, query)

	go d.run(runner, kind, params, opID, epoch, query, global, contentSearch)
}

// run executes the operation and applies its result iff the captured epoch
// is still current when the result arrives.
func (d *Dispatcher) run(runner task.Runner, kind task.Kind, p task.Params, opID string, epoch int64, query string, global, contentSearch bool) {
	entries, err := runner.Run(kind, p, opID)

	d.mu.Lock()
	stale := epoch != d.epoch
	if d.activeOp == opID {
		d.activeOp = ""
		d.activeRunner = nil
	}
	d.mu.Unlock()

	if stale {
		debug.Log(debug.DISPATCH, "discarding stale result op=%s epoch=%d", opID, epoch)
		return
	}

	switch {
	case errors.Is(err, search.ErrCancelled):
		// Intentionally superseded; never user-visible.
	case errors.Is(err, search.ErrIndexDisabled):
		d.deps.Sink.ShowResults(nil, "")
		d.deps.Notify.Warn("The background index is disabled. Enable indexing to search globally.")
	case err != nil:
		msg := err.Error()
		if msg == "" {
			if global {
				msg = "Global search failed"
			} else {
				msg = "Search failed"
			}
		}
		d.deps.Notify.Error(msg)
	default:
		highlight := ""
		if contentSearch {
			highlight = query
		}
		d.deps.Sink.ShowResults(entries, highlight)
	}
}
