package dispatch

import (
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/justyntemme/scour/internal/history"
	"github.com/justyntemme/scour/internal/search"
	"github.com/justyntemme/scour/internal/task"
)

type runCall struct {
	kind  task.Kind
	scope search.Scope
	term  string
	opID  string
}

type fakeRunner struct {
	mu      sync.Mutex
	runs    []runCall
	cancels []string
	handler func(kind task.Kind, p task.Params, opID string) ([]search.Entry, error)
}

func (f *fakeRunner) Run(kind task.Kind, p task.Params, opID string) ([]search.Entry, error) {
	f.mu.Lock()
	f.runs = append(f.runs, runCall{kind: kind, scope: p.Scope, term: p.Matcher.Term(), opID: opID})
	h := f.handler
	f.mu.Unlock()
	if h != nil {
		return h(kind, p, opID)
	}
	return nil, nil
}

func (f *fakeRunner) Cancel(opID string) {
	f.mu.Lock()
	f.cancels = append(f.cancels, opID)
	f.mu.Unlock()
}

func (f *fakeRunner) runCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.runs)
}

func (f *fakeRunner) cancelled() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.cancels...)
}

type sinkCall struct {
	entries   []search.Entry
	highlight string
}

type fakeSink struct {
	mu    sync.Mutex
	calls []sinkCall
}

func (f *fakeSink) ShowResults(entries []search.Entry, highlight string) {
	f.mu.Lock()
	f.calls = append(f.calls, sinkCall{entries: entries, highlight: highlight})
	f.mu.Unlock()
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeSink) last() sinkCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

type fakeNotifier struct {
	mu     sync.Mutex
	infos  []string
	warns  []string
	errors []string
}

func (f *fakeNotifier) Info(msg string) { f.mu.Lock(); f.infos = append(f.infos, msg); f.mu.Unlock() }
func (f *fakeNotifier) Warn(msg string) { f.mu.Lock(); f.warns = append(f.warns, msg); f.mu.Unlock() }
func (f *fakeNotifier) Error(msg string) {
	f.mu.Lock()
	f.errors = append(f.errors, msg)
	f.mu.Unlock()
}

func (f *fakeNotifier) counts() (int, int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.infos), len(f.warns), len(f.errors)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func newTestDispatcher(runner task.Runner) (*Dispatcher, *fakeSink, *fakeNotifier) {
	sink := &fakeSink{}
	notify := &fakeNotifier{}
	d := New(Deps{Local: runner, Sink: sink, Notify: notify}, Options{})
	return d, sink, notify
}

func TestLocalNameSearch(t *testing.T) {
	runner := &fakeRunner{
		handler: func(task.Kind, task.Params, string) ([]search.Entry, error) {
			return []search.Entry{{Name: "readme.md", Path: "/docs/readme.md", IsFile: true}}, nil
		},
	}
	d, sink, _ := newTestDispatcher(runner)
	d.SetLocation("/docs")
	d.OpenSearch(false)
	d.SetQuery("readme")
	d.PerformSearch()

	waitFor(t, func() bool { return sink.count() == 1 })

	runner.mu.Lock()
	call := runner.runs[0]
	runner.mu.Unlock()
	if call.kind != task.SearchByName {
		t.Errorf("expected SearchByName, got %v", call.kind)
	}
	if call.scope != search.Local("/docs") {
		t.Errorf("expected local /docs scope, got %+v", call.scope)
	}
	if call.term != "readme" {
		t.Errorf("expected term readme, got %q", call.term)
	}
	got := sink.last()
	if len(got.entries) != 1 || got.entries[0].Name != "readme.md" {
		t.Errorf("unexpected entries: %+v", got.entries)
	}
	if got.highlight != "" {
		t.Errorf("name search must not set a highlight term, got %q", got.highlight)
	}
}

func TestContentSearchHighlight(t *testing.T) {
	runner := &fakeRunner{}
	d, sink, _ := newTestDispatcher(runner)
	d.SetLocation("/src")
	d.OpenSearch(false)
	d.SetContentSearch(true)
	d.SetQuery("TODO")
	d.PerformSearch()

	waitFor(t, func() bool { return sink.count() == 1 })

	runner.mu.Lock()
	kind := runner.runs[0].kind
	runner.mu.Unlock()
	if kind != task.SearchContent {
		t.Errorf("expected SearchContent, got %v", kind)
	}
	if got := sink.last(); got.highlight != "TODO" {
		t.Errorf("expected highlight TODO, got %q", got.highlight)
	}
}

func TestGlobalRoutesToIndexer(t *testing.T) {
	local := &fakeRunner{}
	indexer := &fakeRunner{}
	sink := &fakeSink{}
	d := New(Deps{Local: local, Indexer: indexer, Sink: sink, Notify: &fakeNotifier{}}, Options{})
	d.SetLocation("/src")
	d.OpenSearch(true)
	d.SetQuery("config")
	d.PerformSearch()

	waitFor(t, func() bool { return sink.count() == 1 })

	if local.runCount() != 0 {
		t.Error("global search must not hit the local runner")
	}
	indexer.mu.Lock()
	call := indexer.runs[0]
	indexer.mu.Unlock()
	if call.kind != task.SearchIndex {
		t.Errorf("expected SearchIndex, got %v", call.kind)
	}
	if call.scope.Kind != search.ScopeGlobal {
		t.Errorf("expected global scope, got %+v", call.scope)
	}
}

func TestStaleResultDiscarded(t *testing.T) {
	release := make(chan struct{})
	runner := &fakeRunner{}
	runner.handler = func(_ task.Kind, p task.Params, _ string) ([]search.Entry, error) {
		if p.Matcher.Term() == "slow" {
			<-release
			return []search.Entry{{Name: "stale.txt"}}, nil
		}
		return []search.Entry{{Name: "fresh.txt"}}, nil
	}
	d, sink, _ := newTestDispatcher(runner)
	d.SetLocation("/data")
	d.OpenSearch(false)

	d.SetQuery("slow")
	d.PerformSearch()
	waitFor(t, func() bool { return runner.runCount() == 1 })

	d.SetQuery("fresh")
	d.PerformSearch()
	waitFor(t, func() bool { return sink.count() == 1 })

	// The superseded operation was cancelled by the new dispatch.
	runner.mu.Lock()
	firstOp := runner.runs[0].opID
	runner.mu.Unlock()
	cancels := runner.cancelled()
	if len(cancels) != 1 || cancels[0] != firstOp {
		t.Errorf("expected cancel of op %s, got %v", firstOp, cancels)
	}

	// Let the slow operation finish; its result must never reach the sink.
	close(release)
	time.Sleep(20 * time.Millisecond)
	if sink.count() != 1 {
		t.Fatalf("stale result reached the sink: %d calls", sink.count())
	}
	if got := sink.last(); got.entries[0].Name != "fresh.txt" {
		t.Errorf("expected fresh result, got %+v", got.entries)
	}
}

func TestCancelledResultIsSilent(t *testing.T) {
	started := make(chan struct{}, 1)
	runner := &fakeRunner{
		handler: func(task.Kind, task.Params, string) ([]search.Entry, error) {
			started <- struct{}{}
			return nil, search.ErrCancelled
		},
	}
	d, sink, notify := newTestDispatcher(runner)
	d.SetLocation("/data")
	d.OpenSearch(false)
	d.SetQuery("anything")
	d.PerformSearch()

	<-started
	time.Sleep(20 * time.Millisecond)

	if sink.count() != 0 {
		t.Error("cancelled operation must not render results")
	}
	if i, w, e := notify.counts(); i+w+e != 0 {
		t.Errorf("cancelled operation must not notify, got %d/%d/%d", i, w, e)
	}
}

func TestHomeViewGuard(t *testing.T) {
	runner := &fakeRunner{}
	d, _, notify := newTestDispatcher(runner)
	d.SetLocation("/somewhere")
	d.OpenSearch(false)
	d.SetLocation("") // Back on the home view with local scope still set
	d.SetQuery("readme")
	d.PerformSearch()

	if runner.runCount() != 0 {
		t.Error("home-view local search must never reach an executor")
	}
	if i, _, _ := notify.counts(); i != 1 {
		t.Errorf("expected one informational notice, got %d", i)
	}
	if len(runner.cancelled()) != 0 {
		t.Error("rejected dispatch must not cancel anything")
	}
}

func TestInvalidPatternBlocksDispatch(t *testing.T) {
	runner := &fakeRunner{}
	d, sink, notify := newTestDispatcher(runner)
	d.SetLocation("/data")
	d.OpenSearch(false)
	d.SetRegexMode(true)
	d.SetQuery("(")
	d.PerformSearch()

	if runner.runCount() != 0 {
		t.Error("invalid pattern must not dispatch")
	}
	if len(runner.cancelled()) != 0 {
		t.Error("invalid pattern must not cancel a prior operation")
	}
	if _, _, e := notify.counts(); e != 1 {
		t.Errorf("expected one error notice, got %d", e)
	}
	if sink.count() != 0 {
		t.Error("invalid pattern must not touch the sink")
	}
}

func TestIndexDisabledWarning(t *testing.T) {
	runner := &fakeRunner{
		handler: func(task.Kind, task.Params, string) ([]search.Entry, error) {
			return nil, search.ErrIndexDisabled
		},
	}
	d, sink, notify := newTestDispatcher(runner)
	d.OpenSearch(true)
	d.SetQuery("report")
	d.PerformSearch()

	waitFor(t, func() bool { return sink.count() == 1 })

	if got := sink.last(); len(got.entries) != 0 {
		t.Errorf("expected empty results, got %+v", got.entries)
	}
	if _, w, _ := notify.counts(); w != 1 {
		t.Errorf("expected exactly one warning, got %d", w)
	}
}

func TestDebounceCollapsesBursts(t *testing.T) {
	runner := &fakeRunner{}
	d, sink, _ := newTestDispatcher(runner)
	d.SetLocation("/data")
	d.OpenSearch(false)

	for _, q := range []string{"r", "re", "rea", "read"} {
		d.SetQuery(q)
		d.DebouncedSearch(20 * time.Millisecond)
	}

	waitFor(t, func() bool { return sink.count() == 1 })
	time.Sleep(50 * time.Millisecond)

	if runner.runCount() != 1 {
		t.Fatalf("expected a single dispatch for the burst, got %d", runner.runCount())
	}
	runner.mu.Lock()
	term := runner.runs[0].term
	runner.mu.Unlock()
	if term != "read" {
		t.Errorf("expected only the final query to dispatch, got %q", term)
	}
}

func TestEmptyQueryIsNoop(t *testing.T) {
	runner := &fakeRunner{}
	d, _, notify := newTestDispatcher(runner)
	d.SetLocation("/data")
	d.OpenSearch(false)
	d.PerformSearch()

	if runner.runCount() != 0 {
		t.Error("empty query must not dispatch")
	}
	if i, w, e := notify.counts(); i+w+e != 0 {
		t.Error("empty query must not notify")
	}
}

func TestCloseSearchResetsState(t *testing.T) {
	release := make(chan struct{})
	runner := &fakeRunner{
		handler: func(task.Kind, task.Params, string) ([]search.Entry, error) {
			<-release
			return []search.Entry{{Name: "late.txt"}}, nil
		},
	}
	reloaded := false
	sink := &fakeSink{}
	d := New(Deps{Local: runner, Sink: sink, Notify: &fakeNotifier{}, Reload: func() { reloaded = true }}, Options{})
	d.SetLocation("/data")
	d.OpenSearch(false)
	d.SetQuery("late")
	d.PerformSearch()
	waitFor(t, func() bool { return runner.runCount() == 1 })

	d.CloseSearch()

	if d.Active() {
		t.Error("dispatcher still active after close")
	}
	if d.Query() != "" {
		t.Error("query not cleared on close")
	}
	if d.Filters() != nil {
		t.Error("filters not cleared on close")
	}
	if !reloaded {
		t.Error("close must trigger a reload of the plain view")
	}
	if len(runner.cancelled()) != 1 {
		t.Errorf("expected the in-flight operation to be cancelled, got %v", runner.cancelled())
	}

	// The in-flight result lands after close and must be discarded.
	close(release)
	time.Sleep(20 * time.Millisecond)
	if sink.count() != 0 {
		t.Error("result from before close reached the sink")
	}
}

func TestCloseSearchDuringDispatchWindow(t *testing.T) {
	// A close landing between dispatch's validation and its commit must win:
	// no operation may be installed afterwards and no result may render. The
	// large alternation makes regex compilation slow enough that the close
	// sweep below lands inside that window.
	pattern := strings.Repeat("readme|", 20000) + "readme"

	for i := 0; i < 30; i++ {
		release := make(chan struct{})
		runner := &fakeRunner{
			handler: func(task.Kind, task.Params, string) ([]search.Entry, error) {
				<-release
				return []search.Entry{{Name: "late.txt"}}, nil
			},
		}
		d, sink, _ := newTestDispatcher(runner)
		d.SetLocation("/data")
		d.OpenSearch(false)
		d.SetRegexMode(true)
		d.SetQuery(pattern)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			d.PerformSearch()
		}()
		go func() {
			defer wg.Done()
			time.Sleep(time.Duration(i*100) * time.Microsecond)
			d.CloseSearch()
		}()
		wg.Wait()

		d.mu.Lock()
		active, op := d.active, d.activeOp
		d.mu.Unlock()
		if !active && op != "" {
			t.Fatalf("iteration %d: operation installed after close", i)
		}

		// The runner blocks until here, so any result arrives strictly after
		// the close and must be discarded.
		close(release)
		time.Sleep(10 * time.Millisecond)
		if sink.count() != 0 {
			t.Fatalf("iteration %d: result rendered after close", i)
		}
	}
}

func TestToggleForcesGlobalFromHome(t *testing.T) {
	d, _, _ := newTestDispatcher(&fakeRunner{})
	d.ToggleSearch()
	if !d.Active() || !d.Global() {
		t.Error("toggling from the home view must activate global search")
	}
	d.ToggleSearch()
	if d.Active() {
		t.Error("second toggle must deactivate search")
	}
}

func TestSubmittedQueryRecordedInHistory(t *testing.T) {
	store, err := history.Open(filepath.Join(t.TempDir(), "hist.db"), 50)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	runner := &fakeRunner{}
	sink := &fakeSink{}
	d := New(Deps{Local: runner, Sink: sink, Notify: &fakeNotifier{}, History: store}, Options{})
	d.SetLocation("/data")
	d.OpenSearch(false)

	// Debounced (as-you-type) dispatches are not recorded.
	d.SetQuery("no")
	d.DebouncedSearch(time.Millisecond)
	waitFor(t, func() bool { return sink.count() == 1 })

	// Single-character submissions are too noisy to keep.
	d.SetQuery("x")
	d.PerformSearch()
	waitFor(t, func() bool { return sink.count() == 2 })

	d.SetQuery("budget report")
	d.PerformSearch()
	waitFor(t, func() bool { return sink.count() == 3 })

	recent, err := store.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 || recent[0] != "budget report" {
		t.Errorf("expected only the submitted query in history, got %v", recent)
	}
}
