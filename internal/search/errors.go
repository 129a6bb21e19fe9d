package search

import "errors"

// Sentinel conditions returned by the task executors. Callers classify them
// with errors.Is rather than parsing message strings.
var (
	// ErrCancelled marks an operation that was superseded or explicitly
	// cancelled. It is never surfaced to the user.
	ErrCancelled = errors.New("search cancelled")

	// ErrIndexDisabled marks an index-backed operation attempted while the
	// background index is missing or disabled.
	ErrIndexDisabled = errors.New("background index disabled")

	// ErrInvalidPattern marks a regex-mode query that failed to compile.
	// It blocks dispatch entirely; no operation is started.
	ErrInvalidPattern = errors.New("invalid search pattern")

	// ErrPrecondition marks a search whose preconditions were not met,
	// e.g. a local search from the synthetic home view.
	ErrPrecondition = errors.New("search precondition failed")
)
