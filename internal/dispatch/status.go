package dispatch

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/justyntemme/scour/internal/filter"
)

// StatusText returns whether search mode is active and a human-readable
// summary of scope, query, and filters for a status bar.
func (d *Dispatcher) StatusText() (bool, string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.active {
		return false, ""
	}

	var b strings.Builder
	if d.global {
		b.WriteString("Global search")
	} else {
		b.WriteString("Search in " + d.location)
	}
	if d.query != "" {
		fmt.Fprintf(&b, " for %q", d.query)
	}
	if d.contentSearch {
		b.WriteString(" (contents)")
	}
	if d.regexMode {
		b.WriteString(" (regex)")
	}

	if parts := filterSummary(d.filters); len(parts) > 0 {
		b.WriteString(" [" + strings.Join(parts, ", ") + "]")
	}
	return true, b.String()
}

// filterSummary renders the active filter fields as short status fragments.
func filterSummary(f *filter.Filters) []string {
	if f.IsZero() {
		return nil
	}

	var parts []string
	if f.FileType != "" && f.FileType != "all" {
		parts = append(parts, "type "+f.FileType)
	}
	switch {
	case f.MinSize != nil && f.MaxSize != nil:
		parts = append(parts, fmt.Sprintf("size %s to %s", humanize.Bytes(*f.MinSize), humanize.Bytes(*f.MaxSize)))
	case f.MinSize != nil:
		parts = append(parts, "size >= "+humanize.Bytes(*f.MinSize))
	case f.MaxSize != nil:
		parts = append(parts, "size <= "+humanize.Bytes(*f.MaxSize))
	}
	const day = "2006-01-02"
	switch {
	case f.DateFrom != nil && f.DateTo != nil:
		parts = append(parts, fmt.Sprintf("modified %s to %s", f.DateFrom.Format(day), f.DateTo.Format(day)))
	case f.DateFrom != nil:
		parts = append(parts, "modified since "+f.DateFrom.Format(day))
	case f.DateTo != nil:
		parts = append(parts, "modified before "+f.DateTo.Format(day))
	}
	return parts
}
