// Package filter implements the structured filter predicate applied to search
// results. The predicate is pure and strategy-agnostic: the live directory
// walk and the index lookup both run every candidate entry through Matches.
package filter

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/justyntemme/scour/internal/search"
)

// Filters is the structured filter set attached to a dispatched query.
// All set fields combine with logical AND. A nil pointer or a zero value
// matches everything. Immutable once attached to a query; the dispatcher
// keeps a separate pending copy while the filter editor is open.
type Filters struct {
	FileType string     // category name, "" or "all" matches everything
	MinSize  *uint64    // inclusive lower bound in bytes
	MaxSize  *uint64    // inclusive upper bound in bytes
	DateFrom *time.Time // inclusive, day granularity
	DateTo   *time.Time // inclusive, day granularity
	// RegexMode changes how the query string is interpreted, not how this
	// predicate evaluates. It rides along so a dispatched query carries its
	// full filter state as one value.
	RegexMode bool
}

// ErrSizeBounds reports MinSize > MaxSize. The dispatcher validates before
// dispatch; the predicate itself never sees an inverted range.
var ErrSizeBounds = errors.New("minimum size exceeds maximum size")

// Validate checks invariants the dispatcher must enforce before submission.
func (f *Filters) Validate() error {
	if f == nil {
		return nil
	}
	if f.MinSize != nil && f.MaxSize != nil && *f.MinSize > *f.MaxSize {
		return ErrSizeBounds
	}
	return nil
}

// IsZero reports whether no filter field is active.
func (f *Filters) IsZero() bool {
	if f == nil {
		return true
	}
	return (f.FileType == "" || f.FileType == "all") &&
		f.MinSize == nil && f.MaxSize == nil &&
		f.DateFrom == nil && f.DateTo == nil
}

// Matches reports whether entry satisfies every active filter field.
func Matches(e search.Entry, f *Filters) bool {
	if f == nil {
		return true
	}

	if f.FileType != "" && f.FileType != "all" {
		if e.IsDir || TypeOf(e.Name) != f.FileType {
			return false
		}
	}

	if f.MinSize != nil && uint64(e.Size) < *f.MinSize {
		return false
	}
	if f.MaxSize != nil && uint64(e.Size) > *f.MaxSize {
		return false
	}

	if f.DateFrom != nil && dayOf(e.ModTime).Before(dayOf(*f.DateFrom)) {
		return false
	}
	if f.DateTo != nil && dayOf(e.ModTime).After(dayOf(*f.DateTo)) {
		return false
	}

	return true
}

// dayOf truncates a timestamp to day granularity in its own location.
func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// typeCategories maps lowercase extensions (without the dot) to categories.
var typeCategories = map[string]string{
	"jpg": "image", "jpeg": "image", "png": "image", "gif": "image",
	"bmp": "image", "webp": "image", "svg": "image", "heic": "image",
	"tiff": "image", "ico": "image",

	"mp4": "video", "mkv": "video", "mov": "video", "avi": "video",
	"webm": "video", "wmv": "video", "m4v": "video", "mpg": "video",

	"mp3": "audio", "flac": "audio", "wav": "audio", "ogg": "audio",
	"m4a": "audio", "aac": "audio", "opus": "audio",

	"pdf": "document", "doc": "document", "docx": "document",
	"xls": "document", "xlsx": "document", "ppt": "document",
	"pptx": "document", "odt": "document", "ods": "document",
	"rtf": "document", "epub": "document",

	"zip": "archive", "tar": "archive", "gz": "archive", "bz2": "archive",
	"xz": "archive", "7z": "archive", "rar": "archive", "zst": "archive",

	"go": "code", "c": "code", "h": "code", "cpp": "code", "rs": "code",
	"py": "code", "js": "code", "ts": "code", "java": "code", "rb": "code",
	"sh": "code", "swift": "code", "kt": "code", "css": "code",
	"html": "code", "sql": "code",

	"txt": "text", "md": "text", "log": "text", "json": "text",
	"yaml": "text", "yml": "text", "toml": "text", "xml": "text",
	"csv": "text", "ini": "text", "conf": "text", "cfg": "text",
}

// TypeOf returns the category for a file name, "other" if unknown.
func TypeOf(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if cat, ok := typeCategories[ext]; ok {
		return cat
	}
	return "other"
}

// Categories returns the known category names, for settings UIs and CLI help.
func Categories() []string {
	return []string{"all", "image", "video", "audio", "document", "archive", "code", "text", "other"}
}
