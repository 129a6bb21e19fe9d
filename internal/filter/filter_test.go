package filter

import (
	"errors"
	"testing"
	"time"

	"github.com/justyntemme/scour/internal/search"
)

func u64(v uint64) *uint64       { return &v }
func day(s string) *time.Time    { t, _ := time.Parse("2006-01-02", s); return &t }
func entryAt(s string) time.Time { t, _ := time.Parse("2006-01-02 15:04", s); return t }

func TestMatches_NilAndZero(t *testing.T) {
	e := search.Entry{Name: "notes.txt", IsFile: true, Size: 42}
	if !Matches(e, nil) {
		t.Error("nil filters should match everything")
	}
	if !Matches(e, &Filters{}) {
		t.Error("zero filters should match everything")
	}
	if !Matches(e, &Filters{FileType: "all"}) {
		t.Error(`"all" file type should match everything`)
	}
}

func TestMatches_FileType(t *testing.T) {
	testCases := []struct {
		name     string
		fileType string
		isDir    bool
		expected bool
	}{
		{"photo.jpg", "image", false, true},
		{"photo.JPG", "image", false, true},
		{"photo.jpg", "video", false, false},
		{"clip.mkv", "video", false, true},
		{"main.go", "code", false, true},
		{"notes.md", "text", false, true},
		{"data.bin", "other", false, true},
		{"pictures", "image", true, false}, // directories never match a concrete type
	}

	for _, tc := range testCases {
		e := search.Entry{Name: tc.name, IsDir: tc.isDir, IsFile: !tc.isDir}
		got := Matches(e, &Filters{FileType: tc.fileType})
		if got != tc.expected {
			t.Errorf("Matches(%q, type=%s): expected %v, got %v", tc.name, tc.fileType, tc.expected, got)
		}
	}
}

func TestMatches_SizeBounds(t *testing.T) {
	testCases := []struct {
		size     int64
		min, max *uint64
		expected bool
	}{
		{500, u64(100), u64(1000), true},
		{100, u64(100), u64(1000), true},  // inclusive lower bound
		{1000, u64(100), u64(1000), true}, // inclusive upper bound
		{99, u64(100), u64(1000), false},
		{1001, u64(100), u64(1000), false},
		{5, nil, u64(10), true},  // open lower bound
		{50, u64(10), nil, true}, // open upper bound
		{5, u64(10), nil, false},
	}

	for _, tc := range testCases {
		e := search.Entry{Name: "f", IsFile: true, Size: tc.size}
		got := Matches(e, &Filters{MinSize: tc.min, MaxSize: tc.max})
		if got != tc.expected {
			t.Errorf("size=%d min=%v max=%v: expected %v, got %v", tc.size, tc.min, tc.max, tc.expected, got)
		}
	}
}

func TestMatches_DateBounds_DayGranularity(t *testing.T) {
	testCases := []struct {
		mod      time.Time
		from, to *time.Time
		expected bool
	}{
		// 23:59 on the boundary day still matches: comparison is per day.
		{entryAt("2024-06-15 23:59"), day("2024-06-15"), day("2024-06-15"), true},
		{entryAt("2024-06-15 00:00"), day("2024-06-15"), nil, true},
		{entryAt("2024-06-14 23:59"), day("2024-06-15"), nil, false},
		{entryAt("2024-06-16 00:01"), nil, day("2024-06-15"), false},
		{entryAt("2024-06-10 12:00"), day("2024-06-01"), day("2024-06-30"), true},
	}

	for i, tc := range testCases {
		e := search.Entry{Name: "f", IsFile: true, ModTime: tc.mod}
		got := Matches(e, &Filters{DateFrom: tc.from, DateTo: tc.to})
		if got != tc.expected {
			t.Errorf("case %d (mod=%v): expected %v, got %v", i, tc.mod, tc.expected, got)
		}
	}
}

// Flipping any single active field to a failing value must fail the whole
// predicate: the composition is strict AND.
func TestMatches_AndComposition(t *testing.T) {
	e := search.Entry{
		Name:    "report.pdf",
		IsFile:  true,
		Size:    2048,
		ModTime: entryAt("2024-06-15 10:00"),
	}

	passing := Filters{
		FileType: "document",
		MinSize:  u64(1000),
		MaxSize:  u64(4096),
		DateFrom: day("2024-06-01"),
		DateTo:   day("2024-06-30"),
	}
	if !Matches(e, &passing) {
		t.Fatal("entry should satisfy the full filter set")
	}

	flips := []func(f *Filters){
		func(f *Filters) { f.FileType = "image" },
		func(f *Filters) { f.MinSize = u64(4000) },
		func(f *Filters) { f.MaxSize = u64(100) },
		func(f *Filters) { f.DateFrom = day("2024-07-01") },
		func(f *Filters) { f.DateTo = day("2024-05-31") },
	}
	for i, flip := range flips {
		f := passing
		flip(&f)
		if Matches(e, &f) {
			t.Errorf("flip %d: expected predicate to fail after single-field flip", i)
		}
	}
}

func TestValidate(t *testing.T) {
	if err := (&Filters{MinSize: u64(10), MaxSize: u64(5)}).Validate(); !errors.Is(err, ErrSizeBounds) {
		t.Errorf("expected ErrSizeBounds, got %v", err)
	}
	if err := (&Filters{MinSize: u64(5), MaxSize: u64(10)}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	var nilFilters *Filters
	if err := nilFilters.Validate(); err != nil {
		t.Errorf("nil filters should validate: %v", err)
	}
}

func TestTypeOf(t *testing.T) {
	testCases := []struct {
		name     string
		expected string
	}{
		{"a.PNG", "image"},
		{"b.tar", "archive"},
		{"c.go", "code"},
		{"d", "other"},
		{"e.unknownext", "other"},
	}
	for _, tc := range testCases {
		if got := TypeOf(tc.name); got != tc.expected {
			t.Errorf("TypeOf(%q): expected %q, got %q", tc.name, tc.expected, got)
		}
	}
}

func TestIsZero(t *testing.T) {
	if !(&Filters{FileType: "all", RegexMode: true}).IsZero() {
		t.Error("regex mode alone should not make the filter set active")
	}
	if (&Filters{MinSize: u64(1)}).IsZero() {
		t.Error("min size should make the filter set active")
	}
}
