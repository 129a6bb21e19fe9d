package history

import (
	"path/filepath"
	"testing"
)

func openStore(t *testing.T, max int) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"), max)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddAndRecent(t *testing.T) {
	s := openStore(t, 100)

	s.Add("readme")
	s.Add("config")
	s.Add("readme") // Repeat moves it back to the top

	recent, err := s.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 distinct queries, got %d: %v", len(recent), recent)
	}
	if recent[0] != "readme" || recent[1] != "config" {
		t.Errorf("unexpected order: %v", recent)
	}
}

func TestPrune(t *testing.T) {
	s := openStore(t, 5)

	for _, q := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		s.Add(q)
	}

	recent, err := s.Recent(100)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 5 {
		t.Errorf("expected pruning to 5 entries, got %d: %v", len(recent), recent)
	}
	if recent[0] != "g" {
		t.Errorf("expected newest entry first, got %v", recent)
	}
}

func TestClear(t *testing.T) {
	s := openStore(t, 10)
	s.Add("something")
	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}
	recent, err := s.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 0 {
		t.Errorf("expected empty history, got %v", recent)
	}
}

func TestAdd_EmptyIsIgnored(t *testing.T) {
	s := openStore(t, 10)
	s.Add("")
	recent, err := s.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 0 {
		t.Errorf("empty query should not be recorded, got %v", recent)
	}
}
