package book

import (
	"errors"
	"testing"

	"brainfish/internal/board"

	"github.com/google/go-cmp/cmp"
)

func TestLookupMiss(t *testing.T) {
	b := New()
	if got := b.Lookup("unknown/position"); got != "" {
		t.Errorf("Lookup on empty book = %q, want empty", got)
	}
}

func TestUpsertOverwrites(t *testing.T) {
	b := New()
	b.Upsert(board.StartingFEN, "e2e4")
	b.Upsert(board.StartingFEN, "d2d4")

	if got := b.Lookup(board.StartingFEN); got != "d2d4" {
		t.Errorf("Lookup after overwrite = %q, want d2d4", got)
	}
	if got := b.Len(); got != 1 {
		t.Errorf("Len after overwrite = %d, want 1", got)
	}
}

func TestLookupIsExactMatch(t *testing.T) {
	b := New()
	b.Upsert(board.StartingFEN, "e2e4")

	// No normalization: any deviation from the stored key is a miss.
	if got := b.Lookup(board.StartingFEN + " "); got != "" {
		t.Errorf("Lookup with trailing space = %q, want miss", got)
	}
}

func TestLoadReplacesContents(t *testing.T) {
	b := New()
	b.Upsert("old/key", "a1a2")

	b.Load(map[string]string{board.StartingFEN: "e2e4"})

	if got := b.Lookup("old/key"); got != "" {
		t.Errorf("Lookup of pre-load entry = %q, want miss", got)
	}
	if got := b.Lookup(board.StartingFEN); got != "e2e4" {
		t.Errorf("Lookup of loaded entry = %q, want e2e4", got)
	}
}

func TestEntriesReturnsCopy(t *testing.T) {
	b := New()
	b.Upsert(board.StartingFEN, "e2e4")

	entries := b.Entries()
	entries[board.StartingFEN] = "mutated"

	if got := b.Lookup(board.StartingFEN); got != "e2e4" {
		t.Errorf("Lookup after mutating Entries copy = %q, want e2e4", got)
	}
}

func TestStaticSeeder(t *testing.T) {
	entries, err := StaticSeeder{}.Seed()
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	want := map[string]string{board.StartingFEN: "e2e4"}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("Seed() mismatch (-want +got):\n%s", diff)
	}
}

type mapSeeder map[string]string

func (m mapSeeder) Seed() (map[string]string, error) {
	return m, nil
}

type failingSeeder struct{}

func (failingSeeder) Seed() (map[string]string, error) {
	return nil, errors.New("seed source unavailable")
}

func TestMultiSeederLaterEntriesWin(t *testing.T) {
	m := MultiSeeder{
		mapSeeder{"a/b": "e2e4", "c/d": "d2d4"},
		mapSeeder{"a/b": "g1f3"},
	}

	entries, err := m.Seed()
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	want := map[string]string{"a/b": "g1f3", "c/d": "d2d4"}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("Seed() mismatch (-want +got):\n%s", diff)
	}
}

func TestMultiSeederPropagatesFailure(t *testing.T) {
	m := MultiSeeder{mapSeeder{"a/b": "e2e4"}, failingSeeder{}}

	if _, err := m.Seed(); err == nil {
		t.Error("Seed() with failing seeder returned nil error")
	}
}
