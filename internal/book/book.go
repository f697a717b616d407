package book

import (
	"sync"

	"brainfish/internal/board"
)

// Seeder supplies the initial book contents at engine initialization.
// Implementations may load from persistent storage or return a static set.
type Seeder interface {
	Seed() (map[string]string, error)
}

// Book is an exact-match position -> move store. Lookups do no
// normalization or transposition detection; the key either matches or
// it doesn't. The lock exists for the HTTP facade, which reaches the
// book from concurrent handlers; the stdio session is sequential.
type Book struct {
	mu      sync.RWMutex
	entries map[string]string
}

func New() *Book {
	return &Book{
		entries: make(map[string]string),
	}
}

// Load replaces the book contents with the given entries.
func (b *Book) Load(entries map[string]string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = make(map[string]string, len(entries))
	for fen, move := range entries {
		b.entries[fen] = move
	}
}

// Lookup returns the recommended move for an exact position key, or the
// empty string on a miss. A miss is a valid outcome, not an error.
func (b *Book) Lookup(fen string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.entries[fen]
}

// Upsert stores a move for a position, overwriting any prior entry.
func (b *Book) Upsert(fen, move string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[fen] = move
}

func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// Entries returns a copy of the book contents, for export.
func (b *Book) Entries() map[string]string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[string]string, len(b.entries))
	for fen, move := range b.entries {
		out[fen] = move
	}
	return out
}

// StaticSeeder seeds the book with a built-in set of well-known openings.
type StaticSeeder struct{}

func (StaticSeeder) Seed() (map[string]string, error) {
	return map[string]string{
		board.StartingFEN: "e2e4",
	}, nil
}
