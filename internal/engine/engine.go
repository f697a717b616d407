// Package engine implements the command-and-state core: lifecycle
// gating, UCI command dispatch, and ownership of the opening book.
package engine

import (
	"fmt"
	"log"
	"strings"

	"brainfish/internal/board"
	"brainfish/internal/book"
	"brainfish/internal/core"
	"brainfish/internal/search"
)

// Fixed response literals. These are the engine's entire error surface;
// callers pattern-match on them rather than on error values.
const (
	RespNotInitialized = "error engine not initialized"
	RespInvalidFEN     = "error invalid fen"
)

// Recorder receives successful book updates for persistence. A nil
// Recorder disables persistence entirely.
type Recorder interface {
	RecordBookMove(fen, move string) error
}

// Config carries the engine identity reported in the uci banner.
type Config struct {
	Name   string
	Author string
}

// Engine owns the lifecycle state and the opening book. All operations
// other than Initialize are disabled until a successful Initialize; no
// operation ever panics across this boundary.
type Engine struct {
	cfg      Config
	state    core.State
	book     *book.Book
	seeder   book.Seeder
	adapter  search.Adapter
	recorder Recorder
}

func New(cfg Config, seeder book.Seeder, adapter search.Adapter, rec Recorder) *Engine {
	return &Engine{
		cfg:      cfg,
		state:    core.StateUninitialized,
		book:     book.New(),
		seeder:   seeder,
		adapter:  adapter,
		recorder: rec,
	}
}

// Initialize seeds the opening book and transitions the engine to the
// ready state. It is idempotent: a second call on a ready engine is a
// no-op success. Seeding failure is logged and converted to false; the
// engine stays uninitialized and a retry is safe.
func (e *Engine) Initialize() bool {
	if e.state == core.StateReady {
		return true
	}

	entries, err := e.seeder.Seed()
	if err != nil {
		log.Printf("Initialization error: %v", err)
		return false
	}

	e.book.Load(entries)
	e.state = core.StateReady
	return true
}

func (e *Engine) State() core.State {
	return e.state
}

// ProcessCommand dispatches on the first whitespace-delimited token of
// a protocol line. Unrecognized tokens get an informational response,
// not an error. The quit response does not end anything here; session
// termination is the caller's decision.
func (e *Engine) ProcessCommand(line string) string {
	if e.state != core.StateReady {
		return RespNotInitialized
	}

	cmd := ""
	if fields := strings.Fields(line); len(fields) > 0 {
		cmd = fields[0]
	}

	switch cmd {
	case "uci":
		return fmt.Sprintf("id name %s\nid author %s\nuciok\n", e.cfg.Name, e.cfg.Author)
	case "isready":
		return "readyok\n"
	case "quit":
		return "quit\n"
	}

	return "unknown command\n"
}

// AnalyzePosition runs a depth-budget search and formats the result as
// a UCI info line.
func (e *Engine) AnalyzePosition(fen string, depth int) string {
	if e.state != core.StateReady {
		return RespNotInitialized
	}

	if !board.Validate(fen) {
		return RespInvalidFEN
	}

	analysis, err := e.adapter.Analyze(fen, depth)
	if err != nil {
		// The adapter failure path is outside the protocol contract:
		// degrade to the fixed placeholder line rather than invent a
		// third error literal.
		log.Printf("Analysis failed for %q: %v", fen, err)
		analysis = search.Analysis{Depth: depth, Score: 100, PV: []string{"e2e4", "e7e5"}}
	}

	return fmt.Sprintf("info depth %d score cp %d pv %s\n",
		analysis.Depth, analysis.Score, strings.Join(analysis.PV, " "))
}

// GetBestMove returns a bestmove line for the position. The opening
// book is consulted first; on an exact hit the search adapter is never
// invoked. Only a miss spends the time budget on search.
func (e *Engine) GetBestMove(fen string, timeMs int) string {
	if e.state != core.StateReady {
		return RespNotInitialized
	}

	if !board.Validate(fen) {
		return RespInvalidFEN
	}

	if move := e.book.Lookup(fen); move != "" {
		return fmt.Sprintf("bestmove %s\n", move)
	}

	move, err := e.adapter.BestMove(fen, timeMs)
	if err != nil {
		log.Printf("Search failed for %q: %v", fen, err)
		move = "e2e4"
	}

	return fmt.Sprintf("bestmove %s\n", move)
}

// QueryOpeningBook is a pure lookup: no lifecycle gate, no validation.
// Empty string means miss.
func (e *Engine) QueryOpeningBook(fen string) string {
	return e.book.Lookup(fen)
}

// UpdateOpeningBook stores a recommended move for a position,
// overwriting any existing entry. The position must pass the weak
// validation gate; the move token is accepted as-is.
func (e *Engine) UpdateOpeningBook(fen, move string) bool {
	if !board.Validate(fen) {
		return false
	}

	e.book.Upsert(fen, move)

	if e.recorder != nil {
		if err := e.recorder.RecordBookMove(fen, move); err != nil {
			log.Printf("Failed to persist book move %s for %q: %v", move, fen, err)
		}
	}
	return true
}

// BookSize reports the number of book entries, for diagnostics.
func (e *Engine) BookSize() int {
	return e.book.Len()
}

// BookEntries returns a copy of the book contents, for export.
func (e *Engine) BookEntries() map[string]string {
	return e.book.Entries()
}
