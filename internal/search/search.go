package search

// Analysis is the structured result of a depth-budget search.
type Analysis struct {
	Depth int
	Score int // centipawns, from the side to move
	PV    []string
}

// Adapter is the boundary the engine core depends on for move search.
// A call carries either a depth budget (Analyze) or a time budget
// (BestMove), never both. Both calls are synchronous; cancellation and
// timeout handling belong to the implementation.
type Adapter interface {
	Analyze(fen string, depth int) (Analysis, error)
	BestMove(fen string, timeMs int) (string, error)
}
