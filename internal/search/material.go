package search

import (
	"fmt"

	"github.com/notnil/chess"
)

var pieceValues = map[chess.PieceType]int{
	chess.Pawn:   100,
	chess.Knight: 320,
	chess.Bishop: 330,
	chess.Rook:   500,
	chess.Queen:  900,
}

// Material is the built-in adapter: a deterministic one-ply material
// chooser. It is not a competitive searcher; it exists so the engine has
// a working search path without an external binary. Positions that
// cannot be decoded, or that have no legal moves, degrade to a fixed
// placeholder line rather than an error.
type Material struct{}

func NewMaterial() *Material {
	return &Material{}
}

func (m *Material) Analyze(fen string, depth int) (Analysis, error) {
	pos, err := decode(fen)
	if err != nil {
		return placeholderAnalysis(depth), nil
	}

	// Walk a greedy line: at each ply take the move with the best
	// material swing for the side to move.
	var pv []string
	for ply := 0; ply < depth; ply++ {
		move := bestByMaterial(pos)
		if move == nil {
			break
		}
		pv = append(pv, move.String())
		pos = pos.Update(move)
	}

	if len(pv) == 0 {
		return placeholderAnalysis(depth), nil
	}

	return Analysis{
		Depth: depth,
		Score: evaluate(pos),
		PV:    pv,
	}, nil
}

func (m *Material) BestMove(fen string, timeMs int) (string, error) {
	// The time budget is irrelevant here; the chooser is a single pass
	// over the legal moves.
	pos, err := decode(fen)
	if err != nil {
		return placeholderMove, nil
	}

	move := bestByMaterial(pos)
	if move == nil {
		return placeholderMove, nil
	}
	return move.String(), nil
}

const placeholderMove = "e2e4"

func placeholderAnalysis(depth int) Analysis {
	return Analysis{
		Depth: depth,
		Score: 100,
		PV:    []string{"e2e4", "e7e5"},
	}
}

func decode(fen string) (*chess.Position, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("failed to decode FEN: %w", err)
	}
	return chess.NewGame(opt).Position(), nil
}

// bestByMaterial returns the legal move leaving the mover best off in
// raw material, or nil if there are no legal moves.
func bestByMaterial(pos *chess.Position) *chess.Move {
	moves := pos.ValidMoves()
	if len(moves) == 0 {
		return nil
	}

	mover := pos.Turn()
	best := moves[0]
	bestScore := materialFor(pos.Update(moves[0]), mover)
	for _, move := range moves[1:] {
		score := materialFor(pos.Update(move), mover)
		if score > bestScore {
			best = move
			bestScore = score
		}
	}
	return best
}

// evaluate scores a position in centipawns from the side to move.
func evaluate(pos *chess.Position) int {
	return materialFor(pos, pos.Turn())
}

func materialFor(pos *chess.Position, side chess.Color) int {
	score := 0
	for _, piece := range pos.Board().SquareMap() {
		value := pieceValues[piece.Type()]
		if piece.Color() == side {
			score += value
		} else {
			score -= value
		}
	}
	return score
}
