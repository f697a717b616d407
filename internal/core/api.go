package core

// Request types

type AnalyzeRequest struct {
	FEN   string `json:"fen" validate:"required,max=100"`
	Depth int    `json:"depth,omitempty" validate:"omitempty,min=1,max=64"`
}

type BestMoveRequest struct {
	FEN    string `json:"fen" validate:"required,max=100"`
	TimeMs int    `json:"timeMs,omitempty" validate:"omitempty,min=100,max=60000"`
}

// BookUpdateRequest carries a book upsert. The move token is deliberately
// not checked for legality; the book accepts whatever the caller teaches it.
type BookUpdateRequest struct {
	FEN  string `json:"fen" validate:"required,max=100"`
	Move string `json:"move" validate:"required,max=8"`
}

// Response types

type AnalyzeResponse struct {
	FEN      string   `json:"fen"`
	Depth    int      `json:"depth"`
	Score    int      `json:"score"` // centipawns, side to move
	PV       []string `json:"pv"`
	BookMove string   `json:"bookMove,omitempty"` // set when the book knows this position
	Raw      string   `json:"raw"`                // protocol-formatted info line
}

type BestMoveResponse struct {
	FEN    string `json:"fen"`
	Move   string `json:"move"`
	Source string `json:"source"`
	Raw    string `json:"raw"` // protocol-formatted bestmove line
}

type BookEntryResponse struct {
	FEN   string `json:"fen"`
	Move  string `json:"move,omitempty"`
	Found bool   `json:"found"`
}

type BoardResponse struct {
	FEN   string `json:"fen"`
	Board string `json:"board"` // ASCII representation
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}
