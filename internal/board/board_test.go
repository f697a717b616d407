package board

import (
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		want bool
	}{
		{"starting position", StartingFEN, true},
		{"empty board", "8/8/8/8/8/8/8/8 w - - 0 1", true},
		{"empty string", "", false},
		{"no rank separator", "nofences", false},
		{"whitespace only", "   ", false},
		// The gate is deliberately weak: a separator is enough even
		// when the rest is garbage.
		{"garbage with separator", "not/a/real/position", true},
		{"single separator", "/", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Validate(tt.fen); got != tt.want {
				t.Errorf("Validate(%q) = %v, want %v", tt.fen, got, tt.want)
			}
		})
	}
}

func TestParseFEN(t *testing.T) {
	tests := []struct {
		name    string
		fen     string
		wantErr bool
	}{
		{"starting position", StartingFEN, false},
		{"empty board", "8/8/8/8/8/8/8/8 w - - 0 1", false},
		{"black to move", "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1", false},
		{"missing fields", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq", true},
		{"seven ranks", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP w KQkq - 0 1", true},
		{"overfull rank", "rnbqkbnrr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", true},
		{"bad turn field", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq - 0 1", true},
		{"bad halfmove", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - x 1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFEN(tt.fen)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseFEN(%q) error = %v, wantErr %v", tt.fen, err, tt.wantErr)
			}
		})
	}
}

func TestBoardAccessors(t *testing.T) {
	b, err := ParseFEN(StartingFEN)
	if err != nil {
		t.Fatalf("ParseFEN(StartingFEN) error = %v", err)
	}

	if got := b.Turn(); got != 'w' {
		t.Errorf("Turn() = %c, want w", got)
	}

	pieces := map[string]byte{
		"e1": 'K',
		"d8": 'q',
		"a2": 'P',
		"e4": 0,
		"":   0,
		"z9": 0,
	}
	for square, want := range pieces {
		if got := b.GetPieceAt(square); got != want {
			t.Errorf("GetPieceAt(%q) = %c, want %c", square, got, want)
		}
	}
}

func TestToASCII(t *testing.T) {
	b, err := ParseFEN(StartingFEN)
	if err != nil {
		t.Fatalf("ParseFEN(StartingFEN) error = %v", err)
	}

	ascii := b.ToASCII()
	if !strings.HasPrefix(ascii, "  a b c d e f g h\n") {
		t.Errorf("ToASCII() missing file header:\n%s", ascii)
	}
	if !strings.Contains(ascii, "8 r n b q k b n r  8") {
		t.Errorf("ToASCII() missing black back rank:\n%s", ascii)
	}
	if !strings.Contains(ascii, "1 R N B Q K B N R  1") {
		t.Errorf("ToASCII() missing white back rank:\n%s", ascii)
	}
}
