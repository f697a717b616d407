package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"brainfish/internal/board"
	"brainfish/internal/book"
	"brainfish/internal/config"
	"brainfish/internal/core"
	"brainfish/internal/engine"
	"brainfish/internal/search"

	"github.com/gofiber/fiber/v2"
)

type stubAdapter struct {
	analysis search.Analysis
	move     string
}

func (s *stubAdapter) Analyze(fen string, depth int) (search.Analysis, error) {
	a := s.analysis
	if a.Depth == 0 {
		a.Depth = depth
	}
	return a, nil
}

func (s *stubAdapter) BestMove(fen string, timeMs int) (string, error) {
	return s.move, nil
}

func testConfig() config.Config {
	return config.Config{
		EngineName:      "BrainFish",
		EngineAuthor:    "BlackBoxAI",
		DefaultDepth:    8,
		DefaultMoveTime: 500,
	}
}

func newTestApp(t *testing.T, initialized bool) *fiber.App {
	t.Helper()

	adapter := &stubAdapter{
		analysis: search.Analysis{Score: 42, PV: []string{"e2e4", "e7e5"}},
		move:     "g1f3",
	}
	eng := engine.New(engine.Config{Name: "BrainFish", Author: "BlackBoxAI"},
		book.StaticSeeder{}, adapter, nil)
	if initialized {
		if !eng.Initialize() {
			t.Fatal("Initialize() = false, want true")
		}
	}

	return NewFiberApp(eng, nil, testConfig(), true)
}

func postJSON(t *testing.T, app *fiber.App, path, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test(%s) error = %v", path, err)
	}
	return resp
}

func getPath(t *testing.T, app *fiber.App, path string) *http.Response {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, path, nil), -1)
	if err != nil {
		t.Fatalf("app.Test(%s) error = %v", path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		t.Fatalf("decoding body %q: %v", data, err)
	}
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, true)

	resp := getPath(t, app, "/health")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body map[string]any
	decodeBody(t, resp, &body)
	if body["engine"] != "ready" {
		t.Errorf("engine status = %v, want ready", body["engine"])
	}
	if body["storage"] != "disabled" {
		t.Errorf("storage status = %v, want disabled", body["storage"])
	}
}

func TestAnalyze(t *testing.T) {
	app := newTestApp(t, true)

	resp := postJSON(t, app, "/api/v1/analyze", `{"fen":"`+board.StartingFEN+`"}`)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body core.AnalyzeResponse
	decodeBody(t, resp, &body)
	if body.Depth != 8 {
		t.Errorf("Depth = %d, want default 8", body.Depth)
	}
	if body.Score != 42 {
		t.Errorf("Score = %d, want 42", body.Score)
	}
	if len(body.PV) != 2 || body.PV[0] != "e2e4" {
		t.Errorf("PV = %v, want [e2e4 e7e5]", body.PV)
	}
	if body.BookMove != "e2e4" {
		t.Errorf("BookMove = %q, want seeded e2e4", body.BookMove)
	}
	if !strings.HasPrefix(body.Raw, "info depth 8 score cp 42 pv ") {
		t.Errorf("Raw = %q", body.Raw)
	}
}

func TestAnalyzeInvalidFEN(t *testing.T) {
	app := newTestApp(t, true)

	resp := postJSON(t, app, "/api/v1/analyze", `{"fen":"nofences"}`)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	var body core.ErrorResponse
	decodeBody(t, resp, &body)
	if body.Code != core.ErrInvalidFEN {
		t.Errorf("Code = %q, want %q", body.Code, core.ErrInvalidFEN)
	}
}

func TestAnalyzeMissingFEN(t *testing.T) {
	app := newTestApp(t, true)

	resp := postJSON(t, app, "/api/v1/analyze", `{"depth":5}`)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	var body core.ErrorResponse
	decodeBody(t, resp, &body)
	if body.Code != core.ErrInvalidRequest {
		t.Errorf("Code = %q, want %q", body.Code, core.ErrInvalidRequest)
	}
}

func TestAnalyzeUninitializedEngine(t *testing.T) {
	app := newTestApp(t, false)

	resp := postJSON(t, app, "/api/v1/analyze", `{"fen":"`+board.StartingFEN+`"}`)
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}

	var body core.ErrorResponse
	decodeBody(t, resp, &body)
	if body.Code != core.ErrNotInitialized {
		t.Errorf("Code = %q, want %q", body.Code, core.ErrNotInitialized)
	}
}

func TestBestMoveBookHit(t *testing.T) {
	app := newTestApp(t, true)

	resp := postJSON(t, app, "/api/v1/bestmove", `{"fen":"`+board.StartingFEN+`"}`)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body core.BestMoveResponse
	decodeBody(t, resp, &body)
	if body.Move != "e2e4" {
		t.Errorf("Move = %q, want book move e2e4", body.Move)
	}
	if body.Source != "opening_book" {
		t.Errorf("Source = %q, want opening_book", body.Source)
	}
}

func TestBestMoveBookMiss(t *testing.T) {
	app := newTestApp(t, true)

	resp := postJSON(t, app, "/api/v1/bestmove", `{"fen":"8/8/8/8/8/8/8/8 w - - 0 1"}`)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body core.BestMoveResponse
	decodeBody(t, resp, &body)
	if body.Move != "g1f3" {
		t.Errorf("Move = %q, want adapter move g1f3", body.Move)
	}
	if body.Source != "engine" {
		t.Errorf("Source = %q, want engine", body.Source)
	}
}

func TestBookUpdateAndLookup(t *testing.T) {
	app := newTestApp(t, true)
	pos := "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1"

	resp := postJSON(t, app, "/api/v1/book", `{"fen":"`+pos+`","move":"e7e5"}`)
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	resp = getPath(t, app, "/api/v1/book/position?fen="+escapeQuery(pos))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("lookup status = %d, want 200", resp.StatusCode)
	}

	var body core.BookEntryResponse
	decodeBody(t, resp, &body)
	if !body.Found || body.Move != "e7e5" {
		t.Errorf("lookup = %+v, want found e7e5", body)
	}
}

func TestBookUpdateInvalidFEN(t *testing.T) {
	app := newTestApp(t, true)

	resp := postJSON(t, app, "/api/v1/book", `{"fen":"nofences","move":"e7e5"}`)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	var body core.ErrorResponse
	decodeBody(t, resp, &body)
	if body.Code != core.ErrInvalidFEN {
		t.Errorf("Code = %q, want %q", body.Code, core.ErrInvalidFEN)
	}
}

func TestBoardEndpoint(t *testing.T) {
	app := newTestApp(t, true)

	resp := getPath(t, app, "/api/v1/board?fen="+escapeQuery(board.StartingFEN))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body core.BoardResponse
	decodeBody(t, resp, &body)
	if !strings.Contains(body.Board, "a b c d e f g h") {
		t.Errorf("Board missing file header:\n%s", body.Board)
	}
}

func TestPopularPositionsWithoutStorage(t *testing.T) {
	app := newTestApp(t, true)

	resp := getPath(t, app, "/api/v1/book/popular")
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}

	var body core.ErrorResponse
	decodeBody(t, resp, &body)
	if body.Code != core.ErrStorageDisabled {
		t.Errorf("Code = %q, want %q", body.Code, core.ErrStorageDisabled)
	}
}

func TestContentTypeRejected(t *testing.T) {
	app := newTestApp(t, true)

	req := httptest.NewRequest(fiber.MethodPost, "/api/v1/analyze",
		bytes.NewBufferString("fen=x"))
	req.Header.Set("Content-Type", "text/plain")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test error = %v", err)
	}
	if resp.StatusCode != fiber.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want 415", resp.StatusCode)
	}
}

// escapeQuery encodes a FEN for use in a query string.
func escapeQuery(fen string) string {
	return strings.NewReplacer(" ", "%20", "/", "%2F").Replace(fen)
}
