// Package server exposes the engine's programmatic entry points over a
// JSON HTTP API.
package server

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"brainfish/internal/board"
	"brainfish/internal/config"
	"brainfish/internal/core"
	"brainfish/internal/engine"
	"brainfish/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const rateLimitRate = 10 // req/sec

type HTTPHandler struct {
	eng   *engine.Engine
	store *storage.Store // nil if persistence disabled
	cfg   config.Config
}

func NewHTTPHandler(eng *engine.Engine, store *storage.Store, cfg config.Config) *HTTPHandler {
	return &HTTPHandler{eng: eng, store: store, cfg: cfg}
}

func NewFiberApp(eng *engine.Engine, store *storage.Store, cfg config.Config, devMode bool) *fiber.App {
	h := NewHTTPHandler(eng, store, cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	})

	// Global middleware (order matters)
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Health check (no rate limit)
	app.Get("/health", h.Health)

	api := app.Group("/api/v1")

	maxReq := rateLimitRate
	if devMode {
		maxReq = rateLimitRate * 2 // Loosen rate limiter for testing
	}
	api.Use(limiter.New(limiter.Config{
		Max:        maxReq,
		Expiration: 1 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			if xff := c.Get("X-Forwarded-For"); xff != "" {
				if idx := strings.Index(xff, ","); idx != -1 {
					return strings.TrimSpace(xff[:idx])
				}
				return xff
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(core.ErrorResponse{
				Error:   "rate limit exceeded",
				Code:    core.ErrRateLimitExceeded,
				Details: fmt.Sprintf("%d requests per second allowed", maxReq),
			})
		},
	}))

	api.Use(contentTypeValidator)
	api.Use(validationMiddleware)

	api.Post("/analyze", h.Analyze)
	api.Post("/bestmove", h.BestMove)
	api.Post("/book", h.UpdateBook)
	api.Get("/book/position", h.BookPosition)
	api.Get("/book/popular", h.PopularPositions)
	api.Get("/analyses", h.AnalysisHistory)
	api.Get("/board", h.Board)

	return app
}

// contentTypeValidator ensures POST requests have application/json
func contentTypeValidator(c *fiber.Ctx) error {
	if c.Method() == fiber.MethodPost {
		contentType := c.Get("Content-Type")
		if contentType != "application/json" && contentType != "" {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(core.ErrorResponse{
				Error:   "unsupported media type",
				Code:    core.ErrInvalidContent,
				Details: "Content-Type must be application/json",
			})
		}
	}
	return c.Next()
}

// customErrorHandler provides consistent error responses
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	response := core.ErrorResponse{
		Error: "internal server error",
		Code:  core.ErrInternalError,
	}

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		response.Error = e.Message

		switch code {
		case fiber.StatusNotFound:
			response.Code = core.ErrNotFound
		case fiber.StatusBadRequest:
			response.Code = core.ErrInvalidRequest
		case fiber.StatusTooManyRequests:
			response.Code = core.ErrRateLimitExceeded
		}
	}

	return c.Status(code).JSON(response)
}

// Health reports engine and storage status.
func (h *HTTPHandler) Health(c *fiber.Ctx) error {
	storageStatus := "disabled"
	if h.store != nil {
		if h.store.IsHealthy() {
			storageStatus = "healthy"
		} else {
			storageStatus = "degraded"
		}
	}

	return c.JSON(fiber.Map{
		"status":   "healthy",
		"engine":   h.eng.State().String(),
		"bookSize": h.eng.BookSize(),
		"storage":  storageStatus,
		"time":     time.Now().Unix(),
	})
}

// Analyze runs a depth-budget analysis of a position.
func (h *HTTPHandler) Analyze(c *fiber.Ctx) error {
	req, ok := validatedBody[*core.AnalyzeRequest](c)
	if !ok {
		return validationMissing(c)
	}

	depth := req.Depth
	if depth == 0 {
		depth = h.cfg.DefaultDepth
	}

	raw := h.eng.AnalyzePosition(req.FEN, depth)
	if resp, ok := engineError(raw); ok {
		return c.Status(resp.status).JSON(resp.body)
	}

	gotDepth, score, pv := parseInfoLine(raw)

	if h.store != nil {
		h.store.RecordAnalysis(storage.AnalysisRecord{
			FEN:          req.FEN,
			Depth:        gotDepth,
			Score:        score,
			PV:           strings.Join(pv, " "),
			RequestedUTC: time.Now().UTC(),
		})
	}

	return c.JSON(core.AnalyzeResponse{
		FEN:      req.FEN,
		Depth:    gotDepth,
		Score:    score,
		PV:       pv,
		BookMove: h.eng.QueryOpeningBook(req.FEN),
		Raw:      raw,
	})
}

// BestMove returns the recommended move for a position.
func (h *HTTPHandler) BestMove(c *fiber.Ctx) error {
	req, ok := validatedBody[*core.BestMoveRequest](c)
	if !ok {
		return validationMissing(c)
	}

	timeMs := req.TimeMs
	if timeMs == 0 {
		timeMs = h.cfg.DefaultMoveTime
	}

	// Capture the book state first so the source can be attributed;
	// the engine consults the book again internally.
	bookMove := h.eng.QueryOpeningBook(req.FEN)

	raw := h.eng.GetBestMove(req.FEN, timeMs)
	if resp, ok := engineError(raw); ok {
		return c.Status(resp.status).JSON(resp.body)
	}

	move := parseBestMoveLine(raw)
	source := "engine"
	if bookMove != "" && bookMove == move {
		source = "opening_book"
	}

	return c.JSON(core.BestMoveResponse{
		FEN:    req.FEN,
		Move:   move,
		Source: source,
		Raw:    raw,
	})
}

// UpdateBook teaches the opening book a position -> move pair.
func (h *HTTPHandler) UpdateBook(c *fiber.Ctx) error {
	req, ok := validatedBody[*core.BookUpdateRequest](c)
	if !ok {
		return validationMissing(c)
	}

	if !h.eng.UpdateOpeningBook(req.FEN, req.Move) {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error: "invalid fen",
			Code:  core.ErrInvalidFEN,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": "success",
	})
}

// BookPosition looks up the book entry for an exact position key.
func (h *HTTPHandler) BookPosition(c *fiber.Ctx) error {
	fen := c.Query("fen")
	if fen == "" {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "missing fen parameter",
			Code:    core.ErrInvalidRequest,
			Details: "pass the position as ?fen=",
		})
	}

	move := h.eng.QueryOpeningBook(fen)
	return c.JSON(core.BookEntryResponse{
		FEN:   fen,
		Move:  move,
		Found: move != "",
	})
}

// PopularPositions lists the most frequently taught book positions.
func (h *HTTPHandler) PopularPositions(c *fiber.Ctx) error {
	if h.store == nil {
		return storageDisabled(c)
	}

	limit := c.QueryInt("limit", 10)
	records, err := h.store.PopularPositions(limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
			Error:   "query failed",
			Code:    core.ErrInternalError,
			Details: err.Error(),
		})
	}

	return c.JSON(fiber.Map{"positions": records})
}

// AnalysisHistory lists past analyses of a position.
func (h *HTTPHandler) AnalysisHistory(c *fiber.Ctx) error {
	if h.store == nil {
		return storageDisabled(c)
	}

	fen := c.Query("fen")
	if fen == "" {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "missing fen parameter",
			Code:    core.ErrInvalidRequest,
			Details: "pass the position as ?fen=",
		})
	}

	records, err := h.store.QueryAnalyses(fen, c.QueryInt("limit", 10))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
			Error:   "query failed",
			Code:    core.ErrInternalError,
			Details: err.Error(),
		})
	}

	return c.JSON(fiber.Map{"analyses": records})
}

// Board renders an ASCII board for a position.
func (h *HTTPHandler) Board(c *fiber.Ctx) error {
	fen := c.Query("fen")

	b, err := board.ParseFEN(fen)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "invalid fen",
			Code:    core.ErrInvalidFEN,
			Details: err.Error(),
		})
	}

	return c.JSON(core.BoardResponse{
		FEN:   fen,
		Board: b.ToASCII(),
	})
}

func storageDisabled(c *fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(core.ErrorResponse{
		Error:   "persistent storage disabled",
		Code:    core.ErrStorageDisabled,
		Details: "start the server with -book-path to enable",
	})
}

type statusResponse struct {
	status int
	body   core.ErrorResponse
}

// engineError maps the engine's sentinel strings to HTTP responses.
// The engine surfaces failures as fixed literals, so the facade has to
// pattern-match on them.
func engineError(raw string) (statusResponse, bool) {
	switch raw {
	case engine.RespNotInitialized:
		return statusResponse{
			status: fiber.StatusServiceUnavailable,
			body:   core.ErrorResponse{Error: "engine not initialized", Code: core.ErrNotInitialized},
		}, true
	case engine.RespInvalidFEN:
		return statusResponse{
			status: fiber.StatusBadRequest,
			body:   core.ErrorResponse{Error: "invalid fen", Code: core.ErrInvalidFEN},
		}, true
	}
	return statusResponse{}, false
}

// parseInfoLine extracts depth, score and pv from an engine info line.
func parseInfoLine(raw string) (depth, score int, pv []string) {
	fields := strings.Fields(raw)
	for i := 0; i < len(fields)-1; i++ {
		switch fields[i] {
		case "depth":
			depth, _ = strconv.Atoi(fields[i+1])
		case "cp":
			score, _ = strconv.Atoi(fields[i+1])
		case "pv":
			pv = append([]string(nil), fields[i+1:]...)
		}
	}
	return depth, score, pv
}

// parseBestMoveLine extracts the move token from a bestmove line.
func parseBestMoveLine(raw string) string {
	fields := strings.Fields(raw)
	if len(fields) >= 2 && fields[0] == "bestmove" {
		return fields[1]
	}
	return ""
}
