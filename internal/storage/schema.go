package storage

import "time"

// BookRecord represents a row in the book table
type BookRecord struct {
	FEN        string    `db:"fen"`
	Move       string    `db:"move"`
	Frequency  int       `db:"frequency"`
	UpdatedUTC time.Time `db:"updated_utc"`
}

// AnalysisRecord represents a row in the analyses table
type AnalysisRecord struct {
	AnalysisID   int64     `db:"analysis_id"`
	FEN          string    `db:"fen"`
	Depth        int       `db:"depth"`
	Score        int       `db:"score"`
	PV           string    `db:"pv"` // space-separated move sequence
	RequestedUTC time.Time `db:"requested_utc"`
}

// Schema defines the SQLite database structure
const Schema = `
CREATE TABLE IF NOT EXISTS book (
	fen TEXT PRIMARY KEY,
	move TEXT NOT NULL,
	frequency INTEGER NOT NULL DEFAULT 1,
	updated_utc DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS analyses (
	analysis_id INTEGER PRIMARY KEY AUTOINCREMENT,
	fen TEXT NOT NULL,
	depth INTEGER NOT NULL,
	score INTEGER NOT NULL,
	pv TEXT NOT NULL,
	requested_utc DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_analyses_fen ON analyses(fen);
CREATE INDEX IF NOT EXISTS idx_book_frequency ON book(frequency);
`
