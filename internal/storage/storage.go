package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store persists the opening book and the analysis history in SQLite.
// Writes go through an async queue; reads are synchronous. A failed
// write degrades the store instead of failing the caller, matching the
// engine's swallow-and-log error policy.
type Store struct {
	db           *sql.DB
	path         string
	writeChan    chan func(*sql.Tx) error
	healthStatus atomic.Bool
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

// NewStore opens the database and starts the async writer.
func NewStore(dataSourceName string, devMode bool) (*Store, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode in development for better concurrency
	if devMode {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	ctx, cancel := context.WithCancel(context.Background())

	s := &Store{
		db:        db,
		path:      dataSourceName,
		writeChan: make(chan func(*sql.Tx) error, 1000),
		ctx:       ctx,
		cancel:    cancel,
	}

	s.healthStatus.Store(true)

	s.wg.Add(1)
	go s.writerLoop()

	return s, nil
}

// writerLoop processes async write operations
func (s *Store) writerLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			// Drain remaining writes with timeout
			deadline := time.After(2 * time.Second)
			for {
				select {
				case fn := <-s.writeChan:
					if s.healthStatus.Load() {
						s.executeWrite(fn)
					}
				case <-deadline:
					return
				default:
					return
				}
			}

		case fn := <-s.writeChan:
			// Skip if already degraded
			if !s.healthStatus.Load() {
				continue
			}
			s.executeWrite(fn)
		}
	}
}

// executeWrite runs a transactional write operation
func (s *Store) executeWrite(fn func(*sql.Tx) error) {
	tx, err := s.db.Begin()
	if err != nil {
		log.Printf("Storage degraded: failed to begin transaction: %v", err)
		s.healthStatus.Store(false)
		return
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		log.Printf("Storage degraded: write operation failed: %v", err)
		s.healthStatus.Store(false)
		return
	}

	if err := tx.Commit(); err != nil {
		log.Printf("Storage degraded: failed to commit: %v", err)
		s.healthStatus.Store(false)
		return
	}
}

// enqueue submits a write, dropping it if the queue is full or the
// store is degraded.
func (s *Store) enqueue(what string, fn func(*sql.Tx) error) error {
	if !s.healthStatus.Load() {
		return nil
	}

	select {
	case s.writeChan <- fn:
		return nil
	default:
		log.Printf("Storage write queue full, dropping %s", what)
		return nil
	}
}

// RecordBookMove asynchronously upserts a book entry, bumping its
// frequency count when the position is already known.
func (s *Store) RecordBookMove(fen, move string) error {
	return s.enqueue("book move", func(tx *sql.Tx) error {
		query := `INSERT INTO book (fen, move, frequency, updated_utc)
			VALUES (?, ?, 1, ?)
			ON CONFLICT(fen) DO UPDATE SET
				move = excluded.move,
				frequency = book.frequency + 1,
				updated_utc = excluded.updated_utc`

		_, err := tx.Exec(query, fen, move, time.Now().UTC())
		return err
	})
}

// RecordAnalysis asynchronously appends a served analysis to the history log.
func (s *Store) RecordAnalysis(record AnalysisRecord) error {
	return s.enqueue("analysis record", func(tx *sql.Tx) error {
		query := `INSERT INTO analyses (fen, depth, score, pv, requested_utc)
			VALUES (?, ?, ?, ?, ?)`

		_, err := tx.Exec(query,
			record.FEN, record.Depth, record.Score, record.PV, record.RequestedUTC)
		return err
	})
}

// LoadBook synchronously reads the full opening book.
func (s *Store) LoadBook() (map[string]string, error) {
	rows, err := s.db.Query(`SELECT fen, move FROM book`)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	entries := make(map[string]string)
	for rows.Next() {
		var fen, move string
		if err := rows.Scan(&fen, &move); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		entries[fen] = move
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return entries, nil
}

// Seed implements book.Seeder, making the store usable directly as the
// engine's seed collaborator.
func (s *Store) Seed() (map[string]string, error) {
	return s.LoadBook()
}

// PopularPositions returns the most frequently taught book positions.
func (s *Store) PopularPositions(limit int) ([]BookRecord, error) {
	if limit < 1 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT fen, move, frequency, updated_utc FROM book
		 ORDER BY frequency DESC, updated_utc DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var records []BookRecord
	for rows.Next() {
		var r BookRecord
		if err := rows.Scan(&r.FEN, &r.Move, &r.Frequency, &r.UpdatedUTC); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return records, nil
}

// QueryAnalyses retrieves the analysis history for a position.
func (s *Store) QueryAnalyses(fen string, limit int) ([]AnalysisRecord, error) {
	if limit < 1 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT analysis_id, fen, depth, score, pv, requested_utc FROM analyses
		 WHERE fen = ? ORDER BY requested_utc DESC LIMIT ?`, fen, limit)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var records []AnalysisRecord
	for rows.Next() {
		var r AnalysisRecord
		err := rows.Scan(&r.AnalysisID, &r.FEN, &r.Depth, &r.Score, &r.PV, &r.RequestedUTC)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return records, nil
}

// IsHealthy returns the current health status
func (s *Store) IsHealthy() bool {
	return s.healthStatus.Load()
}

// InitDB creates the database schema
func (s *Store) InitDB() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return tx.Commit()
}

// Close gracefully closes the database connection
func (s *Store) Close() error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		// Writer finished cleanly
	case <-time.After(2 * time.Second):
		log.Printf("Warning: storage writer shutdown timeout, some writes may be lost")
	}

	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DeleteDB removes the database file
func (s *Store) DeleteDB() error {
	if err := s.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete database file: %w", err)
	}

	return nil
}
