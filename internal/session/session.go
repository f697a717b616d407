// Package session implements the line-driven protocol loop around the
// engine: read a command, write the response, repeat until quit.
package session

import (
	"bufio"
	"io"
	"log"

	"github.com/google/uuid"
)

// CommandProcessor is the one engine capability the loop needs.
type CommandProcessor interface {
	ProcessCommand(line string) string
}

type flusher interface {
	Flush() error
}

// Session holds no state beyond "keep reading". Commands are processed
// strictly in order, one complete response per line.
type Session struct {
	input  *bufio.Scanner
	output io.Writer
	engine CommandProcessor
	id     string
}

func New(input io.Reader, output io.Writer, eng CommandProcessor) *Session {
	return &Session{
		input:  bufio.NewScanner(input),
		output: output,
		engine: eng,
		id:     uuid.New().String()[:8],
	}
}

// Run reads until EOF or the quit command. The exit check fires on the
// raw line, not the parsed token: "quit now" gets the engine's quit
// response but keeps the session alive. The engine's own first-token
// dispatch is deliberately left independent of this check.
func (s *Session) Run() error {
	log.Printf("session %s started", s.id)

	for s.input.Scan() {
		line := s.input.Text()

		response := s.engine.ProcessCommand(line)
		if _, err := io.WriteString(s.output, response); err != nil {
			return err
		}
		// The protocol is consumed by another process; every response
		// must leave the buffer immediately.
		if f, ok := s.output.(flusher); ok {
			if err := f.Flush(); err != nil {
				return err
			}
		}

		if line == "quit" {
			break
		}
	}

	log.Printf("session %s ended", s.id)
	return s.input.Err()
}
