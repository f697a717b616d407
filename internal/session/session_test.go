package session

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
)

// scriptedEngine answers every line with a canned transformation and
// records what it was asked.
type scriptedEngine struct {
	lines []string
}

func (s *scriptedEngine) ProcessCommand(line string) string {
	s.lines = append(s.lines, line)
	switch {
	case strings.HasPrefix(line, "quit"):
		return "quit\n"
	case line == "isready":
		return "readyok\n"
	default:
		return "unknown command\n"
	}
}

func TestRunProcessesLinesInOrder(t *testing.T) {
	eng := &scriptedEngine{}
	var out bytes.Buffer

	s := New(strings.NewReader("isready\nwhatever\n"), &out, eng)
	if err := s.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	wantLines := []string{"isready", "whatever"}
	if len(eng.lines) != len(wantLines) {
		t.Fatalf("engine saw %v, want %v", eng.lines, wantLines)
	}
	for i, want := range wantLines {
		if eng.lines[i] != want {
			t.Errorf("line %d = %q, want %q", i, eng.lines[i], want)
		}
	}

	if got := out.String(); got != "readyok\nunknown command\n" {
		t.Errorf("output = %q", got)
	}
}

func TestRunTerminatesOnRawQuit(t *testing.T) {
	eng := &scriptedEngine{}
	var out bytes.Buffer

	s := New(strings.NewReader("quit\nisready\n"), &out, eng)
	if err := s.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// The line after quit must never reach the engine.
	if len(eng.lines) != 1 || eng.lines[0] != "quit" {
		t.Errorf("engine saw %v, want [quit]", eng.lines)
	}
	if got := out.String(); got != "quit\n" {
		t.Errorf("output = %q, want quit response only", got)
	}
}

// The exit check fires on the raw line, not the parsed token: a line
// like "quit now" gets the quit response but keeps the session alive.
func TestRunQuitWithArgumentsKeepsReading(t *testing.T) {
	eng := &scriptedEngine{}
	var out bytes.Buffer

	s := New(strings.NewReader("quit now\nisready\n"), &out, eng)
	if err := s.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(eng.lines) != 2 {
		t.Fatalf("engine saw %v, want both lines", eng.lines)
	}
	if got := out.String(); got != "quit\nreadyok\n" {
		t.Errorf("output = %q, want responses to both lines", got)
	}
}

func TestRunFlushesBufferedOutput(t *testing.T) {
	eng := &scriptedEngine{}
	var raw bytes.Buffer
	// Large buffer so nothing reaches raw unless the session flushes.
	buffered := bufio.NewWriterSize(&raw, 1<<16)

	s := New(strings.NewReader("isready\nquit\n"), buffered, eng)
	if err := s.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := raw.String(); got != "readyok\nquit\n" {
		t.Errorf("flushed output = %q, want every response flushed", got)
	}
}

func TestRunStopsAtEOF(t *testing.T) {
	eng := &scriptedEngine{}
	var out bytes.Buffer

	s := New(strings.NewReader(""), &out, eng)
	if err := s.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(eng.lines) != 0 {
		t.Errorf("engine saw %v on empty input", eng.lines)
	}
}
