package search

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// UCI is an Adapter backed by an external UCI engine process (Stockfish
// or compatible) driven over stdin/stdout pipes.
type UCI struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Scanner
	mu     sync.Mutex
}

// NewUCI starts the engine binary at path and performs the UCI handshake.
func NewUCI(path string) (*UCI, error) {
	cmd := exec.Command(path)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}

	if err = cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start engine process: %v", err)
	}

	u := &UCI{
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewScanner(stdout),
	}

	if err := u.handshake(); err != nil {
		u.Close()
		return nil, err
	}

	return u, nil
}

func (u *UCI) handshake() error {
	u.sendCommand("uci")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan bool)
	go func() {
		for u.stdout.Scan() {
			if u.stdout.Text() == "uciok" {
				done <- true
				return
			}
		}
		done <- false
	}()

	select {
	case success := <-done:
		if !success {
			return fmt.Errorf("engine process closed unexpectedly")
		}
	case <-ctx.Done():
		return fmt.Errorf("timeout waiting for uciok")
	}

	u.sendCommand("isready")
	return u.waitReady()
}

func (u *UCI) waitReady() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error)
	go func() {
		for u.stdout.Scan() {
			if u.stdout.Text() == "readyok" {
				done <- nil
				return
			}
		}
		done <- fmt.Errorf("engine process closed unexpectedly")
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("timeout waiting for readyok")
	}
}

func (u *UCI) sendCommand(cmd string) {
	fmt.Fprintln(u.stdin, cmd)
}

// Analyze runs a fixed-depth search and collects the final info line.
func (u *UCI) Analyze(fen string, depth int) (Analysis, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.sendCommand(fmt.Sprintf("position fen %s", fen))
	u.sendCommand(fmt.Sprintf("go depth %d", depth))

	result, err := u.collect(30 * time.Second)
	if err != nil {
		return Analysis{}, err
	}
	return result.analysis, nil
}

// BestMove runs a time-budget search and returns the chosen move.
func (u *UCI) BestMove(fen string, timeMs int) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.sendCommand(fmt.Sprintf("position fen %s", fen))
	u.sendCommand(fmt.Sprintf("go movetime %d", timeMs))

	// 2x the search time plus a buffer for process latency
	result, err := u.collect(time.Duration(timeMs*2+1000) * time.Millisecond)
	if err != nil {
		return "", err
	}
	if result.bestMove == "" || result.bestMove == "(none)" {
		return "", fmt.Errorf("engine produced no move")
	}
	return result.bestMove, nil
}

type searchOutput struct {
	analysis Analysis
	bestMove string
}

// collect reads engine output until bestmove, keeping the last seen
// depth/score/pv from the info stream.
func (u *UCI) collect(timeout time.Duration) (searchOutput, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var out searchOutput
	done := make(chan error)
	go func() {
		for u.stdout.Scan() {
			line := u.stdout.Text()

			if strings.HasPrefix(line, "info ") {
				fields := strings.Fields(line)
				for i := 0; i < len(fields)-1; i++ {
					switch fields[i] {
					case "depth":
						fmt.Sscanf(fields[i+1], "%d", &out.analysis.Depth)
					case "cp":
						fmt.Sscanf(fields[i+1], "%d", &out.analysis.Score)
					case "mate":
						var mateIn int
						fmt.Sscanf(fields[i+1], "%d", &mateIn)
						// Mate scores folded into centipawns
						if mateIn > 0 {
							out.analysis.Score = 100000 - mateIn
						} else {
							out.analysis.Score = -100000 - mateIn
						}
					case "pv":
						out.analysis.PV = append([]string(nil), fields[i+1:]...)
					}
				}
			}

			if strings.HasPrefix(line, "bestmove ") {
				parts := strings.Fields(line)
				if len(parts) >= 2 {
					out.bestMove = parts[1]
				}
				done <- nil
				return
			}
		}
		done <- fmt.Errorf("engine process closed unexpectedly")
	}()

	select {
	case err := <-done:
		if err != nil {
			return searchOutput{}, err
		}
		return out, nil
	case <-ctx.Done():
		return searchOutput{}, fmt.Errorf("timeout waiting for bestmove")
	}
}

// Close shuts the engine process down, killing it if it lingers.
func (u *UCI) Close() error {
	u.sendCommand("quit")
	time.Sleep(100 * time.Millisecond)

	done := make(chan error, 1)
	go func() {
		done <- u.cmd.Wait()
	}()

	select {
	case <-done:
		return nil
	case <-time.After(1 * time.Second):
		return u.cmd.Process.Kill()
	}
}
