// Package console serves the operator command channel: the line protocol
// over stdio, TCP and websocket, plus the broadcast of the periodic status
// line to every attached session.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/driptide/irrigationd/internal/command"
)

// Executor runs one parsed command against the control loop and returns the
// reply line.
type Executor interface {
	Execute(ctx context.Context, cmd command.Command) (string, error)
}

// Hub tracks the attached sessions so the engine can broadcast to all of
// them at once.
type Hub struct {
	mu       sync.Mutex
	sessions map[*session]struct{}
}

func NewHub() *Hub {
	return &Hub{sessions: make(map[*session]struct{})}
}

// Broadcast queues a line on every attached session. A session that cannot
// keep up skips broadcast lines rather than stalling the sender.
func (h *Hub) Broadcast(line string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for s := range h.sessions {
		select {
		case s.out <- line:
		default:
			slog.Debug("console session lagging, dropping status line")
		}
	}
}

// Count reports how many sessions are attached.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

func (h *Hub) attach(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s] = struct{}{}
}

func (h *Hub) detach(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, s)
}

type session struct {
	out chan string
}

// Serve runs the line protocol on conn until EOF, a connection error or
// context end. Replies and broadcast lines share one writer, so a session
// never interleaves partial lines.
func Serve(ctx context.Context, conn io.ReadWriter, hub *Hub, exec Executor) error {
	s := &session{out: make(chan string, 8)}
	hub.attach(s)
	defer hub.detach(s)

	// cancel runs before wg.Wait on the way out, releasing the writer.
	var wg sync.WaitGroup
	defer wg.Wait()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wg.Add(1)
	go func() {
		defer wg.Done()
		writeLines(ctx, conn, s.out, cancel)
	}()

	s.out <- command.Greeting

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		cmd := command.Parse(scanner.Text())

		reply, err := exec.Execute(ctx, cmd)
		if err != nil {
			return fmt.Errorf("command execution failed: %w", err)
		}

		select {
		case s.out <- reply:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return scanner.Err()
}

// writeLines drains the session queue onto the connection. A write failure
// cancels the session so the reader unwinds too.
func writeLines(ctx context.Context, w io.Writer, out <-chan string, cancel context.CancelFunc) {
	for {
		select {
		case <-ctx.Done():
			return

		case line := <-out:
			if _, err := fmt.Fprintf(w, "%s\n", line); err != nil {
				slog.Debug("console write failed", "error", err)
				cancel()
				return
			}
		}
	}
}
