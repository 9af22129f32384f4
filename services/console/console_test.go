package console

import (
	"bufio"
	"context"
	"errors"
	"net"
	"testing"

	"github.com/driptide/irrigationd/internal/command"
)

type fakeExecutor struct {
	err error
}

func (f *fakeExecutor) Execute(ctx context.Context, cmd command.Command) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	switch cmd.Kind {
	case command.KindHelp:
		return command.HelpReply, nil
	case command.KindStatus:
		return "STATE=IDLE RAW=0 AVG=0 DRY=450 WET=520 TANK=OK PUMP=OFF ELAPSE=0ms", nil
	default:
		return command.UnknownReply, nil
	}
}

func TestServeGreetsAndReplies(t *testing.T) {
	hub := NewHub()
	client, server := net.Pipe()
	defer client.Close()

	done := make(chan error, 1)
	go func() { done <- Serve(context.Background(), server, hub, &fakeExecutor{}) }()

	lines := bufio.NewScanner(client)

	if !lines.Scan() {
		t.Fatal("expected the greeting")
	}
	if lines.Text() != command.Greeting {
		t.Errorf("expected %q, got %q", command.Greeting, lines.Text())
	}

	if _, err := client.Write([]byte("help\n")); err != nil {
		t.Fatal(err)
	}
	if !lines.Scan() {
		t.Fatal("expected a reply to HELP")
	}
	if lines.Text() != command.HelpReply {
		t.Errorf("expected %q, got %q", command.HelpReply, lines.Text())
	}

	if _, err := client.Write([]byte("make it rain\n")); err != nil {
		t.Fatal(err)
	}
	if !lines.Scan() {
		t.Fatal("expected a reply to an unknown command")
	}
	if lines.Text() != command.UnknownReply {
		t.Errorf("expected %q, got %q", command.UnknownReply, lines.Text())
	}

	client.Close()
	if err := <-done; err != nil {
		t.Errorf("Serve returned error: %v", err)
	}
	if hub.Count() != 0 {
		t.Errorf("expected the session to detach, %d still attached", hub.Count())
	}
}

func TestBroadcastReachesAllSessions(t *testing.T) {
	hub := NewHub()
	exec := &fakeExecutor{}

	clientA, serverA := net.Pipe()
	clientB, serverB := net.Pipe()
	defer clientA.Close()
	defer clientB.Close()

	go Serve(context.Background(), serverA, hub, exec)
	go Serve(context.Background(), serverB, hub, exec)

	scanA := bufio.NewScanner(clientA)
	scanB := bufio.NewScanner(clientB)

	// Reading the greeting proves each session is attached and writing.
	if !scanA.Scan() || scanA.Text() != command.Greeting {
		t.Fatal("first session not greeted")
	}
	if !scanB.Scan() || scanB.Text() != command.Greeting {
		t.Fatal("second session not greeted")
	}
	if hub.Count() != 2 {
		t.Fatalf("expected 2 attached sessions, got %d", hub.Count())
	}

	line := "STATE=WATERING RAW=400 AVG=430 DRY=450 WET=520 TANK=OK PUMP=ON ELAPSE=1200ms"
	hub.Broadcast(line)

	if !scanA.Scan() || scanA.Text() != line {
		t.Errorf("first session: expected the status line, got %q", scanA.Text())
	}
	if !scanB.Scan() || scanB.Text() != line {
		t.Errorf("second session: expected the status line, got %q", scanB.Text())
	}
}

func TestServeEndsWhenExecutorFails(t *testing.T) {
	hub := NewHub()
	client, server := net.Pipe()
	defer client.Close()

	done := make(chan error, 1)
	go func() {
		done <- Serve(context.Background(), server, hub, &fakeExecutor{err: errors.New("control loop stopped")})
	}()

	lines := bufio.NewScanner(client)
	if !lines.Scan() {
		t.Fatal("expected the greeting")
	}
	if _, err := client.Write([]byte("help\n")); err != nil {
		t.Fatal(err)
	}

	if err := <-done; err == nil {
		t.Error("expected Serve to surface the executor failure")
	}
}
