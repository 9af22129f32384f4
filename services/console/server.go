package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
)

// Server accepts line-protocol command sessions over TCP.
type Server struct {
	addr string
	hub  *Hub
	exec Executor
}

func NewServer(addr string, hub *Hub, exec Executor) *Server {
	return &Server{addr: addr, hub: hub, exec: exec}
}

// Run listens until the context ends. Every connection gets its own session
// goroutine; the listener and all live connections close on shutdown.
func (s *Server) Run(ctx context.Context) error {
	slog.Debug(">>console.Run")
	defer slog.Debug("<<console.Run")

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	stopListener := context.AfterFunc(ctx, func() { ln.Close() })
	defer stopListener()

	slog.Info("console listening", "address", s.addr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			slog.Warn("console accept failed", "error", err)
			continue
		}

		go func() {
			defer conn.Close()

			// close the connection on shutdown so the session reader
			// unblocks
			stop := context.AfterFunc(ctx, func() { conn.Close() })
			defer stop()

			slog.Info("console session attached", "remote", conn.RemoteAddr())
			if err := Serve(ctx, conn, s.hub, s.exec); err != nil {
				slog.Debug("console session ended", "error", err, "remote", conn.RemoteAddr())
			}
			slog.Info("console session detached", "remote", conn.RemoteAddr())
		}()
	}
}
