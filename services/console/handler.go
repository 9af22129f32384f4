package console

import (
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
)

// Handler exposes the console over a websocket for browser clients.
type Handler struct {
	hub            *Hub
	exec           Executor
	originPatterns []string
}

func NewHandler(hub *Hub, exec Executor, originPatterns []string) *Handler {
	return &Handler{
		hub:            hub,
		exec:           exec,
		originPatterns: originPatterns,
	}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/console/ws", h.handleConsoleWS)
}

func (h *Handler) handleConsoleWS(w http.ResponseWriter, r *http.Request) {
	slog.Info(">>handleConsoleWS: new incoming connection")

	opts := &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	}
	c, err := websocket.Accept(w, r, opts)
	if err != nil {
		slog.Error("websocket accept error:", "error", err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "Unexpected connection close")

	conn := websocket.NetConn(r.Context(), c, websocket.MessageText)
	if err := Serve(r.Context(), conn, h.hub, h.exec); err != nil {
		slog.Debug("console websocket session ended", "error", err)
	}

	c.Close(websocket.StatusNormalClosure, "")
	slog.Info("<<handleConsoleWS")
}
