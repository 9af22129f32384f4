package status

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/driptide/irrigationd/internal/telemetry"
	"github.com/driptide/irrigationd/utils"
)

func NewHandler(tracker *telemetry.Tracker, originPatterns []string) *Handler {
	h := Handler{
		tracker,
		originPatterns,
	}

	return &h
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/status", h.handlerStatusGet)
	mux.HandleFunc("/v1/status/ws", h.handleStatusWS)
}

func (h *Handler) handlerStatusGet(writer http.ResponseWriter, req *http.Request) {
	slog.Debug("enter handlerStatusGet")

	utils.RespondWithJSON(writer, http.StatusOK, buildSystemStatus(h.tracker.Snapshot()))
}

func (h *Handler) handleStatusWS(w http.ResponseWriter, r *http.Request) {
	slog.Info(">>handleStatusWS: new incoming connection")
	opts := &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	}
	c, err := websocket.Accept(w, r, opts)
	if err != nil {
		slog.Error("websocket accept error:", "error", err)
		return
	}

	defer c.Close(websocket.StatusInternalError, "Unexpected connection close")

	ctx := c.CloseRead(r.Context())

	h.monitorStatus(ctx, c)

	slog.Info("<<handleStatusWS")
}

func (h *Handler) monitorStatus(ctx context.Context, c *websocket.Conn) {
	slog.Info(">>monitorStatus")
	defer slog.Info("<<monitorStatus")

	ticker := time.NewTicker(1 * time.Second)
	heartbeatTicker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	defer heartbeatTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("monitorStatus: client disconnected")
			c.Close(websocket.StatusNormalClosure, "Connection closed")
			return

		case <-ticker.C:
			err := wsjson.Write(ctx, c, buildSystemStatus(h.tracker.Snapshot()))
			if err != nil {
				slog.Error("monitorStatus: error writing to client", "error", err)
				c.Close(websocket.StatusInternalError, "error writing status")
				return
			}

		case <-heartbeatTicker.C:
			err := c.Ping(ctx)
			if err != nil {
				slog.Error("monitorStatus: error sending ping", "error", err)
				c.Close(websocket.StatusInternalError, "error sending ping")
				return
			}
		}
	}
}
