package health

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/driptide/irrigationd/utils"
)

type Handler struct {
	started time.Time
}

func NewHandler() *Handler {
	return &Handler{started: time.Now()}
}

func (handler *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/health", handler.handlerHealthGet)
}

func (handler *Handler) handlerHealthGet(writer http.ResponseWriter, req *http.Request) {
	slog.Debug("enter handlerHealthGet")
	response := struct {
		Status        string  `json:"status"`
		UptimeSeconds float64 `json:"uptime_seconds"`
	}{
		Status:        "ok",
		UptimeSeconds: time.Since(handler.started).Seconds(),
	}

	utils.RespondWithJSON(writer, http.StatusOK, response)
}
