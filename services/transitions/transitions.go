package transitions

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/driptide/irrigationd/internal/history"
	"github.com/driptide/irrigationd/utils"
	"github.com/google/uuid"
)

const defaultLimit = 20

type TransitionStore interface {
	Recent(ctx context.Context, limit int) ([]history.Transition, error)
}

type TransitionResponse struct {
	ID         uuid.UUID `json:"id"`
	OccurredAt time.Time `json:"occurred_at"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Reason     string    `json:"reason"`
	Raw        int       `json:"raw"`
	Average    int       `json:"average"`
}

type Handler struct {
	store TransitionStore
}

func NewHandler(store TransitionStore) *Handler {
	h := Handler{
		store,
	}

	return &h
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/transitions", h.handlerTransitionsGet)
}

func (h *Handler) handlerTransitionsGet(w http.ResponseWriter, r *http.Request) {
	slog.Debug("handlerTransitionsGet")

	limit := defaultLimit
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 {
			utils.RespondWithError(w, http.StatusBadRequest, "limit must be a positive number", err)
			return
		}
		limit = n
	}

	rows, err := h.store.Recent(r.Context(), limit)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "could not read recent transitions", err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, historyToResponses(rows))
}

func historyToResponses(rows []history.Transition) []TransitionResponse {
	responses := make([]TransitionResponse, 0, len(rows))

	for _, row := range rows {
		responses = append(responses, TransitionResponse{
			ID:         row.ID,
			OccurredAt: row.OccurredAt,
			From:       string(row.From),
			To:         string(row.To),
			Reason:     string(row.Reason),
			Raw:        row.Raw,
			Average:    row.Average,
		})
	}

	return responses
}
