package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/notifly/backend/internal/ackstore"
	"github.com/notifly/backend/internal/broker"
	"github.com/notifly/backend/internal/models"
	"github.com/notifly/backend/internal/notify"
)

// StatsHandler exposes the small observability surface: broker health, the
// dead-letter queue length and per-user acknowledgment counts.
type StatsHandler struct {
	broker broker.Broker
	acks   *ackstore.Store
}

// NewStatsHandler creates a StatsHandler. acks may be nil when the ack store
// is disabled; the ack count endpoint then reports zero.
func NewStatsHandler(b broker.Broker, acks *ackstore.Store) *StatsHandler {
	return &StatsHandler{broker: b, acks: acks}
}

// Health reports whether the backing broker is reachable.
func (h *StatsHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.broker.Ping(r.Context()); err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusServiceUnavailable, "broker unavailable", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// DeadLetterLength returns the current length of the dead-letter queue.
func (h *StatsHandler) DeadLetterLength(w http.ResponseWriter, r *http.Request) {
	n, err := h.broker.QueueLen(r.Context(), notify.DeadLetterKey)
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to read queue length", err)
		return
	}
	writeJSON(w, http.StatusOK, models.QueueLengthResponse{Length: n})
}

// AckCount returns how many acknowledgments a user's sessions have sent.
func (h *StatsHandler) AckCount(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	var count int64
	if h.acks != nil {
		var err error
		count, err = h.acks.CountForUser(r.Context(), userID)
		if err != nil {
			writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to count acks", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, models.AckCountResponse{UserID: userID, Count: count})
}
