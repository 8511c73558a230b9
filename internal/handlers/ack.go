package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/notifly/backend/internal/models"
	"github.com/notifly/backend/internal/sessions"
	"github.com/notifly/backend/internal/validate"
)

// AckHandler receives client acknowledgments for delivered notifications.
type AckHandler struct {
	manager *sessions.Manager
}

// NewAckHandler creates an AckHandler over the given session manager.
func NewAckHandler(m *sessions.Manager) *AckHandler {
	return &AckHandler{manager: m}
}

// Ack records an acknowledgment. Acks are observational: they never affect
// the delivery state machine, so the response is 202 rather than 200.
func (h *AckHandler) Ack(w http.ResponseWriter, r *http.Request) {
	var req models.AckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.manager.Ack(r.Context(), req.ConnectionID, req.NotificationID); err != nil {
		if errors.Is(err, sessions.ErrUnknownConnection) {
			writeError(w, http.StatusNotFound, "unknown connection")
			return
		}
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "ack failed", err)
		return
	}

	writeJSON(w, http.StatusAccepted, models.AckResponse{Status: "acknowledged"})
}
