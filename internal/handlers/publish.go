package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/notifly/backend/internal/models"
	"github.com/notifly/backend/internal/notify"
	"github.com/notifly/backend/internal/services"
	"github.com/notifly/backend/internal/validate"
)

// PublishHandler accepts notification publish requests.
type PublishHandler struct {
	publisher *services.PublisherService
}

// NewPublishHandler creates a PublishHandler over the given publisher service.
func NewPublishHandler(p *services.PublisherService) *PublishHandler {
	return &PublishHandler{publisher: p}
}

// Publish validates the request, publishes the notification to the user's
// topic and returns {"status":"published"}. The 200 means "handed to the
// broker": delivery to live sessions is decoupled and best-effort.
func (h *PublishHandler) Publish(w http.ResponseWriter, r *http.Request) {
	var req models.PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// No side effects on a request missing userId or message.
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	_, err := h.publisher.Publish(r.Context(), req.UserID, req.Type, req.Message, req.Timestamp)
	if err != nil {
		if errors.Is(err, notify.ErrPublishFailed) {
			// The payload is already on the dead-letter queue.
			writeError(w, http.StatusInternalServerError, "publish failed")
			return
		}
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "publish failed", err)
		return
	}

	writeJSON(w, http.StatusOK, models.PublishResponse{Status: "published"})
}
