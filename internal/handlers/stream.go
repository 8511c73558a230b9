package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/notifly/backend/internal/logging"
	"github.com/notifly/backend/internal/models"
	"github.com/notifly/backend/internal/notify"
	"github.com/notifly/backend/internal/sessions"
)

// StreamHandler serves Server-Sent Events streams carrying notifications for
// one user.
type StreamHandler struct {
	manager   *sessions.Manager
	heartbeat time.Duration
}

// NewStreamHandler creates a StreamHandler backed by the given session manager.
func NewStreamHandler(m *sessions.Manager, heartbeat time.Duration) *StreamHandler {
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	return &StreamHandler{manager: m, heartbeat: heartbeat}
}

// Stream opens an SSE connection for the userId query parameter. It sends an
// initial "connected" event carrying the generated connection id (used by the
// client to send acknowledgments), then one "notification" event per
// delivery. A heartbeat comment every heartbeat interval keeps the
// connection alive through proxies. A missing userId terminates the
// connection immediately.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		logging.LogSecurityEvent(r.Context(), logging.SecurityEventMissingUserID,
			"connection attempted without user id")
		writeError(w, http.StatusBadRequest, "missing userId")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	connID := uuid.NewString()
	ch, err := h.manager.Connect(r.Context(), connID, userID)
	if err != nil {
		if errors.Is(err, notify.ErrMissingUserID) {
			writeError(w, http.StatusBadRequest, "missing userId")
			return
		}
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "connect failed", err)
		return
	}
	// The request context is already cancelled once the client is gone, so
	// the teardown runs with a fresh context.
	defer h.manager.Disconnect(context.Background(), connID, userID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	// Send initial connected event with the connection id
	connected, _ := json.Marshal(models.ConnectedEvent{ConnectionID: connID})
	fmt.Fprintf(w, "event: connected\ndata: %s\n\n", connected)
	flusher.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case payload := <-ch:
			fmt.Fprintf(w, "event: notification\ndata: %s\n\n", payload)
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		}
	}
}
