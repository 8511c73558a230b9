// Package sessions manages live client connections: which user each session
// belongs to, group membership, and the subscribe/release lifecycle of the
// user's topic subscription.
package sessions

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/notifly/backend/internal/hub"
	"github.com/notifly/backend/internal/notify"
	"github.com/notifly/backend/internal/registry"
)

// ErrUnknownConnection is returned by Ack for a connection id that is not
// currently registered.
var ErrUnknownConnection = errors.New("unknown connection")

// AckRecorder persists client acknowledgments. Recording is purely
// observational; failures never affect delivery.
type AckRecorder interface {
	RecordAck(ctx context.Context, notificationID, connectionID, userID string) error
}

// Manager owns all live sessions. Group membership mutation and the
// subscription-state transition for a user form one critical section,
// serialized by a per-user mutex: without it a disconnect racing a connect
// for the same user can strand a non-empty group without a subscription, or
// leak a broker subscription for an empty one.
type Manager struct {
	hub      *hub.Hub
	registry *registry.Registry
	acks     AckRecorder

	mu    sync.Mutex
	locks map[string]*sync.Mutex
	conns map[string]string // connection id -> user id
}

// NewManager creates a Manager delivering through hub and subscribing via
// registry. acks may be nil when acknowledgment persistence is disabled.
func NewManager(h *hub.Hub, r *registry.Registry, acks AckRecorder) *Manager {
	return &Manager{
		hub:      h,
		registry: r,
		acks:     acks,
		locks:    make(map[string]*sync.Mutex),
		conns:    make(map[string]string),
	}
}

// userLock returns the mutex serializing membership and subscription
// transitions for one user. Entries live for the process lifetime; the map
// is bounded by the number of distinct user ids seen.
func (m *Manager) userLock(userID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[userID] = l
	}
	return l
}

// Connect registers a session under the user's group and returns its
// delivery channel. The caller must terminate the connection immediately on
// a notify.ErrMissingUserID error.
//
// EnsureSubscribed runs on every connect, not only the first: it is
// idempotent, and re-running it means a subscription lost to an earlier
// broker outage is retried by the next connect rather than never.
func (m *Manager) Connect(ctx context.Context, connID, userID string) (chan []byte, error) {
	if userID == "" {
		return nil, notify.ErrMissingUserID
	}

	l := m.userLock(userID)
	l.Lock()
	defer l.Unlock()

	ch, _ := m.hub.Register(userID, connID)

	m.mu.Lock()
	m.conns[connID] = userID
	m.mu.Unlock()

	if err := m.registry.EnsureSubscribed(ctx, userID); err != nil {
		// Subscription-path failures are invisible to the client; the
		// session stays connected and the next connect retries.
		slog.Error("subscribe failed",
			slog.String("user_id", userID), slog.Any("error", err))
	}

	slog.Info("session connected",
		slog.String("connection_id", connID), slog.String("user_id", userID))
	return ch, nil
}

// Disconnect removes the session from the user's group and releases the
// topic subscription when the group becomes empty.
func (m *Manager) Disconnect(ctx context.Context, connID, userID string) {
	if userID == "" {
		return
	}

	l := m.userLock(userID)
	l.Lock()
	defer l.Unlock()

	m.mu.Lock()
	delete(m.conns, connID)
	m.mu.Unlock()

	remaining := m.hub.Unregister(userID, connID)
	if remaining == 0 {
		if err := m.registry.Release(ctx, userID); err != nil {
			slog.Error("release failed",
				slog.String("user_id", userID), slog.Any("error", err))
		}
	}

	slog.Info("session disconnected",
		slog.String("connection_id", connID), slog.String("user_id", userID))
}

// Ack records a client acknowledgment for a delivered notification. Purely
// observational: no re-delivery tracking hangs off it.
func (m *Manager) Ack(ctx context.Context, connID, notificationID string) error {
	m.mu.Lock()
	userID, ok := m.conns[connID]
	m.mu.Unlock()
	if !ok {
		return ErrUnknownConnection
	}

	slog.Info("ack received",
		slog.String("notification_id", notificationID),
		slog.String("connection_id", connID),
		slog.String("user_id", userID))

	if m.acks != nil {
		if err := m.acks.RecordAck(ctx, notificationID, connID, userID); err != nil {
			slog.Error("ack record failed", slog.Any("error", err))
		}
	}
	return nil
}
