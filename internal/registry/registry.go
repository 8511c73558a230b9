// Package registry tracks which user topics this process holds broker
// subscriptions to, and multiplexes inbound topic messages to the sessions
// in each user's group.
package registry

import (
	"context"
	"log/slog"
	"sync"

	"github.com/notifly/backend/internal/broker"
	"github.com/notifly/backend/internal/hub"
	"github.com/notifly/backend/internal/notify"
)

// Registry holds at most one broker subscription per user id. Subscribing is
// lazy (first session) and teardown happens when the user's group empties;
// both transitions are driven by the session manager.
type Registry struct {
	broker broker.Broker
	hub    *hub.Hub

	mu         sync.Mutex
	subscribed map[string]struct{}
}

// New creates a Registry delivering to the given hub through the given broker.
func New(b broker.Broker, h *hub.Hub) *Registry {
	return &Registry{
		broker:     b,
		hub:        h,
		subscribed: make(map[string]struct{}),
	}
}

// EnsureSubscribed opens a subscription to the user's notification topic if
// none exists yet. Idempotent: concurrent calls for the same user open
// exactly one subscription. The broker call happens under the registry lock
// so a racing Release cannot interleave with it.
func (r *Registry) EnsureSubscribed(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.subscribed[userID]; ok {
		return nil
	}

	topic := notify.TopicFor(userID)
	if err := r.broker.Subscribe(ctx, topic, r.handlerFor(userID)); err != nil {
		return err
	}
	r.subscribed[userID] = struct{}{}
	slog.Debug("subscribed to user topic", slog.String("user_id", userID))
	return nil
}

// Release tears down the user's subscription. Calling it for a user without
// a subscription is a no-op.
func (r *Registry) Release(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.subscribed[userID]; !ok {
		return nil
	}
	delete(r.subscribed, userID)

	if err := r.broker.Unsubscribe(ctx, notify.TopicFor(userID)); err != nil {
		slog.Error("unsubscribe failed",
			slog.String("user_id", userID), slog.Any("error", err))
		return err
	}
	slog.Debug("released user topic", slog.String("user_id", userID))
	return nil
}

// IsSubscribed reports whether a subscription for userID is currently held.
func (r *Registry) IsSubscribed(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.subscribed[userID]
	return ok
}

// handlerFor builds the topic callback for one user: parse the payload and
// broadcast it to the user's group, or push the raw message onto the
// dead-letter queue when it cannot be parsed. Never raises past this point.
func (r *Registry) handlerFor(userID string) broker.Handler {
	return func(payload []byte) {
		if _, err := notify.Decode(payload); err != nil {
			slog.Error("failed to process notification",
				slog.String("user_id", userID), slog.Any("error", err))
			if qErr := r.broker.QueuePush(context.Background(), notify.DeadLetterKey, payload); qErr != nil {
				slog.Error("dead-letter enqueue failed", slog.Any("error", qErr))
			}
			return
		}
		r.hub.Broadcast(userID, payload)
	}
}
