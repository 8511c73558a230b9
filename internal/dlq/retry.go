// Package dlq runs the dead-letter retry loop: a background task that
// periodically drains the dead-letter queue and republishes each entry to
// its user's notification topic.
package dlq

import (
	"context"
	"log/slog"
	"time"

	"github.com/notifly/backend/internal/broker"
	"github.com/notifly/backend/internal/notify"
)

// DefaultInterval is the polling interval between cycles. It is deliberately
// long to respect rate limits of hosted Redis brokers.
const DefaultInterval = 30 * time.Second

// Loop is the sole consumer of the dead-letter queue. It never exits on
// error; the only way out is context cancellation at shutdown.
type Loop struct {
	broker   broker.Broker
	interval time.Duration
}

// NewLoop creates a retry loop over the given broker. A non-positive
// interval falls back to DefaultInterval.
func NewLoop(b broker.Broker, interval time.Duration) *Loop {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Loop{broker: b, interval: interval}
}

// Run polls the dead-letter queue until ctx is cancelled, sleeping the
// configured interval between cycles whether or not work was found. Call it
// from its own goroutine.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	slog.Info("dead-letter retry loop started",
		slog.Duration("interval", l.interval))

	for {
		select {
		case <-ctx.Done():
			slog.Info("dead-letter retry loop stopped")
			return
		case <-ticker.C:
			l.cycle(ctx)
		}
	}
}

// cycle pops one entry and republishes it. The pop is destructive before the
// republish attempt, so an entry whose republish fails is dropped rather
// than requeued; delivery here is best-effort, not at-least-once.
func (l *Loop) cycle(ctx context.Context) {
	payload, ok, err := l.broker.QueuePop(ctx, notify.DeadLetterKey)
	if err != nil {
		slog.Error("dead-letter pop failed", slog.Any("error", err))
		return
	}
	if !ok {
		return
	}

	n, err := notify.Decode(payload)
	if err != nil {
		slog.Error("dead-letter entry unparseable, dropping",
			slog.Any("error", err))
		return
	}

	if err := l.broker.Publish(ctx, notify.TopicFor(n.UserID), payload); err != nil {
		slog.Error("dead-letter republish failed",
			slog.String("notification_id", n.ID),
			slog.String("user_id", n.UserID),
			slog.Any("error", err))
		return
	}

	slog.Info("retried dead-letter notification",
		slog.String("notification_id", n.ID),
		slog.String("user_id", n.UserID))
}
