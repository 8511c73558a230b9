// Package services holds the business logic between the HTTP handlers and
// the broker.
package services

import (
	"context"
	"log/slog"

	"github.com/mdobak/go-xerrors"

	"github.com/notifly/backend/internal/broker"
	"github.com/notifly/backend/internal/notify"
)

// PublisherService constructs notification records and hands them to the
// broker, falling back to the dead-letter queue when the broker refuses.
type PublisherService struct {
	broker broker.Broker
}

// NewPublisherService creates a PublisherService over the given broker.
func NewPublisherService(b broker.Broker) *PublisherService {
	return &PublisherService{broker: b}
}

// Publish builds a Notification with a fresh id (and the current time when
// timestamp is empty) and publishes it to the user's topic. On a broker
// failure the serialized notification is pushed onto the dead-letter queue
// before the error is reported; the retry loop will republish it later.
//
// A nil return means "handed to the broker", not "delivered to a session".
func (s *PublisherService) Publish(ctx context.Context, userID, typ, message, timestamp string) (notify.Notification, error) {
	n := notify.New(userID, typ, message, timestamp)

	payload, err := n.Encode()
	if err != nil {
		return notify.Notification{}, xerrors.Newf("encode notification: %v", err)
	}

	if err := s.broker.Publish(ctx, notify.TopicFor(userID), payload); err != nil {
		slog.Error("publish failed, queueing to dead letter",
			slog.String("notification_id", n.ID),
			slog.String("user_id", userID),
			slog.Any("error", err))
		if qErr := s.broker.QueuePush(ctx, notify.DeadLetterKey, payload); qErr != nil {
			slog.Error("dead-letter enqueue failed",
				slog.String("notification_id", n.ID), slog.Any("error", qErr))
		}
		return notify.Notification{}, notify.ErrPublishFailed
	}

	slog.Info("notification published",
		slog.String("notification_id", n.ID),
		slog.String("user_id", userID))
	return n, nil
}
