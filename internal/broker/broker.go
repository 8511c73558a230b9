// Package broker abstracts the pub/sub and list-queue backing store used for
// notification fan-out and dead-letter retry. The delivery core only depends
// on the Broker interface; redis.go talks to a real Redis server and
// memory.go provides a process-local implementation for tests and
// single-instance dev runs.
package broker

import "context"

// Handler receives each payload published to a subscribed topic.
type Handler func(payload []byte)

// Broker is the injected capability over the backing store: topic pub/sub
// plus durable FIFO queues keyed by string.
type Broker interface {
	// Publish sends payload to every current subscriber of topic.
	Publish(ctx context.Context, topic string, payload []byte) error

	// Subscribe opens a subscription to topic, invoking h for each inbound
	// payload until Unsubscribe. The caller is responsible for not opening
	// two subscriptions to the same topic.
	Subscribe(ctx context.Context, topic string, h Handler) error

	// Unsubscribe tears down the subscription to topic. Unsubscribing a
	// topic without a subscription is a no-op.
	Unsubscribe(ctx context.Context, topic string) error

	// QueuePush appends payload to the tail of the FIFO queue at key.
	QueuePush(ctx context.Context, key string, payload []byte) error

	// QueuePop removes and returns the head of the queue at key. It returns
	// immediately; ok is false when the queue is empty.
	QueuePop(ctx context.Context, key string) (payload []byte, ok bool, err error)

	// QueueLen reports the number of entries in the queue at key.
	QueueLen(ctx context.Context, key string) (int64, error)

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases all subscriptions and connections.
	Close() error
}
