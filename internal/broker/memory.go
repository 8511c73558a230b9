package broker

import (
	"context"
	"sync"
)

// Memory is a process-local Broker. Topic handlers are invoked synchronously
// from Publish, which makes delivery deterministic in tests. Queues are
// slice-backed FIFO lists.
type Memory struct {
	mu     sync.Mutex
	subs   map[string]Handler
	queues map[string][][]byte
}

// NewMemory creates a ready-to-use in-memory broker.
func NewMemory() *Memory {
	return &Memory{
		subs:   make(map[string]Handler),
		queues: make(map[string][][]byte),
	}
}

func (b *Memory) Publish(ctx context.Context, topic string, payload []byte) error {
	b.mu.Lock()
	h, ok := b.subs[topic]
	b.mu.Unlock()

	// No subscriber means no delivery; matches pub/sub semantics where a
	// publish to a channel without listeners is silently dropped.
	if ok {
		h(payload)
	}
	return nil
}

func (b *Memory) Subscribe(ctx context.Context, topic string, h Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[topic] = h
	return nil
}

func (b *Memory) Unsubscribe(ctx context.Context, topic string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, topic)
	return nil
}

func (b *Memory) QueuePush(ctx context.Context, key string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	cp := make([]byte, len(payload))
	copy(cp, payload)
	b.queues[key] = append(b.queues[key], cp)
	return nil
}

func (b *Memory) QueuePop(ctx context.Context, key string) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	q := b.queues[key]
	if len(q) == 0 {
		return nil, false, nil
	}
	head := q[0]
	b.queues[key] = q[1:]
	return head, true, nil
}

func (b *Memory) QueueLen(ctx context.Context, key string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return int64(len(b.queues[key])), nil
}

func (b *Memory) Ping(ctx context.Context) error {
	return nil
}

func (b *Memory) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = make(map[string]Handler)
	return nil
}

// Subscribed reports whether a subscription for topic is currently open.
// Test helper.
func (b *Memory) Subscribed(topic string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.subs[topic]
	return ok
}
