package broker

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis implements Broker on top of a Redis server: topics map to pub/sub
// channels and queues to lists (RPUSH/LPOP). Each subscribed topic holds its
// own *redis.PubSub with a goroutine pumping messages into the handler.
type Redis struct {
	rdb *redis.Client

	mu   sync.Mutex
	subs map[string]*redis.PubSub
}

// NewRedis connects to the Redis server at redisURL (redis:// or rediss://)
// and fails fast if the server is unreachable.
func NewRedis(ctx context.Context, redisURL string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	// Harden client timeouts and retries
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 2 * time.Second
	opts.WriteTimeout = 2 * time.Second
	opts.MaxRetries = 3
	opts.MinRetryBackoff = 100 * time.Millisecond
	opts.MaxRetryBackoff = 1 * time.Second

	if opts.TLSConfig == nil && strings.HasPrefix(redisURL, "rediss://") {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	rdb := redis.NewClient(opts)

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Redis{
		rdb:  rdb,
		subs: make(map[string]*redis.PubSub),
	}, nil
}

func (b *Redis) Publish(ctx context.Context, topic string, payload []byte) error {
	return b.rdb.Publish(ctx, topic, payload).Err()
}

func (b *Redis) Subscribe(ctx context.Context, topic string, h Handler) error {
	ps := b.rdb.Subscribe(ctx, topic)

	// Receive the subscription confirmation so a Publish immediately after
	// Subscribe returns cannot be missed.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}

	b.mu.Lock()
	if old, ok := b.subs[topic]; ok {
		// Replace a stale subscription rather than leak it.
		_ = old.Close()
	}
	b.subs[topic] = ps
	b.mu.Unlock()

	go func() {
		for msg := range ps.Channel() {
			h([]byte(msg.Payload))
		}
		slog.Debug("subscription closed", slog.String("topic", topic))
	}()

	return nil
}

func (b *Redis) Unsubscribe(ctx context.Context, topic string) error {
	b.mu.Lock()
	ps, ok := b.subs[topic]
	delete(b.subs, topic)
	b.mu.Unlock()

	if !ok {
		return nil
	}
	// Closing the PubSub drains its channel and ends the pump goroutine.
	return ps.Close()
}

func (b *Redis) QueuePush(ctx context.Context, key string, payload []byte) error {
	return b.rdb.RPush(ctx, key, payload).Err()
}

func (b *Redis) QueuePop(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := b.rdb.LPop(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (b *Redis) QueueLen(ctx context.Context, key string) (int64, error) {
	return b.rdb.LLen(ctx, key).Result()
}

func (b *Redis) Ping(ctx context.Context) error {
	return b.rdb.Ping(ctx).Err()
}

func (b *Redis) Close() error {
	b.mu.Lock()
	for topic, ps := range b.subs {
		_ = ps.Close()
		delete(b.subs, topic)
	}
	b.mu.Unlock()
	return b.rdb.Close()
}
