package broker

import (
	"context"
	"sync"
	"testing"
)

func TestPublishReachesSubscriber(t *testing.T) {
	b := NewMemory()
	ctx := context.Background()

	var got []byte
	if err := b.Subscribe(ctx, "notifications:alice", func(p []byte) { got = p }); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	if err := b.Publish(ctx, "notifications:alice", []byte("hello")); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if string(got) != "hello" {
		t.Errorf("handler received %q, want %q", got, "hello")
	}
}

func TestPublishWithoutSubscriberIsDropped(t *testing.T) {
	b := NewMemory()
	// Should not panic or error
	if err := b.Publish(context.Background(), "notifications:nobody", []byte("x")); err != nil {
		t.Fatalf("Publish: %v", err)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := NewMemory()
	ctx := context.Background()

	calls := 0
	b.Subscribe(ctx, "notifications:alice", func([]byte) { calls++ })
	b.Unsubscribe(ctx, "notifications:alice")
	b.Publish(ctx, "notifications:alice", []byte("x"))

	if calls != 0 {
		t.Errorf("handler called %d times after unsubscribe, want 0", calls)
	}
	if b.Subscribed("notifications:alice") {
		t.Error("expected subscription entry to be removed")
	}
}

func TestCrossTopicIsolation(t *testing.T) {
	b := NewMemory()
	ctx := context.Background()

	var alice, bob int
	b.Subscribe(ctx, "notifications:alice", func([]byte) { alice++ })
	b.Subscribe(ctx, "notifications:bob", func([]byte) { bob++ })

	b.Publish(ctx, "notifications:alice", []byte("x"))

	if alice != 1 {
		t.Errorf("alice handler called %d times, want 1", alice)
	}
	if bob != 0 {
		t.Errorf("bob handler called %d times, want 0", bob)
	}
}

func TestQueueFIFOOrder(t *testing.T) {
	b := NewMemory()
	ctx := context.Background()

	for _, v := range []string{"a", "b", "c"} {
		if err := b.QueuePush(ctx, "dlq", []byte(v)); err != nil {
			t.Fatalf("QueuePush: %v", err)
		}
	}

	n, err := b.QueueLen(ctx, "dlq")
	if err != nil || n != 3 {
		t.Fatalf("QueueLen = %d, %v; want 3, nil", n, err)
	}

	for _, want := range []string{"a", "b", "c"} {
		got, ok, err := b.QueuePop(ctx, "dlq")
		if err != nil || !ok {
			t.Fatalf("QueuePop = %v, %v, %v; want entry", got, ok, err)
		}
		if string(got) != want {
			t.Errorf("popped %q, want %q", got, want)
		}
	}

	if _, ok, _ := b.QueuePop(ctx, "dlq"); ok {
		t.Error("expected empty queue after draining")
	}
}

func TestQueuePopEmptyIsNonBlocking(t *testing.T) {
	b := NewMemory()
	_, ok, err := b.QueuePop(context.Background(), "dlq")
	if err != nil {
		t.Fatalf("QueuePop: %v", err)
	}
	if ok {
		t.Error("expected ok=false on empty queue")
	}
}

func TestConcurrentQueueAccess(t *testing.T) {
	b := NewMemory()
	ctx := context.Background()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.QueuePush(ctx, "dlq", []byte("x"))
			b.QueuePop(ctx, "dlq")
		}()
	}

	wg.Wait()

	if n, _ := b.QueueLen(ctx, "dlq"); n != 0 {
		t.Errorf("queue length = %d after balanced push/pop, want 0", n)
	}
}
