package dlq

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/notifly/backend/internal/broker"
	"github.com/notifly/backend/internal/notify"
)

func enqueue(t *testing.T, b broker.Broker, userID, message string) notify.Notification {
	t.Helper()
	n := notify.New(userID, notify.TypeInfo, message, "")
	payload, err := n.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := b.QueuePush(context.Background(), notify.DeadLetterKey, payload); err != nil {
		t.Fatalf("QueuePush: %v", err)
	}
	return n
}

func TestCycleRepublishesToUserTopic(t *testing.T) {
	b := broker.NewMemory()
	ctx := context.Background()

	var got []byte
	b.Subscribe(ctx, notify.TopicFor("bob"), func(p []byte) { got = p })

	want := enqueue(t, b, "bob", "retry me")

	l := NewLoop(b, time.Minute)
	l.cycle(ctx)

	if got == nil {
		t.Fatal("expected republished payload on bob's topic")
	}
	n, err := notify.Decode(got)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if n.ID != want.ID || n.Message != "retry me" {
		t.Errorf("republished %+v, want id %s", n, want.ID)
	}

	if qlen, _ := b.QueueLen(ctx, notify.DeadLetterKey); qlen != 0 {
		t.Errorf("queue length = %d after retry, want 0", qlen)
	}
}

func TestCycleDrainsOneEntryPerCall(t *testing.T) {
	b := broker.NewMemory()
	ctx := context.Background()

	enqueue(t, b, "bob", "one")
	enqueue(t, b, "bob", "two")

	l := NewLoop(b, time.Minute)
	l.cycle(ctx)

	if qlen, _ := b.QueueLen(ctx, notify.DeadLetterKey); qlen != 1 {
		t.Errorf("queue length = %d after one cycle, want 1", qlen)
	}
}

func TestCycleOnEmptyQueueIsQuiet(t *testing.T) {
	l := NewLoop(broker.NewMemory(), time.Minute)
	// Should neither panic nor block
	l.cycle(context.Background())
}

func TestCycleDropsUnparseableEntry(t *testing.T) {
	b := broker.NewMemory()
	ctx := context.Background()
	b.QueuePush(ctx, notify.DeadLetterKey, []byte("{garbage"))

	l := NewLoop(b, time.Minute)
	l.cycle(ctx)

	if qlen, _ := b.QueueLen(ctx, notify.DeadLetterKey); qlen != 0 {
		t.Errorf("queue length = %d, want 0 (unparseable entry dropped)", qlen)
	}
}

// failingPublishBroker fails every Publish while queue operations keep
// working, simulating a broker that accepts list commands but not pub/sub.
type failingPublishBroker struct {
	*broker.Memory
}

func (f *failingPublishBroker) Publish(ctx context.Context, topic string, payload []byte) error {
	return errors.New("broker unavailable")
}

func TestFailedRepublishDropsEntry(t *testing.T) {
	b := &failingPublishBroker{Memory: broker.NewMemory()}
	ctx := context.Background()

	enqueue(t, b, "bob", "lost")

	l := NewLoop(b, time.Minute)
	l.cycle(ctx)

	// Pop happens before the publish attempt, so a failed republish drops
	// the entry instead of requeueing it.
	if qlen, _ := b.QueueLen(ctx, notify.DeadLetterKey); qlen != 0 {
		t.Errorf("queue length = %d, want 0 (entry dropped, not requeued)", qlen)
	}
}

func TestRunStopsOnCancelAndSurvivesErrors(t *testing.T) {
	b := &failingPublishBroker{Memory: broker.NewMemory()}
	ctx, cancel := context.WithCancel(context.Background())

	enqueue(t, b, "bob", "a")
	enqueue(t, b, "bob", "b")

	l := NewLoop(b, 5*time.Millisecond)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		l.Run(ctx)
	}()

	// Give the loop a few cycles; every republish fails but the loop must
	// keep going.
	time.Sleep(50 * time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		// loop exited on cancellation
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}

	if qlen, _ := b.QueueLen(context.Background(), notify.DeadLetterKey); qlen != 0 {
		t.Errorf("queue length = %d, want 0 after several cycles", qlen)
	}
}
