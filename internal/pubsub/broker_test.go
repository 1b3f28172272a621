package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type progress struct {
	Package string
	Stage   string
}

func receive[T any](t *testing.T, ch <-chan Event[T]) Event[T] {
	t.Helper()
	select {
	case event := <-ch:
		return event
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
		panic("unreachable")
	}
}

func TestBroker_PublishReachesSubscriber(t *testing.T) {
	broker := NewBroker[progress]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := broker.Subscribe(ctx)
	broker.Publish(UpdatedEvent, progress{Package: "tool", Stage: "building"})

	event := receive(t, ch)
	require.Equal(t, UpdatedEvent, event.Type)
	require.Equal(t, "tool", event.Payload.Package)
	require.False(t, event.Timestamp.IsZero())
}

func TestBroker_FanOut(t *testing.T) {
	broker := NewBroker[progress]()
	defer broker.Close()

	ctx := context.Background()
	ch1 := broker.Subscribe(ctx)
	ch2 := broker.Subscribe(ctx)
	require.Equal(t, 2, broker.SubscriberCount())

	broker.Publish(CreatedEvent, progress{Package: "tool", Stage: "bound"})

	for _, ch := range []<-chan Event[progress]{ch1, ch2} {
		require.Equal(t, "bound", receive(t, ch).Payload.Stage)
	}
}

func TestBroker_SubscriptionEndsWithContext(t *testing.T) {
	broker := NewBroker[progress]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch := broker.Subscribe(ctx)
	require.Equal(t, 1, broker.SubscriberCount())

	cancel()
	require.Eventually(t, func() bool {
		return broker.SubscriberCount() == 0
	}, time.Second, 10*time.Millisecond)

	_, ok := <-ch
	require.False(t, ok, "channel should be closed after cancellation")
}

func TestBroker_FullSubscriberDoesNotBlockPublish(t *testing.T) {
	broker := NewBrokerWithBuffer[progress](1)
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := broker.Subscribe(ctx)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			broker.Publish(UpdatedEvent, progress{Stage: "building"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
	<-ch // at least the first event made it through
}

func TestBroker_PublishAfterCloseIsNoop(t *testing.T) {
	broker := NewBroker[progress]()
	ctx := context.Background()
	ch := broker.Subscribe(ctx)

	broker.Close()
	broker.Publish(UpdatedEvent, progress{})

	_, ok := <-ch
	require.False(t, ok)
}

func TestContinuousListener_Next(t *testing.T) {
	broker := NewBroker[progress]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	listener := NewContinuousListener(ctx, broker)

	broker.Publish(DeletedEvent, progress{Package: "tool", Stage: "removed"})

	event, ok := listener.Next()
	require.True(t, ok)
	require.Equal(t, DeletedEvent, event.Type)

	cancel()
	_, ok = listener.Next()
	require.False(t, ok)
}
