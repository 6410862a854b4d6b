package changefeed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, sub Subscription) Event {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		require.True(t, ok, "subscription closed unexpectedly")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestHub_PublishToTableSubscribers(t *testing.T) {
	hub := NewHub()
	ctx := context.Background()

	visitors, err := hub.Subscribe(ctx, "visitors")
	require.NoError(t, err)
	defer visitors.Close()

	members, err := hub.Subscribe(ctx, "members")
	require.NoError(t, err)
	defer members.Close()

	all, err := hub.Subscribe(ctx, AllTables)
	require.NoError(t, err)
	defer all.Close()

	require.NoError(t, hub.Publish(ctx, Event{Table: "visitors", Op: OpInsert, ID: "v1"}))

	assert.Equal(t, "v1", receive(t, visitors).ID)
	assert.Equal(t, "v1", receive(t, all).ID)

	select {
	case ev := <-members.Events():
		t.Fatalf("members subscriber received unrelated event %+v", ev)
	default:
	}
}

func TestHub_CloseUnsubscribes(t *testing.T) {
	hub := NewHub()
	sub, err := hub.Subscribe(context.Background(), "announcements")
	require.NoError(t, err)
	assert.Equal(t, 1, hub.Subscribers("announcements"))

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())
	assert.Equal(t, 0, hub.Subscribers("announcements"))

	_, ok := <-sub.Events()
	assert.False(t, ok, "events channel should be closed")

	// Publishing after close must not panic.
	assert.NoError(t, hub.Publish(context.Background(), Event{Table: "announcements"}))
}

func TestHub_ContextCancelUnsubscribes(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	sub, err := hub.Subscribe(ctx, "payments")
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription was not closed after context cancel")
	}
	assert.Equal(t, 0, hub.Subscribers("payments"))
}

func TestHub_FullSubscriberDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub()
	sub, err := hub.Subscribe(context.Background(), "members")
	require.NoError(t, err)
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < defaultBuffer*3; i++ {
			hub.Publish(context.Background(), Event{Table: "members", Op: OpUpdate})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	assert.Len(t, sub.Events(), defaultBuffer)
}
