package notify

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestMemoryBrokerDeliversByPost(t *testing.T) {
	b := NewMemoryBroker()
	ctx := context.Background()

	ch1, cancel1 := b.Subscribe(ctx, 1)
	defer cancel1()
	ch2, cancel2 := b.Subscribe(ctx, 2)
	defer cancel2()

	require.NoError(t, b.Publish(ctx, 1, Event{Type: EventCommentAdded, PostID: 1}))

	ev := receive(t, ch1)
	assert.Equal(t, EventCommentAdded, ev.Type)

	select {
	case <-ch2:
		t.Fatal("post 2 subscriber must not receive post 1 events")
	default:
	}
}

func TestMemoryBrokerCancel(t *testing.T) {
	b := NewMemoryBroker()
	ctx, cancelCtx := context.WithCancel(context.Background())

	ch, _ := b.Subscribe(ctx, 7)
	assert.Equal(t, 1, b.Subscribers(7))

	cancelCtx()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed after context cancel")
	}
	assert.Equal(t, 0, b.Subscribers(7))

	// 取消后发布不应 panic
	assert.NoError(t, b.Publish(context.Background(), 7, Event{Type: EventPostDeleted, PostID: 7}))
}

// 用不会结束的 ctx 订阅，手动 cancel 后监听协程也要退出
func TestMemoryBrokerCancelReleasesWatcher(t *testing.T) {
	b := NewMemoryBroker()
	before := runtime.NumGoroutine()

	cancels := make([]func(), 0, 50)
	for i := 0; i < 50; i++ {
		_, cancel := b.Subscribe(context.Background(), 9)
		cancels = append(cancels, cancel)
	}
	assert.Equal(t, 50, b.Subscribers(9))

	for _, cancel := range cancels {
		cancel()
		cancel()
	}
	assert.Equal(t, 0, b.Subscribers(9))
	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before
	}, time.Second, 10*time.Millisecond)
}

func TestMemoryBrokerSlowSubscriberDoesNotBlock(t *testing.T) {
	b := NewMemoryBroker()
	ctx := context.Background()
	_, cancel := b.Subscribe(ctx, 3)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			_ = b.Publish(ctx, 3, Event{Type: EventCommentAdded, PostID: 3})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}
