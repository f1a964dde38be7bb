package bus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriberReceivesValuesInPublishOrder(t *testing.T) {
	b := New[int](5)
	sub := b.Subscribe()

	for i := 1; i <= 3; i++ {
		n, err := b.Send(i)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	}

	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		v, err := sub.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
}

func TestEverySubscriberGetsEveryValue(t *testing.T) {
	b := New[string](5)
	first := b.Subscribe()
	second := b.Subscribe()

	n, err := b.Send("pulse")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ctx := context.Background()
	v1, err := first.Recv(ctx)
	require.NoError(t, err)
	v2, err := second.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "pulse", v1)
	assert.Equal(t, "pulse", v2)
}

func TestSubscriberOnlySeesValuesAfterSubscription(t *testing.T) {
	b := New[int](5)
	_, err := b.Send(1)
	require.NoError(t, err)

	sub := b.Subscribe()
	_, err = b.Send(2)
	require.NoError(t, err)

	v, err := sub.Recv(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestSlowSubscriberIsToldAboutTheLag(t *testing.T) {
	b := New[int](2)
	sub := b.Subscribe()

	for i := 0; i < 5; i++ {
		_, err := b.Send(i)
		require.NoError(t, err)
	}

	_, err := sub.Recv(context.Background())
	var lag *LagError
	require.ErrorAs(t, err, &lag)
	assert.Equal(t, uint64(3), lag.Skipped)

	// After the notification the subscriber resumes from the oldest
	// retained value.
	v, err := sub.Recv(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestSendNeverBlocksOnFullSubscriber(t *testing.T) {
	b := New[int](1)
	_ = b.Subscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			_, _ = b.Send(i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Send blocked on a full subscriber")
	}
}

func TestRecvHonoursContextCancellation(t *testing.T) {
	b := New[int](5)
	sub := b.Subscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := sub.Recv(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClosedBroadcasterDrainsThenReportsClosed(t *testing.T) {
	b := New[int](5)
	sub := b.Subscribe()

	_, err := b.Send(7)
	require.NoError(t, err)
	b.Close()

	v, err := sub.Recv(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	_, err = sub.Recv(context.Background())
	require.ErrorIs(t, err, ErrClosed)

	_, err = b.Send(8)
	require.ErrorIs(t, err, ErrClosed)
}

func TestCancelRemovesSubscriber(t *testing.T) {
	b := New[int](5)
	sub := b.Subscribe()
	keep := b.Subscribe()

	require.Equal(t, 2, b.SubscriberCount())
	sub.Cancel()
	require.Equal(t, 1, b.SubscriberCount())

	n, err := b.Send(1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = sub.Recv(context.Background())
	assert.ErrorIs(t, err, ErrClosed)

	v, err := keep.Recv(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestSubscribeAfterCloseIsImmediatelyClosed(t *testing.T) {
	b := New[int](5)
	b.Close()

	sub := b.Subscribe()
	_, err := sub.Recv(context.Background())
	require.True(t, errors.Is(err, ErrClosed))
}
