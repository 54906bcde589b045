package engine

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietDispatcher(opts ...Option) *Dispatcher {
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return New(opts...)
}

func TestDispatcher_DrainRunsPostedTasksInOrder(t *testing.T) {
	d := quietDispatcher()

	var order []string
	d.Post(func() { order = append(order, "a") })
	d.Post(func() {
		order = append(order, "b")
		d.Post(func() { order = append(order, "d") })
	})
	d.Post(func() { order = append(order, "c") })

	n, err := d.Drain()
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []string{"a", "b", "c", "d"}, order, "follow-on posts run after earlier posts")
	assert.Equal(t, int64(4), d.Steps())
	assert.Equal(t, 0, d.Pending())
}

func TestDispatcher_DrainEmpty(t *testing.T) {
	d := quietDispatcher()

	n, err := d.Drain()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDispatcher_StepLimit(t *testing.T) {
	d := quietDispatcher(WithStepLimit(10))

	// A task that reposts itself forever
	var loop Task
	loop = func() { d.Post(loop) }
	d.Post(loop)

	n, err := d.Drain()
	require.Error(t, err)
	assert.True(t, IsStepLimitError(err))
	assert.Equal(t, 10, n)
	assert.Equal(t, 1, d.Pending(), "remaining task stays queued")

	var sle *StepLimitError
	require.ErrorAs(t, err, &sle)
	assert.Equal(t, 10, sle.Limit)
	assert.Contains(t, sle.Error(), "limit 10")
}

func TestDispatcher_StepLimitExactFit(t *testing.T) {
	d := quietDispatcher(WithStepLimit(3))
	for i := 0; i < 3; i++ {
		d.Post(func() {})
	}

	n, err := d.Drain()
	require.NoError(t, err, "limit reached with an empty queue is not an error")
	assert.Equal(t, 3, n)
}

func TestDispatcher_NoStepLimit(t *testing.T) {
	d := quietDispatcher(WithStepLimit(0))
	count := 0
	var task Task
	task = func() {
		count++
		if count < 500 {
			d.Post(task)
		}
	}
	d.Post(task)

	_, err := d.Drain()
	require.NoError(t, err)
	assert.Equal(t, 500, count)
}

func TestDispatcher_PostAfterStop(t *testing.T) {
	d := quietDispatcher()
	d.Stop()

	assert.False(t, d.Post(func() {}))
	assert.Zero(t, d.Pending())
}

func TestDispatcher_RunStopsOnCancel(t *testing.T) {
	d := quietDispatcher()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	d.Post(func() { close(done) })

	errCh := make(chan error, 1)
	go func() { errCh <- d.Run(ctx) }()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("posted task never ran")
	}
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestDispatcher_RunReturnsAfterStopAndDrain(t *testing.T) {
	d := quietDispatcher()
	ran := 0
	for i := 0; i < 5; i++ {
		d.Post(func() { ran++ })
	}
	d.Stop()

	require.NoError(t, d.Run(context.Background()))
	assert.Equal(t, 5, ran, "tasks queued before Stop still run")
}

func TestDispatcher_RunKeepsWaitingOnSpuriousSignal(t *testing.T) {
	d := quietDispatcher()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := make(chan struct{})
	second := make(chan struct{})
	d.Post(func() { close(first) })

	go func() { _ = d.Run(ctx) }()
	<-first

	// The signal from the first post may still be buffered; Run must not
	// mistake an empty open queue for shutdown.
	time.Sleep(10 * time.Millisecond)
	require.True(t, d.Post(func() { close(second) }))

	select {
	case <-second:
	case <-time.After(time.Second):
		t.Fatal("Run exited on an empty but open queue")
	}
}
