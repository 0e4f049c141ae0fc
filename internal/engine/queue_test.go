package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameQueue_FIFO(t *testing.T) {
	q := newFrameQueue()
	for _, label := range []string{"a", "b", "c"} {
		require.True(t, q.Enqueue(Frame{Label: label}))
	}
	assert.Equal(t, 3, q.Len())

	for _, want := range []string{"a", "b", "c"} {
		f, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, want, f.Label)
	}
	_, ok := q.TryDequeue()
	assert.False(t, ok)
}

func TestFrameQueue_Close(t *testing.T) {
	q := newFrameQueue()
	require.True(t, q.Enqueue(Frame{Label: "queued"}))
	q.Close()
	q.Close()

	assert.False(t, q.Enqueue(Frame{Label: "late"}))
	assert.False(t, q.Drained(), "queued frames are still delivered")

	f, ok := q.TryDequeue()
	require.True(t, ok)
	assert.Equal(t, "queued", f.Label)
	assert.True(t, q.Drained())

	select {
	case <-q.Wait():
	case <-time.After(time.Second):
		t.Fatal("closed queue must wake waiters")
	}
}

func TestFrameQueue_SignalCoalesces(t *testing.T) {
	q := newFrameQueue()
	q.Enqueue(Frame{})
	q.Enqueue(Frame{})

	<-q.Wait()
	select {
	case <-q.Wait():
		t.Fatal("two enqueues should leave a single signal")
	default:
	}
	assert.Equal(t, 2, q.Len())
}
