package engine

import "sync"

// Frame is a batch of host or cell updates to apply before a pass, e.g. the
// effects of one input event. Apply runs on the update goroutine, so it may
// touch the world and the cell store freely.
type Frame struct {
	Label string
	Apply func() error
}

// frameQueue is an unbounded FIFO of frames. Enqueue is safe from any
// goroutine; only the Run loop dequeues.
//
// A buffered signal channel lets Run wait on the queue and on ctx.Done() in
// the same select.
type frameQueue struct {
	mu     sync.Mutex
	frames []Frame
	closed bool
	signal chan struct{} // buffered, size 1
}

func newFrameQueue() *frameQueue {
	return &frameQueue{
		frames: make([]Frame, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue appends f. It returns false once the queue is closed.
func (q *frameQueue) Enqueue(f Frame) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.frames = append(q.frames, f)

	// Coalesce: one pending signal is enough.
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue pops the front frame without blocking.
func (q *frameQueue) TryDequeue() (Frame, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.frames) == 0 {
		return Frame{}, false
	}
	f := q.frames[0]
	// Drop the closure reference so the backing array does not retain it.
	q.frames[0] = Frame{}
	if len(q.frames) == 1 {
		q.frames = q.frames[:0]
	} else {
		q.frames = q.frames[1:]
	}
	return f, true
}

// Wait returns a channel that fires when frames may be available, and is
// closed by Close.
func (q *frameQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of queued frames.
func (q *frameQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.frames)
}

// Drained reports whether the queue is closed and empty.
func (q *frameQueue) Drained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.frames) == 0
}

// Close stops accepting frames and wakes the waiter. Frames already queued
// are still delivered.
func (q *frameQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
