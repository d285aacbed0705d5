package taskqueue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryQueue is a Queue backed by a buffered channel.
// It is safe for concurrent use.
type InMemoryQueue struct {
	ch chan Task

	// Enqueue holds gate for reading; Close takes it for writing so no
	// enqueue completes after Close returns.
	gate      sync.RWMutex
	closeOnce sync.Once
	closed    chan struct{}
}

// NewInMemoryQueue creates a new queue with the given capacity.
// A non-positive capacity means 1024.
func NewInMemoryQueue(capacity int) *InMemoryQueue {
	if capacity <= 0 {
		capacity = 1024
	}
	return &InMemoryQueue{
		ch:     make(chan Task, capacity),
		closed: make(chan struct{}),
	}
}

// Ensure InMemoryQueue implements Queue.
var _ Queue = (*InMemoryQueue)(nil)

// Enqueue blocks while the queue is full. Tasks without an ID get a fresh
// UUID and tasks without EnqueuedAt are stamped with the current time.
func (q *InMemoryQueue) Enqueue(ctx context.Context, t Task) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.EnqueuedAt.IsZero() {
		t.EnqueuedAt = time.Now()
	}

	q.gate.RLock()
	defer q.gate.RUnlock()

	select {
	case <-q.closed:
		return ErrClosed
	default:
	}

	select {
	case q.ch <- t:
		return nil
	case <-q.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *InMemoryQueue) Dequeue(ctx context.Context) (*Task, error) {
	select {
	case t := <-q.ch:
		return &t, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *InMemoryQueue) TryDequeue() (*Task, bool) {
	select {
	case t := <-q.ch:
		return &t, true
	default:
		return nil, false
	}
}

func (q *InMemoryQueue) Len() int {
	return len(q.ch)
}

// Close rejects further enqueues and wakes enqueuers blocked on a full
// queue. Once it returns, the queued tasks are final: they can still be
// dequeued, and nothing new will be added.
func (q *InMemoryQueue) Close() {
	q.closeOnce.Do(func() { close(q.closed) })
	q.gate.Lock()
	defer q.gate.Unlock()
}
