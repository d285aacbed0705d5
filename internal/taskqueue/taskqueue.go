// Package taskqueue carries scheduler commands from arbitrary goroutines to
// the goroutine that runs the frame loop.
package taskqueue

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned by Enqueue after the queue has been closed.
var ErrClosed = errors.New("taskqueue: queue closed")

// TaskType identifies what the frame goroutine should do with a task.
type TaskType string

const (
	TaskTypePost    TaskType = "post"
	TaskTypeStart   TaskType = "start"
	TaskTypeStop    TaskType = "stop"
	TaskTypeStopAll TaskType = "stop-all"
)

// Task is a single command for the frame goroutine.
type Task struct {
	ID   string
	Type TaskType

	// Payload is task-type specific; see pkg/worker for the payload types.
	Payload any

	EnqueuedAt time.Time
}

// Queue is a FIFO of tasks.
type Queue interface {
	// Enqueue adds a task to the queue. It should respect ctx for cancellation.
	Enqueue(ctx context.Context, t Task) error

	// Dequeue removes and returns the next task, blocking until one is
	// available or the context is cancelled.
	Dequeue(ctx context.Context) (*Task, error)

	// TryDequeue removes and returns the next task without blocking.
	TryDequeue() (*Task, bool)

	// Len returns the approximate number of tasks queued.
	Len() int
}
