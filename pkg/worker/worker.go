package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/petrijr/framecoro/internal/engine"
	"github.com/petrijr/framecoro/internal/taskqueue"
	"github.com/petrijr/framecoro/pkg/api"
)

// PostPayload is the payload for a "post" task.
type PostPayload struct {
	Fn func(s *engine.Scheduler)
}

// StartPayload is the payload for a "start" task.
type StartPayload struct {
	Steps api.Steps
	Owner api.Owner

	// Result receives exactly one StartResult. It must be buffered.
	Result chan<- StartResult
}

// StartResult reports the outcome of an asynchronous start.
type StartResult struct {
	Routine *engine.Routine
	Err     error
}

// StopPayload is the payload for a "stop" task.
type StopPayload struct {
	Routine *engine.Routine
}

// StopAllPayload is the payload for a "stop-all" task.
type StopAllPayload struct {
	Owner api.Owner
}

// Worker pulls tasks from a Queue and applies them to a Scheduler.
type Worker struct {
	sched  *engine.Scheduler
	queue  taskqueue.Queue
	logger *slog.Logger
}

// New creates a new Worker. A nil logger means slog.Default().
func New(sched *engine.Scheduler, queue taskqueue.Queue, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		sched:  sched,
		queue:  queue,
		logger: logger.With("component", "worker"),
	}
}

// EnqueuePost enqueues fn to run on the frame goroutine.
func (w *Worker) EnqueuePost(ctx context.Context, fn func(s *engine.Scheduler)) error {
	if fn == nil {
		return fmt.Errorf("post: nil function: %w", api.ErrInvalidArgument)
	}
	return w.queue.Enqueue(ctx, taskqueue.Task{
		Type:       taskqueue.TaskTypePost,
		Payload:    PostPayload{Fn: fn},
		EnqueuedAt: time.Now(),
	})
}

// EnqueueStart enqueues a routine start. The returned channel receives the
// handle, or the start error, once the task has been processed.
func (w *Worker) EnqueueStart(ctx context.Context, steps api.Steps, owner api.Owner) (<-chan StartResult, error) {
	if steps == nil {
		return nil, api.ErrNilSteps
	}
	result := make(chan StartResult, 1)
	err := w.queue.Enqueue(ctx, taskqueue.Task{
		Type: taskqueue.TaskTypeStart,
		Payload: StartPayload{
			Steps:  steps,
			Owner:  owner,
			Result: result,
		},
		EnqueuedAt: time.Now(),
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// EnqueueStop enqueues a Stop of r.
func (w *Worker) EnqueueStop(ctx context.Context, r *engine.Routine) error {
	return w.queue.Enqueue(ctx, taskqueue.Task{
		Type:       taskqueue.TaskTypeStop,
		Payload:    StopPayload{Routine: r},
		EnqueuedAt: time.Now(),
	})
}

// EnqueueStopAll enqueues a StopAll for owner.
func (w *Worker) EnqueueStopAll(ctx context.Context, owner api.Owner) error {
	return w.queue.Enqueue(ctx, taskqueue.Task{
		Type:       taskqueue.TaskTypeStopAll,
		Payload:    StopAllPayload{Owner: owner},
		EnqueuedAt: time.Now(),
	})
}

// ProcessOne pulls a single task from the queue and applies it, blocking
// until a task is available or ctx is done.
// Returns (processed, error):
//   - processed == false: no task was obtained; err is the context error.
//   - processed == true: a task was applied; err reports a bad task.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	task, err := w.queue.Dequeue(ctx)
	if err != nil {
		return false, err
	}
	if task == nil {
		return false, nil
	}
	return true, w.process(task)
}

// ProcessPending applies every task currently queued without blocking and
// returns the joined errors of the tasks that failed. Tasks enqueued while
// it runs may or may not be applied in the same call.
func (w *Worker) ProcessPending() error {
	var errs []error
	for {
		task, ok := w.queue.TryDequeue()
		if !ok {
			return errors.Join(errs...)
		}
		if err := w.process(task); err != nil {
			w.logger.Warn("scheduler task failed",
				slog.String("task_id", task.ID),
				slog.String("task_type", string(task.Type)),
				slog.Any("error", err),
			)
			errs = append(errs, err)
		}
	}
}

// Discard empties the queue without touching the scheduler. Each pending
// start reports reason on its result channel and has its steps released.
// It returns the number of tasks dropped. Close the queue first so nothing
// slips in behind the drain.
func (w *Worker) Discard(reason error) int {
	n := 0
	for {
		task, ok := w.queue.TryDequeue()
		if !ok {
			break
		}
		n++
		if payload, ok := task.Payload.(StartPayload); ok {
			if rel, ok := payload.Steps.(api.Releaser); ok {
				rel.Release()
			}
			if payload.Result != nil {
				payload.Result <- StartResult{Err: reason}
			}
		}
	}
	if n > 0 {
		w.logger.Debug("discarded pending scheduler tasks",
			slog.Int("count", n),
			slog.Any("reason", reason),
		)
	}
	return n
}

func (w *Worker) process(task *taskqueue.Task) error {
	switch task.Type {
	case taskqueue.TaskTypePost:
		payload, ok := task.Payload.(PostPayload)
		if !ok || payload.Fn == nil {
			return errors.New("invalid payload type for post task")
		}
		payload.Fn(w.sched)
		return nil

	case taskqueue.TaskTypeStart:
		payload, ok := task.Payload.(StartPayload)
		if !ok {
			return errors.New("invalid payload type for start task")
		}
		r, err := w.sched.Start(payload.Steps, payload.Owner)
		if payload.Result != nil {
			payload.Result <- StartResult{Routine: r, Err: err}
		}
		// ErrRoutineExhausted is a normal outcome, not a task failure.
		if err != nil && !errors.Is(err, api.ErrRoutineExhausted) {
			return err
		}
		return nil

	case taskqueue.TaskTypeStop:
		payload, ok := task.Payload.(StopPayload)
		if !ok {
			return errors.New("invalid payload type for stop task")
		}
		w.sched.Stop(payload.Routine)
		return nil

	case taskqueue.TaskTypeStopAll:
		payload, ok := task.Payload.(StopAllPayload)
		if !ok {
			return errors.New("invalid payload type for stop-all task")
		}
		w.sched.StopAll(payload.Owner)
		return nil

	default:
		return errors.New("unknown task type: " + string(task.Type))
	}
}
