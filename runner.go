package framecoro

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/petrijr/framecoro/internal/taskqueue"
	"github.com/petrijr/framecoro/pkg/worker"
)

// StartResult reports the outcome of Runner.StartAsync.
type StartResult = worker.StartResult

// ErrRunnerStopped is returned for commands sent to a stopped Runner and
// reported to starts that were still queued when it stopped.
var ErrRunnerStopped = errors.New("framecoro: runner stopped")

// DefaultFrameInterval is the tick period used when a Runner is created
// with a non-positive interval (60 frames per second).
const DefaultFrameInterval = time.Second / 60

// Runner drives a Scheduler from its own goroutine on a fixed tick, for
// programs that do not already have a frame loop (tools, servers, tests).
//
// The Scheduler itself stays single-threaded: other goroutines reach it only
// through Post, StartAsync, StopAsync and StopAllAsync, which queue commands
// applied at the start of the next frame. Routine handles returned by
// StartAsync belong to the frame goroutine too: call their methods (Pause,
// Resume, IsNull and so on) from a Post callback.
//
// Typical usage:
//
//	sched := framecoro.NewScheduler()
//	runner := framecoro.NewRunner(sched, 16*time.Millisecond, nil)
//	_ = runner.Start(ctx)
//	defer runner.Stop()
//
//	results, _ := runner.StartAsync(ctx, script.Steps(), nil)
type Runner struct {
	// Scheduler is driven by the runner goroutine. Do not call it directly
	// while the runner is started.
	Scheduler *Scheduler

	// Worker applies queued commands to Scheduler.
	Worker *worker.Worker

	queue    *taskqueue.InMemoryQueue
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	stopped bool
	frames  uint64
}

// NewRunner constructs a Runner for sched ticking every interval. A nil
// logger means slog.Default().
func NewRunner(sched *Scheduler, interval time.Duration, logger *slog.Logger) *Runner {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	q := taskqueue.NewInMemoryQueue(1024)
	return &Runner{
		Scheduler: sched,
		Worker:    worker.New(sched, q, logger),
		queue:     q,
		interval:  interval,
		logger:    logger.With("component", "runner"),
	}
}

// Start launches the frame goroutine. It runs until ctx is done or Stop is
// called. Starting a running Runner returns an error, and a stopped Runner
// cannot be restarted.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return ErrRunnerStopped
	}
	if r.running {
		return errors.New("framecoro: Runner already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.running = true

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.loop(ctx)
	}()
	return nil
}

// Stop cancels the frame goroutine and waits for it to exit. Commands still
// queued are dropped; pending StartAsync calls receive ErrRunnerStopped.
// Later commands fail with ErrRunnerStopped. Stop may be called on a Runner
// that was never started.
func (r *Runner) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	cancel := r.cancel
	r.stopped = true
	r.running = false
	r.cancel = nil
	r.mu.Unlock()

	r.queue.Close()
	if cancel != nil {
		cancel()
	}
	r.wg.Wait()
	r.Worker.Discard(ErrRunnerStopped)
}

// Frames returns the number of frames run so far.
func (r *Runner) Frames() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Post queues fn to run on the frame goroutine before the next frame.
func (r *Runner) Post(ctx context.Context, fn func(s *Scheduler)) error {
	return stoppedErr(r.Worker.EnqueuePost(ctx, fn))
}

// StartAsync queues a routine start. The channel receives exactly one
// result: the outcome once the frame goroutine has applied it, or
// ErrRunnerStopped if the Runner stops first.
func (r *Runner) StartAsync(ctx context.Context, steps Steps, owner Owner) (<-chan StartResult, error) {
	results, err := r.Worker.EnqueueStart(ctx, steps, owner)
	return results, stoppedErr(err)
}

// StopAsync queues a Stop of routine.
func (r *Runner) StopAsync(ctx context.Context, routine *Routine) error {
	return stoppedErr(r.Worker.EnqueueStop(ctx, routine))
}

// StopAllAsync queues a StopAll for owner.
func (r *Runner) StopAllAsync(ctx context.Context, owner Owner) error {
	return stoppedErr(r.Worker.EnqueueStopAll(ctx, owner))
}

func stoppedErr(err error) error {
	if errors.Is(err, taskqueue.ErrClosed) {
		return ErrRunnerStopped
	}
	return err
}

func (r *Runner) loop(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			r.frame(dt)
		}
	}
}

func (r *Runner) frame(dt float64) {
	// Task errors are logged by the worker; the frame still runs.
	_ = r.Worker.ProcessPending()
	r.Scheduler.Frame(dt)

	r.mu.Lock()
	r.frames++
	r.mu.Unlock()
}
