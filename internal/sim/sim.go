// Package sim is a small frame-loop simulation used by the framesim command
// to exercise the scheduler with realistic routine mixes.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/petrijr/framecoro"
	"github.com/petrijr/framecoro/internal/config"
)

// Result summarises a finished simulation.
type Result struct {
	Frames   int
	Elapsed  float64
	Metrics  framecoro.BasicMetricsSnapshot
	Totals   framecoro.StatisticsTotals
	Live     int
	Counters Counters
}

// Counters are incremented by the demo routines.
type Counters struct {
	Moves      int
	LateChecks int
	Blinks     int
	Announces  int
	Arrivals   int
}

type entity struct {
	name     string
	lifetime *framecoro.Lifetime
	x        float64
}

type world struct {
	cfg      config.SimulationConfig
	logger   *slog.Logger
	entities []*entity
	counters Counters
	frame    int
	gateOpen bool
	done     chan struct{}
	elapsed  float64
}

// Run simulates cfg.Frames frames. Statistics, when non-nil, observes the
// scheduler alongside the built-in metrics.
func Run(ctx context.Context, cfg config.SimulationConfig, st *framecoro.Statistics, logger *slog.Logger) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	metrics := &framecoro.BasicMetrics{}
	opts := []framecoro.Option{
		framecoro.WithPredicate(framecoro.ConditionPredicate),
		framecoro.WithObserver(metrics),
		framecoro.WithObserver(framecoro.NewLoggingObserver(logger)),
		framecoro.WithLogger(logger),
	}
	if st != nil {
		opts = append(opts, framecoro.WithObserver(st))
	}
	sched := framecoro.NewScheduler(opts...)

	w := &world{cfg: cfg, logger: logger, done: make(chan struct{})}

	if cfg.Realtime {
		if err := w.runRealtime(ctx, sched); err != nil {
			return Result{}, err
		}
	} else {
		if err := w.populate(sched); err != nil {
			return Result{}, err
		}
		for i := 0; i < cfg.Frames; i++ {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}
			sched.Frame(cfg.DeltaTime)
			w.elapsed += cfg.DeltaTime
		}
	}

	res := Result{
		Frames:   w.frame,
		Elapsed:  w.elapsed,
		Metrics:  metrics.Snapshot(),
		Live:     sched.Len(),
		Counters: w.counters,
	}
	if st != nil {
		res.Totals = st.Totals()
	}
	return res, nil
}

func (w *world) runRealtime(ctx context.Context, sched *framecoro.Scheduler) error {
	runner := framecoro.NewRunner(sched, w.cfg.FrameInterval, w.logger)

	populated := make(chan error, 1)
	if err := runner.Post(ctx, func(s *framecoro.Scheduler) { populated <- w.populate(s) }); err != nil {
		return err
	}
	started := time.Now()
	if err := runner.Start(ctx); err != nil {
		return err
	}
	defer func() {
		runner.Stop()
		w.elapsed = time.Since(started).Seconds()
	}()

	select {
	case err := <-populated:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	if w.cfg.Frames == 0 {
		return nil
	}
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// populate starts the director and every entity's routines. It must run on
// the frame goroutine.
func (w *world) populate(sched *framecoro.Scheduler) error {
	if _, err := sched.Start(w.director(sched), nil); err != nil {
		return fmt.Errorf("start director: %w", err)
	}
	if _, err := sched.Start(w.announcer(), nil); err != nil {
		return fmt.Errorf("start announcer: %w", err)
	}

	for i := range w.cfg.Entities {
		e := &entity{name: fmt.Sprintf("entity-%d", i), lifetime: framecoro.NewLifetime()}
		w.entities = append(w.entities, e)

		owner := e.lifetime.Ref()
		for _, steps := range []framecoro.Steps{w.patrol(e), w.lateUpdate(e), w.blink(e), w.arrive(e)} {
			if _, err := sched.Start(steps, owner); err != nil {
				return fmt.Errorf("start routine for %s: %w", e.name, err)
			}
		}
	}
	return nil
}

// director advances the frame counter every primary update and drives the
// scripted world events.
func (w *world) director(sched *framecoro.Scheduler) framecoro.Steps {
	return framecoro.FromSeq(func(yield func(any) bool) {
		for {
			if !yield(nil) {
				return
			}
			w.frame++

			if w.frame == w.cfg.DespawnAfter/2 && len(w.entities) > 0 {
				// Entity 0 keeps existing but loses its routines.
				sched.StopAll(w.entities[0].lifetime.Ref())
				w.logger.Info("entity routines stopped", slog.String("entity", w.entities[0].name))
			}
			if w.frame == w.cfg.DespawnAfter {
				for i, e := range w.entities {
					if i%2 == 1 {
						e.lifetime.Destroy()
						w.logger.Info("entity despawned", slog.String("entity", e.name))
					}
				}
				w.gateOpen = true
			}
			if w.frame == w.cfg.Frames {
				close(w.done)
			}
		}
	})
}

func (w *world) announcer() framecoro.Steps {
	return framecoro.FromSeq(func(yield func(any) bool) {
		for {
			if !yield(framecoro.MustWaitSeconds(1)) {
				return
			}
			w.counters.Announces++
			w.logger.Debug("second elapsed", slog.Int("frame", w.frame))
		}
	})
}

func (w *world) patrol(e *entity) framecoro.Steps {
	step := framecoro.NewScript().
		Do(func() {
			e.x += 1
			w.counters.Moves++
		}).
		WaitSeconds(0.25)
	return framecoro.While(e.lifetime.Alive, func() framecoro.Steps { return step.Steps() })
}

func (w *world) lateUpdate(e *entity) framecoro.Steps {
	return framecoro.FromSeq(func(yield func(any) bool) {
		for yield(framecoro.EndOfUpdateWait()) {
			w.counters.LateChecks++
		}
	})
}

func (w *world) blink(e *entity) framecoro.Steps {
	return framecoro.Repeat(3, func() framecoro.Steps {
		return framecoro.NewScript().
			WaitEndOfFrame().
			Do(func() { w.counters.Blinks++ }).
			WaitSeconds(0.5).
			Steps()
	})
}

func (w *world) arrive(e *entity) framecoro.Steps {
	return framecoro.NewScript().
		WaitUntil(func() bool { return w.gateOpen }).
		Do(func() {
			w.counters.Arrivals++
			w.logger.Info("entity through the gate", slog.String("entity", e.name))
		}).
		Steps()
}

// Elapsed formats a simulated duration for display.
func Elapsed(seconds float64) string {
	return time.Duration(seconds * float64(time.Second)).Round(time.Millisecond).String()
}
