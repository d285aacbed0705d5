package api

import (
	"log/slog"
	"sync/atomic"
)

// Observer receives routine lifecycle callbacks from the scheduler.
//
// Callbacks run synchronously on the frame goroutine; implementations should
// be fast and must not call back into the scheduler's phase entry points.
type Observer interface {
	// OnRoutineStarted is called once a routine has been admitted into the
	// live set.
	OnRoutineStarted(info RoutineInfo)

	// OnRoutineResumed is called after each advance that left the routine
	// suspended again.
	OnRoutineResumed(info RoutineInfo, phase Phase)

	// OnRoutineStopped is called when a routine is evicted from the live set.
	OnRoutineStopped(info RoutineInfo, reason StopReason)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnRoutineStarted(info RoutineInfo)                    {}
func (NoopObserver) OnRoutineResumed(info RoutineInfo, phase Phase)       {}
func (NoopObserver) OnRoutineStopped(info RoutineInfo, reason StopReason) {}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnRoutineStarted(info RoutineInfo) {
	for _, o := range c.observers {
		o.OnRoutineStarted(info)
	}
}

func (c *CompositeObserver) OnRoutineResumed(info RoutineInfo, phase Phase) {
	for _, o := range c.observers {
		o.OnRoutineResumed(info, phase)
	}
}

func (c *CompositeObserver) OnRoutineStopped(info RoutineInfo, reason StopReason) {
	for _, o := range c.observers {
		o.OnRoutineStopped(info, reason)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs routine lifecycle events
// using the provided slog.Logger. If logger is nil, slog.Default() is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnRoutineStarted(info RoutineInfo) {
	o.Logger.Info("routine_started",
		slog.String("routine_id", info.ID),
		slog.Bool("standalone", info.Standalone),
	)
}

func (o *LoggingObserver) OnRoutineResumed(info RoutineInfo, phase Phase) {
	o.Logger.Debug("routine_resumed",
		slog.String("routine_id", info.ID),
		slog.String("phase", string(phase)),
	)
}

func (o *LoggingObserver) OnRoutineStopped(info RoutineInfo, reason StopReason) {
	o.Logger.Info("routine_stopped",
		slog.String("routine_id", info.ID),
		slog.String("reason", string(reason)),
	)
}

// BasicMetrics collects simple routine counters.
// It implements Observer, and can be combined with LoggingObserver via
// NewCompositeObserver.
type BasicMetrics struct {
	NoopObserver

	started   atomic.Int64
	completed atomic.Int64
	stopped   atomic.Int64
	orphaned  atomic.Int64
	resumes   atomic.Int64
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	RoutinesStarted   int64
	RoutinesCompleted int64
	RoutinesStopped   int64
	RoutinesOrphaned  int64
	LiveRoutines      int64

	Resumes int64
}

func (m *BasicMetrics) OnRoutineStarted(info RoutineInfo) {
	m.started.Add(1)
}

func (m *BasicMetrics) OnRoutineResumed(info RoutineInfo, phase Phase) {
	m.resumes.Add(1)
}

func (m *BasicMetrics) OnRoutineStopped(info RoutineInfo, reason StopReason) {
	switch reason {
	case StopCompleted:
		m.completed.Add(1)
	case StopOrphaned:
		m.orphaned.Add(1)
	default:
		m.stopped.Add(1)
	}
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	started := m.started.Load()
	completed := m.completed.Load()
	stopped := m.stopped.Load()
	orphaned := m.orphaned.Load()

	return BasicMetricsSnapshot{
		RoutinesStarted:   started,
		RoutinesCompleted: completed,
		RoutinesStopped:   stopped,
		RoutinesOrphaned:  orphaned,
		LiveRoutines:      started - completed - stopped - orphaned,
		Resumes:           m.resumes.Load(),
	}
}
