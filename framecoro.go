package framecoro

import (
	"log/slog"

	"github.com/petrijr/framecoro/internal/engine"
	"github.com/petrijr/framecoro/internal/persistence"
	"github.com/petrijr/framecoro/internal/stats"
	"github.com/petrijr/framecoro/pkg/api"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Scheduler            = engine.Scheduler
	Routine              = engine.Routine
	Wait                 = api.Wait
	WaitKind             = api.WaitKind
	PhaseBoundary        = api.PhaseBoundary
	Steps                = api.Steps
	Releaser             = api.Releaser
	Owner                = api.Owner
	Lifetime             = api.Lifetime
	OwnerRef             = api.OwnerRef
	Predicate            = api.Predicate
	Condition            = api.Condition
	Phase                = api.Phase
	StopReason           = api.StopReason
	RoutineInfo          = api.RoutineInfo
	RoutineEvent         = api.RoutineEvent
	EventType            = api.EventType
	Observer             = api.Observer
	LoggingObserver      = api.LoggingObserver
	BasicMetrics         = api.BasicMetrics
	BasicMetricsSnapshot = api.BasicMetricsSnapshot
	CompositeObserver    = api.CompositeObserver
	NoopObserver         = api.NoopObserver
	Statistics           = stats.Statistics
	StatisticsTotals     = stats.Totals
)

// Re-export constructors and helpers.

var (
	NewWait              = api.NewWait
	WaitSeconds          = api.WaitSeconds
	MustWait             = api.MustWait
	MustWaitSeconds      = api.MustWaitSeconds
	EndOfUpdateWait      = api.EndOfUpdateWait
	EndOfFrameWait       = api.EndOfFrameWait
	FromSeq              = api.FromSeq
	FromFunc             = api.FromFunc
	FromValues           = api.FromValues
	NewLifetime          = api.NewLifetime
	WaitUntil            = api.WaitUntil
	WaitWhile            = api.WaitWhile
	ConditionPredicate   = api.ConditionPredicate
	ChainPredicates      = api.ChainPredicates
	NewLoggingObserver   = api.NewLoggingObserver
	NewCompositeObserver = api.NewCompositeObserver
)

// Re-export enum values for convenience.

const (
	EndOfUpdate = api.EndOfUpdate
	EndOfFrame  = api.EndOfFrame

	WaitEndOfUpdate = api.WaitEndOfUpdate
	WaitEndOfFrame  = api.WaitEndOfFrame
	WaitTimed       = api.WaitTimed

	PhaseStart           = api.PhaseStart
	PhasePrimaryUpdate   = api.PhasePrimaryUpdate
	PhaseSecondaryUpdate = api.PhaseSecondaryUpdate
	PhasePostRender      = api.PhasePostRender

	StopCompleted = api.StopCompleted
	StopRequested = api.StopRequested
	StopOrphaned  = api.StopOrphaned

	EventRoutineStarted   = api.EventRoutineStarted
	EventRoutineCompleted = api.EventRoutineCompleted
	EventRoutineStopped   = api.EventRoutineStopped
	EventRoutineOrphaned  = api.EventRoutineOrphaned
)

// Re-export sentinel errors.

var (
	ErrInvalidArgument       = api.ErrInvalidArgument
	ErrNilSteps              = api.ErrNilSteps
	ErrRoutineExhausted      = api.ErrRoutineExhausted
	ErrDuplicateRegistration = api.ErrDuplicateRegistration
)

// Option configures a Scheduler built by NewScheduler.
type Option func(*engine.Config)

// WithPredicate sets the predicate used for suspension values that are not
// Wait instructions. Several predicates can be combined with
// ChainPredicates.
func WithPredicate(p Predicate) Option {
	return func(c *engine.Config) {
		c.Predicate = p
	}
}

// WithObserver adds an observer. Repeated calls fan out to every observer in
// the order given.
func WithObserver(obs Observer) Option {
	return func(c *engine.Config) {
		c.Observer = api.NewCompositeObserver(c.Observer, obs)
	}
}

// WithLogger sets the logger used for scheduler warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *engine.Config) {
		c.Logger = logger
	}
}

// NewScheduler returns an empty Scheduler.
//
//	sched := framecoro.NewScheduler(
//	    framecoro.WithPredicate(framecoro.ConditionPredicate),
//	    framecoro.WithObserver(metrics),
//	)
func NewScheduler(opts ...Option) *Scheduler {
	var cfg engine.Config
	for _, opt := range opts {
		opt(&cfg)
	}
	return engine.New(cfg)
}

// NewStatistics returns statistics kept in memory, including event history.
// Pass it to WithObserver to track a scheduler's routines.
func NewStatistics(logger *slog.Logger) *Statistics {
	return stats.New(persistence.NewInMemory(), logger)
}
