package engine

import (
	"log/slog"
	"math"

	"github.com/petrijr/framecoro/pkg/api"
)

// Config describes how to construct a Scheduler.
type Config struct {
	// Predicate classifies suspension values that are neither nil nor a
	// Wait. Nil means such values never block.
	Predicate api.Predicate

	// Observer receives lifecycle callbacks. Nil means api.NoopObserver.
	Observer api.Observer

	// Logger is used for scheduler warnings. Nil means slog.Default().
	Logger *slog.Logger
}

// Scheduler drives routines across the phases of a host frame loop.
//
// A Scheduler is not safe for concurrent use: Start, Stop, StopAll and the
// phase entry points must all be called from the goroutine that runs the
// frame loop. Routine code may call back into Start, Stop and StopAll while
// it is being advanced.
type Scheduler struct {
	routines  []*Routine
	predicate api.Predicate
	observer  api.Observer
	logger    *slog.Logger

	inPass bool
	// tombstones marks that evicted slots are waiting for compaction.
	tombstones bool
}

// New creates an empty Scheduler.
func New(cfg Config) *Scheduler {
	obs := cfg.Observer
	if obs == nil {
		obs = api.NoopObserver{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		predicate: cfg.Predicate,
		observer:  obs,
		logger:    logger.With("component", "scheduler"),
	}
}

// Start creates a routine for steps and advances it once immediately.
//
// A nil owner makes the routine standalone. If the sequence is exhausted on
// that first advance, Start returns ErrRoutineExhausted and nothing is added
// to the live set. Otherwise the routine is admitted whatever it yielded: a
// phase-boundary wait is picked up later in the same frame, a timed wait
// starts its clock on the next primary update, and the Predicate's verdict
// on a custom value only gates later passes.
func (s *Scheduler) Start(steps api.Steps, owner api.Owner) (*Routine, error) {
	r, err := newRoutine(steps, owner)
	if err != nil {
		return nil, err
	}
	r.provenance = captureProvenance(1)

	if !r.advance() {
		r.erase()
		return nil, api.ErrRoutineExhausted
	}

	switch v := r.current().(type) {
	case nil:
	case api.Wait:
		if v.Kind() == api.WaitTimed && timedRemaining(r, v) < 0 {
			// Unreachable for waits built by WaitSeconds.
			s.logger.Warn("timed wait already overdue at start",
				slog.String("routine_id", r.id),
				slog.Float64("seconds", v.Seconds()),
			)
		}
	default:
		if s.predicate != nil && s.predicate(v) {
			s.logger.Debug("routine starts blocked on predicate",
				slog.String("routine_id", r.id),
			)
		}
	}

	s.routines = append(s.routines, r)
	s.observer.OnRoutineStarted(r.info())
	return r, nil
}

// Stop clears the routine's step sequence and owner. The routine stays in
// the live set until the next pass evicts it. Stopping a nil or already
// cleared handle is a no-op.
func (s *Scheduler) Stop(r *Routine) {
	if r.IsNull() {
		return
	}
	r.stopRequested = true
	r.erase()
}

// StopAll stops every routine owned by owner. Standalone routines are never
// matched, and a nil owner matches nothing.
func (s *Scheduler) StopAll(owner api.Owner) {
	if owner == nil {
		return
	}
	for _, r := range s.routines {
		if r == nil || r.standalone || r.owner == nil {
			continue
		}
		if sameValue(r.owner, owner) {
			s.Stop(r)
		}
	}
}

// OnPrimaryUpdate runs the primary update pass. deltaTime is the time in
// seconds since the previous call; negative values are treated as 0.
func (s *Scheduler) OnPrimaryUpdate(deltaTime float64) {
	if !s.beginPass(api.PhasePrimaryUpdate) {
		return
	}
	defer s.endPass()

	if deltaTime < 0 || math.IsNaN(deltaTime) {
		s.logger.Warn("invalid delta time clamped to zero", slog.Float64("delta_time", deltaTime))
		deltaTime = 0
	}

	// Routines started while the pass runs are appended past n and wait for
	// the next pass.
	n := len(s.routines)
	for i := 0; i < n; i++ {
		r := s.routines[i]
		if r == nil {
			continue
		}
		if !r.alive() {
			s.evict(i, r.stopReason())
			continue
		}
		if r.paused {
			continue
		}
		if !s.dueForPrimary(r, deltaTime) {
			continue
		}
		s.step(i, r, api.PhasePrimaryUpdate)
	}
}

// OnSecondaryUpdate runs the end-of-update pass. Dead routines are evicted;
// of the live ones only those flagged as waiting for the end of the update
// are considered.
func (s *Scheduler) OnSecondaryUpdate() {
	s.boundaryPass(api.PhaseSecondaryUpdate, api.WaitEndOfUpdate)
}

// OnPostRender runs the end-of-frame pass. Dead routines are evicted; of the
// live ones only those flagged as waiting for the end of the frame are
// considered.
func (s *Scheduler) OnPostRender() {
	s.boundaryPass(api.PhasePostRender, api.WaitEndOfFrame)
}

// Frame runs the three passes of one frame in order.
func (s *Scheduler) Frame(deltaTime float64) {
	s.OnPrimaryUpdate(deltaTime)
	s.OnSecondaryUpdate()
	s.OnPostRender()
}

// Len returns the number of routines in the live set, including stopped
// routines that have not been evicted yet.
func (s *Scheduler) Len() int {
	n := 0
	for _, r := range s.routines {
		if r != nil {
			n++
		}
	}
	return n
}

// Contains reports whether r is in the live set.
func (s *Scheduler) Contains(r *Routine) bool {
	if r == nil {
		return false
	}
	for _, live := range s.routines {
		if live == r {
			return true
		}
	}
	return false
}

// Routines returns a snapshot of the live set in resumption order.
func (s *Scheduler) Routines() []*Routine {
	out := make([]*Routine, 0, len(s.routines))
	for _, r := range s.routines {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (s *Scheduler) boundaryPass(phase api.Phase, kind api.WaitKind) {
	if !s.beginPass(phase) {
		return
	}
	defer s.endPass()

	n := len(s.routines)
	for i := 0; i < n; i++ {
		r := s.routines[i]
		if r == nil {
			continue
		}
		if !r.alive() {
			s.evict(i, r.stopReason())
			continue
		}
		if !r.pending(kind) || r.paused {
			continue
		}
		w, ok := r.current().(api.Wait)
		if !ok || w.Kind() != kind {
			continue
		}
		r.clearPending(kind)
		s.step(i, r, phase)
	}
}

// dueForPrimary interprets the routine's suspension value for the primary
// pass and reports whether it should be advanced now.
func (s *Scheduler) dueForPrimary(r *Routine, deltaTime float64) bool {
	switch v := r.current().(type) {
	case nil:
		return true
	case api.Wait:
		switch v.Kind() {
		case api.WaitEndOfUpdate:
			r.pendingEndOfUpdate = true
			return false
		case api.WaitEndOfFrame:
			r.pendingEndOfFrame = true
			return false
		case api.WaitTimed:
			r.elapsed += deltaTime
			if timedRemaining(r, v) > 0 {
				return false
			}
			r.elapsed = 0
			r.deadline = 0
			return true
		default:
			// Zero Wait value; treated like nil.
			return true
		}
	default:
		return s.predicate == nil || !s.predicate(v)
	}
}

func (s *Scheduler) step(i int, r *Routine, phase api.Phase) {
	if !r.advance() {
		reason := api.StopCompleted
		if r.steps == nil {
			reason = r.stopReason()
		}
		s.evict(i, reason)
		return
	}
	s.observer.OnRoutineResumed(r.info(), phase)
}

func (s *Scheduler) evict(i int, reason api.StopReason) {
	r := s.routines[i]
	info := r.info()
	r.erase()
	s.routines[i] = nil
	s.tombstones = true
	s.observer.OnRoutineStopped(info, reason)
}

func (s *Scheduler) beginPass(phase api.Phase) bool {
	if s.inPass {
		s.logger.Warn("re-entrant phase call ignored", slog.String("phase", string(phase)))
		return false
	}
	s.inPass = true
	return true
}

// endPass compacts evicted slots while keeping insertion order.
func (s *Scheduler) endPass() {
	s.inPass = false
	if !s.tombstones {
		return
	}
	live := s.routines[:0]
	for _, r := range s.routines {
		if r != nil {
			live = append(live, r)
		}
	}
	clear(s.routines[len(live):])
	s.routines = live
	s.tombstones = false
}

// timedRemaining is the delta time still needed before a timed wait is due.
func timedRemaining(r *Routine, w api.Wait) float64 {
	return (r.deadline + w.Seconds()) - r.elapsed
}
