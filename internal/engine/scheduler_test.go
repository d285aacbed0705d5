package engine

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/petrijr/framecoro/pkg/api"
)

//
// Helpers
//

// scriptedSteps yields values in order and counts Advance calls.
type scriptedSteps struct {
	values    []any
	calls     int
	onAdvance func(call int)
	released  bool
}

func script(values ...any) *scriptedSteps {
	return &scriptedSteps{values: values}
}

func (s *scriptedSteps) Advance() bool {
	s.calls++
	if s.onAdvance != nil {
		s.onAdvance(s.calls)
	}
	return s.calls <= len(s.values)
}

func (s *scriptedSteps) Current() any {
	if s.calls >= 1 && s.calls <= len(s.values) {
		return s.values[s.calls-1]
	}
	return nil
}

func (s *scriptedSteps) Release() { s.released = true }

type stopEvent struct {
	ID     string
	Reason api.StopReason
}

// recordingObserver captures lifecycle callbacks.
type recordingObserver struct {
	mu      sync.Mutex
	started []string
	resumed []api.Phase
	stopped []stopEvent
}

func (o *recordingObserver) OnRoutineStarted(info api.RoutineInfo) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = append(o.started, info.ID)
}

func (o *recordingObserver) OnRoutineResumed(info api.RoutineInfo, phase api.Phase) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.resumed = append(o.resumed, phase)
}

func (o *recordingObserver) OnRoutineStopped(info api.RoutineInfo, reason api.StopReason) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopped = append(o.stopped, stopEvent{ID: info.ID, Reason: reason})
}

// testOwner is a pointer owner with a plain liveness flag.
type testOwner struct {
	alive bool
}

func newTestOwner() *testOwner {
	return &testOwner{alive: true}
}

func (o *testOwner) Alive() bool { return o.alive }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestScheduler(t *testing.T, pred api.Predicate) (*Scheduler, *recordingObserver) {
	t.Helper()
	obs := &recordingObserver{}
	return New(Config{Predicate: pred, Observer: obs, Logger: quietLogger()}), obs
}

//
// Start
//

func TestStart_NilStepsIsPreconditionViolation(t *testing.T) {
	t.Parallel()

	s, obs := newTestScheduler(t, nil)

	r, err := s.Start(nil, nil)
	require.ErrorIs(t, err, api.ErrNilSteps)
	require.Nil(t, r)
	require.Equal(t, 0, s.Len())
	require.Empty(t, obs.started)
}

func TestStart_ExhaustedOnFirstAdvanceLeavesLiveSetUnchanged(t *testing.T) {
	t.Parallel()

	s, obs := newTestScheduler(t, nil)
	_, err := s.Start(script(api.MustWaitSeconds(5)), nil)
	require.NoError(t, err)
	before := s.Len()

	steps := script()
	r, err := s.Start(steps, nil)
	require.ErrorIs(t, err, api.ErrRoutineExhausted)
	require.Nil(t, r)
	require.Equal(t, before, s.Len())
	require.Equal(t, 1, steps.calls, "start must advance exactly once")
	require.Len(t, obs.started, 1)
}

func TestStart_AdvancesSynchronously(t *testing.T) {
	t.Parallel()

	s, obs := newTestScheduler(t, nil)
	steps := script(nil, nil)

	r, err := s.Start(steps, nil)
	require.NoError(t, err)
	require.Equal(t, 1, steps.calls)
	require.True(t, r.IsStandalone())
	require.False(t, r.IsNull())
	require.NotEmpty(t, r.ID())
	require.NotEmpty(t, r.Provenance())
	require.True(t, s.Contains(r))
	require.Equal(t, []string{r.ID()}, obs.started)
}

func TestStart_PredicateResultIsAdvisory(t *testing.T) {
	t.Parallel()

	calls := 0
	pred := func(v any) bool {
		calls++
		return true
	}
	s, _ := newTestScheduler(t, pred)

	r, err := s.Start(script("custom"), nil)
	require.NoError(t, err)
	require.True(t, s.Contains(r), "a blocked custom value must still be admitted")
	require.Equal(t, 1, calls)
}

//
// Timed waits
//

func TestTimedWait_TwoSecondScenario(t *testing.T) {
	t.Parallel()

	s, obs := newTestScheduler(t, nil)
	before := s.Len()

	steps := script(api.MustWaitSeconds(2.0))
	r, err := s.Start(steps, nil)
	require.NoError(t, err)
	require.Equal(t, before+1, s.Len())

	s.OnPrimaryUpdate(1.0)
	require.Equal(t, 1, steps.calls, "must not advance before 2s have accumulated")
	require.Equal(t, before+1, s.Len())

	s.OnPrimaryUpdate(1.0)
	require.Equal(t, 2, steps.calls)
	require.Equal(t, before, s.Len())
	require.True(t, r.IsNull())
	require.Equal(t, []stopEvent{{ID: r.ID(), Reason: api.StopCompleted}}, obs.stopped)
}

func TestTimedWait_ClockResetsOnResumption(t *testing.T) {
	t.Parallel()

	s, _ := newTestScheduler(t, nil)
	steps := script(api.MustWaitSeconds(1), api.MustWaitSeconds(0.5), nil)
	r, err := s.Start(steps, nil)
	require.NoError(t, err)

	s.OnPrimaryUpdate(0.5)
	require.Equal(t, 1, steps.calls)
	require.Equal(t, 0.5, r.Elapsed())

	s.OnPrimaryUpdate(0.75)
	require.Equal(t, 2, steps.calls, "resumes on the first pass reaching the duration")
	require.Equal(t, 0.0, r.Elapsed(), "elapsed resets immediately on resumption")

	s.OnPrimaryUpdate(0.25)
	require.Equal(t, 2, steps.calls, "overshoot from the previous wait is not carried over")
	require.Equal(t, 0.25, r.Elapsed())

	s.OnPrimaryUpdate(0.25)
	require.Equal(t, 3, steps.calls)

	// nil suspension value: advanced on the next primary pass.
	s.OnPrimaryUpdate(0)
	require.Equal(t, 4, steps.calls)
	require.Equal(t, 0, s.Len())
}

func TestTimedWait_ZeroDurationResumesOnNextPrimaryPass(t *testing.T) {
	t.Parallel()

	s, _ := newTestScheduler(t, nil)
	steps := script(api.MustWaitSeconds(0), nil)
	_, err := s.Start(steps, nil)
	require.NoError(t, err)

	s.OnPrimaryUpdate(0)
	require.Equal(t, 2, steps.calls)
}

func TestTimedWait_OnlyPrimaryPassAccumulates(t *testing.T) {
	t.Parallel()

	s, _ := newTestScheduler(t, nil)
	steps := script(api.MustWaitSeconds(1), nil)
	r, err := s.Start(steps, nil)
	require.NoError(t, err)

	s.OnSecondaryUpdate()
	s.OnPostRender()
	require.Equal(t, 0.0, r.Elapsed())
	require.Equal(t, 1, steps.calls)
}

func TestPrimaryUpdate_NegativeDeltaIsClamped(t *testing.T) {
	t.Parallel()

	s, _ := newTestScheduler(t, nil)
	steps := script(api.MustWaitSeconds(1), nil)
	r, err := s.Start(steps, nil)
	require.NoError(t, err)

	s.OnPrimaryUpdate(-3)
	require.Equal(t, 0.0, r.Elapsed())
	require.Equal(t, 1, steps.calls)
}

//
// Phase-boundary waits
//

func TestEndOfUpdate_AdvancesOnlyInSecondaryPass(t *testing.T) {
	t.Parallel()

	s, obs := newTestScheduler(t, nil)
	steps := script(api.EndOfUpdateWait(), nil, nil)
	_, err := s.Start(steps, nil)
	require.NoError(t, err)

	s.OnPrimaryUpdate(0.016)
	require.Equal(t, 1, steps.calls, "primary pass must not advance an end-of-update wait")

	s.OnSecondaryUpdate()
	require.Equal(t, 2, steps.calls, "secondary pass advances exactly once")

	s.OnPostRender()
	require.Equal(t, 2, steps.calls, "post-render leaves end-of-update routines alone")

	require.Equal(t, []api.Phase{api.PhaseSecondaryUpdate}, obs.resumed)
}

func TestEndOfUpdate_YieldedDuringPrimaryPassResumesSameFrame(t *testing.T) {
	t.Parallel()

	s, _ := newTestScheduler(t, nil)
	steps := script(nil, api.EndOfUpdateWait(), api.MustWaitSeconds(10))
	_, err := s.Start(steps, nil)
	require.NoError(t, err)

	s.OnPrimaryUpdate(0.016)
	require.Equal(t, 2, steps.calls)

	s.OnSecondaryUpdate()
	require.Equal(t, 3, steps.calls)

	// The routine now waits on a timer; further boundary passes ignore it.
	s.OnSecondaryUpdate()
	s.OnPostRender()
	require.Equal(t, 3, steps.calls)
}

func TestEndOfUpdate_RepeatedYieldAdvancesOncePerFrame(t *testing.T) {
	t.Parallel()

	s, _ := newTestScheduler(t, nil)
	steps := script(api.EndOfUpdateWait(), api.EndOfUpdateWait(), api.EndOfUpdateWait())
	_, err := s.Start(steps, nil)
	require.NoError(t, err)

	s.Frame(0.016)
	require.Equal(t, 2, steps.calls)

	s.Frame(0.016)
	require.Equal(t, 3, steps.calls)

	s.Frame(0.016)
	require.Equal(t, 4, steps.calls)
	require.Equal(t, 0, s.Len())
}

func TestEndOfFrame_AdvancesOnlyInPostRender(t *testing.T) {
	t.Parallel()

	s, obs := newTestScheduler(t, nil)
	steps := script(api.EndOfFrameWait(), nil)
	_, err := s.Start(steps, nil)
	require.NoError(t, err)

	s.OnPrimaryUpdate(0.016)
	require.Equal(t, 1, steps.calls)

	s.OnSecondaryUpdate()
	require.Equal(t, 1, steps.calls, "secondary pass leaves end-of-frame routines alone")

	s.OnPostRender()
	require.Equal(t, 2, steps.calls)
	require.Equal(t, []api.Phase{api.PhasePostRender}, obs.resumed)
}

//
// Extension predicate
//

func TestPredicate_GatesCustomValues(t *testing.T) {
	t.Parallel()

	open := false
	pred := func(v any) bool {
		return v == "gate" && !open
	}
	s, _ := newTestScheduler(t, pred)
	steps := script("gate", nil)
	_, err := s.Start(steps, nil)
	require.NoError(t, err)

	s.Frame(1)
	s.Frame(1)
	require.Equal(t, 1, steps.calls, "blocked routine is skipped, not evicted")
	require.Equal(t, 1, s.Len())

	open = true
	s.OnPrimaryUpdate(0)
	require.Equal(t, 2, steps.calls)
}

func TestPredicate_AbsentMeansProceed(t *testing.T) {
	t.Parallel()

	s, _ := newTestScheduler(t, nil)
	steps := script("anything", nil)
	_, err := s.Start(steps, nil)
	require.NoError(t, err)

	s.OnPrimaryUpdate(0)
	require.Equal(t, 2, steps.calls)
}

func TestPredicate_ConditionValues(t *testing.T) {
	t.Parallel()

	ready := false
	s, _ := newTestScheduler(t, api.ConditionPredicate)
	steps := script(api.WaitUntil(func() bool { return ready }), nil)
	_, err := s.Start(steps, nil)
	require.NoError(t, err)

	s.OnPrimaryUpdate(0)
	require.Equal(t, 1, steps.calls)

	ready = true
	s.OnPrimaryUpdate(0)
	require.Equal(t, 2, steps.calls)
}

//
// Pause
//

func TestPause_SkipsRoutineUntilResumed(t *testing.T) {
	t.Parallel()

	s, _ := newTestScheduler(t, nil)
	steps := script(api.MustWaitSeconds(1), nil)
	r, err := s.Start(steps, nil)
	require.NoError(t, err)

	r.Pause()
	require.True(t, r.IsPaused())

	s.OnPrimaryUpdate(5)
	require.Equal(t, 0.0, r.Elapsed(), "paused routines do not accumulate time")
	require.Equal(t, 1, steps.calls)

	r.Resume()
	require.False(t, r.IsPaused())
	s.OnPrimaryUpdate(1)
	require.Equal(t, 2, steps.calls)
}

func TestPause_PausedRoutineIsStillEvictedWhenStopped(t *testing.T) {
	t.Parallel()

	s, obs := newTestScheduler(t, nil)
	r, err := s.Start(script(nil), nil)
	require.NoError(t, err)

	r.Pause()
	s.Stop(r)
	s.OnPrimaryUpdate(0)

	require.Equal(t, 0, s.Len())
	require.Equal(t, []stopEvent{{ID: r.ID(), Reason: api.StopRequested}}, obs.stopped)
}

//
// Stop operations
//

func TestStop_IsLazyAndIdempotent(t *testing.T) {
	t.Parallel()

	s, obs := newTestScheduler(t, nil)
	steps := script(api.MustWaitSeconds(1))
	r, err := s.Start(steps, nil)
	require.NoError(t, err)

	s.Stop(r)
	require.True(t, r.IsNull())
	require.True(t, steps.released)
	require.Equal(t, 1, s.Len(), "stop only marks the routine for eviction")

	require.NotPanics(t, func() { s.Stop(r) })
	require.NotPanics(t, func() { s.Stop(nil) })

	s.OnPrimaryUpdate(0)
	require.Equal(t, 0, s.Len())
	require.Len(t, obs.stopped, 1)
	require.Equal(t, api.StopRequested, obs.stopped[0].Reason)
}

func TestStop_AnyPhaseEntryPointEvicts(t *testing.T) {
	t.Parallel()

	phases := map[string]func(s *Scheduler){
		"primary":     func(s *Scheduler) { s.OnPrimaryUpdate(0) },
		"secondary":   func(s *Scheduler) { s.OnSecondaryUpdate() },
		"post-render": func(s *Scheduler) { s.OnPostRender() },
	}

	for name, run := range phases {
		t.Run(name, func(t *testing.T) {
			s, _ := newTestScheduler(t, nil)
			r, err := s.Start(script(api.MustWaitSeconds(1)), nil)
			require.NoError(t, err)

			s.Stop(r)
			run(s)
			require.False(t, s.Contains(r))
			require.Equal(t, 0, s.Len())
		})
	}
}

func TestStopAll_OnlyMatchesOwner(t *testing.T) {
	t.Parallel()

	s, _ := newTestScheduler(t, nil)
	owner := newTestOwner()
	other := newTestOwner()

	a, err := s.Start(script(api.MustWaitSeconds(10)), owner)
	require.NoError(t, err)
	b, err := s.Start(script(api.EndOfFrameWait()), owner)
	require.NoError(t, err)
	standalone, err := s.Start(script(api.MustWaitSeconds(10)), nil)
	require.NoError(t, err)
	foreign, err := s.Start(script(api.MustWaitSeconds(10)), other)
	require.NoError(t, err)

	s.StopAll(owner)
	s.OnPrimaryUpdate(0.016)
	s.OnSecondaryUpdate()
	s.OnPostRender()

	require.False(t, s.Contains(a))
	require.False(t, s.Contains(b))
	require.True(t, s.Contains(standalone))
	require.True(t, s.Contains(foreign))
	require.Equal(t, 2, s.Len())
}

func TestStopAll_NilOwnerNeverMatchesStandalone(t *testing.T) {
	t.Parallel()

	s, _ := newTestScheduler(t, nil)
	r, err := s.Start(script(api.MustWaitSeconds(1)), nil)
	require.NoError(t, err)

	s.StopAll(nil)
	s.Frame(0)
	require.True(t, s.Contains(r))
	require.False(t, r.IsNull())
}

func TestStopAll_MatchesOwnerRefsByValue(t *testing.T) {
	t.Parallel()

	s, _ := newTestScheduler(t, nil)
	life := api.NewLifetime()

	r, err := s.Start(script(api.MustWaitSeconds(1)), life.Ref())
	require.NoError(t, err)

	s.StopAll(life.Ref())
	require.True(t, r.IsNull())
}

//
// Owner lifetime
//

func TestOwner_DestroyedOwnerEvictsWithoutStop(t *testing.T) {
	t.Parallel()

	s, obs := newTestScheduler(t, nil)
	life := api.NewLifetime()
	steps := script(api.MustWaitSeconds(10))
	r, err := s.Start(steps, life.Ref())
	require.NoError(t, err)

	s.Frame(0.016)
	require.True(t, s.Contains(r))

	life.Destroy()
	s.OnPrimaryUpdate(0.016)

	require.False(t, s.Contains(r))
	require.True(t, r.IsNull())
	require.True(t, steps.released)
	require.Equal(t, []stopEvent{{ID: r.ID(), Reason: api.StopOrphaned}}, obs.stopped)
}

func TestOwner_RecycledLifetimeInvalidatesOldRefs(t *testing.T) {
	t.Parallel()

	s, _ := newTestScheduler(t, nil)
	life := api.NewLifetime()
	old, err := s.Start(script(api.MustWaitSeconds(10)), life.Ref())
	require.NoError(t, err)

	life.Recycle()
	fresh, err := s.Start(script(api.MustWaitSeconds(10)), life.Ref())
	require.NoError(t, err)

	s.OnPrimaryUpdate(0)
	require.False(t, s.Contains(old))
	require.True(t, s.Contains(fresh))
}

//
// Iteration bookkeeping
//

func TestEviction_DoesNotSkipOrRevisitNeighbours(t *testing.T) {
	t.Parallel()

	s, _ := newTestScheduler(t, nil)

	var order []string
	track := func(name string, values ...any) *scriptedSteps {
		st := script(values...)
		st.onAdvance = func(call int) {
			if call > 1 {
				order = append(order, name)
			}
		}
		return st
	}

	_, err := s.Start(track("a", nil, nil), nil)
	require.NoError(t, err)
	_, err = s.Start(track("b", nil), nil) // completes on the first pass
	require.NoError(t, err)
	_, err = s.Start(track("c", nil, nil), nil)
	require.NoError(t, err)
	stopped, err := s.Start(track("d", nil, nil), nil)
	require.NoError(t, err)
	_, err = s.Start(track("e", nil, nil), nil)
	require.NoError(t, err)

	s.Stop(stopped)
	s.OnPrimaryUpdate(0)

	require.Equal(t, []string{"a", "b", "c", "e"}, order)
	require.Equal(t, 3, s.Len())

	order = nil
	s.OnPrimaryUpdate(0)
	require.Equal(t, []string{"a", "c", "e"}, order, "compaction keeps insertion order")
}

func TestStartDuringPass_IsConsideredNextPass(t *testing.T) {
	t.Parallel()

	s, _ := newTestScheduler(t, nil)
	child := script(nil, nil, nil)

	parent := script(nil, nil)
	parent.onAdvance = func(call int) {
		if call == 2 {
			_, err := s.Start(child, nil)
			require.NoError(t, err)
		}
	}
	_, err := s.Start(parent, nil)
	require.NoError(t, err)

	s.OnPrimaryUpdate(0)
	require.Equal(t, 1, child.calls, "child only got its synchronous start advance")
	require.Equal(t, 2, s.Len())

	s.OnPrimaryUpdate(0)
	require.Equal(t, 2, child.calls)
}

func TestStopFromInsideOwnStep(t *testing.T) {
	t.Parallel()

	s, obs := newTestScheduler(t, nil)
	var self *Routine
	steps := script(nil, nil, nil)
	steps.onAdvance = func(call int) {
		if call == 2 {
			s.Stop(self)
		}
	}
	r, err := s.Start(steps, nil)
	require.NoError(t, err)
	self = r

	s.OnPrimaryUpdate(0)
	require.Equal(t, 0, s.Len())
	require.True(t, steps.released)
	require.Equal(t, []stopEvent{{ID: r.ID(), Reason: api.StopRequested}}, obs.stopped)
}

func TestReentrantPassIsIgnored(t *testing.T) {
	t.Parallel()

	s, _ := newTestScheduler(t, nil)
	other := script(nil, nil, nil)
	_, err := s.Start(other, nil)
	require.NoError(t, err)

	steps := script(nil, nil)
	steps.onAdvance = func(call int) {
		if call == 2 {
			s.OnPrimaryUpdate(0)
		}
	}
	_, err = s.Start(steps, nil)
	require.NoError(t, err)

	s.OnPrimaryUpdate(0)
	require.Equal(t, 2, other.calls, "nested pass must not advance routines again")
}

func TestSeqSteps_ReleasedOnStop(t *testing.T) {
	t.Parallel()

	s, _ := newTestScheduler(t, nil)
	cleaned := false
	steps := api.FromSeq(func(yield func(any) bool) {
		defer func() { cleaned = true }()
		for {
			if !yield(api.MustWaitSeconds(1)) {
				return
			}
		}
	})
	r, err := s.Start(steps, nil)
	require.NoError(t, err)

	s.Stop(r)
	require.True(t, cleaned)
}

func TestRoutineEquality(t *testing.T) {
	t.Parallel()

	s, _ := newTestScheduler(t, nil)
	steps := script(api.MustWaitSeconds(1))
	r, err := s.Start(steps, nil)
	require.NoError(t, err)

	alias := &Routine{steps: steps}
	require.True(t, r.Equal(alias))
	require.True(t, r.Equal(r))

	other, err := s.Start(script(api.MustWaitSeconds(1)), nil)
	require.NoError(t, err)
	require.False(t, r.Equal(other))

	s.Stop(r)
	require.False(t, r.Equal(alias), "null handles are never equal")

	var nilRoutine *Routine
	require.True(t, nilRoutine.IsNull())
	require.False(t, nilRoutine.Equal(other))
	require.Equal(t, "", nilRoutine.ID())
}

func TestObserverSeesResumes(t *testing.T) {
	t.Parallel()

	s, obs := newTestScheduler(t, nil)
	_, err := s.Start(script(nil, api.EndOfUpdateWait(), api.EndOfFrameWait(), nil), nil)
	require.NoError(t, err)

	s.Frame(0)
	s.Frame(0)

	require.Equal(t, []api.Phase{
		api.PhasePrimaryUpdate,
		api.PhaseSecondaryUpdate,
		api.PhasePostRender,
	}, obs.resumed)
	require.Len(t, obs.stopped, 1)
	require.Equal(t, api.StopCompleted, obs.stopped[0].Reason)
}
