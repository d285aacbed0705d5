package engine

import (
	"reflect"

	"github.com/google/uuid"

	"github.com/petrijr/framecoro/pkg/api"
)

// Routine is a handle to a unit of cooperative work tracked by a Scheduler.
//
// A handle whose step sequence has been cleared (by completion, eviction or
// Stop) is null: every method stays safe to call and Stop on it is a no-op.
type Routine struct {
	id         string
	provenance string

	steps      api.Steps
	owner      api.Owner
	standalone bool

	paused bool

	// Timed-wait clock: the routine resumes once elapsed reaches
	// deadline+seconds. Both reset to 0 on resumption.
	elapsed  float64
	deadline float64

	pendingEndOfUpdate bool
	pendingEndOfFrame  bool

	stopRequested bool
	advancing     bool
}

func newRoutine(steps api.Steps, owner api.Owner) (*Routine, error) {
	if steps == nil {
		return nil, api.ErrNilSteps
	}
	return &Routine{
		id:         uuid.NewString(),
		steps:      steps,
		owner:      owner,
		standalone: owner == nil,
	}, nil
}

// ID is the routine's unique identity, stable after the routine is cleared.
func (r *Routine) ID() string {
	if r == nil {
		return ""
	}
	return r.id
}

// Provenance is the call stack captured when the routine was started.
func (r *Routine) Provenance() string {
	if r == nil {
		return ""
	}
	return r.provenance
}

// IsStandalone reports whether the routine was started without an owner.
// Standalone routines are only stopped explicitly through their handle.
func (r *Routine) IsStandalone() bool {
	return r != nil && r.standalone
}

// Pause suspends the routine until Resume. Paused routines are still evicted
// once they stop being alive.
func (r *Routine) Pause() {
	if r != nil {
		r.paused = true
	}
}

// Resume lifts a Pause.
func (r *Routine) Resume() {
	if r != nil {
		r.paused = false
	}
}

// IsPaused reports whether the routine is paused.
func (r *Routine) IsPaused() bool {
	return r != nil && r.paused
}

// Elapsed is the delta time accumulated towards the current timed wait.
func (r *Routine) Elapsed() float64 {
	if r == nil {
		return 0
	}
	return r.elapsed
}

// IsNull reports whether r is nil or has had its step sequence cleared.
func (r *Routine) IsNull() bool {
	return r == nil || r.steps == nil
}

// Equal reports whether both handles wrap the same step sequence instance.
// Null handles are never equal to anything, and step sequences that are not
// pointers only equal their own handle.
func (r *Routine) Equal(other *Routine) bool {
	if r.IsNull() || other.IsNull() {
		return false
	}
	if r == other {
		return true
	}
	return sameInstance(r.steps, other.steps)
}

func (r *Routine) info() api.RoutineInfo {
	return api.RoutineInfo{
		ID:         r.id,
		Provenance: r.provenance,
		Standalone: r.standalone,
	}
}

// alive is the liveness check run at the top of every pass.
func (r *Routine) alive() bool {
	if r.steps == nil {
		return false
	}
	return r.standalone || (r.owner != nil && r.owner.Alive())
}

func (r *Routine) current() any {
	if r.steps == nil {
		return nil
	}
	return r.steps.Current()
}

// advance steps the sequence once and refreshes the phase-boundary flags
// from the new suspension value. A step may stop its own routine; the
// sequence is then released here, after Advance has returned.
func (r *Routine) advance() bool {
	steps := r.steps
	r.advancing = true
	ok := steps.Advance()
	r.advancing = false
	if r.steps == nil {
		release(steps)
		return false
	}
	if !ok {
		return false
	}
	if w, ok := r.current().(api.Wait); ok {
		switch w.Kind() {
		case api.WaitEndOfUpdate:
			r.pendingEndOfUpdate = true
		case api.WaitEndOfFrame:
			r.pendingEndOfFrame = true
		}
	}
	return true
}

// erase clears the step sequence and owner, making the handle null.
func (r *Routine) erase() {
	if !r.advancing {
		release(r.steps)
	}
	r.steps = nil
	r.owner = nil
	r.pendingEndOfUpdate = false
	r.pendingEndOfFrame = false
}

func (r *Routine) pending(kind api.WaitKind) bool {
	switch kind {
	case api.WaitEndOfUpdate:
		return r.pendingEndOfUpdate
	case api.WaitEndOfFrame:
		return r.pendingEndOfFrame
	}
	return false
}

func (r *Routine) clearPending(kind api.WaitKind) {
	switch kind {
	case api.WaitEndOfUpdate:
		r.pendingEndOfUpdate = false
	case api.WaitEndOfFrame:
		r.pendingEndOfFrame = false
	}
}

func release(steps api.Steps) {
	if rel, ok := steps.(api.Releaser); ok {
		rel.Release()
	}
}

// stopReason classifies an eviction caused by a failed liveness check.
func (r *Routine) stopReason() api.StopReason {
	if r.steps == nil || r.stopRequested {
		return api.StopRequested
	}
	return api.StopOrphaned
}

// sameInstance reports whether a and b are the same pointer.
func sameInstance(a, b api.Steps) bool {
	ta := reflect.TypeOf(a)
	if ta == nil || ta.Kind() != reflect.Pointer || ta != reflect.TypeOf(b) {
		return false
	}
	return a == b
}

// sameValue compares two interface values with ==, treating values whose
// dynamic type is not comparable as distinct instead of panicking.
func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
