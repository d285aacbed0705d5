package framecoro

import (
	"fmt"

	"github.com/petrijr/framecoro/pkg/api"
)

// Script provides a fluent API for routines that are a fixed list of
// actions and waits:
//
//	blink := framecoro.NewScript().
//	    Do(show).
//	    WaitSeconds(0.5).
//	    Do(hide).
//	    WaitEndOfFrame().
//	    Do(report)
//
//	r, err := sched.Start(blink.Steps(), owner)
//
// Consecutive actions run in the same advance; each wait ends the advance.
// A Script is a template: every call to Steps returns an independent
// sequence, so one Script can back many routines.
type Script struct {
	ops []scriptOp
}

type scriptOp struct {
	action func()
	value  any
}

// NewScript creates an empty script.
func NewScript() *Script {
	return &Script{}
}

// Len returns the number of actions and waits in the script.
func (b *Script) Len() int {
	return len(b.ops)
}

// Do appends an action.
func (b *Script) Do(fn func()) *Script {
	if fn == nil {
		panic("framecoro: script action must not be nil")
	}
	b.ops = append(b.ops, scriptOp{action: fn})
	return b
}

// Yield appends a suspension on an arbitrary value. Nil resumes on the next
// primary update; other non-Wait values are judged by the scheduler's
// predicate.
func (b *Script) Yield(value any) *Script {
	b.ops = append(b.ops, scriptOp{value: value})
	return b
}

// WaitNextFrame suspends until the next primary update.
func (b *Script) WaitNextFrame() *Script {
	return b.Yield(nil)
}

// WaitSeconds suspends for the given number of seconds of accumulated
// delta time. It panics on a negative or non-finite duration.
func (b *Script) WaitSeconds(seconds float64) *Script {
	w, err := api.WaitSeconds(seconds)
	if err != nil {
		panic(fmt.Sprintf("framecoro: script wait: %v", err))
	}
	return b.Yield(w)
}

// WaitEndOfUpdate suspends until the secondary update pass.
func (b *Script) WaitEndOfUpdate() *Script {
	return b.Yield(api.EndOfUpdateWait())
}

// WaitEndOfFrame suspends until the post-render pass.
func (b *Script) WaitEndOfFrame() *Script {
	return b.Yield(api.EndOfFrameWait())
}

// WaitUntil suspends until ready reports true. The scheduler must be built
// with ConditionPredicate (alone or chained).
func (b *Script) WaitUntil(ready func() bool) *Script {
	if ready == nil {
		panic("framecoro: script condition must not be nil")
	}
	return b.Yield(api.WaitUntil(ready))
}

// Steps returns a fresh step sequence running the script from the start.
func (b *Script) Steps() *ScriptSteps {
	ops := make([]scriptOp, len(b.ops))
	copy(ops, b.ops)
	return &ScriptSteps{ops: ops}
}

// ScriptSteps is a running Script.
type ScriptSteps struct {
	ops     []scriptOp
	pos     int
	current any
}

func (s *ScriptSteps) Advance() bool {
	s.current = nil
	for s.pos < len(s.ops) {
		op := s.ops[s.pos]
		s.pos++
		if op.action != nil {
			op.action()
			continue
		}
		s.current = op.value
		return true
	}
	return false
}

func (s *ScriptSteps) Current() any { return s.current }

// Done reports whether every action and wait has been consumed.
func (s *ScriptSteps) Done() bool { return s.pos >= len(s.ops) }
