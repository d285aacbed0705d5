package api

import "iter"

// Steps is a resumable computation driven by the scheduler.
//
// Advance runs the computation up to its next suspension point and reports
// whether it produced a value; false means the sequence is exhausted.
// Current returns the value yielded by the most recent Advance: a Wait, a
// value understood by the scheduler's Predicate, or nil to be advanced again
// on the next primary update pass.
//
// Implementations should be pointer types: two routine handles are equal
// only when they hold the same pointer.
type Steps interface {
	Advance() bool
	Current() any
}

// Releaser is implemented by step sequences holding resources that must be
// freed when a routine is cleared before it is exhausted.
type Releaser interface {
	Release()
}

// SeqSteps adapts an iter.Seq into Steps using iter.Pull.
type SeqSteps struct {
	next    func() (any, bool)
	stop    func()
	current any
	done    bool
}

// FromSeq wraps seq so it can be started as a routine. The routine body is
// an ordinary range-over-func generator:
//
//	api.FromSeq(func(yield func(any) bool) {
//	    fmt.Println("step 1")
//	    if !yield(api.MustWaitSeconds(1)) {
//	        return
//	    }
//	    fmt.Println("step 2")
//	})
func FromSeq(seq iter.Seq[any]) *SeqSteps {
	next, stop := iter.Pull(seq)
	return &SeqSteps{next: next, stop: stop}
}

func (s *SeqSteps) Advance() bool {
	if s.done {
		return false
	}
	v, ok := s.next()
	if !ok {
		s.done = true
		s.current = nil
		return false
	}
	s.current = v
	return true
}

func (s *SeqSteps) Current() any { return s.current }

// Release stops the underlying generator. It is safe to call more than once.
func (s *SeqSteps) Release() {
	s.done = true
	s.current = nil
	s.stop()
}

// FuncSteps adapts a step function into Steps.
type FuncSteps struct {
	fn      func() (any, bool)
	current any
	done    bool
}

// FromFunc returns Steps that call fn on every advance. fn returns the
// suspension value and whether the sequence continues; returning false ends
// the routine without yielding.
func FromFunc(fn func() (any, bool)) *FuncSteps {
	return &FuncSteps{fn: fn}
}

func (s *FuncSteps) Advance() bool {
	if s.done {
		return false
	}
	v, ok := s.fn()
	if !ok {
		s.done = true
		s.current = nil
		return false
	}
	s.current = v
	return true
}

func (s *FuncSteps) Current() any { return s.current }

// ValueSteps yields a fixed list of suspension values, one per advance.
type ValueSteps struct {
	values []any
	pos    int
}

// FromValues returns Steps yielding values in order.
func FromValues(values ...any) *ValueSteps {
	return &ValueSteps{values: values, pos: -1}
}

func (s *ValueSteps) Advance() bool {
	if s.pos >= len(s.values) {
		return false
	}
	s.pos++
	return s.pos < len(s.values)
}

func (s *ValueSteps) Current() any {
	if s.pos < 0 || s.pos >= len(s.values) {
		return nil
	}
	return s.values[s.pos]
}

// Position is the number of values yielded so far.
func (s *ValueSteps) Position() int {
	if s.pos < 0 {
		return 0
	}
	if s.pos >= len(s.values) {
		return len(s.values)
	}
	return s.pos + 1
}
