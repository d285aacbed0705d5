package api

import (
	"fmt"
	"math"
	"strconv"
)

// WaitKind identifies what a Wait instruction is waiting for.
type WaitKind uint8

const (
	// WaitEndOfUpdate resumes the routine during the secondary update pass.
	WaitEndOfUpdate WaitKind = iota + 1
	// WaitEndOfFrame resumes the routine during the post-render pass.
	WaitEndOfFrame
	// WaitTimed resumes the routine during the first primary update pass in
	// which the accumulated delta time reaches Seconds.
	WaitTimed
)

func (k WaitKind) String() string {
	switch k {
	case WaitEndOfUpdate:
		return "end_of_update"
	case WaitEndOfFrame:
		return "end_of_frame"
	case WaitTimed:
		return "timed"
	default:
		return "unknown(" + strconv.Itoa(int(k)) + ")"
	}
}

// PhaseBoundary is the closed set of frame-phase boundaries a routine can
// wait for with NewWait.
type PhaseBoundary uint8

const (
	EndOfUpdate PhaseBoundary = iota
	EndOfFrame
)

// Wait is an immutable suspension value yielded by routine code.
//
// The zero value is not a valid instruction; build one with NewWait or
// WaitSeconds.
type Wait struct {
	kind    WaitKind
	seconds float64
}

// NewWait returns a Wait for the given phase boundary. It fails with
// ErrInvalidArgument for values outside the PhaseBoundary enumeration.
func NewWait(b PhaseBoundary) (Wait, error) {
	switch b {
	case EndOfUpdate:
		return Wait{kind: WaitEndOfUpdate}, nil
	case EndOfFrame:
		return Wait{kind: WaitEndOfFrame}, nil
	default:
		return Wait{}, fmt.Errorf("phase boundary %d: %w", b, ErrInvalidArgument)
	}
}

// WaitSeconds returns a timed Wait. Durations must be finite and
// non-negative.
func WaitSeconds(seconds float64) (Wait, error) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return Wait{}, fmt.Errorf("wait duration %v: %w", seconds, ErrInvalidArgument)
	}
	return Wait{kind: WaitTimed, seconds: seconds}, nil
}

// MustWait is like NewWait but panics on error.
func MustWait(b PhaseBoundary) Wait {
	w, err := NewWait(b)
	if err != nil {
		panic(err)
	}
	return w
}

// MustWaitSeconds is like WaitSeconds but panics on error.
func MustWaitSeconds(seconds float64) Wait {
	w, err := WaitSeconds(seconds)
	if err != nil {
		panic(err)
	}
	return w
}

// EndOfUpdateWait is shorthand for MustWait(EndOfUpdate).
func EndOfUpdateWait() Wait { return Wait{kind: WaitEndOfUpdate} }

// EndOfFrameWait is shorthand for MustWait(EndOfFrame).
func EndOfFrameWait() Wait { return Wait{kind: WaitEndOfFrame} }

// Kind reports what the instruction waits for.
func (w Wait) Kind() WaitKind { return w.kind }

// Seconds is the requested duration; only meaningful for WaitTimed.
func (w Wait) Seconds() float64 { return w.seconds }

// IsValid reports whether w was built by one of the constructors.
func (w Wait) IsValid() bool { return w.kind != 0 }

func (w Wait) String() string {
	if w.kind == WaitTimed {
		return "wait(" + strconv.FormatFloat(w.seconds, 'g', -1, 64) + "s)"
	}
	return "wait(" + w.kind.String() + ")"
}
