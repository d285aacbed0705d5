package api

import "errors"

var (
	// ErrInvalidArgument is returned when a constructor receives a value
	// outside its accepted range, e.g. an unknown phase boundary or an
	// empty provenance string.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNilSteps is returned when a routine is started without a step
	// sequence.
	ErrNilSteps = errors.New("routine step sequence is nil")

	// ErrRoutineExhausted is returned by Start when the step sequence
	// finished on its very first advance. No routine is admitted.
	ErrRoutineExhausted = errors.New("routine exhausted on first advance")

	// ErrDuplicateRegistration is returned by statistics collectors when the
	// same routine identity is recorded twice without an intervening stop.
	ErrDuplicateRegistration = errors.New("routine already registered")
)
