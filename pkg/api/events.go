package api

import "time"

// Phase identifies one of the per-frame scheduler passes.
type Phase string

const (
	PhaseStart           Phase = "start"
	PhasePrimaryUpdate   Phase = "primary_update"
	PhaseSecondaryUpdate Phase = "secondary_update"
	PhasePostRender      Phase = "post_render"
)

// StopReason explains why a routine left the live set.
type StopReason string

const (
	// StopCompleted: the step sequence was exhausted.
	StopCompleted StopReason = "completed"
	// StopRequested: the routine was cleared by Stop or StopAll.
	StopRequested StopReason = "stopped"
	// StopOrphaned: the owning entity stopped being alive.
	StopOrphaned StopReason = "orphaned"
)

// RoutineInfo describes a routine to observers.
type RoutineInfo struct {
	ID         string
	Provenance string
	Standalone bool
}

// EventType identifies a routine history event.
type EventType string

const (
	EventRoutineStarted   EventType = "routine.started"
	EventRoutineCompleted EventType = "routine.completed"
	EventRoutineStopped   EventType = "routine.stopped"
	EventRoutineOrphaned  EventType = "routine.orphaned"
)

// EventTypeForStop maps a stop reason onto its history event type.
func EventTypeForStop(reason StopReason) EventType {
	switch reason {
	case StopCompleted:
		return EventRoutineCompleted
	case StopOrphaned:
		return EventRoutineOrphaned
	default:
		return EventRoutineStopped
	}
}

// RoutineEvent is a small append-only history record for diagnostics.
type RoutineEvent struct {
	RoutineID string
	At        time.Time
	Type      EventType

	// Short human-oriented detail, e.g. the first provenance frame.
	Detail string
}
