package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/petrijr/framecoro/pkg/api"
)

// ErrRecordNotFound is returned when no record exists for a routine id.
var ErrRecordNotFound = errors.New("routine record not found")

// RoutineRecord is the provenance kept for a routine between its start and
// its eviction.
type RoutineRecord struct {
	RoutineID  string
	Provenance string
	StartedAt  time.Time
}

// RecordStore holds one RoutineRecord per tracked routine.
type RecordStore interface {
	// SaveRecord stores rec. It returns api.ErrDuplicateRegistration if a
	// record with the same RoutineID is already stored.
	SaveRecord(rec RoutineRecord) error
	// DeleteRecord removes the record for id and reports whether one existed.
	DeleteRecord(id string) (bool, error)
	GetRecord(id string) (RoutineRecord, error)
	// ListRecords returns all records ordered by start time.
	ListRecords() ([]RoutineRecord, error)
	Clear() error
}

// EventStore is an append-only history store for routine lifecycle events.
type EventStore interface {
	AppendEvent(ctx context.Context, ev api.RoutineEvent) error
	// ListEvents returns the events of one routine in append order, or of
	// every routine when routineID is empty.
	ListEvents(ctx context.Context, routineID string) ([]api.RoutineEvent, error)
}

// NoopEventStore discards all events.
type NoopEventStore struct{}

func (NoopEventStore) AppendEvent(ctx context.Context, ev api.RoutineEvent) error { return nil }
func (NoopEventStore) ListEvents(ctx context.Context, routineID string) ([]api.RoutineEvent, error) {
	return nil, nil
}
