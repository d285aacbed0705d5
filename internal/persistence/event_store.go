package persistence

import (
	"context"
	"sync"
	"time"

	"github.com/petrijr/framecoro/pkg/api"
)

// InMemoryEventStore keeps routine events in a slice.
// It is safe for concurrent use.
type InMemoryEventStore struct {
	mu     sync.RWMutex
	events []api.RoutineEvent
}

// Ensure InMemoryEventStore implements EventStore.
var _ EventStore = (*InMemoryEventStore)(nil)

func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{}
}

func (s *InMemoryEventStore) AppendEvent(ctx context.Context, ev api.RoutineEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *InMemoryEventStore) ListEvents(ctx context.Context, routineID string) ([]api.RoutineEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []api.RoutineEvent
	for _, ev := range s.events {
		if routineID != "" && ev.RoutineID != routineID {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}
