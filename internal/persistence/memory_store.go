package persistence

import (
	"sort"
	"sync"

	"github.com/petrijr/framecoro/pkg/api"
)

// InMemoryStore is a simple, goroutine-safe RecordStore backed by a map.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]RoutineRecord
}

// NewInMemoryStore creates a new InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[string]RoutineRecord),
	}
}

// Ensure InMemoryStore implements RecordStore.
var _ RecordStore = (*InMemoryStore)(nil)

func (s *InMemoryStore) SaveRecord(rec RoutineRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.RoutineID]; ok {
		return api.ErrDuplicateRegistration
	}
	s.records[rec.RoutineID] = rec
	return nil
}

func (s *InMemoryStore) DeleteRecord(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return false, nil
	}
	delete(s.records, id)
	return true, nil
}

func (s *InMemoryStore) GetRecord(id string) (RoutineRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return RoutineRecord{}, ErrRecordNotFound
	}
	return rec, nil
}

func (s *InMemoryStore) ListRecords() ([]RoutineRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]RoutineRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].RoutineID < out[j].RoutineID
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out, nil
}

func (s *InMemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.records)
	return nil
}
