// Package stats tracks which routines are running and where they were
// started from, for diagnostics.
package stats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/petrijr/framecoro/internal/persistence"
	"github.com/petrijr/framecoro/pkg/api"
)

// Totals are the start/stop counters since creation or the last Erase.
type Totals struct {
	Starts int
	Stops  int
	Live   int
}

// Statistics records routine provenance keyed by routine identity.
//
// It implements api.Observer: plug it into a scheduler and it registers every
// admitted routine and forgets it on eviction. Statistics is safe for
// concurrent use.
type Statistics struct {
	mu     sync.Mutex
	p      persistence.Persistence
	logger *slog.Logger
	now    func() time.Time

	starts int
	stops  int
}

// Ensure Statistics implements api.Observer.
var _ api.Observer = (*Statistics)(nil)

// New returns Statistics backed by p. Nil stores fall back to in-memory
// records and no event history; a nil logger means slog.Default().
func New(p persistence.Persistence, logger *slog.Logger) *Statistics {
	if p.Records == nil {
		p.Records = persistence.NewInMemoryStore()
	}
	if p.Events == nil {
		p.Events = persistence.NoopEventStore{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Statistics{
		p:      p,
		logger: logger.With("component", "statistics"),
		now:    time.Now,
	}
}

// Add registers a started routine. It fails with api.ErrDuplicateRegistration
// if id is already tracked and with api.ErrInvalidArgument if id or
// provenance is empty.
func (s *Statistics) Add(id, provenance string) error {
	if id == "" {
		return fmt.Errorf("routine id is empty: %w", api.ErrInvalidArgument)
	}
	if provenance == "" {
		return fmt.Errorf("provenance for routine %s is empty: %w", id, api.ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	at := s.now()
	if err := s.p.Records.SaveRecord(persistence.RoutineRecord{
		RoutineID:  id,
		Provenance: provenance,
		StartedAt:  at,
	}); err != nil {
		if errors.Is(err, api.ErrDuplicateRegistration) {
			return fmt.Errorf("routine %s: %w", id, err)
		}
		return fmt.Errorf("save routine record: %w", err)
	}
	s.starts++

	s.appendEvent(api.RoutineEvent{
		RoutineID: id,
		At:        at,
		Type:      api.EventRoutineStarted,
		Detail:    firstLine(provenance),
	})
	return nil
}

// Remove forgets a routine. Removing an untracked id is a silent no-op and
// does not count as a stop.
func (s *Statistics) Remove(id string) error {
	return s.remove(id, api.StopRequested)
}

func (s *Statistics) remove(id string, reason api.StopReason) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted, err := s.p.Records.DeleteRecord(id)
	if err != nil {
		return fmt.Errorf("delete routine record: %w", err)
	}
	if !deleted {
		return nil
	}
	s.stops++

	s.appendEvent(api.RoutineEvent{
		RoutineID: id,
		At:        s.now(),
		Type:      api.EventTypeForStop(reason),
	})
	return nil
}

// Snapshot returns the provenance of every tracked routine, split into one
// entry per stack frame.
func (s *Statistics) Snapshot() (map[string][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.p.Records.ListRecords()
	if err != nil {
		return nil, err
	}
	out := make(map[string][]string, len(recs))
	for _, rec := range recs {
		out[rec.RoutineID] = strings.Split(rec.Provenance, "\n")
	}
	return out, nil
}

// Totals returns the current counters.
func (s *Statistics) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Totals{
		Starts: s.starts,
		Stops:  s.stops,
		Live:   s.starts - s.stops,
	}
}

// History returns the recorded lifecycle events of one routine, or of all
// routines when id is empty.
func (s *Statistics) History(ctx context.Context, id string) ([]api.RoutineEvent, error) {
	return s.p.Events.ListEvents(ctx, id)
}

// Erase drops every tracked routine and resets the counters. Event history
// is append-only and kept.
func (s *Statistics) Erase() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.p.Records.Clear(); err != nil {
		return err
	}
	s.starts = 0
	s.stops = 0
	return nil
}

func (s *Statistics) OnRoutineStarted(info api.RoutineInfo) {
	if err := s.Add(info.ID, info.Provenance); err != nil {
		s.logger.Error("record routine start failed",
			slog.String("routine_id", info.ID),
			slog.Any("error", err),
		)
	}
}

func (s *Statistics) OnRoutineResumed(info api.RoutineInfo, phase api.Phase) {}

func (s *Statistics) OnRoutineStopped(info api.RoutineInfo, reason api.StopReason) {
	if err := s.remove(info.ID, reason); err != nil {
		s.logger.Error("record routine stop failed",
			slog.String("routine_id", info.ID),
			slog.Any("error", err),
		)
	}
}

// appendEvent must be called with s.mu held. History is best effort.
func (s *Statistics) appendEvent(ev api.RoutineEvent) {
	if err := s.p.Events.AppendEvent(context.Background(), ev); err != nil {
		s.logger.Warn("append routine event failed",
			slog.String("routine_id", ev.RoutineID),
			slog.Any("error", err),
		)
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
