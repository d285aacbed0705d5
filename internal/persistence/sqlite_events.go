package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/petrijr/framecoro/pkg/api"
)

// SQLiteEventStore stores routine events in SQLite.
type SQLiteEventStore struct {
	db *sql.DB
}

// Ensure SQLiteEventStore implements the interfaces.
var _ EventStore = (*SQLiteEventStore)(nil)

func NewSQLiteEventStore(db *sql.DB) (*SQLiteEventStore, error) {
	s := &SQLiteEventStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteEventStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS routine_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			routine_id TEXT NOT NULL,
			at INTEGER NOT NULL,
			type TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_routine_events_routine_id ON routine_events(routine_id, id);
	`)
	return err
}

func (s *SQLiteEventStore) AppendEvent(ctx context.Context, ev api.RoutineEvent) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO routine_events (routine_id, at, type, detail)
		VALUES (?, ?, ?, ?)`,
		ev.RoutineID,
		at.UnixNano(),
		string(ev.Type),
		ev.Detail,
	)
	return err
}

func (s *SQLiteEventStore) ListEvents(ctx context.Context, routineID string) ([]api.RoutineEvent, error) {
	query := `
		SELECT routine_id, at, type, detail
		FROM routine_events`
	var args []any
	if routineID != "" {
		query += " WHERE routine_id = ?"
		args = append(args, routineID)
	}
	query += " ORDER BY id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []api.RoutineEvent
	for rows.Next() {
		var (
			id     string
			atN    int64
			typ    string
			detail string
		)
		if err := rows.Scan(&id, &atN, &typ, &detail); err != nil {
			return nil, err
		}
		out = append(out, api.RoutineEvent{
			RoutineID: id,
			At:        time.Unix(0, atN),
			Type:      api.EventType(typ),
			Detail:    detail,
		})
	}
	return out, rows.Err()
}
