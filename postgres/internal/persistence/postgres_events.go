package persistence

import (
	"context"
	"database/sql"
	"time"

	corep "github.com/petrijr/framecoro/internal/persistence"
	"github.com/petrijr/framecoro/pkg/api"
)

// PostgresEventStore appends routine history to the routine_events table.
type PostgresEventStore struct {
	db *sql.DB
}

var _ corep.EventStore = (*PostgresEventStore)(nil)

func NewPostgresEventStore(db *sql.DB) (*PostgresEventStore, error) {
	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS routine_events (
			id BIGSERIAL PRIMARY KEY,
			routine_id TEXT NOT NULL,
			at BIGINT NOT NULL,
			type TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS routine_events_routine_id ON routine_events (routine_id)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			return nil, err
		}
	}
	return &PostgresEventStore{db: db}, nil
}

func (p *PostgresEventStore) AppendEvent(ctx context.Context, ev api.RoutineEvent) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO routine_events (routine_id, at, type, detail)
		VALUES ($1, $2, $3, $4)
	`, ev.RoutineID, at.UnixNano(), string(ev.Type), ev.Detail)
	return err
}

func (p *PostgresEventStore) ListEvents(ctx context.Context, routineID string) ([]api.RoutineEvent, error) {
	query := `SELECT routine_id, at, type, detail FROM routine_events ORDER BY id`
	args := []any{}
	if routineID != "" {
		query = `SELECT routine_id, at, type, detail FROM routine_events WHERE routine_id = $1 ORDER BY id`
		args = append(args, routineID)
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []api.RoutineEvent{}
	for rows.Next() {
		var (
			ev  api.RoutineEvent
			ns  int64
			typ string
		)
		if err := rows.Scan(&ev.RoutineID, &ns, &typ, &ev.Detail); err != nil {
			return nil, err
		}
		ev.At = time.Unix(0, ns)
		ev.Type = api.EventType(typ)
		out = append(out, ev)
	}
	return out, rows.Err()
}
