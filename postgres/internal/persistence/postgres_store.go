package persistence

import (
	"database/sql"
	"errors"
	"time"

	corep "github.com/petrijr/framecoro/internal/persistence"
	"github.com/petrijr/framecoro/pkg/api"
)

// PostgresRecordStore is a RecordStore backed by PostgreSQL.
//
// It expects an *sql.DB that uses a PostgreSQL driver (for example,
// "github.com/jackc/pgx/v5/stdlib"). The caller imports the driver and
// opens the DSN.
type PostgresRecordStore struct {
	db *sql.DB
}

var _ corep.RecordStore = (*PostgresRecordStore)(nil)

// NewPostgresRecordStore initializes the routines table and returns a
// store over it.
func NewPostgresRecordStore(db *sql.DB) (*PostgresRecordStore, error) {
	s := &PostgresRecordStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (p *PostgresRecordStore) initSchema() error {
	_, err := p.db.Exec(`
		CREATE TABLE IF NOT EXISTS routines (
			id TEXT PRIMARY KEY,
			provenance TEXT NOT NULL,
			started_at BIGINT NOT NULL
		);
	`)
	return err
}

func (p *PostgresRecordStore) SaveRecord(rec corep.RoutineRecord) error {
	startedAt := rec.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}

	res, err := p.db.Exec(`
		INSERT INTO routines (id, provenance, started_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`, rec.RoutineID, rec.Provenance, startedAt.UnixNano())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return api.ErrDuplicateRegistration
	}
	return nil
}

func (p *PostgresRecordStore) DeleteRecord(id string) (bool, error) {
	res, err := p.db.Exec(`DELETE FROM routines WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (p *PostgresRecordStore) GetRecord(id string) (corep.RoutineRecord, error) {
	row := p.db.QueryRow(`SELECT id, provenance, started_at FROM routines WHERE id = $1`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return corep.RoutineRecord{}, corep.ErrRecordNotFound
	}
	return rec, err
}

func (p *PostgresRecordStore) ListRecords() ([]corep.RoutineRecord, error) {
	rows, err := p.db.Query(`SELECT id, provenance, started_at FROM routines ORDER BY started_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []corep.RoutineRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (p *PostgresRecordStore) Clear() error {
	_, err := p.db.Exec(`DELETE FROM routines`)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (corep.RoutineRecord, error) {
	var (
		rec corep.RoutineRecord
		ns  int64
	)
	if err := row.Scan(&rec.RoutineID, &rec.Provenance, &ns); err != nil {
		return corep.RoutineRecord{}, err
	}
	rec.StartedAt = time.Unix(0, ns)
	return rec, nil
}
