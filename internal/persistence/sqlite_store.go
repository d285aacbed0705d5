package persistence

import (
	"database/sql"
	"errors"
	"time"

	"github.com/petrijr/framecoro/pkg/api"
)

// SQLiteRecordStore is a RecordStore backed by SQLite.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing
// the driver, e.g.:
//
//	import _ "modernc.org/sqlite"
type SQLiteRecordStore struct {
	db *sql.DB
}

// Ensure SQLiteRecordStore implements RecordStore.
var _ RecordStore = (*SQLiteRecordStore)(nil)

// NewSQLiteRecordStore initializes the required schema in the given
// database and returns a new SQLiteRecordStore.
func NewSQLiteRecordStore(db *sql.DB) (*SQLiteRecordStore, error) {
	s := &SQLiteRecordStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteRecordStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS routine_records (
			routine_id TEXT PRIMARY KEY,
			provenance TEXT NOT NULL,
			started_at INTEGER NOT NULL
		);`,
	)
	return err
}

func (s *SQLiteRecordStore) SaveRecord(rec RoutineRecord) error {
	startedAt := rec.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}

	res, err := s.db.Exec(`
		INSERT OR IGNORE INTO routine_records (routine_id, provenance, started_at)
		VALUES (?, ?, ?)`,
		rec.RoutineID,
		rec.Provenance,
		startedAt.UnixNano(),
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return api.ErrDuplicateRegistration
	}
	return nil
}

func (s *SQLiteRecordStore) DeleteRecord(id string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM routine_records WHERE routine_id = ?`, id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (s *SQLiteRecordStore) GetRecord(id string) (RoutineRecord, error) {
	row := s.db.QueryRow(`
		SELECT routine_id, provenance, started_at
		FROM routine_records
		WHERE routine_id = ?`,
		id,
	)

	var rec RoutineRecord
	var startedAt int64
	if err := row.Scan(&rec.RoutineID, &rec.Provenance, &startedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RoutineRecord{}, ErrRecordNotFound
		}
		return RoutineRecord{}, err
	}
	rec.StartedAt = time.Unix(0, startedAt)
	return rec, nil
}

func (s *SQLiteRecordStore) ListRecords() ([]RoutineRecord, error) {
	rows, err := s.db.Query(`
		SELECT routine_id, provenance, started_at
		FROM routine_records
		ORDER BY started_at ASC, routine_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RoutineRecord
	for rows.Next() {
		var rec RoutineRecord
		var startedAt int64
		if err := rows.Scan(&rec.RoutineID, &rec.Provenance, &startedAt); err != nil {
			return nil, err
		}
		rec.StartedAt = time.Unix(0, startedAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteRecordStore) Clear() error {
	_, err := s.db.Exec(`DELETE FROM routine_records`)
	return err
}
