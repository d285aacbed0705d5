package framecoro

import (
	"database/sql"
	"log/slog"

	"github.com/petrijr/framecoro/internal/persistence"
	"github.com/petrijr/framecoro/internal/stats"
)

// NewSQLiteStatistics returns statistics whose provenance records and event
// history live in the provided *sql.DB. The tables are created if missing.
//
// Typical usage:
//
//	db, _ := sql.Open("sqlite", "file:routines.db?_pragma=journal_mode(WAL)")
//	st, err := framecoro.NewSQLiteStatistics(db, logger)
//	sched := framecoro.NewScheduler(framecoro.WithObserver(st))
//
// Records left over from a previous process are not routines of this one;
// call Erase after opening if the file is reused.
func NewSQLiteStatistics(db *sql.DB, logger *slog.Logger) (*Statistics, error) {
	records, err := persistence.NewSQLiteRecordStore(db)
	if err != nil {
		return nil, err
	}
	events, err := persistence.NewSQLiteEventStore(db)
	if err != nil {
		return nil, err
	}
	return stats.New(persistence.Persistence{Records: records, Events: events}, logger), nil
}
