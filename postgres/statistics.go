// Package postgres keeps framecoro routine statistics in PostgreSQL.
package postgres

import (
	"database/sql"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver

	"github.com/petrijr/framecoro"
	"github.com/petrijr/framecoro/internal/persistence"
	"github.com/petrijr/framecoro/internal/stats"

	pstore "github.com/petrijr/framecoro/postgres/internal/persistence"
)

// Open opens a PostgreSQL database through the pgx driver.
func Open(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

// NewStatistics creates the routines and routine_events tables if needed and
// returns statistics stored in them.
func NewStatistics(db *sql.DB, logger *slog.Logger) (*framecoro.Statistics, error) {
	records, err := pstore.NewPostgresRecordStore(db)
	if err != nil {
		return nil, err
	}
	events, err := pstore.NewPostgresEventStore(db)
	if err != nil {
		return nil, err
	}
	return stats.New(persistence.Persistence{
		Records: records,
		Events:  events,
	}, logger), nil
}
