// Package redis keeps framecoro routine statistics in Redis, so a running
// program's live routines can be inspected from another process.
package redis

import (
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/petrijr/framecoro"
	"github.com/petrijr/framecoro/internal/persistence"
	"github.com/petrijr/framecoro/internal/stats"

	rstore "github.com/petrijr/framecoro/redis/internal/persistence"
)

// NewStatistics returns statistics whose records and event history live in
// Redis under prefix (default "framecoro:"). Use a distinct prefix per
// process when several share one server.
func NewStatistics(client *redis.Client, prefix string, logger *slog.Logger) *framecoro.Statistics {
	return stats.New(persistence.Persistence{
		Records: rstore.NewRedisRecordStore(client, prefix),
		Events:  rstore.NewRedisEventStore(client, prefix),
	}, logger)
}
