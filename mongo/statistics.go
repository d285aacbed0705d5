// Package mongo keeps framecoro routine statistics in MongoDB.
package mongo

import (
	"log/slog"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/petrijr/framecoro"
	"github.com/petrijr/framecoro/internal/persistence"
	"github.com/petrijr/framecoro/internal/stats"

	mstore "github.com/petrijr/framecoro/mongo/internal/persistence"
)

// NewStatistics returns statistics stored in the "routines" and
// "routine_events" collections of dbName (default "framecoro").
func NewStatistics(client *mongo.Client, dbName string, logger *slog.Logger) *framecoro.Statistics {
	return stats.New(persistence.Persistence{
		Records: mstore.NewMongoRecordStore(client, dbName, ""),
		Events:  mstore.NewMongoEventStore(client, dbName, ""),
	}, logger)
}
