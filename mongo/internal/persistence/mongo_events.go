package persistence

import (
	"context"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	corep "github.com/petrijr/framecoro/internal/persistence"
	"github.com/petrijr/framecoro/pkg/api"
)

// MongoEventStore appends routine history to a collection. Events are
// returned in insertion order; seq breaks ties between equal timestamps.
type MongoEventStore struct {
	coll *mongo.Collection
	seq  atomic.Int64
}

var _ corep.EventStore = (*MongoEventStore)(nil)

func NewMongoEventStore(client *mongo.Client, dbName, collName string) *MongoEventStore {
	if dbName == "" {
		dbName = defaultDB
	}
	if collName == "" {
		collName = eventsColl
	}
	return &MongoEventStore{
		coll: client.Database(dbName).Collection(collName),
	}
}

type mongoEventDoc struct {
	RoutineID string `bson:"routine_id"`
	At        int64  `bson:"at"`
	Seq       int64  `bson:"seq"`
	Type      string `bson:"type"`
	Detail    string `bson:"detail,omitempty"`
}

func (s *MongoEventStore) AppendEvent(ctx context.Context, ev api.RoutineEvent) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.coll.InsertOne(ctx, mongoEventDoc{
		RoutineID: ev.RoutineID,
		At:        at.UnixNano(),
		Seq:       s.seq.Add(1),
		Type:      string(ev.Type),
		Detail:    ev.Detail,
	})
	return err
}

func (s *MongoEventStore) ListEvents(ctx context.Context, routineID string) ([]api.RoutineEvent, error) {
	filter := bson.M{}
	if routineID != "" {
		filter["routine_id"] = routineID
	}
	opts := options.Find().SetSort(bson.D{{Key: "at", Value: 1}, {Key: "seq", Value: 1}})

	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []api.RoutineEvent{}
	for cur.Next(ctx) {
		var doc mongoEventDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, api.RoutineEvent{
			RoutineID: doc.RoutineID,
			At:        time.Unix(0, doc.At),
			Type:      api.EventType(doc.Type),
			Detail:    doc.Detail,
		})
	}
	return out, cur.Err()
}
