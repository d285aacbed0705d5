package persistence

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	corep "github.com/petrijr/framecoro/internal/persistence"
	"github.com/petrijr/framecoro/pkg/api"
)

const (
	defaultDB   = "framecoro"
	opTimeout   = 5 * time.Second
	recordsColl = "routines"
	eventsColl  = "routine_events"
)

type MongoRecordStore struct {
	coll *mongo.Collection
}

// Ensure it implements RecordStore.
var _ corep.RecordStore = (*MongoRecordStore)(nil)

// NewMongoRecordStore creates a Mongo-backed record store.
// dbName defaults to "framecoro" if empty, collName defaults to "routines".
func NewMongoRecordStore(client *mongo.Client, dbName, collName string) *MongoRecordStore {
	if dbName == "" {
		dbName = defaultDB
	}
	if collName == "" {
		collName = recordsColl
	}
	return &MongoRecordStore{
		coll: client.Database(dbName).Collection(collName),
	}
}

type mongoRecordDoc struct {
	ID         string `bson:"_id"`
	Provenance string `bson:"provenance"`
	StartedAt  int64  `bson:"started_at"`
}

func (s *MongoRecordStore) SaveRecord(rec corep.RoutineRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	startedAt := rec.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}

	_, err := s.coll.InsertOne(ctx, mongoRecordDoc{
		ID:         rec.RoutineID,
		Provenance: rec.Provenance,
		StartedAt:  startedAt.UnixNano(),
	})
	if mongo.IsDuplicateKeyError(err) {
		return api.ErrDuplicateRegistration
	}
	return err
}

func (s *MongoRecordStore) DeleteRecord(id string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (s *MongoRecordStore) GetRecord(id string) (corep.RoutineRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var doc mongoRecordDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return corep.RoutineRecord{}, corep.ErrRecordNotFound
	}
	if err != nil {
		return corep.RoutineRecord{}, err
	}
	return doc.record(), nil
}

func (s *MongoRecordStore) ListRecords() ([]corep.RoutineRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "started_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []corep.RoutineRecord{}
	for cur.Next(ctx) {
		var doc mongoRecordDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.record())
	}
	return out, cur.Err()
}

func (s *MongoRecordStore) Clear() error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := s.coll.DeleteMany(ctx, bson.M{})
	return err
}

func (d mongoRecordDoc) record() corep.RoutineRecord {
	return corep.RoutineRecord{
		RoutineID:  d.ID,
		Provenance: d.Provenance,
		StartedAt:  time.Unix(0, d.StartedAt),
	}
}
