package persistence

import (
	"context"
	"time"

	corep "github.com/petrijr/framecoro/internal/persistence"
	"github.com/petrijr/framecoro/internal/stats"
	"github.com/petrijr/framecoro/pkg/api"
)

func (m *MongoDBStoreTestSuite) TestMongoRecordStore_SaveGetDelete() {
	started := time.Unix(50, 0)
	rec := corep.RoutineRecord{RoutineID: "r-1", Provenance: "game.spawn\ngame.tick", StartedAt: started}
	m.Require().NoError(m.records.SaveRecord(rec))
	m.ErrorIs(m.records.SaveRecord(rec), api.ErrDuplicateRegistration)

	got, err := m.records.GetRecord("r-1")
	m.Require().NoError(err)
	m.Equal(rec.Provenance, got.Provenance)
	m.True(got.StartedAt.Equal(started))

	deleted, err := m.records.DeleteRecord("r-1")
	m.Require().NoError(err)
	m.True(deleted)

	deleted, err = m.records.DeleteRecord("r-1")
	m.Require().NoError(err)
	m.False(deleted)

	_, err = m.records.GetRecord("r-1")
	m.ErrorIs(err, corep.ErrRecordNotFound)
}

func (m *MongoDBStoreTestSuite) TestMongoRecordStore_ListAndClear() {
	m.Require().NoError(m.records.SaveRecord(corep.RoutineRecord{RoutineID: "late", Provenance: "a", StartedAt: time.Unix(9, 0)}))
	m.Require().NoError(m.records.SaveRecord(corep.RoutineRecord{RoutineID: "early", Provenance: "b", StartedAt: time.Unix(1, 0)}))

	list, err := m.records.ListRecords()
	m.Require().NoError(err)
	m.Require().Len(list, 2)
	m.Equal("early", list[0].RoutineID)
	m.Equal("late", list[1].RoutineID)

	m.Require().NoError(m.records.Clear())
	list, err = m.records.ListRecords()
	m.Require().NoError(err)
	m.Empty(list)
}

func (m *MongoDBStoreTestSuite) TestMongoEventStore_AppendList() {
	ctx := context.Background()
	at := time.Unix(10, 0)
	m.Require().NoError(m.events.AppendEvent(ctx, api.RoutineEvent{RoutineID: "a", At: at, Type: api.EventRoutineStarted}))
	m.Require().NoError(m.events.AppendEvent(ctx, api.RoutineEvent{RoutineID: "b", At: at, Type: api.EventRoutineStarted}))
	m.Require().NoError(m.events.AppendEvent(ctx, api.RoutineEvent{RoutineID: "a", At: at, Type: api.EventRoutineCompleted}))

	all, err := m.events.ListEvents(ctx, "")
	m.Require().NoError(err)
	m.Len(all, 3)

	onlyA, err := m.events.ListEvents(ctx, "a")
	m.Require().NoError(err)
	m.Require().Len(onlyA, 2)
	m.Equal(api.EventRoutineStarted, onlyA[0].Type)
	m.Equal(api.EventRoutineCompleted, onlyA[1].Type)
}

func (m *MongoDBStoreTestSuite) TestStatisticsOverMongo() {
	st := stats.New(corep.Persistence{Records: m.records, Events: m.events}, nil)

	m.Require().NoError(st.Add("r1", "game.spawn"))
	m.ErrorIs(st.Add("r1", "game.spawn"), api.ErrDuplicateRegistration)
	m.Require().NoError(st.Remove("r1"))

	snap, err := st.Snapshot()
	m.Require().NoError(err)
	m.Empty(snap)
	m.Equal(stats.Totals{Starts: 1, Stops: 1}, st.Totals())
}
