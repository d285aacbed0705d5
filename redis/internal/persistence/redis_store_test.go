package persistence

import (
	"time"

	corep "github.com/petrijr/framecoro/internal/persistence"
	"github.com/petrijr/framecoro/internal/stats"
	"github.com/petrijr/framecoro/pkg/api"
)

func (r *RedisStoreTestSuite) TestRedisRecordStore_SaveGetDelete() {
	started := time.Unix(100, 5)
	rec := corep.RoutineRecord{RoutineID: "r-1", Provenance: "main.run\nmain.main", StartedAt: started}
	r.Require().NoError(r.records.SaveRecord(rec))

	got, err := r.records.GetRecord("r-1")
	r.Require().NoError(err)
	r.Equal(rec.Provenance, got.Provenance)
	r.True(got.StartedAt.Equal(started))

	r.ErrorIs(r.records.SaveRecord(rec), api.ErrDuplicateRegistration)

	deleted, err := r.records.DeleteRecord("r-1")
	r.Require().NoError(err)
	r.True(deleted)

	deleted, err = r.records.DeleteRecord("r-1")
	r.Require().NoError(err)
	r.False(deleted)

	_, err = r.records.GetRecord("r-1")
	r.ErrorIs(err, corep.ErrRecordNotFound)
}

func (r *RedisStoreTestSuite) TestRedisRecordStore_ListOrderAndClear() {
	r.Require().NoError(r.records.SaveRecord(corep.RoutineRecord{RoutineID: "b", Provenance: "x", StartedAt: time.Unix(2, 0)}))
	r.Require().NoError(r.records.SaveRecord(corep.RoutineRecord{RoutineID: "a", Provenance: "y", StartedAt: time.Unix(3, 0)}))
	r.Require().NoError(r.records.SaveRecord(corep.RoutineRecord{RoutineID: "c", Provenance: "z", StartedAt: time.Unix(1, 0)}))

	list, err := r.records.ListRecords()
	r.Require().NoError(err)
	r.Require().Len(list, 3)
	r.Equal([]string{"c", "b", "a"}, []string{list[0].RoutineID, list[1].RoutineID, list[2].RoutineID})

	r.Require().NoError(r.records.Clear())
	list, err = r.records.ListRecords()
	r.Require().NoError(err)
	r.Empty(list)

	// Ids are free again.
	r.NoError(r.records.SaveRecord(corep.RoutineRecord{RoutineID: "a", Provenance: "again"}))
}

func (r *RedisStoreTestSuite) TestRedisEventStore_AppendList() {
	r.Require().NoError(r.events.AppendEvent(r.ctx, api.RoutineEvent{RoutineID: "a", Type: api.EventRoutineStarted, Detail: "main.main"}))
	r.Require().NoError(r.events.AppendEvent(r.ctx, api.RoutineEvent{RoutineID: "b", Type: api.EventRoutineStarted}))
	r.Require().NoError(r.events.AppendEvent(r.ctx, api.RoutineEvent{RoutineID: "a", Type: api.EventRoutineOrphaned}))

	all, err := r.events.ListEvents(r.ctx, "")
	r.Require().NoError(err)
	r.Len(all, 3)

	onlyA, err := r.events.ListEvents(r.ctx, "a")
	r.Require().NoError(err)
	r.Require().Len(onlyA, 2)
	r.Equal(api.EventRoutineStarted, onlyA[0].Type)
	r.Equal("main.main", onlyA[0].Detail)
	r.Equal(api.EventRoutineOrphaned, onlyA[1].Type)
	r.False(onlyA[0].At.IsZero())

	none, err := r.events.ListEvents(r.ctx, "missing")
	r.Require().NoError(err)
	r.Empty(none)
}

func (r *RedisStoreTestSuite) TestStatisticsOverRedis() {
	st := stats.New(corep.Persistence{Records: r.records, Events: r.events}, nil)

	r.Require().NoError(st.Add("r1", "game.spawn\ngame.update"))
	r.ErrorIs(st.Add("r1", "again"), api.ErrDuplicateRegistration)

	snap, err := st.Snapshot()
	r.Require().NoError(err)
	r.Equal([]string{"game.spawn", "game.update"}, snap["r1"])

	r.Require().NoError(st.Remove("r1"))
	r.Require().NoError(st.Remove("r1"))
	r.Equal(stats.Totals{Starts: 1, Stops: 1, Live: 0}, st.Totals())
}
