package persistence

import (
	"context"
	"time"

	corep "github.com/petrijr/framecoro/internal/persistence"
	"github.com/petrijr/framecoro/internal/stats"
	"github.com/petrijr/framecoro/pkg/api"
)

func (p *PostgresStoreTestSuite) TestPostgresRecordStore_SaveGetDelete() {
	started := time.Unix(7, 42)
	rec := corep.RoutineRecord{RoutineID: "r-1", Provenance: "game.spawn\ngame.tick", StartedAt: started}
	p.Require().NoError(p.records.SaveRecord(rec))
	p.ErrorIs(p.records.SaveRecord(rec), api.ErrDuplicateRegistration)

	got, err := p.records.GetRecord("r-1")
	p.Require().NoError(err)
	p.Equal(rec.Provenance, got.Provenance)
	p.True(got.StartedAt.Equal(started))

	deleted, err := p.records.DeleteRecord("r-1")
	p.Require().NoError(err)
	p.True(deleted)

	deleted, err = p.records.DeleteRecord("r-1")
	p.Require().NoError(err)
	p.False(deleted)

	_, err = p.records.GetRecord("r-1")
	p.ErrorIs(err, corep.ErrRecordNotFound)
}

func (p *PostgresStoreTestSuite) TestPostgresRecordStore_ListAndClear() {
	p.Require().NoError(p.records.SaveRecord(corep.RoutineRecord{RoutineID: "b", Provenance: "x", StartedAt: time.Unix(5, 0)}))
	p.Require().NoError(p.records.SaveRecord(corep.RoutineRecord{RoutineID: "a", Provenance: "y", StartedAt: time.Unix(5, 0)}))
	p.Require().NoError(p.records.SaveRecord(corep.RoutineRecord{RoutineID: "c", Provenance: "z", StartedAt: time.Unix(1, 0)}))

	list, err := p.records.ListRecords()
	p.Require().NoError(err)
	p.Require().Len(list, 3)
	p.Equal("c", list[0].RoutineID)
	p.Equal("a", list[1].RoutineID)
	p.Equal("b", list[2].RoutineID)

	p.Require().NoError(p.records.Clear())
	list, err = p.records.ListRecords()
	p.Require().NoError(err)
	p.Empty(list)
}

func (p *PostgresStoreTestSuite) TestPostgresEventStore_AppendList() {
	ctx := context.Background()
	p.Require().NoError(p.events.AppendEvent(ctx, api.RoutineEvent{RoutineID: "a", Type: api.EventRoutineStarted, Detail: "game.spawn"}))
	p.Require().NoError(p.events.AppendEvent(ctx, api.RoutineEvent{RoutineID: "b", Type: api.EventRoutineStarted}))
	p.Require().NoError(p.events.AppendEvent(ctx, api.RoutineEvent{RoutineID: "a", Type: api.EventRoutineStopped}))

	all, err := p.events.ListEvents(ctx, "")
	p.Require().NoError(err)
	p.Len(all, 3)

	onlyA, err := p.events.ListEvents(ctx, "a")
	p.Require().NoError(err)
	p.Require().Len(onlyA, 2)
	p.Equal("game.spawn", onlyA[0].Detail)
	p.Equal(api.EventRoutineStopped, onlyA[1].Type)
}

func (p *PostgresStoreTestSuite) TestStatisticsOverPostgres() {
	st := stats.New(corep.Persistence{Records: p.records, Events: p.events}, nil)

	p.Require().NoError(st.Add("r1", "game.spawn\ngame.update"))
	p.Require().NoError(st.Add("r2", "game.blink"))

	snap, err := st.Snapshot()
	p.Require().NoError(err)
	p.Len(snap, 2)
	p.Equal([]string{"game.spawn", "game.update"}, snap["r1"])

	p.Require().NoError(st.Erase())
	snap, err = st.Snapshot()
	p.Require().NoError(err)
	p.Empty(snap)
	p.Equal(stats.Totals{}, st.Totals())

	history, err := st.History(context.Background(), "r1")
	p.Require().NoError(err)
	p.Len(history, 1)
}
