package persistence

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	corep "github.com/petrijr/framecoro/internal/persistence"
	"github.com/petrijr/framecoro/pkg/api"
)

const defaultPrefix = "framecoro:"

// RedisRecordStore is a RecordStore backed by Redis.
// It uses a simple key structure:
//
//	<prefix>rec:<id>      => HASH {provenance, started_at}
//	<prefix>idx:records   => ZSET of routine IDs scored by start time (ns)
type RedisRecordStore struct {
	client *redis.Client
	prefix string
}

var _ corep.RecordStore = (*RedisRecordStore)(nil)

// NewRedisRecordStore creates a RedisRecordStore.
// prefix is optional but recommended (e.g. "game:").
func NewRedisRecordStore(client *redis.Client, prefix string) *RedisRecordStore {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &RedisRecordStore{
		client: client,
		prefix: prefix,
	}
}

func (r *RedisRecordStore) keyRecord(id string) string {
	return r.prefix + "rec:" + id
}

func (r *RedisRecordStore) keyIndex() string {
	return r.prefix + "idx:records"
}

func (r *RedisRecordStore) SaveRecord(rec corep.RoutineRecord) error {
	ctx := context.Background()

	startedAt := rec.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}

	// HSETNX on the first field doubles as the duplicate check.
	created, err := r.client.HSetNX(ctx, r.keyRecord(rec.RoutineID), "provenance", rec.Provenance).Result()
	if err != nil {
		return err
	}
	if !created {
		return api.ErrDuplicateRegistration
	}

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, r.keyRecord(rec.RoutineID), "started_at", startedAt.UnixNano())
	pipe.ZAdd(ctx, r.keyIndex(), redis.Z{Score: float64(startedAt.UnixNano()), Member: rec.RoutineID})
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisRecordStore) DeleteRecord(id string) (bool, error) {
	ctx := context.Background()

	n, err := r.client.Del(ctx, r.keyRecord(id)).Result()
	if err != nil {
		return false, err
	}
	// Index cleanup is best-effort; ListRecords skips dangling entries.
	_ = r.client.ZRem(ctx, r.keyIndex(), id).Err()
	return n > 0, nil
}

func (r *RedisRecordStore) GetRecord(id string) (corep.RoutineRecord, error) {
	ctx := context.Background()

	fields, err := r.client.HGetAll(ctx, r.keyRecord(id)).Result()
	if err != nil {
		return corep.RoutineRecord{}, err
	}
	if len(fields) == 0 {
		return corep.RoutineRecord{}, corep.ErrRecordNotFound
	}
	return decodeRecord(id, fields)
}

func (r *RedisRecordStore) ListRecords() ([]corep.RoutineRecord, error) {
	ctx := context.Background()

	ids, err := r.client.ZRange(ctx, r.keyIndex(), 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []corep.RoutineRecord{}, nil
		}
		return nil, err
	}
	if len(ids) == 0 {
		return []corep.RoutineRecord{}, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, r.keyRecord(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	out := make([]corep.RoutineRecord, 0, len(ids))
	for i, cmd := range cmds {
		fields, err := cmd.Result()
		if err != nil {
			return nil, err
		}
		if len(fields) == 0 {
			continue
		}
		rec, err := decodeRecord(ids[i], fields)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *RedisRecordStore) Clear() error {
	ctx := context.Background()

	ids, err := r.client.ZRange(ctx, r.keyIndex(), 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, r.keyRecord(id))
	}
	keys = append(keys, r.keyIndex())
	return r.client.Del(ctx, keys...).Err()
}

func decodeRecord(id string, fields map[string]string) (corep.RoutineRecord, error) {
	rec := corep.RoutineRecord{
		RoutineID:  id,
		Provenance: fields["provenance"],
	}
	if raw, ok := fields["started_at"]; ok {
		ns, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return corep.RoutineRecord{}, err
		}
		rec.StartedAt = time.Unix(0, ns)
	}
	return rec, nil
}
