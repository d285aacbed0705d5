package persistence

import (
	"bytes"
	"context"
	"encoding/gob"
	"time"

	"github.com/redis/go-redis/v9"

	corep "github.com/petrijr/framecoro/internal/persistence"
	"github.com/petrijr/framecoro/pkg/api"
)

// RedisEventStore is an EventStore backed by Redis lists:
//
//	<prefix>events        => LIST of every event, oldest first
//	<prefix>events:<id>   => LIST of one routine's events
type RedisEventStore struct {
	client *redis.Client
	prefix string
}

var _ corep.EventStore = (*RedisEventStore)(nil)

type redisEventPayload struct {
	RoutineID string
	At        int64
	Type      string
	Detail    string
}

func NewRedisEventStore(client *redis.Client, prefix string) *RedisEventStore {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &RedisEventStore{client: client, prefix: prefix}
}

func (r *RedisEventStore) keyAll() string {
	return r.prefix + "events"
}

func (r *RedisEventStore) keyRoutine(id string) string {
	return r.prefix + "events:" + id
}

func (r *RedisEventStore) AppendEvent(ctx context.Context, ev api.RoutineEvent) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(redisEventPayload{
		RoutineID: ev.RoutineID,
		At:        at.UnixNano(),
		Type:      string(ev.Type),
		Detail:    ev.Detail,
	}); err != nil {
		return err
	}
	data := buf.Bytes()

	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, r.keyAll(), data)
	pipe.RPush(ctx, r.keyRoutine(ev.RoutineID), data)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisEventStore) ListEvents(ctx context.Context, routineID string) ([]api.RoutineEvent, error) {
	key := r.keyAll()
	if routineID != "" {
		key = r.keyRoutine(routineID)
	}

	items, err := r.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	out := make([]api.RoutineEvent, 0, len(items))
	for _, item := range items {
		var payload redisEventPayload
		if err := gob.NewDecoder(bytes.NewReader([]byte(item))).Decode(&payload); err != nil {
			return nil, err
		}
		out = append(out, api.RoutineEvent{
			RoutineID: payload.RoutineID,
			At:        time.Unix(0, payload.At),
			Type:      api.EventType(payload.Type),
			Detail:    payload.Detail,
		})
	}
	return out, nil
}
