package wallet

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const traceKeyPrefix = "wallet:trace:"

var encodeTrace = func(trace Trace) ([]byte, error) { return json.Marshal(trace) }

// RedisTraceStore claims trace ids with SET NX; the key TTL is the
// retention window, so Purge has nothing to do. The claim and the credit
// are separate writes here: a credit that errors keeps its claim, trading a
// possibly lost reward for never crediting a trace twice.
type RedisTraceStore struct {
	client    *redis.Client
	retention time.Duration
}

func NewRedisTraceStore(client *redis.Client, retention time.Duration) *RedisTraceStore {
	if retention <= 0 {
		retention = DefaultTraceRetention
	}
	return &RedisTraceStore{client: client, retention: retention}
}

func (s *RedisTraceStore) Claim(ctx context.Context, trace Trace) error {
	payload, err := encodeTrace(trace)
	if err != nil {
		return storageErr("claim trace", err)
	}

	ok, err := s.client.SetNX(ctx, traceKeyPrefix+trace.TraceID, payload, s.retention).Result()
	if err != nil {
		return storageErr("claim trace", err)
	}
	if !ok {
		return ErrDuplicateReward
	}
	return nil
}

func (s *RedisTraceStore) Release(ctx context.Context, traceID string) error {
	if err := s.client.Del(ctx, traceKeyPrefix+traceID).Err(); err != nil {
		return storageErr("release trace", err)
	}
	return nil
}

func (s *RedisTraceStore) Purge(context.Context, time.Time) (int64, error) {
	return 0, nil
}
