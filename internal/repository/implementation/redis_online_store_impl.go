// FILE: internal/repository/implementation/redis_online_store_impl.go
// Redis-backed low-latency store adapter
package implementation

import (
	"context"

	"github.com/redis/go-redis/v9"

	"feature-store-be/internal/apperrors"
	"feature-store-be/internal/repository/contract"
)

// RedisOnlineStore keeps one hash per (group, entityId) key under
// "<group>:<entityId>". A write replaces the whole hash inside a MULTI/EXEC
// pipeline so readers never observe a half-written record.
type RedisOnlineStore struct {
	client *redis.Client
}

func NewRedisOnlineStore(client *redis.Client) contract.OnlineStore {
	return &RedisOnlineStore{client: client}
}

func onlineKey(group, entityID string) string {
	return group + ":" + entityID
}

func (s *RedisOnlineStore) Write(ctx context.Context, group, entityID string, values map[string]string) error {
	key := onlineKey(group, entityID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, values)
		return nil
	})
	if err != nil {
		return &apperrors.StoreUnavailableError{Tier: "online", Cause: err}
	}
	return nil
}

func (s *RedisOnlineStore) Read(ctx context.Context, group, entityID string) (map[string]string, bool, error) {
	values, err := s.client.HGetAll(ctx, onlineKey(group, entityID)).Result()
	if err != nil {
		return nil, false, &apperrors.StoreUnavailableError{Tier: "online", Cause: err}
	}
	if len(values) == 0 {
		return nil, false, nil
	}
	return values, true, nil
}

func (s *RedisOnlineStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return &apperrors.StoreUnavailableError{Tier: "online", Cause: err}
	}
	return nil
}
