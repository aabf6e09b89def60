package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/davemarchant/offerbuilder/internal/models"
)

// RedisStore wraps a redis client and context for operations. It holds the
// best-effort snapshot of each editor session's collection so a host can
// resume an interrupted session by id.
type RedisStore struct {
	Client *redis.Client
	Ctx    context.Context
}

// InitRedis initializes a Redis client and returns a RedisStore.
func InitRedis(addr string) (*RedisStore, error) {
	rs := &RedisStore{
		Client: redis.NewClient(&redis.Options{Addr: addr}),
		Ctx:    context.Background(),
	}

	// Add OpenTelemetry instrumentation to Redis client
	if err := redisotel.InstrumentTracing(rs.Client); err != nil {
		return nil, fmt.Errorf("failed to instrument redis tracing: %w", err)
	}

	if err := rs.Client.Ping(rs.Ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	zap.L().Info("Connected to Redis", zap.String("addr", addr))
	return rs, nil
}

func collectionKey(sessionID string) string {
	return fmt.Sprintf("offersession:%s", sessionID)
}

// SaveCollection snapshots a session's ordered offer list under its session
// id with the given TTL. Each save refreshes the TTL.
func (r *RedisStore) SaveCollection(sessionID string, items []models.OfferItem, ttl time.Duration) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal collection: %w", err)
	}
	return r.Client.Set(r.Ctx, collectionKey(sessionID), payload, ttl).Err()
}

// LoadCollection returns the snapshot for a session id, or (nil, nil) when
// none exists.
func (r *RedisStore) LoadCollection(sessionID string) ([]models.OfferItem, error) {
	raw, err := r.Client.Get(r.Ctx, collectionKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var items []models.OfferItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("unmarshal collection: %w", err)
	}
	return items, nil
}

// DeleteCollection drops a session's snapshot, typically after submit.
func (r *RedisStore) DeleteCollection(sessionID string) error {
	return r.Client.Del(r.Ctx, collectionKey(sessionID)).Err()
}

// Close shuts down the Redis client.
func (r *RedisStore) Close() {
	if r != nil && r.Client != nil {
		if err := r.Client.Close(); err != nil {
			zap.L().Error("redis close", zap.Error(err))
		}
	}
}
