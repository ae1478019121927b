package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smokyabdulrahman/nunggu-bedug/internal/cache"
	"github.com/smokyabdulrahman/nunggu-bedug/internal/prayer"
)

const redisNamespace = "nunggu-bedug:schedule"

// redisClient is the subset of redis.UniversalClient the store needs.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisStore shares schedules between server replicas.
type RedisStore struct {
	client redisClient
	ttl    time.Duration
}

// NewRedisStore connects to a single Redis node.
func NewRedisStore(addr, username, password string, ttl time.Duration) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
		DB:       0,
	})
	return &RedisStore{client: rdb, ttl: ttl}
}

// NewRedisStoreWithClient wraps an existing client, single or cluster.
func NewRedisStoreWithClient(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func redisKey(key cache.Key) string {
	return redisNamespace + ":" + key.Hash()
}

func (r *RedisStore) Get(ctx context.Context, key cache.Key) (*prayer.Schedule, error) {
	raw, err := r.client.Get(ctx, redisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry cache.ScheduleEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, fmt.Errorf("redis entry: %w", err)
	}
	if entry.Key != key {
		return nil, nil
	}

	s := entry.Schedule
	if s.Timezone != "" {
		if loc, err := time.LoadLocation(s.Timezone); err == nil {
			s = s.In(loc)
		}
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("redis entry: %w", err)
	}
	return &s, nil
}

func (r *RedisStore) Set(ctx context.Context, key cache.Key, s prayer.Schedule) error {
	data, err := json.Marshal(cache.ScheduleEntry{Key: key, Schedule: s})
	if err != nil {
		return fmt.Errorf("redis entry: %w", err)
	}
	if err := r.client.Set(ctx, redisKey(key), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
