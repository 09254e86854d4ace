package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore flushes cache entries into a redis hash. Entries are
// namespaced per model so a fresh session against the same model reloads
// what earlier sessions saved.
type RedisStore struct {
	client    redis.UniversalClient
	namespace string
}

// NewRedisStore creates a store writing under "alumnium:cache:<namespace>".
func NewRedisStore(client redis.UniversalClient, namespace string) *RedisStore {
	return &RedisStore{client: client, namespace: namespace}
}

func (s *RedisStore) key() string {
	return "alumnium:cache:" + s.namespace
}

// Load reads all previously flushed entries.
func (s *RedisStore) Load(ctx context.Context) (map[string]Entry, error) {
	raw, err := s.client.HGetAll(ctx, s.key()).Result()
	if err != nil {
		return nil, fmt.Errorf("load cache from redis: %w", err)
	}

	entries := make(map[string]Entry, len(raw))
	for field, value := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(value), &e); err != nil {
			// A corrupt field should not poison the whole cache.
			continue
		}
		entries[field] = e
	}
	return entries, nil
}

// Flush writes the given entries into the hash.
func (s *RedisStore) Flush(ctx context.Context, entries map[string]Entry) error {
	if len(entries) == 0 {
		return nil
	}

	fields := make(map[string]any, len(entries))
	for key, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode cache entry: %w", err)
		}
		fields[key] = data
	}
	if err := s.client.HSet(ctx, s.key(), fields).Err(); err != nil {
		return fmt.Errorf("flush cache to redis: %w", err)
	}
	return nil
}
