package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"libraStats/internal/model"
)

// RedisStore shares entries between replicas under <prefix>:<kind>.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	expiry time.Duration
}

// NewRedisStore connects to redisURL. Keys expire after expiry so a stopped
// deployment leaves nothing behind; freshness is still decided by Memo.
func NewRedisStore(ctx context.Context, redisURL, password, prefix string, expiry time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if password != "" {
		opts.Password = password
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStore{rdb: rdb, prefix: prefix, expiry: expiry}, nil
}

// Close shuts down the Redis connection.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func (s *RedisStore) Load(ctx context.Context, kind model.MetricKind) (Entry, bool, error) {
	raw, err := s.rdb.Get(ctx, s.key(kind)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return Entry{}, false, fmt.Errorf("decode cache entry %s: %w", kind, err)
	}
	return entry, true, nil
}

func (s *RedisStore) Save(ctx context.Context, kind model.MetricKind, entry Entry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", kind, err)
	}
	return s.rdb.Set(ctx, s.key(kind), raw, s.expiry).Err()
}

func (s *RedisStore) key(kind model.MetricKind) string {
	return keyFor(s.prefix, kind)
}

func keyFor(prefix string, kind model.MetricKind) string {
	if prefix == "" {
		return string(kind)
	}
	return prefix + ":" + string(kind)
}
