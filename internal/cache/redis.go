// SPDX-License-Identifier: MIT

package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string // Redis server address (host:port)
	Password string // Redis password (optional)
	DB       int    // Redis database number
	TTL      time.Duration
}

// RedisStore shares segments between processes through Redis.
// Keys are scoped by namespace so namespaces can be dropped independently.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger zerolog.Logger
	bytes  atomic.Int64
	stats  struct {
		hits   atomic.Int64
		misses atomic.Int64
		sets   atomic.Int64
	}
}

// NewRedisStore connects and pings the server.
func NewRedisStore(ctx context.Context, namespace string, cfg RedisConfig, logger zerolog.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info().
		Str("addr", cfg.Addr).
		Int("db", cfg.DB).
		Str("namespace", namespace).
		Msg("connected to Redis segment cache")

	return &RedisStore{
		client: client,
		prefix: "playctl:cache:" + namespace + ":",
		ttl:    cfg.TTL,
		logger: logger,
	}, nil
}

func (s *RedisStore) Get(key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	val, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		s.stats.misses.Add(1)
		return nil, false
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("redis get failed")
		s.stats.misses.Add(1)
		return nil, false
	}

	s.stats.hits.Add(1)
	return val, true
}

func (s *RedisStore) Put(key string, data []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.client.Set(ctx, s.prefix+key, data, s.ttl).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("redis set failed")
		return
	}
	s.bytes.Add(int64(len(data)))
	s.stats.sets.Add(1)
}

func (s *RedisStore) Delete(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	n, err := s.client.StrLen(ctx, s.prefix+key).Result()
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("redis strlen failed")
	}
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("redis delete failed")
		return
	}
	s.bytes.Add(-n)
}

// Size counts bytes written by this process. Expired keys are not subtracted.
func (s *RedisStore) Size() int64 {
	return s.bytes.Load()
}

func (s *RedisStore) Stats() Stats {
	return Stats{
		Hits:    s.stats.hits.Load(),
		Misses:  s.stats.misses.Load(),
		Sets:    s.stats.sets.Load(),
		Entries: -1,
	}
}

// Close closes the Redis connection. Cached segments stay in Redis until their TTL.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// HealthCheck checks if Redis is available.
func (s *RedisStore) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
