package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/annel0/adventure-world/internal/logging"
	"github.com/go-redis/redis/v8"
)

// keyPrefix отделяет артефакты мира от остальных ключей Redis
const keyPrefix = "world:artifact:"

// RedisCache: общий кеш артефактов для нескольких инспекторов
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration

	hits   int64
	misses int64
	errors int64
}

// NewRedisCache подключается к Redis и проверяет соединение
func NewRedisCache(cfg Config) (*RedisCache, error) {
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisURL,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.Info("Redis cache initialized: %s (ttl %v)", cfg.RedisURL, cfg.TTL)
	return &RedisCache{client: rdb, ttl: cfg.TTL}, nil
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	switch {
	case err == nil:
		atomic.AddInt64(&r.hits, 1)
		return val, nil
	case errors.Is(err, redis.Nil):
		atomic.AddInt64(&r.misses, 1)
		return nil, ErrCacheMiss
	default:
		atomic.AddInt64(&r.misses, 1)
		atomic.AddInt64(&r.errors, 1)
		logging.Error("Redis Get error for key %s: %v", key, err)
		return nil, fmt.Errorf("redis get error: %w", err)
	}
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.ttl
	}
	if err := r.client.Set(ctx, keyPrefix+key, value, ttl).Err(); err != nil {
		atomic.AddInt64(&r.errors, 1)
		logging.Error("Redis Set error for key %s: %v", key, err)
		return fmt.Errorf("redis set error: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		atomic.AddInt64(&r.errors, 1)
		return fmt.Errorf("redis delete error: %w", err)
	}
	return nil
}

func (r *RedisCache) Stats() Stats {
	hits := atomic.LoadInt64(&r.hits)
	misses := atomic.LoadInt64(&r.misses)
	return Stats{
		Backend:  "redis",
		Requests: hits + misses,
		Hits:     hits,
		Misses:   misses,
		Errors:   atomic.LoadInt64(&r.errors),
		HitRatio: ratio(hits, misses),
	}
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
