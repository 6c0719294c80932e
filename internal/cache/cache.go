// Package cache хранит готовые артефакты мира (сжатую карту высот, PNG текстуры).
// Ключи адресуются отпечатком входов генерации, поэтому записи не устаревают
// и инвалидация не нужна: достаточно TTL.
package cache

import (
	"context"
	"errors"
	"time"
)

// ArtifactCache: хранилище байтовых артефактов по ключу
type ArtifactCache interface {
	// Get возвращает ErrCacheMiss, если ключ не найден или истёк.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set сохраняет значение; ttl = 0: TTL по умолчанию.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Stats() Stats
	Close() error
}

// Stats: счётчики обращений к кешу
type Stats struct {
	Backend  string  `json:"backend"`
	Requests int64   `json:"requests"`
	Hits     int64   `json:"hits"`
	Misses   int64   `json:"misses"`
	Errors   int64   `json:"errors"`
	HitRatio float64 `json:"hit_ratio"`
	Keys     int     `json:"keys,omitempty"`
}

// Config: параметры кеша. Пустой RedisURL: кеш в памяти.
type Config struct {
	RedisURL      string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
	MaxEntries    int
}

// ErrCacheMiss: ключ отсутствует в кеше
var ErrCacheMiss = errors.New("cache miss")

const (
	defaultTTL        = 10 * time.Minute
	defaultMaxEntries = 64
)

// New создаёт Redis кеш при заданном RedisURL, иначе кеш в памяти
func New(cfg Config) (ArtifactCache, error) {
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.RedisURL == "" {
		return NewMemoryCache(cfg.TTL, cfg.MaxEntries), nil
	}
	return NewRedisCache(cfg)
}

// ratio считает долю попаданий
func ratio(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
