package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации приложения.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Noise     NoiseConfig     `yaml:"noise"`
	Server    ServerConfig    `yaml:"server"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
	Cache     CacheConfig     `yaml:"cache"`
	Journal   JournalConfig   `yaml:"journal"`
}

// NoiseConfig выбирает стратегии шума.
// Hash: "sine" (по умолчанию) или "xxhash"; Relief: "value", "perlin" или "simplex".
type NoiseConfig struct {
	Hash   string `yaml:"hash"`
	Relief string `yaml:"relief"`
}

type ServerConfig struct {
	RESTPort   int             `yaml:"rest_port"`
	AdminToken string          `yaml:"admin_token"` // пусто: мутирующие запросы без проверки
	Webhooks   []WebhookConfig `yaml:"webhooks"`
}

// WebhookConfig исходящий webhook для событий мира
type WebhookConfig struct {
	Name       string   `yaml:"name"`
	URL        string   `yaml:"url"`
	Secret     string   `yaml:"secret"`
	Events     []string `yaml:"events"` // пусто или "*": все события
	TimeoutSec int      `yaml:"timeout_sec"`
	RetryCount int      `yaml:"retry_count"`
}

type EventBusConfig struct {
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
	Buffer    int    `yaml:"buffer"`
}

// JournalConfig журнал событий мира. Пустой dir: журнал в памяти.
type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// CacheConfig кеш артефактов инспектора. Пустой redis_url: кеш в памяти.
type CacheConfig struct {
	RedisURL      string        `yaml:"redis_url"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	TTL           time.Duration `yaml:"ttl"`
	MaxEntries    int           `yaml:"max_entries"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

// GetAdminToken возвращает токен администратора: config -> env WORLD_ADMIN_TOKEN
func (s *ServerConfig) GetAdminToken() string {
	if s.AdminToken != "" {
		return s.AdminToken
	}
	return os.Getenv("WORLD_ADMIN_TOKEN")
}

// GetRESTPort возвращает порт инспектора с приоритетом: config -> env -> default
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "WORLD_REST_PORT", 8088)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Default возвращает конфигурацию со значениями по умолчанию
func Default() *Config {
	return &Config{
		World: DefaultWorld(),
		Noise: NoiseConfig{Hash: HashSine, Relief: ReliefValue},
		EventBus: EventBusConfig{
			Stream:    "WORLD",
			Retention: 24,
			Buffer:    256,
		},
		Telemetry: TelemetryConfig{ServiceName: "adventure-world"},
		Logging:   LoggingConfig{Level: "info"},
		Cache:     CacheConfig{TTL: 10 * time.Minute, MaxEntries: 64},
		Journal:   JournalConfig{Enabled: true},
	}
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать путь из ENV WORLD_CONFIG;
// если и он пуст: возвращает Default().
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("WORLD_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет всю конфигурацию
func (c *Config) Validate() error {
	if err := c.World.Validate(); err != nil {
		return err
	}
	if err := c.Noise.Validate(); err != nil {
		return err
	}
	for i, wh := range c.Server.Webhooks {
		if wh.URL == "" {
			return newConfigError(fmt.Sprintf("server.webhooks[%d].url", i), "must not be empty")
		}
	}
	return nil
}

// Validate проверяет имена стратегий шума
func (n NoiseConfig) Validate() error {
	switch n.Hash {
	case "", HashSine, HashXX:
	default:
		return newConfigError("noise.hash", "unknown hash strategy %q", n.Hash)
	}
	switch n.Relief {
	case "", ReliefValue, ReliefPerlin, ReliefSimplex:
	default:
		return newConfigError("noise.relief", "unknown relief field %q", n.Relief)
	}
	return nil
}
