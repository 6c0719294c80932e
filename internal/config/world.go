package config

import (
	"errors"
	"fmt"
)

// Стратегии шума
const (
	HashSine = "sine"
	HashXX   = "xxhash"

	ReliefValue   = "value"
	ReliefPerlin  = "perlin"
	ReliefSimplex = "simplex"
)

// ErrInvalidConfig: общий признак ошибок конфигурации для errors.Is
var ErrInvalidConfig = errors.New("invalid world config")

// ConfigurationError описывает недопустимое значение конкретного поля
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid world config: %s: %s", e.Field, e.Reason)
}

// Is позволяет сравнивать с ErrInvalidConfig
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfig
}

func newConfigError(field, format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ExpansionConfig параметры расширения карты при приближении игрока к краю
type ExpansionConfig struct {
	Enabled         bool    `yaml:"enabled" json:"enabled"`
	MaxTerrainSize  float64 `yaml:"max_terrain_size" json:"max_terrain_size"`
	TriggerDistance float64 `yaml:"trigger_distance" json:"trigger_distance"`
	ChunkSize       float64 `yaml:"chunk_size" json:"chunk_size"`
	Async           bool    `yaml:"async" json:"async"`
}

// WorldConfig неизменяемые параметры одного цикла генерации
type WorldConfig struct {
	Seed                int64   `yaml:"seed" json:"seed"`
	TerrainSize         float64 `yaml:"terrain_size" json:"terrain_size"`
	TerrainSubdivisions int     `yaml:"terrain_subdivisions" json:"terrain_subdivisions"`
	HeightVariation     float64 `yaml:"height_variation" json:"height_variation"`
	NoiseScale          float64 `yaml:"noise_scale" json:"noise_scale"`
	TextureDetail       int     `yaml:"texture_detail" json:"texture_detail"`

	HillCount     int `yaml:"hill_count" json:"hill_count"`
	TreeCount     int `yaml:"tree_count" json:"tree_count"`
	TreasureCount int `yaml:"treasure_count" json:"treasure_count"`
	CrystalCount  int `yaml:"crystal_count" json:"crystal_count"`
	BushCount     int `yaml:"bush_count" json:"bush_count"`
	RockCount     int `yaml:"rock_count" json:"rock_count"`

	ObjectDensity float64         `yaml:"object_density" json:"object_density"`
	Expansion     ExpansionConfig `yaml:"expansion" json:"expansion"`
}

// DefaultWorld возвращает параметры мира по умолчанию
func DefaultWorld() WorldConfig {
	return WorldConfig{
		Seed:                12345,
		TerrainSize:         100,
		TerrainSubdivisions: 64,
		HeightVariation:     2,
		NoiseScale:          0.05,
		TextureDetail:       512,
		HillCount:           12,
		TreeCount:           25,
		TreasureCount:       6,
		CrystalCount:        10,
		BushCount:           30,
		RockCount:           20,
		ObjectDensity:       1.0,
		Expansion: ExpansionConfig{
			Enabled:         true,
			MaxTerrainSize:  400,
			TriggerDistance: 20,
			ChunkSize:       50,
		},
	}
}

// Validate проверяет инварианты конфигурации мира. Значения никогда не зажимаются молча.
func (c WorldConfig) Validate() error {
	if c.TerrainSize <= 0 {
		return newConfigError("terrain_size", "must be positive, got %v", c.TerrainSize)
	}
	if c.TerrainSubdivisions <= 0 {
		return newConfigError("terrain_subdivisions", "must be positive, got %d", c.TerrainSubdivisions)
	}
	if c.HeightVariation < 0 {
		return newConfigError("height_variation", "must not be negative, got %v", c.HeightVariation)
	}
	if c.NoiseScale <= 0 {
		return newConfigError("noise_scale", "must be positive, got %v", c.NoiseScale)
	}
	if c.TextureDetail <= 0 {
		return newConfigError("texture_detail", "must be positive, got %d", c.TextureDetail)
	}
	counts := []struct {
		field string
		value int
	}{
		{"hill_count", c.HillCount},
		{"tree_count", c.TreeCount},
		{"treasure_count", c.TreasureCount},
		{"crystal_count", c.CrystalCount},
		{"bush_count", c.BushCount},
		{"rock_count", c.RockCount},
	}
	for _, cnt := range counts {
		if cnt.value < 0 {
			return newConfigError(cnt.field, "must not be negative, got %d", cnt.value)
		}
	}
	if c.ObjectDensity < 0 {
		return newConfigError("object_density", "must not be negative, got %v", c.ObjectDensity)
	}
	if c.Expansion.MaxTerrainSize < c.TerrainSize {
		return newConfigError("expansion.max_terrain_size", "%v is smaller than terrain_size %v",
			c.Expansion.MaxTerrainSize, c.TerrainSize)
	}
	if c.Expansion.Enabled {
		if c.Expansion.ChunkSize <= 0 {
			return newConfigError("expansion.chunk_size", "must be positive when expansion is enabled, got %v", c.Expansion.ChunkSize)
		}
		if c.Expansion.TriggerDistance < 0 {
			return newConfigError("expansion.trigger_distance", "must not be negative, got %v", c.Expansion.TriggerDistance)
		}
	}
	return nil
}

// ScaledCount применяет плотность объектов к базовому количеству
func (c WorldConfig) ScaledCount(base int) int {
	return roundCount(float64(base) * c.ObjectDensity)
}

func roundCount(v float64) int {
	if v <= 0 {
		return 0
	}
	return int(v + 0.5)
}
