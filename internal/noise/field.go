package noise

import (
	"fmt"

	"github.com/annel0/adventure-world/internal/config"
)

// Build создаёт value noise и поле рельефа согласно конфигурации шума
func Build(seed int64, cfg config.NoiseConfig) (*Noise, Field, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	var hash Hash
	switch cfg.Hash {
	case "", config.HashSine:
		hash = SineHash
	case config.HashXX:
		hash = XXHash
	default:
		return nil, nil, fmt.Errorf("unknown noise hash %q", cfg.Hash)
	}

	value := NewWithHash(seed, hash)

	switch cfg.Relief {
	case "", config.ReliefValue:
		return value, value, nil
	case config.ReliefPerlin:
		return value, NewGradientField(seed), nil
	case config.ReliefSimplex:
		return value, NewSimplexField(seed), nil
	default:
		return nil, nil, fmt.Errorf("unknown relief field %q", cfg.Relief)
	}
}
