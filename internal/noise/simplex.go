package noise

import (
	opensimplex "github.com/ojrac/opensimplex-go"
)

// SimplexField: OpenSimplex шум (github.com/ojrac/opensimplex-go) в диапазоне [0, 1)
type SimplexField struct {
	noise opensimplex.Noise
}

// NewSimplexField создаёт симплекс-поле с указанным сидом
func NewSimplexField(seed int64) *SimplexField {
	return &SimplexField{noise: opensimplex.NewNormalized(seed)}
}

// Perlin возвращает многооктавное значение в [0, 1)
func (s *SimplexField) Perlin(x, y float64, octaves int, persistence float64) float64 {
	return composeOctaves(s.sample, x, y, octaves, persistence)
}

func (s *SimplexField) sample(x, y float64) float64 {
	return clampUnit(s.noise.Eval2(x, y))
}
