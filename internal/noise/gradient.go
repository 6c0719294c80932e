package noise

import (
	"github.com/aquilax/go-perlin"
)

// GradientField: градиентный шум Перлина (github.com/aquilax/go-perlin),
// приведённый к диапазону [0, 1). Октавы собираются так же, как у value noise.
type GradientField struct {
	perlin *perlin.Perlin
}

// NewGradientField создаёт градиентное поле с указанным сидом
func NewGradientField(seed int64) *GradientField {
	alpha := 2.0  // Сглаживание шума
	beta := 2.0   // Частота шума
	n := int32(1) // Октавы собираются в composeOctaves
	return &GradientField{perlin: perlin.NewPerlin(alpha, beta, n, seed)}
}

// Perlin возвращает многооктавное значение в [0, 1)
func (g *GradientField) Perlin(x, y float64, octaves int, persistence float64) float64 {
	return composeOctaves(g.sample, x, y, octaves, persistence)
}

func (g *GradientField) sample(x, y float64) float64 {
	// Noise2D возвращает значение в [-1, 1]
	return clampUnit((g.perlin.Noise2D(x, y) + 1.0) / 2.0)
}
