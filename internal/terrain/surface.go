package terrain

import (
	"context"
	"fmt"
	"time"

	"github.com/annel0/adventure-world/internal/config"
	"github.com/annel0/adventure-world/internal/logging"
	"github.com/annel0/adventure-world/internal/noise"
)

// Spec: параметры одной поверхности
type Spec struct {
	HeightParams
	TextureDetail int
}

// SpecFor строит Spec из конфигурации мира для заданного размера
func SpecFor(cfg config.WorldConfig, size float64) Spec {
	return Spec{
		HeightParams: HeightParams{
			Size:            size,
			Subdivisions:    cfg.TerrainSubdivisions,
			HeightVariation: cfg.HeightVariation,
			NoiseScale:      cfg.NoiseScale,
		},
		TextureDetail: cfg.TextureDetail,
	}
}

// Surface: земля мира: сетка с рельефом и текстура.
// Не содержит объектов рендера; их создаёт движок по этим данным.
type Surface struct {
	Spec    Spec
	Mesh    *Mesh
	Texture *Texture
	field   noise.Field
}

// Build строит сетку и текстуру поверхности
func Build(ctx context.Context, spec Spec, value *noise.Noise, field noise.Field) (*Surface, error) {
	if spec.Size <= 0 || spec.Subdivisions <= 0 || spec.TextureDetail <= 0 {
		return nil, fmt.Errorf("terrain: invalid spec size=%v subdivisions=%d detail=%d",
			spec.Size, spec.Subdivisions, spec.TextureDetail)
	}

	start := time.Now()
	mesh, err := BuildMesh(ctx, spec.HeightParams, field)
	if err != nil {
		return nil, fmt.Errorf("terrain mesh: %w", err)
	}

	texture, err := BuildTexture(ctx, spec.TextureDetail, value)
	if err != nil {
		return nil, fmt.Errorf("terrain texture: %w", err)
	}

	logging.GetTerrainLogger().Debug("Поверхность %.0fx%.0f построена: %d вершин, текстура %dpx (%d слоёв) за %s",
		spec.Size, spec.Size, mesh.VertexCount(), texture.Detail, len(texture.Layers), time.Since(start))

	return &Surface{Spec: spec, Mesh: mesh, Texture: texture, field: field}, nil
}

// Size возвращает сторону поверхности
func (s *Surface) Size() float64 {
	return s.Spec.Size
}

// HeightAt возвращает точную высоту рельефа в мировой точке
func (s *Surface) HeightAt(x, z float64) float64 {
	return s.Spec.HeightAt(s.field, x, z)
}

// Contains проверяет, лежит ли точка в пределах поверхности
func (s *Surface) Contains(x, z float64) bool {
	half := s.Spec.Size / 2
	return x >= -half && x <= half && z >= -half && z <= half
}

// Heights возвращает высоты вершин построчно (для выгрузки карты высот)
func (s *Surface) Heights() []float32 {
	out := make([]float32, len(s.Mesh.Positions))
	for i, p := range s.Mesh.Positions {
		out[i] = float32(p.Y)
	}
	return out
}
