package terrain

import (
	"context"
	"math"
	"testing"

	"github.com/annel0/adventure-world/internal/config"
	"github.com/annel0/adventure-world/internal/noise"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flatField: поле, всегда возвращающее одно значение
type flatField float64

func (f flatField) Perlin(x, y float64, octaves int, persistence float64) float64 {
	return float64(f)
}

func TestBuildMesh_Topology(t *testing.T) {
	p := HeightParams{Size: 100, Subdivisions: 8, HeightVariation: 2, NoiseScale: 0.05}
	mesh, err := BuildMesh(context.Background(), p, noise.New(42))
	require.NoError(t, err)

	assert.Equal(t, 81, mesh.VertexCount(), "должно быть (n+1)² вершин")
	assert.Equal(t, 128, mesh.TriangleCount(), "должно быть 2n² треугольников")
	assert.Len(t, mesh.Normals, 81)
	assert.Len(t, mesh.UVs, 81)

	for _, idx := range mesh.Indices {
		assert.Less(t, int(idx), mesh.VertexCount())
	}
}

func TestBuildMesh_BoundsInvariant(t *testing.T) {
	p := HeightParams{Size: 100, Subdivisions: 64, HeightVariation: 2, NoiseScale: 0.05}
	mesh, err := BuildMesh(context.Background(), p, noise.New(12345))
	require.NoError(t, err)

	minX, maxX := math.Inf(1), math.Inf(-1)
	minZ, maxZ := math.Inf(1), math.Inf(-1)
	for _, v := range mesh.Positions {
		minX, maxX = math.Min(minX, v.X), math.Max(maxX, v.X)
		minZ, maxZ = math.Min(minZ, v.Z), math.Max(maxZ, v.Z)
		assert.GreaterOrEqual(t, v.Y, 0.0)
		assert.Less(t, v.Y, p.HeightVariation, "высота должна быть в [0, heightVariation)")
	}

	assert.Equal(t, -50.0, minX)
	assert.Equal(t, 50.0, maxX)
	assert.Equal(t, -50.0, minZ)
	assert.Equal(t, 50.0, maxZ)
}

func TestBuildMesh_FlatNormalsPointUp(t *testing.T) {
	p := HeightParams{Size: 10, Subdivisions: 4, HeightVariation: 3, NoiseScale: 1}
	mesh, err := BuildMesh(context.Background(), p, flatField(0.5))
	require.NoError(t, err)

	for i, n := range mesh.Normals {
		assert.InDelta(t, 0, n.X, 1e-12, "вершина %d", i)
		assert.InDelta(t, 1, n.Y, 1e-12, "вершина %d", i)
		assert.InDelta(t, 0, n.Z, 1e-12, "вершина %d", i)
		assert.InDelta(t, 1.5, mesh.Positions[i].Y, 1e-12)
	}
}

func TestBuildMesh_NormalsUnitLength(t *testing.T) {
	p := HeightParams{Size: 100, Subdivisions: 16, HeightVariation: 20, NoiseScale: 0.1}
	mesh, err := BuildMesh(context.Background(), p, noise.New(7))
	require.NoError(t, err)

	for _, n := range mesh.Normals {
		assert.InDelta(t, 1, n.Length(), 1e-9)
		assert.Greater(t, n.Y, 0.0, "нормали рельефа смотрят вверх")
	}
}

func TestBuildMesh_Deterministic(t *testing.T) {
	p := HeightParams{Size: 60, Subdivisions: 12, HeightVariation: 4, NoiseScale: 0.07}
	a, err := BuildMesh(context.Background(), p, noise.New(99))
	require.NoError(t, err)
	b, err := BuildMesh(context.Background(), p, noise.New(99))
	require.NoError(t, err)

	assert.Equal(t, a.Positions, b.Positions)
	assert.Equal(t, a.Normals, b.Normals)
	assert.Equal(t, a.Indices, b.Indices)
}

func TestBuildMesh_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := HeightParams{Size: 10, Subdivisions: 4, HeightVariation: 1, NoiseScale: 1}
	_, err := BuildMesh(ctx, p, noise.New(1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLayerCount(t *testing.T) {
	assert.Equal(t, 2, LayerCount(128))
	assert.Equal(t, 2, LayerCount(256))
	assert.Equal(t, 3, LayerCount(257))
	assert.Equal(t, 3, LayerCount(512))
	assert.Equal(t, 4, LayerCount(1024))
}

func TestBuildTexture(t *testing.T) {
	tex, err := BuildTexture(context.Background(), 64, noise.New(42))
	require.NoError(t, err)

	assert.Equal(t, 64, tex.Image.Bounds().Dx())
	assert.Equal(t, 64, tex.Image.Bounds().Dy())
	assert.Equal(t, []string{"highlights", "dirt"}, tex.Layers)

	for i := 3; i < len(tex.Image.Pix); i += 4 {
		require.Equal(t, uint8(255), tex.Image.Pix[i], "текстура непрозрачна")
	}

	dst := make([]byte, 64*64*4)
	tex.WritePixels(dst)
	assert.Equal(t, tex.Image.Pix, dst)

	again, err := BuildTexture(context.Background(), 64, noise.New(42))
	require.NoError(t, err)
	assert.Equal(t, tex.Image.Pix, again.Image.Pix)
}

func TestBuildTexture_HighDetailLayers(t *testing.T) {
	tex, err := BuildTexture(context.Background(), 520, noise.New(3))
	require.NoError(t, err)
	assert.Equal(t, []string{"highlights", "dirt", "moss", "blades"}, tex.Layers)
}

func TestSurface_HeightAtMatchesVertices(t *testing.T) {
	cfg := config.DefaultWorld()
	cfg.TerrainSubdivisions = 16
	cfg.TextureDetail = 32

	value := noise.New(cfg.Seed)
	s, err := Build(context.Background(), SpecFor(cfg, cfg.TerrainSize), value, value)
	require.NoError(t, err)

	for _, v := range s.Mesh.Positions {
		assert.InDelta(t, v.Y, s.HeightAt(v.X, v.Z), 1e-12)
	}
	assert.True(t, s.Contains(50, -50))
	assert.False(t, s.Contains(50.5, 0))
	assert.Len(t, s.Heights(), 17*17)
}

func TestSurface_InvalidSpec(t *testing.T) {
	_, err := Build(context.Background(), Spec{}, noise.New(1), noise.New(1))
	assert.Error(t, err)
}
