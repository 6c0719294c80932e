package terrain

import (
	"context"
	"runtime"

	"github.com/annel0/adventure-world/internal/noise"
	"github.com/annel0/adventure-world/internal/vec"
	"golang.org/x/sync/errgroup"
)

// Параметры шума рельефа
const (
	heightOctaves     = 4
	heightPersistence = 0.5
)

// HeightParams описывает функцию смещения вершин
type HeightParams struct {
	Size            float64
	Subdivisions    int
	HeightVariation float64
	NoiseScale      float64
}

// HeightAt вычисляет высоту поверхности в мировой точке (x, z)
func (p HeightParams) HeightAt(field noise.Field, x, z float64) float64 {
	half := p.Size / 2
	return field.Perlin((x+half)*p.NoiseScale, (z+half)*p.NoiseScale, heightOctaves, heightPersistence) * p.HeightVariation
}

// Mesh: сетка земли из (n+1)² вершин и 2n² треугольников
type Mesh struct {
	Size         float64
	Subdivisions int
	Positions    []vec.Vec3Float
	Normals      []vec.Vec3Float
	UVs          []vec.Vec2Float
	Indices      []uint32
}

// VertexCount возвращает количество вершин
func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// TriangleCount возвращает количество треугольников
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// BuildMesh строит сетку и смещает вершины по полю шума.
// Строки вершин считаются параллельно; нормали пересчитываются
// только после того, как все смещения применены.
func BuildMesh(ctx context.Context, p HeightParams, field noise.Field) (*Mesh, error) {
	n := p.Subdivisions
	side := n + 1
	half := p.Size / 2
	step := p.Size / float64(n)

	mesh := &Mesh{
		Size:         p.Size,
		Subdivisions: n,
		Positions:    make([]vec.Vec3Float, side*side),
		Normals:      make([]vec.Vec3Float, side*side),
		UVs:          make([]vec.Vec2Float, side*side),
		Indices:      make([]uint32, 0, 6*n*n),
	}

	coord := func(i int) float64 {
		// Крайние вершины ставим точно на границу, без накопленной ошибки
		if i == n {
			return half
		}
		return -half + float64(i)*step
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for row := 0; row < side; row++ {
		row := row
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			z := coord(row)
			for col := 0; col < side; col++ {
				x := coord(col)
				idx := row*side + col
				mesh.Positions[idx] = vec.Vec3Float{X: x, Y: p.HeightAt(field, x, z), Z: z}
				mesh.UVs[idx] = vec.Vec2Float{X: float64(col) / float64(n), Y: float64(row) / float64(n)}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			a := uint32(row*side + col)
			b := a + 1
			c := a + uint32(side)
			d := c + 1
			// Обход против часовой стрелки при взгляде сверху (+Y)
			mesh.Indices = append(mesh.Indices, a, c, b, b, c, d)
		}
	}

	mesh.computeNormals()
	return mesh, nil
}

// computeNormals усредняет нормали граней, взвешенные по площади
func (m *Mesh) computeNormals() {
	for i := range m.Normals {
		m.Normals[i] = vec.Vec3Float{}
	}

	for i := 0; i+2 < len(m.Indices); i += 3 {
		ia, ib, ic := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		v0 := m.Positions[ia]
		face := m.Positions[ib].Sub(v0).Cross(m.Positions[ic].Sub(v0))

		m.Normals[ia] = m.Normals[ia].Add(face)
		m.Normals[ib] = m.Normals[ib].Add(face)
		m.Normals[ic] = m.Normals[ic].Add(face)
	}

	for i := range m.Normals {
		m.Normals[i] = m.Normals[i].Normalized()
	}
}
