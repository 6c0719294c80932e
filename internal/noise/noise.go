package noise

import "math"

// Field: источник многооктавного шума в диапазоне [0, 1)
type Field interface {
	Perlin(x, y float64, octaves int, persistence float64) float64
}

// Noise: детерминированный 2D value noise со сглаживанием и косинусной интерполяцией.
// Не содержит изменяемого состояния и безопасен для параллельного использования.
type Noise struct {
	seed int64
	hash Hash
}

// New создаёт генератор шума с хешем по умолчанию (SineHash)
func New(seed int64) *Noise {
	return NewWithHash(seed, SineHash)
}

// NewWithHash создаёт генератор шума с указанным хешем
func NewWithHash(seed int64, hash Hash) *Noise {
	if hash == nil {
		hash = SineHash
	}
	return &Noise{seed: seed, hash: hash}
}

// Seed возвращает сид генератора
func (n *Noise) Seed() int64 {
	return n.seed
}

// Value возвращает базовое хеш-значение в точке (x, y)
func (n *Noise) Value(x, y float64) float64 {
	return n.hash(n.seed, x, y)
}

// Smoothed возвращает сглаженное значение в узле решётки:
// диагональные соседи с весом 1/16, ортогональные 1/8, центр 1/4.
func (n *Noise) Smoothed(ix, iy float64) float64 {
	corners := (n.Value(ix-1, iy-1) + n.Value(ix+1, iy-1) +
		n.Value(ix-1, iy+1) + n.Value(ix+1, iy+1)) / 16
	sides := (n.Value(ix-1, iy) + n.Value(ix+1, iy) +
		n.Value(ix, iy-1) + n.Value(ix, iy+1)) / 8
	center := n.Value(ix, iy) / 4
	return clampUnit(corners + sides + center)
}

// Interpolated возвращает значение между узлами решётки с косинусной интерполяцией
func (n *Noise) Interpolated(x, y float64) float64 {
	ix := math.Floor(x)
	iy := math.Floor(y)
	fx := x - ix
	fy := y - iy

	v1 := n.Smoothed(ix, iy)
	v2 := n.Smoothed(ix+1, iy)
	v3 := n.Smoothed(ix, iy+1)
	v4 := n.Smoothed(ix+1, iy+1)

	i1 := cosineInterpolate(v1, v2, fx)
	i2 := cosineInterpolate(v3, v4, fx)
	return clampUnit(cosineInterpolate(i1, i2, fy))
}

// Perlin складывает октавы Interpolated(x·2^i, y·2^i)·persistence^i
// и нормирует на сумму амплитуд.
func (n *Noise) Perlin(x, y float64, octaves int, persistence float64) float64 {
	return composeOctaves(n.Interpolated, x, y, octaves, persistence)
}

func cosineInterpolate(a, b, t float64) float64 {
	f := (1 - math.Cos(t*math.Pi)) / 2
	return a*(1-f) + b*f
}

// composeOctaves общая сборка октав для всех полей
func composeOctaves(sample func(x, y float64) float64, x, y float64, octaves int, persistence float64) float64 {
	if octaves < 1 {
		octaves = 1
	}

	total := 0.0
	maxAmplitude := 0.0
	frequency := 1.0
	amplitude := 1.0

	for i := 0; i < octaves; i++ {
		total += sample(x*frequency, y*frequency) * amplitude
		maxAmplitude += amplitude
		frequency *= 2
		amplitude *= persistence
	}

	if maxAmplitude == 0 {
		return 0
	}
	return clampUnit(total / maxAmplitude)
}
