package noise

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// Hash отображает (seed, x, y) в псевдослучайное значение из [0, 1).
// Реализация обязана быть чистой функцией.
type Hash func(seed int64, x, y float64) float64

// oneBelow: наибольшее float64 меньше единицы
var oneBelow = math.Nextafter(1, 0)

// SineHash: классический хеш frac(sin(x·12.9898 + y·78.233 + seed)·43758.5453).
// Явные преобразования float64 запрещают компилятору сливать операции в FMA,
// поэтому результат не зависит от архитектуры.
func SineHash(seed int64, x, y float64) float64 {
	arg := float64(x*12.9898) + float64(y*78.233) + float64(seed)
	n := float64(math.Sin(arg) * 43758.5453)
	return frac(n)
}

// XXHash: переносимый целочисленный хеш поверх xxHash64.
// Значения не совпадают с SineHash, но побитово стабильны на любой платформе.
func XXHash(seed int64, x, y float64) float64 {
	// -0 и +0 должны давать один и тот же результат
	if x == 0 {
		x = 0
	}
	if y == 0 {
		y = 0
	}

	var buf [24]byte
	binary.LittleEndian.PutUint64(buf[0:], uint64(seed))
	binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(x))
	binary.LittleEndian.PutUint64(buf[16:], math.Float64bits(y))

	h := xxhash.Sum64(buf[:])
	// Старшие 53 бита дают равномерное значение в [0, 1)
	return float64(h>>11) / (1 << 53)
}

func frac(n float64) float64 {
	f := n - math.Floor(n)
	if f >= 1 {
		return oneBelow
	}
	return f
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v >= 1 {
		return oneBelow
	}
	return v
}
