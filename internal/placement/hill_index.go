package placement

import (
	"fmt"
	"math"

	"github.com/annel0/adventure-world/internal/vec"
)

// HillIndex: равномерная сетка центров холмов для быстрых проверок исключения.
// Индекс принадлежит одной горутине; фоновый расчёт получает копию через Clone.
type HillIndex struct {
	cellSize float64
	cells    map[cellKey][]vec.Vec2Float
	centers  []vec.Vec2Float
}

// cellKey: ключ ячейки сетки
type cellKey struct {
	x, z int
}

// NewHillIndex создаёт индекс с заданным размером ячейки
func NewHillIndex(cellSize float64) *HillIndex {
	if cellSize <= 0 {
		cellSize = MaxExclusion()
	}

	return &HillIndex{
		cellSize: cellSize,
		cells:    make(map[cellKey][]vec.Vec2Float),
	}
}

// Insert добавляет центр холма
func (hi *HillIndex) Insert(center vec.Vec2Float) {
	key := hi.keyFor(center)
	hi.cells[key] = append(hi.cells[key], center)
	hi.centers = append(hi.centers, center)
}

// WithinRadius сообщает, есть ли центр холма строго ближе radius к точке
func (hi *HillIndex) WithinRadius(p vec.Vec2Float, radius float64) bool {
	if radius <= 0 {
		return false
	}

	minKey := hi.keyFor(vec.Vec2Float{X: p.X - radius, Y: p.Y - radius})
	maxKey := hi.keyFor(vec.Vec2Float{X: p.X + radius, Y: p.Y + radius})

	for x := minKey.x; x <= maxKey.x; x++ {
		for z := minKey.z; z <= maxKey.z; z++ {
			for _, c := range hi.cells[cellKey{x: x, z: z}] {
				if c.DistanceTo(p) < radius {
					return true
				}
			}
		}
	}
	return false
}

// Centers возвращает копию центров в порядке добавления
func (hi *HillIndex) Centers() []vec.Vec2Float {
	out := make([]vec.Vec2Float, len(hi.centers))
	copy(out, hi.centers)
	return out
}

// Len возвращает число холмов
func (hi *HillIndex) Len() int {
	return len(hi.centers)
}

// Clone возвращает независимую копию индекса
func (hi *HillIndex) Clone() *HillIndex {
	clone := NewHillIndex(hi.cellSize)
	for key, list := range hi.cells {
		clone.cells[key] = append([]vec.Vec2Float(nil), list...)
	}
	clone.centers = append([]vec.Vec2Float(nil), hi.centers...)
	return clone
}

// GetStats возвращает статистику индекса
func (hi *HillIndex) GetStats() string {
	maxPerCell := 0
	for _, list := range hi.cells {
		if len(list) > maxPerCell {
			maxPerCell = len(list)
		}
	}
	return fmt.Sprintf("HillIndex Stats: %d hills, %d cells, max %d hills/cell",
		len(hi.centers), len(hi.cells), maxPerCell)
}

// keyFor возвращает ячейку, содержащую точку (с учётом отрицательных координат)
func (hi *HillIndex) keyFor(p vec.Vec2Float) cellKey {
	return cellKey{
		x: int(math.Floor(p.X / hi.cellSize)),
		z: int(math.Floor(p.Y / hi.cellSize)),
	}
}
