// Package physics хранит статические коллайдеры мира и отвечает на вопросы о проходимости.
package physics

import (
	"math"

	"github.com/annel0/adventure-world/internal/engine"
	"github.com/annel0/adventure-world/internal/vec"
)

// BoxCollider: прямоугольный след тела на плоскости XZ и его высота
type BoxCollider struct {
	HalfX  float64
	HalfZ  float64
	Height float64
}

// NewBoxCollider создаёт коллайдер с указанными размерами
func NewBoxCollider(width, depth, height float64) *BoxCollider {
	return &BoxCollider{
		HalfX:  width / 2,
		HalfZ:  depth / 2,
		Height: height,
	}
}

// FootprintOf строит коллайдер по габаритам, масштабу и повороту сетки.
// Повёрнутый след заменяется описанным прямоугольником.
func FootprintOf(rec engine.MeshRecord) BoxCollider {
	hx := rec.Extent.X * rec.Scale.X / 2
	hz := rec.Extent.Z * rec.Scale.Z / 2

	sin, cos := math.Sincos(rec.Rotation.Y)
	sin, cos = math.Abs(sin), math.Abs(cos)
	return BoxCollider{
		HalfX:  cos*hx + sin*hz,
		HalfZ:  sin*hx + cos*hz,
		Height: rec.Extent.Y * rec.Scale.Y,
	}
}

// IsPointInside проверяет, находится ли точка внутри следа коллайдера
func (bc *BoxCollider) IsPointInside(colliderPos, point vec.Vec2Float) bool {
	return point.X >= colliderPos.X-bc.HalfX &&
		point.X < colliderPos.X+bc.HalfX &&
		point.Y >= colliderPos.Y-bc.HalfZ &&
		point.Y < colliderPos.Y+bc.HalfZ
}

// CheckBoxCollision проверяет пересечение следов двух коллайдеров
func CheckBoxCollision(pos1 vec.Vec2Float, collider1 *BoxCollider, pos2 vec.Vec2Float, collider2 *BoxCollider) bool {
	return pos1.X+collider1.HalfX > pos2.X-collider2.HalfX &&
		pos1.X-collider1.HalfX < pos2.X+collider2.HalfX &&
		pos1.Y+collider1.HalfZ > pos2.Y-collider2.HalfZ &&
		pos1.Y-collider1.HalfZ < pos2.Y+collider2.HalfZ
}
