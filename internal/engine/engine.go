// Package engine описывает контракт движка рендера и физики, которым пользуется генератор мира.
package engine

import (
	"errors"
	"image/color"
	"math"

	"github.com/annel0/adventure-world/internal/vec"
)

// ErrUnknownHandle возвращается при обращении к несуществующему объекту движка
var ErrUnknownHandle = errors.New("engine: unknown handle")

// MeshKind: примитив сетки
type MeshKind uint8

const (
	MeshGround MeshKind = iota
	MeshSphere
	MeshBox
	MeshCylinder
)

func (k MeshKind) String() string {
	switch k {
	case MeshGround:
		return "ground"
	case MeshSphere:
		return "sphere"
	case MeshBox:
		return "box"
	case MeshCylinder:
		return "cylinder"
	default:
		return "unknown"
	}
}

// Shape: форма физического тела
type Shape uint8

const (
	ShapeBox Shape = iota
	ShapeSphere
	ShapeCylinder
	ShapeMesh
)

// Дескрипторы объектов движка; нулевое значение означает отсутствие объекта
type (
	MeshHandle     uint64
	TextureHandle  uint64
	MaterialHandle uint64
	BodyHandle     uint64
)

// MeshParams: параметры создаваемой сетки.
// Для MeshGround заполняется геометрия, для примитивов: размеры.
type MeshParams struct {
	Name string

	Width, Height, Depth        float64
	Diameter                    float64
	DiameterTop, DiameterBottom float64

	Positions []vec.Vec3Float
	Normals   []vec.Vec3Float
	UVs       []vec.Vec2Float
	Indices   []uint32
}

// Extent возвращает габариты сетки без учёта масштаба
func (p MeshParams) Extent(kind MeshKind) vec.Vec3Float {
	switch kind {
	case MeshBox:
		return vec.Vec3Float{X: p.Width, Y: p.Height, Z: p.Depth}
	case MeshSphere:
		return vec.Vec3Float{X: p.Diameter, Y: p.Diameter, Z: p.Diameter}
	case MeshCylinder:
		d := math.Max(p.DiameterTop, p.DiameterBottom)
		if d == 0 {
			d = p.Diameter
		}
		return vec.Vec3Float{X: d, Y: p.Height, Z: d}
	}

	if len(p.Positions) == 0 {
		return vec.Vec3Float{}
	}
	lo, hi := p.Positions[0], p.Positions[0]
	for _, v := range p.Positions[1:] {
		lo = vec.Vec3Float{X: math.Min(lo.X, v.X), Y: math.Min(lo.Y, v.Y), Z: math.Min(lo.Z, v.Z)}
		hi = vec.Vec3Float{X: math.Max(hi.X, v.X), Y: math.Max(hi.Y, v.Y), Z: math.Max(hi.Z, v.Z)}
	}
	return hi.Sub(lo)
}

// MaterialParams: параметры материала
type MaterialParams struct {
	Name    string
	Diffuse color.RGBA
	Texture TextureHandle
}

// PixelWriter заполняет RGBA-буфер текстуры
type PixelWriter func(dst []byte)

// Renderer: сторона рендера
type Renderer interface {
	CreateMesh(kind MeshKind, params MeshParams) (MeshHandle, error)
	SetPosition(mesh MeshHandle, pos vec.Vec3Float) error
	SetScale(mesh MeshHandle, scale vec.Vec3Float) error
	SetRotation(mesh MeshHandle, rot vec.Vec3Float) error
	CreateMaterial(params MaterialParams) (MaterialHandle, error)
	SetMaterial(mesh MeshHandle, material MaterialHandle) error
	CreateTexture(width, height int, write PixelWriter) (TextureHandle, error)
	DisposeMesh(mesh MeshHandle) error
	DisposeMaterial(material MaterialHandle) error
	DisposeTexture(texture TextureHandle) error
}

// Physics: необязательная физика. nil означает мир без физических тел.
type Physics interface {
	AttachRigidBody(mesh MeshHandle, shape Shape, mass, friction, restitution float64) (BodyHandle, error)
	DetachRigidBody(body BodyHandle) error
}
