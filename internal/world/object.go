package world

import (
	"image/color"

	"github.com/annel0/adventure-world/internal/engine"
	"github.com/annel0/adventure-world/internal/placement"
	"github.com/annel0/adventure-world/internal/vec"
	"github.com/google/uuid"
)

// PlacedObject: объект, размещённый в мире.
// Сетки и тела принадлежат движку; менеджер отвечает за их удаление.
type PlacedObject struct {
	ID        uuid.UUID          `json:"id"`
	Category  placement.Category `json:"category"`
	Index     int                `json:"index"`
	Position  vec.Vec3Float      `json:"position"`
	Scale     float64            `json:"scale"`
	RotationY float64            `json:"rotation_y"`

	Meshes []engine.MeshHandle `json:"-"`
	Bodies []engine.BodyHandle `json:"-"`

	parts []placedPart
}

// placedPart связывает сетку с описанием части для пересчёта высоты
type placedPart struct {
	mesh engine.MeshHandle
	spec partSpec
}

// PrimaryMesh возвращает первую созданную сетку объекта или 0
func (o *PlacedObject) PrimaryMesh() engine.MeshHandle {
	if len(o.Meshes) == 0 {
		return 0
	}
	return o.Meshes[0]
}

// partSpec: одна сетка объекта категории
type partSpec struct {
	name    string
	kind    engine.MeshKind
	params  engine.MeshParams
	offsetY float64 // высота центра над землёй при масштабе 1
	color   color.RGBA
	body    bool
	shape   engine.Shape
}

// Физика статичных объектов
const (
	staticMass        = 0
	staticFriction    = 0.7
	staticRestitution = 0.1

	// Холмы утоплены в землю на фиксированную глубину
	hillSink = -2.0
)

var categoryParts = map[placement.Category][]partSpec{
	placement.Hill: {
		{name: "hill", kind: engine.MeshSphere, params: engine.MeshParams{Diameter: 1},
			color: color.RGBA{R: 76, G: 140, B: 60, A: 255}, body: true, shape: engine.ShapeSphere},
	},
	placement.Tree: {
		{name: "trunk", kind: engine.MeshCylinder, params: engine.MeshParams{Height: 6, Diameter: 1}, offsetY: 3,
			color: color.RGBA{R: 102, G: 51, B: 25, A: 255}, body: true, shape: engine.ShapeCylinder},
		{name: "leaves", kind: engine.MeshSphere, params: engine.MeshParams{Diameter: 8}, offsetY: 8,
			color: color.RGBA{R: 25, G: 128, B: 25, A: 255}},
	},
	placement.Treasure: {
		{name: "chest", kind: engine.MeshBox, params: engine.MeshParams{Width: 2, Height: 1.5, Depth: 1.5}, offsetY: 0.75,
			color: color.RGBA{R: 204, G: 153, B: 25, A: 255}, body: true, shape: engine.ShapeBox},
	},
	placement.Crystal: {
		{name: "crystal", kind: engine.MeshCylinder, params: engine.MeshParams{Height: 3, DiameterTop: 0.2, DiameterBottom: 1}, offsetY: 1.5,
			color: color.RGBA{R: 128, G: 51, B: 230, A: 255}},
	},
	placement.Bush: {
		{name: "bush", kind: engine.MeshSphere, params: engine.MeshParams{Diameter: 2}, offsetY: 0.8,
			color: color.RGBA{R: 40, G: 110, B: 35, A: 255}},
	},
	placement.Rock: {
		{name: "rock", kind: engine.MeshBox, params: engine.MeshParams{Width: 1.2, Height: 0.8, Depth: 1}, offsetY: 0.4,
			color: color.RGBA{R: 120, G: 120, B: 115, A: 255}, body: true, shape: engine.ShapeBox},
	},
}

// partPosition вычисляет положение части над землёй
func partPosition(cat placement.Category, spec partSpec, x, z, ground, scale float64) vec.Vec3Float {
	if cat == placement.Hill {
		return vec.Vec3Float{X: x, Y: ground + hillSink, Z: z}
	}
	return vec.Vec3Float{X: x, Y: ground + spec.offsetY*scale, Z: z}
}

// anchorY: высота опорной точки объекта над землёй
func anchorY(cat placement.Category, ground, scale float64) float64 {
	parts := categoryParts[cat]
	if len(parts) == 0 {
		return ground
	}
	return partPosition(cat, parts[0], 0, 0, ground, scale).Y
}

// spawn создаёт объект и его сетки. Сбои движка деградируют объект, но не прерывают генерацию.
func (m *Manager) spawn(pl placement.Placement, ground float64) *PlacedObject {
	obj := &PlacedObject{
		ID:        uuid.New(),
		Category:  pl.Category,
		Index:     pl.Index,
		Position:  vec.Vec3Float{X: pl.Position.X, Y: anchorY(pl.Category, ground, pl.Scale), Z: pl.Position.Y},
		Scale:     pl.Scale,
		RotationY: pl.RotationY,
	}

	for _, spec := range categoryParts[pl.Category] {
		var mesh engine.MeshHandle
		params := spec.params
		params.Name = spec.name
		if !m.safeCall("CreateMesh", func() error {
			var err error
			mesh, err = m.renderer.CreateMesh(spec.kind, params)
			return err
		}) {
			continue
		}

		pos := partPosition(pl.Category, spec, pl.Position.X, pl.Position.Y, ground, pl.Scale)
		s := vec.Vec3Float{X: pl.Scale, Y: pl.Scale, Z: pl.Scale}
		m.safeCall("SetPosition", func() error { return m.renderer.SetPosition(mesh, pos) })
		m.safeCall("SetScale", func() error { return m.renderer.SetScale(mesh, s) })
		m.safeCall("SetRotation", func() error {
			return m.renderer.SetRotation(mesh, vec.Vec3Float{Y: pl.RotationY})
		})
		if mat, ok := m.materialFor(spec); ok {
			m.safeCall("SetMaterial", func() error { return m.renderer.SetMaterial(mesh, mat) })
		}

		obj.Meshes = append(obj.Meshes, mesh)
		obj.parts = append(obj.parts, placedPart{mesh: mesh, spec: spec})

		if spec.body && m.physics != nil {
			var body engine.BodyHandle
			if m.safeCall("AttachRigidBody", func() error {
				var err error
				body, err = m.physics.AttachRigidBody(mesh, spec.shape, staticMass, staticFriction, staticRestitution)
				return err
			}) {
				obj.Bodies = append(obj.Bodies, body)
			}
		}
	}

	return obj
}

// resettle опускает объект на новую поверхность после перестройки рельефа
func (m *Manager) resettle(obj *PlacedObject, ground float64) {
	obj.Position.Y = anchorY(obj.Category, ground, obj.Scale)
	for _, part := range obj.parts {
		pos := partPosition(obj.Category, part.spec, obj.Position.X, obj.Position.Z, ground, obj.Scale)
		mesh := part.mesh
		m.safeCall("SetPosition", func() error { return m.renderer.SetPosition(mesh, pos) })
	}
}

// disposeObject освобождает тела и сетки объекта
func (m *Manager) disposeObject(obj *PlacedObject) {
	if m.physics != nil {
		for _, body := range obj.Bodies {
			body := body
			m.safeCall("DetachRigidBody", func() error { return m.physics.DetachRigidBody(body) })
		}
	}
	for _, mesh := range obj.Meshes {
		mesh := mesh
		m.safeCall("DisposeMesh", func() error { return m.renderer.DisposeMesh(mesh) })
	}
	obj.Meshes = nil
	obj.Bodies = nil
	obj.parts = nil
}

// materialFor возвращает общий материал части, создавая его при первом обращении
func (m *Manager) materialFor(spec partSpec) (engine.MaterialHandle, bool) {
	if mat, ok := m.materials[spec.name]; ok {
		return mat, true
	}

	var mat engine.MaterialHandle
	if !m.safeCall("CreateMaterial", func() error {
		var err error
		mat, err = m.renderer.CreateMaterial(engine.MaterialParams{Name: spec.name, Diffuse: spec.color})
		return err
	}) {
		return 0, false
	}
	m.materials[spec.name] = mat
	return mat, true
}
