package engine

import (
	"fmt"
	"sync"

	"github.com/annel0/adventure-world/internal/vec"
)

// MeshRecord: состояние сетки в Headless
type MeshRecord struct {
	Kind     MeshKind
	Name     string
	Vertices int
	Extent   vec.Vec3Float
	Position vec.Vec3Float
	Scale    vec.Vec3Float
	Rotation vec.Vec3Float
	Material MaterialHandle
}

// TextureRecord: состояние текстуры в Headless
type TextureRecord struct {
	Width, Height int
	Pixels        []byte
}

// BodyRecord: физическое тело в Headless
type BodyRecord struct {
	Mesh                  MeshHandle
	Shape                 Shape
	Mass                  float64
	Friction, Restitution float64
}

// Stats: число живых объектов
type Stats struct {
	Meshes    int `json:"meshes"`
	Materials int `json:"materials"`
	Textures  int `json:"textures"`
	Bodies    int `json:"bodies"`
}

// Headless: движок без вывода, хранящий объекты в памяти.
// Реализует Renderer и Physics; потокобезопасен.
type Headless struct {
	mu        sync.RWMutex
	nextID    uint64
	meshes    map[MeshHandle]*MeshRecord
	materials map[MaterialHandle]MaterialParams
	textures  map[TextureHandle]*TextureRecord
	bodies    map[BodyHandle]BodyRecord
	failures  map[string]error
}

var (
	_ Renderer = (*Headless)(nil)
	_ Physics  = (*Headless)(nil)
)

// NewHeadless создаёт пустой движок
func NewHeadless() *Headless {
	return &Headless{
		meshes:    make(map[MeshHandle]*MeshRecord),
		materials: make(map[MaterialHandle]MaterialParams),
		textures:  make(map[TextureHandle]*TextureRecord),
		bodies:    make(map[BodyHandle]BodyRecord),
		failures:  make(map[string]error),
	}
}

// FailOn заставляет операцию op (например "CreateTexture") возвращать err.
// nil снимает отказ.
func (h *Headless) FailOn(op string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err == nil {
		delete(h.failures, op)
		return
	}
	h.failures[op] = err
}

func (h *Headless) fail(op string) error {
	if err, ok := h.failures[op]; ok {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (h *Headless) next() uint64 {
	h.nextID++
	return h.nextID
}

// CreateMesh создаёт сетку
func (h *Headless) CreateMesh(kind MeshKind, params MeshParams) (MeshHandle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.fail("CreateMesh"); err != nil {
		return 0, err
	}

	handle := MeshHandle(h.next())
	h.meshes[handle] = &MeshRecord{
		Kind:     kind,
		Name:     params.Name,
		Vertices: len(params.Positions),
		Extent:   params.Extent(kind),
		Scale:    vec.Vec3Float{X: 1, Y: 1, Z: 1},
	}
	return handle, nil
}

func (h *Headless) updateMesh(op string, mesh MeshHandle, apply func(*MeshRecord)) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.fail(op); err != nil {
		return err
	}
	rec, ok := h.meshes[mesh]
	if !ok {
		return fmt.Errorf("%s mesh %d: %w", op, mesh, ErrUnknownHandle)
	}
	apply(rec)
	return nil
}

// SetPosition задаёт положение сетки
func (h *Headless) SetPosition(mesh MeshHandle, pos vec.Vec3Float) error {
	return h.updateMesh("SetPosition", mesh, func(r *MeshRecord) { r.Position = pos })
}

// SetScale задаёт масштаб сетки
func (h *Headless) SetScale(mesh MeshHandle, scale vec.Vec3Float) error {
	return h.updateMesh("SetScale", mesh, func(r *MeshRecord) { r.Scale = scale })
}

// SetRotation задаёт поворот сетки
func (h *Headless) SetRotation(mesh MeshHandle, rot vec.Vec3Float) error {
	return h.updateMesh("SetRotation", mesh, func(r *MeshRecord) { r.Rotation = rot })
}

// CreateMaterial создаёт материал
func (h *Headless) CreateMaterial(params MaterialParams) (MaterialHandle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.fail("CreateMaterial"); err != nil {
		return 0, err
	}
	handle := MaterialHandle(h.next())
	h.materials[handle] = params
	return handle, nil
}

// SetMaterial назначает материал сетке
func (h *Headless) SetMaterial(mesh MeshHandle, material MaterialHandle) error {
	h.mu.RLock()
	_, ok := h.materials[material]
	h.mu.RUnlock()
	if !ok {
		return fmt.Errorf("SetMaterial material %d: %w", material, ErrUnknownHandle)
	}
	return h.updateMesh("SetMaterial", mesh, func(r *MeshRecord) { r.Material = material })
}

// CreateTexture создаёт текстуру и заполняет её через write
func (h *Headless) CreateTexture(width, height int, write PixelWriter) (TextureHandle, error) {
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("CreateTexture: invalid size %dx%d", width, height)
	}

	pixels := make([]byte, width*height*4)
	if write != nil {
		write(pixels)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.fail("CreateTexture"); err != nil {
		return 0, err
	}
	handle := TextureHandle(h.next())
	h.textures[handle] = &TextureRecord{Width: width, Height: height, Pixels: pixels}
	return handle, nil
}

// DisposeMesh удаляет сетку и привязанные к ней тела
func (h *Headless) DisposeMesh(mesh MeshHandle) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.fail("DisposeMesh"); err != nil {
		return err
	}
	if _, ok := h.meshes[mesh]; !ok {
		return fmt.Errorf("DisposeMesh %d: %w", mesh, ErrUnknownHandle)
	}
	delete(h.meshes, mesh)
	for id, body := range h.bodies {
		if body.Mesh == mesh {
			delete(h.bodies, id)
		}
	}
	return nil
}

// DisposeMaterial удаляет материал
func (h *Headless) DisposeMaterial(material MaterialHandle) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.materials[material]; !ok {
		return fmt.Errorf("DisposeMaterial %d: %w", material, ErrUnknownHandle)
	}
	delete(h.materials, material)
	return nil
}

// DisposeTexture удаляет текстуру
func (h *Headless) DisposeTexture(texture TextureHandle) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.textures[texture]; !ok {
		return fmt.Errorf("DisposeTexture %d: %w", texture, ErrUnknownHandle)
	}
	delete(h.textures, texture)
	return nil
}

// AttachRigidBody привязывает физическое тело к сетке
func (h *Headless) AttachRigidBody(mesh MeshHandle, shape Shape, mass, friction, restitution float64) (BodyHandle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.fail("AttachRigidBody"); err != nil {
		return 0, err
	}
	if _, ok := h.meshes[mesh]; !ok {
		return 0, fmt.Errorf("AttachRigidBody mesh %d: %w", mesh, ErrUnknownHandle)
	}
	handle := BodyHandle(h.next())
	h.bodies[handle] = BodyRecord{Mesh: mesh, Shape: shape, Mass: mass, Friction: friction, Restitution: restitution}
	return handle, nil
}

// DetachRigidBody удаляет тело
func (h *Headless) DetachRigidBody(body BodyHandle) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.bodies[body]; !ok {
		return fmt.Errorf("DetachRigidBody %d: %w", body, ErrUnknownHandle)
	}
	delete(h.bodies, body)
	return nil
}

// Mesh возвращает копию записи о сетке
func (h *Headless) Mesh(mesh MeshHandle) (MeshRecord, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rec, ok := h.meshes[mesh]
	if !ok {
		return MeshRecord{}, false
	}
	return *rec, true
}

// Texture возвращает запись о текстуре
func (h *Headless) Texture(texture TextureHandle) (TextureRecord, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rec, ok := h.textures[texture]
	if !ok {
		return TextureRecord{}, false
	}
	return *rec, true
}

// Stats возвращает число живых объектов
func (h *Headless) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return Stats{
		Meshes:    len(h.meshes),
		Materials: len(h.materials),
		Textures:  len(h.textures),
		Bodies:    len(h.bodies),
	}
}
