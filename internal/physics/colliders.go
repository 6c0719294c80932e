package physics

import (
	"fmt"
	"sort"
	"sync"

	"github.com/annel0/adventure-world/internal/engine"
	"github.com/annel0/adventure-world/internal/vec"
)

// MeshSource отдаёт текущее состояние сетки
type MeshSource interface {
	Mesh(mesh engine.MeshHandle) (engine.MeshRecord, bool)
}

// Contact: тело, с которым пересёкся коллайдер
type Contact struct {
	Body     engine.BodyHandle
	Mesh     engine.MeshHandle
	Name     string
	Position vec.Vec3Float
}

type staticBody struct {
	mesh  engine.MeshHandle
	shape engine.Shape
}

// Colliders реализует engine.Physics: запоминает статические тела и
// передаёт вызовы следующей физике, если она задана.
// Положение тел читается из MeshSource в момент запроса, поэтому
// перестановка объектов после расширения рельефа учитывается сама.
type Colliders struct {
	mu     sync.RWMutex
	meshes MeshSource
	next   engine.Physics
	bodies map[engine.BodyHandle]staticBody
	seq    uint64
}

// NewColliders создаёт набор коллайдеров. next может быть nil.
func NewColliders(meshes MeshSource, next engine.Physics) *Colliders {
	return &Colliders{
		meshes: meshes,
		next:   next,
		bodies: make(map[engine.BodyHandle]staticBody),
	}
}

// AttachRigidBody регистрирует тело сетки
func (c *Colliders) AttachRigidBody(mesh engine.MeshHandle, shape engine.Shape, mass, friction, restitution float64) (engine.BodyHandle, error) {
	if _, ok := c.meshes.Mesh(mesh); !ok {
		return 0, fmt.Errorf("AttachRigidBody mesh %d: %w", mesh, engine.ErrUnknownHandle)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var body engine.BodyHandle
	if c.next != nil {
		var err error
		if body, err = c.next.AttachRigidBody(mesh, shape, mass, friction, restitution); err != nil {
			return 0, err
		}
	} else {
		c.seq++
		body = engine.BodyHandle(c.seq)
	}
	c.bodies[body] = staticBody{mesh: mesh, shape: shape}
	return body, nil
}

// DetachRigidBody удаляет тело
func (c *Colliders) DetachRigidBody(body engine.BodyHandle) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.bodies[body]; !ok {
		return fmt.Errorf("DetachRigidBody %d: %w", body, engine.ErrUnknownHandle)
	}
	delete(c.bodies, body)
	if c.next != nil {
		return c.next.DetachRigidBody(body)
	}
	return nil
}

// Len возвращает число зарегистрированных тел
func (c *Colliders) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.bodies)
}

// Overlaps возвращает тела, пересекающие коллайдер, стоящий ногами в feet.
// Рельеф (ShapeMesh) не учитывается: по нему ходят.
func (c *Colliders) Overlaps(feet vec.Vec3Float, collider *BoxCollider) []Contact {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var contacts []Contact
	for body, sb := range c.bodies {
		if sb.shape == engine.ShapeMesh {
			continue
		}
		rec, ok := c.meshes.Mesh(sb.mesh)
		if !ok {
			continue
		}

		fp := FootprintOf(rec)
		// примитивы центрированы по своей позиции
		bottom := rec.Position.Y - fp.Height/2
		top := rec.Position.Y + fp.Height/2
		if top <= feet.Y || bottom >= feet.Y+collider.Height {
			continue
		}
		if !CheckBoxCollision(feet.XZ(), collider, rec.Position.XZ(), &fp) {
			continue
		}
		contacts = append(contacts, Contact{Body: body, Mesh: sb.mesh, Name: rec.Name, Position: rec.Position})
	}

	sort.Slice(contacts, func(i, j int) bool { return contacts[i].Body < contacts[j].Body })
	return contacts
}

// CanMoveToPosition проверяет, может ли коллайдер встать в указанную точку
func (c *Colliders) CanMoveToPosition(feet vec.Vec3Float, collider *BoxCollider) bool {
	return len(c.Overlaps(feet, collider)) == 0
}
