// Package world управляет жизненным циклом процедурного мира:
// генерацией рельефа, размещением объектов, расширением карты и очисткой.
package world

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/annel0/adventure-world/internal/config"
	"github.com/annel0/adventure-world/internal/engine"
	"github.com/annel0/adventure-world/internal/eventbus"
	"github.com/annel0/adventure-world/internal/logging"
	"github.com/annel0/adventure-world/internal/noise"
	"github.com/annel0/adventure-world/internal/placement"
	"github.com/annel0/adventure-world/internal/terrain"
	"github.com/annel0/adventure-world/internal/vec"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultInteractRange: дальность взаимодействия игрока с объектами
const DefaultInteractRange = 5.0

// Options: зависимости менеджера
type Options struct {
	Noise    config.NoiseConfig
	Renderer engine.Renderer // nil: движок без вывода
	Physics  engine.Physics  // nil: мир без физики
	Metrics  *Metrics
	EventBus eventbus.EventBus
	Logger   *logging.Logger
}

// groundHandles: объекты движка, принадлежащие поверхности
type groundHandles struct {
	mesh     engine.MeshHandle
	texture  engine.TextureHandle
	material engine.MaterialHandle
	body     engine.BodyHandle
}

// Manager владеет миром: поверхностью, объектами, реестром и чанками.
// Мутирующие методы вызываются из одной горутины (игрового цикла).
type Manager struct {
	cfg      config.WorldConfig
	noiseCfg config.NoiseConfig
	value    *noise.Noise
	relief   noise.Field
	policy   *placement.Policy

	renderer engine.Renderer
	physics  engine.Physics
	metrics  *Metrics
	bus      eventbus.EventBus
	log      *logging.Logger
	tracer   trace.Tracer

	state     State
	size      float64
	surface   *terrain.Surface
	ground    groundHandles
	objects   []*PlacedObject
	hills     *placement.HillIndex
	cursors   map[placement.Category]int
	registry  *Registry
	chunks    *chunkSet
	materials map[string]engine.MaterialHandle
	player    vec.Vec3Float

	ctx    context.Context
	cancel context.CancelFunc

	// асинхронное расширение
	epoch     uint64
	inflight  bool
	results   chan expansionResult
	lastError error
}

// New проверяет конфигурацию и создаёт менеджер в состоянии Uninitialized
func New(cfg config.WorldConfig, opts Options) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	value, relief, err := noise.Build(cfg.Seed, opts.Noise)
	if err != nil {
		return nil, err
	}

	renderer := opts.Renderer
	if renderer == nil {
		renderer = engine.NewHeadless()
	}
	log := opts.Logger
	if log == nil {
		log = logging.GetWorldLogger()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		cfg:       cfg,
		noiseCfg:  opts.Noise,
		value:     value,
		relief:    relief,
		policy:    placement.New(value),
		renderer:  renderer,
		physics:   opts.Physics,
		metrics:   opts.Metrics,
		bus:       opts.EventBus,
		log:       log,
		tracer:    otel.Tracer("github.com/annel0/adventure-world/internal/world"),
		hills:     placement.NewHillIndex(placement.MaxExclusion()),
		cursors:   make(map[placement.Category]int),
		registry:  NewRegistry(),
		chunks:    newChunkSet(),
		materials: make(map[string]engine.MaterialHandle),
		ctx:       ctx,
		cancel:    cancel,
		results:   make(chan expansionResult, 1),
	}, nil
}

// GenerateWorld строит рельеф, холмы и объекты, записывает начальный чанк
func (m *Manager) GenerateWorld(ctx context.Context) error {
	switch {
	case m.state == StateDisposed:
		return ErrDisposed
	case m.state.live():
		return ErrAlreadyGenerated
	}
	if err := m.cfg.Validate(); err != nil {
		return err
	}

	ctx, span := m.tracer.Start(ctx, "world.Generate", trace.WithAttributes(
		attribute.Int64("world.seed", m.cfg.Seed),
		attribute.Float64("world.size", m.cfg.TerrainSize),
	))
	defer span.End()

	start := time.Now()
	size := m.cfg.TerrainSize

	surface, err := terrain.Build(ctx, terrain.SpecFor(m.cfg, size), m.value, m.relief)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("generate world: %w", err)
	}
	m.size = size
	m.attachSurface(surface)

	hills, report := m.policy.Hills(m.cfg.HillCount, size)
	m.metrics.observeReport(report)
	for _, h := range hills {
		m.hills.Insert(h.Position)
		m.addObject(h)
	}

	passes := make([]placement.Pass, 0, len(placement.ScatterCategories()))
	for _, cat := range placement.ScatterCategories() {
		count := m.cfg.ScaledCount(baseCount(m.cfg, cat))
		passes = append(passes, placement.Pass{Category: cat, Start: 0, Count: count, Size: size})
		m.cursors[cat] = count
	}
	placed, reports := m.policy.Run(passes, m.hills)
	for _, r := range reports {
		m.metrics.observeReport(r)
	}
	for _, pl := range placed {
		m.addObject(pl)
	}

	chunk := chunkFor(m.chunks.nextStep(), size)
	chunk.GeneratedObjectCount = len(m.objects)
	m.chunks.add(chunk)

	m.state = StateGenerated
	elapsed := time.Since(start)
	m.metrics.observeOperation("generate", elapsed.Seconds())
	m.metrics.setWorld(m.size, len(m.objects), m.chunks.len())
	span.SetAttributes(attribute.Int("world.objects", len(m.objects)))

	m.log.Info("🌍 Мир сгенерирован: seed=%d size=%.0f холмов=%d объектов=%d интерактивных=%d за %s",
		m.cfg.Seed, m.size, m.hills.Len(), len(m.objects), m.registry.Len(), elapsed)
	m.publish(ctx, EventWorldGenerated, m.snapshotEvent())
	return nil
}

// UpdatePlayerPosition запоминает позицию игрока и при приближении к краю расширяет карту.
// Вызывается каждый кадр; в асинхронном режиме готовое расширение применяется здесь же.
func (m *Manager) UpdatePlayerPosition(pos vec.Vec3Float) {
	m.player = pos
	m.applyPending()

	if !m.state.live() || !m.cfg.Expansion.Enabled {
		return
	}

	half := m.size / 2
	distanceFromEdge := math.Min(half-math.Abs(pos.X), half-math.Abs(pos.Z))
	if distanceFromEdge >= m.cfg.Expansion.TriggerDistance || m.size >= m.cfg.Expansion.MaxTerrainSize {
		return
	}

	if m.cfg.Expansion.Async {
		m.startAsyncExpansion()
		return
	}

	if _, err := m.ExpandMap(m.ctx); err != nil {
		m.lastError = err
		m.log.Warn("Расширение карты не удалось: %v", err)
	}
}

// PlayerPosition возвращает последнюю известную позицию игрока
func (m *Manager) PlayerPosition() vec.Vec3Float {
	return m.player
}

// ExpandMap синхронно расширяет карту на один шаг.
// Возвращает false без ошибки, если достигнут максимальный размер.
func (m *Manager) ExpandMap(ctx context.Context) (bool, error) {
	switch {
	case m.state == StateDisposed:
		return false, ErrDisposed
	case !m.state.live():
		return false, ErrNotGenerated
	}

	plan, err := buildExpansionPlan(ctx, m.planInput())
	if err != nil {
		return false, fmt.Errorf("expand map: %w", err)
	}
	if plan == nil {
		m.log.Debug("Расширение пропущено: размер %.0f, максимум %.0f", m.size, m.cfg.Expansion.MaxTerrainSize)
		return false, nil
	}
	return m.applyPlan(ctx, plan), nil
}

// RegenerateWorld сносит мир, применяет патч конфигурации и генерирует заново.
// Новый seed пересоздаёт шум.
func (m *Manager) RegenerateWorld(ctx context.Context, patch config.WorldPatch) error {
	if m.state == StateDisposed {
		return ErrDisposed
	}

	next := m.cfg.Apply(patch)
	if err := next.Validate(); err != nil {
		return err
	}

	previous := m.snapshotEvent()
	if next.Seed != m.cfg.Seed {
		value, relief, err := noise.Build(next.Seed, m.noiseCfg)
		if err != nil {
			return err
		}
		m.value, m.relief = value, relief
		m.policy = placement.New(value)
	}

	m.teardown()
	m.cfg = next
	m.state = StateUninitialized

	if err := m.GenerateWorld(ctx); err != nil {
		return err
	}

	m.metrics.observeOperation("regenerate", 0)
	ev := m.snapshotEvent()
	ev.PreviousSeed = previous.Seed
	ev.PreviousSize = previous.Size
	m.publish(ctx, EventWorldRegenerated, ev)
	return nil
}

// Dispose освобождает все объекты движка и очищает состояние. Повторный вызов: no-op.
func (m *Manager) Dispose() {
	if m.state == StateDisposed {
		return
	}

	m.cancel()
	m.teardown()
	m.state = StateDisposed

	m.metrics.observeOperation("dispose", 0)
	m.metrics.setWorld(0, 0, 0)
	m.log.Info("🧹 Мир очищен")
	m.publish(context.Background(), EventWorldDisposed, m.snapshotEvent())
}

// teardown удаляет объекты, поверхность, реестр, холмы и чанки
func (m *Manager) teardown() {
	for _, obj := range m.objects {
		m.disposeObject(obj)
	}
	m.objects = nil
	m.detachSurface()

	for name, mat := range m.materials {
		mat := mat
		m.safeCall("DisposeMaterial", func() error { return m.renderer.DisposeMaterial(mat) })
		delete(m.materials, name)
	}

	m.registry.clear()
	m.hills = placement.NewHillIndex(placement.MaxExclusion())
	m.cursors = make(map[placement.Category]int)
	m.chunks.clear()
	m.size = 0

	// Незавершённое асинхронное расширение больше не применимо
	m.epoch++
	m.inflight = false
	m.results = make(chan expansionResult, 1)
}

// State возвращает текущее состояние жизненного цикла
func (m *Manager) State() State {
	return m.state
}

// Config возвращает текущую конфигурацию мира
func (m *Manager) Config() config.WorldConfig {
	return m.cfg
}

// Surface возвращает текущую поверхность или nil
func (m *Manager) Surface() *terrain.Surface {
	return m.surface
}

// Objects возвращает копию списка объектов
func (m *Manager) Objects() []PlacedObject {
	out := make([]PlacedObject, len(m.objects))
	for i, obj := range m.objects {
		out[i] = *obj
	}
	return out
}

// Hills возвращает центры размещённых холмов
func (m *Manager) Hills() []vec.Vec2Float {
	return m.hills.Centers()
}

// Interactables возвращает общий реестр интерактивных объектов
func (m *Manager) Interactables() *Registry {
	return m.registry
}

// RemoveInteractable удаляет запись из реестра
func (m *Manager) RemoveInteractable(id uuid.UUID) bool {
	_, ok := m.registry.Remove(id)
	return ok
}

// NearestInteractable ищет ближайший интерактивный объект в радиусе
func (m *Manager) NearestInteractable(pos vec.Vec3Float, maxRange float64) (Interactable, bool) {
	return m.registry.Nearest(pos, maxRange)
}

// Interaction: итог взаимодействия игрока с объектом
type Interaction struct {
	Interactable Interactable `json:"interactable"`
	Consumed     bool         `json:"consumed"`
}

// Interact разрешает взаимодействие: запись удаляется из реестра,
// поглощаемый объект (кристалл) удаляется из мира, сундук остаётся.
func (m *Manager) Interact(id uuid.UUID) (Interaction, error) {
	it, ok := m.registry.Remove(id)
	if !ok {
		return Interaction{}, ErrInteractableNotFound
	}

	result := Interaction{Interactable: it}
	if !it.Effect.Consumes {
		return result, nil
	}

	for i, obj := range m.objects {
		if obj.ID == it.ObjectID {
			m.disposeObject(obj)
			m.objects = append(m.objects[:i], m.objects[i+1:]...)
			result.Consumed = true
			break
		}
	}
	m.metrics.setWorld(m.size, len(m.objects), m.chunks.len())
	return result, nil
}

// LastError возвращает последнюю ошибку фонового или покадрового расширения
func (m *Manager) LastError() error {
	return m.lastError
}

// addObject создаёт объект на текущей поверхности и регистрирует интерактивные
func (m *Manager) addObject(pl placement.Placement) *PlacedObject {
	ground := m.surface.HeightAt(pl.Position.X, pl.Position.Y)
	obj := m.spawn(pl, ground)
	m.objects = append(m.objects, obj)

	if it, ok := newInteractable(obj); ok {
		m.registry.add(it)
	}
	return obj
}

// attachSurface передаёт поверхность движку
func (m *Manager) attachSurface(s *terrain.Surface) {
	m.surface = s
	m.ground = groundHandles{}

	mesh := s.Mesh
	m.safeCall("CreateMesh", func() error {
		h, err := m.renderer.CreateMesh(engine.MeshGround, engine.MeshParams{
			Name:      "ground",
			Width:     s.Size(),
			Depth:     s.Size(),
			Positions: mesh.Positions,
			Normals:   mesh.Normals,
			UVs:       mesh.UVs,
			Indices:   mesh.Indices,
		})
		m.ground.mesh = h
		return err
	})
	if m.ground.mesh == 0 {
		return
	}

	tex := s.Texture
	m.safeCall("CreateTexture", func() error {
		h, err := m.renderer.CreateTexture(tex.Detail, tex.Detail, tex.WritePixels)
		m.ground.texture = h
		return err
	})

	m.safeCall("CreateMaterial", func() error {
		h, err := m.renderer.CreateMaterial(engine.MaterialParams{Name: "ground", Texture: m.ground.texture})
		m.ground.material = h
		return err
	})
	if m.ground.material != 0 {
		m.safeCall("SetMaterial", func() error { return m.renderer.SetMaterial(m.ground.mesh, m.ground.material) })
	}

	if m.physics != nil {
		m.safeCall("AttachRigidBody", func() error {
			h, err := m.physics.AttachRigidBody(m.ground.mesh, engine.ShapeMesh, staticMass, staticFriction, staticRestitution)
			m.ground.body = h
			return err
		})
	}
}

// detachSurface освобождает объекты движка поверхности
func (m *Manager) detachSurface() {
	g := m.ground
	if g.body != 0 && m.physics != nil {
		m.safeCall("DetachRigidBody", func() error { return m.physics.DetachRigidBody(g.body) })
	}
	if g.mesh != 0 {
		m.safeCall("DisposeMesh", func() error { return m.renderer.DisposeMesh(g.mesh) })
	}
	if g.material != 0 {
		m.safeCall("DisposeMaterial", func() error { return m.renderer.DisposeMaterial(g.material) })
	}
	if g.texture != 0 {
		m.safeCall("DisposeTexture", func() error { return m.renderer.DisposeTexture(g.texture) })
	}
	m.ground = groundHandles{}
	m.surface = nil
}

// safeCall выполняет вызов движка, превращая ошибку или панику в предупреждение
func (m *Manager) safeCall(call string, fn func() error) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Warn("Движок: паника в %s: %v", call, r)
			m.metrics.collaboratorFailure(call)
			ok = false
		}
	}()

	if err := fn(); err != nil {
		m.log.Warn("Движок: %s: %v", call, err)
		m.metrics.collaboratorFailure(call)
		return false
	}
	return true
}

// baseCount возвращает настроенное количество объектов категории
func baseCount(cfg config.WorldConfig, cat placement.Category) int {
	switch cat {
	case placement.Hill:
		return cfg.HillCount
	case placement.Tree:
		return cfg.TreeCount
	case placement.Treasure:
		return cfg.TreasureCount
	case placement.Crystal:
		return cfg.CrystalCount
	case placement.Bush:
		return cfg.BushCount
	case placement.Rock:
		return cfg.RockCount
	default:
		return 0
	}
}
