package world

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/annel0/adventure-world/internal/config"
	"github.com/annel0/adventure-world/internal/engine"
	"github.com/annel0/adventure-world/internal/eventbus"
	"github.com/annel0/adventure-world/internal/placement"
	"github.com/annel0/adventure-world/internal/vec"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfig: конфигурация по умолчанию с уменьшенной детализацией
func testConfig(seed int64) config.WorldConfig {
	cfg := config.DefaultWorld()
	cfg.Seed = seed
	cfg.TerrainSubdivisions = 16
	cfg.TextureDetail = 64
	return cfg
}

func newGenerated(t *testing.T, cfg config.WorldConfig, opts Options) *Manager {
	t.Helper()
	m, err := New(cfg, opts)
	require.NoError(t, err)
	require.NoError(t, m.GenerateWorld(context.Background()))
	t.Cleanup(m.Dispose)
	return m
}

func countByCategory(objects []PlacedObject) map[placement.Category]int {
	out := make(map[placement.Category]int)
	for _, o := range objects {
		out[o.Category]++
	}
	return out
}

func TestGenerateWorld_ExampleScenario(t *testing.T) {
	cfg := testConfig(42)
	cfg.TreeCount = 25
	cfg.TreasureCount = 6
	cfg.CrystalCount = 10
	cfg.HillCount = 12
	cfg.Expansion.Enabled = false

	m := newGenerated(t, cfg, Options{})
	counts := countByCategory(m.Objects())

	assert.GreaterOrEqual(t, counts[placement.Hill], 8, "часть холмов отбрасывается у края")
	assert.LessOrEqual(t, counts[placement.Hill], 12)
	assert.LessOrEqual(t, counts[placement.Tree], 25)
	assert.Equal(t, 6, counts[placement.Treasure], "сундуки не проверяют исключение")
	assert.LessOrEqual(t, counts[placement.Crystal], 10)

	kinds := m.Interactables().CountByKind()
	assert.Equal(t, 6, kinds[KindTreasure])
	assert.Equal(t, counts[placement.Crystal], kinds[KindCrystal])
	assert.Equal(t, 6+counts[placement.Crystal], m.Interactables().Len())

	info := m.WorldInfo()
	assert.Equal(t, int64(42), info.Seed)
	assert.Equal(t, StateGenerated, info.State)
	assert.Equal(t, 100.0, info.CurrentSize)
	assert.Equal(t, 1, info.ChunkCount)
	assert.Equal(t, counts[placement.Hill], info.HillCount)
	assert.Equal(t, len(m.Objects()), info.ObjectCount)
	assert.Equal(t, Chunk{Step: 0, OriginX: -50, OriginZ: -50, Size: 100, GeneratedObjectCount: info.ObjectCount}, info.Chunks[0])
}

func TestGenerateWorld_Deterministic(t *testing.T) {
	a := newGenerated(t, testConfig(7), Options{})
	b := newGenerated(t, testConfig(7), Options{})

	hillsA, hillsB := a.Hills(), b.Hills()
	require.NotEmpty(t, hillsA)
	assert.InDelta(t, hillsA[0].X, hillsB[0].X, 1e-9)
	assert.InDelta(t, hillsA[0].Y, hillsB[0].Y, 1e-9)

	objA, objB := a.Objects(), b.Objects()
	require.Equal(t, len(objA), len(objB))
	for i := range objA {
		assert.Equal(t, objA[i].Category, objB[i].Category)
		assert.InDelta(t, objA[i].Position.X, objB[i].Position.X, 1e-9)
		assert.InDelta(t, objA[i].Position.Y, objB[i].Position.Y, 1e-9)
		assert.InDelta(t, objA[i].Position.Z, objB[i].Position.Z, 1e-9)
	}
	assert.Equal(t, a.Surface().Heights(), b.Surface().Heights())
}

func TestGenerateWorld_ExclusionInvariant(t *testing.T) {
	m := newGenerated(t, testConfig(12345), Options{})
	hills := m.Hills()

	for _, obj := range m.Objects() {
		rule, ok := placement.RuleFor(obj.Category)
		if !ok || rule.Exclusion == 0 {
			continue
		}
		for _, h := range hills {
			assert.GreaterOrEqual(t, obj.Position.XZ().DistanceTo(h), rule.Exclusion,
				"%s #%d ближе допустимого к холму", obj.Category, obj.Index)
		}
	}
}

func TestGenerateWorld_ObjectsRestOnTerrain(t *testing.T) {
	m := newGenerated(t, testConfig(3), Options{})
	s := m.Surface()

	for _, obj := range m.Objects() {
		ground := s.HeightAt(obj.Position.X, obj.Position.Z)
		assert.InDelta(t, anchorY(obj.Category, ground, obj.Scale), obj.Position.Y, 1e-12)
	}
}

func TestGenerateWorld_LifecycleGuards(t *testing.T) {
	m, err := New(testConfig(1), Options{})
	require.NoError(t, err)
	assert.Equal(t, StateUninitialized, m.State())

	_, err = m.ExpandMap(context.Background())
	assert.ErrorIs(t, err, ErrNotGenerated)

	require.NoError(t, m.GenerateWorld(context.Background()))
	assert.ErrorIs(t, m.GenerateWorld(context.Background()), ErrAlreadyGenerated)

	m.Dispose()
	assert.ErrorIs(t, m.GenerateWorld(context.Background()), ErrDisposed)
	assert.ErrorIs(t, m.RegenerateWorld(context.Background(), config.WorldPatch{}), ErrDisposed)
	_, err = m.ExpandMap(context.Background())
	assert.ErrorIs(t, err, ErrDisposed)
}

func TestNew_InvalidConfigFailsFast(t *testing.T) {
	cfg := testConfig(1)
	cfg.TerrainSize = 0

	_, err := New(cfg, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	var cfgErr *config.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "terrain_size", cfgErr.Field)

	_, err = New(testConfig(1), Options{Noise: config.NoiseConfig{Hash: "md5"}})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestDispose_Idempotent(t *testing.T) {
	headless := engine.NewHeadless()
	m, err := New(testConfig(5), Options{Renderer: headless, Physics: headless})
	require.NoError(t, err)
	require.NoError(t, m.GenerateWorld(context.Background()))

	stats := headless.Stats()
	assert.Greater(t, stats.Meshes, 0)
	assert.Greater(t, stats.Bodies, 0)
	assert.Equal(t, 1, stats.Textures)

	for i := 0; i < 2; i++ {
		m.Dispose()
		assert.Equal(t, StateDisposed, m.State())
		assert.Empty(t, m.Objects())
		assert.Empty(t, m.Hills())
		assert.Zero(t, m.Interactables().Len())
		assert.Zero(t, m.WorldInfo().ChunkCount)
		assert.Nil(t, m.Surface())
		assert.Equal(t, engine.Stats{}, headless.Stats(), "все объекты движка должны быть освобождены")
	}
}

func TestExpandMap_MonotonicUpToCap(t *testing.T) {
	cfg := testConfig(11)
	cfg.Expansion.MaxTerrainSize = 220
	m := newGenerated(t, cfg, Options{})

	prevSize := m.WorldInfo().CurrentSize
	prevObjects := m.WorldInfo().ObjectCount
	prevChunks := m.WorldInfo().ChunkCount
	hills := m.WorldInfo().HillCount

	expected := []float64{150, 200, 220}
	for _, size := range expected {
		expanded, err := m.ExpandMap(context.Background())
		require.NoError(t, err)
		require.True(t, expanded)

		info := m.WorldInfo()
		assert.Equal(t, size, info.CurrentSize)
		assert.Greater(t, info.CurrentSize, prevSize)
		assert.GreaterOrEqual(t, info.ObjectCount, prevObjects)
		assert.Equal(t, prevChunks+1, info.ChunkCount)
		assert.Equal(t, hills, info.HillCount, "холмы при расширении не добавляются")
		assert.Equal(t, StateExpanded, info.State)

		prevSize, prevObjects, prevChunks = info.CurrentSize, info.ObjectCount, info.ChunkCount
	}

	expanded, err := m.ExpandMap(context.Background())
	require.NoError(t, err)
	assert.False(t, expanded, "на максимуме расширение: no-op")
	assert.Equal(t, 220.0, m.WorldInfo().CurrentSize)
	assert.Equal(t, prevChunks, m.WorldInfo().ChunkCount)
}

func TestExpandMap_SmallChunkSizeReachesCap(t *testing.T) {
	cases := []struct {
		chunk float64
		max   float64
		steps int
	}{
		{chunk: 1, max: 105, steps: 5},
		{chunk: 0.5, max: 102, steps: 4},
		{chunk: 0.75, max: 102, steps: 3},
	}
	for _, tc := range cases {
		cfg := testConfig(5)
		cfg.Expansion.ChunkSize = tc.chunk
		cfg.Expansion.MaxTerrainSize = tc.max
		m := newGenerated(t, cfg, Options{})

		prev := m.WorldInfo().CurrentSize
		for i := 0; i < tc.steps; i++ {
			expanded, err := m.ExpandMap(context.Background())
			require.NoError(t, err)
			require.True(t, expanded, "chunk %v: шаг %d ниже максимума должен расширять мир", tc.chunk, i+1)

			size := m.WorldInfo().CurrentSize
			assert.Greater(t, size, prev)
			prev = size
		}

		expanded, err := m.ExpandMap(context.Background())
		require.NoError(t, err)
		assert.False(t, expanded)

		info := m.WorldInfo()
		assert.Equal(t, tc.max, info.CurrentSize, "chunk %v", tc.chunk)
		assert.Equal(t, tc.steps+1, info.ChunkCount)
		for i, c := range info.Chunks {
			assert.Equal(t, i, c.Step)
		}
		assert.Equal(t, tc.max, info.Chunks[len(info.Chunks)-1].Size)
	}
}

func TestExpandMap_InteractablesFollowObjects(t *testing.T) {
	cfg := testConfig(42)
	cfg.HeightVariation = 8
	m := newGenerated(t, cfg, Options{})

	_, err := m.ExpandMap(context.Background())
	require.NoError(t, err)
	require.Equal(t, 150.0, m.WorldInfo().CurrentSize)

	byID := make(map[uuid.UUID]PlacedObject)
	for _, obj := range m.Objects() {
		byID[obj.ID] = obj
	}

	items := m.Interactables().List()
	require.NotEmpty(t, items)
	for _, it := range items {
		obj, ok := byID[it.ObjectID]
		require.True(t, ok)
		assert.Equal(t, obj.Position, it.Position, "позиция интерактивного объекта должна следовать за рельефом")
	}

	// Поиск ведётся по актуальной высоте
	target := items[0]
	found, ok := m.NearestInteractable(target.Position, 0)
	require.True(t, ok)
	assert.Equal(t, target.ID, found.ID)
}

func TestExpandMap_RebuildsTerrainAndResettlesObjects(t *testing.T) {
	m := newGenerated(t, testConfig(21), Options{})
	_, err := m.ExpandMap(context.Background())
	require.NoError(t, err)

	s := m.Surface()
	assert.Equal(t, 150.0, s.Size())
	assert.True(t, s.Contains(75, -75))

	for _, obj := range m.Objects() {
		ground := s.HeightAt(obj.Position.X, obj.Position.Z)
		assert.InDelta(t, anchorY(obj.Category, ground, obj.Scale), obj.Position.Y, 1e-12)
	}
}

func TestExpandMap_ExtraCountsFollowAreaGrowth(t *testing.T) {
	assert.Equal(t, 31, extraCount(25, 1, 100, 150))
	assert.Equal(t, 0, extraCount(25, 0, 100, 150))
	assert.Equal(t, 75, extraCount(25, 1, 100, 200))
	assert.Equal(t, 8, extraCount(6, 1, 100, 150))
}

func TestUpdatePlayerPosition_TriggersExpansion(t *testing.T) {
	m := newGenerated(t, testConfig(8), Options{})

	m.UpdatePlayerPosition(vec.Vec3Float{X: 10, Z: -10})
	assert.Equal(t, 100.0, m.WorldInfo().CurrentSize, "далеко от края")

	m.UpdatePlayerPosition(vec.Vec3Float{X: 45, Y: 1, Z: 0})
	assert.Equal(t, 150.0, m.WorldInfo().CurrentSize)
	assert.Equal(t, vec.Vec3Float{X: 45, Y: 1, Z: 0}, m.PlayerPosition())

	m.UpdatePlayerPosition(vec.Vec3Float{X: 45, Z: 0})
	assert.Equal(t, 150.0, m.WorldInfo().CurrentSize, "после расширения игрок снова далеко от края")
	assert.NoError(t, m.LastError())
}

func TestUpdatePlayerPosition_ExpansionDisabled(t *testing.T) {
	cfg := testConfig(8)
	cfg.Expansion.Enabled = false
	m := newGenerated(t, cfg, Options{})

	m.UpdatePlayerPosition(vec.Vec3Float{X: 49, Z: 49})
	assert.Equal(t, 100.0, m.WorldInfo().CurrentSize)

	expanded, err := m.ExpandMap(context.Background())
	require.NoError(t, err)
	assert.False(t, expanded)
}

func TestUpdatePlayerPosition_AsyncExpansion(t *testing.T) {
	cfg := testConfig(8)
	cfg.Expansion.Async = true
	m := newGenerated(t, cfg, Options{})

	m.UpdatePlayerPosition(vec.Vec3Float{X: 0, Z: -45})
	assert.True(t, m.ExpansionPending())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	applied, err := m.WaitExpansion(ctx)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.False(t, m.ExpansionPending())
	assert.Equal(t, 150.0, m.WorldInfo().CurrentSize)
	assert.Equal(t, 2, m.WorldInfo().ChunkCount)

	applied, err = m.WaitExpansion(ctx)
	require.NoError(t, err)
	assert.False(t, applied, "нечего ждать")
}

func TestUpdatePlayerPosition_StaleAsyncPlanDiscarded(t *testing.T) {
	cfg := testConfig(8)
	cfg.Expansion.Async = true
	m := newGenerated(t, cfg, Options{})

	m.UpdatePlayerPosition(vec.Vec3Float{X: 45})
	require.True(t, m.ExpansionPending())

	seed := int64(99)
	require.NoError(t, m.RegenerateWorld(context.Background(), config.WorldPatch{Seed: &seed}))
	assert.False(t, m.ExpansionPending())

	applied, err := m.WaitExpansion(context.Background())
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, 100.0, m.WorldInfo().CurrentSize)
}

func TestRegenerateWorld_Reseeds(t *testing.T) {
	m := newGenerated(t, testConfig(1), Options{})
	_, err := m.ExpandMap(context.Background())
	require.NoError(t, err)
	before := m.Hills()

	seed := int64(2)
	density := 0.5
	require.NoError(t, m.RegenerateWorld(context.Background(), config.WorldPatch{Seed: &seed, ObjectDensity: &density}))

	info := m.WorldInfo()
	assert.Equal(t, int64(2), info.Seed)
	assert.Equal(t, 0.5, info.Config.ObjectDensity)
	assert.Equal(t, 100.0, info.CurrentSize)
	assert.Equal(t, 1, info.ChunkCount)
	assert.Equal(t, StateGenerated, info.State)
	assert.NotEqual(t, before, m.Hills())

	fresh := newGenerated(t, m.Config(), Options{})
	assert.Equal(t, fresh.Hills(), m.Hills(), "перегенерация эквивалентна новому миру с тем же seed")
	assert.Equal(t, len(fresh.Objects()), len(m.Objects()))
}

func TestRegenerateWorld_InvalidPatchKeepsWorld(t *testing.T) {
	m := newGenerated(t, testConfig(1), Options{})
	objects := len(m.Objects())

	size := -5.0
	err := m.RegenerateWorld(context.Background(), config.WorldPatch{TerrainSize: &size})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
	assert.Equal(t, objects, len(m.Objects()))
	assert.Equal(t, StateGenerated, m.State())
}

// panickyRenderer теряет материалы аварийно
type panickyRenderer struct {
	*engine.Headless
}

func (panickyRenderer) CreateMaterial(engine.MaterialParams) (engine.MaterialHandle, error) {
	panic("gpu context lost")
}

func TestCollaboratorFailuresDegrade(t *testing.T) {
	headless := engine.NewHeadless()
	headless.FailOn("CreateTexture", errors.New("out of video memory"))
	headless.FailOn("AttachRigidBody", errors.New("physics offline"))

	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	m := newGenerated(t, testConfig(4), Options{
		Renderer: panickyRenderer{headless},
		Physics:  headless,
		Metrics:  metrics,
	})

	assert.NotEmpty(t, m.Objects(), "генерация продолжается без текстуры и физики")
	assert.Equal(t, 0, headless.Stats().Textures)
	assert.Equal(t, 0, headless.Stats().Bodies)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.failures.WithLabelValues("CreateTexture")))
	assert.Greater(t, testutil.ToFloat64(metrics.failures.WithLabelValues("AttachRigidBody")), 0.0)
	assert.Greater(t, testutil.ToFloat64(metrics.failures.WithLabelValues("CreateMaterial")), 0.0)
}

func TestNoPhysics(t *testing.T) {
	headless := engine.NewHeadless()
	m := newGenerated(t, testConfig(4), Options{Renderer: headless})

	assert.Zero(t, headless.Stats().Bodies)
	for _, obj := range m.Objects() {
		assert.Empty(t, obj.Bodies)
		assert.NotEmpty(t, obj.Meshes)
	}
}

func TestMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)
	m := newGenerated(t, testConfig(6), Options{Metrics: metrics})

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.operations.WithLabelValues("generate")))
	assert.Equal(t, 100.0, testutil.ToFloat64(metrics.terrainSize))
	assert.Equal(t, float64(len(m.Objects())), testutil.ToFloat64(metrics.objects))
	assert.Equal(t, 6.0, testutil.ToFloat64(metrics.placed.WithLabelValues("treasure")))

	_, err := m.ExpandMap(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.operations.WithLabelValues("expand")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.chunks))

	var nilMetrics *Metrics
	assert.NotPanics(t, func() { nilMetrics.collaboratorFailure("CreateMesh") })
}

// eventRecorder собирает события шины
type eventRecorder struct {
	mu     sync.Mutex
	events []*eventbus.Envelope
}

func (r *eventRecorder) handle(_ context.Context, ev *eventbus.Envelope) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) snapshot() []*eventbus.Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*eventbus.Envelope(nil), r.events...)
}

func TestLifecycleEvents(t *testing.T) {
	bus := eventbus.NewMemoryBus(16)
	defer bus.Close()

	var rec eventRecorder
	_, err := bus.Subscribe(context.Background(), eventbus.Filter{}, rec.handle)
	require.NoError(t, err)

	m, err := New(testConfig(10), Options{EventBus: bus})
	require.NoError(t, err)
	require.NoError(t, m.GenerateWorld(context.Background()))
	_, err = m.ExpandMap(context.Background())
	require.NoError(t, err)
	m.Dispose()

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 3 }, time.Second, 5*time.Millisecond)
	events := rec.snapshot()
	assert.Equal(t, EventWorldGenerated, events[0].EventType)
	assert.Equal(t, EventWorldExpanded, events[1].EventType)
	assert.Equal(t, EventWorldDisposed, events[2].EventType)

	var payload WorldEvent
	require.NoError(t, json.Unmarshal(events[1].Payload, &payload))
	assert.Equal(t, int64(10), payload.Seed)
	assert.Equal(t, 150.0, payload.Size)
	assert.Equal(t, 100.0, payload.PreviousSize)
	assert.Equal(t, "worldgen", events[0].Source)
	assert.NotEmpty(t, events[0].ID)
}

func TestInteract(t *testing.T) {
	m := newGenerated(t, testConfig(42), Options{})

	var treasure, crystal Interactable
	for _, it := range m.Interactables().List() {
		switch it.Kind {
		case KindTreasure:
			treasure = it
		case KindCrystal:
			crystal = it
		}
	}
	require.NotZero(t, treasure.ID)
	require.NotZero(t, crystal.ID)
	objects := len(m.Objects())

	res, err := m.Interact(treasure.ID)
	require.NoError(t, err)
	assert.False(t, res.Consumed, "сундук остаётся в мире")
	assert.Equal(t, "Gold Coins", res.Interactable.RewardID)
	assert.Equal(t, objects, len(m.Objects()))

	res, err = m.Interact(crystal.ID)
	require.NoError(t, err)
	assert.True(t, res.Consumed)
	assert.Equal(t, "Health Restoration", res.Interactable.RewardID)
	assert.Equal(t, 25, res.Interactable.Effect.RestoreHealth)
	assert.Equal(t, objects-1, len(m.Objects()))

	_, err = m.Interact(crystal.ID)
	assert.ErrorIs(t, err, ErrInteractableNotFound)
}

func TestNearestInteractable(t *testing.T) {
	m := newGenerated(t, testConfig(42), Options{})
	all := m.Interactables().List()
	require.NotEmpty(t, all)

	target := all[0]
	near := target.Position.Add(vec.Vec3Float{X: 1})
	found, ok := m.NearestInteractable(near, DefaultInteractRange)
	require.True(t, ok)
	assert.LessOrEqual(t, found.Position.DistanceTo(near), 1.0)

	_, ok = m.NearestInteractable(vec.Vec3Float{X: 1000, Z: 1000}, DefaultInteractRange)
	assert.False(t, ok)

	assert.True(t, m.RemoveInteractable(target.ID))
	assert.False(t, m.RemoveInteractable(target.ID))
}

func TestChunkKeys(t *testing.T) {
	assert.Equal(t, Chunk{Step: 0, OriginX: -50, OriginZ: -50, Size: 100}, chunkFor(0, 100))
	assert.Equal(t, Chunk{Step: 1, OriginX: -63, OriginZ: -63, Size: 125}, chunkFor(1, 125))

	// Соседние шаги с одинаковым origin остаются разными чанками
	assert.Equal(t, chunkFor(1, 101).OriginX, chunkFor(2, 102).OriginX)

	cs := newChunkSet()
	assert.Equal(t, 0, cs.nextStep())
	assert.True(t, cs.add(chunkFor(cs.nextStep(), 100)))
	dup := chunkFor(0, 100)
	dup.GeneratedObjectCount = 3
	assert.False(t, cs.add(dup))
	assert.True(t, cs.add(chunkFor(cs.nextStep(), 101)))
	assert.True(t, cs.add(chunkFor(cs.nextStep(), 102)))

	list := cs.list()
	require.Len(t, list, 3)
	assert.Equal(t, []float64{100, 101, 102}, []float64{list[0].Size, list[1].Size, list[2].Size})
	assert.Equal(t, 0, list[0].GeneratedObjectCount, "существующая запись не перезаписывается")
	assert.Equal(t, 3, cs.nextStep())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "expanded", StateExpanded.String())
	text, err := StateDisposed.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "disposed", string(text))
	assert.False(t, math.IsNaN(DefaultInteractRange))
}

func TestFingerprint(t *testing.T) {
	cfg := testConfig(42)
	a := newGenerated(t, cfg, Options{})
	b := newGenerated(t, cfg, Options{})

	require.NotEmpty(t, a.Fingerprint())
	assert.Equal(t, a.Fingerprint(), b.Fingerprint(), "одинаковые входы: одинаковый отпечаток")
	assert.Equal(t, a.Fingerprint(), a.WorldInfo().Fingerprint)

	before := a.Fingerprint()
	expanded, err := a.ExpandMap(context.Background())
	require.NoError(t, err)
	require.True(t, expanded)
	assert.NotEqual(t, before, a.Fingerprint(), "новый размер: новый отпечаток")

	c := newGenerated(t, testConfig(43), Options{})
	assert.NotEqual(t, b.Fingerprint(), c.Fingerprint())

	c.Dispose()
	assert.Empty(t, c.Fingerprint())
}
