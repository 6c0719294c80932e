package world

import (
	"context"
	"math"
	"time"

	"github.com/annel0/adventure-world/internal/config"
	"github.com/annel0/adventure-world/internal/noise"
	"github.com/annel0/adventure-world/internal/placement"
	"github.com/annel0/adventure-world/internal/terrain"
	"github.com/annel0/adventure-world/internal/vec"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// planInput: неизменяемый снимок состояния, достаточный для расчёта расширения.
// Не содержит ссылок на изменяемые поля менеджера, поэтому безопасен для другой горутины.
type planInput struct {
	epoch   uint64
	cfg     config.WorldConfig
	size    float64
	value   *noise.Noise
	relief  noise.Field
	policy  *placement.Policy
	hills   *placement.HillIndex
	cursors map[placement.Category]int
	step    int
}

// expansionPlan: рассчитанный, но ещё не применённый шаг расширения
type expansionPlan struct {
	epoch      uint64
	oldSize    float64
	newSize    float64
	step       int
	surface    *terrain.Surface
	placements []placement.Placement
	reports    []placement.Report
	cursors    map[placement.Category]int
	elapsed    time.Duration
}

type expansionResult struct {
	plan *expansionPlan
	err  error
}

func (m *Manager) planInput() planInput {
	cursors := make(map[placement.Category]int, len(m.cursors))
	for k, v := range m.cursors {
		cursors[k] = v
	}
	return planInput{
		epoch:   m.epoch,
		cfg:     m.cfg,
		size:    m.size,
		value:   m.value,
		relief:  m.relief,
		policy:  m.policy,
		hills:   m.hills.Clone(),
		cursors: cursors,
		step:    m.chunks.nextStep(),
	}
}

// nextSize вычисляет размер после шага расширения
func nextSize(cfg config.WorldConfig, size float64) float64 {
	return math.Min(size+cfg.Expansion.ChunkSize, cfg.Expansion.MaxTerrainSize)
}

// extraCount: число дополнительных кандидатов пропорционально росту площади
func extraCount(base int, density, oldSize, newSize float64) int {
	ratio := (newSize*newSize)/(oldSize*oldSize) - 1
	v := float64(base) * density * ratio
	if v <= 0 {
		return 0
	}
	return int(math.Floor(v + 0.5))
}

// buildExpansionPlan строит новую поверхность и позиции дополнительных объектов.
// Возвращает nil, если расширять некуда.
func buildExpansionPlan(ctx context.Context, in planInput) (*expansionPlan, error) {
	if !in.cfg.Expansion.Enabled {
		return nil, nil
	}
	newSize := nextSize(in.cfg, in.size)
	if newSize <= in.size {
		return nil, nil
	}

	start := time.Now()
	surface, err := terrain.Build(ctx, terrain.SpecFor(in.cfg, newSize), in.value, in.relief)
	if err != nil {
		return nil, err
	}

	// Холмы при расширении не добавляются
	cursors := make(map[placement.Category]int, len(in.cursors))
	passes := make([]placement.Pass, 0, len(placement.ScatterCategories()))
	for _, cat := range placement.ScatterCategories() {
		count := extraCount(baseCount(in.cfg, cat), in.cfg.ObjectDensity, in.size, newSize)
		passes = append(passes, placement.Pass{Category: cat, Start: in.cursors[cat], Count: count, Size: newSize})
		cursors[cat] = in.cursors[cat] + count
	}
	placements, reports := in.policy.Run(passes, in.hills)

	return &expansionPlan{
		epoch:      in.epoch,
		oldSize:    in.size,
		newSize:    newSize,
		step:       in.step,
		surface:    surface,
		placements: placements,
		reports:    reports,
		cursors:    cursors,
		elapsed:    time.Since(start),
	}, nil
}

// applyPlan заменяет поверхность, опускает существующие объекты на новый рельеф
// и добавляет новые. Устаревший план отбрасывается.
func (m *Manager) applyPlan(ctx context.Context, plan *expansionPlan) bool {
	if plan.epoch != m.epoch || plan.oldSize != m.size || !m.state.live() || m.chunks.has(plan.step) {
		m.log.Debug("Устаревший план расширения %.0f→%.0f отброшен", plan.oldSize, plan.newSize)
		return false
	}

	ctx, span := m.tracer.Start(ctx, "world.Expand", trace.WithAttributes(
		attribute.Float64("world.old_size", plan.oldSize),
		attribute.Float64("world.new_size", plan.newSize),
	))
	defer span.End()

	start := time.Now()
	m.detachSurface()
	m.attachSurface(plan.surface)
	m.size = plan.newSize

	moved := make(map[uuid.UUID]vec.Vec3Float, len(m.objects))
	for _, obj := range m.objects {
		m.resettle(obj, plan.surface.HeightAt(obj.Position.X, obj.Position.Z))
		moved[obj.ID] = obj.Position
	}
	m.registry.relocate(moved)

	before := len(m.objects)
	for _, pl := range plan.placements {
		m.addObject(pl)
	}
	for _, r := range plan.reports {
		m.metrics.observeReport(r)
	}
	m.cursors = plan.cursors
	added := len(m.objects) - before

	chunk := chunkFor(plan.step, plan.newSize)
	chunk.GeneratedObjectCount = added
	m.chunks.add(chunk)
	m.state = StateExpanded

	elapsed := plan.elapsed + time.Since(start)
	m.metrics.observeOperation("expand", elapsed.Seconds())
	m.metrics.setWorld(m.size, len(m.objects), m.chunks.len())
	span.SetAttributes(attribute.Int("world.objects_added", added))

	m.log.Info("🗺️ Карта расширена %.0f → %.0f: +%d объектов, чанков %d, за %s",
		plan.oldSize, plan.newSize, added, m.chunks.len(), elapsed)

	ev := m.snapshotEvent()
	ev.PreviousSize = plan.oldSize
	m.publish(ctx, EventWorldExpanded, ev)
	return true
}

// startAsyncExpansion запускает расчёт плана в отдельной горутине
func (m *Manager) startAsyncExpansion() {
	if m.inflight {
		return
	}
	m.inflight = true

	in := m.planInput()
	results := m.results
	ctx := m.ctx
	go func() {
		plan, err := buildExpansionPlan(ctx, in)
		results <- expansionResult{plan: plan, err: err}
	}()
}

// applyPending применяет готовый асинхронный план, не блокируясь
func (m *Manager) applyPending() bool {
	if !m.inflight {
		return false
	}
	select {
	case r := <-m.results:
		return m.consume(r)
	default:
		return false
	}
}

// WaitExpansion дожидается незавершённого асинхронного расширения и применяет его
func (m *Manager) WaitExpansion(ctx context.Context) (bool, error) {
	if !m.inflight {
		return false, nil
	}
	select {
	case r := <-m.results:
		return m.consume(r), r.err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (m *Manager) consume(r expansionResult) bool {
	m.inflight = false
	if r.err != nil {
		m.lastError = r.err
		m.log.Warn("Фоновое расширение карты не удалось: %v", r.err)
		return false
	}
	if r.plan == nil {
		return false
	}
	return m.applyPlan(m.ctx, r.plan)
}

// ExpansionPending сообщает, идёт ли фоновый расчёт расширения
func (m *Manager) ExpansionPending() bool {
	return m.inflight
}
