package placement

import (
	"math"

	"github.com/annel0/adventure-world/internal/noise"
	"github.com/annel0/adventure-world/internal/vec"
)

// Параметры размещения холмов
const (
	hillMinRadius    = 15.0
	hillRadiusFactor = 0.35
	hillAngleJitter  = 0.5
	hillEdgeMargin   = 10.0
	hillAngleOffset  = 100.0
	hillRadiusOffset = 0.0
	hillSizeOffset   = 50.0

	hillMinDiameter  = 4.0
	hillDiameterSpan = 8.0

	// Сдвиг шума для масштаба и поворота относительно смещений категории
	variationOffset = 50.0
)

// Placement: вычисленная позиция одного объекта
type Placement struct {
	Category  Category
	Index     int
	Position  vec.Vec2Float // (x, z)
	Scale     float64
	RotationY float64
}

// Pass: один проход разброса категории
type Pass struct {
	Category Category
	Start    int // первый индекс последовательности шума
	Count    int
	Size     float64
}

// Report: итог прохода
type Report struct {
	Category   Category
	Candidates int
	Placed     int
	Rejected   int
}

// Policy детерминированно вычисляет позиции объектов по шуму
type Policy struct {
	noise *noise.Noise
}

// New создаёт политику размещения поверх шума мира
func New(n *noise.Noise) *Policy {
	return &Policy{noise: n}
}

func (p *Policy) value(i int, offset float64) float64 {
	return p.noise.Value(float64(i), offset)
}

// Hills распределяет холмы по кругу вокруг центра.
// Холмы, выходящие за size/2 - 10 по любой оси, отбрасываются.
func (p *Policy) Hills(count int, size float64) ([]Placement, Report) {
	report := Report{Category: Hill, Candidates: max(count, 0)}
	limit := size/2 - hillEdgeMargin
	out := make([]Placement, 0, max(count, 0))

	for i := 0; i < count; i++ {
		theta := float64(i)/float64(count)*2*math.Pi + (p.value(i, hillAngleOffset)-0.5)*hillAngleJitter
		r := hillMinRadius + p.value(i, hillRadiusOffset)*size*hillRadiusFactor

		x := r * math.Cos(theta)
		z := r * math.Sin(theta)
		if math.Abs(x) > limit || math.Abs(z) > limit {
			report.Rejected++
			continue
		}

		out = append(out, Placement{
			Category: Hill,
			Index:    i,
			Position: vec.Vec2Float{X: x, Y: z},
			Scale:    hillMinDiameter + p.value(i, hillSizeOffset)*hillDiameterSpan,
		})
	}

	report.Placed = len(out)
	return out, report
}

// Scatter выполняет проход разброса для индексов [Start, Start+Count).
// Отклонённые исключением индексы не повторяются.
func (p *Policy) Scatter(pass Pass, hills *HillIndex) ([]Placement, Report) {
	report := Report{Category: pass.Category}
	rule, ok := RuleFor(pass.Category)
	if !ok || pass.Count <= 0 {
		return nil, report
	}

	report.Candidates = pass.Count
	extent := pass.Size * rule.Span
	out := make([]Placement, 0, pass.Count)

	for i := pass.Start; i < pass.Start+pass.Count; i++ {
		pos := vec.Vec2Float{
			X: (p.value(i, rule.OffsetX) - 0.5) * extent,
			Y: (p.value(i, rule.OffsetZ) - 0.5) * extent,
		}

		if rule.Exclusion > 0 && hills != nil && hills.WithinRadius(pos, rule.Exclusion) {
			report.Rejected++
			continue
		}

		out = append(out, Placement{
			Category:  pass.Category,
			Index:     i,
			Position:  pos,
			Scale:     0.8 + p.value(i, rule.OffsetX+variationOffset)*0.4,
			RotationY: p.value(i, rule.OffsetZ+variationOffset) * 2 * math.Pi,
		})
	}

	report.Placed = len(out)
	return out, report
}

// Run выполняет несколько проходов подряд и возвращает объединённый результат
func (p *Policy) Run(passes []Pass, hills *HillIndex) ([]Placement, []Report) {
	var out []Placement
	reports := make([]Report, 0, len(passes))
	for _, pass := range passes {
		placed, report := p.Scatter(pass, hills)
		out = append(out, placed...)
		reports = append(reports, report)
	}
	return out, reports
}

// IndexHills строит индекс по размещённым холмам
func IndexHills(hills []Placement) *HillIndex {
	index := NewHillIndex(MaxExclusion())
	for _, h := range hills {
		index.Insert(h.Position)
	}
	return index
}
