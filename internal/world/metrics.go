package world

import (
	"github.com/annel0/adventure-world/internal/placement"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics: Prometheus-метрики генератора мира.
// nil *Metrics допустим: все методы превращаются в no-op.
type Metrics struct {
	operations  *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	placed      *prometheus.CounterVec
	rejected    *prometheus.CounterVec
	failures    *prometheus.CounterVec
	terrainSize prometheus.Gauge
	objects     prometheus.Gauge
	chunks      prometheus.Gauge
}

// NewMetrics создаёт метрики и регистрирует их в reg (nil: дефолтный регистр)
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "world",
			Name:      "operations_total",
			Help:      "Число операций менеджера мира (generate/expand/regenerate/dispose).",
		}, []string{"op"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "world",
			Name:      "operation_duration_seconds",
			Help:      "Длительность построения мира.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"op"}),
		placed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "world",
			Name:      "objects_placed_total",
			Help:      "Размещённые объекты по категориям.",
		}, []string{"category"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "world",
			Name:      "objects_rejected_total",
			Help:      "Отброшенные кандидаты (исключение у холмов или выход за край).",
		}, []string{"category"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "world",
			Name:      "collaborator_failures_total",
			Help:      "Сбои вызовов движка рендера/физики.",
		}, []string{"call"}),
		terrainSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "world",
			Name:      "terrain_size",
			Help:      "Текущая сторона мира.",
		}),
		objects: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "world",
			Name:      "objects",
			Help:      "Число живых объектов.",
		}),
		chunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "world",
			Name:      "chunks",
			Help:      "Число записанных чанков.",
		}),
	}

	reg.MustRegister(m.operations, m.duration, m.placed, m.rejected, m.failures,
		m.terrainSize, m.objects, m.chunks)
	return m
}

func (m *Metrics) observeOperation(op string, seconds float64) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op).Inc()
	if seconds > 0 {
		m.duration.WithLabelValues(op).Observe(seconds)
	}
}

func (m *Metrics) observeReport(r placement.Report) {
	if m == nil {
		return
	}
	m.placed.WithLabelValues(r.Category.String()).Add(float64(r.Placed))
	m.rejected.WithLabelValues(r.Category.String()).Add(float64(r.Rejected))
}

func (m *Metrics) collaboratorFailure(call string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(call).Inc()
}

func (m *Metrics) setWorld(size float64, objects, chunks int) {
	if m == nil {
		return
	}
	m.terrainSize.Set(size)
	m.objects.Set(float64(objects))
	m.chunks.Set(float64(chunks))
}
