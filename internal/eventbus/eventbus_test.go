package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collector собирает доставленные события
type collector struct {
	mu     sync.Mutex
	events []*Envelope
}

func (c *collector) handle(_ context.Context, ev *Envelope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *collector) types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.events))
	for i, ev := range c.events {
		out[i] = ev.EventType
	}
	return out
}

func TestMemoryBus_OrderedDelivery(t *testing.T) {
	bus := NewMemoryBus(16)
	defer bus.Close()

	var got collector
	_, err := bus.Subscribe(context.Background(), Filter{}, got.handle)
	require.NoError(t, err)

	for _, typ := range []string{"WorldGenerated", "WorldExpanded", "WorldDisposed"} {
		require.NoError(t, bus.Publish(context.Background(), &Envelope{EventType: typ, Priority: 5}))
	}

	assert.Eventually(t, func() bool { return len(got.types()) == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"WorldGenerated", "WorldExpanded", "WorldDisposed"}, got.types())
	assert.Equal(t, uint64(3), bus.Metrics().Published)
}

func TestMemoryBus_Filter(t *testing.T) {
	bus := NewMemoryBus(16)
	defer bus.Close()

	var expanded, fromOther collector
	_, err := bus.Subscribe(context.Background(), Filter{Types: []string{"WorldExpanded"}}, expanded.handle)
	require.NoError(t, err)
	_, err = bus.Subscribe(context.Background(), Filter{Sources: []string{"other"}}, fromOther.handle)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, &Envelope{EventType: "WorldGenerated", Source: "worldgen"}))
	require.NoError(t, bus.Publish(ctx, &Envelope{EventType: "WorldExpanded", Source: "worldgen"}))

	assert.Eventually(t, func() bool { return len(expanded.types()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Empty(t, fromOther.types(), "фильтр по источнику не должен пропускать чужие события")
}

func TestMemoryBus_DropsLowPriorityWhenFull(t *testing.T) {
	bus := NewMemoryBus(1)
	defer bus.Close()

	release := make(chan struct{})
	_, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		<-release
	})
	require.NoError(t, err)

	ctx := context.Background()
	// Первое событие забирает обработчик, второе занимает очередь
	require.NoError(t, bus.Publish(ctx, &Envelope{EventType: "a", Priority: 1}))
	assert.Eventually(t, func() bool { return bus.Metrics().InFlight == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, bus.Publish(ctx, &Envelope{EventType: "b", Priority: 1}))
	require.NoError(t, bus.Publish(ctx, &Envelope{EventType: "c", Priority: 1}))

	assert.Equal(t, uint64(1), bus.Metrics().Dropped)

	// High-priority событие ждёт места до отмены контекста
	tctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bus.Publish(tctx, &Envelope{EventType: "d", Priority: 9}), context.DeadlineExceeded)

	close(release)
}

func TestMemoryBus_UnsubscribeAndClose(t *testing.T) {
	bus := NewMemoryBus(4)

	var got collector
	sub, err := bus.Subscribe(context.Background(), Filter{}, got.handle)
	require.NoError(t, err)
	sub.Unsubscribe()

	require.NoError(t, bus.Publish(context.Background(), &Envelope{EventType: "x"}))
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, got.types())

	require.NoError(t, bus.Close())
	assert.NoError(t, bus.Publish(context.Background(), &Envelope{EventType: "y"}), "публикация после Close игнорируется")
}

func TestMetricsExporter_Collect(t *testing.T) {
	registry := prometheus.NewRegistry()
	bus := NewMemoryBus(8)
	defer bus.Close()

	exporter := NewMetricsExporter(bus, registry)
	defer exporter.Stop()

	for i := 0; i < 3; i++ {
		require.NoError(t, bus.Publish(context.Background(), &Envelope{EventType: "WorldGenerated"}))
	}
	exporter.Collect()
	exporter.Collect()

	assert.Equal(t, 3.0, testutil.ToFloat64(exporter.published), "повторный сбор не должен удваивать счётчик")
	assert.Equal(t, 0.0, testutil.ToFloat64(exporter.dropped))
}

func TestStartLoggingListener(t *testing.T) {
	bus := NewMemoryBus(4)
	defer bus.Close()

	sub, err := StartLoggingListener(context.Background(), bus)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	require.NoError(t, bus.Publish(context.Background(), &Envelope{ID: "1", EventType: "WorldDisposed"}))
	assert.Eventually(t, func() bool { return bus.Metrics().Consumed == 1 }, time.Second, 5*time.Millisecond)
}

func TestSubjectFor(t *testing.T) {
	assert.Equal(t, "world.WorldExpanded", subjectFor("WorldExpanded"))
}
