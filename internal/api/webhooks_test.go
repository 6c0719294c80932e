package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/annel0/adventure-world/internal/config"
	"github.com/annel0/adventure-world/internal/eventbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hookRecorder: приёмник webhook'ов для тестов
type hookRecorder struct {
	mu      sync.Mutex
	bodies  [][]byte
	headers []http.Header
	status  int
}

func (h *hookRecorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	h.mu.Lock()
	h.bodies = append(h.bodies, body)
	h.headers = append(h.headers, r.Header.Clone())
	status := h.status
	h.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
}

func (h *hookRecorder) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.bodies)
}

func publishWorldEvent(t *testing.T, bus eventbus.EventBus, eventType string) {
	t.Helper()
	require.NoError(t, bus.Publish(context.Background(), &eventbus.Envelope{
		ID:        "ev-" + eventType,
		Timestamp: time.Unix(1700000000, 0),
		Source:    "worldgen",
		EventType: eventType,
		Version:   1,
		Priority:  5,
		Payload:   []byte(`{"seed":42,"size":100}`),
	}))
}

func TestWebhookForwarder_DeliversSignedEvents(t *testing.T) {
	all := &hookRecorder{}
	expandedOnly := &hookRecorder{}
	allSrv := httptest.NewServer(all)
	defer allSrv.Close()
	expSrv := httptest.NewServer(expandedOnly)
	defer expSrv.Close()

	bus := eventbus.NewMemoryBus(16)
	defer bus.Close()

	f := NewWebhookForwarder([]config.WebhookConfig{
		{Name: "all", URL: allSrv.URL, Secret: "k"},
		{Name: "expanded", URL: expSrv.URL, Events: []string{"WorldExpanded"}},
	})
	require.NoError(t, f.Start(context.Background(), bus))
	defer f.Stop()

	publishWorldEvent(t, bus, "WorldGenerated")

	require.Eventually(t, func() bool { return all.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, expandedOnly.count(), "фильтр по типу события")

	all.mu.Lock()
	body := all.bodies[0]
	header := all.headers[0]
	all.mu.Unlock()

	assert.Equal(t, signPayload(body, "k"), header.Get(SignatureHeader))
	assert.True(t, VerifySignature(body, "k", header.Get(SignatureHeader)))
	assert.False(t, VerifySignature(body, "other", header.Get(SignatureHeader)))
	assert.Equal(t, "WorldGenerated", header.Get("X-Event-Type"))

	var ev WebhookEvent
	require.NoError(t, json.Unmarshal(body, &ev))
	assert.Equal(t, "ev-WorldGenerated", ev.EventID)
	assert.Equal(t, "worldgen", ev.Source)
	assert.JSONEq(t, `{"seed":42,"size":100}`, string(ev.Data))

	publishWorldEvent(t, bus, "WorldExpanded")
	require.Eventually(t, func() bool { return expandedOnly.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Empty(t, expandedOnly.headers[0].Get(SignatureHeader), "без секрета подписи нет")
}

func TestWebhookForwarder_RetriesAndCountsFailures(t *testing.T) {
	failing := &hookRecorder{status: http.StatusInternalServerError}
	srv := httptest.NewServer(failing)
	defer srv.Close()

	bus := eventbus.NewMemoryBus(16)
	defer bus.Close()

	f := NewWebhookForwarder([]config.WebhookConfig{{Name: "flaky", URL: srv.URL, RetryCount: 2}})
	f.backoff = time.Millisecond
	require.NoError(t, f.Start(context.Background(), bus))
	defer f.Stop()

	publishWorldEvent(t, bus, "WorldDisposed")

	require.Eventually(t, func() bool {
		stats := f.Stats()
		return len(stats) == 1 && stats[0].Failures == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 3, failing.count(), "одна попытка и два повтора")
	assert.Zero(t, f.Stats()[0].Delivered)
	assert.NotNil(t, f.Stats()[0].LastUsed)
}

func TestWebhookForwarder_StopIsIdempotent(t *testing.T) {
	bus := eventbus.NewMemoryBus(4)
	defer bus.Close()

	f := NewWebhookForwarder(nil)
	require.NoError(t, f.Start(context.Background(), bus))
	f.Stop()
	f.Stop()

	assert.NotPanics(t, func() { f.enqueue(WebhookEvent{EventType: "late"}) })
}

func TestWebhookStatsEndpoint(t *testing.T) {
	f := NewWebhookForwarder([]config.WebhookConfig{{Name: "ops", URL: "http://127.0.0.1:1/hook"}})
	rs := newTestServer(t, Config{Webhooks: f})

	w := do(rs, http.MethodGet, "/api/world/webhooks", "")
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, float64(1), data["total"])
}

func TestSubscribed(t *testing.T) {
	assert.True(t, subscribed(nil, "WorldGenerated"))
	assert.True(t, subscribed([]string{"*"}, "WorldGenerated"))
	assert.True(t, subscribed([]string{"WorldExpanded", "WorldGenerated"}, "WorldGenerated"))
	assert.False(t, subscribed([]string{"WorldExpanded"}, "WorldGenerated"))
}
