package api

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/annel0/adventure-world/internal/config"
	"github.com/annel0/adventure-world/internal/eventbus"
	"github.com/annel0/adventure-world/internal/logging"
)

// SignatureHeader: заголовок с HMAC-подписью тела запроса
const SignatureHeader = "X-Webhook-Signature"

// WebhookEvent: тело запроса исходящего webhook'а
type WebhookEvent struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Timestamp int64           `json:"timestamp"`
	Source    string          `json:"source"`
	Data      json.RawMessage `json:"data"`
}

// WebhookStats: статистика доставки по одному webhook'у
type WebhookStats struct {
	Name      string     `json:"name"`
	URL       string     `json:"url"`
	Events    []string   `json:"events"`
	Delivered int        `json:"delivered"`
	Failures  int        `json:"failures"`
	LastUsed  *time.Time `json:"last_used,omitempty"`
}

type webhookTarget struct {
	cfg   config.WebhookConfig
	stats WebhookStats
}

// WebhookForwarder пересылает события мира из шины во внешние webhook'и
type WebhookForwarder struct {
	mu      sync.RWMutex
	targets []*webhookTarget
	queue   chan WebhookEvent
	client  *http.Client
	backoff time.Duration
	log     *logging.Logger

	sub  eventbus.Subscription
	wg   sync.WaitGroup
	once sync.Once
}

// NewWebhookForwarder создаёт пересыльщик для списка webhook'ов из конфигурации
func NewWebhookForwarder(hooks []config.WebhookConfig) *WebhookForwarder {
	f := &WebhookForwarder{
		queue:   make(chan WebhookEvent, 256),
		client:  &http.Client{Timeout: 30 * time.Second},
		backoff: time.Second,
		log:     logging.GetAPILogger(),
	}
	for _, h := range hooks {
		if h.TimeoutSec <= 0 {
			h.TimeoutSec = 10
		}
		f.targets = append(f.targets, &webhookTarget{
			cfg:   h,
			stats: WebhookStats{Name: h.Name, URL: h.URL, Events: h.Events},
		})
	}
	return f
}

// Start подписывается на все события шины и запускает воркер отправки
func (f *WebhookForwarder) Start(ctx context.Context, bus eventbus.EventBus) error {
	sub, err := bus.Subscribe(ctx, eventbus.Filter{}, func(ctx context.Context, ev *eventbus.Envelope) {
		f.enqueue(WebhookEvent{
			EventID:   ev.ID,
			EventType: ev.EventType,
			Timestamp: ev.Timestamp.Unix(),
			Source:    ev.Source,
			Data:      json.RawMessage(ev.Payload),
		})
	})
	if err != nil {
		return err
	}
	f.sub = sub

	f.wg.Add(1)
	go f.worker()
	f.log.Info("📤 Webhook'и: %d получателей подписаны на события мира", len(f.targets))
	return nil
}

// Stop отписывается от шины и дожидается отправки очереди
func (f *WebhookForwarder) Stop() {
	f.once.Do(func() {
		if f.sub != nil {
			f.sub.Unsubscribe()
		}
		close(f.queue)
		f.wg.Wait()
	})
}

// Stats возвращает копию статистики доставки
func (f *WebhookForwarder) Stats() []WebhookStats {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]WebhookStats, 0, len(f.targets))
	for _, t := range f.targets {
		out = append(out, t.stats)
	}
	return out
}

func (f *WebhookForwarder) enqueue(ev WebhookEvent) {
	defer func() {
		// очередь уже закрыта в Stop
		_ = recover()
	}()

	select {
	case f.queue <- ev:
	default:
		f.log.Warn("⚠️  Очередь webhook'ов переполнена, событие %s пропущено", ev.EventType)
	}
}

func (f *WebhookForwarder) worker() {
	defer f.wg.Done()
	for ev := range f.queue {
		f.process(ev)
	}
}

// process отправляет событие всем подписанным получателям
func (f *WebhookForwarder) process(ev WebhookEvent) {
	body, err := json.Marshal(ev)
	if err != nil {
		f.log.Error("❌ Ошибка маршалинга события %s: %v", ev.EventType, err)
		return
	}

	var wg sync.WaitGroup
	for _, t := range f.targets {
		if !subscribed(t.cfg.Events, ev.EventType) {
			continue
		}
		wg.Add(1)
		go func(t *webhookTarget) {
			defer wg.Done()
			f.deliver(t, ev.EventType, body)
		}(t)
	}
	wg.Wait()
}

func subscribed(events []string, eventType string) bool {
	if len(events) == 0 {
		return true
	}
	for _, e := range events {
		if e == eventType || e == "*" {
			return true
		}
	}
	return false
}

// deliver отправляет тело одному получателю с повторами
func (f *WebhookForwarder) deliver(t *webhookTarget, eventType string, body []byte) {
	success := false
	for attempt := 0; attempt <= t.cfg.RetryCount; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * f.backoff)
		}

		status, err := f.post(t.cfg, eventType, body)
		if err != nil {
			f.log.Warn("⚠️  Попытка %d/%d для webhook %s: %v", attempt+1, t.cfg.RetryCount+1, t.cfg.Name, err)
			continue
		}
		if status >= 200 && status < 300 {
			success = true
			f.log.Debug("✅ Событие %s доставлено в webhook %s", eventType, t.cfg.Name)
			break
		}
		f.log.Warn("⚠️  Webhook %s вернул статус %d на попытке %d", t.cfg.Name, status, attempt+1)
	}

	f.mu.Lock()
	now := time.Now()
	t.stats.LastUsed = &now
	if success {
		t.stats.Delivered++
	} else {
		t.stats.Failures++
	}
	f.mu.Unlock()
}

func (f *WebhookForwarder) post(cfg config.WebhookConfig, eventType string, body []byte) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.TimeoutSec)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "adventure-world/1.0")
	req.Header.Set("X-Event-Type", eventType)
	if cfg.Secret != "" {
		req.Header.Set(SignatureHeader, signPayload(body, cfg.Secret))
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

// signPayload вычисляет HMAC-SHA256 подпись тела
func signPayload(data []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(data)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature проверяет заголовок X-Webhook-Signature на стороне получателя
func VerifySignature(data []byte, secret, signature string) bool {
	return hmac.Equal([]byte(signPayload(data, secret)), []byte(signature))
}
