package world

import (
	"context"
	"encoding/json"
	"time"

	"github.com/annel0/adventure-world/internal/eventbus"
	"github.com/google/uuid"
)

// Типы событий жизненного цикла мира
const (
	EventWorldGenerated   = "WorldGenerated"
	EventWorldExpanded    = "WorldExpanded"
	EventWorldRegenerated = "WorldRegenerated"
	EventWorldDisposed    = "WorldDisposed"

	eventSource  = "worldgen"
	eventVersion = 1
)

// WorldEvent: полезная нагрузка событий мира (JSON)
type WorldEvent struct {
	Seed          int64   `json:"seed"`
	PreviousSeed  int64   `json:"previous_seed,omitempty"`
	Size          float64 `json:"size"`
	PreviousSize  float64 `json:"previous_size,omitempty"`
	Objects       int     `json:"objects"`
	Hills         int     `json:"hills"`
	Interactables int     `json:"interactables"`
	Chunks        int     `json:"chunks"`
}

// publish отправляет событие в шину. Ошибки шины не влияют на генерацию.
func (m *Manager) publish(ctx context.Context, eventType string, payload WorldEvent) {
	if m.bus == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		m.log.Warn("Не удалось сериализовать %s: %v", eventType, err)
		return
	}

	ev := &eventbus.Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		EventType: eventType,
		Version:   eventVersion,
		Priority:  5,
		Payload:   data,
		Metadata:  map[string]string{"content-type": "application/json"},
	}
	if err := m.bus.Publish(ctx, ev); err != nil {
		m.log.Warn("Публикация %s не удалась: %v", eventType, err)
	}
}

// snapshotEvent собирает полезную нагрузку из текущего состояния
func (m *Manager) snapshotEvent() WorldEvent {
	return WorldEvent{
		Seed:          m.cfg.Seed,
		Size:          m.size,
		Objects:       len(m.objects),
		Hills:         m.hills.Len(),
		Interactables: m.registry.Len(),
		Chunks:        m.chunks.len(),
	}
}
