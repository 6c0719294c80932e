package world

import (
	"sync"

	"github.com/annel0/adventure-world/internal/engine"
	"github.com/annel0/adventure-world/internal/placement"
	"github.com/annel0/adventure-world/internal/vec"
	"github.com/google/uuid"
)

// InteractableKind: вариант интерактивного объекта
type InteractableKind uint8

const (
	KindTreasure InteractableKind = iota
	KindCrystal
)

func (k InteractableKind) String() string {
	switch k {
	case KindTreasure:
		return "treasure"
	case KindCrystal:
		return "crystal"
	default:
		return "unknown"
	}
}

// MarshalText для JSON-ответов
func (k InteractableKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Effect: результат взаимодействия
type Effect struct {
	Consumes      bool `json:"consumes"`       // объект исчезает после взаимодействия
	RestoreHealth int  `json:"restore_health"` // восстановление здоровья игрока
}

// Interactable: запись реестра интерактивных объектов
type Interactable struct {
	ID       uuid.UUID         `json:"id"`
	ObjectID uuid.UUID         `json:"object_id"`
	Mesh     engine.MeshHandle `json:"-"`
	Kind     InteractableKind  `json:"kind"`
	Position vec.Vec3Float     `json:"position"`
	Message  string            `json:"message"`
	RewardID string            `json:"reward_id"`
	Effect   Effect            `json:"effect"`
}

// interactableTemplate: фиксированные тексты и эффекты по категориям
type interactableTemplate struct {
	kind    InteractableKind
	message string
	reward  string
	effect  Effect
}

var interactableTemplates = map[placement.Category]interactableTemplate{
	placement.Treasure: {
		kind:    KindTreasure,
		message: "You found a treasure chest! You gained some gold coins.",
		reward:  "Gold Coins",
		effect:  Effect{Consumes: false},
	},
	placement.Crystal: {
		kind:    KindCrystal,
		message: "You absorbed the power of an ancient crystal! Your health is restored.",
		reward:  "Health Restoration",
		effect:  Effect{Consumes: true, RestoreHealth: 25},
	},
}

// newInteractable создаёт запись для размещённого объекта
func newInteractable(obj *PlacedObject) (Interactable, bool) {
	tpl, ok := interactableTemplates[obj.Category]
	if !ok {
		return Interactable{}, false
	}
	return Interactable{
		ID:       uuid.New(),
		ObjectID: obj.ID,
		Mesh:     obj.PrimaryMesh(),
		Kind:     tpl.kind,
		Position: obj.Position,
		Message:  tpl.message,
		RewardID: tpl.reward,
		Effect:   tpl.effect,
	}, true
}

// Registry: реестр интерактивных объектов.
// Внешние потребители удаляют записи; менеджер только добавляет и очищает.
type Registry struct {
	mu    sync.RWMutex
	items []Interactable
}

// NewRegistry создаёт пустой реестр
func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) add(it Interactable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, it)
}

// List возвращает копию записей в порядке добавления
func (r *Registry) List() []Interactable {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Interactable, len(r.items))
	copy(out, r.items)
	return out
}

// Len возвращает число записей
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Get ищет запись по ID
func (r *Registry) Get(id uuid.UUID) (Interactable, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, it := range r.items {
		if it.ID == id {
			return it, true
		}
	}
	return Interactable{}, false
}

// Remove удаляет запись и возвращает её
func (r *Registry) Remove(id uuid.UUID) (Interactable, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, it := range r.items {
		if it.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return it, true
		}
	}
	return Interactable{}, false
}

// Nearest возвращает ближайшую к pos запись в пределах maxRange
func (r *Registry) Nearest(pos vec.Vec3Float, maxRange float64) (Interactable, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		best  Interactable
		found bool
		bestD = maxRange
	)
	for _, it := range r.items {
		if d := it.Position.DistanceTo(pos); d <= bestD {
			best, bestD, found = it, d, true
		}
	}
	return best, found
}

// CountByKind возвращает число записей каждого вида
func (r *Registry) CountByKind() map[InteractableKind]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[InteractableKind]int)
	for _, it := range r.items {
		out[it.Kind]++
	}
	return out
}

// relocate переносит записи вслед за их объектами после смены рельефа
func (r *Registry) relocate(positions map[uuid.UUID]vec.Vec3Float) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.items {
		if pos, ok := positions[r.items[i].ObjectID]; ok {
			r.items[i].Position = pos
		}
	}
}

func (r *Registry) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = nil
}
