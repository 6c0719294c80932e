// Package storage хранит журнал событий жизненного цикла мира в BadgerDB.
package storage

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/annel0/adventure-world/internal/eventbus"
	"github.com/annel0/adventure-world/internal/logging"
	"github.com/dgraph-io/badger/v3"
)

// eventPrefix: префикс ключей журнала: event/<наносекунды BE>/<id>
var eventPrefix = []byte("event/")

// Journal: журнал событий мира поверх BadgerDB
type Journal struct {
	db      *badger.DB
	mutex   sync.RWMutex
	isReady bool
	sub     eventbus.Subscription
	log     *logging.Logger
}

// OpenJournal открывает журнал в каталоге dataPath/journal.
// Пустой dataPath: журнал в памяти (для тестов и одноразовых запусков).
func OpenJournal(dataPath string) (*Journal, error) {
	var opts badger.Options
	if dataPath == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(filepath.Join(dataPath, "journal"))
	}
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	return &Journal{
		db:      db,
		isReady: true,
		log:     logging.GetComponentLogger("storage"),
	}, nil
}

// Attach подписывает журнал на все события шины
func (j *Journal) Attach(ctx context.Context, bus eventbus.EventBus) error {
	sub, err := bus.Subscribe(ctx, eventbus.Filter{}, func(ctx context.Context, ev *eventbus.Envelope) {
		if err := j.Append(ev); err != nil {
			j.log.Warn("Событие %s не записано в журнал: %v", ev.ID, err)
		}
	})
	if err != nil {
		return err
	}
	j.sub = sub
	return nil
}

func eventKey(ev *eventbus.Envelope) []byte {
	key := make([]byte, 0, len(eventPrefix)+8+1+len(ev.ID))
	key = append(key, eventPrefix...)
	key = binary.BigEndian.AppendUint64(key, uint64(ev.Timestamp.UnixNano()))
	key = append(key, '/')
	return append(key, ev.ID...)
}

// Append записывает событие
func (j *Journal) Append(ev *eventbus.Envelope) error {
	j.mutex.RLock()
	defer j.mutex.RUnlock()
	if !j.isReady {
		return fmt.Errorf("журнал закрыт")
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("ошибка сериализации события: %w", err)
	}

	return j.db.Update(func(txn *badger.Txn) error {
		return txn.Set(eventKey(ev), data)
	})
}

// Recent возвращает до limit последних событий, новые первыми.
// Непустой types оставляет только перечисленные типы.
func (j *Journal) Recent(limit int, types ...string) ([]eventbus.Envelope, error) {
	j.mutex.RLock()
	defer j.mutex.RUnlock()
	if !j.isReady {
		return nil, fmt.Errorf("журнал закрыт")
	}

	want := make(map[string]bool, len(types))
	for _, t := range types {
		want[t] = true
	}

	var out []eventbus.Envelope
	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = eventPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		// при обратном обходе начинаем с конца диапазона префикса
		seek := append(append([]byte{}, eventPrefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(eventPrefix); it.Next() {
			if limit > 0 && len(out) >= limit {
				break
			}

			var ev eventbus.Envelope
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &ev)
			}); err != nil {
				return err
			}
			if len(want) > 0 && !want[ev.EventType] {
				continue
			}
			out = append(out, ev)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения журнала: %w", err)
	}
	return out, nil
}

// Count возвращает число записей в журнале
func (j *Journal) Count() (int, error) {
	j.mutex.RLock()
	defer j.mutex.RUnlock()
	if !j.isReady {
		return 0, fmt.Errorf("журнал закрыт")
	}

	n := 0
	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = eventPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Close отписывается от шины и закрывает БД
func (j *Journal) Close() error {
	if j.sub != nil {
		j.sub.Unsubscribe()
	}

	j.mutex.Lock()
	defer j.mutex.Unlock()

	if !j.isReady {
		return nil
	}
	j.isReady = false
	return j.db.Close()
}
