package db

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/viamover/moverd/pkg/mover"
)

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore keeps values in process, used when no database is configured
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]memoryItem
	clock mover.Clock
}

func NewMemoryStore(clock mover.Clock) *MemoryStore {
	if clock == nil {
		clock = mover.SystemClock
	}

	return &MemoryStore{
		items: map[string]memoryItem{},
		clock: clock,
	}
}

func (m *MemoryStore) Get(ctx context.Context, key string, dest any) (bool, error) {
	m.mu.Lock()
	item, ok := m.items[key]
	if ok && !item.expiresAt.IsZero() && !m.clock.Now().Before(item.expiresAt) {
		delete(m.items, key)
		ok = false
	}
	m.mu.Unlock()

	if !ok {
		return false, nil
	}

	return true, json.Unmarshal(item.value, dest)
}

func (m *MemoryStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}

	item := memoryItem{value: b}
	if ttl > 0 {
		item.expiresAt = m.clock.Now().Add(ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = item

	return nil
}
