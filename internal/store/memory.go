package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type storedInteraction struct {
	ID string
	Interaction
}

// MemoryStore keeps interactions in process memory. Used when no STORE_URL is
// configured and in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records []storedInteraction
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Insert appends rec and returns a generated uuid.
func (m *MemoryStore) Insert(ctx context.Context, rec Interaction) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", wrap("insert", err)
	}
	id := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, storedInteraction{ID: id, Interaction: rec})
	return id, nil
}

// All returns a copy of the stored interactions in insertion order.
func (m *MemoryStore) All() []Interaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Interaction, len(m.records))
	for i, r := range m.records {
		out[i] = r.Interaction
	}
	return out
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

func (m *MemoryStore) Close() error { return nil }
