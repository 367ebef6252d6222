// Package cache memoizes the latest value of each metric kind. Exactly one
// value per kind is retained; it is reused while younger than the TTL.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"libraStats/internal/model"
)

// Entry is a stored metric value and the time it was produced.
type Entry struct {
	Value    json.RawMessage `json:"value"`
	StoredAt time.Time       `json:"stored_at"`
}

// Store persists one Entry per metric kind.
type Store interface {
	Load(ctx context.Context, kind model.MetricKind) (Entry, bool, error)
	Save(ctx context.Context, kind model.MetricKind, entry Entry) error
}

// MemoryStore keeps entries in process.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[model.MetricKind]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[model.MetricKind]Entry)}
}

func (s *MemoryStore) Load(_ context.Context, kind model.MetricKind) (Entry, bool, error) {
	s.mu.RLock()
	entry, ok := s.data[kind]
	s.mu.RUnlock()
	return entry, ok, nil
}

func (s *MemoryStore) Save(_ context.Context, kind model.MetricKind, entry Entry) error {
	s.mu.Lock()
	s.data[kind] = entry
	s.mu.Unlock()
	return nil
}
