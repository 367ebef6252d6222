package cache

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"libraStats/internal/model"
	"libraStats/internal/telemetry"
)

// Memo decides freshness for entries held in a Store.
type Memo struct {
	store  Store
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// NewMemo wraps store with a freshness window of ttl.
func NewMemo(store Store, ttl time.Duration, logger *zap.Logger) *Memo {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = NewMemoryStore()
	}
	return &Memo{store: store, ttl: ttl, now: time.Now, logger: logger}
}

// WithClock replaces the time source.
func (m *Memo) WithClock(now func() time.Time) *Memo {
	m.now = now
	return m
}

// Remember returns the stored value of kind while it is fresh, otherwise it
// runs produce and stores the result. Producer errors are returned as is and
// leave the store untouched. Store failures only cost a recomputation.
func Remember[T any](ctx context.Context, m *Memo, kind model.MetricKind, produce func(context.Context) (T, error)) (T, error) {
	entry, ok, err := m.store.Load(ctx, kind)
	if err != nil {
		m.logger.Warn("cache load failed", zap.String("kind", string(kind)), zap.Error(err))
	}
	if err == nil && ok && m.now().Sub(entry.StoredAt) < m.ttl {
		var cached T
		decodeErr := json.Unmarshal(entry.Value, &cached)
		if decodeErr == nil {
			telemetry.CacheLookups.WithLabelValues(string(kind), "hit").Inc()
			return cached, nil
		}
		m.logger.Warn("cache decode failed", zap.String("kind", string(kind)), zap.Error(decodeErr))
	}
	telemetry.CacheLookups.WithLabelValues(string(kind), "miss").Inc()

	value, err := produce(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		m.logger.Warn("cache encode failed", zap.String("kind", string(kind)), zap.Error(err))
		return value, nil
	}
	if err := m.store.Save(ctx, kind, Entry{Value: raw, StoredAt: m.now()}); err != nil {
		m.logger.Warn("cache save failed", zap.String("kind", string(kind)), zap.Error(err))
	}
	return value, nil
}
