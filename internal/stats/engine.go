// Package stats derives the protocol's published figures (market cap, TVL
// and pool APR) from batched on-chain reads and the swap subgraph.
package stats

import (
	"context"
	"time"

	"go.uber.org/zap"

	"libraStats/internal/cache"
	"libraStats/internal/config"
	"libraStats/internal/model"
	"libraStats/internal/multicall"
	"libraStats/internal/subgraph"
	"libraStats/internal/telemetry"
)

// DefaultCacheTTL is the freshness window of memoized market cap and TVL.
const DefaultCacheTTL = time.Minute

// Reader performs one batched contract read. *multicall.Reader satisfies it.
type Reader interface {
	Read(ctx context.Context, calls []multicall.Call) (multicall.Results, error)
}

// Indexer fetches fee parameters and daily volumes. *subgraph.Client satisfies it.
type Indexer interface {
	APRSummary(ctx context.Context, pools []string, dayStart int64) (subgraph.Summary, error)
}

// Engine computes the metrics for the chain described by its registry.
type Engine struct {
	reg     *config.Registry
	reader  Reader
	indexer Indexer
	memo    *cache.Memo
	now     func() time.Time
	logger  *zap.Logger
}

// Option customizes an Engine.
type Option func(*Engine)

// WithMemo sets the memo used by MarketCap and TVL.
func WithMemo(m *cache.Memo) Option {
	return func(e *Engine) { e.memo = m }
}

// WithClock sets the time source used to pick the APR volume day.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// New builds an Engine. The registry is held read-only for the engine's lifetime.
func New(reg *config.Registry, reader Reader, indexer Indexer, opts ...Option) *Engine {
	e := &Engine{
		reg:     reg,
		reader:  reader,
		indexer: indexer,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.memo == nil {
		e.memo = cache.NewMemo(cache.NewMemoryStore(), DefaultCacheTTL, e.logger)
	}
	return e
}

// ChainID returns the chain the engine reports on.
func (e *Engine) ChainID() string {
	return e.reg.ChainID()
}

// MarketCap returns circulating market cap, memoized when useCache is set.
func (e *Engine) MarketCap(ctx context.Context, useCache bool) (model.MarketCap, error) {
	if !useCache {
		return observe(ctx, model.KindMarketCap, e.computeMarketCap)
	}
	return cache.Remember(ctx, e.memo, model.KindMarketCap, func(ctx context.Context) (model.MarketCap, error) {
		return observe(ctx, model.KindMarketCap, e.computeMarketCap)
	})
}

// TVL returns total value locked, memoized when useCache is set.
func (e *Engine) TVL(ctx context.Context, useCache bool) (model.TVL, error) {
	if !useCache {
		return observe(ctx, model.KindTVL, e.computeTVL)
	}
	return cache.Remember(ctx, e.memo, model.KindTVL, func(ctx context.Context) (model.TVL, error) {
		return observe(ctx, model.KindTVL, e.computeTVL)
	})
}

// APR returns yesterday's fee yield annualized. It always recomputes TVL.
func (e *Engine) APR(ctx context.Context) (model.APR, error) {
	return observe(ctx, model.KindAPR, e.computeAPR)
}

func observe[T any](ctx context.Context, kind model.MetricKind, fn func(context.Context) (T, error)) (T, error) {
	start := time.Now()
	value, err := fn(ctx)
	telemetry.ComputeDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	status := "ok"
	if err != nil {
		status = "error"
	}
	telemetry.ComputeTotal.WithLabelValues(string(kind), status).Inc()
	return value, err
}

// read issues one batched read, logging transport failures before returning them.
func (e *Engine) read(ctx context.Context, op string, calls []multicall.Call) (multicall.Results, error) {
	results, err := e.reader.Read(ctx, calls)
	if err != nil {
		e.logger.Warn("batched read failed",
			zap.String("chain", e.reg.ChainID()),
			zap.String("op", op),
			zap.Int("calls", len(calls)),
			zap.Error(err),
		)
		return nil, err
	}
	return results, nil
}
