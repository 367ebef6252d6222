// Package api exposes the metrics over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"libraStats/internal/model"
)

// Metrics is the engine surface served over HTTP. *stats.Engine satisfies it.
type Metrics interface {
	ChainID() string
	MarketCap(ctx context.Context, useCache bool) (model.MarketCap, error)
	TVL(ctx context.Context, useCache bool) (model.TVL, error)
	APR(ctx context.Context) (model.APR, error)
}

// NewRouter wires the metric routes, health and Prometheus endpoints.
func NewRouter(m Metrics, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(Recover(logger))
	r.Use(Logger(logger))
	r.Use(Instrument())

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", Health(m))

	r.Route("/api", func(r chi.Router) {
		r.Get("/marketcap", MarketCap(m, logger))
		r.Get("/tvl", TVL(m, logger))
		r.Get("/apr", APR(m, logger))
	})
	return r
}
