package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"libraStats/internal/config"
)

// Health reports liveness and the served chain.
func Health(m Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "chainId": m.ChainID()})
	}
}

// MarketCap serves circulating market cap; ?cache=false forces a recompute.
func MarketCap(m Metrics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		useCache, ok := cacheParam(w, r)
		if !ok {
			return
		}
		mc, err := m.MarketCap(r.Context(), useCache)
		if err != nil {
			writeError(w, logger, "marketcap", err)
			return
		}
		writeJSON(w, http.StatusOK, mc)
	}
}

// TVL serves total value locked; ?cache=false forces a recompute.
func TVL(m Metrics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		useCache, ok := cacheParam(w, r)
		if !ok {
			return
		}
		tvl, err := m.TVL(r.Context(), useCache)
		if err != nil {
			writeError(w, logger, "tvl", err)
			return
		}
		writeJSON(w, http.StatusOK, tvl)
	}
}

// APR serves yesterday's annualized pool yield.
func APR(m Metrics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apr, err := m.APR(r.Context())
		if err != nil {
			writeError(w, logger, "apr", err)
			return
		}
		writeJSON(w, http.StatusOK, apr)
	}
}

// cacheParam reads ?cache=, defaulting to true.
func cacheParam(w http.ResponseWriter, r *http.Request) (bool, bool) {
	raw := r.URL.Query().Get("cache")
	if raw == "" {
		return true, true
	}
	useCache, err := strconv.ParseBool(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid cache parameter"})
		return false, false
	}
	return useCache, true
}

// writeError maps configuration errors to 500 and everything else, which
// comes from the chain or the subgraph, to 502.
func writeError(w http.ResponseWriter, logger *zap.Logger, metric string, err error) {
	status := http.StatusBadGateway
	if errors.Is(err, config.ErrMissingConfig) {
		status = http.StatusInternalServerError
	}
	logger.Error("metric request failed", zap.String("metric", metric), zap.Int("status", status), zap.Error(err))
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
