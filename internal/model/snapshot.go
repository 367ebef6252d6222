package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Snapshot is the normalized representation of a computed metric for storage.
type Snapshot struct {
	ChainID    string          `json:"chain_id"`
	Kind       MetricKind      `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
	ComputedAt string          `json:"computed_at"`
}

// NewSnapshot encodes value as the snapshot payload.
func NewSnapshot(chainID string, kind MetricKind, value any, computedAt time.Time) (Snapshot, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return Snapshot{}, fmt.Errorf("marshal %s payload: %w", kind, err)
	}
	return Snapshot{
		ChainID:    chainID,
		Kind:       kind,
		Payload:    payload,
		ComputedAt: computedAt.UTC().Format(time.RFC3339),
	}, nil
}
