package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"libraStats/internal/model"
	"libraStats/internal/stats"
	"libraStats/internal/storage"
	"libraStats/internal/storage/postgres"
)

func runSnapshot(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	var sinks storage.Fanout
	if a.cfg.Out != "" {
		sinks = append(sinks, storage.NewJsonlStorage(a.cfg.Out))
	}
	if a.cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, a.cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		sinks = append(sinks, store)
	}
	if len(sinks) == 0 {
		return fmt.Errorf("snapshot needs --out or --pg-dsn")
	}

	snapshots, err := collectSnapshots(ctx, a.engine, time.Now())
	if err != nil {
		return err
	}
	if err := sinks.PutSnapshots(ctx, snapshots); err != nil {
		return err
	}
	a.logger.Info("snapshot stored",
		zap.String("chain", a.engine.ChainID()),
		zap.Int("records", len(snapshots)),
		zap.String("out", a.cfg.Out),
		zap.Bool("postgres", a.cfg.PGDSN != ""),
	)
	return nil
}

// collectSnapshots computes every metric uncached, stamped with one time.
func collectSnapshots(ctx context.Context, e *stats.Engine, at time.Time) ([]model.Snapshot, error) {
	mc, err := e.MarketCap(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("market cap: %w", err)
	}
	tvl, err := e.TVL(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("tvl: %w", err)
	}
	apr, err := e.APR(ctx)
	if err != nil {
		return nil, fmt.Errorf("apr: %w", err)
	}

	values := []struct {
		kind  model.MetricKind
		value any
	}{
		{model.KindMarketCap, mc},
		{model.KindTVL, tvl},
		{model.KindAPR, apr},
	}
	out := make([]model.Snapshot, 0, len(values))
	for _, v := range values {
		snap, err := model.NewSnapshot(e.ChainID(), v.kind, v.value, at)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}
