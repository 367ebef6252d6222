package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"libraStats/internal/stats"
)

type printer func(ctx context.Context, e *stats.Engine) (any, error)

func metricCommand(use, short string, fn printer) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := setup(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			value, err := fn(ctx, a.engine)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(value)
		},
	}
}

func printMarketCap(ctx context.Context, e *stats.Engine) (any, error) {
	return e.MarketCap(ctx, false)
}

func printTVL(ctx context.Context, e *stats.Engine) (any, error) {
	return e.TVL(ctx, false)
}

func printAPR(ctx context.Context, e *stats.Engine) (any, error) {
	return e.APR(ctx)
}

func printDecimalsMismatches(ctx context.Context, e *stats.Engine) (any, error) {
	mismatches, err := e.VerifyDecimals(ctx)
	if err != nil {
		return nil, err
	}
	if mismatches == nil {
		mismatches = []stats.DecimalsMismatch{}
	}
	return mismatches, nil
}
