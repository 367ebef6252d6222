package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "libra",
		Short:        "Libra protocol market cap, TVL and APR",
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file path")
	pf.String("chain-id", "", "chain id (56 mainnet, 97 testnet)")
	pf.String("rpc", "", "RPC URL (defaults per chain)")
	pf.String("graphql", "", "subgraph endpoint (overrides registry)")
	pf.String("multicall", "", "Multicall contract address (overrides registry)")
	pf.String("registry", "", "registry directory holding <chain>/config.json and tokenlist.json")
	pf.Duration("http-timeout", 0, "subgraph request timeout")
	pf.Int("query-retries", 0, "subgraph retry attempts")
	pf.String("log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		metricCommand("marketcap", "Print circulating market cap", printMarketCap),
		metricCommand("tvl", "Print total value locked", printTVL),
		metricCommand("apr", "Print base and meta pool APR", printAPR),
		metricCommand("verify", "Check registry token decimals against the chain", printDecimalsMismatches),
	)

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Compute all metrics and store them as snapshots",
		RunE:  runSnapshot,
	}
	snapshotCmd.Flags().String("out", "", "output JSONL path")
	snapshotCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	root.AddCommand(snapshotCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the metrics over HTTP",
		RunE:  runServe,
	}
	serveCmd.Flags().String("listen", "", "listen address")
	serveCmd.Flags().Duration("cache-ttl", 0, "freshness window of cached market cap and TVL")
	serveCmd.Flags().String("redis-url", "", "Redis URL for a shared cache")
	serveCmd.Flags().String("redis-password", "", "Redis password")
	root.AddCommand(serveCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
