package main

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"libraStats/internal/cache"
	"libraStats/internal/chain"
	"libraStats/internal/config"
	"libraStats/internal/multicall"
	"libraStats/internal/stats"
	"libraStats/internal/subgraph"
)

// app is the wired runtime shared by every command.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	engine  *stats.Engine
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	_ = a.logger.Sync()
}

func setup(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger}

	if err := a.wire(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context) error {
	cfg := a.cfg
	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required for chain %s", cfg.ChainID)
	}

	reg, err := config.LoadRegistry(cfg.RegistryDir, cfg.ChainID)
	if err != nil {
		return err
	}

	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	a.closers = append(a.closers, client.Close)

	if remote, err := client.GetChainID(ctx); err != nil {
		a.logger.Warn("chain id lookup failed", zap.Error(err))
	} else if remote.String() != cfg.ChainID {
		return fmt.Errorf("rpc serves chain %s, configured %s", remote, cfg.ChainID)
	}

	multicallAddr := reg.MultiCall()
	if cfg.Multicall != "" {
		multicallAddr = cfg.Multicall
	}
	if !common.IsHexAddress(multicallAddr) {
		return fmt.Errorf("invalid multicall address %q", multicallAddr)
	}
	reader := multicall.NewReader(client, common.HexToAddress(multicallAddr), a.logger)

	endpoint := reg.GraphQL()
	if cfg.GraphQLURL != "" {
		endpoint = cfg.GraphQLURL
	}
	indexer := subgraph.NewClient(endpoint, subgraph.Options{
		Timeout: cfg.HTTPTimeout,
		Retries: cfg.QueryRetries,
	}, a.logger)

	store := cache.Store(cache.NewMemoryStore())
	if cfg.RedisURL != "" {
		rs, err := cache.NewRedisStore(ctx, cfg.RedisURL, cfg.RedisPassword, "libra:"+cfg.ChainID, 2*cfg.CacheTTL)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() { _ = rs.Close() })
		store = rs
	}
	memo := cache.NewMemo(store, cfg.CacheTTL, a.logger)

	a.engine = stats.New(reg, reader, indexer, stats.WithMemo(memo), stats.WithLogger(a.logger))
	a.logger.Info("engine ready",
		zap.String("chain", cfg.ChainID),
		zap.String("rpc", cfg.RPCURL),
		zap.String("multicall", multicallAddr),
		zap.String("graphql", endpoint),
		zap.Bool("redis", cfg.RedisURL != ""),
		zap.Duration("cache_ttl", cfg.CacheTTL),
	)
	return nil
}
