package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultChainID is the chain used when none is configured.
const DefaultChainID = "56"

var defaultRPC = map[string]string{
	"56": "https://bsc-dataseed.binance.org/",
	"97": "https://data-seed-prebsc-2-s2.binance.org:8545/",
}

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	ChainID       string
	RPCURL        string
	GraphQLURL    string
	Multicall     string
	RegistryDir   string
	CacheTTL      time.Duration
	RedisURL      string
	RedisPassword string
	PGDSN         string
	Out           string
	Listen        string
	HTTPTimeout   time.Duration
	QueryRetries  int
	LogLevel      string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LIBRA")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("chain-id", DefaultChainID)
	v.SetDefault("registry", "./registry")
	v.SetDefault("cache-ttl", 60*time.Second)
	v.SetDefault("listen", ":8080")
	v.SetDefault("http-timeout", 15*time.Second)
	v.SetDefault("query-retries", 0)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("libra")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		ChainID:       strings.TrimSpace(v.GetString("chain-id")),
		RPCURL:        v.GetString("rpc"),
		GraphQLURL:    v.GetString("graphql"),
		Multicall:     v.GetString("multicall"),
		RegistryDir:   v.GetString("registry"),
		CacheTTL:      v.GetDuration("cache-ttl"),
		RedisURL:      v.GetString("redis-url"),
		RedisPassword: v.GetString("redis-password"),
		PGDSN:         v.GetString("pg-dsn"),
		Out:           v.GetString("out"),
		Listen:        v.GetString("listen"),
		HTTPTimeout:   v.GetDuration("http-timeout"),
		QueryRetries:  v.GetInt("query-retries"),
		LogLevel:      v.GetString("log-level"),
	}
	if cfg.ChainID == "" {
		cfg.ChainID = DefaultChainID
	}
	if cfg.RPCURL == "" {
		cfg.RPCURL = defaultRPC[cfg.ChainID]
	}
	if cfg.QueryRetries < 0 {
		cfg.QueryRetries = 0
	}

	return cfg, nil
}
