// Package config loads command configuration from flags, environment
// variables, and an optional config file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultSubgraphURL points at the hosted Uniswap v3 mainnet subgraph.
const DefaultSubgraphURL = "https://api.thegraph.com/subgraphs/name/uniswap/uniswap-v3"

// Config holds configuration values shared by the subgraph-backed commands.
type Config struct {
	SubgraphURL  string
	RPCURL       string
	Pool         string
	Position     string
	VerifyRPC    bool
	Out          string
	PGDSN        string
	PageSize     int
	MaxRetries   int
	RetryBackoff time.Duration
	Days         int
	LogLevel     string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RANGESCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("subgraph", DefaultSubgraphURL)
	v.SetDefault("page-size", 1000)
	v.SetDefault("max-retries", 3)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("days", 1)
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
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		SubgraphURL:  v.GetString("subgraph"),
		RPCURL:       v.GetString("rpc"),
		Pool:         strings.ToLower(strings.TrimSpace(v.GetString("pool"))),
		Position:     strings.TrimSpace(v.GetString("position")),
		VerifyRPC:    v.GetBool("verify-rpc"),
		Out:          v.GetString("out"),
		PGDSN:        v.GetString("pg-dsn"),
		PageSize:     v.GetInt("page-size"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		Days:         v.GetInt("days"),
		LogLevel:     v.GetString("log-level"),
	}

	return cfg, nil
}
