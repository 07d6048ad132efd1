package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// SolveConfig holds configuration for the offline bound solver.
type SolveConfig struct {
	Amount0  float64
	Amount1  float64
	Price    float64
	Lower    float64
	Upper    float64
	LogLevel string
}

// LoadSolve merges config file, environment variables, and flags into
// SolveConfig.
func LoadSolve(cfgFile string, flags *pflag.FlagSet) (SolveConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("RANGESCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return SolveConfig{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return SolveConfig{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return SolveConfig{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := SolveConfig{
		Amount0:  v.GetFloat64("amount0"),
		Amount1:  v.GetFloat64("amount1"),
		Price:    v.GetFloat64("price"),
		Lower:    v.GetFloat64("lower"),
		Upper:    v.GetFloat64("upper"),
		LogLevel: v.GetString("log-level"),
	}

	return cfg, nil
}
