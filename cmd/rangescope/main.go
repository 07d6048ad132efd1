package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"rangeScope/internal/config"
	"rangeScope/internal/scope"
	"rangeScope/internal/storage"
	"rangeScope/internal/storage/postgres"
	"rangeScope/internal/subgraph"
)

func main() {
	root := &cobra.Command{
		Use:          "rangescope",
		Short:        "Uniswap v3 range and liquidity inspector",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	rangeCmd := &cobra.Command{
		Use:   "range",
		Short: "Compute the per-range locked amounts of a pool",
		RunE:  runRange,
	}
	addPoolFlags(rangeCmd)
	rangeCmd.Flags().String("rpc", "", "Ethereum RPC URL for on-chain verification")
	rangeCmd.Flags().Bool("verify-rpc", false, "cross-check the subgraph snapshot against the pool contract")
	root.AddCommand(rangeCmd)

	positionsCmd := &cobra.Command{
		Use:   "positions",
		Short: "Value every open position in a pool",
		RunE:  runPositions,
	}
	addPoolFlags(positionsCmd)
	root.AddCommand(positionsCmd)

	positionCmd := &cobra.Command{
		Use:   "position",
		Short: "Value one position by id",
		RunE:  runPosition,
	}
	positionCmd.Flags().String("position", "", "position id")
	addCommonFlags(positionCmd)
	root.AddCommand(positionCmd)

	solveCmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve range bounds from token amounts offline",
		RunE:  runSolve,
	}
	solveCmd.Flags().Float64("amount0", 0, "token0 amount (x)")
	solveCmd.Flags().Float64("amount1", 0, "token1 amount (y)")
	solveCmd.Flags().Float64("price", 0, "current price (token1 per token0)")
	solveCmd.Flags().Float64("lower", 0, "lower price bound, 0 to solve for it")
	solveCmd.Flags().Float64("upper", 0, "upper price bound, 0 to solve for it")
	solveCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.AddCommand(solveCmd)

	volatilityCmd := &cobra.Command{
		Use:   "volatility",
		Short: "Estimate annualized implied volatility from daily volume",
		RunE:  runVolatility,
	}
	volatilityCmd.Flags().String("pool", "", "pool address")
	volatilityCmd.Flags().Int("days", 1, "complete days of volume to average")
	addCommonFlags(volatilityCmd)
	root.AddCommand(volatilityCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addPoolFlags(cmd *cobra.Command) {
	cmd.Flags().String("pool", "", "pool address")
	cmd.Flags().String("out", "", "output JSONL path")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN")
	addCommonFlags(cmd)
}

func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().String("subgraph", config.DefaultSubgraphURL, "subgraph GraphQL endpoint")
	cmd.Flags().Int("page-size", 1000, "records per subgraph page")
	cmd.Flags().Int("max-retries", 3, "maximum retry attempts per request")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

// newService wires the subgraph client and output sinks from config. The
// returned cleanup closes the Postgres pool when one was opened.
func newService(ctx context.Context, cfg config.Config, logger *zap.Logger) (*scope.Service, func(), error) {
	client := subgraph.NewClient(cfg.SubgraphURL,
		subgraph.WithRetry(uint(cfg.MaxRetries), cfg.RetryBackoff),
		subgraph.WithPageSize(cfg.PageSize),
		subgraph.WithLogger(logger))

	var sinks []storage.Storage
	cleanup := func() {}

	if cfg.Out != "" {
		sinks = append(sinks, storage.NewJsonlStorage(cfg.Out))
	}
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, store)
		cleanup = store.Close
	}

	svc := scope.NewService(client,
		scope.WithSinks(sinks...),
		scope.WithLogger(logger))
	return svc, cleanup, nil
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
