package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rangeScope/internal/config"
	"rangeScope/internal/render"
)

func runVolatility(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Pool == "" {
		return fmt.Errorf("pool address is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, cleanup, err := newService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Info("volatility start",
		zap.String("subgraph", cfg.SubgraphURL),
		zap.String("pool", cfg.Pool),
		zap.Int("days", cfg.Days))

	report, err := svc.Volatility(ctx, cfg.Pool, cfg.Days)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	render.PrintPoolHeader(out, report.Pool, report.Spacing)
	fmt.Fprintf(out, "volume averaged over %d complete day(s)\n", report.DaysUsed)
	render.PrintVolatility(out, report.Pool.FeeTier, report.VolumeUSD, report.Locked, report.IV)
	return nil
}
