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
	"rangeScope/internal/univ3"
)

func runPositions(cmd *cobra.Command, _ []string) error {
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

	logger.Info("positions start",
		zap.String("subgraph", cfg.SubgraphURL),
		zap.String("pool", cfg.Pool))

	report, err := svc.ValuePositions(ctx, cfg.Pool)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	render.PrintPoolHeader(out, report.Pool, report.Spacing)
	for _, valued := range report.Positions {
		render.PrintPosition(out, valued.Position, valued.Amount0, valued.Amount1,
			report.Pool.Tick, report.Pool.Token0, report.Pool.Token1)
	}
	fmt.Fprintf(out, "\n%d positions, totals: %s %s, %s %s\n",
		len(report.Positions),
		render.AdjustAmount(report.TotalAmount0, report.Pool.Token0.Decimals).StringFixed(6),
		report.Pool.Token0.Symbol,
		render.AdjustAmount(report.TotalAmount1, report.Pool.Token1.Decimals).StringFixed(6),
		report.Pool.Token1.Symbol)
	if !report.LiquidityMatchesOK {
		fmt.Fprintf(out, "note: in-range position liquidity %.0f differs from pool liquidity %.0f\n",
			report.InRangeLiquidity, report.ReportedLiquidity)
	}
	return nil
}

func runPosition(cmd *cobra.Command, _ []string) error {
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

	if cfg.Position == "" {
		return fmt.Errorf("position id is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, cleanup, err := newService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	pool, valued, err := svc.ValuePosition(ctx, cfg.Position)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	render.PrintPoolHeader(out, pool, univ3.FeeTierToSpacing(pool.FeeTier))
	render.PrintPosition(out, valued.Position, valued.Amount0, valued.Amount1,
		pool.Tick, pool.Token0, pool.Token1)
	return nil
}
