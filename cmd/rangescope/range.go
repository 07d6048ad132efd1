package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rangeScope/internal/chain"
	"rangeScope/internal/config"
	"rangeScope/internal/render"
	"rangeScope/internal/scope"
)

func runRange(cmd *cobra.Command, _ []string) error {
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
	if cfg.VerifyRPC && cfg.RPCURL == "" {
		return fmt.Errorf("verify-rpc requires an rpc url")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, cleanup, err := newService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Info("range start",
		zap.String("subgraph", cfg.SubgraphURL),
		zap.String("pool", cfg.Pool),
		zap.Bool("verify_rpc", cfg.VerifyRPC))

	report, err := svc.RangeDistribution(ctx, cfg.Pool)
	if err != nil {
		return err
	}

	if cfg.VerifyRPC {
		if err := verifyAgainstChain(ctx, cfg, report, logger); err != nil {
			return err
		}
	}

	render.PrintPoolHeader(cmd.OutOrStdout(), report.Pool, report.Spacing)
	render.PrintDistribution(cmd.OutOrStdout(), report.Distribution,
		report.Pool.Token0, report.Pool.Token1)
	return nil
}

// verifyAgainstChain reads the pool contract directly and compares the live
// state with the subgraph snapshot. The subgraph lags the chain by a few
// blocks, so disagreement is reported but does not fail the run.
func verifyAgainstChain(ctx context.Context, cfg config.Config, report scope.RangeReport, logger *zap.Logger) error {
	if !common.IsHexAddress(cfg.Pool) {
		return fmt.Errorf("pool %q is not a hex address", cfg.Pool)
	}

	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer client.Close()

	chainID, err := client.GetChainID(ctx)
	if err != nil {
		return fmt.Errorf("fetch chain id: %w", err)
	}
	blockNumber, err := client.LatestBlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("fetch block number: %w", err)
	}
	logger.Info("verifying against chain",
		zap.String("chain_id", chainID.String()),
		zap.Uint64("block", blockNumber))

	state, err := chain.FetchPoolState(ctx, client, common.HexToAddress(cfg.Pool), logger)
	if err != nil {
		return fmt.Errorf("fetch pool state: %w", err)
	}

	if state.FeeTier != report.Pool.FeeTier {
		return fmt.Errorf("fee tier mismatch: chain %d, subgraph %d", state.FeeTier, report.Pool.FeeTier)
	}
	if state.TickSpacing != report.Spacing {
		return fmt.Errorf("tick spacing mismatch: chain %d, derived %d", state.TickSpacing, report.Spacing)
	}
	if state.Tick != report.Pool.Tick {
		logger.Warn("current tick differs from chain",
			zap.Int("chain", state.Tick),
			zap.Int("subgraph", report.Pool.Tick))
	}
	if state.Liquidity.Cmp(report.Pool.Liquidity) != 0 {
		logger.Warn("liquidity differs from chain",
			zap.String("chain", state.Liquidity.String()),
			zap.String("subgraph", report.Pool.Liquidity.String()))
	}

	for _, token := range []struct {
		addr   common.Address
		symbol string
	}{
		{state.Token0, report.Pool.Token0.Symbol},
		{state.Token1, report.Pool.Token1.Symbol},
	} {
		meta, err := chain.FetchTokenState(ctx, client, token.addr, logger)
		if err != nil {
			logger.Warn("token metadata fetch failed",
				zap.String("token", token.addr.Hex()),
				zap.Error(err))
			continue
		}
		if meta.Symbol != "" && meta.Symbol != token.symbol {
			logger.Warn("token symbol differs from chain",
				zap.String("chain", meta.Symbol),
				zap.String("subgraph", token.symbol))
		}
	}

	logger.Info("on-chain verification done",
		zap.String("chain_id", chainID.String()),
		zap.Uint64("block", blockNumber),
		zap.Int("tick", state.Tick),
		zap.String("liquidity", state.Liquidity.String()))
	return nil
}
