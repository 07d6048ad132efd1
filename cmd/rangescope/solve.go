package main

import (
	"fmt"
	"io"
	"math"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rangeScope/internal/config"
	"rangeScope/internal/render"
	"rangeScope/internal/univ3"
)

// runSolve works entirely offline. Given the held token amounts, the
// current price, and at least one price bound, it recovers the liquidity
// and the missing bound through two independent derivations.
func runSolve(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSolve(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Price <= 0 {
		return fmt.Errorf("price must be positive")
	}
	if cfg.Amount0 < 0 || cfg.Amount1 < 0 || cfg.Amount0+cfg.Amount1 == 0 {
		return fmt.Errorf("amounts must be non-negative and not both zero")
	}
	if cfg.Lower <= 0 && cfg.Upper <= 0 {
		return fmt.Errorf("at least one of lower and upper is required")
	}
	if cfg.Lower > 0 && cfg.Upper > 0 && cfg.Lower >= cfg.Upper {
		return fmt.Errorf("lower bound %v must be below upper bound %v", cfg.Lower, cfg.Upper)
	}

	out := cmd.OutOrStdout()
	sp := math.Sqrt(cfg.Price)

	switch {
	case cfg.Lower > 0 && cfg.Upper > 0:
		return solveBoth(out, cfg, sp, logger)
	case cfg.Upper > 0:
		return solveLower(out, cfg, sp)
	default:
		return solveUpper(out, cfg, sp)
	}
}

// solveBoth has no unknowns: it computes the liquidity for the full range
// and round-trips it back into amounts, then re-derives each bound from the
// other as a consistency check.
func solveBoth(out io.Writer, cfg config.SolveConfig, sp float64, logger *zap.Logger) error {
	sa := math.Sqrt(cfg.Lower)
	sb := math.Sqrt(cfg.Upper)

	l, err := univ3.LiquidityForAmounts(cfg.Amount0, cfg.Amount1, sp, sa, sb)
	if err != nil {
		return err
	}
	amount0, amount1, err := univ3.AmountsForLiquidity(l, sp, sa, sb)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "liquidity: %.6f\n", l)
	fmt.Fprintf(out, "round-trip amounts: %.6f token0 (rel err %.5f), %.6f token1 (rel err %.5f)\n",
		amount0, render.Sanitize(univ3.RelativeError(amount0, cfg.Amount0)),
		amount1, render.Sanitize(univ3.RelativeError(amount1, cfg.Amount1)))

	if lowerEst, err := univ3.SolveLowerBound(l, sp, sb, cfg.Amount0, cfg.Amount1); err == nil {
		render.PrintBoundEstimate(out, "lower bound", lowerEst)
	} else {
		logger.Debug("lower bound cross-check skipped", zap.Error(err))
	}
	if upperEst, err := univ3.SolveUpperBound(l, sp, sa, cfg.Amount0, cfg.Amount1); err == nil {
		render.PrintBoundEstimate(out, "upper bound", upperEst)
	} else {
		logger.Debug("upper bound cross-check skipped", zap.Error(err))
	}
	return nil
}

// solveLower recovers the missing lower bound from the upper bound. The
// liquidity comes from the token0 side, which fills the window between the
// current price and the upper bound.
func solveLower(out io.Writer, cfg config.SolveConfig, sp float64) error {
	sb := math.Sqrt(cfg.Upper)

	l, err := univ3.LiquidityForAmount0(cfg.Amount0, sp, sb)
	if err != nil {
		return err
	}
	est, err := univ3.SolveLowerBound(l, sp, sb, cfg.Amount0, cfg.Amount1)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "liquidity: %.6f\n", l)
	render.PrintBoundEstimate(out, "lower bound", est)

	c := sb / sp
	if d, err := univ3.LowerRatio(cfg.Price, c, cfg.Amount0, cfg.Amount1); err == nil {
		fmt.Fprintf(out, "ratio form: d = %.6f, lower bound %.6f\n", d, d*d*cfg.Price)
	}
	return nil
}

// solveUpper recovers the missing upper bound from the lower bound. The
// liquidity comes from the token1 side, which fills the window between the
// lower bound and the current price.
func solveUpper(out io.Writer, cfg config.SolveConfig, sp float64) error {
	sa := math.Sqrt(cfg.Lower)

	l, err := univ3.LiquidityForAmount1(cfg.Amount1, sa, sp)
	if err != nil {
		return err
	}
	est, err := univ3.SolveUpperBound(l, sp, sa, cfg.Amount0, cfg.Amount1)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "liquidity: %.6f\n", l)
	render.PrintBoundEstimate(out, "upper bound", est)

	d := sa / sp
	if c, err := univ3.UpperRatio(cfg.Price, d, cfg.Amount0, cfg.Amount1); err == nil {
		fmt.Fprintf(out, "ratio form: c = %.6f, upper bound %.6f\n", c, c*c*cfg.Price)
	}
	return nil
}
