// Package render turns raw math results into human-readable output. Raw
// amounts carry the full on-chain decimals, so everything printed here is
// scaled down by each token's decimal count first.
package render

import (
	"fmt"
	"io"
	"math"

	"github.com/shopspring/decimal"

	"rangeScope/internal/model"
	"rangeScope/internal/univ3"
)

// stableSymbols lists tokens whose price is pegged near one dollar. When
// token0 is a stable and token1 is not, quoting token1 in token0 reads more
// naturally, so the displayed price is inverted.
var stableSymbols = map[string]bool{
	"USDC": true,
	"DAI":  true,
	"USDT": true,
	"TUSD": true,
	"LUSD": true,
	"BUSD": true,
	"GUSD": true,
	"UST":  true,
}

// AdjustAmount scales a raw token amount down by the token's decimals.
func AdjustAmount(raw float64, decimals int) decimal.Decimal {
	return decimal.NewFromFloat(raw).Shift(int32(-decimals))
}

// AdjustPrice converts a raw token1/token0 price into display units by
// cancelling the decimal difference between the two tokens.
func AdjustPrice(raw float64, token0, token1 model.Token) decimal.Decimal {
	return decimal.NewFromFloat(raw).Shift(int32(token0.Decimals - token1.Decimals))
}

// ShouldInvert reports whether prices read better as token0 per token1.
func ShouldInvert(adjustedPrice decimal.Decimal, token0, token1 model.Token) bool {
	if stableSymbols[token0.Symbol] && !stableSymbols[token1.Symbol] {
		return true
	}
	return adjustedPrice.LessThan(decimal.NewFromInt(1))
}

// DisplayPrice applies the decimal adjustment and the inversion heuristic,
// returning the price, its quote direction, and whether it was inverted.
func DisplayPrice(raw float64, token0, token1 model.Token) (decimal.Decimal, string, bool) {
	adjusted := AdjustPrice(raw, token0, token1)
	if ShouldInvert(adjusted, token0, token1) && !adjusted.IsZero() {
		inverted := decimal.NewFromInt(1).Div(adjusted)
		return inverted, fmt.Sprintf("%s per %s", token0.Symbol, token1.Symbol), true
	}
	return adjusted, fmt.Sprintf("%s per %s", token1.Symbol, token0.Symbol), false
}

// PrintPoolHeader writes the pool-level summary line.
func PrintPoolHeader(w io.Writer, pool model.Pool, spacing int) {
	price, quote, _ := DisplayPrice(pool.Price(), pool.Token0, pool.Token1)
	fmt.Fprintf(w, "pool %s  %s/%s  fee %.2f%%  spacing %d\n",
		pool.ID, pool.Token0.Symbol, pool.Token1.Symbol,
		float64(pool.FeeTier)/10000, spacing)
	fmt.Fprintf(w, "tick %d  price %s %s\n\n", pool.Tick, price.StringFixed(6), quote)
}

// PrintDistribution writes one row per sub-range with decimal-adjusted
// amounts. The current range is marked with an asterisk.
func PrintDistribution(w io.Writer, dist univ3.Distribution, token0, token1 model.Token) {
	fmt.Fprintf(w, "%10s %10s %22s %18s %18s\n",
		"tickLower", "tickUpper", "liquidity", token0.Symbol, token1.Symbol)
	for _, r := range dist.Ranges {
		marker := " "
		if r.IsCurrent {
			marker = "*"
		}
		fmt.Fprintf(w, "%s%9d %10d %22.4f %18s %18s\n",
			marker, r.TickLower, r.TickUpper, r.Liquidity,
			AdjustAmount(r.Amount0, token0.Decimals).StringFixed(6),
			AdjustAmount(r.Amount1, token1.Decimals).StringFixed(6))
	}
	fmt.Fprintf(w, "\ntotal locked: %s %s, %s %s\n",
		AdjustAmount(dist.TotalAmount0, token0.Decimals).StringFixed(6), token0.Symbol,
		AdjustAmount(dist.TotalAmount1, token1.Decimals).StringFixed(6), token1.Symbol)
}

// PrintPosition writes a single valued position.
func PrintPosition(w io.Writer, pos model.Position, amount0, amount1 float64, currentTick int, token0, token1 model.Token) {
	status := "out of range"
	if pos.InRange(currentTick) {
		status = "in range"
	}
	fmt.Fprintf(w, "position %s  [%d, %d)  %s\n", pos.ID, pos.TickLower, pos.TickUpper, status)
	fmt.Fprintf(w, "holds %s %s and %s %s\n",
		AdjustAmount(amount0, token0.Decimals).StringFixed(6), token0.Symbol,
		AdjustAmount(amount1, token1.Decimals).StringFixed(6), token1.Symbol)
}

// PrintBoundEstimate writes both derivations of a solved range bound and
// flags disagreement beyond the cross-check tolerance.
func PrintBoundEstimate(w io.Writer, label string, est univ3.BoundEstimate) {
	fmt.Fprintf(w, "%s: %.6f (liquidity form) vs %.6f (amounts form), rel err %.5f\n",
		label, est.WithLiquidity, est.FromAmounts, est.RelError)
	if !est.Consistent {
		fmt.Fprintf(w, "warning: %s derivations disagree beyond %.0f%%\n",
			label, univ3.CrossCheckTolerance*100)
	}
}

// PrintVolatility writes the implied volatility summary.
func PrintVolatility(w io.Writer, feeTier int, volumeUSD, lockedUSD, iv float64) {
	fmt.Fprintf(w, "fee tier %.2f%%  volume %.2f  locked in current range %.2f\n",
		float64(feeTier)/10000, volumeUSD, lockedUSD)
	fmt.Fprintf(w, "implied volatility: %.2f%% annualized\n", iv*100)
}

// Sanitize replaces NaN and infinities so a value is printable and safe to
// serialize.
func Sanitize(value float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return value
}
