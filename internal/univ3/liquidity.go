// Package univ3 implements the concentrated-liquidity math of Uniswap v3
// style pools over plain float64 values: tick/price conversion, the
// liquidity-amount algebra, inverse bound solvers and the per-range
// distribution sweep. Everything here is a pure function; all I/O and
// arbitrary-precision parsing happens in the callers.
//
// The formulas follow the "Liquidity Math in Uniswap v3" technical note and
// the LiquidityAmounts periphery library. Because the math is floating
// point over state the chain keeps as integers, results are approximations;
// see CrossCheckTolerance.
package univ3

import "errors"

var (
	// ErrDegenerateRange reports a zero-width range (sqrtA == sqrtB).
	ErrDegenerateRange = errors.New("degenerate range: upper bound equals lower bound")
	// ErrNonInvertible reports a vanishing denominator in a bound solver.
	ErrNonInvertible = errors.New("non-invertible input: solver denominator is zero")
)

// LiquidityForAmount0 computes L = x·√Pa·√Pb / (√Pb − √Pa), the liquidity a
// token0 amount provides when the current price sits at or below the range.
func LiquidityForAmount0(x, sa, sb float64) (float64, error) {
	if sb == sa {
		return 0, ErrDegenerateRange
	}
	return x * sa * sb / (sb - sa), nil
}

// LiquidityForAmount1 computes L = y / (√Pb − √Pa), the liquidity a token1
// amount provides when the current price sits at or above the range.
func LiquidityForAmount1(y, sa, sb float64) (float64, error) {
	if sb == sa {
		return 0, ErrDegenerateRange
	}
	return y / (sb - sa), nil
}

// LiquidityForAmounts computes the liquidity of a position holding x token0
// and y token1 in the range [√Pa, √Pb] at current price √P. When the price
// is inside the range the binding constraint is whichever asset runs out
// first, so the minimum of the two single-asset values is returned.
func LiquidityForAmounts(x, y, sp, sa, sb float64) (float64, error) {
	switch {
	case sp <= sa:
		return LiquidityForAmount0(x, sa, sb)
	case sp < sb:
		l0, err := LiquidityForAmount0(x, sp, sb)
		if err != nil {
			return 0, err
		}
		l1, err := LiquidityForAmount1(y, sa, sp)
		if err != nil {
			return 0, err
		}
		if l1 < l0 {
			return l1, nil
		}
		return l0, nil
	default:
		return LiquidityForAmount1(y, sa, sb)
	}
}

// clampSqrtPrice pins the current sqrt price into [sa, sb]. A range fully
// above or below the current price holds only one asset, which falls out of
// the amount formulas once the price is treated as sitting at the nearest
// boundary.
func clampSqrtPrice(sp, sa, sb float64) float64 {
	if sp < sa {
		return sa
	}
	if sp > sb {
		return sb
	}
	return sp
}

// Amount0ForLiquidity computes x = L·(√Pb − √P) / (√P·√Pb) with the current
// sqrt price clamped into the range.
func Amount0ForLiquidity(l, sp, sa, sb float64) (float64, error) {
	sp = clampSqrtPrice(sp, sa, sb)
	if sp*sb == 0 {
		return 0, ErrNonInvertible
	}
	return l * (sb - sp) / (sp * sb), nil
}

// Amount1ForLiquidity computes y = L·(√P − √Pa) with the current sqrt price
// clamped into the range.
func Amount1ForLiquidity(l, sp, sa, sb float64) (float64, error) {
	sp = clampSqrtPrice(sp, sa, sb)
	return l * (sp - sa), nil
}

// AmountsForLiquidity values a liquidity quantity at the given current sqrt
// price, returning both token amounts.
func AmountsForLiquidity(l, sp, sa, sb float64) (amount0, amount1 float64, err error) {
	amount0, err = Amount0ForLiquidity(l, sp, sa, sb)
	if err != nil {
		return 0, 0, err
	}
	amount1, err = Amount1ForLiquidity(l, sp, sa, sb)
	if err != nil {
		return 0, 0, err
	}
	return amount0, amount1, nil
}
