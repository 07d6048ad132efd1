package univ3

import "math"

const daysPerYear = 365

// CurrentRangeLocked returns the amount locked in the spacing-sized range
// containing currentTick, expressed in token0 terms: L·(√Pb−√Pa)/(√Pa·√Pb).
func CurrentRangeLocked(liquidity float64, currentTick, spacing int) (float64, error) {
	bottom := FloorToSpacing(currentTick, spacing)
	sa := TickToSqrtPrice(bottom)
	sb := TickToSqrtPrice(bottom + spacing)
	if sa*sb == 0 {
		return 0, ErrNonInvertible
	}
	return liquidity * (sb - sa) / (sa * sb), nil
}

// ImpliedVolatility estimates the annualized volatility a day's trading
// implies: IV = 2·fee·√(volume/locked)·√365, with fee the tier converted
// from hundredths of a bip to a fraction. Volume and locked amount must be
// in the same unit (typically USD).
func ImpliedVolatility(feeTier int, volume, locked float64) (float64, error) {
	if locked <= 0 {
		return 0, ErrNonInvertible
	}
	fee := float64(feeTier) / 1_000_000
	return 2 * fee * math.Sqrt(volume/locked) * math.Sqrt(daysPerYear), nil
}
