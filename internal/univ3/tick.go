package univ3

import "math"

// PriceBase is the geometric base of the tick grid: each tick moves the
// price by one basis point of a percent.
const PriceBase = 1.0001

// Q96 is the fixed-point denominator used for sqrtPrice values on chain.
var Q96 = math.Pow(2, 96)

// TickToPrice converts a tick index to a token1/token0 price. Fractional
// ticks are accepted so callers can obtain sqrt prices via tick/2.
func TickToPrice(tick float64) float64 {
	return math.Pow(PriceBase, tick)
}

// TickToSqrtPrice returns the square root of the price at an integer tick.
func TickToSqrtPrice(tick int) float64 {
	return TickToPrice(float64(tick) / 2)
}

// PriceFromSqrtX96 rescales an on-chain Q64.96 sqrtPrice into a price.
func PriceFromSqrtX96(sqrtPriceX96 float64) float64 {
	sp := sqrtPriceX96 / Q96
	return sp * sp
}

var tickSpacings = map[int]int{
	100:   1,
	500:   10,
	3000:  60,
	10000: 200,
}

// DefaultTickSpacing is used for fee tiers outside the known table. The
// silent fallback matches upstream pool tooling; callers that care should
// log the spacing they ended up with.
const DefaultTickSpacing = 60

// FeeTierToSpacing maps a fee tier (hundredths of a bip, e.g. 3000 = 0.3%)
// to the pool's tick spacing.
func FeeTierToSpacing(feeTier int) int {
	if spacing, ok := tickSpacings[feeTier]; ok {
		return spacing
	}
	return DefaultTickSpacing
}

// FloorToSpacing returns the lower boundary of the spacing-sized range
// containing tick. Uses mathematical floor division so negative ticks
// round toward negative infinity, not toward zero.
func FloorToSpacing(tick, spacing int) int {
	q := tick / spacing
	if tick%spacing != 0 && (tick < 0) != (spacing < 0) {
		q--
	}
	return q * spacing
}
