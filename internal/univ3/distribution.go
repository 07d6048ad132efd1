package univ3

import (
	"fmt"
	"math"
	"sort"
)

// RangeAmounts describes one spacing-sized sub-range of the tick axis.
//
// For sub-ranges away from the current price only one asset is locked; the
// *IfSwapped field carries the value the locked asset would have if fully
// converted into the other one. It is informational and never added to the
// distribution totals.
type RangeAmounts struct {
	TickLower int
	TickUpper int
	Liquidity float64

	Amount0 float64
	Amount1 float64

	Amount0IfSwapped float64
	Amount1IfSwapped float64

	IsCurrent bool
}

// Distribution is the locked-asset profile of a pool across its populated
// tick domain, plus the totals actually locked.
type Distribution struct {
	Ranges       []RangeAmounts
	TotalAmount0 float64
	TotalAmount1 float64
}

// AggregateDistribution sweeps the tick axis from the lowest to the highest
// populated tick in spacing-sized steps, accumulating signed liquidityNet
// deltas into the active liquidity of each sub-range and valuing the locked
// amounts with the current price.
//
// The accumulator starts at zero, so the per-range liquidity is absolute
// only when the delta map covers the whole initialized domain from below —
// which holds for a full tick dump of a pool. The sweep must be in strictly
// increasing tick order; every sub-range's liquidity depends on the deltas
// before it.
func AggregateDistribution(deltas map[int]float64, currentTick, spacing int, currentPrice float64) (Distribution, error) {
	if spacing <= 0 {
		return Distribution{}, fmt.Errorf("tick spacing must be positive, got %d", spacing)
	}
	if len(deltas) == 0 {
		return Distribution{}, nil
	}

	ticks := make([]int, 0, len(deltas))
	for tick := range deltas {
		ticks = append(ticks, tick)
	}
	sort.Ints(ticks)
	minTick, maxTick := ticks[0], ticks[len(ticks)-1]

	// A sub-range whose lower boundary equals the floored current tick is
	// the current one, even when the current tick sits exactly on a spacing
	// boundary.
	currentBottom := FloorToSpacing(currentTick, spacing)
	currentSqrt := math.Sqrt(currentPrice)

	dist := Distribution{Ranges: make([]RangeAmounts, 0, (maxTick-minTick)/spacing+1)}
	liquidity := 0.0

	for tick := minTick; tick <= maxTick; tick += spacing {
		liquidity += deltas[tick]

		sa := TickToSqrtPrice(tick)
		sb := TickToSqrtPrice(tick + spacing)

		entry := RangeAmounts{
			TickLower: tick,
			TickUpper: tick + spacing,
			Liquidity: liquidity,
		}

		switch {
		case tick < currentBottom:
			// Below the current price: only token1 is locked.
			entry.Amount1 = liquidity * (sb - sa)
			entry.Amount0IfSwapped = entry.Amount1 / (sb * sa)
			dist.TotalAmount1 += entry.Amount1

		case tick == currentBottom:
			// The current sub-range holds both assets, split at the
			// unclamped current sqrt price.
			entry.IsCurrent = true
			entry.Amount0 = liquidity * (sb - currentSqrt) / (currentSqrt * sb)
			entry.Amount1 = liquidity * (currentSqrt - sa)
			dist.TotalAmount0 += entry.Amount0
			dist.TotalAmount1 += entry.Amount1

		default:
			// Above the current price: only token0 is locked.
			entry.Amount1IfSwapped = liquidity * (sb - sa)
			entry.Amount0 = entry.Amount1IfSwapped / (sb * sa)
			dist.TotalAmount0 += entry.Amount0
		}

		dist.Ranges = append(dist.Ranges, entry)
	}

	return dist, nil
}
