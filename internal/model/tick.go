package model

import (
	"fmt"
	"math/big"
	"strconv"
)

// TickRecord is the raw initialized-tick payload returned by the subgraph.
type TickRecord struct {
	TickIdx      string `json:"tickIdx"`
	LiquidityNet string `json:"liquidityNet"`
}

// TickDeltas maps a tick index to the signed liquidity change applied when
// the price crosses that tick upward.
type TickDeltas map[int]*big.Int

// BuildTickDeltas parses a list of tick records into a delta map. Repeated
// tick indexes accumulate, which tolerates overlapping pagination.
func BuildTickDeltas(records []TickRecord) (TickDeltas, error) {
	deltas := make(TickDeltas, len(records))
	for _, record := range records {
		idx, err := strconv.Atoi(record.TickIdx)
		if err != nil {
			return nil, fmt.Errorf("parse tickIdx %q: %w", record.TickIdx, err)
		}
		net, err := ParseBigInt(record.LiquidityNet)
		if err != nil {
			return nil, fmt.Errorf("parse liquidityNet at tick %d: %w", idx, err)
		}
		if existing, ok := deltas[idx]; ok {
			existing.Add(existing, net)
		} else {
			deltas[idx] = net
		}
	}
	return deltas, nil
}

// Floats converts the delta map for the sweep math. Precision beyond
// float64 is deliberately given up here, after parsing, not before.
func (d TickDeltas) Floats() map[int]float64 {
	out := make(map[int]float64, len(d))
	for tick, net := range d {
		val, _ := new(big.Float).SetInt(net).Float64()
		out[tick] = val
	}
	return out
}

// NetSum adds up every delta. For a mapping that covers a pool's whole
// initialized domain the sum is zero; anything else indicates a truncated
// or inconsistent tick dump.
func (d TickDeltas) NetSum() *big.Int {
	sum := big.NewInt(0)
	for _, net := range d {
		sum.Add(sum, net)
	}
	return sum
}
