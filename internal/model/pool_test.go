package model

import (
	"encoding/json"
	"math"
	"math/big"
	"testing"
)

const poolJSON = `{
  "tick": "200311",
  "sqrtPrice": "1771595571142957166518320255467520",
  "liquidity": "22402056315271901223",
  "feeTier": "3000",
  "token0": {"symbol": "USDC", "decimals": "6"},
  "token1": {"symbol": "WETH", "decimals": "18"}
}`

func TestParsePool(t *testing.T) {
	var record PoolRecord
	if err := json.Unmarshal([]byte(poolJSON), &record); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	pool, err := ParsePool("0x8ad5", record)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if pool.Tick != 200311 {
		t.Errorf("tick = %d, want 200311", pool.Tick)
	}
	if pool.FeeTier != 3000 {
		t.Errorf("fee tier = %d, want 3000", pool.FeeTier)
	}
	if pool.Token0.Symbol != "USDC" || pool.Token0.Decimals != 6 {
		t.Errorf("token0 = %+v", pool.Token0)
	}
	if pool.Token1.Symbol != "WETH" || pool.Token1.Decimals != 18 {
		t.Errorf("token1 = %+v", pool.Token1)
	}

	// Liquidity exceeds 64 bits and must survive parsing intact.
	want, _ := new(big.Int).SetString("22402056315271901223", 10)
	if pool.Liquidity.Cmp(want) != 0 {
		t.Errorf("liquidity = %s, want %s", pool.Liquidity, want)
	}

	// The rescaled sqrt price squared must land within one tick of
	// 1.0001^tick, since the tick is the floored log of the price.
	price := pool.Price()
	wantPrice := math.Pow(1.0001, float64(pool.Tick))
	if math.Abs(price/wantPrice-1) > 2e-4 {
		t.Errorf("price = %v, want about %v", price, wantPrice)
	}

	// Both accessors rescale the same Q64.96 value and must agree.
	sp := pool.SqrtPrice()
	if math.Abs(sp*sp/price-1) > 1e-12 {
		t.Errorf("sqrt price %v squared = %v, price = %v", sp, sp*sp, price)
	}
}

func TestParsePoolBadFields(t *testing.T) {
	bad := []PoolRecord{
		{Tick: "abc", SqrtPrice: "1", Liquidity: "1", FeeTier: "3000"},
		{Tick: "1", SqrtPrice: "not-a-number", Liquidity: "1", FeeTier: "3000"},
		{Tick: "1", SqrtPrice: "1", Liquidity: "xyz", FeeTier: "3000"},
		{Tick: "1", SqrtPrice: "1", Liquidity: "1", FeeTier: ""},
	}
	for i, record := range bad {
		record.Token0 = TokenRecord{Symbol: "A", Decimals: "18"}
		record.Token1 = TokenRecord{Symbol: "B", Decimals: "18"}
		if _, err := ParsePool("p", record); err == nil {
			t.Errorf("case %d: bad record accepted", i)
		}
	}
}

func TestBuildTickDeltas(t *testing.T) {
	records := []TickRecord{
		{TickIdx: "-887220", LiquidityNet: "340282366920938463463374607431768211455"},
		{TickIdx: "0", LiquidityNet: "-100"},
		{TickIdx: "0", LiquidityNet: "-50"}, // duplicate index accumulates
	}
	deltas, err := BuildTickDeltas(records)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(deltas) != 2 {
		t.Fatalf("got %d entries, want 2", len(deltas))
	}
	if deltas[0].Int64() != -150 {
		t.Errorf("delta at 0 = %s, want -150", deltas[0])
	}
	// 2^128-1 must survive parsing.
	want, _ := new(big.Int).SetString("340282366920938463463374607431768211455", 10)
	if deltas[-887220].Cmp(want) != 0 {
		t.Errorf("delta at -887220 = %s, want %s", deltas[-887220], want)
	}

	floats := deltas.Floats()
	if floats[0] != -150 {
		t.Errorf("float delta at 0 = %v, want -150", floats[0])
	}
}

func TestTickDeltasNetSum(t *testing.T) {
	deltas := TickDeltas{
		-60: big.NewInt(1000),
		60:  big.NewInt(-1000),
	}
	if sum := deltas.NetSum(); sum.Sign() != 0 {
		t.Errorf("net sum = %s, want 0", sum)
	}
}

func TestParsePosition(t *testing.T) {
	record := PositionRecord{
		ID:        "42",
		Liquidity: "123456789012345678901",
		TickLower: TickRef{TickIdx: "-60"},
		TickUpper: TickRef{TickIdx: "60"},
		Pool:      &PoolRef{ID: "0xpool"},
	}
	pos, err := ParsePosition(record)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if pos.TickLower != -60 || pos.TickUpper != 60 || pos.PoolID != "0xpool" {
		t.Errorf("position = %+v", pos)
	}
	if !pos.InRange(0) {
		t.Errorf("tick 0 should be in range")
	}
	if pos.InRange(60) || pos.InRange(-60) {
		t.Errorf("boundary ticks should not count as in range")
	}

	record.TickUpper = TickRef{TickIdx: "-60"}
	if _, err := ParsePosition(record); err == nil {
		t.Errorf("inverted range accepted")
	}
}
