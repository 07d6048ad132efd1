package univ3

import (
	"math"
	"testing"
)

func TestFeeTierToSpacing(t *testing.T) {
	cases := []struct {
		feeTier int
		want    int
	}{
		{100, 1},
		{500, 10},
		{3000, 60},
		{10000, 200},
		{999999, 60}, // unknown tiers alias to the 0.3% spacing
		{0, 60},
	}
	for _, tc := range cases {
		if got := FeeTierToSpacing(tc.feeTier); got != tc.want {
			t.Errorf("FeeTierToSpacing(%d) = %d, want %d", tc.feeTier, got, tc.want)
		}
	}
}

func TestFloorToSpacing(t *testing.T) {
	cases := []struct {
		tick, spacing, want int
	}{
		{0, 60, 0},
		{59, 60, 0},
		{60, 60, 60},
		{61, 60, 60},
		{-1, 60, -60},
		{-60, 60, -60},
		{-61, 60, -120},
		{-887272, 200, -887400},
		{199, 200, 0},
	}
	for _, tc := range cases {
		if got := FloorToSpacing(tc.tick, tc.spacing); got != tc.want {
			t.Errorf("FloorToSpacing(%d, %d) = %d, want %d", tc.tick, tc.spacing, got, tc.want)
		}
	}
}

func TestTickToPrice(t *testing.T) {
	if got := TickToPrice(0); got != 1 {
		t.Fatalf("TickToPrice(0) = %v, want 1", got)
	}
	if got := TickToPrice(1); math.Abs(got-1.0001) > 1e-12 {
		t.Fatalf("TickToPrice(1) = %v, want 1.0001", got)
	}
	// Fractional ticks give sqrt prices: 1.0001^(t/2) == sqrt(1.0001^t).
	for _, tick := range []int{-100, -1, 1, 7, 12345} {
		want := math.Sqrt(TickToPrice(float64(tick)))
		if got := TickToSqrtPrice(tick); math.Abs(got/want-1) > 1e-12 {
			t.Errorf("TickToSqrtPrice(%d) = %v, want %v", tick, got, want)
		}
	}
}

func TestPriceFromSqrtX96(t *testing.T) {
	// sqrtPriceX96 == 2^96 encodes a price of exactly 1.
	if got := PriceFromSqrtX96(Q96); got != 1 {
		t.Fatalf("PriceFromSqrtX96(2^96) = %v, want 1", got)
	}
	// Doubling the sqrt quadruples the price.
	if got := PriceFromSqrtX96(2 * Q96); math.Abs(got-4) > 1e-12 {
		t.Fatalf("PriceFromSqrtX96(2·2^96) = %v, want 4", got)
	}
}
