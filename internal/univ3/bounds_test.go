package univ3

import (
	"errors"
	"math"
	"testing"
)

type boundScenario struct {
	name    string
	x, y, p float64
	a, b    float64
}

// Representative inputs from the Uniswap v3 UI and the technical note.
var boundScenarios = []boundScenario{
	{"ui-small", 1, 4, 20.0, 19.027, 25.993},
	{"ui-eth", 1, 5096.06, 3227.02, 1626.3, 4846.3},
	{"worked-example", 2, 5076.10, 2000, 1500, 2500},
}

func TestSolveBoundsAgainstKnownRanges(t *testing.T) {
	for _, sc := range boundScenarios {
		t.Run(sc.name, func(t *testing.T) {
			sp := math.Sqrt(sc.p)
			sa := math.Sqrt(sc.a)
			sb := math.Sqrt(sc.b)

			l, err := LiquidityForAmounts(sc.x, sc.y, sp, sa, sb)
			if err != nil {
				t.Fatalf("liquidity: %v", err)
			}

			lower, err := SolveLowerBound(l, sp, sb, sc.x, sc.y)
			if err != nil {
				t.Fatalf("lower bound: %v", err)
			}
			withinRel(t, lower.WithLiquidity, sc.a, 0.01, "lower bound (liquidity)")
			withinRel(t, lower.FromAmounts, sc.a, 0.01, "lower bound (amounts)")
			if !lower.Consistent {
				t.Errorf("lower bound derivations disagree: %v vs %v", lower.WithLiquidity, lower.FromAmounts)
			}

			upper, err := SolveUpperBound(l, sp, sa, sc.x, sc.y)
			if err != nil {
				t.Fatalf("upper bound: %v", err)
			}
			withinRel(t, upper.WithLiquidity, sc.b, 0.01, "upper bound (liquidity)")
			withinRel(t, upper.FromAmounts, sc.b, 0.01, "upper bound (amounts)")
			if !upper.Consistent {
				t.Errorf("upper bound derivations disagree: %v vs %v", upper.WithLiquidity, upper.FromAmounts)
			}
		})
	}
}

func TestRatioForms(t *testing.T) {
	for _, sc := range boundScenarios {
		t.Run(sc.name, func(t *testing.T) {
			sp := math.Sqrt(sc.p)
			wantC := math.Sqrt(sc.b) / sp
			wantD := math.Sqrt(sc.a) / sp

			c, err := UpperRatio(sc.p, wantD, sc.x, sc.y)
			if err != nil {
				t.Fatalf("upper ratio: %v", err)
			}
			withinRel(t, c, wantC, 0.01, "upper ratio")

			d, err := LowerRatio(sc.p, wantC, sc.x, sc.y)
			if err != nil {
				t.Fatalf("lower ratio: %v", err)
			}
			withinRel(t, d, wantD, 0.01, "lower ratio")
		})
	}
}

func TestSolverSingularities(t *testing.T) {
	if _, err := LowerBoundFromLiquidity(0, 10, 5); !errors.Is(err, ErrNonInvertible) {
		t.Errorf("zero liquidity: err = %v", err)
	}
	if _, err := LowerBoundFromAmounts(10, 20, 0, 5); !errors.Is(err, ErrNonInvertible) {
		t.Errorf("zero token0 amount: err = %v", err)
	}
	// L == √P·x makes the upper-bound denominator vanish.
	if _, err := UpperBoundFromLiquidity(20, 10, 2); !errors.Is(err, ErrNonInvertible) {
		t.Errorf("vanishing denominator: err = %v", err)
	}
	if _, err := UpperRatio(10, 1, 2, 0); !errors.Is(err, ErrNonInvertible) {
		t.Errorf("upper ratio denominator: err = %v", err)
	}
	if _, err := LowerRatio(10, 0, 2, 5); !errors.Is(err, ErrNonInvertible) {
		t.Errorf("lower ratio zero c: err = %v", err)
	}
}

func TestRelativeError(t *testing.T) {
	if got := RelativeError(99, 100); math.Abs(got-0.01) > 1e-12 {
		t.Errorf("RelativeError(99, 100) = %v, want 0.01", got)
	}
	if got := RelativeError(0, 0); got != 0 {
		t.Errorf("RelativeError(0, 0) = %v, want 0", got)
	}
	if got := RelativeError(1, 0); !math.IsInf(got, 1) {
		t.Errorf("RelativeError(1, 0) = %v, want +Inf", got)
	}
}
