package univ3

import "math"

// CrossCheckTolerance is the relative disagreement between the two bound
// derivations above which a solution should be treated as suspect. The
// upstream system discretizes liquidity and price into integers and ticks
// while this math is continuous, so small disagreements are expected.
const CrossCheckTolerance = 0.01

// LowerBoundFromLiquidity solves L = y / (√P − √Pa) for the lower bound:
// Pa = (√P − y/L)².
func LowerBoundFromLiquidity(l, sp, y float64) (float64, error) {
	if l == 0 {
		return 0, ErrNonInvertible
	}
	sa := sp - y/l
	return sa * sa, nil
}

// LowerBoundFromAmounts recovers the lower bound without knowing liquidity,
// by equating the two single-asset liquidity formulas:
// √Pa = y/(√Pb·x) + √P − y/(√P·x).
func LowerBoundFromAmounts(sp, sb, x, y float64) (float64, error) {
	if x == 0 || sb == 0 || sp == 0 {
		return 0, ErrNonInvertible
	}
	sa := y/(sb*x) + sp - y/(sp*x)
	return sa * sa, nil
}

// UpperBoundFromLiquidity solves L = x·√P·√Pb / (√Pb − √P) for the upper
// bound: Pb = (L·√P / (L − √P·x))².
func UpperBoundFromLiquidity(l, sp, x float64) (float64, error) {
	denom := l - sp*x
	if denom == 0 {
		return 0, ErrNonInvertible
	}
	sb := l * sp / denom
	return sb * sb, nil
}

// UpperBoundFromAmounts recovers the upper bound without knowing liquidity:
// √Pb = √P·y / ((√Pa·√P − P)·x + y) where P = (√P)².
func UpperBoundFromAmounts(sp, sa, x, y float64) (float64, error) {
	p := sp * sp
	denom := (sa*sp-p)*x + y
	if denom == 0 {
		return 0, ErrNonInvertible
	}
	sb := sp * y / denom
	return sb * sb, nil
}

// UpperRatio solves for c = √Pb/√P given the lower ratio d = √Pa/√P. Useful
// when a range is expressed as percentages of the current price.
func UpperRatio(p, d, x, y float64) (float64, error) {
	denom := (d-1)*p*x + y
	if denom == 0 {
		return 0, ErrNonInvertible
	}
	return y / denom, nil
}

// LowerRatio solves for d = √Pa/√P given the upper ratio c = √Pb/√P.
func LowerRatio(p, c, x, y float64) (float64, error) {
	if c == 0 || p == 0 || x == 0 {
		return 0, ErrNonInvertible
	}
	return 1 + y*(1-c)/(c*p*x), nil
}

// RelativeError returns |1 − got/want|, or 0 when both values are zero.
func RelativeError(got, want float64) float64 {
	if want == 0 {
		if got == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return math.Abs(1 - got/want)
}

// BoundEstimate carries a price bound recovered through two independent
// derivations. The estimates are advisory: callers should check Consistent
// rather than expect bit-exact agreement.
type BoundEstimate struct {
	WithLiquidity float64
	FromAmounts   float64
	RelError      float64
	Consistent    bool
}

// SolveLowerBound recovers the lower price bound both with and without the
// liquidity value and reports how far apart the two derivations land.
func SolveLowerBound(l, sp, sb, x, y float64) (BoundEstimate, error) {
	a1, err := LowerBoundFromLiquidity(l, sp, y)
	if err != nil {
		return BoundEstimate{}, err
	}
	a2, err := LowerBoundFromAmounts(sp, sb, x, y)
	if err != nil {
		return BoundEstimate{}, err
	}
	relErr := RelativeError(a2, a1)
	return BoundEstimate{
		WithLiquidity: a1,
		FromAmounts:   a2,
		RelError:      relErr,
		Consistent:    relErr <= CrossCheckTolerance,
	}, nil
}

// SolveUpperBound recovers the upper price bound both with and without the
// liquidity value and reports how far apart the two derivations land.
func SolveUpperBound(l, sp, sa, x, y float64) (BoundEstimate, error) {
	b1, err := UpperBoundFromLiquidity(l, sp, x)
	if err != nil {
		return BoundEstimate{}, err
	}
	b2, err := UpperBoundFromAmounts(sp, sa, x, y)
	if err != nil {
		return BoundEstimate{}, err
	}
	relErr := RelativeError(b2, b1)
	return BoundEstimate{
		WithLiquidity: b1,
		FromAmounts:   b2,
		RelError:      relErr,
		Consistent:    relErr <= CrossCheckTolerance,
	}, nil
}
