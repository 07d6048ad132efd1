package model

import (
	"fmt"
	"math/big"
	"strconv"
)

// TickRef is the nested tick index object used by position records.
type TickRef struct {
	TickIdx string `json:"tickIdx"`
}

// PoolRef is the nested pool reference on a single-position record.
type PoolRef struct {
	ID string `json:"id"`
}

// PositionRecord is the raw position payload returned by the subgraph. The
// pool and token fields are only populated by the single-position query.
type PositionRecord struct {
	ID        string       `json:"id"`
	Liquidity string       `json:"liquidity"`
	TickLower TickRef      `json:"tickLower"`
	TickUpper TickRef      `json:"tickUpper"`
	Pool      *PoolRef     `json:"pool,omitempty"`
	Token0    *TokenRecord `json:"token0,omitempty"`
	Token1    *TokenRecord `json:"token1,omitempty"`
}

// Position is a parsed (lowerTick, upperTick, liquidity) tuple. The core
// never mutates a position; it only values it at a given current price.
type Position struct {
	ID        string
	TickLower int
	TickUpper int
	Liquidity *big.Int
	PoolID    string
	Token0    *Token
	Token1    *Token
}

// ParsePosition converts a raw subgraph position record.
func ParsePosition(record PositionRecord) (Position, error) {
	lower, err := strconv.Atoi(record.TickLower.TickIdx)
	if err != nil {
		return Position{}, fmt.Errorf("parse tickLower %q: %w", record.TickLower.TickIdx, err)
	}
	upper, err := strconv.Atoi(record.TickUpper.TickIdx)
	if err != nil {
		return Position{}, fmt.Errorf("parse tickUpper %q: %w", record.TickUpper.TickIdx, err)
	}
	if upper <= lower {
		return Position{}, fmt.Errorf("position %s: tickUpper %d <= tickLower %d", record.ID, upper, lower)
	}
	liquidity, err := ParseBigInt(record.Liquidity)
	if err != nil {
		return Position{}, fmt.Errorf("parse liquidity for position %s: %w", record.ID, err)
	}

	pos := Position{
		ID:        record.ID,
		TickLower: lower,
		TickUpper: upper,
		Liquidity: liquidity,
	}
	if record.Pool != nil {
		pos.PoolID = record.Pool.ID
	}
	if record.Token0 != nil {
		token, err := parseToken(*record.Token0)
		if err != nil {
			return Position{}, fmt.Errorf("parse token0: %w", err)
		}
		pos.Token0 = &token
	}
	if record.Token1 != nil {
		token, err := parseToken(*record.Token1)
		if err != nil {
			return Position{}, fmt.Errorf("parse token1: %w", err)
		}
		pos.Token1 = &token
	}
	return pos, nil
}

// InRange reports whether the current tick sits strictly inside the
// position's range, i.e. the position is active.
func (p Position) InRange(currentTick int) bool {
	return p.TickLower < currentTick && currentTick < p.TickUpper
}

// LiquidityFloat converts the position liquidity for use in the float math.
func (p Position) LiquidityFloat() float64 {
	out, _ := new(big.Float).SetInt(p.Liquidity).Float64()
	return out
}
