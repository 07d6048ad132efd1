// Package model holds the record shapes exchanged with the Uniswap v3
// subgraph and their parsed, full-precision counterparts. On-chain integer
// fields (liquidity, sqrtPrice, liquidityNet) can exceed 64 bits, so every
// raw record keeps them as strings and parsing goes through math/big or
// uint256 before any float conversion.
package model

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/holiman/uint256"

	"rangeScope/internal/univ3"
)

// TokenRecord is the raw token payload returned by the subgraph.
type TokenRecord struct {
	Symbol   string `json:"symbol"`
	Decimals string `json:"decimals"`
}

// PoolRecord is the raw pool payload returned by the subgraph.
type PoolRecord struct {
	Tick      string      `json:"tick"`
	SqrtPrice string      `json:"sqrtPrice"`
	Liquidity string      `json:"liquidity"`
	FeeTier   string      `json:"feeTier"`
	Token0    TokenRecord `json:"token0"`
	Token1    TokenRecord `json:"token1"`
}

// Token is parsed ERC20 display metadata.
type Token struct {
	Symbol   string
	Decimals int
}

// Pool is a read-only snapshot of a pool, parsed at full precision. Float
// conversion happens at the math boundary, never during parsing.
type Pool struct {
	ID           string
	Tick         int
	Liquidity    *big.Int
	SqrtPriceX96 *uint256.Int
	FeeTier      int
	Token0       Token
	Token1       Token
}

// ParsePool converts a raw subgraph pool record into a Pool.
func ParsePool(id string, record PoolRecord) (Pool, error) {
	tick, err := strconv.Atoi(record.Tick)
	if err != nil {
		return Pool{}, fmt.Errorf("parse tick %q: %w", record.Tick, err)
	}
	feeTier, err := strconv.Atoi(record.FeeTier)
	if err != nil {
		return Pool{}, fmt.Errorf("parse fee tier %q: %w", record.FeeTier, err)
	}
	liquidity, err := ParseBigInt(record.Liquidity)
	if err != nil {
		return Pool{}, fmt.Errorf("parse liquidity: %w", err)
	}
	sqrtPrice, err := uint256.FromDecimal(record.SqrtPrice)
	if err != nil {
		return Pool{}, fmt.Errorf("parse sqrtPrice %q: %w", record.SqrtPrice, err)
	}
	token0, err := parseToken(record.Token0)
	if err != nil {
		return Pool{}, fmt.Errorf("parse token0: %w", err)
	}
	token1, err := parseToken(record.Token1)
	if err != nil {
		return Pool{}, fmt.Errorf("parse token1: %w", err)
	}

	return Pool{
		ID:           id,
		Tick:         tick,
		Liquidity:    liquidity,
		SqrtPriceX96: sqrtPrice,
		FeeTier:      feeTier,
		Token0:       token0,
		Token1:       token1,
	}, nil
}

func parseToken(record TokenRecord) (Token, error) {
	decimals, err := strconv.Atoi(record.Decimals)
	if err != nil {
		return Token{}, fmt.Errorf("parse decimals %q: %w", record.Decimals, err)
	}
	return Token{Symbol: record.Symbol, Decimals: decimals}, nil
}

// ParseBigInt parses a signed decimal integer string of arbitrary width.
// The empty string parses as zero, matching how the subgraph omits fields.
func ParseBigInt(value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid int: %s", value)
	}
	return parsed, nil
}

// SqrtPrice returns the current sqrt price rescaled out of Q64.96 fixed
// point.
func (p Pool) SqrtPrice() float64 {
	return p.sqrtPriceX96Float() / univ3.Q96
}

// Price returns the current token1/token0 price.
func (p Pool) Price() float64 {
	return univ3.PriceFromSqrtX96(p.sqrtPriceX96Float())
}

func (p Pool) sqrtPriceX96Float() float64 {
	out, _ := new(big.Float).SetInt(p.SqrtPriceX96.ToBig()).Float64()
	return out
}

// LiquidityFloat converts the pool liquidity for use in the float math.
func (p Pool) LiquidityFloat() float64 {
	out, _ := new(big.Float).SetInt(p.Liquidity).Float64()
	return out
}
