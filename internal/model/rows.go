package model

// PoolDayRecord is the raw daily trading summary returned by the subgraph.
type PoolDayRecord struct {
	Date      int64  `json:"date"`
	VolumeUSD string `json:"volumeUSD"`
}

// RangeRow is one spacing-sized sub-range of a computed distribution,
// shaped for JSONL and Postgres output.
type RangeRow struct {
	PoolID     string  `json:"pool_id"`
	TickLower  int     `json:"tick_lower"`
	TickUpper  int     `json:"tick_upper"`
	Liquidity  float64 `json:"liquidity"`
	Amount0    float64 `json:"amount0"`
	Amount1    float64 `json:"amount1"`
	IsCurrent  bool    `json:"is_current"`
	ObservedAt string  `json:"observed_at"`
}

// PositionRow is one valued position, shaped for JSONL and Postgres output.
type PositionRow struct {
	PoolID     string  `json:"pool_id"`
	PositionID string  `json:"position_id"`
	TickLower  int     `json:"tick_lower"`
	TickUpper  int     `json:"tick_upper"`
	Liquidity  float64 `json:"liquidity"`
	Amount0    float64 `json:"amount0"`
	Amount1    float64 `json:"amount1"`
	InRange    bool    `json:"in_range"`
	ObservedAt string  `json:"observed_at"`
}

// PoolSnapshot is the pool-level summary stored alongside range and
// position rows.
type PoolSnapshot struct {
	PoolID      string `json:"pool_id"`
	FeeTier     int    `json:"fee_tier"`
	TickSpacing int    `json:"tick_spacing"`
	CurrentTick int    `json:"current_tick"`
	Liquidity   string `json:"liquidity"`
	Token0      Token  `json:"token0"`
	Token1      Token  `json:"token1"`
	ObservedAt  string `json:"observed_at"`
}
