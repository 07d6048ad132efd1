// Package postgres provides Postgres persistence for pool snapshots, range
// distributions and position valuations.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rangeScope/internal/model"
)

// Store writes computed rows into Postgres.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// PutSnapshot inserts or updates pool-level state.
func (s *Store) PutSnapshot(ctx context.Context, snapshot model.PoolSnapshot) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO pools (
			pool_id, fee_tier, tick_spacing, current_tick, liquidity,
			token0_symbol, token0_decimals, token1_symbol, token1_decimals,
			observed_at, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,now(),now())
		ON CONFLICT (pool_id)
		DO UPDATE SET
			fee_tier = EXCLUDED.fee_tier,
			tick_spacing = EXCLUDED.tick_spacing,
			current_tick = EXCLUDED.current_tick,
			liquidity = EXCLUDED.liquidity,
			token0_symbol = EXCLUDED.token0_symbol,
			token0_decimals = EXCLUDED.token0_decimals,
			token1_symbol = EXCLUDED.token1_symbol,
			token1_decimals = EXCLUDED.token1_decimals,
			observed_at = EXCLUDED.observed_at,
			updated_at = now()
	`,
		snapshot.PoolID,
		snapshot.FeeTier,
		snapshot.TickSpacing,
		snapshot.CurrentTick,
		snapshot.Liquidity,
		snapshot.Token0.Symbol,
		snapshot.Token0.Decimals,
		snapshot.Token1.Symbol,
		snapshot.Token1.Decimals,
		snapshot.ObservedAt,
	)
	return err
}

// PutRangeBatch inserts or updates range distribution rows.
func (s *Store) PutRangeBatch(ctx context.Context, rows []model.RangeRow) error {
	if len(rows) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(`
			INSERT INTO range_distributions (
				pool_id, tick_lower, tick_upper, liquidity, amount0, amount1,
				is_current, observed_at, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,now(),now())
			ON CONFLICT (pool_id, tick_lower, observed_at)
			DO UPDATE SET
				tick_upper = EXCLUDED.tick_upper,
				liquidity = EXCLUDED.liquidity,
				amount0 = EXCLUDED.amount0,
				amount1 = EXCLUDED.amount1,
				is_current = EXCLUDED.is_current,
				updated_at = now()
		`,
			row.PoolID,
			row.TickLower,
			row.TickUpper,
			row.Liquidity,
			row.Amount0,
			row.Amount1,
			row.IsCurrent,
			row.ObservedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range rows {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// PutPositionBatch inserts or updates position valuation rows.
func (s *Store) PutPositionBatch(ctx context.Context, rows []model.PositionRow) error {
	if len(rows) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(`
			INSERT INTO position_valuations (
				pool_id, position_id, tick_lower, tick_upper, liquidity,
				amount0, amount1, in_range, observed_at, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,now(),now())
			ON CONFLICT (position_id, observed_at)
			DO UPDATE SET
				pool_id = EXCLUDED.pool_id,
				tick_lower = EXCLUDED.tick_lower,
				tick_upper = EXCLUDED.tick_upper,
				liquidity = EXCLUDED.liquidity,
				amount0 = EXCLUDED.amount0,
				amount1 = EXCLUDED.amount1,
				in_range = EXCLUDED.in_range,
				updated_at = now()
		`,
			row.PoolID,
			row.PositionID,
			row.TickLower,
			row.TickUpper,
			row.Liquidity,
			row.Amount0,
			row.Amount1,
			row.InRange,
			row.ObservedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range rows {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
