// Package scope orchestrates the subgraph fetches, the range math, and the
// output sinks behind the CLI commands.
package scope

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"rangeScope/internal/model"
	"rangeScope/internal/storage"
	"rangeScope/internal/univ3"
)

// liquidityMismatchTolerance bounds the relative difference accepted between
// the summed in-range position liquidity and the pool's reported liquidity.
// Positions owned by non-NFT managers are invisible to the position query,
// so a mismatch is logged, never fatal.
const liquidityMismatchTolerance = 1e-4

// Source provides pool, tick and position state.
type Source interface {
	Pool(ctx context.Context, poolID string) (model.Pool, error)
	Ticks(ctx context.Context, poolID string) ([]model.TickRecord, error)
	Positions(ctx context.Context, poolID string) ([]model.PositionRecord, error)
	Position(ctx context.Context, positionID string) (model.Position, error)
	PoolDayData(ctx context.Context, poolID string, days int) ([]model.PoolDayRecord, error)
}

// Service computes range distributions and position valuations from a
// Source and writes them to the configured sinks.
type Service struct {
	source Source
	sinks  []storage.Storage
	logger *zap.Logger
	now    func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithSinks attaches output sinks. Sink failures abort the command.
func WithSinks(sinks ...storage.Storage) Option {
	return func(s *Service) { s.sinks = append(s.sinks, sinks...) }
}

// WithLogger attaches a logger. The default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the observation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService builds a Service over the given source.
func NewService(source Source, opts ...Option) *Service {
	s := &Service{
		source: source,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RangeReport is the result of a range distribution run.
type RangeReport struct {
	Pool         model.Pool
	Spacing      int
	TickCount    int
	Distribution univ3.Distribution
}

// RangeDistribution fetches a pool and its initialized ticks, sweeps them
// into per-sub-range locked amounts, and persists the result.
func (s *Service) RangeDistribution(ctx context.Context, poolID string) (RangeReport, error) {
	pool, err := s.source.Pool(ctx, poolID)
	if err != nil {
		return RangeReport{}, err
	}
	spacing := univ3.FeeTierToSpacing(pool.FeeTier)

	ticks, err := s.source.Ticks(ctx, poolID)
	if err != nil {
		return RangeReport{}, err
	}
	deltas, err := model.BuildTickDeltas(ticks)
	if err != nil {
		return RangeReport{}, err
	}
	if sum := deltas.NetSum(); sum.Sign() != 0 {
		s.logger.Warn("tick deltas do not sum to zero, dump may be truncated",
			zap.String("pool", poolID),
			zap.String("net_sum", sum.String()))
	}

	dist, err := univ3.AggregateDistribution(deltas.Floats(), pool.Tick, spacing, pool.Price())
	if err != nil {
		return RangeReport{}, err
	}

	report := RangeReport{
		Pool:         pool,
		Spacing:      spacing,
		TickCount:    len(deltas),
		Distribution: dist,
	}

	s.logger.Info("computed range distribution",
		zap.String("pool", poolID),
		zap.Int("initialized_ticks", report.TickCount),
		zap.Int("ranges", len(dist.Ranges)))

	if err := s.persistDistribution(ctx, report); err != nil {
		return RangeReport{}, err
	}
	return report, nil
}

// ValuedPosition is a position with its current token amounts.
type ValuedPosition struct {
	Position model.Position
	Amount0  float64
	Amount1  float64
	InRange  bool
}

// PositionsReport is the result of valuing every open position in a pool.
type PositionsReport struct {
	Pool               model.Pool
	Spacing            int
	Positions          []ValuedPosition
	TotalAmount0       float64
	TotalAmount1       float64
	InRangeLiquidity   float64
	ReportedLiquidity  float64
	LiquidityMatchesOK bool
}

// ValuePositions fetches every open position of a pool, computes each
// position's current token amounts, and checks the summed in-range
// liquidity against the pool's own figure.
func (s *Service) ValuePositions(ctx context.Context, poolID string) (PositionsReport, error) {
	pool, err := s.source.Pool(ctx, poolID)
	if err != nil {
		return PositionsReport{}, err
	}
	records, err := s.source.Positions(ctx, poolID)
	if err != nil {
		return PositionsReport{}, err
	}

	report := PositionsReport{
		Pool:              pool,
		Spacing:           univ3.FeeTierToSpacing(pool.FeeTier),
		ReportedLiquidity: pool.LiquidityFloat(),
	}
	sp := pool.SqrtPrice()

	for _, record := range records {
		pos, err := model.ParsePosition(record)
		if err != nil {
			return PositionsReport{}, fmt.Errorf("pool %s: %w", poolID, err)
		}
		valued, err := valuePosition(pos, pool.Tick, sp)
		if err != nil {
			return PositionsReport{}, fmt.Errorf("value position %s: %w", pos.ID, err)
		}
		report.Positions = append(report.Positions, valued)
		report.TotalAmount0 += valued.Amount0
		report.TotalAmount1 += valued.Amount1
		if valued.InRange {
			report.InRangeLiquidity += pos.LiquidityFloat()
		}
	}

	relErr := univ3.RelativeError(report.InRangeLiquidity, report.ReportedLiquidity)
	report.LiquidityMatchesOK = relErr <= liquidityMismatchTolerance
	if !report.LiquidityMatchesOK {
		s.logger.Warn("in-range position liquidity differs from pool liquidity",
			zap.String("pool", poolID),
			zap.Float64("positions", report.InRangeLiquidity),
			zap.Float64("pool", report.ReportedLiquidity),
			zap.Float64("rel_err", relErr))
	}

	s.logger.Info("valued positions",
		zap.String("pool", poolID),
		zap.Int("count", len(report.Positions)))

	if err := s.persistPositions(ctx, report); err != nil {
		return PositionsReport{}, err
	}
	return report, nil
}

// ValuePosition fetches one position by id along with its pool and computes
// its current token amounts.
func (s *Service) ValuePosition(ctx context.Context, positionID string) (model.Pool, ValuedPosition, error) {
	pos, err := s.source.Position(ctx, positionID)
	if err != nil {
		return model.Pool{}, ValuedPosition{}, err
	}
	if pos.PoolID == "" {
		return model.Pool{}, ValuedPosition{}, fmt.Errorf("position %s has no pool reference", positionID)
	}
	pool, err := s.source.Pool(ctx, pos.PoolID)
	if err != nil {
		return model.Pool{}, ValuedPosition{}, err
	}
	valued, err := valuePosition(pos, pool.Tick, pool.SqrtPrice())
	if err != nil {
		return model.Pool{}, ValuedPosition{}, err
	}
	return pool, valued, nil
}

func valuePosition(pos model.Position, currentTick int, sp float64) (ValuedPosition, error) {
	sa := univ3.TickToSqrtPrice(pos.TickLower)
	sb := univ3.TickToSqrtPrice(pos.TickUpper)
	amount0, amount1, err := univ3.AmountsForLiquidity(pos.LiquidityFloat(), sp, sa, sb)
	if err != nil {
		return ValuedPosition{}, err
	}
	return ValuedPosition{
		Position: pos,
		Amount0:  amount0,
		Amount1:  amount1,
		InRange:  pos.InRange(currentTick),
	}, nil
}

// VolatilityReport is the result of an implied volatility estimate.
type VolatilityReport struct {
	Pool      model.Pool
	Spacing   int
	DaysUsed  int
	VolumeUSD float64
	Locked    float64
	IV        float64
}

// Volatility estimates the pool's annualized implied volatility from recent
// daily volume and the value locked in the current spacing-sized range. The
// latest, still-open day is skipped when older complete days exist.
func (s *Service) Volatility(ctx context.Context, poolID string, days int) (VolatilityReport, error) {
	if days < 1 {
		days = 1
	}
	pool, err := s.source.Pool(ctx, poolID)
	if err != nil {
		return VolatilityReport{}, err
	}
	spacing := univ3.FeeTierToSpacing(pool.FeeTier)

	records, err := s.source.PoolDayData(ctx, poolID, days+1)
	if err != nil {
		return VolatilityReport{}, err
	}
	if len(records) == 0 {
		return VolatilityReport{}, fmt.Errorf("pool %s has no daily volume data", poolID)
	}
	if len(records) > 1 {
		records = records[1:]
	}
	if len(records) > days {
		records = records[:days]
	}

	var volume float64
	for _, record := range records {
		parsed, err := strconv.ParseFloat(record.VolumeUSD, 64)
		if err != nil {
			return VolatilityReport{}, fmt.Errorf("parse volumeUSD %q: %w", record.VolumeUSD, err)
		}
		volume += parsed
	}
	volume /= float64(len(records))

	lockedRaw, err := univ3.CurrentRangeLocked(pool.LiquidityFloat(), pool.Tick, spacing)
	if err != nil {
		return VolatilityReport{}, err
	}
	locked := lockedRaw / pow10(pool.Token0.Decimals)

	iv, err := univ3.ImpliedVolatility(pool.FeeTier, volume, locked)
	if err != nil {
		return VolatilityReport{}, err
	}

	return VolatilityReport{
		Pool:      pool,
		Spacing:   spacing,
		DaysUsed:  len(records),
		VolumeUSD: volume,
		Locked:    locked,
		IV:        iv,
	}, nil
}

func pow10(n int) float64 {
	out := 1.0
	for i := 0; i < n; i++ {
		out *= 10
	}
	return out
}

func (s *Service) persistDistribution(ctx context.Context, report RangeReport) error {
	if len(s.sinks) == 0 {
		return nil
	}
	observedAt := s.now().UTC().Format(time.RFC3339)

	snapshot := model.PoolSnapshot{
		PoolID:      report.Pool.ID,
		FeeTier:     report.Pool.FeeTier,
		TickSpacing: report.Spacing,
		CurrentTick: report.Pool.Tick,
		Liquidity:   report.Pool.Liquidity.String(),
		Token0:      report.Pool.Token0,
		Token1:      report.Pool.Token1,
		ObservedAt:  observedAt,
	}
	rows := make([]model.RangeRow, 0, len(report.Distribution.Ranges))
	for _, r := range report.Distribution.Ranges {
		rows = append(rows, model.RangeRow{
			PoolID:     report.Pool.ID,
			TickLower:  r.TickLower,
			TickUpper:  r.TickUpper,
			Liquidity:  r.Liquidity,
			Amount0:    r.Amount0,
			Amount1:    r.Amount1,
			IsCurrent:  r.IsCurrent,
			ObservedAt: observedAt,
		})
	}

	for _, sink := range s.sinks {
		if err := sink.PutSnapshot(ctx, snapshot); err != nil {
			return fmt.Errorf("persist snapshot: %w", err)
		}
		if err := sink.PutRangeBatch(ctx, rows); err != nil {
			return fmt.Errorf("persist range rows: %w", err)
		}
	}
	return nil
}

func (s *Service) persistPositions(ctx context.Context, report PositionsReport) error {
	if len(s.sinks) == 0 {
		return nil
	}
	observedAt := s.now().UTC().Format(time.RFC3339)

	rows := make([]model.PositionRow, 0, len(report.Positions))
	for _, valued := range report.Positions {
		rows = append(rows, model.PositionRow{
			PoolID:     report.Pool.ID,
			PositionID: valued.Position.ID,
			TickLower:  valued.Position.TickLower,
			TickUpper:  valued.Position.TickUpper,
			Liquidity:  valued.Position.LiquidityFloat(),
			Amount0:    valued.Amount0,
			Amount1:    valued.Amount1,
			InRange:    valued.InRange,
			ObservedAt: observedAt,
		})
	}

	for _, sink := range s.sinks {
		if err := sink.PutPositionBatch(ctx, rows); err != nil {
			return fmt.Errorf("persist position rows: %w", err)
		}
	}
	return nil
}
