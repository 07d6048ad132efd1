package scope

import (
	"context"
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/holiman/uint256"

	"rangeScope/internal/model"
	"rangeScope/internal/univ3"
)

type stubSource struct {
	pool      model.Pool
	ticks     []model.TickRecord
	positions []model.PositionRecord
	position  model.Position
	dayData   []model.PoolDayRecord
}

func (s *stubSource) Pool(context.Context, string) (model.Pool, error) { return s.pool, nil }
func (s *stubSource) Ticks(context.Context, string) ([]model.TickRecord, error) {
	return s.ticks, nil
}
func (s *stubSource) Positions(context.Context, string) ([]model.PositionRecord, error) {
	return s.positions, nil
}
func (s *stubSource) Position(context.Context, string) (model.Position, error) {
	return s.position, nil
}
func (s *stubSource) PoolDayData(context.Context, string, int) ([]model.PoolDayRecord, error) {
	return s.dayData, nil
}

type recordingSink struct {
	snapshots []model.PoolSnapshot
	ranges    []model.RangeRow
	positions []model.PositionRow
}

func (r *recordingSink) PutSnapshot(_ context.Context, s model.PoolSnapshot) error {
	r.snapshots = append(r.snapshots, s)
	return nil
}
func (r *recordingSink) PutRangeBatch(_ context.Context, rows []model.RangeRow) error {
	r.ranges = append(r.ranges, rows...)
	return nil
}
func (r *recordingSink) PutPositionBatch(_ context.Context, rows []model.PositionRow) error {
	r.positions = append(r.positions, rows...)
	return nil
}

func testPool(tick int, liquidity int64, feeTier int) model.Pool {
	sqrt := math.Sqrt(math.Pow(1.0001, float64(tick)))
	q96 := new(big.Float).SetInt(new(big.Int).Lsh(big.NewInt(1), 96))
	scaled, _ := new(big.Float).Mul(big.NewFloat(sqrt), q96).Int(nil)
	x96, _ := uint256.FromBig(scaled)
	return model.Pool{
		ID:           "0xpool",
		Tick:         tick,
		Liquidity:    big.NewInt(liquidity),
		SqrtPriceX96: x96,
		FeeTier:      feeTier,
		Token0:       model.Token{Symbol: "A", Decimals: 18},
		Token1:       model.Token{Symbol: "B", Decimals: 6},
	}
}

func TestRangeDistributionPersists(t *testing.T) {
	source := &stubSource{
		pool: testPool(30, 100, 3000),
		ticks: []model.TickRecord{
			{TickIdx: "-120", LiquidityNet: "100"},
			{TickIdx: "120", LiquidityNet: "-100"},
		},
	}
	sink := &recordingSink{}
	when := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	svc := NewService(source,
		WithSinks(sink),
		WithClock(func() time.Time { return when }))

	report, err := svc.RangeDistribution(context.Background(), "0xpool")
	if err != nil {
		t.Fatalf("range distribution: %v", err)
	}
	if report.Spacing != 60 {
		t.Errorf("spacing = %d, want 60", report.Spacing)
	}
	// The sweep covers [-120, 180) in spacing steps, with the final
	// sub-range carrying zero liquidity after the closing delta.
	if len(report.Distribution.Ranges) != 5 {
		t.Fatalf("got %d ranges, want 5", len(report.Distribution.Ranges))
	}
	last := report.Distribution.Ranges[4]
	if last.Liquidity != 0 {
		t.Errorf("final range liquidity = %v, want 0", last.Liquidity)
	}

	if len(sink.snapshots) != 1 {
		t.Fatalf("got %d snapshots, want 1", len(sink.snapshots))
	}
	if sink.snapshots[0].ObservedAt != "2026-08-30T12:00:00Z" {
		t.Errorf("observed at = %s", sink.snapshots[0].ObservedAt)
	}
	if len(sink.ranges) != 5 {
		t.Fatalf("got %d range rows, want 5", len(sink.ranges))
	}

	var current int
	for _, row := range sink.ranges {
		if row.IsCurrent {
			current++
			if row.TickLower != 0 || row.TickUpper != 60 {
				t.Errorf("current range = [%d, %d), want [0, 60)", row.TickLower, row.TickUpper)
			}
		}
	}
	if current != 1 {
		t.Errorf("got %d current rows, want 1", current)
	}
}

func TestValuePositionsChecksLiquidity(t *testing.T) {
	source := &stubSource{
		pool: testPool(30, 1000, 3000),
		positions: []model.PositionRecord{
			{
				ID:        "1",
				Liquidity: "1000",
				TickLower: model.TickRef{TickIdx: "-60"},
				TickUpper: model.TickRef{TickIdx: "120"},
			},
			{
				ID:        "2",
				Liquidity: "500",
				TickLower: model.TickRef{TickIdx: "120"},
				TickUpper: model.TickRef{TickIdx: "240"},
			},
		},
	}
	sink := &recordingSink{}
	svc := NewService(source, WithSinks(sink))

	report, err := svc.ValuePositions(context.Background(), "0xpool")
	if err != nil {
		t.Fatalf("value positions: %v", err)
	}
	if len(report.Positions) != 2 {
		t.Fatalf("got %d positions, want 2", len(report.Positions))
	}
	if !report.Positions[0].InRange || report.Positions[1].InRange {
		t.Errorf("in-range flags wrong: %+v", report.Positions)
	}
	if !report.LiquidityMatchesOK {
		t.Errorf("in-range liquidity %v should match pool liquidity %v",
			report.InRangeLiquidity, report.ReportedLiquidity)
	}

	// Position 2 sits entirely above the current price and holds token0 only.
	if report.Positions[1].Amount1 != 0 {
		t.Errorf("out-of-range position holds token1: %v", report.Positions[1].Amount1)
	}
	if report.Positions[1].Amount0 <= 0 {
		t.Errorf("out-of-range position holds no token0")
	}

	if len(sink.positions) != 2 {
		t.Errorf("got %d position rows, want 2", len(sink.positions))
	}
}

func TestValuePositionMatchesDirectMath(t *testing.T) {
	pool := testPool(0, 1000, 500)
	source := &stubSource{
		pool: pool,
		position: model.Position{
			ID:        "7",
			TickLower: -100,
			TickUpper: 100,
			Liquidity: big.NewInt(5000),
			PoolID:    "0xpool",
		},
	}
	svc := NewService(source)

	gotPool, valued, err := svc.ValuePosition(context.Background(), "7")
	if err != nil {
		t.Fatalf("value position: %v", err)
	}
	if gotPool.ID != "0xpool" {
		t.Errorf("pool = %s", gotPool.ID)
	}

	sa := univ3.TickToSqrtPrice(-100)
	sb := univ3.TickToSqrtPrice(100)
	want0, want1, err := univ3.AmountsForLiquidity(5000, pool.SqrtPrice(), sa, sb)
	if err != nil {
		t.Fatalf("amounts: %v", err)
	}
	if math.Abs(valued.Amount0-want0) > 1e-9 || math.Abs(valued.Amount1-want1) > 1e-9 {
		t.Errorf("amounts = (%v, %v), want (%v, %v)", valued.Amount0, valued.Amount1, want0, want1)
	}
}

func TestVolatilitySkipsOpenDay(t *testing.T) {
	source := &stubSource{
		pool: testPool(0, 1_000_000_000, 3000),
		dayData: []model.PoolDayRecord{
			{Date: 1756512000, VolumeUSD: "999999"}, // still-open day, skipped
			{Date: 1756425600, VolumeUSD: "200"},
			{Date: 1756339200, VolumeUSD: "100"},
		},
	}
	svc := NewService(source)

	report, err := svc.Volatility(context.Background(), "0xpool", 2)
	if err != nil {
		t.Fatalf("volatility: %v", err)
	}
	if report.DaysUsed != 2 {
		t.Errorf("days used = %d, want 2", report.DaysUsed)
	}
	if math.Abs(report.VolumeUSD-150) > 1e-9 {
		t.Errorf("volume = %v, want 150", report.VolumeUSD)
	}

	wantIV := 2 * 0.003 * math.Sqrt(report.VolumeUSD/report.Locked) * math.Sqrt(365)
	if math.Abs(report.IV-wantIV) > 1e-12 {
		t.Errorf("iv = %v, want %v", report.IV, wantIV)
	}
}
