// Package storage persists computed range distributions and position
// valuations.
package storage

import (
	"context"

	"rangeScope/internal/model"
)

// Storage defines a sink for computed snapshots.
type Storage interface {
	PutSnapshot(ctx context.Context, snapshot model.PoolSnapshot) error
	PutRangeBatch(ctx context.Context, rows []model.RangeRow) error
	PutPositionBatch(ctx context.Context, rows []model.PositionRow) error
}
