package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"coinwatch/internal/models"
)

// ListSamplesParams filters and pages range queries. From/To are inclusive
// bounds on observed_at; results are chronological unless Asc is false.
type ListSamplesParams struct {
	AssetID string
	From    *time.Time
	To      *time.Time
	Limit   int
	Offset  int
	Asc     *bool
}

type ListBackfillRunsParams struct {
	AssetID string
	Limit   int
	Offset  int
}

// SampleStats is the aggregate view served by the stats endpoint.
type SampleStats struct {
	Count  int64            `json:"count"`
	Mean   *decimal.Decimal `json:"mean,omitempty"`
	Min    *decimal.Decimal `json:"min,omitempty"`
	Max    *decimal.Decimal `json:"max,omitempty"`
	Latest *decimal.Decimal `json:"latest,omitempty"`
}

// Repository is the persistence boundary: append-only sample writes with
// dedup on (asset_id, observed_at), range/aggregate reads, and backfill
// run bookkeeping.
type Repository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	// UpsertSamples inserts samples, silently skipping rows that collide on
	// (asset_id, observed_at). Returns the number actually inserted, which
	// is what makes backfill re-runs idempotent to count.
	UpsertSamples(ctx context.Context, items []models.PriceSample) (int64, error)

	LatestSample(ctx context.Context, assetID string) (*models.PriceSample, error)
	ListSamples(ctx context.Context, params ListSamplesParams) ([]models.PriceSample, error)
	ListSampleTimes(ctx context.Context, assetID string, since time.Time) ([]time.Time, error)
	CountSamples(ctx context.Context, assetID string) (int64, error)
	DeleteSamples(ctx context.Context, assetID string) (int64, error)
	Stats(ctx context.Context, assetID string) (SampleStats, error)

	InsertBackfillRun(ctx context.Context, item *models.BackfillRun) error
	UpdateBackfillRun(ctx context.Context, item *models.BackfillRun) error
	ListBackfillRuns(ctx context.Context, params ListBackfillRunsParams) ([]models.BackfillRun, error)
}
