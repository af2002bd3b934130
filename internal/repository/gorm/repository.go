package gormrepository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"coinwatch/internal/models"
	"coinwatch/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

func (s *Store) UpsertSamples(ctx context.Context, items []models.PriceSample) (int64, error) {
	if s == nil || s.db == nil || len(items) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "asset_id"}, {Name: "observed_at"}},
		DoNothing: true,
	}).Create(&items)
	return res.RowsAffected, res.Error
}

func (s *Store) LatestSample(ctx context.Context, assetID string) (*models.PriceSample, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.PriceSample
	err := s.db.WithContext(ctx).
		Where("asset_id = ?", assetID).
		Order("observed_at desc").
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListSamples(ctx context.Context, params repository.ListSamplesParams) ([]models.PriceSample, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.PriceSample{})
	if params.AssetID != "" {
		query = query.Where("asset_id = ?", params.AssetID)
	}
	if params.From != nil && !params.From.IsZero() {
		query = query.Where("observed_at >= ?", *params.From)
	}
	if params.To != nil && !params.To.IsZero() {
		query = query.Where("observed_at <= ?", *params.To)
	}
	asc := true
	if params.Asc != nil {
		asc = *params.Asc
	}
	if asc {
		query = query.Order("observed_at asc")
	} else {
		query = query.Order("observed_at desc")
	}
	limit := normalizeLimit(params.Limit, 1000)
	offset := normalizeOffset(params.Offset)
	var items []models.PriceSample
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListSampleTimes(ctx context.Context, assetID string, since time.Time) ([]time.Time, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).
		Model(&models.PriceSample{}).
		Where("asset_id = ?", assetID)
	if !since.IsZero() {
		query = query.Where("observed_at >= ?", since)
	}
	var times []time.Time
	if err := query.Order("observed_at asc").Pluck("observed_at", &times).Error; err != nil {
		return nil, err
	}
	return times, nil
}

func (s *Store) CountSamples(ctx context.Context, assetID string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.PriceSample{}).
		Where("asset_id = ?", assetID).
		Count(&count).Error
	return count, err
}

func (s *Store) DeleteSamples(ctx context.Context, assetID string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Where("asset_id = ?", assetID).
		Delete(&models.PriceSample{})
	return res.RowsAffected, res.Error
}

func (s *Store) Stats(ctx context.Context, assetID string) (repository.SampleStats, error) {
	if s == nil || s.db == nil {
		return repository.SampleStats{}, nil
	}
	var agg struct {
		Count int64
		Mean  *float64
		Min   *float64
		Max   *float64
	}
	err := s.db.WithContext(ctx).
		Model(&models.PriceSample{}).
		Select("count(id) as count, avg(price) as mean, min(price) as min, max(price) as max").
		Where("asset_id = ?", assetID).
		Scan(&agg).Error
	if err != nil {
		return repository.SampleStats{}, err
	}
	stats := repository.SampleStats{Count: agg.Count}
	if agg.Count == 0 {
		return stats, nil
	}
	stats.Mean = decimalFromFloatPtr(agg.Mean)
	stats.Min = decimalFromFloatPtr(agg.Min)
	stats.Max = decimalFromFloatPtr(agg.Max)
	latest, err := s.LatestSample(ctx, assetID)
	if err != nil {
		return repository.SampleStats{}, err
	}
	if latest != nil {
		price := latest.Price
		stats.Latest = &price
	}
	return stats, nil
}

func (s *Store) InsertBackfillRun(ctx context.Context, item *models.BackfillRun) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) UpdateBackfillRun(ctx context.Context, item *models.BackfillRun) error {
	if s == nil || s.db == nil || item == nil || item.ID == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Save(item).Error
}

func (s *Store) ListBackfillRuns(ctx context.Context, params repository.ListBackfillRunsParams) ([]models.BackfillRun, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.BackfillRun{})
	if params.AssetID != "" {
		query = query.Where("asset_id = ?", params.AssetID)
	}
	limit := normalizeLimit(params.Limit, 50)
	offset := normalizeOffset(params.Offset)
	var items []models.BackfillRun
	if err := query.Order("started_at desc").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func normalizeLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > 10000 {
		return 10000
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

func decimalFromFloatPtr(v *float64) *decimal.Decimal {
	if v == nil {
		return nil
	}
	d := decimal.NewFromFloat(*v)
	return &d
}
