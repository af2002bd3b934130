package service

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"coinwatch/internal/models"
	"coinwatch/internal/repository"
)

// stubRepo is a test-only in-memory implementation of repository.Repository.
// Samples are deduped on (asset_id, observed_at) the way the real store is.
type stubRepo struct {
	samples   map[string]map[time.Time]models.PriceSample
	runs      []*models.BackfillRun
	upsertErr error
	listErr   error
	nextRunID uint64
}

func newStubRepo() *stubRepo {
	return &stubRepo{samples: map[string]map[time.Time]models.PriceSample{}}
}

func (s *stubRepo) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

func (s *stubRepo) UpsertSamples(ctx context.Context, items []models.PriceSample) (int64, error) {
	if s.upsertErr != nil {
		return 0, s.upsertErr
	}
	var inserted int64
	for _, item := range items {
		byTime, ok := s.samples[item.AssetID]
		if !ok {
			byTime = map[time.Time]models.PriceSample{}
			s.samples[item.AssetID] = byTime
		}
		key := item.ObservedAt.UTC()
		if _, exists := byTime[key]; exists {
			continue
		}
		byTime[key] = item
		inserted++
	}
	return inserted, nil
}

func (s *stubRepo) LatestSample(ctx context.Context, assetID string) (*models.PriceSample, error) {
	times := s.sortedTimes(assetID, time.Time{})
	if len(times) == 0 {
		return nil, nil
	}
	sample := s.samples[assetID][times[len(times)-1]]
	return &sample, nil
}

func (s *stubRepo) ListSamples(ctx context.Context, params repository.ListSamplesParams) ([]models.PriceSample, error) {
	var out []models.PriceSample
	for _, ts := range s.sortedTimes(params.AssetID, time.Time{}) {
		out = append(out, s.samples[params.AssetID][ts])
	}
	return out, nil
}

func (s *stubRepo) ListSampleTimes(ctx context.Context, assetID string, since time.Time) ([]time.Time, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.sortedTimes(assetID, since), nil
}

func (s *stubRepo) CountSamples(ctx context.Context, assetID string) (int64, error) {
	return int64(len(s.samples[assetID])), nil
}

func (s *stubRepo) DeleteSamples(ctx context.Context, assetID string) (int64, error) {
	n := int64(len(s.samples[assetID]))
	delete(s.samples, assetID)
	return n, nil
}

func (s *stubRepo) Stats(ctx context.Context, assetID string) (repository.SampleStats, error) {
	return repository.SampleStats{Count: int64(len(s.samples[assetID]))}, nil
}

func (s *stubRepo) InsertBackfillRun(ctx context.Context, item *models.BackfillRun) error {
	s.nextRunID++
	item.ID = s.nextRunID
	s.runs = append(s.runs, item)
	return nil
}

func (s *stubRepo) UpdateBackfillRun(ctx context.Context, item *models.BackfillRun) error {
	for i, run := range s.runs {
		if run.ID == item.ID {
			s.runs[i] = item
		}
	}
	return nil
}

func (s *stubRepo) ListBackfillRuns(ctx context.Context, params repository.ListBackfillRunsParams) ([]models.BackfillRun, error) {
	out := make([]models.BackfillRun, 0, len(s.runs))
	for _, run := range s.runs {
		out = append(out, *run)
	}
	return out, nil
}

func (s *stubRepo) sortedTimes(assetID string, since time.Time) []time.Time {
	var out []time.Time
	for ts := range s.samples[assetID] {
		if !since.IsZero() && ts.Before(since) {
			continue
		}
		out = append(out, ts)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
