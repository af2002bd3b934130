package service

import (
	"context"

	"go.uber.org/zap"

	"coinwatch/internal/gate"
	"coinwatch/internal/models"
	"coinwatch/internal/repository"
	"coinwatch/internal/stream"
)

// CollectorService drives the periodic collection path: ask the gate for a
// price, persist it when it is fresh, and push it to stream subscribers.
// Persistence lives here, not in the gate; the gate only returns samples.
type CollectorService struct {
	Gate   *gate.Gate
	Repo   repository.Repository
	Hub    *stream.Hub
	Logger *zap.Logger
}

// CollectOnce runs one collection tick. Cached results are not re-persisted:
// their observed_at already exists in the store and the upsert would skip
// them anyway. A store write failure is surfaced but leaves the sample
// usable by the caller.
func (s *CollectorService) CollectOnce(ctx context.Context) (*models.PriceSample, error) {
	res, err := s.Gate.RequestPrice(ctx)
	if err != nil {
		return nil, err
	}

	sample := res.Sample
	if res.FromCache {
		return &sample, nil
	}

	if s.Hub != nil {
		s.Hub.Broadcast(sample)
	}

	inserted, err := s.Repo.UpsertSamples(ctx, []models.PriceSample{sample})
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("sample store write failed",
				zap.String("asset_id", sample.AssetID),
				zap.Error(err))
		}
		return &sample, err
	}
	if s.Logger != nil {
		s.Logger.Debug("sample collected",
			zap.String("asset_id", sample.AssetID),
			zap.String("price", sample.Price.String()),
			zap.Int64("inserted", inserted))
	}
	return &sample, nil
}
