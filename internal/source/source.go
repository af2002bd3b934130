package source

import (
	"context"
	"time"

	"coinwatch/internal/models"
)

// Provider is the upstream price API boundary. Implementations perform the
// actual HTTP calls and parse responses into PriceSamples; they do not make
// any rate-limiting decisions, that is the gate's job.
type Provider interface {
	// FetchCurrent returns the latest sample for the asset.
	FetchCurrent(ctx context.Context, assetID string) (models.PriceSample, error)

	// FetchRange returns samples between from and to, oldest first.
	FetchRange(ctx context.Context, assetID string, from, to time.Time) ([]models.PriceSample, error)

	Name() string
}
