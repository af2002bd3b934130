package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceSample is one observation of an asset's market state. Samples are
// immutable once written; (asset_id, observed_at) is the dedup key that
// makes backfill re-runs idempotent.
type PriceSample struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	AssetID string `gorm:"type:varchar(100);not null;index;uniqueIndex:uq_asset_observed,priority:1" json:"asset_id"`

	Price decimal.Decimal `gorm:"type:numeric;not null" json:"price"`

	// Upstream omits these on some endpoints, so they stay nullable.
	MarketCap *float64 `gorm:"type:numeric" json:"market_cap,omitempty"`
	Volume24h *float64 `gorm:"type:numeric" json:"volume_24h,omitempty"`

	ObservedAt time.Time `gorm:"type:timestamptz;not null;index;uniqueIndex:uq_asset_observed,priority:2" json:"observed_at"`
	CreatedAt  time.Time `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
}

func (PriceSample) TableName() string {
	return "price_samples"
}
