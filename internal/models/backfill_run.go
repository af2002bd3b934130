package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	BackfillStatusRunning  = "running"
	BackfillStatusComplete = "complete"
	BackfillStatusPartial  = "partial"
	BackfillStatusFailed   = "failed"
)

// BackfillRun is one audit row per backfill invocation. Windows that failed
// are kept in GapsJSON so an operator can see which ranges are still missing.
type BackfillRun struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	AssetID string `gorm:"type:varchar(100);not null;index" json:"asset_id"`

	RangeFrom  time.Time `gorm:"type:timestamptz;not null" json:"range_from"`
	RangeTo    time.Time `gorm:"type:timestamptz;not null" json:"range_to"`
	WindowSecs int       `gorm:"not null" json:"window_secs"`

	WindowsTotal    int `gorm:"not null" json:"windows_total"`
	WindowsFilled   int `gorm:"not null" json:"windows_filled"`
	WindowsFailed   int `gorm:"not null" json:"windows_failed"`
	SamplesInserted int `gorm:"not null" json:"samples_inserted"`

	Status   string         `gorm:"type:varchar(20);not null;index" json:"status"`
	GapsJSON datatypes.JSON `gorm:"type:jsonb" json:"gaps,omitempty"`

	StartedAt  time.Time  `gorm:"type:timestamptz;not null" json:"started_at"`
	FinishedAt *time.Time `gorm:"type:timestamptz" json:"finished_at,omitempty"`
}

func (BackfillRun) TableName() string {
	return "backfill_runs"
}
