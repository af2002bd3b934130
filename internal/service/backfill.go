package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"coinwatch/internal/gate"
	"coinwatch/internal/models"
	"coinwatch/internal/repository"
)

// ErrRangeInverted rejects backfill requests whose start does not precede
// their end.
var ErrRangeInverted = errors.New("backfill range start must precede end")

// Gap is a stretch of the timeline with no stored samples.
type Gap struct {
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	DurationHours float64   `json:"duration_hours"`
}

// windowGap records one failed backfill window inside a run's gap report.
type windowGap struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Error string    `json:"error"`
}

// FillSummary aggregates a detect-and-fill pass over several gaps.
type FillSummary struct {
	GapsDetected    int  `json:"gaps_detected"`
	GapsFilled      int  `json:"gaps_filled"`
	RecordsInserted int  `json:"records_inserted"`
	RemainingGaps   int  `json:"remaining_gaps"`
	WindowsFailed   int  `json:"windows_failed"`
	Truncated       bool `json:"truncated"`
}

// BackfillService walks historical ranges in fixed windows and fills them
// through the gate, so backfill traffic obeys the same upstream floor as
// live fetches. Window failures are recorded and skipped, never retried in
// a loop; the store's dedup makes re-runs idempotent.
type BackfillService struct {
	Gate    *gate.Gate
	Repo    repository.Repository
	Logger  *zap.Logger
	AssetID string

	// Window is the per-upstream-call slice of the requested range.
	Window time.Duration

	// Now is injectable for tests.
	Now func() time.Time
}

func (s *BackfillService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *BackfillService) window() time.Duration {
	if s.Window > 0 {
		return s.Window
	}
	return 6 * time.Hour
}

// DetectGaps scans stored sample times within the lookback period and
// reports every stretch longer than minGap, including the head gap before
// the first sample and the tail gap from the last sample to now. An empty
// store is one gap covering the entire lookback.
func (s *BackfillService) DetectGaps(ctx context.Context, minGap, lookback time.Duration) ([]Gap, error) {
	now := s.now()
	since := now.Add(-lookback)

	times, err := s.Repo.ListSampleTimes(ctx, s.AssetID, since)
	if err != nil {
		return nil, err
	}

	if len(times) == 0 {
		return []Gap{newGap(since, now)}, nil
	}

	var gaps []Gap
	if d := times[0].Sub(since); d > minGap {
		gaps = append(gaps, newGap(since, times[0]))
	}
	for i := 1; i < len(times); i++ {
		if d := times[i].Sub(times[i-1]); d > minGap {
			gaps = append(gaps, newGap(times[i-1], times[i]))
		}
	}
	if d := now.Sub(times[len(times)-1]); d > minGap {
		gaps = append(gaps, newGap(times[len(times)-1], now))
	}
	return gaps, nil
}

func newGap(start, end time.Time) Gap {
	return Gap{
		Start:         start,
		End:           end,
		DurationHours: end.Sub(start).Hours(),
	}
}

// FillRange backfills [from, to] in fixed windows. Each window is one
// upstream call admitted by the gate; a failed window is recorded in the
// run's gap report and the walk continues with the next one. Insert counts
// come from the store's dedup-aware upsert.
func (s *BackfillService) FillRange(ctx context.Context, from, to time.Time) (*models.BackfillRun, error) {
	if !from.Before(to) {
		return nil, ErrRangeInverted
	}

	window := s.window()
	run := &models.BackfillRun{
		AssetID:    s.AssetID,
		RangeFrom:  from,
		RangeTo:    to,
		WindowSecs: int(window / time.Second),
		Status:     models.BackfillStatusRunning,
		StartedAt:  s.now(),
	}
	if err := s.Repo.InsertBackfillRun(ctx, run); err != nil {
		if s.Logger != nil {
			s.Logger.Warn("backfill run insert failed", zap.Error(err))
		}
	}

	var failures []windowGap
	for cursor := from; cursor.Before(to); cursor = cursor.Add(window) {
		winEnd := cursor.Add(window)
		if winEnd.After(to) {
			winEnd = to
		}
		run.WindowsTotal++

		samples, err := s.Gate.FetchRange(ctx, cursor, winEnd)
		if err != nil {
			if ctx.Err() != nil {
				return s.finishRun(run, failures, ctx.Err())
			}
			run.WindowsFailed++
			failures = append(failures, windowGap{Start: cursor, End: winEnd, Error: err.Error()})
			continue
		}

		inserted, err := s.Repo.UpsertSamples(ctx, samples)
		if err != nil {
			run.WindowsFailed++
			failures = append(failures, windowGap{Start: cursor, End: winEnd, Error: err.Error()})
			if s.Logger != nil {
				s.Logger.Warn("backfill window store write failed",
					zap.Time("from", cursor),
					zap.Time("to", winEnd),
					zap.Error(err))
			}
			continue
		}
		run.WindowsFilled++
		run.SamplesInserted += int(inserted)
	}

	return s.finishRun(run, failures, nil)
}

func (s *BackfillService) finishRun(run *models.BackfillRun, failures []windowGap, cause error) (*models.BackfillRun, error) {
	finished := s.now()
	run.FinishedAt = &finished

	switch {
	case cause != nil:
		run.Status = models.BackfillStatusFailed
	case run.WindowsFailed == 0:
		run.Status = models.BackfillStatusComplete
	case run.WindowsFilled == 0:
		run.Status = models.BackfillStatusFailed
	default:
		run.Status = models.BackfillStatusPartial
	}

	if len(failures) > 0 {
		if raw, err := json.Marshal(failures); err == nil {
			run.GapsJSON = datatypes.JSON(raw)
		}
	}

	if err := s.Repo.UpdateBackfillRun(context.Background(), run); err != nil {
		if s.Logger != nil {
			s.Logger.Warn("backfill run update failed", zap.Error(err))
		}
	}

	if s.Logger != nil {
		s.Logger.Info("backfill run finished",
			zap.String("asset_id", run.AssetID),
			zap.String("status", run.Status),
			zap.Int("windows_total", run.WindowsTotal),
			zap.Int("windows_failed", run.WindowsFailed),
			zap.Int("samples_inserted", run.SamplesInserted))
	}

	return run, cause
}

// FillGaps detects gaps and fills them in chronological order, up to
// maxGaps of them per run.
func (s *BackfillService) FillGaps(ctx context.Context, minGap, lookback time.Duration, maxGaps int) (*FillSummary, error) {
	gaps, err := s.DetectGaps(ctx, minGap, lookback)
	if err != nil {
		return nil, err
	}

	summary := &FillSummary{GapsDetected: len(gaps)}
	if maxGaps > 0 && len(gaps) > maxGaps {
		summary.Truncated = true
		gaps = gaps[:maxGaps]
	}

	for _, gap := range gaps {
		run, err := s.FillRange(ctx, gap.Start, gap.End)
		if err != nil {
			return summary, err
		}
		summary.WindowsFailed += run.WindowsFailed
		summary.RecordsInserted += run.SamplesInserted
		if run.Status == models.BackfillStatusComplete {
			summary.GapsFilled++
		} else {
			summary.RemainingGaps++
		}
	}
	summary.RemainingGaps += summary.GapsDetected - len(gaps)
	return summary, nil
}
