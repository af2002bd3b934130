package gate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"coinwatch/internal/models"
	"coinwatch/internal/source"
)

// ErrNoDataAvailable is returned when upstream fails and no cached sample
// exists to fall back on. It is the only error RequestPrice surfaces.
var ErrNoDataAvailable = errors.New("no price data available")

// Result is the outcome of a price request. A cached sample older than the
// cache TTL, or returned because a fetch failed, is tagged Stale.
type Result struct {
	Sample      models.PriceSample `json:"sample"`
	FromCache   bool               `json:"from_cache"`
	Stale       bool               `json:"stale"`
	FetchFailed bool               `json:"fetch_failed"`
}

// Gate decides, per request, whether to call upstream, serve the cached
// sample, or refuse. It guarantees two upstream calls are never spaced
// closer than MinInterval, regardless of caller burst rate, and that at
// most one upstream call is in flight at a time. Backfill traffic goes
// through FetchRange and shares the same admission discipline.
//
// Construct one Gate per tracked asset and inject it everywhere; state is
// owned by the struct, never package-level.
type Gate struct {
	Source  source.Provider
	Logger  *zap.Logger
	AssetID string

	// MinInterval is the hard floor between upstream calls.
	// CacheTTL is the window during which the cached sample is served
	// without being tagged stale. CacheTTL may exceed MinInterval.
	MinInterval  time.Duration
	CacheTTL     time.Duration
	FetchTimeout time.Duration

	// Now is injectable for tests; defaults to UTC wall clock. Values must
	// be monotonically non-decreasing across calls.
	Now func() time.Time

	// lastFetchAt times the min-interval floor across every upstream call,
	// range fetches included. lastSampleAt times the cached current sample's
	// freshness; a backfill run advances the floor without touching it.
	mu           sync.Mutex
	lastFetchAt  time.Time
	lastSampleAt time.Time
	lastSample   *models.PriceSample
	inflight     bool

	group singleflight.Group
}

func (g *Gate) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now().UTC()
}

func (g *Gate) logger() *zap.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return zap.NewNop()
}

// RequestPrice evaluates the decision policy:
//
//  1. no sample yet: call upstream
//  2. inside cache TTL: cached sample, no upstream call
//  3. past TTL but inside the floor: cached sample tagged stale
//  4. past the floor: call upstream; on failure fall back to the cached
//     sample (stale, fetch_failed) or ErrNoDataAvailable if none exists
//
// Concurrent callers admitted past the floor share a single upstream call.
// If ctx expires while that call is still in flight, the best available
// cached sample is returned instead of blocking.
func (g *Gate) RequestPrice(ctx context.Context) (Result, error) {
	g.mu.Lock()
	if g.lastSample != nil {
		if g.now().Sub(g.lastSampleAt) < g.CacheTTL {
			res := Result{Sample: *g.lastSample, FromCache: true}
			g.mu.Unlock()
			return res, nil
		}
		if g.now().Sub(g.lastFetchAt) < g.MinInterval {
			res := Result{Sample: *g.lastSample, FromCache: true, Stale: true}
			g.mu.Unlock()
			return res, nil
		}
	}
	g.mu.Unlock()

	ch := g.group.DoChan("current", g.fetchCurrent)
	select {
	case <-ctx.Done():
		// The shared flight may still succeed; this caller just ran out of
		// time, so the fallback is stale but not fetch_failed.
		g.mu.Lock()
		defer g.mu.Unlock()
		if g.lastSample != nil {
			return Result{Sample: *g.lastSample, FromCache: true, Stale: true}, nil
		}
		return Result{}, fmt.Errorf("%w: %v", ErrNoDataAvailable, ctx.Err())
	case r := <-ch:
		if r.Err != nil {
			return Result{}, r.Err
		}
		return r.Val.(Result), nil
	}
}

// fetchCurrent runs inside singleflight, so at most one instance executes
// per dispatch generation. The upstream call itself happens outside the
// state lock; only the admission check and the completion update hold it.
func (g *Gate) fetchCurrent() (any, error) {
	// Detached from caller contexts: one caller timing out must not cancel
	// the shared call for everyone else.
	ctx := context.Background()
	var cancel context.CancelFunc
	if g.FetchTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, g.FetchTimeout)
		defer cancel()
	}

	for {
		g.mu.Lock()
		if g.lastSample != nil {
			// Re-check under the lock: another flight may have refreshed the
			// cache between the caller's check and this one.
			if g.now().Sub(g.lastSampleAt) < g.CacheTTL {
				res := Result{Sample: *g.lastSample, FromCache: true}
				g.mu.Unlock()
				return res, nil
			}
			if g.now().Sub(g.lastFetchAt) < g.MinInterval || g.inflight {
				res := Result{Sample: *g.lastSample, FromCache: true, Stale: true}
				g.mu.Unlock()
				return res, nil
			}
		} else if g.inflight {
			// A range fetch holds the slot and there is no cache to serve;
			// wait for the slot instead of refusing the caller.
			g.mu.Unlock()
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrNoDataAvailable, ctx.Err())
			case <-time.After(50 * time.Millisecond):
			}
			continue
		}
		g.inflight = true
		g.mu.Unlock()
		break
	}

	sample, err := g.Source.FetchCurrent(ctx, g.AssetID)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.inflight = false

	if err != nil {
		g.logger().Warn("upstream fetch failed",
			zap.String("asset_id", g.AssetID),
			zap.Error(err))
		if g.lastSample != nil {
			return Result{Sample: *g.lastSample, FromCache: true, Stale: true, FetchFailed: true}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrNoDataAvailable, err)
	}

	now := g.now()
	g.lastSample = &sample
	g.lastSampleAt = now
	g.lastFetchAt = now
	return Result{Sample: sample}, nil
}

// FetchRange fetches historical samples for one backfill window. It blocks
// until the MinInterval floor has cleared and no other upstream call is in
// flight, then consumes an admission slot like any live fetch. The cached
// current sample is left untouched; only the fetch timer advances.
func (g *Gate) FetchRange(ctx context.Context, from, to time.Time) ([]models.PriceSample, error) {
	for {
		g.mu.Lock()
		var wait time.Duration
		if !g.lastFetchAt.IsZero() {
			if d := g.MinInterval - g.now().Sub(g.lastFetchAt); d > 0 {
				wait = d
			}
		}
		if wait == 0 && !g.inflight {
			g.inflight = true
			g.mu.Unlock()
			break
		}
		g.mu.Unlock()
		if wait == 0 {
			wait = 50 * time.Millisecond
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	samples, err := g.Source.FetchRange(ctx, g.AssetID, from, to)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.inflight = false
	if err != nil {
		g.logger().Warn("upstream range fetch failed",
			zap.String("asset_id", g.AssetID),
			zap.Time("from", from),
			zap.Time("to", to),
			zap.Error(err))
		return nil, err
	}
	g.lastFetchAt = g.now()
	return samples, nil
}

// LastFetchAt reports when the last successful upstream call completed.
// Zero means no call has succeeded yet.
func (g *Gate) LastFetchAt() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastFetchAt
}
