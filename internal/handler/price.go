package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"coinwatch/internal/gate"
	"coinwatch/internal/repository"
	"coinwatch/internal/service"
)

type PriceHandler struct {
	Gate      *gate.Gate
	Collector *service.CollectorService
	Repo      repository.Repository
	AssetID   string

	// RequestTimeout bounds on-demand gate calls so an HTTP client never
	// hangs on a stuck upstream; on expiry the gate falls back to cache.
	RequestTimeout time.Duration
}

func (h *PriceHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/price")
	group.GET("/current", h.currentPrice)
	group.POST("/collect", h.collectPrice)
	group.GET("/history", h.listHistory)
	r.GET("/api/v1/stats", h.stats)
}

// @Summary Current price
// @Tags price
// @Success 200 {object} apiResponse
// @Failure 503 {object} apiResponse
// @Router /api/v1/price/current [get]
func (h *PriceHandler) currentPrice(c *gin.Context) {
	if h.Gate == nil {
		Error(c, http.StatusInternalServerError, "gate unavailable", nil)
		return
	}
	ctx := c.Request.Context()
	if h.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.RequestTimeout)
		defer cancel()
	}
	res, err := h.Gate.RequestPrice(ctx)
	if err != nil {
		if errors.Is(err, gate.ErrNoDataAvailable) {
			Error(c, http.StatusServiceUnavailable, "unable to fetch price data", nil)
			return
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, res, nil)
}

// @Summary Trigger one collection tick
// @Tags price
// @Success 200 {object} apiResponse
// @Router /api/v1/price/collect [post]
func (h *PriceHandler) collectPrice(c *gin.Context) {
	if h.Collector == nil {
		Error(c, http.StatusInternalServerError, "collector unavailable", nil)
		return
	}
	ctx := c.Request.Context()
	if h.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.RequestTimeout)
		defer cancel()
	}
	sample, err := h.Collector.CollectOnce(ctx)
	if err != nil {
		if errors.Is(err, gate.ErrNoDataAvailable) {
			Error(c, http.StatusServiceUnavailable, "unable to fetch price data", nil)
			return
		}
		// Sample may still be valid when only the store write failed.
		if sample != nil {
			Ok(c, sample, map[string]any{"store_write_failed": true})
			return
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, sample, nil)
}

// @Summary Price history
// @Tags price
// @Param from query string false "RFC3339 or unix seconds"
// @Param to query string false "RFC3339 or unix seconds"
// @Param limit query int false "page size"
// @Param offset query int false "page offset"
// @Param asc query bool false "chronological order (default true)"
// @Success 200 {object} apiResponse
// @Router /api/v1/price/history [get]
func (h *PriceHandler) listHistory(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 100)
	offset := intQuery(c, "offset", 0)
	asc := boolQueryDefault(c, "asc", true)

	items, err := h.Repo.ListSamples(c.Request.Context(), repository.ListSamplesParams{
		AssetID: h.AssetID,
		From:    timeQueryPtr(c, "from"),
		To:      timeQueryPtr(c, "to"),
		Limit:   limit,
		Offset:  offset,
		Asc:     boolPtr(asc),
	})
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountSamples(c.Request.Context(), h.AssetID)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

// @Summary Aggregate price statistics
// @Tags price
// @Success 200 {object} apiResponse
// @Failure 404 {object} apiResponse
// @Router /api/v1/stats [get]
func (h *PriceHandler) stats(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	stats, err := h.Repo.Stats(c.Request.Context(), h.AssetID)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if stats.Count == 0 {
		Error(c, http.StatusNotFound, "no data available", nil)
		return
	}
	Ok(c, stats, nil)
}
