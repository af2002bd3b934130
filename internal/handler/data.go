package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"coinwatch/internal/config"
	"coinwatch/internal/repository"
	"coinwatch/internal/service"
)

type DataHandler struct {
	Backfill *service.BackfillService
	Repo     repository.Repository
	AssetID  string
	Defaults config.BackfillConfig
}

func (h *DataHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/data")
	group.DELETE("/clear", h.clearData)
	group.GET("/gaps", h.detectGaps)
	group.POST("/backfill", h.backfillRange)
	group.POST("/fill-gaps", h.fillGaps)
	group.GET("/backfills", h.listBackfills)
}

// @Summary Clear all stored samples for the tracked asset
// @Tags data
// @Success 200 {object} apiResponse
// @Router /api/v1/data/clear [delete]
func (h *DataHandler) clearData(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	deleted, err := h.Repo.DeleteSamples(c.Request.Context(), h.AssetID)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"deleted": deleted}, nil)
}

// @Summary Detect gaps in stored history
// @Tags data
// @Param lookback_days query int false "days to scan backwards"
// @Param min_gap query string false "minimum gap duration (e.g. 1h)"
// @Success 200 {object} apiResponse
// @Router /api/v1/data/gaps [get]
func (h *DataHandler) detectGaps(c *gin.Context) {
	if h.Backfill == nil {
		Error(c, http.StatusInternalServerError, "backfill unavailable", nil)
		return
	}
	lookback := time.Duration(intQuery(c, "lookback_days", h.Defaults.LookbackDays)) * 24 * time.Hour
	minGap := durationQuery(c, "min_gap", h.Defaults.MinGap)

	gaps, err := h.Backfill.DetectGaps(c.Request.Context(), minGap, lookback)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	var totalHours float64
	for _, gap := range gaps {
		totalHours += gap.DurationHours
	}
	Ok(c, gaps, map[string]any{
		"gaps_found":      len(gaps),
		"total_gap_hours": totalHours,
	})
}

// @Summary Backfill an explicit time range
// @Tags data
// @Param from query string true "RFC3339 or unix seconds"
// @Param to query string true "RFC3339 or unix seconds"
// @Success 200 {object} apiResponse
// @Failure 400 {object} apiResponse
// @Router /api/v1/data/backfill [post]
func (h *DataHandler) backfillRange(c *gin.Context) {
	if h.Backfill == nil {
		Error(c, http.StatusInternalServerError, "backfill unavailable", nil)
		return
	}
	from := timeQueryPtr(c, "from")
	to := timeQueryPtr(c, "to")
	if from == nil || to == nil {
		Error(c, http.StatusBadRequest, "from and to are required", nil)
		return
	}
	run, err := h.Backfill.FillRange(c.Request.Context(), *from, *to)
	if err != nil {
		if errors.Is(err, service.ErrRangeInverted) {
			Error(c, http.StatusBadRequest, err.Error(), nil)
			return
		}
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, run, nil)
}

// @Summary Detect and fill gaps
// @Tags data
// @Param lookback_days query int false "days to scan backwards"
// @Param max_gaps query int false "max gaps to fill this run"
// @Success 200 {object} apiResponse
// @Router /api/v1/data/fill-gaps [post]
func (h *DataHandler) fillGaps(c *gin.Context) {
	if h.Backfill == nil {
		Error(c, http.StatusInternalServerError, "backfill unavailable", nil)
		return
	}
	lookback := time.Duration(intQuery(c, "lookback_days", h.Defaults.LookbackDays)) * 24 * time.Hour
	minGap := durationQuery(c, "min_gap", h.Defaults.MinGap)
	maxGaps := intQuery(c, "max_gaps", h.Defaults.MaxGaps)

	summary, err := h.Backfill.FillGaps(c.Request.Context(), minGap, lookback, maxGaps)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, summary, nil)
}

// @Summary Backfill run history
// @Tags data
// @Success 200 {object} apiResponse
// @Router /api/v1/data/backfills [get]
func (h *DataHandler) listBackfills(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	items, err := h.Repo.ListBackfillRuns(c.Request.Context(), repository.ListBackfillRunsParams{
		AssetID: h.AssetID,
		Limit:   intQuery(c, "limit", 50),
		Offset:  intQuery(c, "offset", 0),
	})
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}
