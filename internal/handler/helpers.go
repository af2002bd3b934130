package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

func intQuery(c *gin.Context, key string, def int) int {
	if val := c.Query(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return def
}

func boolQueryDefault(c *gin.Context, key string, def bool) bool {
	if val := c.Query(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return def
}

// timeQueryPtr accepts RFC3339 or a unix-seconds integer.
func timeQueryPtr(c *gin.Context, key string) *time.Time {
	val := strings.TrimSpace(c.Query(key))
	if val == "" {
		return nil
	}
	if parsed, err := time.Parse(time.RFC3339, val); err == nil {
		parsed = parsed.UTC()
		return &parsed
	}
	if secs, err := strconv.ParseInt(val, 10, 64); err == nil {
		parsed := time.Unix(secs, 0).UTC()
		return &parsed
	}
	return nil
}

func durationQuery(c *gin.Context, key string, def time.Duration) time.Duration {
	if val := strings.TrimSpace(c.Query(key)); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return def
}

func paginationMeta(limit, offset int, total int64) map[string]any {
	if limit <= 0 {
		limit = 0
	}
	if offset < 0 {
		offset = 0
	}
	hasNext := int64(offset+limit) < total
	return map[string]any{
		"limit":    limit,
		"offset":   offset,
		"total":    total,
		"has_next": hasNext,
	}
}

func boolPtr(v bool) *bool { return &v }
