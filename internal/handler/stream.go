package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"coinwatch/internal/stream"
)

type StreamHandler struct {
	Hub    *stream.Hub
	Logger *zap.Logger
}

func (h *StreamHandler) Register(r *gin.Engine) {
	r.GET("/api/v1/price/stream", h.streamPrices)
}

// @Summary Live price stream (websocket)
// @Tags price
// @Router /api/v1/price/stream [get]
func (h *StreamHandler) streamPrices(c *gin.Context) {
	if h.Hub == nil {
		Error(c, http.StatusInternalServerError, "stream unavailable", nil)
		return
	}
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		// Dashboard is served from another origin in dev.
		InsecureSkipVerify: true,
	})
	if err != nil {
		if h.Logger != nil {
			h.Logger.Debug("websocket accept failed", zap.Error(err))
		}
		return
	}
	if err := h.Hub.Serve(c.Request.Context(), conn); err != nil && h.Logger != nil {
		h.Logger.Debug("stream ended", zap.Error(err))
	}
	conn.Close(websocket.StatusNormalClosure, "")
}
