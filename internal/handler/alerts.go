package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// LatestAlerts godoc
// @Summary      List recent FOMO alerts
// @Description  Returns the most recent high-scoring coins found by the market scanner
// @Tags         alerts
// @Produce      json
// @Param        limit  query  int  false  "Number of alerts (default 20, max 100)"  default(20)
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]string
// @Router       /api/alerts/latest [get]
func (h *Handler) LatestAlerts(c *gin.Context) {
	if h.alerts == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "alert storage unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.latest-alerts")
	defer span.End()

	limit := 0
	if l := c.Query("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil {
			limit = n
		}
	}

	alerts, err := h.alerts.Latest(ctx, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"alerts": alerts, "count": len(alerts)})
}
