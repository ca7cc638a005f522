package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"crypto-fomo-bot/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// ScanCoin godoc
// @Summary      Run a FOMO scan for a coin
// @Description  Scores the coin's current market snapshot and debits one scan from the user's quota
// @Tags         fomo
// @Produce      json
// @Param        coin     path   string  true  "Coin id or symbol (e.g., doge, bitcoin)"
// @Param        user_id  query  int     true  "Telegram user id charged for the scan"
// @Success      200  {object}  domain.ScanOutcome
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      429  {object}  domain.ScanOutcome
// @Router       /api/fomo/{coin} [get]
func (h *Handler) ScanCoin(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.scan-coin")
	defer span.End()

	coin := strings.ToLower(c.Param("coin"))
	span.SetAttributes(attribute.String("coin", coin))

	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id query parameter is required"})
		return
	}

	outcome, err := h.fomo.Scan(ctx, userID, coin)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedCoin) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unsupported coin: " + coin})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if !outcome.Allowed {
		c.JSON(http.StatusTooManyRequests, outcome)
		return
	}
	c.JSON(http.StatusOK, outcome)
}
