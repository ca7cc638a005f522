package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetBalance godoc
// @Summary      Get a user's scan balance
// @Description  Returns purchased tokens plus remaining free and bonus scans
// @Tags         users
// @Produce      json
// @Param        id  path  int  true  "Telegram user id"
// @Success      200  {object}  domain.BalanceSummary
// @Failure      400  {object}  map[string]string
// @Router       /api/users/{id}/balance [get]
func (h *Handler) GetBalance(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-balance")
	defer span.End()

	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	span.SetAttributes(attribute.Int64("user_id", userID))

	summary, err := h.fomo.Balance(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}

type creditTokensRequest struct {
	Amount int `json:"amount" binding:"required"`
}

// CreditTokens godoc
// @Summary      Credit purchased tokens to a user
// @Description  Admin surface for manual token grants and refunds
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id       path  int                  true  "Telegram user id"
// @Param        request  body  creditTokensRequest  true  "Token amount to credit"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/users/{id}/tokens [post]
func (h *Handler) CreditTokens(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.credit-tokens")
	defer span.End()

	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	span.SetAttributes(attribute.Int64("user_id", userID))

	var req creditTokensRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount is required"})
		return
	}
	if req.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be positive"})
		return
	}

	balance, err := h.fomo.CreditTokens(ctx, userID, req.Amount)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":  userID,
		"credited": req.Amount,
		"balance":  balance,
	})
}
