package handler

import (
	"context"

	"crypto-fomo-bot/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// FomoRunner is the slice of the FOMO service the HTTP API exposes.
type FomoRunner interface {
	Scan(ctx context.Context, userID int64, coinQuery string) (*domain.ScanOutcome, error)
	Balance(ctx context.Context, userID int64) (*domain.BalanceSummary, error)
	CreditTokens(ctx context.Context, userID int64, amount int) (int, error)
}

// AlertReader serves the scanner's persisted alerts.
type AlertReader interface {
	Latest(ctx context.Context, limit int) ([]*domain.FomoAlert, error)
}

type Handler struct {
	tracer trace.Tracer
	fomo   FomoRunner
	alerts AlertReader
	apiKey string
}

func New(tracer trace.Tracer, fomo FomoRunner, alerts AlertReader, apiKey string) *Handler {
	return &Handler{
		tracer: tracer,
		fomo:   fomo,
		alerts: alerts,
		apiKey: apiKey,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/api/fomo/:coin", h.ScanCoin)
	r.GET("/api/users/:id/balance", h.GetBalance)
	r.GET("/api/alerts/latest", h.LatestAlerts)

	admin := r.Group("/api", APIKeyAuth(h.apiKey))
	admin.POST("/users/:id/tokens", h.CreditTokens)
}
