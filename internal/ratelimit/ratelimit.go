package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"crypto-fomo-bot/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// DefaultMinInterval paces repeat requests; the quota debit remains
// the real gate.
const DefaultMinInterval = time.Second

// QuotaChecker reports the spendable quota for a user. Satisfied by
// *ledger.Ledger.
type QuotaChecker interface {
	BalanceSummary(ctx context.Context, userID int64) (*domain.BalanceSummary, error)
}

// RateLimiter decides whether a request may proceed right now. It does
// not debit quota; the caller runs TrySpend after a grant. Last-request
// timestamps live in memory only, losing them on restart just relaxes
// pacing for one request.
type RateLimiter struct {
	ledger   QuotaChecker
	tracer   trace.Tracer
	interval time.Duration

	mu   sync.Mutex
	last map[int64]time.Time

	now func() time.Time
}

func New(ledger QuotaChecker, tracer trace.Tracer, minInterval time.Duration) *RateLimiter {
	if minInterval <= 0 {
		minInterval = DefaultMinInterval
	}
	return &RateLimiter{
		ledger:   ledger,
		tracer:   tracer,
		interval: minInterval,
		last:     make(map[int64]time.Time),
		now:      time.Now,
	}
}

// Authorize checks quota availability and then the minimum interval
// since the user's previous request. The timestamp is only advanced on
// a grant, so a denied request does not extend the cooldown.
func (r *RateLimiter) Authorize(ctx context.Context, userID int64) (*domain.AuthorizationResult, error) {
	_, span := r.tracer.Start(ctx, "ratelimit.authorize")
	defer span.End()

	summary, err := r.ledger.BalanceSummary(ctx, userID)
	if err != nil {
		return nil, err
	}
	if summary.TotalAvailable <= 0 {
		return &domain.AuthorizationResult{Allowed: false, Reason: domain.DenyNoQuota}, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if last, ok := r.last[userID]; ok {
		elapsed := now.Sub(last)
		if elapsed < r.interval {
			remaining := r.interval - elapsed
			return &domain.AuthorizationResult{
				Allowed:        false,
				Reason:         domain.DenyCooldown,
				RetryAfterSecs: int(math.Ceil(remaining.Seconds())),
			}, nil
		}
	}

	r.last[userID] = now
	return &domain.AuthorizationResult{Allowed: true}, nil
}
