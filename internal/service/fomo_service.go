package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"crypto-fomo-bot/internal/domain"
	"crypto-fomo-bot/internal/fomo"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

const snapshotCacheTTL = 5 * time.Minute

// SnapshotProvider supplies normalized market snapshots for a coin query.
type SnapshotProvider interface {
	Snapshot(ctx context.Context, coinQuery string) (*domain.MarketSnapshot, error)
}

// QuotaLedger is the token-economics surface the service spends against.
type QuotaLedger interface {
	TrySpend(ctx context.Context, userID int64) (*domain.SpendResult, error)
	AddTokens(ctx context.Context, userID int64, amount int) (int, error)
	BalanceSummary(ctx context.Context, userID int64) (*domain.BalanceSummary, error)
}

// Authorizer is the pacing gate consulted before any paid work happens.
type Authorizer interface {
	Authorize(ctx context.Context, userID int64) (*domain.AuthorizationResult, error)
}

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// FomoService orchestrates a user scan: authorize, fetch, score, debit.
type FomoService struct {
	tracer   trace.Tracer
	provider SnapshotProvider
	engine   *fomo.Engine
	ledger   QuotaLedger
	limiter  Authorizer
	redis    RedisClient
}

func NewFomoService(
	tracer trace.Tracer,
	provider SnapshotProvider,
	engine *fomo.Engine,
	ledger QuotaLedger,
	limiter Authorizer,
	redisClient RedisClient,
) *FomoService {
	return &FomoService{
		tracer:   tracer,
		provider: provider,
		engine:   engine,
		ledger:   ledger,
		limiter:  limiter,
		redis:    redisClient,
	}
}

// Scan runs one paid FOMO scan for a user. The quota debit happens only
// after scoring succeeds, so a provider or scoring failure costs the
// user nothing. A denied authorization is a normal outcome, not an error.
func (s *FomoService) Scan(ctx context.Context, userID int64, coinQuery string) (*domain.ScanOutcome, error) {
	ctx, span := s.tracer.Start(ctx, "fomo-service.scan")
	defer span.End()

	auth, err := s.limiter.Authorize(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("authorize user %d: %w", userID, err)
	}
	if !auth.Allowed {
		return &domain.ScanOutcome{
			Allowed:        false,
			Reason:         auth.Reason,
			RetryAfterSecs: auth.RetryAfterSecs,
		}, nil
	}

	snap, err := s.snapshot(ctx, coinQuery)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.Score(snap)
	if err != nil {
		return nil, err
	}

	spend, err := s.ledger.TrySpend(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("spend for user %d: %w", userID, err)
	}
	if !spend.Granted {
		// Quota raced away between authorize and spend.
		return &domain.ScanOutcome{
			Allowed: false,
			Reason:  domain.DenyNoQuota,
			Spend:   spend,
		}, nil
	}

	return &domain.ScanOutcome{
		Allowed:  true,
		Snapshot: snap,
		Result:   result,
		Spend:    spend,
	}, nil
}

// Balance returns the user's remaining quota.
func (s *FomoService) Balance(ctx context.Context, userID int64) (*domain.BalanceSummary, error) {
	ctx, span := s.tracer.Start(ctx, "fomo-service.balance")
	defer span.End()

	return s.ledger.BalanceSummary(ctx, userID)
}

// CreditPackage credits a purchased token package and returns the new
// purchased balance.
func (s *FomoService) CreditPackage(ctx context.Context, userID int64, packageKey string) (int, error) {
	ctx, span := s.tracer.Start(ctx, "fomo-service.credit-package")
	defer span.End()

	pkg, ok := domain.PackageByKey(packageKey)
	if !ok {
		return 0, fmt.Errorf("unknown token package %q", packageKey)
	}
	return s.ledger.AddTokens(ctx, userID, pkg.Tokens)
}

// CreditTokens credits an arbitrary token amount (admin surface).
func (s *FomoService) CreditTokens(ctx context.Context, userID int64, amount int) (int, error) {
	ctx, span := s.tracer.Start(ctx, "fomo-service.credit-tokens")
	defer span.End()

	return s.ledger.AddTokens(ctx, userID, amount)
}

// snapshot reads through the Redis cache; a miss fetches live data and
// repopulates it. Cache errors degrade to a live fetch.
func (s *FomoService) snapshot(ctx context.Context, coinQuery string) (*domain.MarketSnapshot, error) {
	coinID := domain.ResolveCoinID(coinQuery)
	key := "snapshot:" + coinID

	if s.redis != nil {
		cached, err := s.redis.Get(ctx, key).Bytes()
		if err != nil && err != redis.Nil {
			log.Printf("redis cache read error for %s: %v", coinID, err)
		}
		if err == nil {
			snap := &domain.MarketSnapshot{}
			if err := json.Unmarshal(cached, snap); err == nil {
				return snap, nil
			}
		}
	}

	snap, err := s.provider.Snapshot(ctx, coinID)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		data, err := json.Marshal(snap)
		if err == nil {
			if err := s.redis.Set(ctx, key, data, snapshotCacheTTL).Err(); err != nil {
				log.Printf("redis cache write error for %s: %v", coinID, err)
			}
		}
	}
	return snap, nil
}
