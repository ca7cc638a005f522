package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"crypto-fomo-bot/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultDailyFreeLimit is the free scans every user gets per day.
	DefaultDailyFreeLimit = 5
	// DefaultBonusLimit is the one-time new-user bonus, never refilled.
	DefaultBonusLimit = 3

	storeTimeout = 5 * time.Second
)

// AccountStore is the durable backing for user accounts. Load returns
// (nil, nil) when the user has no row yet. Save must fully persist the
// account or fail without partial effect.
type AccountStore interface {
	Load(ctx context.Context, userID int64) (*domain.UserAccount, error)
	Save(ctx context.Context, account *domain.UserAccount) error
}

// Ledger manages per-user quota state. All mutating operations for the
// same user are serialized through a per-user mutex, so two concurrent
// spends can never both consume the last unit of quota.
type Ledger struct {
	store      AccountStore
	tracer     trace.Tracer
	dailyLimit int
	bonusLimit int

	mu    sync.Mutex
	locks map[int64]*sync.Mutex

	now func() time.Time
}

func New(store AccountStore, tracer trace.Tracer, dailyLimit, bonusLimit int) *Ledger {
	if dailyLimit <= 0 {
		dailyLimit = DefaultDailyFreeLimit
	}
	if bonusLimit <= 0 {
		bonusLimit = DefaultBonusLimit
	}
	return &Ledger{
		store:      store,
		tracer:     tracer,
		dailyLimit: dailyLimit,
		bonusLimit: bonusLimit,
		locks:      make(map[int64]*sync.Mutex),
		now:        time.Now,
	}
}

// userLock returns the mutex serializing operations for one user.
func (l *Ledger) userLock(userID int64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[userID] = lock
	}
	return lock
}

// GetAccount loads a user's account, creating it lazily with full free
// and bonus quota, and applying the daily reset when the stored reset
// date is before today. A copy is returned; callers cannot mutate
// ledger state through it.
func (l *Ledger) GetAccount(ctx context.Context, userID int64) (*domain.UserAccount, error) {
	_, span := l.tracer.Start(ctx, "ledger.get-account")
	defer span.End()

	lock := l.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	account, err := l.loadCurrent(ctx, userID)
	if err != nil {
		return nil, err
	}
	snapshot := *account
	return &snapshot, nil
}

// TrySpend atomically debits one unit of quota, trying buckets in fixed
// priority order: bonus, then daily free, then purchased balance. When
// nothing is left it reports Granted=false with BucketNone. Storage
// failures leave quota untouched.
func (l *Ledger) TrySpend(ctx context.Context, userID int64) (*domain.SpendResult, error) {
	_, span := l.tracer.Start(ctx, "ledger.try-spend")
	defer span.End()

	lock := l.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	account, err := l.loadCurrent(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &domain.SpendResult{}
	switch {
	case !account.BonusExhausted && account.BonusUsed < l.bonusLimit:
		account.BonusUsed++
		if account.BonusUsed >= l.bonusLimit {
			account.BonusExhausted = true
		}
		result.Granted = true
		result.Bucket = domain.BucketBonus
		bonusLeft := l.bonusLimit - account.BonusUsed
		dailyLeft := l.dailyLimit - account.DailyFreeUsed
		if bonusLeft > 0 {
			result.Message = fmt.Sprintf("Welcome scan used. %d bonus + %d daily scans left.", bonusLeft, dailyLeft)
		} else {
			result.Message = fmt.Sprintf("Last bonus scan used. %d daily scans remaining.", dailyLeft)
		}

	case account.DailyFreeUsed < l.dailyLimit:
		account.DailyFreeUsed++
		result.Granted = true
		result.Bucket = domain.BucketDailyFree
		if left := l.dailyLimit - account.DailyFreeUsed; left > 0 {
			result.Message = fmt.Sprintf("Scan used. %d free scans remaining today.", left)
		} else {
			result.Message = "Last free scan used today. Buy tokens for unlimited scans."
		}

	case account.PurchasedBalance > 0:
		account.PurchasedBalance--
		result.Granted = true
		result.Bucket = domain.BucketPurchased
		result.Message = fmt.Sprintf("1 token spent. Balance: %d tokens.", account.PurchasedBalance)

	default:
		result.Bucket = domain.BucketNone
		result.Message = "No scans remaining. Buy tokens to keep scanning."
		return result, nil
	}

	account.TotalQueries++
	if err := l.save(ctx, account); err != nil {
		return nil, err
	}
	return result, nil
}

// AddTokens credits purchased balance and returns the new balance.
// Deduplication of purchase events is the caller's responsibility.
func (l *Ledger) AddTokens(ctx context.Context, userID int64, amount int) (int, error) {
	_, span := l.tracer.Start(ctx, "ledger.add-tokens")
	defer span.End()

	if amount <= 0 {
		return 0, fmt.Errorf("invalid token amount %d", amount)
	}

	lock := l.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	account, err := l.loadCurrent(ctx, userID)
	if err != nil {
		return 0, err
	}

	account.PurchasedBalance += amount
	if err := l.save(ctx, account); err != nil {
		return 0, err
	}
	return account.PurchasedBalance, nil
}

// BalanceSummary projects a user's remaining quota. Shares the lazy
// daily reset with GetAccount but has no other side effects.
func (l *Ledger) BalanceSummary(ctx context.Context, userID int64) (*domain.BalanceSummary, error) {
	account, err := l.GetAccount(ctx, userID)
	if err != nil {
		return nil, err
	}

	daily := l.dailyLimit - account.DailyFreeUsed
	if daily < 0 {
		daily = 0
	}
	bonus := 0
	if !account.BonusExhausted {
		bonus = l.bonusLimit - account.BonusUsed
		if bonus < 0 {
			bonus = 0
		}
	}
	return &domain.BalanceSummary{
		Purchased:      account.PurchasedBalance,
		DailyRemaining: daily,
		BonusRemaining: bonus,
		TotalAvailable: account.PurchasedBalance + daily + bonus,
	}, nil
}

// loadCurrent fetches the account under the caller-held user lock,
// creating it when missing and applying the daily reset. The returned
// pointer is private to the caller until saved.
func (l *Ledger) loadCurrent(ctx context.Context, userID int64) (*domain.UserAccount, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	account, err := l.store.Load(ctx, userID)
	if err != nil {
		return nil, storeErr("load account", err)
	}

	today := l.today()
	if account == nil {
		account = &domain.UserAccount{
			UserID:        userID,
			LastResetDate: today,
			CreatedAt:     l.now().UTC(),
		}
		if err := l.save(ctx, account); err != nil {
			return nil, err
		}
		return account, nil
	}

	if account.LastResetDate.Before(today) {
		account.DailyFreeUsed = 0
		account.LastResetDate = today
		if err := l.save(ctx, account); err != nil {
			return nil, err
		}
	}
	return account, nil
}

func (l *Ledger) save(ctx context.Context, account *domain.UserAccount) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	if err := l.store.Save(ctx, account); err != nil {
		return storeErr("save account", err)
	}
	return nil
}

func (l *Ledger) today() time.Time {
	y, m, d := l.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(domain.ErrLedgerUnavailable, err))
}
