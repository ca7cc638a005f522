package repository

import (
	"context"
	"errors"

	"crypto-fomo-bot/internal/domain"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/trace"
)

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
    user_id            BIGINT      PRIMARY KEY,
    purchased_balance  INTEGER     NOT NULL DEFAULT 0,
    daily_free_used    INTEGER     NOT NULL DEFAULT 0,
    bonus_used         INTEGER     NOT NULL DEFAULT 0,
    bonus_exhausted    BOOLEAN     NOT NULL DEFAULT FALSE,
    last_reset_date    DATE        NOT NULL DEFAULT CURRENT_DATE,
    total_queries      INTEGER     NOT NULL DEFAULT 0,
    created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_users_last_reset
    ON users (last_reset_date);
`

// AccountRepository persists user quota state. It satisfies
// ledger.AccountStore.
type AccountRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewAccountRepository(pool PgxPool, tracer trace.Tracer) *AccountRepository {
	return &AccountRepository{pool: pool, tracer: tracer}
}

func (r *AccountRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "account-repo.run-migrations")
	defer span.End()

	if r.pool == nil {
		return ErrNoDatabase
	}
	_, err := r.pool.Exec(ctx, createUsersTable)
	return err
}

// Load returns (nil, nil) when the user has no row yet.
func (r *AccountRepository) Load(ctx context.Context, userID int64) (*domain.UserAccount, error) {
	_, span := r.tracer.Start(ctx, "account-repo.load")
	defer span.End()

	if r.pool == nil {
		return nil, ErrNoDatabase
	}
	account := &domain.UserAccount{}
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, purchased_balance, daily_free_used, bonus_used,
		        bonus_exhausted, last_reset_date, total_queries, created_at
		 FROM users WHERE user_id = $1`,
		userID,
	).Scan(
		&account.UserID, &account.PurchasedBalance, &account.DailyFreeUsed,
		&account.BonusUsed, &account.BonusExhausted, &account.LastResetDate,
		&account.TotalQueries, &account.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

// Save upserts the full account row.
func (r *AccountRepository) Save(ctx context.Context, account *domain.UserAccount) error {
	_, span := r.tracer.Start(ctx, "account-repo.save")
	defer span.End()

	if r.pool == nil {
		return ErrNoDatabase
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (user_id, purchased_balance, daily_free_used, bonus_used,
		                    bonus_exhausted, last_reset_date, total_queries, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (user_id) DO UPDATE SET
		     purchased_balance = EXCLUDED.purchased_balance,
		     daily_free_used = EXCLUDED.daily_free_used,
		     bonus_used = EXCLUDED.bonus_used,
		     bonus_exhausted = EXCLUDED.bonus_exhausted,
		     last_reset_date = EXCLUDED.last_reset_date,
		     total_queries = EXCLUDED.total_queries`,
		account.UserID, account.PurchasedBalance, account.DailyFreeUsed,
		account.BonusUsed, account.BonusExhausted, account.LastResetDate,
		account.TotalQueries, account.CreatedAt,
	)
	return err
}
