package repository

import (
	"context"

	"crypto-fomo-bot/internal/domain"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/trace"
)

const createAlertsTable = `
CREATE TABLE IF NOT EXISTS fomo_alerts (
    id             BIGSERIAL   PRIMARY KEY,
    coin_id        TEXT        NOT NULL,
    symbol         TEXT        NOT NULL,
    name           TEXT        NOT NULL,
    score          INTEGER     NOT NULL,
    signal         TEXT        NOT NULL,
    price_usd      NUMERIC     NOT NULL,
    change_24h_pct NUMERIC     NOT NULL,
    volume_spike   NUMERIC     NOT NULL,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_fomo_alerts_created
    ON fomo_alerts (created_at DESC);
`

// AlertRepository persists high-scoring coins found by the market scan.
type AlertRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewAlertRepository(pool PgxPool, tracer trace.Tracer) *AlertRepository {
	return &AlertRepository{pool: pool, tracer: tracer}
}

func (r *AlertRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "alert-repo.run-migrations")
	defer span.End()

	if r.pool == nil {
		return ErrNoDatabase
	}
	_, err := r.pool.Exec(ctx, createAlertsTable)
	return err
}

// InsertAlerts writes one scan's worth of alerts in a single batch.
func (r *AlertRepository) InsertAlerts(ctx context.Context, alerts []*domain.FomoAlert) error {
	if len(alerts) == 0 {
		return nil
	}

	_, span := r.tracer.Start(ctx, "alert-repo.insert-alerts")
	defer span.End()

	if r.pool == nil {
		return ErrNoDatabase
	}
	batch := &pgx.Batch{}
	for _, a := range alerts {
		batch.Queue(
			`INSERT INTO fomo_alerts (coin_id, symbol, name, score, signal,
			                          price_usd, change_24h_pct, volume_spike)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			a.CoinID, a.Symbol, a.Name, a.Score, string(a.Signal),
			a.PriceUSD, a.Change24hPct, a.VolumeSpike,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range alerts {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// Latest returns the most recent alerts, newest first.
func (r *AlertRepository) Latest(ctx context.Context, limit int) ([]*domain.FomoAlert, error) {
	_, span := r.tracer.Start(ctx, "alert-repo.latest")
	defer span.End()

	if r.pool == nil {
		return nil, ErrNoDatabase
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, coin_id, symbol, name, score, signal,
		        price_usd, change_24h_pct, volume_spike, created_at
		 FROM fomo_alerts
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*domain.FomoAlert
	for rows.Next() {
		a := &domain.FomoAlert{}
		var signal string
		if err := rows.Scan(&a.ID, &a.CoinID, &a.Symbol, &a.Name, &a.Score, &signal,
			&a.PriceUSD, &a.Change24hPct, &a.VolumeSpike, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Signal = domain.Signal(signal)
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}
