package repository

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

const createSubscribersTable = `
CREATE TABLE IF NOT EXISTS subscribers (
    chat_id    BIGINT      PRIMARY KEY,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// SubscriberRepository tracks chats subscribed to broadcast alerts.
type SubscriberRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewSubscriberRepository(pool PgxPool, tracer trace.Tracer) *SubscriberRepository {
	return &SubscriberRepository{pool: pool, tracer: tracer}
}

func (r *SubscriberRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "subscriber-repo.run-migrations")
	defer span.End()

	if r.pool == nil {
		return ErrNoDatabase
	}
	_, err := r.pool.Exec(ctx, createSubscribersTable)
	return err
}

func (r *SubscriberRepository) Add(ctx context.Context, chatID int64) error {
	_, span := r.tracer.Start(ctx, "subscriber-repo.add")
	defer span.End()

	if r.pool == nil {
		return ErrNoDatabase
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO subscribers (chat_id) VALUES ($1) ON CONFLICT DO NOTHING`,
		chatID,
	)
	return err
}

func (r *SubscriberRepository) Remove(ctx context.Context, chatID int64) error {
	_, span := r.tracer.Start(ctx, "subscriber-repo.remove")
	defer span.End()

	if r.pool == nil {
		return ErrNoDatabase
	}
	_, err := r.pool.Exec(ctx, `DELETE FROM subscribers WHERE chat_id = $1`, chatID)
	return err
}

func (r *SubscriberRepository) List(ctx context.Context) ([]int64, error) {
	_, span := r.tracer.Start(ctx, "subscriber-repo.list")
	defer span.End()

	if r.pool == nil {
		return nil, ErrNoDatabase
	}
	rows, err := r.pool.Query(ctx, `SELECT chat_id FROM subscribers ORDER BY chat_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chatIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		chatIDs = append(chatIDs, id)
	}
	return chatIDs, rows.Err()
}
