package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"econews-digest/internal/domain"
)

// Postgres реализует репозиторий подписчиков на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ domain.SubscriberRepo = (*Postgres)(nil)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// GetConfirmedSubscribers возвращает подтверждённых получателей рассылки.
func (p *Postgres) GetConfirmedSubscribers(ctx context.Context) ([]domain.Subscriber, error) {
	qctx, cancel := p.connCtx(ctx)
	defer cancel()

	rows, err := p.pool.Query(qctx, `
		SELECT id, email
		FROM subscribers
		WHERE confirmed_at IS NOT NULL AND unsubscribed_at IS NULL
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("выборка подписчиков: %w", err)
	}
	defer rows.Close()

	var subs []domain.Subscriber
	for rows.Next() {
		var sub domain.Subscriber
		if err := rows.Scan(&sub.ID, &sub.Email); err != nil {
			return nil, fmt.Errorf("чтение подписчика: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("обход подписчиков: %w", err)
	}
	return subs, nil
}
