package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"text-stock-tracker/internal/domain"
)

type LookupRepository interface {
	Create(ctx context.Context, record domain.LookupRecord) (domain.LookupRecord, error)
	// LatestSince devuelve el registro más reciente con sent_at > since, o pgx.ErrNoRows.
	LatestSince(ctx context.Context, userID string, since time.Time) (domain.LookupRecord, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type PgLookupRepository struct {
	pool pgxPool
}

func NewPgLookupRepository(pool pgxPool) *PgLookupRepository {
	return &PgLookupRepository{pool: pool}
}

func (r *PgLookupRepository) Create(ctx context.Context, record domain.LookupRecord) (domain.LookupRecord, error) {
	const query = `
		INSERT INTO lookup_records (user_id, symbol, sent_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	err := r.pool.QueryRow(ctx, query,
		record.UserID,
		record.Symbol,
		record.SentAt,
	).Scan(&record.ID)
	if err != nil {
		return domain.LookupRecord{}, err
	}
	return record, nil
}

func (r *PgLookupRepository) LatestSince(ctx context.Context, userID string, since time.Time) (domain.LookupRecord, error) {
	// id DESC desempata registros con el mismo sent_at a favor del último insertado.
	const query = `
		SELECT id, user_id, symbol, sent_at
		FROM lookup_records
		WHERE user_id = $1 AND sent_at > $2
		ORDER BY sent_at DESC, id DESC
		LIMIT 1
	`
	var rec domain.LookupRecord
	err := r.pool.QueryRow(ctx, query, userID, since).Scan(
		&rec.ID,
		&rec.UserID,
		&rec.Symbol,
		&rec.SentAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.LookupRecord{}, err
	}
	return rec, err
}

func (r *PgLookupRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `
		DELETE FROM lookup_records
		WHERE sent_at < $1
	`
	tag, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
