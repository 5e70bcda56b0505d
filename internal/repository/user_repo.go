package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"text-stock-tracker/internal/domain"
)

// UserRepository define el contrato de persistencia para usuarios.
type UserRepository interface {
	// Create inserta el usuario si su teléfono no existe; devuelve false si ya existía.
	Create(ctx context.Context, user domain.User) (bool, error)
	GetByPhone(ctx context.Context, phone string) (domain.User, error)
}

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool pgxPool
}

func NewPgUserRepository(pool pgxPool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) (bool, error) {
	const query = `
		INSERT INTO users (id, phone_number, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (phone_number) DO NOTHING
	`
	tag, err := r.pool.Exec(ctx, query,
		user.ID,
		user.PhoneNumber,
		user.CreatedAt,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PgUserRepository) GetByPhone(ctx context.Context, phone string) (domain.User, error) {
	const query = `
		SELECT id, phone_number, created_at
		FROM users
		WHERE phone_number = $1
	`
	var u domain.User
	err := r.pool.QueryRow(ctx, query, phone).Scan(
		&u.ID,
		&u.PhoneNumber,
		&u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, err
	}
	return u, err
}
