package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/segyhp/khaata-engine/internal/domain"

	"github.com/jmoiron/sqlx"
)

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, created_at)
		VALUES (:id, :name, :email, :password_hash, :created_at)
	`
	_, err := r.db.NamedExecContext(ctx, query, u)
	return translateError(err)
}

func (r *userRepository) GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	var u domain.User
	query := `SELECT id, name, email, password_hash, created_at FROM users WHERE id = $1`
	if err := r.db.GetContext(ctx, &u, query, userID); err != nil {
		return nil, translateError(err)
	}
	return &u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	query := `SELECT id, name, email, password_hash, created_at FROM users WHERE lower(email) = $1`
	if err := r.db.GetContext(ctx, &u, query, strings.ToLower(email)); err != nil {
		return nil, translateError(err)
	}
	return &u, nil
}
