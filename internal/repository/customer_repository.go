package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/segyhp/khaata-engine/internal/domain"

	"github.com/jmoiron/sqlx"
)

const customerColumns = `id, owner_id, name, phone, address, trust_score, credit_limit, created_at, updated_at`

type customerRepository struct {
	db *sqlx.DB
}

func NewCustomerRepository(db *sqlx.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) Create(ctx context.Context, c *domain.Customer) error {
	query := `
		INSERT INTO customers (` + customerColumns + `)
		VALUES (:id, :owner_id, :name, :phone, :address, :trust_score, :credit_limit, :created_at, :updated_at)
	`
	_, err := r.db.NamedExecContext(ctx, query, c)
	return translateError(err)
}

func (r *customerRepository) GetByID(ctx context.Context, ownerID, customerID uuid.UUID) (*domain.Customer, error) {
	var c domain.Customer
	query := `SELECT ` + customerColumns + ` FROM customers WHERE owner_id = $1 AND id = $2`
	if err := r.db.GetContext(ctx, &c, query, ownerID, customerID); err != nil {
		return nil, translateError(err)
	}
	return &c, nil
}

func (r *customerRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Customer, error) {
	customers := []*domain.Customer{}
	query := `SELECT ` + customerColumns + ` FROM customers WHERE owner_id = $1 ORDER BY seq`
	if err := r.db.SelectContext(ctx, &customers, query, ownerID); err != nil {
		return nil, translateError(err)
	}
	return customers, nil
}

func (r *customerRepository) Update(ctx context.Context, c *domain.Customer) error {
	query := `
		UPDATE customers
		SET name = :name, phone = :phone, address = :address, trust_score = :trust_score,
		    credit_limit = :credit_limit, updated_at = :updated_at
		WHERE owner_id = :owner_id AND id = :id
	`
	res, err := r.db.NamedExecContext(ctx, query, c)
	if err != nil {
		return translateError(err)
	}
	return requireAffected(res)
}

func (r *customerRepository) Delete(ctx context.Context, ownerID, customerID uuid.UUID) error {
	query := `DELETE FROM customers WHERE owner_id = $1 AND id = $2`
	res, err := r.db.ExecContext(ctx, query, ownerID, customerID)
	if err != nil {
		return translateError(err)
	}
	return requireAffected(res)
}
