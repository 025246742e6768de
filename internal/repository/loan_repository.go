package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/khaata-engine/internal/domain"

	"github.com/jmoiron/sqlx"
)

const loanColumns = `id, owner_id, customer_id, description, amount, remaining_amount, issue_date, due_date,
		frequency, interest, grace_days, status, created_at, updated_at`

type loanRepository struct {
	db *sqlx.DB
}

func NewLoanRepository(db *sqlx.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	query := `
		INSERT INTO loans (` + loanColumns + `)
		VALUES (:id, :owner_id, :customer_id, :description, :amount, :remaining_amount, :issue_date, :due_date,
		        :frequency, :interest, :grace_days, :status, :created_at, :updated_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, loan)
	return translateError(err)
}

func (r *loanRepository) GetByID(ctx context.Context, ownerID, loanID uuid.UUID) (*domain.Loan, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM loans
		WHERE owner_id = $1 AND id = $2
	`

	var loan domain.Loan
	if err := r.db.GetContext(ctx, &loan, query, ownerID, loanID); err != nil {
		return nil, translateError(err)
	}

	return &loan, nil
}

func (r *loanRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Loan, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM loans
		WHERE owner_id = $1
		ORDER BY seq
	`

	loans := []*domain.Loan{}
	if err := r.db.SelectContext(ctx, &loans, query, ownerID); err != nil {
		return nil, translateError(err)
	}

	return loans, nil
}

func (r *loanRepository) ListByCustomer(ctx context.Context, ownerID, customerID uuid.UUID) ([]*domain.Loan, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM loans
		WHERE owner_id = $1 AND customer_id = $2
		ORDER BY seq
	`

	loans := []*domain.Loan{}
	if err := r.db.SelectContext(ctx, &loans, query, ownerID, customerID); err != nil {
		return nil, translateError(err)
	}

	return loans, nil
}

func (r *loanRepository) ListUnpaid(ctx context.Context) ([]*domain.Loan, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM loans
		WHERE status <> 'paid'
		ORDER BY seq
	`

	loans := []*domain.Loan{}
	if err := r.db.SelectContext(ctx, &loans, query); err != nil {
		return nil, translateError(err)
	}

	return loans, nil
}

func (r *loanRepository) Update(ctx context.Context, loan *domain.Loan) error {
	query := `
		UPDATE loans
		SET description = :description, due_date = :due_date, frequency = :frequency,
		    interest = :interest, grace_days = :grace_days, updated_at = :updated_at
		WHERE owner_id = :owner_id AND id = :id
	`

	res, err := r.db.NamedExecContext(ctx, query, loan)
	if err != nil {
		return translateError(err)
	}
	return requireAffected(res)
}

func (r *loanRepository) UpdateStatus(ctx context.Context, ownerID, loanID uuid.UUID, status domain.LoanStatus) error {
	query := `
		UPDATE loans
		SET status = $3, updated_at = $4
		WHERE owner_id = $1 AND id = $2 AND status <> 'paid'
	`

	res, err := r.db.ExecContext(ctx, query, ownerID, loanID, status, time.Now())
	if err != nil {
		return translateError(err)
	}
	return requireAffected(res)
}
