package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/segyhp/khaata-engine/internal/domain"

	"github.com/jmoiron/sqlx"
)

const repaymentColumns = `id, owner_id, loan_id, customer_id, amount, paid_on, receipt_number, created_at`

type repaymentRepository struct {
	db *sqlx.DB
}

func NewRepaymentRepository(db *sqlx.DB) RepaymentRepository {
	return &repaymentRepository{db: db}
}

// Apply holds a row lock on the loan for the whole read-validate-write cycle,
// so two repayments against the same loan can never both pass validation
// against a stale balance. A table-backed sequencer is moved onto the same
// transaction: the pool is never asked for a second connection while the
// lock is held.
func (r *repaymentRepository) Apply(ctx context.Context, ownerID, loanID uuid.UUID, receipts ReceiptSequencer, fn RepaymentFunc) (*domain.Repayment, *domain.Loan, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, translateError(err)
	}
	defer tx.Rollback()

	lockQuery := `
		SELECT ` + loanColumns + `
		FROM loans
		WHERE owner_id = $1 AND id = $2
		FOR UPDATE
	`

	var loan domain.Loan
	if err = tx.GetContext(ctx, &loan, lockQuery, ownerID, loanID); err != nil {
		return nil, nil, translateError(err)
	}

	if seq, ok := receipts.(*receiptSequencer); ok {
		receipts = seq.onTx(tx)
	}

	repayment, err := fn(&loan, receipts)
	if err != nil {
		return nil, nil, err
	}

	updateQuery := `
		UPDATE loans
		SET remaining_amount = $3, status = $4, updated_at = $5
		WHERE owner_id = $1 AND id = $2
	`
	if _, err = tx.ExecContext(ctx, updateQuery, ownerID, loanID, loan.Remaining, loan.Status, loan.UpdatedAt); err != nil {
		return nil, nil, translateError(err)
	}

	insertQuery := `
		INSERT INTO repayments (` + repaymentColumns + `)
		VALUES (:id, :owner_id, :loan_id, :customer_id, :amount, :paid_on, :receipt_number, :created_at)
	`
	if _, err = tx.NamedExecContext(ctx, insertQuery, repayment); err != nil {
		return nil, nil, translateError(err)
	}

	if err = tx.Commit(); err != nil {
		return nil, nil, translateError(err)
	}

	return repayment, &loan, nil
}

func (r *repaymentRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Repayment, error) {
	query := `
		SELECT ` + repaymentColumns + `
		FROM repayments
		WHERE owner_id = $1
		ORDER BY seq
	`

	repayments := []*domain.Repayment{}
	if err := r.db.SelectContext(ctx, &repayments, query, ownerID); err != nil {
		return nil, translateError(err)
	}
	return repayments, nil
}

func (r *repaymentRepository) ListByLoan(ctx context.Context, ownerID, loanID uuid.UUID) ([]*domain.Repayment, error) {
	query := `
		SELECT ` + repaymentColumns + `
		FROM repayments
		WHERE owner_id = $1 AND loan_id = $2
		ORDER BY seq
	`

	repayments := []*domain.Repayment{}
	if err := r.db.SelectContext(ctx, &repayments, query, ownerID, loanID); err != nil {
		return nil, translateError(err)
	}
	return repayments, nil
}
