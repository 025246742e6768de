package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/khaata-engine/internal/domain"
)

var loanColumnNames = []string{
	"id", "owner_id", "customer_id", "description", "amount", "remaining_amount", "issue_date", "due_date",
	"frequency", "interest", "grace_days", "status", "created_at", "updated_at",
}

func setupMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func loanRow(id, ownerID, customerID uuid.UUID, amount, remaining string, status string) *sqlmock.Rows {
	issue := time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)
	due := time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(loanColumnNames).AddRow(
		id.String(), ownerID.String(), customerID.String(), "Grocery items", amount, remaining, issue, due,
		"monthly", nil, int64(5), status, issue, issue,
	)
}

func TestLoanRepository_GetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLoanRepository(db)

	ownerID, loanID, customerID := uuid.New(), uuid.New(), uuid.New()
	mock.ExpectQuery("SELECT (.+) FROM loans WHERE owner_id = \\$1 AND id = \\$2").
		WithArgs(ownerID.String(), loanID.String()).
		WillReturnRows(loanRow(loanID, ownerID, customerID, "5000", "3000", "pending"))

	loan, err := repo.GetByID(context.Background(), ownerID, loanID)
	require.NoError(t, err)
	assert.Equal(t, loanID, loan.ID)
	assert.Equal(t, customerID, loan.CustomerID)
	assert.True(t, loan.Amount.Equal(decimal.NewFromInt(5000)))
	assert.True(t, loan.Remaining.Equal(decimal.NewFromInt(3000)))
	assert.False(t, loan.Interest.Valid)
	assert.Equal(t, 5, loan.GraceDays)
	assert.Equal(t, domain.LoanStatusPending, loan.Status)
	assert.Equal(t, domain.FrequencyMonthly, loan.Frequency)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoanRepository_GetByID_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLoanRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM loans").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoanRepository_Update_NoRowsIsNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLoanRepository(db)

	mock.ExpectExec("UPDATE loans").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &domain.Loan{ID: uuid.New(), OwnerID: uuid.New()})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoanRepository_UpdateStatusSkipsPaid(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLoanRepository(db)

	ownerID, loanID := uuid.New(), uuid.New()
	mock.ExpectExec("UPDATE loans SET status = \\$3, updated_at = \\$4 WHERE owner_id = \\$1 AND id = \\$2 AND status <> 'paid'").
		WithArgs(ownerID.String(), loanID.String(), "overdue", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), ownerID, loanID, domain.LoanStatusOverdue))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoanRepository_UpdateStatusOnPaidLoanIsNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLoanRepository(db)

	mock.ExpectExec("UPDATE loans SET status = \\$3").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), uuid.New(), uuid.New(), domain.LoanStatusOverdue)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoanRepository_UpdateUsesCallerTimestamp(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLoanRepository(db)

	stamp := time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)
	loan := &domain.Loan{
		ID:          uuid.New(),
		OwnerID:     uuid.New(),
		Description: "Festival sweets",
		DueDate:     time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Frequency:   domain.FrequencyMonthly,
		UpdatedAt:   stamp,
	}
	mock.ExpectExec("UPDATE loans").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), stamp, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(context.Background(), loan))
	assert.True(t, loan.UpdatedAt.Equal(stamp))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepaymentRepository_Apply_Commits(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepaymentRepository(db)

	ownerID, loanID, customerID := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM loans WHERE owner_id = \\$1 AND id = \\$2 FOR UPDATE").
		WithArgs(ownerID.String(), loanID.String()).
		WillReturnRows(loanRow(loanID, ownerID, customerID, "5000", "2000", "overdue"))
	mock.ExpectExec("UPDATE loans SET remaining_amount = \\$3, status = \\$4").
		WithArgs(ownerID.String(), loanID.String(), "0", "paid", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO repayments").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	repayment, loan, err := repo.Apply(context.Background(), ownerID, loanID, nil, func(l *domain.Loan, _ ReceiptSequencer) (*domain.Repayment, error) {
		amount := decimal.NewFromInt(2000)
		l.Remaining = l.Remaining.Sub(amount)
		l.Status = domain.LoanStatusPaid
		l.UpdatedAt = time.Now()
		return &domain.Repayment{
			ID:            uuid.New(),
			OwnerID:       ownerID,
			LoanID:        l.ID,
			CustomerID:    l.CustomerID,
			Amount:        amount,
			Date:          time.Now(),
			ReceiptNumber: "RCP-2025-001",
			CreatedAt:     time.Now(),
		}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "RCP-2025-001", repayment.ReceiptNumber)
	assert.True(t, loan.Remaining.IsZero())
	assert.Equal(t, domain.LoanStatusPaid, loan.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepaymentRepository_Apply_RollsBackOnRejection(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepaymentRepository(db)

	ownerID, loanID := uuid.New(), uuid.New()
	rejected := errors.New("amount exceeds remaining balance")

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM loans").
		WillReturnRows(loanRow(loanID, ownerID, uuid.New(), "5000", "2000", "pending"))
	mock.ExpectRollback()

	_, _, err := repo.Apply(context.Background(), ownerID, loanID, nil, func(*domain.Loan, ReceiptSequencer) (*domain.Repayment, error) {
		return nil, rejected
	})
	assert.ErrorIs(t, err, rejected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepaymentRepository_Apply_LockFailureIsConflict(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepaymentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM loans").
		WillReturnError(&pq.Error{Code: "55P03", Message: "could not obtain lock on row"})
	mock.ExpectRollback()

	_, _, err := repo.Apply(context.Background(), uuid.New(), uuid.New(), nil, func(*domain.Loan, ReceiptSequencer) (*domain.Repayment, error) {
		t.Fatal("callback must not run without the lock")
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrConcurrentUpdate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepaymentRepository_Apply_MissingLoan(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepaymentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM loans").WillReturnRows(sqlmock.NewRows(loanColumnNames))
	mock.ExpectRollback()

	_, _, err := repo.Apply(context.Background(), uuid.New(), uuid.New(), nil, func(*domain.Loan, ReceiptSequencer) (*domain.Repayment, error) {
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepaymentRepository_Apply_DrawsReceiptOnLedgerTx(t *testing.T) {
	db, mock := setupMockDB(t)
	db.SetMaxOpenConns(1)
	repo := NewRepaymentRepository(db)

	ownerID, loanID, customerID := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM loans WHERE owner_id = \\$1 AND id = \\$2 FOR UPDATE").
		WillReturnRows(loanRow(loanID, ownerID, customerID, "5000", "5000", "pending"))
	mock.ExpectQuery("INSERT INTO receipt_sequences").
		WithArgs(2025).
		WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(int64(3)))
	mock.ExpectExec("UPDATE loans SET remaining_amount").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO repayments").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	repayment, _, err := repo.Apply(ctx, ownerID, loanID, NewReceiptSequencer(db), func(l *domain.Loan, receipts ReceiptSequencer) (*domain.Repayment, error) {
		seq, err := receipts.Next(ctx, 2025)
		if err != nil {
			return nil, err
		}
		l.Remaining = l.Remaining.Sub(decimal.NewFromInt(1000))
		return &domain.Repayment{
			ID:            uuid.New(),
			OwnerID:       ownerID,
			LoanID:        l.ID,
			CustomerID:    l.CustomerID,
			Amount:        decimal.NewFromInt(1000),
			ReceiptNumber: fmt.Sprintf("RCP-2025-%03d", seq),
		}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "RCP-2025-003", repayment.ReceiptNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepaymentRepository_Apply_RejectionRollsBackReceipt(t *testing.T) {
	db, mock := setupMockDB(t)
	db.SetMaxOpenConns(1)
	repo := NewRepaymentRepository(db)

	ownerID, loanID := uuid.New(), uuid.New()
	rejected := errors.New("insert rejected")

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM loans").
		WillReturnRows(loanRow(loanID, ownerID, uuid.New(), "5000", "5000", "pending"))
	mock.ExpectQuery("INSERT INTO receipt_sequences").
		WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(int64(1)))
	mock.ExpectRollback()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, _, err := repo.Apply(ctx, ownerID, loanID, NewReceiptSequencer(db), func(_ *domain.Loan, receipts ReceiptSequencer) (*domain.Repayment, error) {
		if _, err := receipts.Next(ctx, 2025); err != nil {
			return nil, err
		}
		return nil, rejected
	})
	assert.ErrorIs(t, err, rejected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

	err := repo.Create(context.Background(), &domain.User{ID: uuid.New(), Email: "demo@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestCustomerRepository_Delete_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCustomerRepository(db)

	mock.ExpectExec("DELETE FROM customers WHERE owner_id = \\$1 AND id = \\$2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), uuid.New(), uuid.New()), ErrNotFound)
}

func TestCustomerRepository_Delete_ReferencedByLoan(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCustomerRepository(db)

	mock.ExpectExec("DELETE FROM customers WHERE owner_id = \\$1 AND id = \\$2").
		WillReturnError(&pq.Error{Code: "23503", Constraint: "loans_customer_id_fkey"})

	err := repo.Delete(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrReferenced)
	assert.Contains(t, err.Error(), "loans_customer_id_fkey")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReceiptSequencer_Next(t *testing.T) {
	db, mock := setupMockDB(t)
	seq := NewReceiptSequencer(db)

	mock.ExpectQuery("INSERT INTO receipt_sequences").
		WithArgs(2025).
		WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(int64(7)))

	next, err := seq.Next(context.Background(), 2025)
	require.NoError(t, err)
	assert.Equal(t, int64(7), next)
}
