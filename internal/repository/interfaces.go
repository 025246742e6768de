package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/segyhp/khaata-engine/internal/domain"
)

// ErrNotFound is returned when no record matches the owner-scoped lookup.
var ErrNotFound = errors.New("record not found")

// ErrConcurrentUpdate is returned when a ledger write lost a race for the
// loan row.
var ErrConcurrentUpdate = errors.New("concurrent update")

// ErrDuplicate is returned when a unique constraint (user email, receipt
// number) is violated.
var ErrDuplicate = errors.New("duplicate record")

// ErrReferenced is returned when a delete is refused because other rows
// still point at the record, such as a customer that gained a loan after
// the caller checked.
var ErrReferenced = errors.New("record is still referenced")

// CustomerRepository defines the interface for customer data operations
type CustomerRepository interface {
	// Create creates a new customer
	Create(ctx context.Context, customer *domain.Customer) error

	// GetByID retrieves a customer owned by ownerID
	GetByID(ctx context.Context, ownerID, customerID uuid.UUID) (*domain.Customer, error)

	// ListByOwner retrieves all customers of an owner in creation order
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Customer, error)

	// Update updates a customer
	Update(ctx context.Context, customer *domain.Customer) error

	// Delete removes a customer owned by ownerID
	Delete(ctx context.Context, ownerID, customerID uuid.UUID) error
}

// LoanRepository defines the interface for loan data operations
type LoanRepository interface {
	// Create creates a new loan
	Create(ctx context.Context, loan *domain.Loan) error

	// GetByID retrieves a loan owned by ownerID
	GetByID(ctx context.Context, ownerID, loanID uuid.UUID) (*domain.Loan, error)

	// ListByOwner retrieves all loans of an owner in creation order
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Loan, error)

	// ListByCustomer retrieves the loans of one customer in creation order
	ListByCustomer(ctx context.Context, ownerID, customerID uuid.UUID) ([]*domain.Loan, error)

	// ListUnpaid retrieves every loan not yet paid, across all owners
	ListUnpaid(ctx context.Context) ([]*domain.Loan, error)

	// Update updates the editable loan terms
	Update(ctx context.Context, loan *domain.Loan) error

	// UpdateStatus updates the status of a loan. A missing or already paid
	// loan yields ErrNotFound and is left untouched.
	UpdateStatus(ctx context.Context, ownerID, loanID uuid.UUID, status domain.LoanStatus) error
}

// RepaymentFunc validates a repayment against the locked loan, adjusts the
// loan in place and returns the repayment to persist. Returning an error
// aborts the whole application. receipts draws within the same unit of work
// when the sequencer shares the ledger's storage.
type RepaymentFunc func(loan *domain.Loan, receipts ReceiptSequencer) (*domain.Repayment, error)

// RepaymentRepository defines the interface for repayment data operations
type RepaymentRepository interface {
	// Apply locks the loan, runs fn and persists the adjusted loan together
	// with the returned repayment as one atomic unit.
	Apply(ctx context.Context, ownerID, loanID uuid.UUID, receipts ReceiptSequencer, fn RepaymentFunc) (*domain.Repayment, *domain.Loan, error)

	// ListByOwner retrieves all repayments of an owner in creation order
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Repayment, error)

	// ListByLoan retrieves the repayments of one loan in creation order
	ListByLoan(ctx context.Context, ownerID, loanID uuid.UUID) ([]*domain.Repayment, error)
}

// UserRepository defines the interface for shop owner accounts
type UserRepository interface {
	// Create creates a new user, failing with ErrDuplicate on a taken email
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// ReceiptSequencer hands out strictly increasing receipt sequence numbers per
// calendar year, independent of how many repayments are stored.
type ReceiptSequencer interface {
	Next(ctx context.Context, year int) (int64, error)
}
