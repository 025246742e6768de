package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/segyhp/khaata-engine/internal/domain"
	"github.com/segyhp/khaata-engine/internal/repository"
)

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) GetByID(ctx context.Context, ownerID, customerID uuid.UUID) (*domain.Customer, error) {
	args := m.Called(ctx, ownerID, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

func (m *MockCustomerRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Customer, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Update(ctx context.Context, customer *domain.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) Delete(ctx context.Context, ownerID, customerID uuid.UUID) error {
	args := m.Called(ctx, ownerID, customerID)
	return args.Error(0)
}

type MockLoanRepository struct {
	mock.Mock
}

func (m *MockLoanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}

func (m *MockLoanRepository) GetByID(ctx context.Context, ownerID, loanID uuid.UUID) (*domain.Loan, error) {
	args := m.Called(ctx, ownerID, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Loan, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) ListByCustomer(ctx context.Context, ownerID, customerID uuid.UUID) ([]*domain.Loan, error) {
	args := m.Called(ctx, ownerID, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) ListUnpaid(ctx context.Context) ([]*domain.Loan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) Update(ctx context.Context, loan *domain.Loan) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}

func (m *MockLoanRepository) UpdateStatus(ctx context.Context, ownerID, loanID uuid.UUID, status domain.LoanStatus) error {
	args := m.Called(ctx, ownerID, loanID, status)
	return args.Error(0)
}

// MockRepaymentRepository runs the RepaymentFunc against the loan handed to
// OnApply, so service-side validation is exercised as it would be under a
// real lock.
type MockRepaymentRepository struct {
	mock.Mock
}

func (m *MockRepaymentRepository) Apply(ctx context.Context, ownerID, loanID uuid.UUID, receipts repository.ReceiptSequencer, fn repository.RepaymentFunc) (*domain.Repayment, *domain.Loan, error) {
	args := m.Called(ctx, ownerID, loanID)
	if err := args.Error(1); err != nil {
		return nil, nil, err
	}
	loan := *args.Get(0).(*domain.Loan)
	repayment, err := fn(&loan, receipts)
	if err != nil {
		return nil, nil, err
	}
	return repayment, &loan, nil
}

func (m *MockRepaymentRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Repayment, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Repayment), args.Error(1)
}

func (m *MockRepaymentRepository) ListByLoan(ctx context.Context, ownerID, loanID uuid.UUID) ([]*domain.Repayment, error) {
	args := m.Called(ctx, ownerID, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Repayment), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type MockReceiptSequencer struct {
	mock.Mock
}

func (m *MockReceiptSequencer) Next(ctx context.Context, year int) (int64, error) {
	args := m.Called(ctx, year)
	return args.Get(0).(int64), args.Error(1)
}
