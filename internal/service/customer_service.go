package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/segyhp/khaata-engine/internal/domain"
	"github.com/segyhp/khaata-engine/internal/repository"
	customError "github.com/segyhp/khaata-engine/pkg/errors"
)

type CustomerService struct {
	base
	customers repository.CustomerRepository
	loans     repository.LoanRepository
}

func NewCustomerService(
	customers repository.CustomerRepository,
	loans repository.LoanRepository,
	opts Options,
) *CustomerService {
	return &CustomerService{
		base:      newBase(opts),
		customers: customers,
		loans:     loans,
	}
}

func (s *CustomerService) Create(ctx context.Context, ownerID uuid.UUID, request *domain.CreateCustomerRequest) (*domain.Customer, error) {
	name := strings.TrimSpace(request.Name)
	if name == "" {
		return nil, customError.NewValidationError("name is required")
	}
	if err := validateCustomerTerms(request.TrustScore, request.CreditLimit); err != nil {
		return nil, err
	}

	now := s.now()
	customer := &domain.Customer{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Name:        name,
		Phone:       strings.TrimSpace(request.Phone),
		Address:     strings.TrimSpace(request.Address),
		TrustScore:  request.TrustScore,
		CreditLimit: request.CreditLimit,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.customers.Create(ctx, customer); err != nil {
		return nil, storageError("customer", customer.ID, err)
	}

	s.invalidate(ctx, ownerID)
	s.logger.Info("customer created", zap.String("customer_id", customer.ID.String()))
	return customer, nil
}

func (s *CustomerService) Get(ctx context.Context, ownerID, customerID uuid.UUID) (*domain.Customer, error) {
	customer, err := s.customers.GetByID(ctx, ownerID, customerID)
	if err != nil {
		return nil, storageError("customer", customerID, err)
	}
	return customer, nil
}

func (s *CustomerService) List(ctx context.Context, ownerID uuid.UUID) ([]*domain.Customer, error) {
	customers, err := s.customers.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return customers, nil
}

func (s *CustomerService) Update(ctx context.Context, ownerID, customerID uuid.UUID, request *domain.UpdateCustomerRequest) (*domain.Customer, error) {
	customer, err := s.customers.GetByID(ctx, ownerID, customerID)
	if err != nil {
		return nil, storageError("customer", customerID, err)
	}

	if request.Name != nil {
		name := strings.TrimSpace(*request.Name)
		if name == "" {
			return nil, customError.NewValidationError("name is required")
		}
		customer.Name = name
	}
	if request.Phone != nil {
		customer.Phone = strings.TrimSpace(*request.Phone)
	}
	if request.Address != nil {
		customer.Address = strings.TrimSpace(*request.Address)
	}
	if request.TrustScore != nil {
		customer.TrustScore = *request.TrustScore
	}
	if request.CreditLimit != nil {
		customer.CreditLimit = *request.CreditLimit
	}
	if err := validateCustomerTerms(customer.TrustScore, customer.CreditLimit); err != nil {
		return nil, err
	}
	customer.UpdatedAt = s.now()

	if err := s.customers.Update(ctx, customer); err != nil {
		return nil, storageError("customer", customerID, err)
	}
	return customer, nil
}

// Delete removes a customer. Customers with loans on the ledger cannot be
// deleted; their loans and repayments would be left pointing at nothing.
func (s *CustomerService) Delete(ctx context.Context, ownerID, customerID uuid.UUID) error {
	if _, err := s.customers.GetByID(ctx, ownerID, customerID); err != nil {
		return storageError("customer", customerID, err)
	}

	loans, err := s.loans.ListByCustomer(ctx, ownerID, customerID)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	if len(loans) > 0 {
		return customError.NewConflictError("customer has loans and cannot be deleted")
	}

	if err := s.customers.Delete(ctx, ownerID, customerID); err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return customError.WrapConflict("customer has loans and cannot be deleted", err)
		}
		return storageError("customer", customerID, err)
	}

	s.invalidate(ctx, ownerID)
	s.logger.Info("customer deleted", zap.String("customer_id", customerID.String()))
	return nil
}

func validateCustomerTerms(trustScore int, creditLimit decimal.Decimal) error {
	if trustScore < domain.MinTrustScore || trustScore > domain.MaxTrustScore {
		return customError.NewValidationError("trust score must be between 0 and 10")
	}
	if creditLimit.IsNegative() {
		return customError.NewValidationError("credit limit must not be negative")
	}
	return nil
}
