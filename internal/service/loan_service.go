package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/segyhp/khaata-engine/internal/domain"
	"github.com/segyhp/khaata-engine/internal/events"
	"github.com/segyhp/khaata-engine/internal/metrics"
	"github.com/segyhp/khaata-engine/internal/repository"
	customError "github.com/segyhp/khaata-engine/pkg/errors"
	"github.com/segyhp/khaata-engine/pkg/utils"
)

// LoanService manages the lifecycle of loans. Reads return status recomputed
// for today; the stored status is only rewritten by RefreshStatuses and by
// repayments.
type LoanService struct {
	base
	customers repository.CustomerRepository
	loans     repository.LoanRepository
}

func NewLoanService(
	customers repository.CustomerRepository,
	loans repository.LoanRepository,
	opts Options,
) *LoanService {
	return &LoanService{
		base:      newBase(opts),
		customers: customers,
		loans:     loans,
	}
}

// Create issues a new pending loan with its full amount outstanding.
func (s *LoanService) Create(ctx context.Context, ownerID uuid.UUID, request *domain.CreateLoanRequest) (*domain.Loan, error) {
	description := strings.TrimSpace(request.Description)
	if description == "" {
		return nil, customError.NewValidationError("description is required")
	}
	if !request.Amount.IsPositive() {
		return nil, customError.NewValidationError("amount must be positive")
	}
	if !utils.IsWholeAmount(request.Amount) {
		return nil, customError.NewValidationError("amount must be a whole number")
	}
	if request.DueDate.IsZero() {
		return nil, customError.NewValidationError("due date is required")
	}

	issueDate := s.dateOf(request.IssueDate)
	dueDate := s.dateOf(request.DueDate)
	if dueDate.Before(issueDate) {
		return nil, customError.NewValidationError("due date must not be before issue date")
	}
	if !request.Frequency.Valid() {
		return nil, customError.NewValidationError("frequency must be weekly, bi-weekly or monthly")
	}
	if request.Interest.Valid && request.Interest.Decimal.IsNegative() {
		return nil, customError.NewValidationError("interest must not be negative")
	}

	graceDays := 0
	if request.GraceDays != nil {
		if *request.GraceDays < 0 {
			return nil, customError.NewValidationError("grace days must not be negative")
		}
		graceDays = *request.GraceDays
	}

	if _, err := s.customers.GetByID(ctx, ownerID, request.CustomerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, customError.NewValidationError("customer does not exist")
		}
		return nil, customError.WrapDatabaseError(err)
	}

	now := s.now()
	loan := &domain.Loan{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		CustomerID:  request.CustomerID,
		Description: description,
		Amount:      request.Amount,
		Remaining:   request.Amount,
		IssueDate:   issueDate,
		DueDate:     dueDate,
		Frequency:   request.Frequency,
		Interest:    request.Interest,
		GraceDays:   graceDays,
		Status:      domain.LoanStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.loans.Create(ctx, loan); err != nil {
		s.logger.Error("create loan failed", zap.String("owner_id", ownerID.String()), zap.Error(err))
		return nil, storageError("loan", loan.ID, err)
	}

	metrics.LoansCreated.Inc()
	s.invalidate(ctx, ownerID)
	s.publish(ctx, events.New(events.TypeLoanCreated, ownerID, loan.ID, loan))

	s.logger.Info("loan created",
		zap.String("loan_id", loan.ID.String()),
		zap.String("customer_id", loan.CustomerID.String()),
		zap.String("amount", loan.Amount.String()),
	)

	return loan, nil
}

// Get returns the loan with its status recomputed for today.
func (s *LoanService) Get(ctx context.Context, ownerID, loanID uuid.UUID) (*domain.Loan, error) {
	loan, err := s.loans.GetByID(ctx, ownerID, loanID)
	if err != nil {
		return nil, storageError("loan", loanID, err)
	}
	fresh := domain.RecomputeStatus(*loan, s.today())
	return &fresh, nil
}

func (s *LoanService) List(ctx context.Context, ownerID uuid.UUID) ([]*domain.Loan, error) {
	loans, err := s.loans.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return s.recomputeAll(loans), nil
}

func (s *LoanService) ListByCustomer(ctx context.Context, ownerID, customerID uuid.UUID) ([]*domain.Loan, error) {
	if _, err := s.customers.GetByID(ctx, ownerID, customerID); err != nil {
		return nil, storageError("customer", customerID, err)
	}
	loans, err := s.loans.ListByCustomer(ctx, ownerID, customerID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return s.recomputeAll(loans), nil
}

func (s *LoanService) recomputeAll(loans []*domain.Loan) []*domain.Loan {
	asOf := s.today()
	out := make([]*domain.Loan, 0, len(loans))
	for _, loan := range loans {
		fresh := domain.RecomputeStatus(*loan, asOf)
		out = append(out, &fresh)
	}
	return out
}

// Update edits the loan's terms. It does not recompute status; the returned
// loan carries the stored status.
func (s *LoanService) Update(ctx context.Context, ownerID, loanID uuid.UUID, request *domain.UpdateLoanRequest) (*domain.Loan, error) {
	loan, err := s.loans.GetByID(ctx, ownerID, loanID)
	if err != nil {
		return nil, storageError("loan", loanID, err)
	}

	if request.Description != nil {
		description := strings.TrimSpace(*request.Description)
		if description == "" {
			return nil, customError.NewValidationError("description is required")
		}
		loan.Description = description
	}
	if request.DueDate != nil {
		dueDate := s.dateOf(*request.DueDate)
		if utils.DaysBetween(loan.IssueDate, dueDate) < 0 {
			return nil, customError.NewValidationError("due date must not be before issue date")
		}
		loan.DueDate = dueDate
	}
	if request.Frequency != nil {
		if !request.Frequency.Valid() {
			return nil, customError.NewValidationError("frequency must be weekly, bi-weekly or monthly")
		}
		loan.Frequency = *request.Frequency
	}
	if request.Interest.Valid {
		if request.Interest.Decimal.IsNegative() {
			return nil, customError.NewValidationError("interest must not be negative")
		}
		loan.Interest = request.Interest
	}
	if request.GraceDays != nil {
		if *request.GraceDays < 0 {
			return nil, customError.NewValidationError("grace days must not be negative")
		}
		loan.GraceDays = *request.GraceDays
	}
	loan.UpdatedAt = s.now()

	if err := s.loans.Update(ctx, loan); err != nil {
		return nil, storageError("loan", loanID, err)
	}

	s.invalidate(ctx, ownerID)
	return loan, nil
}

// RefreshStatuses recomputes every unpaid loan across all owners as of asOf
// and persists the ones whose status changed.
func (s *LoanService) RefreshStatuses(ctx context.Context, asOf time.Time) ([]domain.StatusTransition, error) {
	asOf = s.dateOf(asOf)

	loans, err := s.loans.ListUnpaid(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	transitions := []domain.StatusTransition{}
	touched := map[uuid.UUID]struct{}{}
	for _, loan := range loans {
		fresh := domain.RecomputeStatus(*loan, asOf)
		if fresh.Status == loan.Status {
			continue
		}

		err := s.loans.UpdateStatus(ctx, loan.OwnerID, loan.ID, fresh.Status)
		if errors.Is(err, repository.ErrNotFound) {
			// paid in the meantime
			continue
		}
		if err != nil {
			return transitions, customError.WrapDatabaseError(err)
		}

		transition := domain.StatusTransition{
			LoanID:  loan.ID,
			OwnerID: loan.OwnerID,
			From:    loan.Status,
			To:      fresh.Status,
		}
		transitions = append(transitions, transition)
		touched[loan.OwnerID] = struct{}{}

		metrics.StatusTransitions.WithLabelValues(string(transition.From), string(transition.To)).Inc()
		s.publish(ctx, events.New(events.TypeLoanStatusChanged, loan.OwnerID, loan.ID, transition))
	}

	for ownerID := range touched {
		s.invalidate(ctx, ownerID)
	}

	s.logger.Info("loan statuses refreshed",
		zap.String("as_of", utils.FormatDate(asOf)),
		zap.Int("checked", len(loans)),
		zap.Int("changed", len(transitions)),
	)

	return transitions, nil
}
