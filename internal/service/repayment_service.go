package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/segyhp/khaata-engine/internal/domain"
	"github.com/segyhp/khaata-engine/internal/events"
	"github.com/segyhp/khaata-engine/internal/metrics"
	"github.com/segyhp/khaata-engine/internal/repository"
	customError "github.com/segyhp/khaata-engine/pkg/errors"
	"github.com/segyhp/khaata-engine/pkg/utils"
)

type RepaymentService struct {
	base
	loans      repository.LoanRepository
	repayments repository.RepaymentRepository
	receipts   repository.ReceiptSequencer
}

func NewRepaymentService(
	loans repository.LoanRepository,
	repayments repository.RepaymentRepository,
	receipts repository.ReceiptSequencer,
	opts Options,
) *RepaymentService {
	return &RepaymentService{
		base:       newBase(opts),
		loans:      loans,
		repayments: repayments,
		receipts:   receipts,
	}
}

// Apply records a repayment against a loan. The checks run under the loan
// lock, in order: the loan must exist, the amount must be positive and must
// not exceed the remaining balance. Either the whole amount is applied and a
// receipt issued, or nothing changes.
func (s *RepaymentService) Apply(ctx context.Context, ownerID uuid.UUID, request *domain.RecordRepaymentRequest) (*domain.RecordRepaymentResponse, error) {
	now := s.now()
	paidOn := s.dateOf(request.Date)

	repayment, loan, err := s.repayments.Apply(ctx, ownerID, request.LoanID, s.receipts, func(loan *domain.Loan, receipts repository.ReceiptSequencer) (*domain.Repayment, error) {
		if !request.Amount.IsPositive() {
			return nil, customError.NewValidationError("amount must be positive")
		}
		if request.Amount.GreaterThan(loan.Remaining) {
			return nil, customError.NewValidationError("amount exceeds remaining balance")
		}
		if !utils.IsWholeAmount(request.Amount) {
			return nil, customError.NewValidationError("amount must be a whole number")
		}
		if request.CustomerID != uuid.Nil && request.CustomerID != loan.CustomerID {
			return nil, customError.NewValidationError("customer does not match loan")
		}

		year := now.In(s.loc).Year()
		seq, err := receipts.Next(ctx, year)
		if err != nil {
			return nil, customError.WrapDatabaseError(fmt.Errorf("next receipt number: %w", err))
		}

		loan.Remaining = loan.Remaining.Sub(request.Amount)
		if loan.Remaining.IsZero() {
			loan.Status = domain.LoanStatusPaid
		}
		loan.UpdatedAt = now

		return &domain.Repayment{
			ID:            uuid.New(),
			OwnerID:       ownerID,
			LoanID:        loan.ID,
			CustomerID:    loan.CustomerID,
			Amount:        request.Amount,
			Date:          paidOn,
			ReceiptNumber: utils.FormatReceiptNumber(year, seq),
			CreatedAt:     now,
		}, nil
	})
	if err != nil {
		err = storageError("loan", request.LoanID, err)
		metrics.Repayments.WithLabelValues(repaymentResult(err)).Inc()
		s.logger.Warn("repayment rejected",
			zap.String("loan_id", request.LoanID.String()),
			zap.String("amount", request.Amount.String()),
			zap.Error(err),
		)
		return nil, err
	}

	metrics.Repayments.WithLabelValues("applied").Inc()
	metrics.RepaidAmount.Add(repayment.Amount.InexactFloat64())
	s.invalidate(ctx, ownerID)
	s.publish(ctx, events.New(events.TypeRepaymentRecorded, ownerID, loan.ID, repayment))
	if loan.Status == domain.LoanStatusPaid {
		s.publish(ctx, events.New(events.TypeLoanStatusChanged, ownerID, loan.ID, loan))
	}

	s.logger.Info("repayment applied",
		zap.String("loan_id", loan.ID.String()),
		zap.String("receipt_number", repayment.ReceiptNumber),
		zap.String("remaining", loan.Remaining.String()),
		zap.String("status", string(loan.Status)),
	)

	return &domain.RecordRepaymentResponse{Repayment: repayment, Loan: loan}, nil
}

func (s *RepaymentService) List(ctx context.Context, ownerID uuid.UUID) ([]*domain.Repayment, error) {
	repayments, err := s.repayments.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return repayments, nil
}

func (s *RepaymentService) ListByLoan(ctx context.Context, ownerID, loanID uuid.UUID) ([]*domain.Repayment, error) {
	if _, err := s.loans.GetByID(ctx, ownerID, loanID); err != nil {
		return nil, storageError("loan", loanID, err)
	}
	repayments, err := s.repayments.ListByLoan(ctx, ownerID, loanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return repayments, nil
}

func repaymentResult(err error) string {
	switch customError.CodeOf(err) {
	case customError.ErrCodeValidation:
		return "rejected"
	case customError.ErrCodeNotFound:
		return "not_found"
	case customError.ErrCodeConflict:
		return "conflict"
	default:
		return "error"
	}
}
