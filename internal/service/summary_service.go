package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/khaata-engine/internal/domain"
	"github.com/segyhp/khaata-engine/internal/repository"
	customError "github.com/segyhp/khaata-engine/pkg/errors"
	"github.com/segyhp/khaata-engine/pkg/utils"
)

// SummaryService derives dashboard figures from the ledger. Every figure is
// computed from status recomputed at asOf, never from the stored status.
type SummaryService struct {
	base
	customers  repository.CustomerRepository
	loans      repository.LoanRepository
	repayments repository.RepaymentRepository
}

func NewSummaryService(
	customers repository.CustomerRepository,
	loans repository.LoanRepository,
	repayments repository.RepaymentRepository,
	opts Options,
) *SummaryService {
	return &SummaryService{
		base:       newBase(opts),
		customers:  customers,
		loans:      loans,
		repayments: repayments,
	}
}

func (s *SummaryService) Summary(ctx context.Context, ownerID uuid.UUID, asOf time.Time) (*domain.Summary, error) {
	asOf = s.dateOf(asOf)

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, ownerID, asOf)
		if err != nil {
			s.cacheFailed("summary cache read failed", ownerID, err)
		} else if ok {
			return cached, nil
		}
	}

	loans, err := s.loans.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	customers, err := s.customers.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	repayments, err := s.repayments.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	summary := &domain.Summary{
		AsOf:           asOf,
		TotalLoans:     len(loans),
		TotalCustomers: len(customers),
	}

	var issued, collected, overdue, pending []decimal.Decimal
	issueDates := make(map[uuid.UUID]time.Time, len(loans))
	for _, stored := range loans {
		loan := domain.RecomputeStatus(*stored, asOf)
		issueDates[loan.ID] = loan.IssueDate

		issued = append(issued, loan.Amount)
		collected = append(collected, loan.Collected())

		switch loan.Status {
		case domain.LoanStatusOverdue:
			overdue = append(overdue, loan.Remaining)
			summary.ActiveLoanCount++
		case domain.LoanStatusPending:
			pending = append(pending, loan.Remaining)
			summary.ActiveLoanCount++
		}
	}
	summary.TotalIssued = utils.SumDecimals(issued...)
	summary.TotalCollected = utils.SumDecimals(collected...)
	summary.OverdueAmount = utils.SumDecimals(overdue...)
	summary.PendingAmount = utils.SumDecimals(pending...)
	summary.AvgRepaymentDays = averageRepaymentDays(repayments, issueDates)

	if s.cache != nil {
		if err := s.cache.Set(ctx, ownerID, summary); err != nil {
			s.cacheFailed("summary cache write failed", ownerID, err)
		}
	}

	return summary, nil
}

// averageRepaymentDays is the mean number of whole days between a loan's
// issue date and each repayment made against it, rounded to the nearest day.
func averageRepaymentDays(repayments []*domain.Repayment, issueDates map[uuid.UUID]time.Time) int {
	total, count := 0, 0
	for _, r := range repayments {
		issued, ok := issueDates[r.LoanID]
		if !ok {
			continue
		}
		total += utils.DaysLate(issued, r.Date)
		count++
	}
	if count == 0 {
		return 0
	}
	return int(decimal.NewFromInt(int64(total)).Div(decimal.NewFromInt(int64(count))).Round(0).IntPart())
}

// OverdueLoans lists the owner's loans that are overdue as of asOf, in the
// order they were issued.
func (s *SummaryService) OverdueLoans(ctx context.Context, ownerID uuid.UUID, asOf time.Time) ([]domain.OverdueLoan, error) {
	asOf = s.dateOf(asOf)

	loans, err := s.loans.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	names, err := s.customerNames(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	overdue := []domain.OverdueLoan{}
	for _, stored := range loans {
		loan := domain.RecomputeStatus(*stored, asOf)
		if loan.Status != domain.LoanStatusOverdue {
			continue
		}
		overdue = append(overdue, domain.OverdueLoan{
			Loan:         loan,
			CustomerName: names[loan.CustomerID],
			DaysOverdue:  domain.DaysOverdue(loan, asOf),
		})
	}
	return overdue, nil
}

// UpcomingDue lists unpaid loans falling due within withinDays of asOf,
// soonest first.
func (s *SummaryService) UpcomingDue(ctx context.Context, ownerID uuid.UUID, asOf time.Time, withinDays int) ([]domain.UpcomingLoan, error) {
	if withinDays < 0 {
		return nil, customError.NewValidationError("within days must not be negative")
	}

	loans, err := s.loans.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	names, err := s.customerNames(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return upcoming(loans, names, s.dateOf(asOf), withinDays), nil
}

// DueReminders is UpcomingDue across every owner. Customer names are left
// empty.
func (s *SummaryService) DueReminders(ctx context.Context, asOf time.Time, withinDays int) ([]domain.UpcomingLoan, error) {
	loans, err := s.loans.ListUnpaid(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return upcoming(loans, nil, s.dateOf(asOf), withinDays), nil
}

func upcoming(loans []*domain.Loan, names map[uuid.UUID]string, asOf time.Time, withinDays int) []domain.UpcomingLoan {
	out := []domain.UpcomingLoan{}
	for _, stored := range loans {
		loan := domain.RecomputeStatus(*stored, asOf)
		if loan.Status == domain.LoanStatusPaid {
			continue
		}
		days := utils.DaysBetween(asOf, loan.DueDate)
		if days < 0 || days > withinDays {
			continue
		}
		out = append(out, domain.UpcomingLoan{
			Loan:         loan,
			CustomerName: names[loan.CustomerID],
			DaysUntilDue: days,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DaysUntilDue < out[j].DaysUntilDue
	})
	return out
}

func (s *SummaryService) customerNames(ctx context.Context, ownerID uuid.UUID) (map[uuid.UUID]string, error) {
	customers, err := s.customers.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	names := make(map[uuid.UUID]string, len(customers))
	for _, c := range customers {
		names[c.ID] = c.Name
	}
	return names, nil
}
