package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/segyhp/khaata-engine/internal/domain"
	customError "github.com/segyhp/khaata-engine/pkg/errors"
)

const (
	DemoEmail    = "demo@example.com"
	DemoPassword = "demo-password"
)

var ErrAlreadySeeded = errors.New("demo ledger already seeded")

type SeedResult struct {
	OwnerID    uuid.UUID
	Customers  int
	Loans      int
	Repayments int
}

type demoLoan struct {
	customer    int
	description string
	amount      int64
	issue, due  time.Time
	frequency   domain.PaymentFrequency
	repaid      int64
	repaidOn    time.Time
}

// Seed creates the Demo Shop ledger through the services, so every row it
// writes has passed the same checks as API traffic.
func (a *App) Seed(ctx context.Context) (*SeedResult, error) {
	loc := a.Config.Location()
	day := func(m time.Month, d int) time.Time { return time.Date(2025, m, d, 0, 0, 0, 0, loc) }

	auth, err := a.Auth.Register(ctx, &domain.RegisterRequest{Name: "Demo Shop", Email: DemoEmail, Password: DemoPassword})
	if errors.Is(err, customError.ErrConflict) {
		return nil, ErrAlreadySeeded
	}
	if err != nil {
		return nil, fmt.Errorf("register demo owner: %w", err)
	}
	owner := auth.User.ID
	result := &SeedResult{OwnerID: owner}

	customers := []domain.CreateCustomerRequest{
		{Name: "Rahul Sharma", Phone: "9876543210", Address: "A-12, Krishna Nagar, Delhi", TrustScore: 8, CreditLimit: decimal.NewFromInt(15000)},
		{Name: "Priya Patel", Phone: "8765432109", Address: "15, Mohini Apartments, Andheri, Mumbai", TrustScore: 9, CreditLimit: decimal.NewFromInt(20000)},
		{Name: "Amit Kumar", Phone: "7654321098", Address: "C-5, Sector 15, Noida", TrustScore: 7, CreditLimit: decimal.NewFromInt(10000)},
	}
	customerIDs := make([]uuid.UUID, 0, len(customers))
	for i := range customers {
		c, err := a.Customers.Create(ctx, owner, &customers[i])
		if err != nil {
			return nil, fmt.Errorf("create customer %s: %w", customers[i].Name, err)
		}
		customerIDs = append(customerIDs, c.ID)
		result.Customers++
	}

	loans := []demoLoan{
		{customer: 0, description: "Groceries", amount: 5000, issue: day(time.May, 1), due: day(time.June, 1), frequency: domain.FrequencyMonthly},
		{customer: 1, description: "Kitchen appliances", amount: 8000, issue: day(time.April, 15), due: day(time.May, 15), frequency: domain.FrequencyMonthly, repaid: 5000, repaidOn: day(time.May, 1)},
		{customer: 2, description: "Hardware items", amount: 3500, issue: day(time.May, 1), due: day(time.May, 15), frequency: domain.FrequencyBiWeekly, repaid: 3500, repaidOn: day(time.May, 2)},
	}
	for _, l := range loans {
		loan, err := a.Loans.Create(ctx, owner, &domain.CreateLoanRequest{
			CustomerID:  customerIDs[l.customer],
			Description: l.description,
			Amount:      decimal.NewFromInt(l.amount),
			IssueDate:   l.issue,
			DueDate:     l.due,
			Frequency:   l.frequency,
		})
		if err != nil {
			return nil, fmt.Errorf("create loan %q: %w", l.description, err)
		}
		result.Loans++

		if l.repaid == 0 {
			continue
		}
		receipt, err := a.Repayments.Apply(ctx, owner, &domain.RecordRepaymentRequest{
			LoanID: loan.ID,
			Amount: decimal.NewFromInt(l.repaid),
			Date:   l.repaidOn,
		})
		if err != nil {
			return nil, fmt.Errorf("repay loan %q: %w", l.description, err)
		}
		result.Repayments++
		a.Logger.Debug("seeded repayment", zap.String("receipt", receipt.Repayment.ReceiptNumber))
	}

	return result, nil
}
