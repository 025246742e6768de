package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Summary is the portfolio view of one owner's ledger at a point in time.
type Summary struct {
	AsOf             time.Time       `json:"as_of"`
	TotalIssued      decimal.Decimal `json:"total_issued"`
	TotalCollected   decimal.Decimal `json:"total_collected"`
	OverdueAmount    decimal.Decimal `json:"overdue_amount"`
	PendingAmount    decimal.Decimal `json:"pending_amount"`
	ActiveLoanCount  int             `json:"active_loan_count"`
	TotalLoans       int             `json:"total_loans"`
	TotalCustomers   int             `json:"total_customers"`
	AvgRepaymentDays int             `json:"avg_repayment_days"`
}

type OverdueLoan struct {
	Loan         Loan   `json:"loan"`
	CustomerName string `json:"customer_name"`
	DaysOverdue  int    `json:"days_overdue"`
}

type UpcomingLoan struct {
	Loan         Loan   `json:"loan"`
	CustomerName string `json:"customer_name"`
	DaysUntilDue int    `json:"days_until_due"`
}
