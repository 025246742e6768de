package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/khaata-engine/pkg/utils"
)

type LoanStatus string

const (
	LoanStatusPending LoanStatus = "pending"
	LoanStatusPaid    LoanStatus = "paid"
	LoanStatusOverdue LoanStatus = "overdue"
)

type PaymentFrequency string

const (
	FrequencyWeekly   PaymentFrequency = "weekly"
	FrequencyBiWeekly PaymentFrequency = "bi-weekly"
	FrequencyMonthly  PaymentFrequency = "monthly"
)

// Valid reports whether f is one of the supported frequencies.
func (f PaymentFrequency) Valid() bool {
	switch f {
	case FrequencyWeekly, FrequencyBiWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// Loan represents credit extended to a customer
type Loan struct {
	ID          uuid.UUID           `json:"id" db:"id"`
	OwnerID     uuid.UUID           `json:"owner_id" db:"owner_id"`
	CustomerID  uuid.UUID           `json:"customer_id" db:"customer_id"`
	Description string              `json:"description" db:"description"`
	Amount      decimal.Decimal     `json:"amount" db:"amount"`
	Remaining   decimal.Decimal     `json:"remaining_amount" db:"remaining_amount"`
	IssueDate   time.Time           `json:"issue_date" db:"issue_date"`
	DueDate     time.Time           `json:"due_date" db:"due_date"`
	Frequency   PaymentFrequency    `json:"frequency" db:"frequency"`
	Interest    decimal.NullDecimal `json:"interest" db:"interest"`
	GraceDays   int                 `json:"grace_days" db:"grace_days"`
	Status      LoanStatus          `json:"status" db:"status"`
	CreatedAt   time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at" db:"updated_at"`
}

// Collected is the part of the principal already repaid.
func (l *Loan) Collected() decimal.Decimal {
	return l.Amount.Sub(l.Remaining)
}

// RecomputeStatus derives the loan status as of asOf. It never mutates its
// argument and is idempotent for a fixed asOf.
//
// Paid is terminal: a paid loan stays paid whatever its balance or dates.
func RecomputeStatus(loan Loan, asOf time.Time) Loan {
	switch {
	case loan.Status == LoanStatusPaid:
	case loan.Remaining.IsZero():
		loan.Status = LoanStatusPaid
	case utils.DaysLate(loan.DueDate, asOf) > loan.GraceDays:
		loan.Status = LoanStatusOverdue
	default:
		loan.Status = LoanStatusPending
	}
	return loan
}

// DaysOverdue is the number of whole days asOf lies past the due date, or 0.
func DaysOverdue(loan Loan, asOf time.Time) int {
	return utils.DaysLate(loan.DueDate, asOf)
}

// DTOs for requests and responses

// CreateLoanRequest describes a new loan. A zero IssueDate means today.
type CreateLoanRequest struct {
	CustomerID  uuid.UUID           `json:"customer_id"`
	Description string              `json:"description"`
	Amount      decimal.Decimal     `json:"amount"`
	IssueDate   time.Time           `json:"issue_date"`
	DueDate     time.Time           `json:"due_date"`
	Frequency   PaymentFrequency    `json:"frequency"`
	Interest    decimal.NullDecimal `json:"interest"`
	GraceDays   *int                `json:"grace_days"`
}

// UpdateLoanRequest carries a partial update; nil fields are left unchanged.
// Amount, remaining balance and status belong to the ledger and cannot be
// edited here.
type UpdateLoanRequest struct {
	Description *string             `json:"description"`
	DueDate     *time.Time          `json:"due_date"`
	Frequency   *PaymentFrequency   `json:"frequency"`
	Interest    decimal.NullDecimal `json:"interest"`
	GraceDays   *int                `json:"grace_days"`
}

// StatusTransition records a persisted status change.
type StatusTransition struct {
	LoanID  uuid.UUID  `json:"loan_id"`
	OwnerID uuid.UUID  `json:"owner_id"`
	From    LoanStatus `json:"from"`
	To      LoanStatus `json:"to"`
}
