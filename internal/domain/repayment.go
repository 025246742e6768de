package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repayment is an immutable receipt for money applied against a loan.
type Repayment struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	OwnerID       uuid.UUID       `json:"owner_id" db:"owner_id"`
	LoanID        uuid.UUID       `json:"loan_id" db:"loan_id"`
	CustomerID    uuid.UUID       `json:"customer_id" db:"customer_id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Date          time.Time       `json:"date" db:"paid_on"`
	ReceiptNumber string          `json:"receipt_number" db:"receipt_number"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// RecordRepaymentRequest applies Amount to LoanID. CustomerID is optional and,
// when set, must match the loan. A zero Date means today.
type RecordRepaymentRequest struct {
	LoanID     uuid.UUID       `json:"loan_id"`
	CustomerID uuid.UUID       `json:"customer_id"`
	Amount     decimal.Decimal `json:"amount"`
	Date       time.Time       `json:"date"`
}

type RecordRepaymentResponse struct {
	Repayment *Repayment `json:"repayment"`
	Loan      *Loan      `json:"loan"`
}
