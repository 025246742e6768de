package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	MinTrustScore = 0
	MaxTrustScore = 10
)

// Customer is a borrower belonging to a single shop owner.
type Customer struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	OwnerID     uuid.UUID       `json:"owner_id" db:"owner_id"`
	Name        string          `json:"name" db:"name"`
	Phone       string          `json:"phone" db:"phone"`
	Address     string          `json:"address" db:"address"`
	TrustScore  int             `json:"trust_score" db:"trust_score"`
	CreditLimit decimal.Decimal `json:"credit_limit" db:"credit_limit"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

type CreateCustomerRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Phone       string          `json:"phone" validate:"required,max=32"`
	Address     string          `json:"address" validate:"max=500"`
	TrustScore  int             `json:"trust_score" validate:"gte=0,lte=10"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
}

// UpdateCustomerRequest carries a partial update; nil fields are left unchanged.
type UpdateCustomerRequest struct {
	Name        *string          `json:"name" validate:"omitempty,max=200"`
	Phone       *string          `json:"phone" validate:"omitempty,max=32"`
	Address     *string          `json:"address" validate:"omitempty,max=500"`
	TrustScore  *int             `json:"trust_score" validate:"omitempty,gte=0,lte=10"`
	CreditLimit *decimal.Decimal `json:"credit_limit"`
}
