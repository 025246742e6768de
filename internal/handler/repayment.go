package handler

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/khaata-engine/internal/domain"
	"github.com/segyhp/khaata-engine/internal/service"
	"github.com/segyhp/khaata-engine/pkg/response"
)

type recordRepaymentPayload struct {
	LoanID     uuid.UUID       `json:"loan_id" validate:"required"`
	CustomerID uuid.UUID       `json:"customer_id"`
	Amount     decimal.Decimal `json:"amount"`
	Date       string          `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

type RepaymentHandler struct {
	repayments *service.RepaymentService
	validator  *validator.Validate
	loc        *time.Location
}

func NewRepaymentHandler(repayments *service.RepaymentService, loc *time.Location) *RepaymentHandler {
	return &RepaymentHandler{
		repayments: repayments,
		validator:  newValidator(),
		loc:        loc,
	}
}

func (h *RepaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	repayments, err := h.repayments.List(r.Context(), ownerID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, repayments)
}

// Create records a repayment; the response carries the receipt and the loan
// as it stands afterwards.
func (h *RepaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var payload recordRepaymentPayload
	if !decode(w, r, h.validator, &payload) {
		return
	}
	paidOn, _ := optionalDate(payload.Date, h.loc)

	result, err := h.repayments.Apply(r.Context(), ownerID, &domain.RecordRepaymentRequest{
		LoanID:     payload.LoanID,
		CustomerID: payload.CustomerID,
		Amount:     payload.Amount,
		Date:       paidOn,
	})
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, result)
}
