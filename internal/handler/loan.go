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
	"github.com/segyhp/khaata-engine/pkg/utils"
)

type createLoanPayload struct {
	CustomerID  uuid.UUID               `json:"customer_id" validate:"required"`
	Description string                  `json:"description" validate:"required,max=500"`
	Amount      decimal.Decimal         `json:"amount"`
	IssueDate   string                  `json:"issue_date" validate:"omitempty,datetime=2006-01-02"`
	DueDate     string                  `json:"due_date" validate:"required,datetime=2006-01-02"`
	Frequency   domain.PaymentFrequency `json:"frequency" validate:"required,oneof=weekly bi-weekly monthly"`
	Interest    decimal.NullDecimal     `json:"interest"`
	GraceDays   *int                    `json:"grace_days" validate:"omitempty,gte=0"`
}

type updateLoanPayload struct {
	Description *string                  `json:"description" validate:"omitempty,min=1,max=500"`
	DueDate     *string                  `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Frequency   *domain.PaymentFrequency `json:"frequency" validate:"omitempty,oneof=weekly bi-weekly monthly"`
	Interest    decimal.NullDecimal      `json:"interest"`
	GraceDays   *int                     `json:"grace_days" validate:"omitempty,gte=0"`
}

type LoanHandler struct {
	loans      *service.LoanService
	repayments *service.RepaymentService
	validator  *validator.Validate
	loc        *time.Location
}

func NewLoanHandler(loans *service.LoanService, repayments *service.RepaymentService, loc *time.Location) *LoanHandler {
	return &LoanHandler{
		loans:      loans,
		repayments: repayments,
		validator:  newValidator(),
		loc:        loc,
	}
}

func (h *LoanHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	loans, err := h.loans.List(r.Context(), ownerID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, loans)
}

func (h *LoanHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var payload createLoanPayload
	if !decode(w, r, h.validator, &payload) {
		return
	}

	// both dates already passed the datetime check
	issueDate, _ := optionalDate(payload.IssueDate, h.loc)
	dueDate, _ := utils.ParseDate(payload.DueDate, h.loc)

	loan, err := h.loans.Create(r.Context(), ownerID, &domain.CreateLoanRequest{
		CustomerID:  payload.CustomerID,
		Description: payload.Description,
		Amount:      payload.Amount,
		IssueDate:   issueDate,
		DueDate:     dueDate,
		Frequency:   payload.Frequency,
		Interest:    payload.Interest,
		GraceDays:   payload.GraceDays,
	})
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, loan)
}

func (h *LoanHandler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}
	loanID, ok := pathUUID(w, r, "loanId")
	if !ok {
		return
	}

	loan, err := h.loans.Get(r.Context(), ownerID, loanID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, loan)
}

func (h *LoanHandler) Update(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}
	loanID, ok := pathUUID(w, r, "loanId")
	if !ok {
		return
	}

	var payload updateLoanPayload
	if !decode(w, r, h.validator, &payload) {
		return
	}

	request := &domain.UpdateLoanRequest{
		Description: payload.Description,
		Frequency:   payload.Frequency,
		Interest:    payload.Interest,
		GraceDays:   payload.GraceDays,
	}
	if payload.DueDate != nil {
		dueDate, _ := utils.ParseDate(*payload.DueDate, h.loc)
		request.DueDate = &dueDate
	}

	loan, err := h.loans.Update(r.Context(), ownerID, loanID, request)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, loan)
}

func (h *LoanHandler) ListRepayments(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}
	loanID, ok := pathUUID(w, r, "loanId")
	if !ok {
		return
	}

	repayments, err := h.repayments.ListByLoan(r.Context(), ownerID, loanID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, repayments)
}
