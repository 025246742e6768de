package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/segyhp/khaata-engine/internal/domain"
	"github.com/segyhp/khaata-engine/internal/service"
	"github.com/segyhp/khaata-engine/pkg/response"
)

type CustomerHandler struct {
	customers *service.CustomerService
	loans     *service.LoanService
	validator *validator.Validate
}

func NewCustomerHandler(customers *service.CustomerService, loans *service.LoanService) *CustomerHandler {
	return &CustomerHandler{
		customers: customers,
		loans:     loans,
		validator: newValidator(),
	}
}

func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	customers, err := h.customers.List(r.Context(), ownerID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, customers)
}

func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var request domain.CreateCustomerRequest
	if !decode(w, r, h.validator, &request) {
		return
	}

	customer, err := h.customers.Create(r.Context(), ownerID, &request)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, customer)
}

func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}
	customerID, ok := pathUUID(w, r, "customerId")
	if !ok {
		return
	}

	customer, err := h.customers.Get(r.Context(), ownerID, customerID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, customer)
}

func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}
	customerID, ok := pathUUID(w, r, "customerId")
	if !ok {
		return
	}

	var request domain.UpdateCustomerRequest
	if !decode(w, r, h.validator, &request) {
		return
	}

	customer, err := h.customers.Update(r.Context(), ownerID, customerID, &request)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, customer)
}

func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}
	customerID, ok := pathUUID(w, r, "customerId")
	if !ok {
		return
	}

	if err := h.customers.Delete(r.Context(), ownerID, customerID); err != nil {
		response.FromError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CustomerHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}
	customerID, ok := pathUUID(w, r, "customerId")
	if !ok {
		return
	}

	loans, err := h.loans.ListByCustomer(r.Context(), ownerID, customerID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, loans)
}
