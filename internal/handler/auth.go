package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/segyhp/khaata-engine/internal/domain"
	"github.com/segyhp/khaata-engine/internal/service"
	"github.com/segyhp/khaata-engine/pkg/response"
)

type AuthHandler struct {
	service   *service.AuthService
	validator *validator.Validate
}

func NewAuthHandler(service *service.AuthService) *AuthHandler {
	return &AuthHandler{
		service:   service,
		validator: newValidator(),
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var request domain.RegisterRequest
	if !decode(w, r, h.validator, &request) {
		return
	}

	result, err := h.service.Register(r.Context(), &request)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, result)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var request domain.LoginRequest
	if !decode(w, r, h.validator, &request) {
		return
	}

	result, err := h.service.Login(r.Context(), &request)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, result)
}

// Me returns the authenticated shop owner.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	user, err := h.service.CurrentUser(r.Context(), ownerID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, user)
}
