package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/segyhp/khaata-engine/pkg/response"
)

type Handlers struct {
	Auth       *AuthHandler
	Customers  *CustomerHandler
	Loans      *LoanHandler
	Repayments *RepaymentHandler
	Dashboard  *DashboardHandler
	Health     *HealthHandler
	Metrics    http.Handler
}

// NewRouter wires every route. Everything under /api/v1 except /auth is
// scoped to the owner of the bearer token.
func NewRouter(h Handlers, tokens TokenParser, logger *zap.Logger) http.Handler {
	router := mux.NewRouter()
	router.Use(RequestIDMiddleware, LoggingMiddleware(logger), MetricsMiddleware)

	// Health check
	router.HandleFunc("/health", h.Health.Health).Methods(http.MethodGet)
	router.HandleFunc("/health/ready", h.Health.Ready).Methods(http.MethodGet)
	if h.Metrics != nil {
		router.Handle("/metrics", h.Metrics).Methods(http.MethodGet)
	}

	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/auth/register", h.Auth.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", h.Auth.Login).Methods(http.MethodPost)

	owner := api.NewRoute().Subrouter()
	owner.Use(AuthMiddleware(tokens))

	owner.HandleFunc("/auth/me", h.Auth.Me).Methods(http.MethodGet)

	owner.HandleFunc("/customers", h.Customers.List).Methods(http.MethodGet)
	owner.HandleFunc("/customers", h.Customers.Create).Methods(http.MethodPost)
	owner.HandleFunc("/customers/{customerId}", h.Customers.Get).Methods(http.MethodGet)
	owner.HandleFunc("/customers/{customerId}", h.Customers.Update).Methods(http.MethodPut)
	owner.HandleFunc("/customers/{customerId}", h.Customers.Delete).Methods(http.MethodDelete)
	owner.HandleFunc("/customers/{customerId}/loans", h.Customers.ListLoans).Methods(http.MethodGet)

	owner.HandleFunc("/loans", h.Loans.List).Methods(http.MethodGet)
	owner.HandleFunc("/loans", h.Loans.Create).Methods(http.MethodPost)
	owner.HandleFunc("/loans/{loanId}", h.Loans.Get).Methods(http.MethodGet)
	owner.HandleFunc("/loans/{loanId}", h.Loans.Update).Methods(http.MethodPatch)
	owner.HandleFunc("/loans/{loanId}/repayments", h.Loans.ListRepayments).Methods(http.MethodGet)

	owner.HandleFunc("/repayments", h.Repayments.List).Methods(http.MethodGet)
	owner.HandleFunc("/repayments", h.Repayments.Create).Methods(http.MethodPost)

	owner.HandleFunc("/dashboard/summary", h.Dashboard.Summary).Methods(http.MethodGet)
	owner.HandleFunc("/dashboard/overdue", h.Dashboard.Overdue).Methods(http.MethodGet)
	owner.HandleFunc("/dashboard/upcoming", h.Dashboard.Upcoming).Methods(http.MethodGet)

	return response.CORSMiddleware(router)
}
