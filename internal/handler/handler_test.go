package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/segyhp/khaata-engine/internal/domain"
	"github.com/segyhp/khaata-engine/internal/repository/memory"
	"github.com/segyhp/khaata-engine/internal/service"
	customError "github.com/segyhp/khaata-engine/pkg/errors"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

type testServer struct {
	t      *testing.T
	router http.Handler
	token  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := memory.NewStore()
	customers := memory.NewCustomerRepository(store)
	loans := memory.NewLoanRepository(store)
	repayments := memory.NewRepaymentRepository(store)

	now := time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)
	opts := service.Options{
		Now:      func() time.Time { return now },
		Location: time.UTC,
	}

	customerService := service.NewCustomerService(customers, loans, opts)
	loanService := service.NewLoanService(customers, loans, opts)
	repaymentService := service.NewRepaymentService(loans, repayments, memory.NewReceiptSequencer(store), opts)
	summaryService := service.NewSummaryService(customers, loans, repayments, opts)
	authService := service.NewAuthService(memory.NewUserRepository(store), "test-secret", time.Hour, opts)

	router := NewRouter(Handlers{
		Auth:       NewAuthHandler(authService),
		Customers:  NewCustomerHandler(customerService, loanService),
		Loans:      NewLoanHandler(loanService, repaymentService, time.UTC),
		Repayments: NewRepaymentHandler(repaymentService, time.UTC),
		Dashboard:  NewDashboardHandler(summaryService, time.UTC, 3),
		Health:     NewHealthHandler(nil, nil, time.Second),
	}, authService, zap.NewNop())

	return &testServer{t: t, router: router}
}

func (s *testServer) do(method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func (s *testServer) login() {
	s.t.Helper()
	rec, env := s.do(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"name":     "Demo Shop",
		"email":    "demo@example.com",
		"password": "password123",
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())

	var auth domain.AuthResponse
	require.NoError(s.t, json.Unmarshal(env.Data, &auth))
	s.token = auth.Token
}

func (s *testServer) createCustomer(name string) domain.Customer {
	s.t.Helper()
	rec, env := s.do(http.MethodPost, "/api/v1/customers", map[string]interface{}{
		"name":         name,
		"phone":        "9876543210",
		"trust_score":  8,
		"credit_limit": 10000,
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())

	var customer domain.Customer
	require.NoError(s.t, json.Unmarshal(env.Data, &customer))
	return customer
}

func (s *testServer) createLoan(customerID uuid.UUID, amount int) domain.Loan {
	s.t.Helper()
	rec, env := s.do(http.MethodPost, "/api/v1/loans", map[string]interface{}{
		"customer_id": customerID,
		"description": "Grocery items",
		"amount":      amount,
		"issue_date":  "2025-04-15",
		"due_date":    "2025-05-15",
		"frequency":   "monthly",
		"grace_days":  0,
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())

	var loan domain.Loan
	require.NoError(s.t, json.Unmarshal(env.Data, &loan))
	return loan
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	rec, _ = s.do(http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestAuth(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(http.MethodGet, "/api/v1/loans", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, customError.ErrCodeUnauthorized, env.Error)

	s.token = "not-a-jwt"
	rec, _ = s.do(http.MethodGet, "/api/v1/loans", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	s.token = ""
	s.login()

	rec, env = s.do(http.MethodGet, "/api/v1/auth/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var user domain.User
	require.NoError(t, json.Unmarshal(env.Data, &user))
	assert.Equal(t, "demo@example.com", user.Email)

	token := s.token
	s.token = ""
	rec, env = s.do(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "demo@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"name":     "Other",
		"email":    "demo@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	s.token = token
}

func TestRepaymentFlow(t *testing.T) {
	s := newTestServer(t)
	s.login()

	customer := s.createCustomer("Rahul Sharma")
	loan := s.createLoan(customer.ID, 5000)
	assert.Equal(t, domain.LoanStatusPending, loan.Status)

	rec, env := s.do(http.MethodPost, "/api/v1/repayments", map[string]interface{}{
		"loan_id": loan.ID,
		"amount":  2000,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var result domain.RecordRepaymentResponse
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, "RCP-2025-001", result.Repayment.ReceiptNumber)
	assert.Equal(t, "3000", result.Loan.Remaining.String())

	rec, env = s.do(http.MethodPost, "/api/v1/repayments", map[string]interface{}{
		"loan_id": loan.ID,
		"amount":  4000,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, customError.ErrCodeValidation, env.Error)

	rec, env = s.do(http.MethodGet, "/api/v1/loans/"+loan.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched domain.Loan
	require.NoError(t, json.Unmarshal(env.Data, &fetched))
	assert.Equal(t, domain.LoanStatusOverdue, fetched.Status)
	assert.Equal(t, "3000", fetched.Remaining.String())

	rec, env = s.do(http.MethodGet, "/api/v1/loans/"+loan.ID.String()+"/repayments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var receipts []domain.Repayment
	require.NoError(t, json.Unmarshal(env.Data, &receipts))
	assert.Len(t, receipts, 1)

	rec, env = s.do(http.MethodGet, "/api/v1/dashboard/summary?as_of=2025-05-20", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary domain.Summary
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, "5000", summary.TotalIssued.String())
	assert.Equal(t, "2000", summary.TotalCollected.String())
	assert.Equal(t, "3000", summary.OverdueAmount.String())

	rec, env = s.do(http.MethodGet, "/api/v1/dashboard/overdue", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var overdue []domain.OverdueLoan
	require.NoError(t, json.Unmarshal(env.Data, &overdue))
	require.Len(t, overdue, 1)
	assert.Equal(t, "Rahul Sharma", overdue[0].CustomerName)
	assert.Equal(t, 5, overdue[0].DaysOverdue)
}

func TestLoanUpdate(t *testing.T) {
	s := newTestServer(t)
	s.login()

	customer := s.createCustomer("Priya Patel")
	loan := s.createLoan(customer.ID, 3000)

	rec, env := s.do(http.MethodPatch, "/api/v1/loans/"+loan.ID.String(), map[string]interface{}{
		"description": "Festival sweets",
		"due_date":    "2025-06-01",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated domain.Loan
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "Festival sweets", updated.Description)
	assert.Equal(t, "2025-06-01", updated.DueDate.Format("2006-01-02"))

	rec, _ = s.do(http.MethodPatch, "/api/v1/loans/"+loan.ID.String(), map[string]interface{}{
		"due_date": "01-06-2025",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = s.do(http.MethodGet, "/api/v1/dashboard/upcoming?as_of=2025-05-30&within_days=3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var upcoming []domain.UpcomingLoan
	require.NoError(t, json.Unmarshal(env.Data, &upcoming))
	require.Len(t, upcoming, 1)
	assert.Equal(t, 2, upcoming[0].DaysUntilDue)

	rec, _ = s.do(http.MethodGet, "/api/v1/dashboard/upcoming?within_days=soon", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestErrors(t *testing.T) {
	s := newTestServer(t)
	s.login()

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
	}{
		{"malformed id", http.MethodGet, "/api/v1/loans/not-a-uuid", nil, http.StatusBadRequest},
		{"unknown loan", http.MethodGet, "/api/v1/loans/" + uuid.NewString(), nil, http.StatusNotFound},
		{"unknown field", http.MethodPost, "/api/v1/customers", `{"name":"A","phone":"1","nickname":"x"}`, http.StatusBadRequest},
		{"broken json", http.MethodPost, "/api/v1/loans", `{"amount":`, http.StatusBadRequest},
		{"bad frequency", http.MethodPost, "/api/v1/loans", map[string]interface{}{
			"customer_id": uuid.New(), "description": "x", "amount": 100, "due_date": "2025-06-01", "frequency": "daily",
		}, http.StatusBadRequest},
		{"unknown customer", http.MethodPost, "/api/v1/loans", map[string]interface{}{
			"customer_id": uuid.New(), "description": "x", "amount": 100, "due_date": "2025-06-01", "frequency": "weekly",
		}, http.StatusBadRequest},
		{"repayment unknown loan", http.MethodPost, "/api/v1/repayments", map[string]interface{}{
			"loan_id": uuid.New(), "amount": 100,
		}, http.StatusNotFound},
		{"bad as_of", http.MethodGet, "/api/v1/dashboard/summary?as_of=yesterday", nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := s.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.False(t, env.Success)
		})
	}
}

func TestCustomerLifecycle(t *testing.T) {
	s := newTestServer(t)
	s.login()

	customer := s.createCustomer("Amit Kumar")
	path := "/api/v1/customers/" + customer.ID.String()

	rec, env := s.do(http.MethodPut, path, map[string]interface{}{"trust_score": 4})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated domain.Customer
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, 4, updated.TrustScore)
	assert.Equal(t, "Amit Kumar", updated.Name)

	s.createLoan(customer.ID, 1000)

	rec, env = s.do(http.MethodGet, path+"/loans", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var loans []domain.Loan
	require.NoError(t, json.Unmarshal(env.Data, &loans))
	assert.Len(t, loans, 1)

	rec, env = s.do(http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, customError.ErrCodeConflict, env.Error)

	other := s.createCustomer("Walk-in")
	rec, _ = s.do(http.MethodDelete, "/api/v1/customers/"+other.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = s.do(http.MethodGet, "/api/v1/customers/"+other.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOwnerIsolation(t *testing.T) {
	s := newTestServer(t)
	s.login()
	customer := s.createCustomer("Rahul Sharma")
	loan := s.createLoan(customer.ID, 5000)

	s.token = ""
	rec, env := s.do(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"name":     "Second Shop",
		"email":    "second@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var auth domain.AuthResponse
	require.NoError(t, json.Unmarshal(env.Data, &auth))
	s.token = auth.Token

	rec, _ = s.do(http.MethodGet, "/api/v1/loans/"+loan.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = s.do(http.MethodGet, "/api/v1/customers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var customers []domain.Customer
	require.NoError(t, json.Unmarshal(env.Data, &customers))
	assert.Empty(t, customers)
}
