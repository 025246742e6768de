package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/khaata-engine/internal/domain"
	"github.com/segyhp/khaata-engine/internal/events"
	"github.com/segyhp/khaata-engine/internal/repository/memory"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

type fakeCache struct {
	mu          sync.Mutex
	entries     map[string]*domain.Summary
	hits        int
	invalidated int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]*domain.Summary{}}
}

func cacheKey(ownerID uuid.UUID, asOf time.Time) string {
	return ownerID.String() + "/" + asOf.Format("2006-01-02")
}

func (c *fakeCache) Get(_ context.Context, ownerID uuid.UUID, asOf time.Time) (*domain.Summary, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.entries[cacheKey(ownerID, asOf)]
	if ok {
		c.hits++
	}
	return s, ok, nil
}

func (c *fakeCache) Set(_ context.Context, ownerID uuid.UUID, summary *domain.Summary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(ownerID, summary.AsOf)] = summary
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, ownerID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := ownerID.String() + "/"
	for k := range c.entries {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			delete(c.entries, k)
		}
	}
	c.invalidated++
	return nil
}

type testEnv struct {
	clock      *testClock
	events     *recordingPublisher
	cache      *fakeCache
	customers  *CustomerService
	loans      *LoanService
	repayments *RepaymentService
	summary    *SummaryService
	auth       *AuthService
	owner      uuid.UUID
}

func newTestEnv(t *testing.T, now time.Time) *testEnv {
	t.Helper()

	store := memory.NewStore()
	customers := memory.NewCustomerRepository(store)
	loans := memory.NewLoanRepository(store)
	repayments := memory.NewRepaymentRepository(store)

	env := &testEnv{
		clock:  &testClock{now: now},
		events: &recordingPublisher{},
		cache:  newFakeCache(),
		owner:  uuid.New(),
	}
	opts := Options{
		Cache:    env.cache,
		Events:   env.events,
		Now:      env.clock.Now,
		Location: time.UTC,
	}

	env.customers = NewCustomerService(customers, loans, opts)
	env.loans = NewLoanService(customers, loans, opts)
	env.repayments = NewRepaymentService(loans, repayments, memory.NewReceiptSequencer(store), opts)
	env.summary = NewSummaryService(customers, loans, repayments, opts)
	env.auth = NewAuthService(memory.NewUserRepository(store), "test-secret", time.Hour, opts)
	return env
}

func (e *testEnv) createCustomer(t *testing.T, name string) *domain.Customer {
	t.Helper()
	customer, err := e.customers.Create(context.Background(), e.owner, &domain.CreateCustomerRequest{
		Name:        name,
		Phone:       "9876543210",
		TrustScore:  7,
		CreditLimit: decimal.NewFromInt(10000),
	})
	require.NoError(t, err)
	return customer
}

func (e *testEnv) createLoan(t *testing.T, customerID uuid.UUID, amount int64, issue, due time.Time, graceDays int) *domain.Loan {
	t.Helper()
	loan, err := e.loans.Create(context.Background(), e.owner, &domain.CreateLoanRequest{
		CustomerID:  customerID,
		Description: "Monthly groceries",
		Amount:      decimal.NewFromInt(amount),
		IssueDate:   issue,
		DueDate:     due,
		Frequency:   domain.FrequencyMonthly,
		GraceDays:   &graceDays,
	})
	require.NoError(t, err)
	return loan
}

func (e *testEnv) repay(loanID uuid.UUID, amount int64, on time.Time) (*domain.RecordRepaymentResponse, error) {
	return e.repayments.Apply(context.Background(), e.owner, &domain.RecordRepaymentRequest{
		LoanID: loanID,
		Amount: decimal.NewFromInt(amount),
		Date:   on,
	})
}
