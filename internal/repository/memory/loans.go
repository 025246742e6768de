package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/khaata-engine/internal/domain"
	"github.com/segyhp/khaata-engine/internal/repository"
)

type loanRepository struct {
	store *Store
}

func NewLoanRepository(store *Store) repository.LoanRepository {
	return &loanRepository{store: store}
}

func (r *loanRepository) Create(_ context.Context, loan *domain.Loan) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.loans[loan.ID]; ok {
		return repository.ErrDuplicate
	}
	cp := *loan
	r.store.loans[loan.ID] = &cp
	r.store.loanOrder = append(r.store.loanOrder, loan.ID)
	return nil
}

func (r *loanRepository) GetByID(_ context.Context, ownerID, loanID uuid.UUID) (*domain.Loan, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	loan, ok := r.store.loans[loanID]
	if !ok || loan.OwnerID != ownerID {
		return nil, repository.ErrNotFound
	}
	cp := *loan
	return &cp, nil
}

func (r *loanRepository) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*domain.Loan, error) {
	return r.filter(func(l *domain.Loan) bool { return l.OwnerID == ownerID }), nil
}

func (r *loanRepository) ListByCustomer(_ context.Context, ownerID, customerID uuid.UUID) ([]*domain.Loan, error) {
	return r.filter(func(l *domain.Loan) bool {
		return l.OwnerID == ownerID && l.CustomerID == customerID
	}), nil
}

func (r *loanRepository) ListUnpaid(_ context.Context) ([]*domain.Loan, error) {
	return r.filter(func(l *domain.Loan) bool { return l.Status != domain.LoanStatusPaid }), nil
}

func (r *loanRepository) filter(keep func(*domain.Loan) bool) []*domain.Loan {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := []*domain.Loan{}
	for _, id := range r.store.loanOrder {
		if loan := r.store.loans[id]; keep(loan) {
			cp := *loan
			out = append(out, &cp)
		}
	}
	return out
}

// Update only touches the editable terms, mirroring the SQL implementation.
func (r *loanRepository) Update(_ context.Context, loan *domain.Loan) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.loans[loan.ID]
	if !ok || existing.OwnerID != loan.OwnerID {
		return repository.ErrNotFound
	}
	existing.Description = loan.Description
	existing.DueDate = loan.DueDate
	existing.Frequency = loan.Frequency
	existing.Interest = loan.Interest
	existing.GraceDays = loan.GraceDays
	existing.UpdatedAt = loan.UpdatedAt
	return nil
}

func (r *loanRepository) UpdateStatus(_ context.Context, ownerID, loanID uuid.UUID, status domain.LoanStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	loan, ok := r.store.loans[loanID]
	if !ok || loan.OwnerID != ownerID || loan.Status == domain.LoanStatusPaid {
		return repository.ErrNotFound
	}
	loan.Status = status
	loan.UpdatedAt = time.Now()
	return nil
}
