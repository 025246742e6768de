package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/segyhp/khaata-engine/internal/domain"
	"github.com/segyhp/khaata-engine/internal/repository"
)

type repaymentRepository struct {
	store *Store
}

func NewRepaymentRepository(store *Store) repository.RepaymentRepository {
	return &repaymentRepository{store: store}
}

// Apply works on a copy of the loan and only swaps it in once fn succeeded,
// so a rejected repayment leaves no trace.
func (r *repaymentRepository) Apply(_ context.Context, ownerID, loanID uuid.UUID, receipts repository.ReceiptSequencer, fn repository.RepaymentFunc) (*domain.Repayment, *domain.Loan, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.loans[loanID]
	if !ok || stored.OwnerID != ownerID {
		return nil, nil, repository.ErrNotFound
	}

	loan := *stored
	repayment, err := fn(&loan, receipts)
	if err != nil {
		return nil, nil, err
	}
	if _, taken := r.store.receiptNumbers[repayment.ReceiptNumber]; taken {
		return nil, nil, repository.ErrDuplicate
	}

	stored.Remaining = loan.Remaining
	stored.Status = loan.Status
	stored.UpdatedAt = loan.UpdatedAt

	cp := *repayment
	r.store.repayments[cp.ID] = &cp
	r.store.repaymentOrder = append(r.store.repaymentOrder, cp.ID)
	r.store.receiptNumbers[cp.ReceiptNumber] = struct{}{}

	out := *stored
	return repayment, &out, nil
}

func (r *repaymentRepository) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*domain.Repayment, error) {
	return r.filter(func(p *domain.Repayment) bool { return p.OwnerID == ownerID }), nil
}

func (r *repaymentRepository) ListByLoan(_ context.Context, ownerID, loanID uuid.UUID) ([]*domain.Repayment, error) {
	return r.filter(func(p *domain.Repayment) bool {
		return p.OwnerID == ownerID && p.LoanID == loanID
	}), nil
}

func (r *repaymentRepository) filter(keep func(*domain.Repayment) bool) []*domain.Repayment {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := []*domain.Repayment{}
	for _, id := range r.store.repaymentOrder {
		if p := r.store.repayments[id]; keep(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out
}
