package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/segyhp/khaata-engine/internal/domain"
	"github.com/segyhp/khaata-engine/internal/repository"
)

type customerRepository struct {
	store *Store
}

func NewCustomerRepository(store *Store) repository.CustomerRepository {
	return &customerRepository{store: store}
}

func (r *customerRepository) Create(_ context.Context, c *domain.Customer) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.customers[c.ID]; ok {
		return repository.ErrDuplicate
	}
	cp := *c
	r.store.customers[c.ID] = &cp
	r.store.customerOrder = append(r.store.customerOrder, c.ID)
	return nil
}

func (r *customerRepository) GetByID(_ context.Context, ownerID, customerID uuid.UUID) (*domain.Customer, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	c, ok := r.store.customers[customerID]
	if !ok || c.OwnerID != ownerID {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *customerRepository) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*domain.Customer, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := []*domain.Customer{}
	for _, id := range r.store.customerOrder {
		if c := r.store.customers[id]; c.OwnerID == ownerID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *customerRepository) Update(_ context.Context, c *domain.Customer) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.customers[c.ID]
	if !ok || existing.OwnerID != c.OwnerID {
		return repository.ErrNotFound
	}
	cp := *c
	r.store.customers[c.ID] = &cp
	return nil
}

func (r *customerRepository) Delete(_ context.Context, ownerID, customerID uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	c, ok := r.store.customers[customerID]
	if !ok || c.OwnerID != ownerID {
		return repository.ErrNotFound
	}
	delete(r.store.customers, customerID)
	r.store.customerOrder = removeID(r.store.customerOrder, customerID)
	return nil
}
