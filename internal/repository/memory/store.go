// Package memory is an in-process implementation of the repository
// interfaces. A single Store is shared by all repositories built from it, and
// its mutex is held across every read-validate-write cycle, which makes
// repayment application atomic per loan.
package memory

import (
	"sync"

	"github.com/google/uuid"
	"github.com/segyhp/khaata-engine/internal/domain"
)

type Store struct {
	mu sync.RWMutex

	users      map[uuid.UUID]*domain.User
	customers  map[uuid.UUID]*domain.Customer
	loans      map[uuid.UUID]*domain.Loan
	repayments map[uuid.UUID]*domain.Repayment

	// insertion order, used for deterministic listings
	customerOrder  []uuid.UUID
	loanOrder      []uuid.UUID
	repaymentOrder []uuid.UUID

	receiptNumbers map[string]struct{}

	// guarded separately: the sequencer runs inside Apply callbacks, which
	// already hold mu
	seqMu     sync.Mutex
	sequences map[int]int64
}

func NewStore() *Store {
	return &Store{
		users:          make(map[uuid.UUID]*domain.User),
		customers:      make(map[uuid.UUID]*domain.Customer),
		loans:          make(map[uuid.UUID]*domain.Loan),
		repayments:     make(map[uuid.UUID]*domain.Repayment),
		receiptNumbers: make(map[string]struct{}),
		sequences:      make(map[int]int64),
	}
}

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
