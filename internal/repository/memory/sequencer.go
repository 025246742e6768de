package memory

import (
	"context"

	"github.com/segyhp/khaata-engine/internal/repository"
)

type receiptSequencer struct {
	store *Store
}

// NewReceiptSequencer keeps one counter per year inside the store; it never
// looks at how many repayments exist.
func NewReceiptSequencer(store *Store) repository.ReceiptSequencer {
	return &receiptSequencer{store: store}
}

func (s *receiptSequencer) Next(_ context.Context, year int) (int64, error) {
	s.store.seqMu.Lock()
	defer s.store.seqMu.Unlock()

	s.store.sequences[year]++
	return s.store.sequences[year], nil
}
