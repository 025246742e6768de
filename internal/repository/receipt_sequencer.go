package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type receiptSequencer struct {
	db sqlx.QueryerContext
}

// NewReceiptSequencer returns a sequencer backed by the receipt_sequences
// table. Numbers survive restarts and never reuse a value after deletes.
func NewReceiptSequencer(db *sqlx.DB) ReceiptSequencer {
	return &receiptSequencer{db: db}
}

// onTx draws from tx, so the increment commits or rolls back with it.
func (s *receiptSequencer) onTx(tx *sqlx.Tx) ReceiptSequencer {
	return &receiptSequencer{db: tx}
}

func (s *receiptSequencer) Next(ctx context.Context, year int) (int64, error) {
	query := `
		INSERT INTO receipt_sequences (year, last_value)
		VALUES ($1, 1)
		ON CONFLICT (year) DO UPDATE SET last_value = receipt_sequences.last_value + 1
		RETURNING last_value
	`

	var next int64
	if err := sqlx.GetContext(ctx, s.db, &next, query, year); err != nil {
		return 0, translateError(err)
	}
	return next, nil
}
