package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const receiptKeyPrefix = "khaata:receipt:seq:"

// ReceiptSequencer issues receipt sequence numbers with INCR on one key per
// year, so every process sharing the Redis instance draws from one counter.
type ReceiptSequencer struct {
	rdb *redis.Client
}

func NewReceiptSequencer(rdb *redis.Client) *ReceiptSequencer {
	return &ReceiptSequencer{rdb: rdb}
}

func (s *ReceiptSequencer) Next(ctx context.Context, year int) (int64, error) {
	next, err := s.rdb.Incr(ctx, fmt.Sprintf("%s%d", receiptKeyPrefix, year)).Result()
	if err != nil {
		return 0, fmt.Errorf("incr receipt sequence: %w", err)
	}
	return next, nil
}
