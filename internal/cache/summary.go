package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/segyhp/khaata-engine/internal/domain"
	"github.com/segyhp/khaata-engine/pkg/utils"
)

const summaryKeyPrefix = "khaata:summary:"

// SummaryCache stores computed summaries in one hash per owner, keyed by the
// as-of date. Invalidation drops the whole hash, so any ledger mutation
// evicts every cached date for that owner at once.
type SummaryCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSummaryCache(rdb *redis.Client, ttl time.Duration) *SummaryCache {
	return &SummaryCache{rdb: rdb, ttl: ttl}
}

func summaryKey(ownerID uuid.UUID) string {
	return summaryKeyPrefix + ownerID.String()
}

// Get returns the cached summary and whether it was present.
func (c *SummaryCache) Get(ctx context.Context, ownerID uuid.UUID, asOf time.Time) (*domain.Summary, bool, error) {
	raw, err := c.rdb.HGet(ctx, summaryKey(ownerID), utils.FormatDate(asOf)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("hget summary: %w", err)
	}

	var summary domain.Summary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, false, fmt.Errorf("decode summary: %w", err)
	}
	return &summary, true, nil
}

func (c *SummaryCache) Set(ctx context.Context, ownerID uuid.UUID, summary *domain.Summary) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}

	key := summaryKey(ownerID)
	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, key, utils.FormatDate(summary.AsOf), raw)
	if c.ttl > 0 {
		pipe.Expire(ctx, key, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store summary: %w", err)
	}
	return nil
}

func (c *SummaryCache) Invalidate(ctx context.Context, ownerID uuid.UUID) error {
	if err := c.rdb.Del(ctx, summaryKey(ownerID)).Err(); err != nil {
		return fmt.Errorf("invalidate summary: %w", err)
	}
	return nil
}
