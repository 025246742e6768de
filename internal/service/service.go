package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/segyhp/khaata-engine/internal/domain"
	"github.com/segyhp/khaata-engine/internal/events"
	"github.com/segyhp/khaata-engine/internal/repository"
	customError "github.com/segyhp/khaata-engine/pkg/errors"
	"github.com/segyhp/khaata-engine/pkg/utils"
)

// SummaryCache is an optional read-through cache for owner summaries.
type SummaryCache interface {
	Get(ctx context.Context, ownerID uuid.UUID, asOf time.Time) (*domain.Summary, bool, error)
	Set(ctx context.Context, ownerID uuid.UUID, summary *domain.Summary) error
	Invalidate(ctx context.Context, ownerID uuid.UUID) error
}

// Options carries the collaborators shared by every service. Zero values are
// replaced with no-op or system defaults.
type Options struct {
	Logger   *zap.Logger
	Cache    SummaryCache
	Events   events.Publisher
	Now      func() time.Time
	Location *time.Location
}

type base struct {
	logger *zap.Logger
	cache  SummaryCache
	events events.Publisher
	now    func() time.Time
	loc    *time.Location
}

func newBase(opts Options) base {
	b := base{
		logger: opts.Logger,
		cache:  opts.Cache,
		events: opts.Events,
		now:    opts.Now,
		loc:    opts.Location,
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	if b.events == nil {
		b.events = events.NopPublisher{}
	}
	if b.now == nil {
		b.now = time.Now
	}
	if b.loc == nil {
		b.loc = time.UTC
	}
	return b
}

// today is the current calendar date in the configured zone.
func (b base) today() time.Time {
	return utils.DateOnly(b.now().In(b.loc))
}

// dateOf keeps the calendar date t carries in its own location and anchors it
// at midnight in the configured zone. A zero t means today.
func (b base) dateOf(t time.Time) time.Time {
	if t.IsZero() {
		return b.today()
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, b.loc)
}

// invalidate drops cached summaries after a committed mutation. A cache
// failure is logged, not returned: the ledger write already succeeded.
func (b base) invalidate(ctx context.Context, ownerID uuid.UUID) {
	if b.cache == nil {
		return
	}
	if err := b.cache.Invalidate(ctx, ownerID); err != nil {
		b.cacheFailed("summary cache invalidation failed", ownerID, err)
	}
}

func (b base) cacheFailed(msg string, ownerID uuid.UUID, err error) {
	cacheErr := customError.WrapCacheError(err)
	b.logger.Warn(msg,
		zap.String("owner_id", ownerID.String()),
		zap.String("code", cacheErr.Code),
		zap.Error(cacheErr),
	)
}

func (b base) publish(ctx context.Context, event events.Event) {
	if err := b.events.Publish(ctx, event); err != nil {
		b.logger.Warn("publish ledger event failed",
			zap.String("type", event.Type),
			zap.String("loan_id", event.LoanID.String()),
			zap.Error(err),
		)
	}
}

// storageError classifies a repository failure. Business errors raised inside
// a repository callback pass through untouched.
func storageError(entity string, id uuid.UUID, err error) error {
	var be *customError.BusinessError
	switch {
	case errors.As(err, &be):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return customError.WrapNotFound(entity, id.String())
	case errors.Is(err, repository.ErrConcurrentUpdate):
		return customError.WrapConflict(entity+" was modified concurrently", err)
	case errors.Is(err, repository.ErrDuplicate):
		return customError.WrapConflict(entity+" already exists", err)
	case errors.Is(err, repository.ErrReferenced):
		return customError.WrapConflict(entity+" is still in use", err)
	default:
		return customError.WrapDatabaseError(err)
	}
}
