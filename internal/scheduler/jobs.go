// Package scheduler runs the periodic ledger jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/segyhp/khaata-engine/internal/domain"
)

// StatusRefresher persists recomputed loan statuses.
type StatusRefresher interface {
	RefreshStatuses(ctx context.Context, asOf time.Time) ([]domain.StatusTransition, error)
}

// ReminderSource lists unpaid loans falling due soon, across all owners.
type ReminderSource interface {
	DueReminders(ctx context.Context, asOf time.Time, withinDays int) ([]domain.UpcomingLoan, error)
}

type Jobs struct {
	statuses   StatusRefresher
	reminders  ReminderSource
	withinDays int
	timeout    time.Duration
	logger     *zap.Logger
}

func NewJobs(statuses StatusRefresher, reminders ReminderSource, withinDays int, logger *zap.Logger) *Jobs {
	return &Jobs{
		statuses:   statuses,
		reminders:  reminders,
		withinDays: withinDays,
		timeout:    5 * time.Minute,
		logger:     logger,
	}
}

// Register schedules both jobs. Specs include a seconds field.
func (j *Jobs) Register(c *cron.Cron, statusSpec, reminderSpec string) error {
	if _, err := c.AddFunc(statusSpec, j.run("refresh_statuses", j.RefreshStatuses)); err != nil {
		return fmt.Errorf("schedule status refresh %q: %w", statusSpec, err)
	}
	if _, err := c.AddFunc(reminderSpec, j.run("due_reminders", j.SendReminders)); err != nil {
		return fmt.Errorf("schedule due reminders %q: %w", reminderSpec, err)
	}
	return nil
}

func (j *Jobs) run(name string, job func(context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
		defer cancel()

		start := time.Now()
		if err := job(ctx); err != nil {
			j.logger.Error("scheduled job failed", zap.String("job", name), zap.Error(err))
			return
		}
		j.logger.Info("scheduled job finished", zap.String("job", name), zap.Duration("duration", time.Since(start)))
	}
}

// RefreshStatuses writes today's status onto every unpaid loan whose stored
// status has gone stale.
func (j *Jobs) RefreshStatuses(ctx context.Context) error {
	transitions, err := j.statuses.RefreshStatuses(ctx, time.Time{})
	if err != nil {
		return err
	}
	for _, tr := range transitions {
		j.logger.Info("loan status changed",
			zap.String("owner_id", tr.OwnerID.String()),
			zap.String("loan_id", tr.LoanID.String()),
			zap.String("from", string(tr.From)),
			zap.String("to", string(tr.To)),
		)
	}
	j.logger.Info("loan statuses refreshed", zap.Int("changed", len(transitions)))
	return nil
}

// SendReminders logs one reminder per loan falling due within the window.
func (j *Jobs) SendReminders(ctx context.Context) error {
	due, err := j.reminders.DueReminders(ctx, time.Time{}, j.withinDays)
	if err != nil {
		return err
	}
	for _, u := range due {
		j.logger.Info("payment reminder",
			zap.String("owner_id", u.Loan.OwnerID.String()),
			zap.String("loan_id", u.Loan.ID.String()),
			zap.String("customer_id", u.Loan.CustomerID.String()),
			zap.String("remaining", u.Loan.Remaining.String()),
			zap.Int("days_until_due", u.DaysUntilDue),
		)
	}
	j.logger.Info("payment reminders sent", zap.Int("count", len(due)))
	return nil
}
