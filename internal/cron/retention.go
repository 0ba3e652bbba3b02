package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/huellitas/huellitas-backend/pkg/logger"
)

const (
	notificationRetentionDays = 30
	outboxRetentionDays       = 30
	outboxMinAttempts         = 10
)

// purgeJob deletes rows older than a day-based retention window. The
// notification and outbox cleanups differ only in what purge deletes.
type purgeJob struct {
	name          string
	logg          *logger.Logger
	retentionDays int
	extra         map[string]any
	purge         func(ctx context.Context, cutoff time.Time) (int64, error)
	now           func() time.Time
}

func (j *purgeJob) Name() string { return j.name }

func (j *purgeJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().AddDate(0, 0, -j.retentionDays)
	deleted, err := j.purge(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("%s: %w", j.name, err)
	}
	fields := map[string]any{
		"cutoff":         cutoff.Format(time.RFC3339),
		"retention_days": j.retentionDays,
		"rows_deleted":   deleted,
	}
	for k, v := range j.extra {
		fields[k] = v
	}
	j.logg.Info(j.logg.WithFields(ctx, fields), j.name+" finished")
	return nil
}

func orDefault(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

type NotificationCleanupJobParams struct {
	Logger     *logger.Logger
	Repository notificationsCleanupRepo
	// Retention is in days; only read notifications are eligible.
	Retention int
}

type notificationsCleanupRepo interface {
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewNotificationCleanupJob removes read notifications past retention.
// Unread ones are kept however old they are.
func NewNotificationCleanupJob(params NotificationCleanupJobParams) (Job, error) {
	if params.Logger == nil || params.Repository == nil {
		return nil, errors.New("notification cleanup needs a logger and a repository")
	}
	return &purgeJob{
		name:          "notification-cleanup",
		logg:          params.Logger,
		retentionDays: orDefault(params.Retention, notificationRetentionDays),
		purge:         params.Repository.DeleteReadBefore,
		now:           time.Now,
	}, nil
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type OutboxRetentionJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository outboxRetentionRepo
	// Retention is in days.
	Retention int
	// MinAttempts marks an unpublished row as abandoned. Keep it equal to
	// the publisher's max attempts so rows still being retried survive.
	MinAttempts int
}

type outboxRetentionRepo interface {
	DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, minAttemptCount int) (int64, error)
}

// NewOutboxRetentionJob purges delivered outbox rows and abandoned ones
// (already copied to the DLQ) past retention.
func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.Logger == nil || params.DB == nil || params.Repository == nil {
		return nil, errors.New("outbox retention needs a logger, a db and a repository")
	}
	minAttempts := orDefault(params.MinAttempts, outboxMinAttempts)
	return &purgeJob{
		name:          "outbox-retention",
		logg:          params.Logger,
		retentionDays: orDefault(params.Retention, outboxRetentionDays),
		extra:         map[string]any{"min_attempts": minAttempts},
		purge: func(ctx context.Context, cutoff time.Time) (deleted int64, err error) {
			err = params.DB.WithTx(ctx, func(tx *gorm.DB) error {
				deleted, err = params.Repository.DeletePublishedBefore(ctx, tx, cutoff, minAttempts)
				return err
			})
			return deleted, err
		},
		now: time.Now,
	}, nil
}
