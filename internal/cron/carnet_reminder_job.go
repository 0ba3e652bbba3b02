package cron

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/huellitas/huellitas-backend/internal/notifications"
	"github.com/huellitas/huellitas-backend/pkg/db/models"
	"github.com/huellitas/huellitas-backend/pkg/enums"
	"github.com/huellitas/huellitas-backend/pkg/logger"
	"github.com/huellitas/huellitas-backend/pkg/metrics"
)

type reminderSyncer interface {
	SyncAll(ctx context.Context) ([]models.Reminder, error)
}

type reminderNotifier interface {
	Notify(ctx context.Context, tx *gorm.DB, notice notifications.Notice) (*models.Notification, error)
}

type CarnetReminderJobParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Reminders reminderSyncer
	Notifier  reminderNotifier
	Metrics   *metrics.CronJobMetrics
}

// NewCarnetReminderJob materializes due carnet reminders for every pet and
// sends one bell notification per reminder created in this run.
func NewCarnetReminderJob(params CarnetReminderJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Reminders == nil {
		return nil, fmt.Errorf("reminder service required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	return &carnetReminderJob{
		logg:      params.Logger,
		db:        params.DB,
		reminders: params.Reminders,
		notifier:  params.Notifier,
		metrics:   params.Metrics,
	}, nil
}

type carnetReminderJob struct {
	logg      *logger.Logger
	db        txRunner
	reminders reminderSyncer
	notifier  reminderNotifier
	metrics   *metrics.CronJobMetrics
}

func (j *carnetReminderJob) Name() string { return "carnet-reminders" }

func (j *carnetReminderJob) Run(ctx context.Context) error {
	// A failed sync can still return the reminders it managed to insert;
	// those are notified before the error is reported.
	created, syncErr := j.reminders.SyncAll(ctx)
	j.metrics.AddRemindersCreated(len(created))

	var errs []error
	if syncErr != nil {
		errs = append(errs, fmt.Errorf("sync reminders: %w", syncErr))
	}
	notified := 0
	for _, reminder := range created {
		if err := j.notify(ctx, reminder); err != nil {
			errs = append(errs, err)
			continue
		}
		notified++
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"reminders_created": len(created),
		"notified":          notified,
	}), "carnet reminder sync complete")
	return multierr.Combine(errs...)
}

func (j *carnetReminderJob) notify(ctx context.Context, reminder models.Reminder) error {
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := j.notifier.Notify(ctx, tx, notifications.Notice{
			UserID:  reminder.UserID,
			Type:    enums.NotificationCarnetReminder,
			Title:   reminder.Title,
			Message: reminder.Message,
			Link:    "/pets/" + reminder.PetID.String() + "/carnet",
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("notify reminder %s: %w", reminder.ID, err)
	}
	return nil
}
