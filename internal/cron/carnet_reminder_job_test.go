package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/huellitas/huellitas-backend/internal/notifications"
	"github.com/huellitas/huellitas-backend/internal/reminders"
	"github.com/huellitas/huellitas-backend/pkg/db/dbtest"
	"github.com/huellitas/huellitas-backend/pkg/db/models"
	"github.com/huellitas/huellitas-backend/pkg/enums"
	"github.com/huellitas/huellitas-backend/pkg/logger"
	"github.com/huellitas/huellitas-backend/pkg/metrics"
	"github.com/huellitas/huellitas-backend/pkg/outbox"
)

func TestCarnetReminderJobNotifiesOncePerNewReminder(t *testing.T) {
	ctx := context.Background()
	client := dbtest.Open(t)
	conn := client.DB()

	foundation := dbtest.User(t, conn, enums.UserRoleFoundation)
	adopter := dbtest.User(t, conn, enums.UserRoleAdopter)
	pet := dbtest.Pet(t, conn, foundation.ID)
	dbtest.Adoption(t, conn, pet, adopter.ID, enums.AdoptionStatusApproved)

	due := time.Now().UTC().AddDate(0, 0, 2).Format("2006-01-02")
	require.NoError(t, conn.Create(&models.CarnetVaccine{
		PetID: pet.ID, Name: "Rabies", AppliedOn: "2025-01-01", NextDueOn: &due, CreatedBy: foundation.ID,
	}).Error)

	reminderSvc, err := reminders.NewService(reminders.NewRepository(conn), reminders.Options{})
	require.NoError(t, err)
	emitter, err := notifications.NewEmitter(notifications.NewRepository(conn), outbox.NewService(outbox.NewRepository(conn), nil))
	require.NoError(t, err)

	m := metrics.NewCronJobMetrics(prometheus.NewRegistry())
	job, err := NewCarnetReminderJob(CarnetReminderJobParams{
		Logger:    logger.Nop(),
		DB:        client,
		Reminders: reminderSvc,
		Notifier:  emitter,
		Metrics:   m,
	})
	require.NoError(t, err)

	require.NoError(t, job.Run(ctx))
	require.NoError(t, job.Run(ctx))

	var notes []models.Notification
	require.NoError(t, conn.Where("type = ?", enums.NotificationCarnetReminder).Find(&notes).Error)
	require.Len(t, notes, 1)
	assert.Equal(t, adopter.ID, notes[0].UserID)
	assert.Equal(t, "Vaccine due: Rabies", notes[0].Title)
	require.NotNil(t, notes[0].Link)
	assert.Equal(t, "/pets/"+pet.ID.String()+"/carnet", *notes[0].Link)
}

func TestCarnetReminderJobCombinesErrors(t *testing.T) {
	created := []models.Reminder{
		{ID: uuid.New(), UserID: uuid.New(), PetID: uuid.New(), Title: "a"},
		{ID: uuid.New(), UserID: uuid.New(), PetID: uuid.New(), Title: "b"},
	}
	notifier := &flakyNotifier{failTitle: "a"}
	job, err := NewCarnetReminderJob(CarnetReminderJobParams{
		Logger:    logger.Nop(),
		DB:        passthroughTx{},
		Reminders: stubSyncer{created: created, err: errors.New("insert failed")},
		Notifier:  notifier,
	})
	require.NoError(t, err)

	err = job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert failed")
	assert.Contains(t, err.Error(), created[0].ID.String())
	assert.Equal(t, []string{"b"}, notifier.sent)
}

type stubSyncer struct {
	created []models.Reminder
	err     error
}

func (s stubSyncer) SyncAll(context.Context) ([]models.Reminder, error) {
	return s.created, s.err
}

type flakyNotifier struct {
	failTitle string
	sent      []string
}

func (f *flakyNotifier) Notify(_ context.Context, _ *gorm.DB, notice notifications.Notice) (*models.Notification, error) {
	if notice.Title == f.failTitle {
		return nil, errors.New("boom")
	}
	f.sent = append(f.sent, notice.Title)
	return &models.Notification{}, nil
}

type passthroughTx struct{}

func (passthroughTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}
