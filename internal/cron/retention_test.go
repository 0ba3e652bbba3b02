package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/huellitas/huellitas-backend/pkg/db/dbtest"
	"github.com/huellitas/huellitas-backend/pkg/db/models"
	"github.com/huellitas/huellitas-backend/pkg/enums"
	"github.com/huellitas/huellitas-backend/pkg/logger"
	"github.com/huellitas/huellitas-backend/pkg/outbox"
)

type fakeNotificationRepo struct {
	cutoffs []time.Time
	deleted int64
	err     error
}

func (f *fakeNotificationRepo) DeleteReadBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.deleted, f.err
}

func notificationCleanup(t *testing.T, repo *fakeNotificationRepo, retention int, now time.Time) *purgeJob {
	t.Helper()
	job, err := NewNotificationCleanupJob(NotificationCleanupJobParams{Logger: logger.Nop(), Repository: repo, Retention: retention})
	require.NoError(t, err)
	purge := job.(*purgeJob)
	purge.now = func() time.Time { return now }
	return purge
}

func TestNotificationCleanupCutoff(t *testing.T) {
	now := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		retention int
		want      time.Time
	}{
		{retention: 0, want: now.AddDate(0, 0, -notificationRetentionDays)},
		{retention: 7, want: time.Date(2026, 1, 24, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		repo := &fakeNotificationRepo{deleted: 42}
		job := notificationCleanup(t, repo, tt.retention, now)

		require.NoError(t, job.Run(context.Background()))
		require.Len(t, repo.cutoffs, 1)
		assert.True(t, tt.want.Equal(repo.cutoffs[0]), "retention %d", tt.retention)
		assert.Equal(t, "notification-cleanup", job.Name())
	}
}

func TestNotificationCleanupPropagatesErrors(t *testing.T) {
	job := notificationCleanup(t, &fakeNotificationRepo{err: errors.New("locked")}, 0, time.Now())
	err := job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notification-cleanup")

	_, err = NewNotificationCleanupJob(NotificationCleanupJobParams{Logger: logger.Nop()})
	assert.Error(t, err)
}

func TestOutboxRetentionPurgesOldAndAbandonedRows(t *testing.T) {
	client := dbtest.Open(t)
	conn := client.DB()
	now := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	old := now.AddDate(0, 0, -45)
	recent := now.AddDate(0, 0, -2)

	seedOutboxEvent(t, conn, old, &old, 1)
	recentPublished := seedOutboxEvent(t, conn, recent, &recent, 1)
	seedOutboxEvent(t, conn, old, nil, 5)
	retrying := seedOutboxEvent(t, conn, old, nil, 2)

	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:      logger.Nop(),
		DB:          client,
		Repository:  outbox.NewRepository(conn),
		MinAttempts: 5,
	})
	require.NoError(t, err)
	purge := job.(*purgeJob)
	purge.now = func() time.Time { return now }

	require.NoError(t, purge.Run(context.Background()))

	var remaining []uuid.UUID
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Pluck("id", &remaining).Error)
	assert.ElementsMatch(t, []uuid.UUID{recentPublished, retrying}, remaining)
}

func TestOutboxRetentionDefaults(t *testing.T) {
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     logger.Nop(),
		DB:         dbtest.Open(t),
		Repository: outbox.NewRepository(nil),
	})
	require.NoError(t, err)
	purge := job.(*purgeJob)
	assert.Equal(t, outboxRetentionDays, purge.retentionDays)
	assert.Equal(t, outboxMinAttempts, purge.extra["min_attempts"])

	_, err = NewOutboxRetentionJob(OutboxRetentionJobParams{Logger: logger.Nop()})
	assert.Error(t, err)
}

func seedOutboxEvent(t *testing.T, conn *gorm.DB, createdAt time.Time, publishedAt *time.Time, attempts int) uuid.UUID {
	t.Helper()
	event := models.OutboxEvent{
		EventType:     enums.EventVisitScheduled,
		AggregateType: enums.AggregateVisit,
		AggregateID:   uuid.New(),
		Payload:       `{}`,
		CreatedAt:     createdAt,
		PublishedAt:   publishedAt,
		AttemptCount:  attempts,
	}
	require.NoError(t, conn.Create(&event).Error)
	return event.ID
}
