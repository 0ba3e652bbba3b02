package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/huellitas/huellitas-backend/internal/cron"
	"github.com/huellitas/huellitas-backend/internal/notifications"
	"github.com/huellitas/huellitas-backend/internal/reminders"
	"github.com/huellitas/huellitas-backend/pkg/config"
	"github.com/huellitas/huellitas-backend/pkg/db"
	"github.com/huellitas/huellitas-backend/pkg/logger"
	"github.com/huellitas/huellitas-backend/pkg/metrics"
	"github.com/huellitas/huellitas-backend/pkg/migrate"
	"github.com/huellitas/huellitas-backend/pkg/outbox"
	"github.com/huellitas/huellitas-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(context.Background(), "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(context.Background(), "cron worker shutting down gracefully")
}

func run(cfg *config.Config, logg *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.App.Location()
	if err != nil {
		return err
	}
	schedule, err := cron.ParseSchedule(cfg.Cron.Schedule)
	if err != nil {
		return err
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := metrics.NewRegistry()
	jobMetrics := metrics.NewCronJobMetrics(registry)

	jobs, err := buildJobs(cfg, logg, dbClient, jobMetrics, loc)
	if err != nil {
		return err
	}
	lock, err := cron.NewRedisLock(redisClient, cron.LockName, cfg.Cron.LockTTL)
	if err != nil {
		return err
	}
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: jobs,
		Lock:     lock,
		Metrics:  jobMetrics,
		Schedule: schedule,
		Location: loc,
	})
	if err != nil {
		return err
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"schedule": cfg.Cron.Schedule,
		"timezone": loc.String(),
		"jobs":     jobs.Names(),
	})
	logg.Info(ctx, "starting cron worker")

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error { return service.Run(groupCtx) })
	group.Go(func() error { return metrics.Serve(groupCtx, ":"+cfg.App.Port, registry) })
	return group.Wait()
}

func buildJobs(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, jobMetrics *metrics.CronJobMetrics, loc *time.Location) (*cron.Registry, error) {
	conn := dbClient.DB()
	outboxRepo := outbox.NewRepository(conn)
	notificationsRepo := notifications.NewRepository(conn)
	notifier, err := notifications.NewEmitter(notificationsRepo, outbox.NewService(outboxRepo, logg))
	if err != nil {
		return nil, err
	}
	reminderService, err := reminders.NewService(reminders.NewRepository(conn), reminders.Options{
		WindowDays:       cfg.Workflow.ReminderWindowDays,
		PollAfterSeconds: cfg.Workflow.ReminderPollSeconds,
		Location:         loc,
	})
	if err != nil {
		return nil, err
	}

	reminderJob, err := cron.NewCarnetReminderJob(cron.CarnetReminderJobParams{
		Logger:    logg,
		DB:        dbClient,
		Reminders: reminderService,
		Notifier:  notifier,
		Metrics:   jobMetrics,
	})
	if err != nil {
		return nil, err
	}
	cleanupJob, err := cron.NewNotificationCleanupJob(cron.NotificationCleanupJobParams{
		Logger:     logg,
		Repository: notificationsRepo,
		Retention:  cfg.Cron.NotificationRetention,
	})
	if err != nil {
		return nil, err
	}
	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:      logg,
		DB:          dbClient,
		Repository:  outboxRepo,
		Retention:   cfg.Cron.OutboxRetention,
		MinAttempts: cfg.Outbox.MaxAttempts,
	})
	if err != nil {
		return nil, err
	}
	return cron.NewRegistry(reminderJob, cleanupJob, retentionJob)
}
