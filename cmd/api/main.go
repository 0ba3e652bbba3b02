package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"github.com/huellitas/huellitas-backend/api/routes"
	"github.com/huellitas/huellitas-backend/internal/adoptions"
	"github.com/huellitas/huellitas-backend/internal/auth"
	"github.com/huellitas/huellitas-backend/internal/carnet"
	"github.com/huellitas/huellitas-backend/internal/followups"
	"github.com/huellitas/huellitas-backend/internal/notifications"
	"github.com/huellitas/huellitas-backend/internal/pets"
	"github.com/huellitas/huellitas-backend/internal/reminders"
	"github.com/huellitas/huellitas-backend/internal/users"
	"github.com/huellitas/huellitas-backend/internal/visits"
	"github.com/huellitas/huellitas-backend/pkg/auth/session"
	"github.com/huellitas/huellitas-backend/pkg/config"
	"github.com/huellitas/huellitas-backend/pkg/db"
	"github.com/huellitas/huellitas-backend/pkg/logger"
	"github.com/huellitas/huellitas-backend/pkg/metrics"
	"github.com/huellitas/huellitas-backend/pkg/migrate"
	"github.com/huellitas/huellitas-backend/pkg/outbox"
	"github.com/huellitas/huellitas-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.App.Location()
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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	deps, err := buildServices(cfg, logg, dbClient, sessionManager, loc)
	if err != nil {
		return err
	}
	deps.DB = dbClient
	deps.Redis = redisClient
	deps.Sessions = sessionManager
	deps.Registry = metrics.NewRegistry()

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"timezone": loc.String(),
	})
	logg.Info(logCtx, "starting api server")

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, sessions *session.Manager, loc *time.Location) (routes.Dependencies, error) {
	var deps routes.Dependencies
	conn := dbClient.DB()

	outboxService := outbox.NewService(outbox.NewRepository(conn), logg)
	notificationsRepo := notifications.NewRepository(conn)
	notifier, err := notifications.NewEmitter(notificationsRepo, outboxService)
	if err != nil {
		return deps, err
	}

	if deps.Auth, err = auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(conn),
		SessionManager: sessions,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	}); err != nil {
		return deps, err
	}
	if deps.Pets, err = pets.NewService(pets.NewRepository(conn)); err != nil {
		return deps, err
	}
	if deps.Carnet, err = carnet.NewService(carnet.NewRepository(conn)); err != nil {
		return deps, err
	}
	if deps.Adoptions, err = adoptions.NewService(adoptions.NewRepository(conn), dbClient, outboxService, notifier); err != nil {
		return deps, err
	}
	if deps.Visits, err = visits.NewService(visits.NewRepository(conn), dbClient, outboxService, notifier, loc); err != nil {
		return deps, err
	}
	if deps.FollowUps, err = followups.NewService(followups.NewRepository(conn), dbClient, outboxService, notifier); err != nil {
		return deps, err
	}
	if deps.Notifications, err = notifications.NewService(notificationsRepo, cfg.Workflow.NotificationPollSeconds); err != nil {
		return deps, err
	}
	if deps.Reminders, err = reminders.NewService(reminders.NewRepository(conn), reminders.Options{
		WindowDays:       cfg.Workflow.ReminderWindowDays,
		PollAfterSeconds: cfg.Workflow.ReminderPollSeconds,
		Location:         loc,
	}); err != nil {
		return deps, err
	}
	return deps, nil
}
