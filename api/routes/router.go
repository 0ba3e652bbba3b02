package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/huellitas/huellitas-backend/api/controllers"
	"github.com/huellitas/huellitas-backend/api/middleware"
	"github.com/huellitas/huellitas-backend/internal/adoptions"
	"github.com/huellitas/huellitas-backend/internal/auth"
	"github.com/huellitas/huellitas-backend/internal/carnet"
	"github.com/huellitas/huellitas-backend/internal/followups"
	"github.com/huellitas/huellitas-backend/internal/notifications"
	"github.com/huellitas/huellitas-backend/internal/pets"
	"github.com/huellitas/huellitas-backend/internal/reminders"
	"github.com/huellitas/huellitas-backend/internal/visits"
	"github.com/huellitas/huellitas-backend/pkg/auth/session"
	"github.com/huellitas/huellitas-backend/pkg/config"
	"github.com/huellitas/huellitas-backend/pkg/enums"
	"github.com/huellitas/huellitas-backend/pkg/logger"
	"github.com/huellitas/huellitas-backend/pkg/metrics"
	"github.com/huellitas/huellitas-backend/pkg/redis"
)

// Dependencies groups everything the HTTP surface needs. Redis may be nil,
// which disables idempotency replay and auth rate limiting.
type Dependencies struct {
	DB       controllers.Pinger
	Redis    *redis.Client
	Sessions session.AccessSessionChecker
	Registry *prometheus.Registry

	Auth          auth.Service
	Pets          pets.Service
	Carnet        carnet.Service
	Adoptions     adoptions.Service
	Visits        visits.Service
	FollowUps     followups.Service
	Notifications notifications.Service
	Reminders     reminders.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()

	registry := deps.Registry
	if registry == nil {
		registry = metrics.NewRegistry()
	}

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
		middleware.Metrics(metrics.NewHTTPMetrics(registry)),
		middleware.Logging(logg),
	)

	readiness := map[string]controllers.Pinger{}
	if deps.DB != nil {
		readiness["database"] = deps.DB
	}
	// a nil *redis.Client stored in an interface is not nil, so convert explicitly
	var idempotencyStore redis.IdempotencyStore
	var limiterStore middleware.RateLimiterStore
	if deps.Redis != nil {
		readiness["redis"] = deps.Redis
		idempotencyStore = deps.Redis
		limiterStore = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler(registry))

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)
	authenticate := middleware.Auth(cfg.JWT, deps.Sessions, logg)
	idempotent := middleware.Idempotency(idempotencyStore, logg)
	foundationOnly := middleware.RequireRole(enums.UserRoleFoundation, logg)

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, limiterStore, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, limiterStore, logg), idempotent).Post("/register", controllers.AuthRegister(deps.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(deps.Auth, logg))
		r.With(authenticate).Get("/me", controllers.AuthMe(deps.Auth, logg))
	})

	r.Route("/api", func(r chi.Router) {
		// browsing the catalogue is public
		r.Get("/pets", controllers.PetList(deps.Pets, logg))
		r.Get("/pets/{id}", controllers.PetGet(deps.Pets, logg))

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(idempotent)

			r.Get("/pets/{id}/carnet", controllers.CarnetGet(deps.Carnet, logg))
			r.Group(func(r chi.Router) {
				r.Use(foundationOnly)
				r.Post("/pets", controllers.PetCreate(deps.Pets, logg))
				r.Put("/pets/{id}", controllers.PetUpdate(deps.Pets, logg))
				r.Delete("/pets/{id}", controllers.PetDelete(deps.Pets, logg))
				r.Patch("/pets/{id}/availability", controllers.PetSetAvailability(deps.Pets, logg))
				r.Post("/pets/{id}/carnet/{section}", controllers.CarnetAddEntry(deps.Carnet, logg))
				r.Delete("/pets/{id}/carnet/{kind}/{entryId}", controllers.CarnetDeleteEntry(deps.Carnet, logg))
			})

			r.Route("/adoption-requests", func(r chi.Router) {
				r.Post("/", controllers.AdoptionSubmit(deps.Adoptions, logg))
				r.Get("/{id}", controllers.AdoptionGet(deps.Adoptions, logg))
				r.Patch("/{id}/status", controllers.AdoptionUpdateStatus(deps.Adoptions, logg))
				r.Get("/foundation/{id}", controllers.AdoptionListByFoundation(deps.Adoptions, logg))
				r.Get("/foundation/{id}/stats", controllers.AdoptionStats(deps.Adoptions, logg))
				r.Get("/user/{id}", controllers.AdoptionListByUser(deps.Adoptions, logg))
			})

			r.Route("/visits", func(r chi.Router) {
				r.Post("/", controllers.VisitSchedule(deps.Visits, logg))
				r.Patch("/{id}/accept", controllers.VisitAccept(deps.Visits, logg))
				r.Patch("/{id}/status", controllers.VisitUpdateStatus(deps.Visits, logg))
				r.Patch("/{id}/suggest-reschedule", controllers.VisitSuggestReschedule(deps.Visits, logg))
				r.Patch("/{id}/approve-reschedule", controllers.VisitApproveReschedule(deps.Visits, logg))
				r.Patch("/{id}/reschedule", controllers.VisitReschedule(deps.Visits, logg))
				r.Get("/foundation/{id}", controllers.VisitListByFoundation(deps.Visits, logg))
				r.Get("/user/{id}", controllers.VisitListByUser(deps.Visits, logg))
			})

			r.Route("/follow-ups", func(r chi.Router) {
				r.Post("/", controllers.FollowUpCreate(deps.FollowUps, logg))
				r.Get("/{id}", controllers.FollowUpGet(deps.FollowUps, logg))
				r.Delete("/{id}", controllers.FollowUpDelete(deps.FollowUps, logg))
				r.Patch("/{id}/review", controllers.FollowUpReview(deps.FollowUps, logg))
				r.Get("/user/{id}", controllers.FollowUpListByUser(deps.FollowUps, logg))
				r.Get("/foundation/{id}", controllers.FollowUpListByFoundation(deps.FollowUps, logg))
				r.Get("/adoption/{id}", controllers.FollowUpListByAdoption(deps.FollowUps, logg))
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/user/{id}", controllers.ListNotifications(deps.Notifications, logg))
				r.Patch("/user/{id}/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
				r.Patch("/{id}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
			})

			r.Route("/reminders", func(r chi.Router) {
				r.Get("/user/{id}", controllers.ListReminders(deps.Reminders, logg))
				r.Patch("/{id}/read", controllers.MarkReminderRead(deps.Reminders, logg))
			})
		})
	})

	return r
}
