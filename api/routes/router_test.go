package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/huellitas/huellitas-backend/internal/pets"
	pkgAuth "github.com/huellitas/huellitas-backend/pkg/auth"
	"github.com/huellitas/huellitas-backend/pkg/auth/session"
	"github.com/huellitas/huellitas-backend/pkg/config"
	"github.com/huellitas/huellitas-backend/pkg/db/models"
	"github.com/huellitas/huellitas-backend/pkg/enums"
	"github.com/huellitas/huellitas-backend/pkg/logger"
	"github.com/huellitas/huellitas-backend/pkg/metrics"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessionManager struct{}

func (stubSessionManager) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type stubPetsService struct{}

func (stubPetsService) List(ctx context.Context, input pets.ListInput) (*pets.ListResult, error) {
	return &pets.ListResult{Items: []models.Pet{{ID: uuid.New(), Name: "Luna"}}}, nil
}

func (stubPetsService) Get(ctx context.Context, id uuid.UUID) (*models.Pet, error) {
	return &models.Pet{ID: id, Name: "Luna"}, nil
}

func (stubPetsService) Create(ctx context.Context, p pkgAuth.Principal, input pets.CreateInput) (*models.Pet, error) {
	return &models.Pet{ID: uuid.New(), FoundationID: p.UserID, Name: input.Name}, nil
}

func (stubPetsService) Update(ctx context.Context, p pkgAuth.Principal, id uuid.UUID, input pets.UpdateInput) (*models.Pet, error) {
	return &models.Pet{ID: id}, nil
}

func (stubPetsService) Delete(ctx context.Context, p pkgAuth.Principal, id uuid.UUID) error {
	return nil
}

func (stubPetsService) SetAvailability(ctx context.Context, p pkgAuth.Principal, id uuid.UUID, available bool) (*models.Pet, error) {
	return &models.Pet{ID: id, Available: available}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "issuer",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: "debug", Output: io.Discard})
	return NewRouter(cfg, logg, Dependencies{
		DB:       stubPinger{},
		Sessions: stubSessionManager{},
		Registry: metrics.NewRegistry(),
		Pets:     stubPetsService{},
	})
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(testConfig())

	if resp := serve(router, httptest.NewRequest(http.MethodGet, "/health/live", nil)); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for live got %d", resp.Code)
	}
	if resp := serve(router, httptest.NewRequest(http.MethodGet, "/health/ready", nil)); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for ready got %d", resp.Code)
	}
}

func TestPetCatalogueIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())

	resp := serve(router, httptest.NewRequest(http.MethodGet, "/api/pets", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for pet list got %d", resp.Code)
	}
	resp = serve(router, httptest.NewRequest(http.MethodGet, "/api/pets/"+uuid.NewString(), nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for pet detail got %d", resp.Code)
	}
}

func TestPrivateRoutesRejectMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/adoption-requests"},
		{http.MethodPatch, "/api/visits/" + uuid.NewString() + "/accept"},
		{http.MethodGet, "/api/notifications/user/" + uuid.NewString()},
		{http.MethodGet, "/api/pets/" + uuid.NewString() + "/carnet"},
		{http.MethodGet, "/api/v1/auth/me"},
	}
	for _, tc := range cases {
		resp := serve(router, httptest.NewRequest(tc.method, tc.path, nil))
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401 got %d", tc.method, tc.path, resp.Code)
		}
	}
}

func TestPetWritesRequireFoundationRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	path := "/api/pets/" + uuid.NewString() + "/availability"

	adopter := httptest.NewRequest(http.MethodPatch, path, strings.NewReader(`{"available":true}`))
	adopter.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdopter))
	if resp := serve(router, adopter); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for adopter got %d", resp.Code)
	}

	foundation := httptest.NewRequest(http.MethodPatch, path, strings.NewReader(`{"available":true}`))
	foundation.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleFoundation))
	if resp := serve(router, foundation); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for foundation got %d", resp.Code)
	}
}

func TestUnwiredServiceReportsInternalError(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/reminders/user/"+uuid.NewString(), nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdopter))
	if resp := serve(router, req); resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
}

func TestMetricsEndpointExposesRequestCounters(t *testing.T) {
	router := newTestRouter(testConfig())
	serve(router, httptest.NewRequest(http.MethodGet, "/api/pets", nil))

	resp := serve(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `huellitas_http_requests_total{method="GET",route="/api/pets",status="200"} 1`) {
		t.Fatalf("expected request counter in metrics output:\n%s", resp.Body.String())
	}
}
