package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/huellitas/huellitas-backend/api/middleware"
	"github.com/huellitas/huellitas-backend/pkg/auth"
	"github.com/huellitas/huellitas-backend/pkg/enums"
	"github.com/huellitas/huellitas-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func foundationPrincipal() auth.Principal {
	return auth.Principal{UserID: uuid.New(), Role: enums.UserRoleFoundation}
}

func adopterPrincipal() auth.Principal {
	return auth.Principal{UserID: uuid.New(), Role: enums.UserRoleAdopter}
}

func withPrincipal(req *http.Request, p auth.Principal) *http.Request {
	return req.WithContext(middleware.WithPrincipal(req.Context(), p))
}

func addRouteParams(req *http.Request, kv ...string) *http.Request {
	routeCtx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		routeCtx.URLParams.Add(kv[i], kv[i+1])
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

type errorEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, body []byte) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("unmarshal error response: %v", err)
	}
	return env
}
