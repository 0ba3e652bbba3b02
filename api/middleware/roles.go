package middleware

import (
	"net/http"

	"github.com/huellitas/huellitas-backend/api/responses"
	"github.com/huellitas/huellitas-backend/pkg/enums"
	"github.com/huellitas/huellitas-backend/pkg/logger"
)

// RequireRole rejects callers whose account role differs from role.
func RequireRole(role enums.UserRole, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := PrincipalFromContext(r.Context()).RequireRole(role); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
