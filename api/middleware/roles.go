package middleware

import (
	"net/http"

	"github.com/pmcafe/kiosk/api/responses"
	"github.com/pmcafe/kiosk/pkg/enums"
	pkgerrors "github.com/pmcafe/kiosk/pkg/errors"
	"github.com/pmcafe/kiosk/pkg/logger"
)

// RequireAdminRole admits only admins holding role. Mount after AdminAuth.
func RequireAdminRole(role enums.AdminRole, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			admin, ok := AdminFromContext(r.Context())
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}
			if admin.Role != role {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "role required").
					WithDetails(map[string]string{"required": role.String()}))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
