package middleware

import (
	"context"
	"net/http"

	"github.com/pmcafe/kiosk/api/responses"
	"github.com/pmcafe/kiosk/api/validators"
	"github.com/pmcafe/kiosk/pkg/auth/session"
	"github.com/pmcafe/kiosk/pkg/cafeapi"
	pkgerrors "github.com/pmcafe/kiosk/pkg/errors"
	"github.com/pmcafe/kiosk/pkg/logger"
)

// SessionAuthenticator resolves an admin session id.
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, sessionID string) (session.Session, error)
}

// AdminAuth reads the admin session id from the Authorization header, loads
// the session and attaches its backend token for downstream cafeapi calls.
func AdminAuth(auth SessionAuthenticator, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID, err := validators.ParseBearer(r.Header.Get("Authorization"))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			sess, err := auth.Authenticate(r.Context(), sessionID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithAdminSession(r.Context(), sess)
			ctx = cafeapi.WithToken(ctx, sess.Token)
			if logg != nil {
				ctx = logg.WithAdmin(ctx, sess.User.Username)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
