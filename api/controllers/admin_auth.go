package controllers

import (
	"context"
	"net/http"

	"github.com/pmcafe/kiosk/api/responses"
	"github.com/pmcafe/kiosk/api/validators"
	"github.com/pmcafe/kiosk/internal/auth"
	pkgerrors "github.com/pmcafe/kiosk/pkg/errors"
	"github.com/pmcafe/kiosk/pkg/logger"
	"github.com/pmcafe/kiosk/pkg/models"
)

// AdminAuthService is the login surface used by the admin auth endpoints.
type AdminAuthService interface {
	Login(ctx context.Context, req auth.LoginRequest) (auth.LoginResponse, error)
	Verify(ctx context.Context, sessionID string) (models.AdminUser, error)
	Logout(ctx context.Context, sessionID string) error
}

func AdminLogin(svc AdminAuthService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}
		var payload auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payload.Username = validators.SanitizeString(payload.Username, 64)
		res, err := svc.Login(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, res)
	}
}

// AdminVerify confirms the session against the backend and returns the admin.
func AdminVerify(svc AdminAuthService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}
		sessionID, err := validators.ParseBearer(r.Header.Get("Authorization"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}
		user, err := svc.Verify(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

// AdminLogout drops the session. Logging out twice is not an error.
func AdminLogout(svc AdminAuthService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}
		sessionID, err := validators.ParseBearer(r.Header.Get("Authorization"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}
		if err := svc.Logout(r.Context(), sessionID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
