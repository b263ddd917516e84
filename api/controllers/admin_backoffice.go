package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pmcafe/kiosk/api/middleware"
	"github.com/pmcafe/kiosk/api/responses"
	"github.com/pmcafe/kiosk/api/validators"
	"github.com/pmcafe/kiosk/internal/backoffice"
	"github.com/pmcafe/kiosk/pkg/cafeapi"
	pkgerrors "github.com/pmcafe/kiosk/pkg/errors"
	"github.com/pmcafe/kiosk/pkg/logger"
)

func parseDateRange(r *http.Request) (cafeapi.DateRange, error) {
	start, err := validators.ParseQueryDate(r, "startDate")
	if err != nil {
		return cafeapi.DateRange{}, err
	}
	end, err := validators.ParseQueryDate(r, "endDate")
	if err != nil {
		return cafeapi.DateRange{}, err
	}
	return cafeapi.DateRange{StartDate: start, EndDate: end}, nil
}

// AdminSettlementList returns daily closes in ?startDate=&endDate=, optionally
// filtered by ?confirmed=.
func AdminSettlementList(svc backoffice.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "backoffice service unavailable"))
			return
		}
		rng, err := parseDateRange(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		confirmed, err := validators.ParseQueryBool(r, "confirmed")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.Settlements(r.Context(), rng, confirmed)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func AdminSettlementGet(svc backoffice.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "backoffice service unavailable"))
			return
		}
		settlement, err := svc.Settlement(r.Context(), chi.URLParam(r, "date"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, settlement)
	}
}

type confirmSettlementRequest struct {
	Notes string `json:"notes"`
}

func AdminSettlementConfirm(svc backoffice.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "backoffice service unavailable"))
			return
		}
		admin, ok := middleware.AdminFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "admin session required"))
			return
		}
		var payload confirmSettlementRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		settlement, err := svc.ConfirmSettlement(r.Context(), admin, chi.URLParam(r, "date"), payload.Notes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, settlement)
	}
}

// AdminDashboard returns the summary for ?date=, today when omitted.
func AdminDashboard(svc backoffice.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "backoffice service unavailable"))
			return
		}
		date, err := validators.ParseQueryDate(r, "date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		stats, err := svc.Dashboard(r.Context(), date)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

func AdminMenuStats(svc backoffice.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "backoffice service unavailable"))
			return
		}
		rng, err := parseDateRange(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		stats, err := svc.MenuStats(r.Context(), rng, strings.TrimSpace(r.URL.Query().Get("categoryId")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

func AdminDailyStats(svc backoffice.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "backoffice service unavailable"))
			return
		}
		rng, err := parseDateRange(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		stats, err := svc.DailyStats(r.Context(), rng)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}
