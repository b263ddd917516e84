package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pmcafe/kiosk/api/responses"
	"github.com/pmcafe/kiosk/api/validators"
	"github.com/pmcafe/kiosk/internal/cells"
	"github.com/pmcafe/kiosk/pkg/cafeapi"
	pkgerrors "github.com/pmcafe/kiosk/pkg/errors"
	"github.com/pmcafe/kiosk/pkg/logger"
)

func AdminCellList(svc cells.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cell service unavailable"))
			return
		}
		includeInactive, err := validators.ParseQueryBool(r, "includeInactive")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.List(r.Context(), includeInactive != nil && *includeInactive)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

type createCellRequest struct {
	Name       string `json:"name" validate:"required,max=50"`
	Leader     string `json:"leader" validate:"required,max=50"`
	PhoneLast4 string `json:"phoneLast4" validate:"required,phone4"`
}

func AdminCellCreate(svc cells.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cell service unavailable"))
			return
		}
		var payload createCellRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cell, err := svc.Create(r.Context(), cafeapi.NewCell{
			Name:       validators.SanitizeString(payload.Name, 50),
			Leader:     validators.SanitizeString(payload.Leader, 50),
			PhoneLast4: payload.PhoneLast4,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, cell)
	}
}

type chargeCellRequest struct {
	Amount    int    `json:"amount" validate:"required,min=1,max=10000000"`
	BonusRate int    `json:"bonusRate" validate:"min=0,max=100"`
	Memo      string `json:"memo" validate:"max=200"`
}

func AdminCellCharge(svc cells.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cell service unavailable"))
			return
		}
		var payload chargeCellRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cellID := chi.URLParam(r, "cellId")
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithField(ctx, "cell_id", cellID)
		}
		res, err := svc.Charge(ctx, cellID, cafeapi.ChargeRequest{
			Amount:    payload.Amount,
			BonusRate: payload.BonusRate,
			Memo:      validators.SanitizeString(payload.Memo, 200),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, res)
	}
}

// AdminCellChargePreview computes the bonus for ?amount=&bonusRate= without
// touching the backend.
func AdminCellChargePreview(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		amount, err := validators.ParseQueryInt(r, "amount", 0, 0, 10000000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rate, err := validators.ParseQueryInt(r, "bonusRate", 0, 0, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		preview, err := cells.PreviewCharge(amount, rate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, preview)
	}
}

func AdminCellTransactions(svc cells.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cell service unavailable"))
			return
		}
		q := r.URL.Query()
		txType, err := cells.TransactionTypeFilter(q.Get("type"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := parseOptionalInt(q.Get("limit"), "limit")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := parseOptionalInt(q.Get("offset"), "offset")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.Transactions(r.Context(), chi.URLParam(r, "cellId"), cafeapi.TransactionParams{
			StartDate: strings.TrimSpace(q.Get("startDate")),
			EndDate:   strings.TrimSpace(q.Get("endDate")),
			Type:      txType,
			Limit:     limit,
			Offset:    offset,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// parseOptionalInt leaves range checks to the service, which clamps limits.
func parseOptionalInt(raw, field string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be a non-negative number").
			WithDetails(map[string]any{"field": field})
	}
	return v, nil
}
