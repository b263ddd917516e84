package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pmcafe/kiosk/api/responses"
	"github.com/pmcafe/kiosk/api/validators"
	"github.com/pmcafe/kiosk/internal/kiosk"
	"github.com/pmcafe/kiosk/internal/options"
	"github.com/pmcafe/kiosk/pkg/enums"
	pkgerrors "github.com/pmcafe/kiosk/pkg/errors"
	"github.com/pmcafe/kiosk/pkg/logger"
	"github.com/pmcafe/kiosk/pkg/models"
)

const idempotencyHeader = "Idempotency-Key"

// KioskSessions is the session registry the kiosk endpoints drive.
type KioskSessions interface {
	Open(ctx context.Context) (*kiosk.Controller, error)
	Get(id string) (*kiosk.Controller, error)
	Close(id string) bool
}

// CellAuthenticator resolves a cell from the leader phone code.
type CellAuthenticator interface {
	Authenticate(ctx context.Context, phoneLast4 string) (models.CellInfo, error)
}

// MenuReader is the catalog surface used by the kiosk and menu endpoints.
type MenuReader interface {
	List(ctx context.Context, category enums.Category) ([]models.MenuItem, error)
	Detail(ctx context.Context, menuID string) (models.MenuItem, error)
	Categories(ctx context.Context) ([]models.MenuCategory, error)
}

type kioskHandler func(w http.ResponseWriter, r *http.Request, ctrl *kiosk.Controller)

// withSession resolves {sessionId} and tags the log context with it.
func withSession(sessions KioskSessions, logg *logger.Logger, next kioskHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessions == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "kiosk sessions unavailable"))
			return
		}
		id := chi.URLParam(r, "sessionId")
		ctrl, err := sessions.Get(id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if logg != nil {
			r = r.WithContext(logg.WithSessionID(r.Context(), id))
		}
		next(w, r, ctrl)
	}
}

// KioskOpenSession starts a session on the HOME screen.
func KioskOpenSession(sessions KioskSessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, err := sessions.Open(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, ctrl.Snapshot())
	}
}

func KioskGetSession(sessions KioskSessions, logg *logger.Logger) http.HandlerFunc {
	return withSession(sessions, logg, func(w http.ResponseWriter, r *http.Request, ctrl *kiosk.Controller) {
		responses.WriteSuccess(w, ctrl.Snapshot())
	})
}

func KioskCloseSession(sessions KioskSessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "sessionId")
		if !sessions.Close(id) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "kiosk session not found").
				WithDetails(map[string]string{"sessionId": id}))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type paymentModeRequest struct {
	PayType enums.PaymentMode `json:"payType" validate:"required,oneof=CELL PERSONAL"`
}

func KioskSelectPaymentMode(sessions KioskSessions, logg *logger.Logger) http.HandlerFunc {
	return withSession(sessions, logg, func(w http.ResponseWriter, r *http.Request, ctrl *kiosk.Controller) {
		var payload paymentModeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeTransition(w, r, logg, ctrl, ctrl.SelectPaymentMode(payload.PayType))
	})
}

type cellAuthRequest struct {
	PhoneLast4 string `json:"phoneLast4" validate:"required,phone4"`
}

// KioskCellAuth authenticates the cell and moves the session to the menu.
func KioskCellAuth(sessions KioskSessions, cells CellAuthenticator, logg *logger.Logger) http.HandlerFunc {
	return withSession(sessions, logg, func(w http.ResponseWriter, r *http.Request, ctrl *kiosk.Controller) {
		var payload cellAuthRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !ctrl.InCellAuth() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeStateConflict, kiosk.ErrInvalidTransition, "셀 인증 화면이 아닙니다"))
			return
		}
		cell, err := cells.Authenticate(r.Context(), payload.PhoneLast4)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeTransition(w, r, logg, ctrl, ctrl.AuthSuccess(cell))
	})
}

type backRequest struct {
	ConfirmDiscard bool `json:"confirmDiscard"`
}

func KioskBack(sessions KioskSessions, logg *logger.Logger) http.HandlerFunc {
	return withSession(sessions, logg, func(w http.ResponseWriter, r *http.Request, ctrl *kiosk.Controller) {
		var payload backRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeTransition(w, r, logg, ctrl, ctrl.Back(payload.ConfirmDiscard))
	})
}

type categoryRequest struct {
	Category enums.Category `json:"category"`
}

func KioskSelectCategory(sessions KioskSessions, logg *logger.Logger) http.HandlerFunc {
	return withSession(sessions, logg, func(w http.ResponseWriter, r *http.Request, ctrl *kiosk.Controller) {
		var payload categoryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeTransition(w, r, logg, ctrl, ctrl.SelectCategory(payload.Category))
	})
}

type optionPickRequest struct {
	GroupID string   `json:"groupId" validate:"required"`
	ItemIDs []string `json:"itemIds" validate:"max=20,dive,required"`
}

type addItemRequest struct {
	MenuID   string              `json:"menuId" validate:"required"`
	Quantity int                 `json:"quantity" validate:"omitempty,min=1,max=99"`
	Options  []optionPickRequest `json:"options" validate:"max=20,dive"`
}

// KioskAddItem configures a menu item from the display's picks and appends it
// to the cart. Identical requests always produce separate lines.
func KioskAddItem(sessions KioskSessions, menus MenuReader, logg *logger.Logger) http.HandlerFunc {
	return withSession(sessions, logg, func(w http.ResponseWriter, r *http.Request, ctrl *kiosk.Controller) {
		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		menu, err := menus.Detail(r.Context(), payload.MenuID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		picks := make([]options.Pick, 0, len(payload.Options))
		for _, p := range payload.Options {
			picks = append(picks, options.Pick{GroupID: p.GroupID, ItemIDs: p.ItemIDs})
		}
		quantity := payload.Quantity
		if quantity == 0 {
			quantity = 1
		}
		selection, err := options.FromPicks(menu, picks, quantity, ctrl.MaxLineQuantity())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := selection.Build(options.NewID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := ctrl.AddItem(item); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, ctrl.Snapshot())
	})
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"min=0,max=99"`
}

// KioskUpdateItem sets a line's quantity, clamped to [1, max]. Lines are
// removed with KioskRemoveItem.
func KioskUpdateItem(sessions KioskSessions, logg *logger.Logger) http.HandlerFunc {
	return withSession(sessions, logg, func(w http.ResponseWriter, r *http.Request, ctrl *kiosk.Controller) {
		var payload updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		_, err := ctrl.UpdateQuantity(chi.URLParam(r, "cartId"), payload.Quantity)
		writeTransition(w, r, logg, ctrl, err)
	})
}

func KioskRemoveItem(sessions KioskSessions, logg *logger.Logger) http.HandlerFunc {
	return withSession(sessions, logg, func(w http.ResponseWriter, r *http.Request, ctrl *kiosk.Controller) {
		writeTransition(w, r, logg, ctrl, ctrl.RemoveItem(chi.URLParam(r, "cartId")))
	})
}

type submitResponse struct {
	Session kiosk.Snapshot `json:"session"`
	Order   *models.Order  `json:"order,omitempty"`
}

// KioskSubmit checks out the cart. Cell orders come back committed; personal
// orders move the session to the QR screen and return no order yet.
func KioskSubmit(sessions KioskSessions, logg *logger.Logger) http.HandlerFunc {
	return withSession(sessions, logg, func(w http.ResponseWriter, r *http.Request, ctrl *kiosk.Controller) {
		order, err := ctrl.SubmitOrder(r.Context(), idempotencyKey(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := http.StatusOK
		if order != nil {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, submitResponse{Session: ctrl.Snapshot(), Order: order})
	})
}

// KioskConfirmPayment commits the parked personal order.
func KioskConfirmPayment(sessions KioskSessions, logg *logger.Logger) http.HandlerFunc {
	return withSession(sessions, logg, func(w http.ResponseWriter, r *http.Request, ctrl *kiosk.Controller) {
		order, err := ctrl.ConfirmPayment(r.Context(), idempotencyKey(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, submitResponse{Session: ctrl.Snapshot(), Order: &order})
	})
}

func KioskReset(sessions KioskSessions, logg *logger.Logger) http.HandlerFunc {
	return withSession(sessions, logg, func(w http.ResponseWriter, r *http.Request, ctrl *kiosk.Controller) {
		writeTransition(w, r, logg, ctrl, ctrl.Reset())
	})
}

func writeTransition(w http.ResponseWriter, r *http.Request, logg *logger.Logger, ctrl *kiosk.Controller, err error) {
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccess(w, ctrl.Snapshot())
}

func idempotencyKey(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(idempotencyHeader))
}
