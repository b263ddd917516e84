package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pmcafe/kiosk/api/controllers"
	"github.com/pmcafe/kiosk/api/middleware"
	"github.com/pmcafe/kiosk/internal/backoffice"
	"github.com/pmcafe/kiosk/internal/cells"
	"github.com/pmcafe/kiosk/pkg/auth/session"
	"github.com/pmcafe/kiosk/pkg/config"
	"github.com/pmcafe/kiosk/pkg/enums"
	"github.com/pmcafe/kiosk/pkg/logger"
	pkgredis "github.com/pmcafe/kiosk/pkg/redis"
)

// redisStore is everything the HTTP layer needs from redis.
type redisStore interface {
	pkgredis.Pinger
	pkgredis.IdempotencyStore
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

type adminAuthService interface {
	controllers.AdminAuthService
	Authenticate(ctx context.Context, sessionID string) (session.Session, error)
}

// Dependencies are the services the router dispatches to.
type Dependencies struct {
	Redis      redisStore
	Metrics    prometheus.Gatherer
	Sessions   controllers.KioskSessions
	Menus      controllers.MenuReader
	Orders     controllers.OrderBoard
	Cells      cells.Service
	Auth       adminAuthService
	Backoffice backoffice.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	cellAuthPolicy := middleware.NewAuthRateLimitPolicy(
		"cell-auth",
		cfg.AuthRateLimit.CellAuthWindow,
		cfg.AuthRateLimit.CellAuthIPLimit,
		"phoneLast4",
		cfg.AuthRateLimit.CellAuthCodeLimit,
	)
	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"admin-login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		"username",
		cfg.AuthRateLimit.LoginUserLimit,
	)
	idempotent := middleware.Idempotency(deps.Redis, cfg.Session.IdempotencyTTL, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.Redis, logg))
	})
	if deps.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/kiosk/sessions", func(r chi.Router) {
			r.Post("/", controllers.KioskOpenSession(deps.Sessions, logg))
			r.Route("/{sessionId}", func(r chi.Router) {
				r.Get("/", controllers.KioskGetSession(deps.Sessions, logg))
				r.Delete("/", controllers.KioskCloseSession(deps.Sessions, logg))
				r.Post("/payment-mode", controllers.KioskSelectPaymentMode(deps.Sessions, logg))
				r.With(middleware.AuthRateLimit(cellAuthPolicy, deps.Redis, logg)).
					Post("/cell-auth", controllers.KioskCellAuth(deps.Sessions, deps.Cells, logg))
				r.Post("/back", controllers.KioskBack(deps.Sessions, logg))
				r.Post("/category", controllers.KioskSelectCategory(deps.Sessions, logg))
				r.Post("/cart/items", controllers.KioskAddItem(deps.Sessions, deps.Menus, logg))
				r.Patch("/cart/items/{cartId}", controllers.KioskUpdateItem(deps.Sessions, logg))
				r.Delete("/cart/items/{cartId}", controllers.KioskRemoveItem(deps.Sessions, logg))
				r.With(idempotent).Post("/submit", controllers.KioskSubmit(deps.Sessions, logg))
				r.With(idempotent).Post("/payment/confirm", controllers.KioskConfirmPayment(deps.Sessions, logg))
				r.Post("/reset", controllers.KioskReset(deps.Sessions, logg))
			})
		})

		r.Route("/menus", func(r chi.Router) {
			r.Get("/", controllers.MenuList(deps.Menus, logg))
			r.Get("/categories", controllers.MenuCategories(deps.Menus, logg))
			r.Get("/{menuId}", controllers.MenuDetail(deps.Menus, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(deps.Orders, logg))
			r.Post("/refresh", controllers.OrderRefresh(deps.Orders, logg))
			r.Patch("/{orderId}/status", controllers.OrderUpdateStatus(deps.Orders, logg))
		})

		r.Route("/barista", func(r chi.Router) {
			r.Get("/board", controllers.BaristaBoard(deps.Orders, logg))
			r.Post("/orders/{orderId}/advance", controllers.BaristaAdvance(deps.Orders, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).
				Post("/login", controllers.AdminLogin(deps.Auth, logg))
			r.Get("/verify", controllers.AdminVerify(deps.Auth, logg))
			r.Post("/logout", controllers.AdminLogout(deps.Auth, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminAuth(deps.Auth, logg))

			// registered flat so the idempotency rules see the full pattern
			r.Get("/cells", controllers.AdminCellList(deps.Cells, logg))
			r.With(idempotent).Post("/cells", controllers.AdminCellCreate(deps.Cells, logg))
			r.With(idempotent).Post("/cells/{cellId}/charge", controllers.AdminCellCharge(deps.Cells, logg))
			r.Get("/cells/{cellId}/charge/preview", controllers.AdminCellChargePreview(logg))
			r.Get("/cells/{cellId}/transactions", controllers.AdminCellTransactions(deps.Cells, logg))

			r.Route("/settlements", func(r chi.Router) {
				r.Get("/", controllers.AdminSettlementList(deps.Backoffice, logg))
				r.Get("/{date}", controllers.AdminSettlementGet(deps.Backoffice, logg))
				r.With(middleware.RequireAdminRole(enums.AdminRoleSuper, logg)).
					Post("/{date}/confirm", controllers.AdminSettlementConfirm(deps.Backoffice, logg))
			})

			r.Route("/statistics", func(r chi.Router) {
				r.Get("/dashboard", controllers.AdminDashboard(deps.Backoffice, logg))
				r.Get("/menus", controllers.AdminMenuStats(deps.Backoffice, logg))
				r.Get("/daily", controllers.AdminDailyStats(deps.Backoffice, logg))
			})
		})
	})

	return r
}
