package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/pmcafe/kiosk/api/routes"
	"github.com/pmcafe/kiosk/internal/auth"
	"github.com/pmcafe/kiosk/internal/backoffice"
	"github.com/pmcafe/kiosk/internal/cells"
	"github.com/pmcafe/kiosk/internal/checkout"
	"github.com/pmcafe/kiosk/internal/kiosk"
	"github.com/pmcafe/kiosk/internal/menu"
	"github.com/pmcafe/kiosk/internal/ordernum"
	"github.com/pmcafe/kiosk/internal/orders"
	"github.com/pmcafe/kiosk/internal/scheduler"
	"github.com/pmcafe/kiosk/pkg/auth/session"
	"github.com/pmcafe/kiosk/pkg/cafeapi"
	"github.com/pmcafe/kiosk/pkg/config"
	"github.com/pmcafe/kiosk/pkg/logger"
	"github.com/pmcafe/kiosk/pkg/metrics"
	"github.com/pmcafe/kiosk/pkg/redis"
)

const (
	serviceName     = "kiosk"
	shutdownTimeout = 15 * time.Second
	menuLockFormat  = "pmc:scheduler:lock:%s:menu-warm"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "kiosk server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("bootstrap redis: %w", err)
	}
	defer func() {
		err = multierr.Append(err, redisClient.Close())
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	orderMetrics := metrics.NewOrderMetrics(reg)
	jobMetrics := metrics.NewJobMetrics(reg)

	api, err := cafeapi.NewClient(cfg.Upstream.BaseURL, cafeapi.WithTimeout(cfg.Upstream.Timeout))
	if err != nil {
		return fmt.Errorf("build cafe api client: %w", err)
	}

	sessions, err := session.NewManager(redisClient)
	if err != nil {
		return fmt.Errorf("build session manager: %w", err)
	}
	authService, err := auth.NewService(auth.ServiceParams{
		API:        api,
		Sessions:   sessions,
		SessionTTL: cfg.Session.DefaultTTL,
		Logger:     logg,
	})
	if err != nil {
		return fmt.Errorf("build auth service: %w", err)
	}
	api.SetUnauthorizedHook(authService.RevokeToken)

	gateway, err := newGateway(cfg, api)
	if err != nil {
		return err
	}
	repo, err := orders.NewRepository(orders.RepositoryParams{
		Gateway:    gateway,
		Logger:     logg,
		Metrics:    orderMetrics,
		FetchLimit: cfg.Orders.FetchLimit,
	})
	if err != nil {
		return fmt.Errorf("build order repository: %w", err)
	}

	allocator, err := ordernum.ParseStrategy(cfg.Kiosk.Allocator)
	if err != nil {
		return err
	}
	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Repository: repo,
		Gateway:    gateway,
		Allocator:  allocator,
		Logger:     logg,
		Metrics:    orderMetrics,
	})
	if err != nil {
		return fmt.Errorf("build checkout service: %w", err)
	}

	kioskManager, err := kiosk.NewManager(kiosk.ManagerParams{
		Submitter:       checkoutService,
		MaxLineQuantity: cfg.Kiosk.MaxLineQuantity,
		ResetAfter:      cfg.Kiosk.CompleteResetAfter,
		IdleTTL:         cfg.Kiosk.SessionIdleTTL,
		Logger:          logg,
		Metrics:         orderMetrics,
	})
	if err != nil {
		return fmt.Errorf("build kiosk manager: %w", err)
	}
	defer kioskManager.CloseAll()

	menuService, err := menu.NewService(menu.ServiceParams{
		API:    api,
		Cache:  redisClient,
		TTL:    cfg.Menu.CacheTTL,
		Logger: logg,
	})
	if err != nil {
		return fmt.Errorf("build menu service: %w", err)
	}
	cellService, err := cells.NewService(api, logg)
	if err != nil {
		return fmt.Errorf("build cell service: %w", err)
	}
	backofficeService, err := backoffice.NewService(api, logg)
	if err != nil {
		return fmt.Errorf("build backoffice service: %w", err)
	}

	jobs, err := newScheduler(cfg, logg, jobMetrics, redisClient, repo, menuService, kioskManager)
	if err != nil {
		return err
	}

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Dependencies{
			Redis:      redisClient,
			Metrics:    reg,
			Sessions:   kioskManager,
			Menus:      menuService,
			Orders:     repo,
			Cells:      cellService,
			Auth:       authService,
			Backoffice: backofficeService,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":        cfg.App.Env,
		"addr":       addr,
		"order_mode": cfg.Kiosk.OrderMode,
	})
	logg.Info(ctx, "starting kiosk server")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := jobs.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("scheduler: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logg.Info(ctx, "kiosk server shutting down gracefully")
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newGateway(cfg *config.Config, api *cafeapi.Client) (orders.Gateway, error) {
	if cfg.Kiosk.Local() {
		return orders.NewLocalGateway(), nil
	}
	gw, err := orders.NewRemoteGateway(api)
	if err != nil {
		return nil, fmt.Errorf("build order gateway: %w", err)
	}
	return gw, nil
}

func newScheduler(
	cfg *config.Config,
	logg *logger.Logger,
	jobMetrics *metrics.JobMetrics,
	redisClient *redis.Client,
	repo *orders.Repository,
	menuService *menu.Service,
	kioskManager *kiosk.Manager,
) (*scheduler.Service, error) {
	refreshJob, err := orders.NewRefreshJob(repo, nil)
	if err != nil {
		return nil, err
	}
	warmJob, err := menu.NewWarmJob(menuService)
	if err != nil {
		return nil, err
	}
	sweepJob, err := kiosk.NewSweepJob(kioskManager)
	if err != nil {
		return nil, err
	}
	env := cfg.App.Env
	if env == "" {
		env = "local"
	}
	// only one instance warms the shared cache per cycle
	menuLock, err := scheduler.NewRedisLock(redisClient, fmt.Sprintf(menuLockFormat, env), cfg.Menu.WarmInterval)
	if err != nil {
		return nil, err
	}

	registry := scheduler.NewRegistry(
		scheduler.Entry{Job: refreshJob, Interval: cfg.Orders.PollInterval},
		scheduler.Entry{Job: warmJob, Interval: cfg.Menu.WarmInterval, Lock: menuLock},
		scheduler.Entry{Job: sweepJob, Interval: cfg.Kiosk.SweepInterval},
	)
	return scheduler.NewService(scheduler.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Metrics:  jobMetrics,
	})
}
