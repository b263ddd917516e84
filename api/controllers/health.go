package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/pmcafe/kiosk/api/responses"
	"github.com/pmcafe/kiosk/pkg/config"
	pkgerrors "github.com/pmcafe/kiosk/pkg/errors"
	"github.com/pmcafe/kiosk/pkg/logger"
	pkgredis "github.com/pmcafe/kiosk/pkg/redis"
)

const (
	envHeader    = "X-PMCafe-Env"
	readyTimeout = 2 * time.Second
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready once Redis answers a ping.
func HealthReady(cfg *config.Config, redis pkgredis.Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		if redis != nil {
			ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
			defer cancel()
			if err := redis.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
