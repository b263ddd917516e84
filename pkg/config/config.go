package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Redis         RedisConfig
	Upstream      UpstreamConfig
	Kiosk         KioskConfig
	Orders        OrdersConfig
	Menu          MenuConfig
	AuthRateLimit AuthRateLimitConfig
	Session       SessionConfig
	CORS          CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PMCAFE_APP_ENV" required:"true"`
	Port         string `envconfig:"PMCAFE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"PMCAFE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PMCAFE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type RedisConfig struct {
	URL          string        `envconfig:"PMCAFE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PMCAFE_REDIS_ADDR"`
	Password     string        `envconfig:"PMCAFE_REDIS_PASSWORD"`
	DB           int           `envconfig:"PMCAFE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PMCAFE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PMCAFE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PMCAFE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PMCAFE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PMCAFE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// UpstreamConfig points at the café REST backend.
type UpstreamConfig struct {
	BaseURL string        `envconfig:"PMCAFE_UPSTREAM_BASE_URL" required:"true"`
	Timeout time.Duration `envconfig:"PMCAFE_UPSTREAM_TIMEOUT" default:"10s"`
}

type KioskConfig struct {
	OrderMode          string        `envconfig:"PMCAFE_KIOSK_ORDER_MODE" default:"remote"`
	Allocator          string        `envconfig:"PMCAFE_KIOSK_ALLOCATOR" default:"collision_aware"`
	MaxLineQuantity    int           `envconfig:"PMCAFE_KIOSK_MAX_LINE_QUANTITY" default:"10"`
	CompleteResetAfter time.Duration `envconfig:"PMCAFE_KIOSK_COMPLETE_RESET_AFTER" default:"10s"`
	SessionIdleTTL     time.Duration `envconfig:"PMCAFE_KIOSK_SESSION_IDLE_TTL" default:"30m"`
	SweepInterval      time.Duration `envconfig:"PMCAFE_KIOSK_SWEEP_INTERVAL" default:"1m"`
}

// Local reports whether orders stay in process instead of going to the backend.
func (k KioskConfig) Local() bool {
	return strings.EqualFold(strings.TrimSpace(k.OrderMode), OrderModeLocal)
}

type OrdersConfig struct {
	PollInterval time.Duration `envconfig:"PMCAFE_ORDERS_POLL_INTERVAL" default:"30s"`
	FetchLimit   int           `envconfig:"PMCAFE_ORDERS_FETCH_LIMIT" default:"100"`
}

type MenuConfig struct {
	CacheTTL     time.Duration `envconfig:"PMCAFE_MENU_CACHE_TTL" default:"10m"`
	WarmInterval time.Duration `envconfig:"PMCAFE_MENU_WARM_INTERVAL" default:"5m"`
}

type AuthRateLimitConfig struct {
	LoginWindow       time.Duration `envconfig:"PMCAFE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginUserLimit    int           `envconfig:"PMCAFE_AUTH_RATE_LIMIT_LOGIN_USER_LIMIT" default:"5"`
	LoginIPLimit      int           `envconfig:"PMCAFE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	CellAuthWindow    time.Duration `envconfig:"PMCAFE_AUTH_RATE_LIMIT_CELL_AUTH_WINDOW" default:"1m"`
	CellAuthIPLimit   int           `envconfig:"PMCAFE_AUTH_RATE_LIMIT_CELL_AUTH_IP_LIMIT" default:"30"`
	CellAuthCodeLimit int           `envconfig:"PMCAFE_AUTH_RATE_LIMIT_CELL_AUTH_CODE_LIMIT" default:"10"`
}

type SessionConfig struct {
	DefaultTTL     time.Duration `envconfig:"PMCAFE_SESSION_DEFAULT_TTL" default:"24h"`
	IdempotencyTTL time.Duration `envconfig:"PMCAFE_SESSION_IDEMPOTENCY_TTL" default:"10m"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"PMCAFE_CORS_ALLOWED_ORIGINS" default:"*"`
}

func (c *Config) validate() error {
	u, err := url.Parse(c.Upstream.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute url", EnvUpstreamBaseURL)
	}
	switch strings.ToLower(strings.TrimSpace(c.Kiosk.OrderMode)) {
	case OrderModeRemote, OrderModeLocal:
	default:
		return fmt.Errorf("%s must be %q or %q", EnvKioskOrderMode, OrderModeRemote, OrderModeLocal)
	}
	switch strings.ToLower(strings.TrimSpace(c.Kiosk.Allocator)) {
	case AllocatorSimple, AllocatorCollisionAware:
	default:
		return fmt.Errorf("%s must be %q or %q", EnvKioskAllocator, AllocatorSimple, AllocatorCollisionAware)
	}
	if c.Kiosk.MaxLineQuantity < 1 {
		return fmt.Errorf("%s must be at least 1", EnvKioskMaxLineQuantity)
	}
	if c.Orders.PollInterval <= 0 {
		return fmt.Errorf("%s must be positive", EnvOrdersPollInterval)
	}
	return nil
}
