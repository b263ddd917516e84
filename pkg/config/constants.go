package config

const (
	EnvPrefix = "PMCAFE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	OrderModeRemote = "remote"
	OrderModeLocal  = "local"

	AllocatorSimple         = "simple"
	AllocatorCollisionAware = "collision_aware"
)

const (
	EnvAppEnv               = "PMCAFE_APP_ENV"
	EnvPort                 = "PMCAFE_APP_PORT"
	EnvLogLevel             = "PMCAFE_LOG_LEVEL"
	EnvRedisURL             = "PMCAFE_REDIS_URL"
	EnvUpstreamBaseURL      = "PMCAFE_UPSTREAM_BASE_URL"
	EnvUpstreamTimeout      = "PMCAFE_UPSTREAM_TIMEOUT"
	EnvKioskOrderMode       = "PMCAFE_KIOSK_ORDER_MODE"
	EnvKioskAllocator       = "PMCAFE_KIOSK_ALLOCATOR"
	EnvKioskMaxLineQuantity = "PMCAFE_KIOSK_MAX_LINE_QUANTITY"
	EnvKioskResetAfter      = "PMCAFE_KIOSK_COMPLETE_RESET_AFTER"
	EnvOrdersPollInterval   = "PMCAFE_ORDERS_POLL_INTERVAL"
	EnvOrdersFetchLimit     = "PMCAFE_ORDERS_FETCH_LIMIT"
	EnvMenuCacheTTL         = "PMCAFE_MENU_CACHE_TTL"
)
