package config

import (
	"time"

	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	CorsConfig
	SessionConfig
	NotificationConfig
	StorageConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetAPIBaseURL() string
	GetCookieDomain() string
	GetDataFolder() string
	IsProduction() bool
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() []string
	GetAllowedHeaders() []string
}

type SessionConfig interface {
	GetLoginRoute() string
	GetLandingRoute() string
	GetFallbackRoute() string
	GetRefreshCookieFallback() time.Duration
	GetDefaultAccessTokenExpiry() time.Duration
	GetLogoutTimeout() time.Duration
	GetRequestTimeout() time.Duration
}

type NotificationConfig interface {
	GetNotificationWindow() time.Duration
	GetNotificationHistory() int
}

type StorageConfig interface {
	GetStoreBackend() string
	GetStoreFile() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisPrefix() string
}

type mainConfig struct {
	EnvVars
	Cors
	Session
	Notifications
	Storage
}

// New loads an optional .env file and returns the environment backed config.
func New() Config {
	_ = godotenv.Load()
	return mainConfig{}
}
