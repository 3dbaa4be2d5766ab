package config

import "time"

type Config interface {
	EnvConfig
	CorsConfig
	KPointConfig
	SecurityConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetLogPretty() bool
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

// KPointConfig is the upstream integration surface. Secrets are plain
// strings; an empty value means "unset".
type KPointConfig interface {
	GetBaseURL() string
	GetClientID() string
	GetClientSecret() string
	GetUserEmail() string
	GetPlayerBaseURL() string
	GetAPIVersion() string
	GetMockMode() bool
	GetAuthMode() string
	GetTokenRefreshBuffer() time.Duration
	GetHTTPTimeout() time.Duration
	GetCatalogCacheTTL() time.Duration
}

type mainConfig struct {
	EnvVars
	Cors
	KPoint
	Security
}

func New() Config {
	return mainConfig{}
}
