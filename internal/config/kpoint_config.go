package config

import (
	"strings"
	"time"
)

const (
	AuthModeBearer          = "bearer"
	AuthModeChallenge       = "challenge"
	AuthModeChallengeHeader = "challenge_header"
)

const defaultHTTPTimeout = 10 * time.Second

type KPoint struct{}

var _ KPointConfig = KPoint{}

func (KPoint) GetBaseURL() string {
	return strings.TrimRight(GetEnv("KPOINT_BASE_URL", "https://ktpl.kpoint.com"), "/")
}

func (KPoint) GetClientID() string {
	return GetEnv("KPOINT_CLIENT_ID", "")
}

func (KPoint) GetClientSecret() string {
	return GetEnv("KPOINT_CLIENT_SECRET", "")
}

// GetUserEmail is the operating user asserted in challenge tokens.
func (KPoint) GetUserEmail() string {
	return GetEnv("KPOINT_USER_EMAIL", "")
}

func (KPoint) GetPlayerBaseURL() string {
	return strings.TrimRight(GetEnv("KPOINT_PLAYER_BASE_URL", "https://ktpl.kpoint.com/web/videos"), "/")
}

func (KPoint) GetAPIVersion() string {
	return GetEnv("KPOINT_API_VERSION", "v3")
}

func (KPoint) GetMockMode() bool {
	return GetEnvBool("KPOINT_MOCK_MODE", false)
}

func (KPoint) GetAuthMode() string {
	switch mode := strings.ToLower(GetEnv("KPOINT_AUTH_MODE", AuthModeBearer)); mode {
	case AuthModeChallenge, AuthModeChallengeHeader:
		return mode
	default:
		return AuthModeBearer
	}
}

func (KPoint) GetTokenRefreshBuffer() time.Duration {
	return GetEnvDuration("KPOINT_TOKEN_REFRESH_BUFFER", 60*time.Second)
}

func (KPoint) GetHTTPTimeout() time.Duration {
	if d := GetEnvDuration("KPOINT_HTTP_TIMEOUT", defaultHTTPTimeout); d > 0 {
		return d
	}
	return defaultHTTPTimeout
}

func (KPoint) GetCatalogCacheTTL() time.Duration {
	return GetEnvDuration("KPOINT_CATALOG_CACHE_TTL", 30*time.Second)
}
