package config

import "strings"

type SecurityConfig interface {
	GetRateLimitRPS() int
	GetRateLimitBurst() int
	GetMaxBodyBytes() int64
	GetTrustedProxies() []string
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetRateLimitRPS of zero disables rate limiting.
func (Security) GetRateLimitRPS() int {
	return GetEnvInt("RATE_LIMIT_RPS", 20)
}

func (Security) GetRateLimitBurst() int {
	return GetEnvInt("RATE_LIMIT_BURST", 40)
}

func (Security) GetMaxBodyBytes() int64 {
	return int64(GetEnvInt("MAX_BODY_BYTES", 1<<20))
}

// GetTrustedProxies lists the proxy IPs whose X-Forwarded-For header is
// believed. Empty means the peer address is always the client.
func (Security) GetTrustedProxies() []string {
	var proxies []string
	for _, p := range strings.Split(GetEnv("TRUSTED_PROXIES", ""), ",") {
		if p = strings.TrimSpace(p); p != "" {
			proxies = append(proxies, p)
		}
	}
	return proxies
}
