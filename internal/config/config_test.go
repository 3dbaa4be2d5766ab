package config_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/kpoint-gateway/internal/config"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	for _, v := range []string{"PORT", "KPOINT_BASE_URL", "KPOINT_API_VERSION", "KPOINT_MOCK_MODE", "KPOINT_AUTH_MODE", "KPOINT_TOKEN_REFRESH_BUFFER", "ENV"} {
		t.Setenv(v, "")
	}
	c := config.New()

	require.Equal(t, ":8080", c.GetPort())
	require.Equal(t, "DEV", c.GetEnv())
	require.Equal(t, "https://ktpl.kpoint.com", c.GetBaseURL())
	require.Equal(t, "https://ktpl.kpoint.com/web/videos", c.GetPlayerBaseURL())
	require.Equal(t, "v3", c.GetAPIVersion())
	require.False(t, c.GetMockMode())
	require.Equal(t, config.AuthModeBearer, c.GetAuthMode())
	require.Equal(t, 60*time.Second, c.GetTokenRefreshBuffer())
	require.True(t, c.GetLogPretty())
}

func TestOverrides(t *testing.T) {
	t.Setenv("PORT", ":9090")
	t.Setenv("KPOINT_BASE_URL", "https://example.kpoint.com/")
	t.Setenv("KPOINT_MOCK_MODE", "TRUE")
	t.Setenv("KPOINT_AUTH_MODE", "Challenge")
	t.Setenv("KPOINT_TOKEN_REFRESH_BUFFER", "30")
	t.Setenv("KPOINT_HTTP_TIMEOUT", "2s")
	t.Setenv("ENV", "PROD")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	c := config.New()
	require.Equal(t, ":9090", c.GetPort())
	require.Equal(t, "https://example.kpoint.com", c.GetBaseURL())
	require.True(t, c.GetMockMode())
	require.Equal(t, config.AuthModeChallenge, c.GetAuthMode())
	require.Equal(t, 30*time.Second, c.GetTokenRefreshBuffer())
	require.Equal(t, 2*time.Second, c.GetHTTPTimeout())
	require.False(t, c.GetLogPretty())
	require.True(t, c.GetAllowedOrigins().IsAllowedOrigin("https://b.example"))
	require.False(t, c.GetAllowedOrigins().IsAllowedOrigin("https://c.example"))
}

func TestUnknownAuthModeFallsBackToBearer(t *testing.T) {
	t.Setenv("KPOINT_AUTH_MODE", "kerberos")
	require.Equal(t, config.AuthModeBearer, config.New().GetAuthMode())
}

func TestNonPositiveHTTPTimeoutFallsBackToDefault(t *testing.T) {
	for _, v := range []string{"0", "0s", "-5s"} {
		t.Setenv("KPOINT_HTTP_TIMEOUT", v)
		require.Equal(t, 10*time.Second, config.New().GetHTTPTimeout(), v)
	}
}
