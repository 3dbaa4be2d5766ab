package bearer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/kpoint-gateway/internal/errors"
	"github.com/jrsteele09/kpoint-gateway/internal/metrics"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultRefreshBuffer is how long before expiry a cached credential is
	// considered stale.
	DefaultRefreshBuffer = 60 * time.Second
	// DefaultExpiresIn applies when the exchange response omits expires_in.
	DefaultExpiresIn = 3600 * time.Second
)

type exchangeRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	GrantType    string `json:"grant_type"`
}

type exchangeResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Manager owns the single cached bearer credential of the process and the
// client-credentials exchange that renews it.
type Manager struct {
	tokenURL      string
	clientID      string
	clientSecret  string
	refreshBuffer time.Duration
	httpClient    *http.Client
	nowFunc       func() time.Time

	mu     sync.RWMutex
	cached *oauth2.Token
	group  singleflight.Group
}

type ManagerOption func(*Manager)

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func WithRefreshBuffer(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.refreshBuffer = d
	}
}

func WithHTTPClient(c *http.Client) ManagerOption {
	return func(m *Manager) {
		m.httpClient = c
	}
}

// New builds a manager exchanging against {baseURL}/api/{apiVersion}/auth/token.
func New(baseURL, apiVersion, clientID, clientSecret string, options ...ManagerOption) *Manager {
	m := &Manager{
		tokenURL:      fmt.Sprintf("%s/api/%s/auth/token", baseURL, apiVersion),
		clientID:      clientID,
		clientSecret:  clientSecret,
		refreshBuffer: DefaultRefreshBuffer,
	}
	for _, opt := range options {
		opt(m)
	}
	if m.httpClient == nil {
		m.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if m.nowFunc == nil {
		m.nowFunc = time.Now
	}
	return m
}

// GetToken returns the cached access token while it has more than the
// refresh buffer left, and exchanges for a new one otherwise.
func (m *Manager) GetToken(ctx context.Context) (string, error) {
	t, err := m.Token(ctx)
	if err != nil {
		return "", err
	}
	return t.AccessToken, nil
}

// Token is GetToken returning the full credential.
func (m *Manager) Token(ctx context.Context) (*oauth2.Token, error) {
	if t := m.fresh(); t != nil {
		return t, nil
	}
	t, err := m.shared(ctx, "token", true)
	if err != nil {
		return nil, err
	}
	return copyToken(t), nil
}

// Refresh forces a new exchange regardless of the cached credential.
// Concurrent callers share one exchange.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	t, err := m.shared(ctx, "refresh", false)
	if err != nil {
		return "", err
	}
	return t.AccessToken, nil
}

// shared joins the in-flight exchange for key. The exchange itself is
// detached from any one caller's cancellation and bounded by the HTTP
// client timeout; each caller stops waiting when its own ctx is done.
func (m *Manager) shared(ctx context.Context, key string, reuseFresh bool) (*oauth2.Token, error) {
	detached := context.WithoutCancel(ctx)
	ch := m.group.DoChan(key, func() (any, error) {
		if reuseFresh {
			if t := m.fresh(); t != nil {
				return t, nil
			}
		}
		return m.exchange(detached)
	})
	select {
	case <-ctx.Done():
		return nil, &apperrors.NetworkError{Op: "POST " + m.tokenURL, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*oauth2.Token), nil
	}
}

// Clear drops the cached credential.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cached = nil
}

// TokenSource exposes the manager to x/oauth2 consumers.
func (m *Manager) TokenSource(ctx context.Context) oauth2.TokenSource {
	return tokenSource{ctx: ctx, m: m}
}

type tokenSource struct {
	ctx context.Context
	m   *Manager
}

func (s tokenSource) Token() (*oauth2.Token, error) {
	return s.m.Token(s.ctx)
}

func (m *Manager) fresh() *oauth2.Token {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cached == nil || m.cached.AccessToken == "" {
		return nil
	}
	if !m.cached.Expiry.After(m.nowFunc().Add(m.refreshBuffer)) {
		return nil
	}
	return copyToken(m.cached)
}

func (m *Manager) exchange(ctx context.Context) (*oauth2.Token, error) {
	if m.clientID == "" || m.clientSecret == "" {
		metrics.TokenRefresh("failure")
		return nil, &apperrors.AuthError{
			Message: "client credentials are not configured",
			Err:     apperrors.ErrMissingClientCredentials,
		}
	}

	payload, err := json.Marshal(exchangeRequest{
		ClientID:     m.clientID,
		ClientSecret: m.clientSecret,
		GrantType:    "client_credentials",
	})
	if err != nil {
		return nil, apperrors.Wrapf(err, "marshal token exchange")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL, bytes.NewReader(payload))
	if err != nil {
		return nil, apperrors.Wrapf(err, "build token exchange request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		metrics.TokenRefresh("failure")
		return nil, &apperrors.NetworkError{Op: "POST " + m.tokenURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.TokenRefresh("failure")
		return nil, &apperrors.NetworkError{Op: "read token exchange response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.TokenRefresh("failure")
		log.Warn().Int("status", resp.StatusCode).Msg("bearer token exchange rejected")
		return nil, &apperrors.AuthError{
			Message: "failed to obtain KPOINT access token",
			Status:  resp.StatusCode,
			Body:    string(body),
		}
	}

	var parsed exchangeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		metrics.TokenRefresh("failure")
		return nil, &apperrors.AuthError{Message: "malformed token exchange response", Status: resp.StatusCode, Body: string(body), Err: err}
	}
	if parsed.AccessToken == "" {
		metrics.TokenRefresh("failure")
		return nil, &apperrors.AuthError{Message: "token exchange response has no access_token", Status: resp.StatusCode, Body: string(body)}
	}

	lifetime := time.Duration(parsed.ExpiresIn) * time.Second
	if lifetime <= 0 {
		lifetime = DefaultExpiresIn
	}
	tokenType := parsed.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	t := &oauth2.Token{
		AccessToken: parsed.AccessToken,
		TokenType:   tokenType,
		Expiry:      m.nowFunc().Add(lifetime),
	}

	m.mu.Lock()
	m.cached = t
	m.mu.Unlock()

	metrics.TokenRefresh("success")
	log.Debug().Time("expiry", t.Expiry).Msg("bearer token refreshed")
	return copyToken(t), nil
}

func copyToken(t *oauth2.Token) *oauth2.Token {
	c := *t
	return &c
}
