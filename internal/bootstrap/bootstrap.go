// Package bootstrap assembles the gateway's components from configuration.
package bootstrap

import (
	"fmt"
	"net/http"

	"github.com/jrsteele09/kpoint-gateway/access"
	"github.com/jrsteele09/kpoint-gateway/catalog"
	"github.com/jrsteele09/kpoint-gateway/catalog/memstore"
	"github.com/jrsteele09/kpoint-gateway/console"
	"github.com/jrsteele09/kpoint-gateway/internal/config"
	apperrors "github.com/jrsteele09/kpoint-gateway/internal/errors"
	"github.com/jrsteele09/kpoint-gateway/kpoint"
	"github.com/jrsteele09/kpoint-gateway/playlink"
	"github.com/jrsteele09/kpoint-gateway/token"
	"github.com/jrsteele09/kpoint-gateway/token/bearer"
	fakeuserrepo "github.com/jrsteele09/kpoint-gateway/users/repofake"
	"github.com/rs/zerolog/log"
)

// Gateway holds the wired components behind the HTTP surface.
type Gateway struct {
	Console *console.Service
	Client  *kpoint.Client
	Tokens  *bearer.Manager
	Codec   *token.Codec

	remote *kpoint.RemoteCatalog
}

// Close stops background cache janitors.
func (g *Gateway) Close() {
	if g.remote != nil {
		g.remote.Close()
	}
}

// Credentials builds the bearer manager and challenge codec.
func Credentials(c config.KPointConfig) (*bearer.Manager, *token.Codec) {
	tokens := bearer.New(c.GetBaseURL(), c.GetAPIVersion(), c.GetClientID(), c.GetClientSecret(),
		bearer.WithRefreshBuffer(c.GetTokenRefreshBuffer()),
		bearer.WithHTTPClient(&http.Client{Timeout: c.GetHTTPTimeout()}),
	)
	codec := token.NewCodec(c.GetClientID(), c.GetClientSecret(), c.GetUserEmail())
	return tokens, codec
}

// NewClient builds the upstream client for the configured auth mode.
func NewClient(c config.KPointConfig, tokens *bearer.Manager, codec *token.Codec) *kpoint.Client {
	return kpoint.NewClient(c.GetBaseURL(), c.GetAPIVersion(), c.GetAuthMode(),
		kpoint.WithHTTPClient(&http.Client{Timeout: c.GetHTTPTimeout()}),
		kpoint.WithTokenProvider(tokens),
		kpoint.WithChallengeMinter(codec),
	)
}

// New wires the catalog, directory, access resolver and console service.
// Mock mode serves the embedded fixtures instead of the remote catalog.
func New(c config.Config) (*Gateway, error) {
	tokens, codec := Credentials(c)
	g := &Gateway{
		Client: NewClient(c, tokens, codec),
		Tokens: tokens,
		Codec:  codec,
	}

	var store catalog.Store
	if c.GetMockMode() {
		fixtures, err := memstore.New()
		if err != nil {
			return nil, fmt.Errorf("[bootstrap New] failed to load catalog fixtures: %w", err)
		}
		store = fixtures
	} else {
		g.remote = kpoint.NewRemoteCatalog(g.Client, c.GetCatalogCacheTTL())
		store = g.remote
	}

	directory, err := fakeuserrepo.NewSeededDirectory()
	if err != nil {
		g.Close()
		return nil, fmt.Errorf("[bootstrap New] failed to load user directory: %w", err)
	}
	resolver, err := access.NewSeededResolver(directory)
	if err != nil {
		g.Close()
		return nil, fmt.Errorf("[bootstrap New] failed to load template assignments: %w", err)
	}

	settings := console.Settings{
		MockMode:      c.GetMockMode(),
		AuthMode:      c.GetAuthMode(),
		BaseURL:       c.GetBaseURL(),
		APIVersion:    c.GetAPIVersion(),
		PlayerBaseURL: c.GetPlayerBaseURL(),
		Env:           c.GetEnv(),
		ClientIDSet:   c.GetClientID() != "",
		SecretSet:     c.GetClientSecret() != "",
		UserEmailSet:  c.GetUserEmail() != "",
	}
	g.Console = console.New(settings, store, resolver, directory, playlink.NewBuilder(c.GetPlayerBaseURL()),
		console.WithTokenChecker(tokens))

	event := log.Info()
	if !settings.ClientIDSet || !settings.SecretSet {
		event = log.Warn().AnErr("credentials", apperrors.ErrMissingClientCredentials)
	}
	event.Bool("mock_mode", settings.MockMode).
		Str("auth_mode", settings.AuthMode).
		Str("base_url", settings.BaseURL).
		Msg("gateway initialised")
	return g, nil
}
