package kpoint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/kpoint-gateway/internal/config"
	apperrors "github.com/jrsteele09/kpoint-gateway/internal/errors"
	"github.com/jrsteele09/kpoint-gateway/internal/metrics"
	"github.com/jrsteele09/kpoint-gateway/token"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// TokenProvider hands out bearer credentials. bearer.Manager implements it.
type TokenProvider interface {
	GetToken(ctx context.Context) (string, error)
	Refresh(ctx context.Context) (string, error)
}

// ChallengeMinter mints per-request challenge tokens. token.Codec
// implements it.
type ChallengeMinter interface {
	AuthQueryParams(userName, userAccountNumber string) (token.AuthParams, error)
	AuthHeader(userName, userAccountNumber string) (string, error)
	ClientID() string
}

type RequestOptions struct {
	Method  string
	Body    any
	Params  map[string]string
	Headers map[string]string
}

// Response is a 2xx upstream reply.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
	JSON   bool
}

// Decode unmarshals a JSON body into out.
func (r *Response) Decode(out any) error {
	if !r.JSON {
		return fmt.Errorf("response is %q, not JSON", r.Header.Get("Content-Type"))
	}
	return json.Unmarshal(r.Body, out)
}

// Value is the parsed JSON body, or the raw text for any other content type.
func (r *Response) Value() (any, error) {
	if !r.JSON {
		return string(r.Body), nil
	}
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(r.Body, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// Client sends authenticated requests to {base}/api/{version}{path}. One
// auth mode is fixed per client: bearer, challenge (token and kcid query
// parameters) or challenge_header (OAuth Authorization header plus kcid).
type Client struct {
	baseURL    string
	apiVersion string
	mode       string
	tokens     TokenProvider
	challenge  ChallengeMinter
	httpClient *http.Client
}

type ClientOption func(*Client)

func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func WithTokenProvider(p TokenProvider) ClientOption {
	return func(cl *Client) {
		cl.tokens = p
	}
}

func WithChallengeMinter(m ChallengeMinter) ClientOption {
	return func(cl *Client) {
		cl.challenge = m
	}
}

func NewClient(baseURL, apiVersion, mode string, options ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiVersion: apiVersion,
		mode:       mode,
	}
	for _, opt := range options {
		opt(c)
	}
	if c.mode == "" {
		c.mode = config.AuthModeBearer
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return c
}

func (c *Client) Mode() string { return c.mode }

// URL returns the absolute upstream URL of an API path.
func (c *Client) URL(path string) string {
	return fmt.Sprintf("%s/api/%s%s", c.baseURL, c.apiVersion, path)
}

func (c *Client) Get(ctx context.Context, path string, params map[string]string) (*Response, error) {
	return c.Call(ctx, path, RequestOptions{Method: http.MethodGet, Params: params})
}

func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Call(ctx, path, RequestOptions{Method: http.MethodPost, Body: body})
}

func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Call(ctx, path, RequestOptions{Method: http.MethodPut, Body: body})
}

func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Call(ctx, path, RequestOptions{Method: http.MethodDelete})
}

// GetJSON issues a GET and decodes the JSON reply into out.
func (c *Client) GetJSON(ctx context.Context, path string, params map[string]string, out any) error {
	resp, err := c.Get(ctx, path, params)
	if err != nil {
		return err
	}
	if err := resp.Decode(out); err != nil {
		return apperrors.Wrapf(err, "decode %s", path)
	}
	return nil
}

// Call sends one request. In bearer mode a 401 triggers a forced credential
// refresh and exactly one retry; nothing else is retried.
func (c *Client) Call(ctx context.Context, path string, opts RequestOptions) (*Response, error) {
	if opts.Method == "" {
		opts.Method = http.MethodGet
	}

	var payload []byte
	if opts.Body != nil && opts.Method != http.MethodGet {
		b, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, apperrors.Wrapf(err, "marshal %s %s body", opts.Method, path)
		}
		payload = b
	}

	resp, err := c.do(ctx, path, opts, payload)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && c.mode == config.AuthModeBearer {
		drain(resp)
		log.Debug().Str("path", path).Msg("upstream returned 401, refreshing bearer token")
		if _, err := c.tokens.Refresh(ctx); err != nil {
			return nil, err
		}
		if resp, err = c.do(ctx, path, opts, payload); err != nil {
			return nil, err
		}
	}
	return readResponse(resp)
}

func (c *Client) do(ctx context.Context, path string, opts RequestOptions, payload []byte) (*http.Response, error) {
	req, err := c.newRequest(ctx, path, opts, payload)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveUpstream(opts.Method, c.mode, metrics.StatusNetworkError, time.Since(start))
		return nil, &apperrors.NetworkError{Op: opts.Method + " " + path, Err: err}
	}
	metrics.ObserveUpstream(opts.Method, c.mode, strconv.Itoa(resp.StatusCode), time.Since(start))
	log.Debug().Str("method", opts.Method).Str("path", path).Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).Msg("kpoint request")
	return resp, nil
}

func (c *Client) newRequest(ctx context.Context, path string, opts RequestOptions, payload []byte) (*http.Request, error) {
	u, err := url.Parse(c.URL(path))
	if err != nil {
		return nil, apperrors.Wrapf(err, "parse url for %s", path)
	}
	query := u.Query()
	for k, v := range opts.Params {
		query.Set(k, v)
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")

	var bearerToken *oauth2.Token
	switch c.mode {
	case config.AuthModeChallenge, config.AuthModeChallengeHeader:
		if c.challenge == nil {
			return nil, apperrors.NewConfigError(apperrors.ErrMissingClientCredentials)
		}
		id := IdentityFrom(ctx)
		if c.mode == config.AuthModeChallenge {
			params, err := c.challenge.AuthQueryParams(id.Name, id.AccountNumber)
			if err != nil {
				return nil, err
			}
			query.Set("token", params.Token)
			query.Set("kcid", params.KCID)
		} else {
			header, err := c.challenge.AuthHeader(id.Name, id.AccountNumber)
			if err != nil {
				return nil, err
			}
			headers.Set("Authorization", header)
			query.Set("kcid", c.challenge.ClientID())
		}
	default:
		if c.tokens == nil {
			return nil, &apperrors.AuthError{Message: "no bearer token provider configured", Err: apperrors.ErrMissingClientCredentials}
		}
		accessToken, err := c.tokens.GetToken(ctx)
		if err != nil {
			return nil, err
		}
		bearerToken = &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}
	}
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, opts.Method, u.String(), body)
	if err != nil {
		return nil, apperrors.Wrapf(err, "build %s %s", opts.Method, path)
	}
	req.Header = headers
	if bearerToken != nil {
		bearerToken.SetAuthHeader(req)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

func readResponse(resp *http.Response) (*Response, error) {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperrors.NetworkError{Op: "read response body", Err: err}
	}
	isJSON := strings.Contains(resp.Header.Get("Content-Type"), "application/json")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var parsed any
		if json.Unmarshal(body, &parsed) != nil {
			parsed = nil
		}
		return nil, &apperrors.APIError{
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			Body:       parsed,
		}
	}

	if isJSON && len(bytes.TrimSpace(body)) > 0 && !json.Valid(body) {
		return nil, fmt.Errorf("KPOINT API returned malformed JSON (status %d)", resp.StatusCode)
	}
	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: body, JSON: isJSON}, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
