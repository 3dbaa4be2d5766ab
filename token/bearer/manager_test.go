package bearer_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/jrsteele09/kpoint-gateway/internal/errors"
	"github.com/jrsteele09/kpoint-gateway/token/bearer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testFixture struct {
	server *httptest.Server
	calls  atomic.Int32
	clock  *clock
}

func newFixture(t *testing.T, handler func(w http.ResponseWriter, r *http.Request, n int32)) *testFixture {
	t.Helper()
	f := &testFixture{clock: &clock{now: time.Unix(1700000000, 0)}}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler(w, r, f.calls.Add(1))
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *testFixture) manager(options ...bearer.ManagerOption) *bearer.Manager {
	options = append([]bearer.ManagerOption{bearer.WithNowFunc(f.clock.Now)}, options...)
	return bearer.New(f.server.URL, "v3", "client-id", "client-secret", options...)
}

func issue(expiresIn int) func(w http.ResponseWriter, r *http.Request, n int32) {
	return func(w http.ResponseWriter, r *http.Request, n int32) {
		w.Header().Set("Content-Type", "application/json")
		body := map[string]any{"access_token": "tok-" + string(rune('0'+n))}
		if expiresIn > 0 {
			body["expires_in"] = expiresIn
		}
		_ = json.NewEncoder(w).Encode(body)
	}
}

func TestExchangeRequestShape(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request, n int32) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v3/auth/token", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, map[string]string{
			"client_id":     "client-id",
			"client_secret": "client-secret",
			"grant_type":    "client_credentials",
		}, req)
		issue(3600)(w, r, n)
	})

	tok, err := f.manager().GetToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "tok-1", tok)
}

func TestGetTokenUsesCacheUntilBuffer(t *testing.T) {
	f := newFixture(t, issue(3600))
	m := f.manager()

	for i := 0; i < 5; i++ {
		tok, err := m.GetToken(context.Background())
		require.NoError(t, err)
		require.Equal(t, "tok-1", tok)
	}
	require.EqualValues(t, 1, f.calls.Load())

	// 59 minutes in, 60s left: inside the buffer, so refresh
	f.clock.Advance(59 * time.Minute)
	tok, err := m.GetToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "tok-2", tok)
	require.EqualValues(t, 2, f.calls.Load())
}

func TestMissingExpiresInDefaultsToOneHour(t *testing.T) {
	f := newFixture(t, issue(0))
	m := f.manager()

	c, err := m.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, f.clock.Now().Add(time.Hour), c.Expiry)
	require.Equal(t, "Bearer", c.TokenType)

	f.clock.Advance(58 * time.Minute)
	_, err = m.GetToken(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, f.calls.Load())
}

func TestRefreshAndClearForceExchange(t *testing.T) {
	f := newFixture(t, issue(3600))
	m := f.manager()

	_, err := m.GetToken(context.Background())
	require.NoError(t, err)

	tok, err := m.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, "tok-2", tok)

	m.Clear()
	tok, err = m.GetToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "tok-3", tok)
	require.EqualValues(t, 3, f.calls.Load())
}

func TestMissingCredentials(t *testing.T) {
	f := newFixture(t, issue(3600))
	m := bearer.New(f.server.URL, "v3", "", "")

	_, err := m.GetToken(context.Background())
	var authErr *apperrors.AuthError
	require.ErrorAs(t, err, &authErr)
	require.ErrorIs(t, err, apperrors.ErrMissingClientCredentials)
	require.EqualValues(t, 0, f.calls.Load())
}

func TestRejectedExchange(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request, n int32) {
		http.Error(w, "invalid_client", http.StatusBadRequest)
	})

	_, err := f.manager().GetToken(context.Background())
	var authErr *apperrors.AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, http.StatusBadRequest, authErr.Status)
	require.Contains(t, authErr.Body, "invalid_client")
	require.Equal(t, http.StatusUnauthorized, apperrors.HTTPStatus(err))
}

func TestTransportFailureIsNetworkError(t *testing.T) {
	f := newFixture(t, issue(3600))
	url := f.server.URL
	f.server.Close()

	_, err := bearer.New(url, "v3", "id", "secret").GetToken(context.Background())
	var netErr *apperrors.NetworkError
	require.ErrorAs(t, err, &netErr)
}

func TestConcurrentGetTokenExchangesOnce(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request, n int32) {
		time.Sleep(50 * time.Millisecond)
		issue(3600)(w, r, n)
	})
	m := f.manager()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := m.GetToken(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "tok-1", tok)
		}()
	}
	wg.Wait()
	require.EqualValues(t, 1, f.calls.Load())
}

func TestExpiredCallerDoesNotFailJoinedCallers(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request, n int32) {
		time.Sleep(200 * time.Millisecond)
		issue(3600)(w, r, n)
	})
	m := f.manager()

	shortCtx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var wg sync.WaitGroup
	var shortErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, shortErr = m.GetToken(shortCtx)
	}()

	time.Sleep(10 * time.Millisecond)
	tok, err := m.GetToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "tok-1", tok)

	wg.Wait()
	var netErr *apperrors.NetworkError
	require.ErrorAs(t, shortErr, &netErr)
	require.ErrorIs(t, shortErr, context.DeadlineExceeded)
	require.EqualValues(t, 1, f.calls.Load())

	// the exchange the expired caller started still filled the cache
	tok, err = m.GetToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "tok-1", tok)
	require.EqualValues(t, 1, f.calls.Load())
}

func TestTokenSource(t *testing.T) {
	f := newFixture(t, issue(3600))
	ts := bearer.New(f.server.URL, "v3", "client-id", "client-secret").TokenSource(context.Background())

	tok, err := ts.Token()
	require.NoError(t, err)
	require.True(t, tok.Valid())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	tok.SetAuthHeader(req)
	require.Equal(t, "Bearer tok-1", req.Header.Get("Authorization"))
}
