package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef-secret"

func setCredentials(t *testing.T) {
	t.Helper()
	t.Setenv("ENV", "TEST")
	t.Setenv("KPOINT_CLIENT_ID", "client-1")
	t.Setenv("KPOINT_CLIENT_SECRET", testSecret)
	t.Setenv("KPOINT_USER_EMAIL", "ops@example.com")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTokenMintThenVerify(t *testing.T) {
	setCredentials(t)

	out, err := execute(t, "token", "mint", "--name", "Anu", "--account", "acct-9")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "kcid=client-1", lines[1])
	sealed := strings.TrimPrefix(lines[0], "token=")
	require.NotEqual(t, lines[0], sealed)

	out, err = execute(t, "token", "verify", sealed)
	require.NoError(t, err)

	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Equal(t, "client-1", payload["client_id"])
	assert.Equal(t, "ops@example.com", payload["user_email"])
	assert.Equal(t, "Anu", payload["user_name"])
	assert.Equal(t, "acct-9", payload["user_account_number"])
}

func TestTokenMintHeaderWithEmailOverride(t *testing.T) {
	setCredentials(t)
	t.Setenv("KPOINT_USER_EMAIL", "")

	_, err := execute(t, "token", "mint", "--header")
	require.Error(t, err)

	out, err := execute(t, "token", "mint", "--header", "--email", "cli@example.com")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "OAuth "), out)
}

func TestTokenVerifyRejectsGarbage(t *testing.T) {
	setCredentials(t)
	_, err := execute(t, "token", "verify", "bm90LWEtdG9rZW4=")
	require.Error(t, err)
}

func TestCallInChallengeMode(t *testing.T) {
	setCredentials(t)
	seen := make(chan map[string]string, 1)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- map[string]string{
			"path":  r.URL.Path,
			"kcid":  r.URL.Query().Get("kcid"),
			"token": r.URL.Query().Get("token"),
			"scope": r.URL.Query().Get("scope"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"list":[{"id":"v1"}],"totalcount":1}`))
	}))
	t.Cleanup(upstream.Close)
	t.Setenv("KPOINT_BASE_URL", upstream.URL)
	t.Setenv("KPOINT_AUTH_MODE", "challenge")

	out, err := execute(t, "call", "videos", "--param", "scope=all")
	require.NoError(t, err)

	gotQuery := <-seen
	assert.Equal(t, "/api/v3/videos", gotQuery["path"])
	assert.Equal(t, "client-1", gotQuery["kcid"])
	assert.Equal(t, "all", gotQuery["scope"])
	assert.NotEmpty(t, gotQuery["token"])
	assert.Contains(t, out, `"totalcount": 1`)
}

func TestCallPrintsUpstreamErrorBody(t *testing.T) {
	setCredentials(t)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"no access"}`))
	}))
	t.Cleanup(upstream.Close)
	t.Setenv("KPOINT_BASE_URL", upstream.URL)
	t.Setenv("KPOINT_AUTH_MODE", "challenge_header")

	out, err := execute(t, "call", "/videos/v1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, out, `"error": "no access"`)
}

func TestCallRejectsInvalidData(t *testing.T) {
	setCredentials(t)
	_, err := execute(t, "call", "/publish", "-X", "POST", "-d", "{nope")
	require.EqualError(t, err, "--data is not valid JSON")
}

func TestLinkBuildAndDecode(t *testing.T) {
	t.Setenv("ENV", "TEST")
	out, err := execute(t, "link", "build",
		"--video", "gcc-123", "--package", "52eutbewxdcu",
		"--field", "first_name=Anu", "--field", "company=Acme",
		"--player", "https://ktpl.kpoint.com/web/videos/")
	require.NoError(t, err)

	var link map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &link))
	playURL := link["playLink"]
	require.Equal(t, "https://ktpl.kpoint.com/web/videos/gcc-123/play?id=52eutbewxdcu&data=Zmlyc3RfbmFtZTpBbnU7Y29tcGFueTpBY21lOw==", playURL)
	require.True(t, strings.HasPrefix(link["whatsappLink"], "https://wa.me/?text="))
	require.True(t, strings.HasPrefix(link["emailLink"], "mailto:?subject="))

	out, err = execute(t, "link", "decode", playURL)
	require.NoError(t, err)
	require.Equal(t, "first_name: Anu\ncompany: Acme\n", out)
}

func TestLinkBuildValidation(t *testing.T) {
	t.Setenv("ENV", "TEST")
	_, err := execute(t, "link", "build", "--video", "gcc-123")
	require.Error(t, err)

	_, err = execute(t, "link", "build", "--video", "v", "--package", "p", "--field", "novalue")
	require.EqualError(t, err, `field "novalue" is not key=value`)
}
