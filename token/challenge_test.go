package token_test

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	apperrors "github.com/jrsteele09/kpoint-gateway/internal/errors"
	"github.com/jrsteele09/kpoint-gateway/token"
	"github.com/stretchr/testify/require"
)

const (
	testClientID = "client-123"
	testSecret   = "0123456789abcdef-secret-tail"
	testEmail    = "ops@example.com"
)

// Produced independently with a reference JWT/AES implementation.
const knownSealed = "76F+3mVJYhb/pEqjYdZxdQSXFoBlv9trVs39tPIA4cG6dPvRY5ubAb6sqXUUBC7PE3kx7tImAV5gVjWmfXofhIbGnSFDpvb1rzjfwpnZmGjjzDnakwOD0vM35fNiSCiU98cxHKKxNtrtYN+QttkLCtPeUY3OHbjdIsUX4XM+9YPFkffaHmdNpx4ms2wlePCR+Rwf5/QT4NQ/OKpXN8Fu4j5kpXyNG5J76KTMVGleo3281Dl517AM6ny6WnuY0e2PyQDFLQVN2QDfxb5mRnaNOSD4bB447A7FZIglx0Nl5yyeFW2TKKpl5R8xjYCIw92J5Kr/Yo5yqZnPfeHxQPtKkoWWBHcZzcZQHuASWKXfkgs="

func fixedClock() time.Time { return time.Unix(1700000000, 0) }

func newCodec() *token.Codec {
	return token.NewCodec(testClientID, testSecret, testEmail, token.WithNowFunc(fixedClock))
}

func TestMintKnownAnswer(t *testing.T) {
	sealed, err := newCodec().Mint("Anu", "acct-9")
	require.NoError(t, err)
	require.Equal(t, knownSealed, sealed)
}

func TestMintIsDeterministicWithinASecond(t *testing.T) {
	c := newCodec()
	a, err := c.Mint("Anu", "acct-9")
	require.NoError(t, err)
	b, err := c.Mint("Anu", "acct-9")
	require.NoError(t, err)
	require.Equal(t, a, b)

	_, err = base64.StdEncoding.DecodeString(a)
	require.NoError(t, err)
}

func TestOpenRoundTrip(t *testing.T) {
	c := newCodec()
	sealed, err := c.Mint("", "")
	require.NoError(t, err)

	p, err := c.Open(sealed)
	require.NoError(t, err)
	require.Equal(t, token.ChallengePayload{
		ClientID:          testClientID,
		UserEmail:         testEmail,
		UserName:          "User",
		UserAccountNumber: testEmail,
		Challenge:         "1700000000",
	}, *p)
}

func TestInnerJWTHasNoTimestamps(t *testing.T) {
	p := newCodec().Payload("Anu", "acct-9")
	raw, err := json.Marshal(p)
	require.NoError(t, err)
	require.Equal(t, `{"client_id":"client-123","user_email":"ops@example.com","user_name":"Anu","user_account_number":"acct-9","challenge":"1700000000"}`, string(raw))

	sealed, err := newCodec().Mint("Anu", "acct-9")
	require.NoError(t, err)
	opened, err := newCodec().Open(sealed)
	require.NoError(t, err)
	require.Equal(t, p, *opened)
}

func TestMintConfigErrors(t *testing.T) {
	tests := []struct {
		name  string
		codec *token.Codec
		want  error
	}{
		{"missing client id", token.NewCodec("", testSecret, testEmail), apperrors.ErrMissingClientCredentials},
		{"missing secret", token.NewCodec(testClientID, "", testEmail), apperrors.ErrMissingClientCredentials},
		{"missing email", token.NewCodec(testClientID, testSecret, ""), apperrors.ErrMissingUserEmail},
		{"short secret", token.NewCodec(testClientID, "short", testEmail), apperrors.ErrSecretTooShort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.codec.Mint("Anu", "")
			require.ErrorIs(t, err, tt.want)

			var cfgErr *apperrors.ConfigError
			require.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestAuthQueryParamsAndHeader(t *testing.T) {
	c := newCodec()

	params, err := c.AuthQueryParams("Anu", "acct-9")
	require.NoError(t, err)
	require.Equal(t, testClientID, params.KCID)
	require.Equal(t, knownSealed, params.Token)

	header, err := c.AuthHeader("Anu", "acct-9")
	require.NoError(t, err)
	require.Equal(t, "OAuth "+knownSealed, header)
}

func TestOpenRejectsForeignOrTamperedTokens(t *testing.T) {
	sealed, err := newCodec().Mint("Anu", "acct-9")
	require.NoError(t, err)

	other := token.NewCodec(testClientID, "fedcba9876543210-other", testEmail)
	_, err = other.Open(sealed)
	require.ErrorIs(t, err, apperrors.ErrInvalidToken)

	// same AES key, different HMAC secret
	sameKey := token.NewCodec(testClientID, "0123456789abcdef-different", testEmail)
	_, err = sameKey.Open(sealed)
	require.ErrorIs(t, err, apperrors.ErrInvalidToken)

	_, err = newCodec().Open("not base64!")
	require.ErrorIs(t, err, apperrors.ErrInvalidToken)

	_, err = newCodec().Open(strings.Repeat("A", 8))
	require.ErrorIs(t, err, apperrors.ErrInvalidToken)
}
