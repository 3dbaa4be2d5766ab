package token

import (
	"encoding/base64"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/kpoint-gateway/internal/errors"
	"github.com/jrsteele09/kpoint-gateway/internal/metrics"
)

// DefaultUserName is asserted when the caller does not name the user.
const DefaultUserName = "User"

// ChallengePayload is the claim set of a challenge token. Field order is the
// JSON order on the wire.
type ChallengePayload struct {
	ClientID          string `json:"client_id"`
	UserEmail         string `json:"user_email"`
	UserName          string `json:"user_name"`
	UserAccountNumber string `json:"user_account_number"`
	Challenge         string `json:"challenge"` // epoch seconds at mint time
}

// The registered claims stay empty so no iat, exp or nbf reach the wire.
type challengeClaims struct {
	ChallengePayload
	jwt.RegisteredClaims
}

// AuthParams are the query parameters of challenge-authenticated requests.
type AuthParams struct {
	Token string `json:"token"`
	KCID  string `json:"kcid"`
}

// Codec mints and opens sealed challenge tokens:
// base64(AES-128-CBC(HS256 JWT)) with key = secret[:16] and a zero IV.
type Codec struct {
	clientID  string
	secret    string
	userEmail string
	nowFunc   func() time.Time
}

type CodecOption func(*Codec)

func WithNowFunc(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.nowFunc = now
	}
}

func NewCodec(clientID, clientSecret, userEmail string, options ...CodecOption) *Codec {
	c := &Codec{
		clientID:  clientID,
		secret:    clientSecret,
		userEmail: userEmail,
	}
	for _, opt := range options {
		opt(c)
	}
	if c.nowFunc == nil {
		c.nowFunc = time.Now
	}
	return c
}

func (c *Codec) ClientID() string { return c.clientID }

func (c *Codec) validate() error {
	switch {
	case c.clientID == "" || c.secret == "":
		return apperrors.NewConfigError(apperrors.ErrMissingClientCredentials)
	case c.userEmail == "":
		return apperrors.NewConfigError(apperrors.ErrMissingUserEmail)
	case len(c.secret) < KeySize:
		return apperrors.NewConfigError(apperrors.ErrSecretTooShort)
	}
	return nil
}

// Payload builds the claim set Mint would sign at the current instant.
func (c *Codec) Payload(userName, userAccountNumber string) ChallengePayload {
	if userName == "" {
		userName = DefaultUserName
	}
	if userAccountNumber == "" {
		userAccountNumber = c.userEmail
	}
	return ChallengePayload{
		ClientID:          c.clientID,
		UserEmail:         c.userEmail,
		UserName:          userName,
		UserAccountNumber: userAccountNumber,
		Challenge:         strconv.FormatInt(c.nowFunc().Unix(), 10),
	}
}

// Mint returns a sealed challenge token for the configured operating user.
// Empty userName and userAccountNumber fall back to "User" and the
// configured user email.
func (c *Codec) Mint(userName, userAccountNumber string) (string, error) {
	if err := c.validate(); err != nil {
		return "", err
	}

	signed, err := NewHMACSigner(c.secret).Sign(challengeClaims{ChallengePayload: c.Payload(userName, userAccountNumber)})
	if err != nil {
		return "", err
	}

	sealed, err := sealCBC([]byte(c.secret[:KeySize]), []byte(signed))
	if err != nil {
		return "", apperrors.Wrapf(err, "seal challenge token")
	}
	metrics.ChallengeMinted()
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// AuthQueryParams mints a token and pairs it with the client id.
func (c *Codec) AuthQueryParams(userName, userAccountNumber string) (AuthParams, error) {
	t, err := c.Mint(userName, userAccountNumber)
	if err != nil {
		return AuthParams{}, err
	}
	return AuthParams{Token: t, KCID: c.clientID}, nil
}

// AuthHeader mints a token formatted as an Authorization header value.
func (c *Codec) AuthHeader(userName, userAccountNumber string) (string, error) {
	t, err := c.Mint(userName, userAccountNumber)
	if err != nil {
		return "", err
	}
	return "OAuth " + t, nil
}

// Open reverses Mint: it decrypts the sealed token and verifies the inner
// signature with the same secret.
func (c *Codec) Open(sealed string) (*ChallengePayload, error) {
	if c.secret == "" {
		return nil, apperrors.NewConfigError(apperrors.ErrMissingClientCredentials)
	}
	if len(c.secret) < KeySize {
		return nil, apperrors.NewConfigError(apperrors.ErrSecretTooShort)
	}

	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidToken, "base64: %v", err)
	}
	signed, err := openCBC([]byte(c.secret[:KeySize]), raw)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidToken, "decrypt: %v", err)
	}

	var claims challengeClaims
	if err := NewHMACSigner(c.secret).Parse(string(signed), &claims); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidToken, "verify: %v", err)
	}
	return &claims.ChallengePayload, nil
}
