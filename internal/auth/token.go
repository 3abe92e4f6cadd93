package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/soiree-app/soiree/pkg/crypto"
)

// Cookie names and lifetime shared by the host and guest session flows.
const (
	HostCookieName  = "host_session"
	GuestCookieName = "guest_session"
	SessionMaxAge   = 24 * time.Hour
)

// SessionClaims is the signed cookie payload. Host sessions carry only the
// issue timestamp; guest sessions additionally bind the verified email.
type SessionClaims struct {
	Email    string `json:"email,omitempty"`
	IssuedAt int64  `json:"t"`
}

// TokenCodec mints and verifies tamper-evident session tokens of the form
// base64url(JSON payload) + "." + base64url(HMAC-SHA256(payload)).
type TokenCodec struct {
	secret []byte
	now    func() time.Time
}

// CodecOption customises a TokenCodec.
type CodecOption func(*TokenCodec)

// WithCodecClock overrides the clock used for issue and age checks.
func WithCodecClock(now func() time.Time) CodecOption {
	return func(c *TokenCodec) {
		if now != nil {
			c.now = now
		}
	}
}

// NewTokenCodec builds a codec from the configured signing secret. An empty
// secret is a configuration error: operating with a guessable default would
// silently disable authentication, so start-up must fail instead.
func NewTokenCodec(secret string, opts ...CodecOption) (*TokenCodec, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("auth: session signing secret must be configured")
	}

	codec := &TokenCodec{
		secret: []byte(secret),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(codec)
	}
	return codec, nil
}

// Issue serialises the claims with the current timestamp and signs them.
func (c *TokenCodec) Issue(claims SessionClaims) (string, error) {
	if claims.IssuedAt == 0 {
		claims.IssuedAt = c.now().UnixMilli()
	}

	raw, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}

	payload := base64.RawURLEncoding.EncodeToString(raw)
	sig := crypto.SignHMAC(c.secret, payload)
	return payload + "." + sig, nil
}

// Verify checks the signature and age of a token. Every failure mode —
// missing segment, bad base64, bad JSON, signature mismatch, stale timestamp —
// collapses into ok=false; callers never learn which check failed.
func (c *TokenCodec) Verify(token string, maxAge time.Duration) (SessionClaims, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return SessionClaims{}, false
	}

	payload, sig, found := strings.Cut(token, ".")
	if !found || payload == "" || sig == "" {
		return SessionClaims{}, false
	}

	expected := crypto.SignHMAC(c.secret, payload)
	if !crypto.ConstantTimeEquals(expected, sig) {
		return SessionClaims{}, false
	}

	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return SessionClaims{}, false
	}

	var claims SessionClaims
	if err := json.Unmarshal(raw, &claims); err != nil {
		return SessionClaims{}, false
	}

	if claims.IssuedAt <= 0 {
		return SessionClaims{}, false
	}

	age := c.now().UnixMilli() - claims.IssuedAt
	if age < 0 || age >= maxAge.Milliseconds() {
		return SessionClaims{}, false
	}

	return claims, true
}
