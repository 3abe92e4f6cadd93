package storage

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/soiree-app/soiree/pkg/crypto"
)

// DefaultSignedURLTTL mirrors the one hour expiry the hosted bucket used.
const DefaultSignedURLTTL = time.Hour

// URLSigner mints expiring, tamper-evident media tokens so photos can be
// served without exposing raw object paths. Same token shape as the session
// cookies: base64url(JSON) + "." + base64url(HMAC-SHA256).
type URLSigner struct {
	secret []byte
	now    func() time.Time
}

type mediaClaims struct {
	Path      string `json:"p"`
	ExpiresAt int64  `json:"exp"`
}

// SignerOption customises a URLSigner.
type SignerOption func(*URLSigner)

// WithSignerClock overrides the clock, primarily for tests.
func WithSignerClock(now func() time.Time) SignerOption {
	return func(s *URLSigner) {
		if now != nil {
			s.now = now
		}
	}
}

// NewURLSigner builds a signer from the shared signing secret.
func NewURLSigner(secret string, opts ...SignerOption) (*URLSigner, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("storage: signing secret is required")
	}

	signer := &URLSigner{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(signer)
	}
	return signer, nil
}

// Sign produces a token granting read access to the object until the TTL elapses.
func (s *URLSigner) Sign(objectPath string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultSignedURLTTL
	}

	raw, err := json.Marshal(mediaClaims{
		Path:      normalize(objectPath),
		ExpiresAt: s.now().Add(ttl).UnixMilli(),
	})
	if err != nil {
		return "", err
	}

	payload := base64.RawURLEncoding.EncodeToString(raw)
	return payload + "." + crypto.SignHMAC(s.secret, payload), nil
}

// Verify validates a media token and returns the object path it grants.
func (s *URLSigner) Verify(token string) (string, bool) {
	payload, sig, found := strings.Cut(strings.TrimSpace(token), ".")
	if !found || payload == "" || sig == "" {
		return "", false
	}

	expected := crypto.SignHMAC(s.secret, payload)
	if !crypto.ConstantTimeEquals(expected, sig) {
		return "", false
	}

	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return "", false
	}

	var claims mediaClaims
	if err := json.Unmarshal(raw, &claims); err != nil {
		return "", false
	}

	if claims.Path == "" || s.now().UnixMilli() >= claims.ExpiresAt {
		return "", false
	}
	return claims.Path, true
}
