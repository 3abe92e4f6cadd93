package auth

import (
	"strings"

	"github.com/soiree-app/soiree/pkg/crypto"
	apperrors "github.com/soiree-app/soiree/pkg/errors"
)

// HostConfig carries the static dashboard credentials sourced from
// configuration. Password may be either plaintext (compared constant-time) or
// a bcrypt hash.
type HostConfig struct {
	Username string
	Password string
}

// HostService issues and validates host dashboard sessions.
type HostService struct {
	username string
	password string
	codec    *TokenCodec
}

// NewHostService validates the configured credentials and builds the service.
func NewHostService(cfg HostConfig, codec *TokenCodec) (*HostService, error) {
	if codec == nil {
		return nil, apperrors.New("CONFIG", "host service requires a token codec", 500)
	}

	return &HostService{
		username: strings.TrimSpace(cfg.Username),
		password: strings.TrimSpace(cfg.Password),
		codec:    codec,
	}, nil
}

// Login checks the submitted credentials and mints a host session token.
// Username is an exact match on the trimmed value; the password comparison is
// constant-time (length gated) or bcrypt when the configured value is a hash.
func (s *HostService) Login(username, password string) (string, error) {
	if s.username == "" || s.password == "" {
		return "", apperrors.ErrInvalidCredentials
	}

	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)

	if username != s.username {
		return "", apperrors.ErrInvalidCredentials
	}

	var match bool
	if crypto.IsBcryptHash(s.password) {
		match = crypto.VerifyPassword(s.password, password)
	} else {
		match = crypto.ConstantTimeEquals(s.password, password)
	}
	if !match {
		return "", apperrors.ErrInvalidCredentials
	}

	return s.codec.Issue(SessionClaims{})
}

// CheckToken reports whether a host session cookie value is currently valid.
func (s *HostService) CheckToken(token string) bool {
	_, ok := s.codec.Verify(token, SessionMaxAge)
	return ok
}
