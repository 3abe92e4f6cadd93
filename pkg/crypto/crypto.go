package crypto

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns a bcrypt hash of the supplied password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword compares the hashed password with the plaintext candidate.
func VerifyPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

// IsBcryptHash reports whether the value looks like a bcrypt digest. Used to
// decide how a configured credential should be compared.
func IsBcryptHash(value string) bool {
	return strings.HasPrefix(value, "$2a$") || strings.HasPrefix(value, "$2b$") || strings.HasPrefix(value, "$2y$")
}

// ConstantTimeEquals compares two strings without leaking the position of the
// first differing byte. Inputs of different length compare unequal immediately;
// length is not secret for the credentials and signatures handled here.
func ConstantTimeEquals(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// SignHMAC computes a base64url (unpadded) HMAC-SHA256 signature over data.
func SignHMAC(secret []byte, data string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(data))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// GenerateToken returns a URL-safe random token of the requested byte length.
func GenerateToken(length int) (string, error) {
	if length <= 0 {
		length = 32
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("crypto: read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// GenerateNumericCode returns a zero-padded numeric code with the given number
// of digits, drawn uniformly from crypto/rand. Rejection sampling keeps the
// distribution exact: a raw 32-bit draw is discarded when it falls into the
// truncated tail above the largest multiple of 10^digits.
func GenerateNumericCode(digits int) (string, error) {
	if digits <= 0 || digits > 9 {
		return "", fmt.Errorf("crypto: unsupported code length %d", digits)
	}

	space := uint32(1)
	for i := 0; i < digits; i++ {
		space *= 10
	}
	limit := (^uint32(0) / space) * space

	var buf [4]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			return "", fmt.Errorf("crypto: read random: %w", err)
		}
		v := binary.BigEndian.Uint32(buf[:])
		if v >= limit {
			continue
		}
		return fmt.Sprintf("%0*d", digits, v%space), nil
	}
}
