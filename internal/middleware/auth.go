package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/soiree-app/soiree/internal/auth"
	apperrors "github.com/soiree-app/soiree/pkg/errors"
	"github.com/soiree-app/soiree/pkg/response"
)

// GuestEmailKey is the gin context key holding the verified guest email.
const GuestEmailKey = "guest_email"

// HostAuth rejects requests without a valid host session cookie.
func HostAuth(hosts *auth.HostService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(auth.HostCookieName)
		if err != nil || !hosts.CheckToken(token) {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}
		c.Next()
	}
}

// GuestAuth rejects requests without a valid guest session cookie and stores
// the verified email in the context under GuestEmailKey.
func GuestAuth(otp *auth.OTPService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(auth.GuestCookieName)
		if err != nil {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		email, ok := otp.CheckToken(token)
		if !ok {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(GuestEmailKey, email)
		c.Next()
	}
}

// HostOrGuestAuth admits either a host session or a verified guest session.
// Hosts pass with no guest email in the context; guests get GuestEmailKey set.
func HostOrGuestAuth(hosts *auth.HostService, otp *auth.OTPService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, err := c.Cookie(auth.HostCookieName); err == nil && hosts.CheckToken(token) {
			c.Next()
			return
		}

		if token, err := c.Cookie(auth.GuestCookieName); err == nil {
			if email, ok := otp.CheckToken(token); ok {
				c.Set(GuestEmailKey, email)
				c.Next()
				return
			}
		}

		response.Error(c, apperrors.ErrUnauthorized)
		c.Abort()
	}
}

// GuestEmail extracts the verified guest email from the context, if present.
func GuestEmail(c *gin.Context) (string, bool) {
	value, ok := c.Get(GuestEmailKey)
	if !ok {
		return "", false
	}
	email, ok := value.(string)
	return email, ok && email != ""
}
