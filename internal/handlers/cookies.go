package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/soiree-app/soiree/internal/auth"
)

// sessionCookieMaxAge matches the token validity window.
const sessionCookieMaxAge = int(auth.SessionMaxAge / time.Second)

func setSessionCookie(c *gin.Context, name, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, token, sessionCookieMaxAge, "/", "", false, true)
}

func clearSessionCookie(c *gin.Context, name string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, "", -1, "/", "", false, true)
}
