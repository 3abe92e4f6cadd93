package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soiree-app/soiree/internal/auth"
	"github.com/soiree-app/soiree/pkg/metrics"
	"github.com/soiree-app/soiree/pkg/response"
)

// AuthHandler manages the host login flow.
type AuthHandler struct {
	hosts *auth.HostService
}

func NewAuthHandler(hosts *auth.HostService) *AuthHandler {
	return &AuthHandler{hosts: hosts}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	token, err := h.hosts.Login(req.Username, req.Password)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		response.Error(c, err)
		return
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	setSessionCookie(c, auth.HostCookieName, token)
	response.Success(c, http.StatusOK, gin.H{"loggedIn": true})
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	clearSessionCookie(c, auth.HostCookieName)
	response.Success(c, http.StatusOK, gin.H{"loggedIn": false})
}

// GET /api/auth/check
func (h *AuthHandler) Check(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"loggedIn": true})
}
