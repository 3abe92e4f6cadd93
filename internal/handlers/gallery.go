package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/soiree-app/soiree/internal/auth"
	apperrors "github.com/soiree-app/soiree/pkg/errors"
	"github.com/soiree-app/soiree/pkg/metrics"
	"github.com/soiree-app/soiree/pkg/response"
)

// GalleryAuthHandler runs the guest verification flow for photo access.
type GalleryAuthHandler struct {
	otp *auth.OTPService
}

func NewGalleryAuthHandler(otp *auth.OTPService) *GalleryAuthHandler {
	return &GalleryAuthHandler{otp: otp}
}

type verifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code"`
}

// POST /api/gallery/verify
//
// With only an email, requests a verification code. With email and code,
// exchanges them for a guest session cookie.
func (h *GalleryAuthHandler) Verify(c *gin.Context) {
	var req verifyRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if strings.TrimSpace(req.Code) == "" {
		h.requestCode(c, req.Email)
		return
	}
	h.verifyCode(c, req.Email, req.Code)
}

func (h *GalleryAuthHandler) requestCode(c *gin.Context, email string) {
	if err := h.otp.RequestCode(c.Request.Context(), email); err != nil {
		result := "error"
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Code == apperrors.ErrNotEligible.Code {
			result = "ineligible"
		}
		metrics.OTPRequests.WithLabelValues(result).Inc()
		response.Error(c, err)
		return
	}

	metrics.OTPRequests.WithLabelValues("sent").Inc()
	response.Success(c, http.StatusOK, gin.H{"codeSent": true})
}

func (h *GalleryAuthHandler) verifyCode(c *gin.Context, email, code string) {
	token, err := h.otp.VerifyCode(c.Request.Context(), email, code)
	if err != nil {
		metrics.OTPVerifications.WithLabelValues("failure").Inc()
		response.Error(c, err)
		return
	}

	metrics.OTPVerifications.WithLabelValues("success").Inc()
	setSessionCookie(c, auth.GuestCookieName, token)
	response.Success(c, http.StatusOK, gin.H{"verified": true})
}

// POST /api/gallery/logout
func (h *GalleryAuthHandler) Logout(c *gin.Context) {
	clearSessionCookie(c, auth.GuestCookieName)
	response.Success(c, http.StatusOK, gin.H{"verified": false})
}
