package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soiree-app/soiree/internal/services"
	"github.com/soiree-app/soiree/pkg/metrics"
	"github.com/soiree-app/soiree/pkg/response"
)

// RsvpHandler serves the public RSVP form and the host dashboard list.
type RsvpHandler struct {
	rsvps *services.RsvpService
}

func NewRsvpHandler(rsvps *services.RsvpService) *RsvpHandler {
	return &RsvpHandler{rsvps: rsvps}
}

type rsvpRequest struct {
	Name      string `json:"name" validate:"required,max=200"`
	Email     string `json:"email" validate:"required,email"`
	Attending string `json:"attending" validate:"required,attending"`
	Message   string `json:"message" validate:"max=2000"`
}

// POST /api/rsvp
func (h *RsvpHandler) Create(c *gin.Context) {
	var req rsvpRequest
	if !bindAndValidate(c, &req) {
		return
	}

	rsvp, err := h.rsvps.Create(c.Request.Context(), services.RsvpInput{
		Name:      req.Name,
		Email:     req.Email,
		Attending: req.Attending,
		Message:   req.Message,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	metrics.RSVPSubmissions.WithLabelValues(rsvp.Attending).Inc()
	response.Success(c, http.StatusCreated, rsvp)
}

// GET /api/rsvp
func (h *RsvpHandler) List(c *gin.Context) {
	rsvps, err := h.rsvps.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, rsvps)
}
