package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soiree-app/soiree/internal/services"
	"github.com/soiree-app/soiree/pkg/response"
)

// BroadcastHandler sends bulk email to selected guests from the dashboard.
type BroadcastHandler struct {
	broadcasts *services.BroadcastService
}

func NewBroadcastHandler(broadcasts *services.BroadcastService) *BroadcastHandler {
	return &BroadcastHandler{broadcasts: broadcasts}
}

type broadcastRequest struct {
	Subject    string               `json:"subject" validate:"required,max=200"`
	Message    string               `json:"message" validate:"required"`
	Recipients []services.Recipient `json:"recipients" validate:"required,min=1,dive"`
}

// POST /api/broadcast/reminders
func (h *BroadcastHandler) Reminders(c *gin.Context) {
	h.send(c, "reminder")
}

// POST /api/broadcast/thankyou
func (h *BroadcastHandler) ThankYou(c *gin.Context) {
	h.send(c, "thankyou")
}

func (h *BroadcastHandler) send(c *gin.Context, kind string) {
	var req broadcastRequest
	if !bindAndValidate(c, &req) {
		return
	}

	summary, err := h.broadcasts.Send(c.Request.Context(), kind, req.Subject, req.Message, req.Recipients)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, summary)
}
