package handlers

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soiree-app/soiree/internal/export"
	"github.com/soiree-app/soiree/internal/services"
	apperrors "github.com/soiree-app/soiree/pkg/errors"
	"github.com/soiree-app/soiree/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler streams RSVP exports to the host dashboard.
type ExportHandler struct {
	rsvps *services.RsvpService
}

func NewExportHandler(rsvps *services.RsvpService) *ExportHandler {
	return &ExportHandler{rsvps: rsvps}
}

// GET /api/export
func (h *ExportHandler) Xlsx(c *gin.Context) {
	rsvps, err := h.rsvps.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteRsvpsXLSX(&buf, rsvps); err != nil {
		response.Error(c, apperrors.Wrap(err, "failed to build export"))
		return
	}

	c.Header("Content-Disposition", `attachment; filename="rsvps.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// GET /api/export/json
func (h *ExportHandler) JSON(c *gin.Context) {
	rsvps, err := h.rsvps.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteRsvpsJSON(&buf, rsvps); err != nil {
		response.Error(c, apperrors.Wrap(err, "failed to build export"))
		return
	}

	c.Header("Content-Disposition", `attachment; filename="rsvps.json"`)
	c.Data(http.StatusOK, "application/json", buf.Bytes())
}
