package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/soiree-app/soiree/pkg/errors"
)

// Response is the envelope every API endpoint writes.
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo is the client-visible part of a failure.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Success writes data inside a success envelope.
func Success(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, Response{Success: true, Data: data})
}

// Error maps err onto the envelope. Anything that is not an AppError renders
// as a generic internal error so wrapped causes never leak to clients.
func Error(c *gin.Context, err error) {
	if err == nil {
		err = appErrors.ErrInternalServer
	}

	appErr := appErrors.FromError(err)
	status := appErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}

	c.JSON(status, Response{
		Success: false,
		Error:   &ErrorInfo{Code: appErr.Code, Message: appErr.Message},
	})
}
