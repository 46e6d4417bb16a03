package response

import (
	appErrors "github.com/charlesng35/guestbook/pkg/errors"
	"github.com/gin-gonic/gin"
)

// Response is the JSON envelope for failures the HTML page cannot render.
type Response struct {
	Success bool       `json:"success"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo holds error details to send to clients.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error writes a JSON error response derived from an AppError. Internal
// causes are never sent to the client.
func Error(c *gin.Context, err error) {
	if err == nil {
		err = appErrors.ErrInternalServer
	}

	appErr := appErrors.FromError(err)
	c.JSON(appErr.Status(), Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    appErr.Code,
			Message: appErr.Message,
		},
	})
}
