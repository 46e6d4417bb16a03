package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/guestbook/pkg/errors"
	"github.com/charlesng35/guestbook/pkg/logger"
	"github.com/charlesng35/guestbook/pkg/response"
)

// Recovery converts panics into a 500 response and logs the error with its
// stack. A response that already started streaming is only aborted.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			logger.WithModule("http").Error("panic serving request",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Any("error", r),
				zap.Stack("stack"),
			)
			if c.Writer.Written() {
				c.Abort()
				return
			}
			response.Error(c, errors.ErrInternalServer.WithInternal(fmt.Errorf("panic: %v", r)))
			c.Abort()
		}()
		c.Next()
	}
}

// NotFoundHandler returns a JSON 404 response for unknown routes.
func NotFoundHandler(c *gin.Context) {
	response.Error(c, errors.New(errors.ErrNotFound.Code, fmt.Sprintf("route %s not found", c.Request.URL.Path), http.StatusNotFound))
}
