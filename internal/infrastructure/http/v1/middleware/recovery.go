// Package middleware provides HTTP middleware components.
package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"jsonapiq/internal/core/apperror"
	"jsonapiq/internal/infrastructure/http/v1/dto"
	"jsonapiq/pkg/logger"
)

// Recovery middleware recovers from panics and returns 500 error.
// Logs stack trace but never exposes internal details to client.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				// Log full stack trace
				logger.Error(c.Request.Context(), "panic recovered",
					"error", err,
					"stack", string(debug.Stack()),
				)

				appErr := apperror.NewInternal(fmt.Errorf("panic: %v", err)).
					WithDetail("request_id", c.GetString("request_id"))
				_ = c.Error(appErr)
				c.Abort()

				// ErrorHandler sits inside this middleware and was unwound by the panic.
				if !c.Writer.Written() {
					Render(c, appErr.HTTPStatus, dto.NewErrorDocument(appErr))
				}
			}
		}()
		c.Next()
	}
}
