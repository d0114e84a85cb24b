package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jsonapiq/internal/core/apperror"
	"jsonapiq/internal/infrastructure/http/v1/dto"
	"jsonapiq/pkg/logger"
)

// ErrorHandler middleware transforms errors into JSON:API error documents.
// Hides internal errors from clients while logging full details.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		// If response already written by handler, do not override it.
		if c.Writer.Written() {
			return
		}

		appErr, ok := apperror.AsAppError(err)
		if !ok {
			logger.Error(c.Request.Context(), "unhandled error", "error", err)
			appErr = apperror.NewInternal(err)
		}
		if appErr.Err != nil {
			logger.Error(c.Request.Context(), "request error",
				"code", appErr.Code,
				"cause", appErr.Err,
			)
		} else if appErr.HTTPStatus < http.StatusInternalServerError {
			logger.Debug(c.Request.Context(), "rejected request",
				"code", appErr.Code,
				"parameter", appErr.Parameter(),
				"message", appErr.Message,
			)
		}

		doc := dto.NewErrorDocument(appErr)
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			doc.Errors[0].Meta = map[string]any{"request_id": c.GetString("request_id")}
		}
		Render(c, appErr.HTTPStatus, doc)
	}
}

// Render writes body as a JSON:API document.
func Render(c *gin.Context, status int, body any) {
	c.Header("Content-Type", dto.ContentType)
	c.JSON(status, body)
}
