package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jsonapiq/internal/core/apperror"
	"jsonapiq/internal/domain/resource"
	"jsonapiq/internal/infrastructure/http/v1/middleware"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// Error processes error and sends appropriate response.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	h.HandleError(c, err)
}

// HandleError registers error on Gin context and aborts request.
// Actual JSON response is produced by middleware.ErrorHandler (single source of truth).
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// Resource returns the resource resolved by middleware.Resource. It fails
// the request when the route was registered without that middleware.
func (h *BaseHandler) Resource(c *gin.Context) (resource.Type, bool) {
	res, ok := middleware.GetResource(c)
	if !ok {
		h.Error(c, apperror.NewInternal(nil).WithDetail("reason", "resource middleware missing"))
	}
	return res, ok
}

// OK sends 200 response with a JSON:API document.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	middleware.Render(c, http.StatusOK, data)
}
