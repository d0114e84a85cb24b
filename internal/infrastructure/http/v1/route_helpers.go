// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"jsonapiq/internal/infrastructure/http/v1/middleware"
	"jsonapiq/internal/metadata"
)

// ResourceRouteHandler defines the handlers of a JSON:API collection.
type ResourceRouteHandler interface {
	List(c *gin.Context)
	Query(c *gin.Context)
}

// RegisterResourceRoutes registers the collection routes under group. The
// resource is resolved once per request before the handler runs.
//
// Usage:
//
//	handler := handlers.NewCollectionHandler(base, cfg)
//	RegisterResourceRoutes(router.Group("/jsonapi"), registry, handler)
func RegisterResourceRoutes(group *gin.RouterGroup, registry *metadata.Registry, handler ResourceRouteHandler) {
	resources := group.Group("/:"+middleware.ParamEntityType+"/:"+middleware.ParamBundle,
		middleware.Resource(registry))
	resources.GET("", handler.List)
	resources.GET("/query", handler.Query)
}
