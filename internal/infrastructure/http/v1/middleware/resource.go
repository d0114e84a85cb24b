package middleware

import (
	"github.com/gin-gonic/gin"

	"jsonapiq/internal/core/apperror"
	appctx "jsonapiq/internal/core/context"
	"jsonapiq/internal/domain/resource"
	"jsonapiq/internal/metadata"
)

// Route parameters naming the addressed resource.
const (
	ParamEntityType = "entity_type"
	ParamBundle     = "bundle"
)

const resourceKey = "resource"

// Resource middleware resolves :entity_type/:bundle against the registry
// and stores the resource type in the request context. Unknown resources
// abort with 404.
func Resource(registry *metadata.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		res := resource.Type{
			EntityTypeID: c.Param(ParamEntityType),
			Bundle:       c.Param(ParamBundle),
		}
		if !registry.HasResource(res.EntityTypeID, res.Bundle) {
			_ = c.Error(apperror.NewNotFound("resource type", res.Name()))
			c.Abort()
			return
		}

		ctx := appctx.WithResource(c.Request.Context(), &appctx.ResourceContext{
			EntityTypeID: res.EntityTypeID,
			Bundle:       res.Bundle,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Set(resourceKey, res)
		c.Next()
	}
}

// GetResource returns the resource type stored by Resource.
func GetResource(c *gin.Context) (resource.Type, bool) {
	v, ok := c.Get(resourceKey)
	if !ok {
		return resource.Type{}, false
	}
	res, ok := v.(resource.Type)
	return res, ok
}
