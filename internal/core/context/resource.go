package context

import (
	"context"
)

// ResourceContext identifies the JSON:API resource a request targets.
type ResourceContext struct {
	EntityTypeID string
	Bundle       string
}

// Name returns the resource type name, e.g. "node--article".
func (r *ResourceContext) Name() string {
	return r.EntityTypeID + "--" + r.Bundle
}

type resourceContextKey struct{}

// WithResource adds ResourceContext to context.
func WithResource(ctx context.Context, res *ResourceContext) context.Context {
	return context.WithValue(ctx, resourceContextKey{}, res)
}

// GetResource returns ResourceContext from context.
func GetResource(ctx context.Context) *ResourceContext {
	if v, ok := ctx.Value(resourceContextKey{}).(*ResourceContext); ok {
		return v
	}
	return nil
}

// GetResourceName returns the resource type name or empty string.
func GetResourceName(ctx context.Context) string {
	if r := GetResource(ctx); r != nil {
		return r.Name()
	}
	return ""
}
