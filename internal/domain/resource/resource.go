// Package resource describes the addressed JSON:API resource and the field
// path resolution contract the query parsers depend on.
package resource

import "fmt"

// Type identifies a resource collection by entity type and bundle.
type Type struct {
	EntityTypeID string `json:"entityType"`
	Bundle       string `json:"bundle"`
}

// Name returns the JSON:API resource type name, e.g. "node--article".
func (t Type) Name() string {
	return fmt.Sprintf("%s--%s", t.EntityTypeID, t.Bundle)
}

// PathResolver maps public dotted field paths to internal storage paths.
// Implementations must be safe for concurrent use.
type PathResolver interface {
	// ResolvePath translates e.g. "uid.uuid" to "uid.entity.uuid.value".
	ResolvePath(entityTypeID, bundle, publicPath string) (string, error)
}

// IncludeResolver validates relationship paths used by the include parameter.
type IncludeResolver interface {
	ResolveInclude(entityTypeID, bundle, publicPath string) (string, error)
}

// PathResolverFunc adapts a function to PathResolver.
type PathResolverFunc func(entityTypeID, bundle, publicPath string) (string, error)

// ResolvePath implements PathResolver.
func (f PathResolverFunc) ResolvePath(entityTypeID, bundle, publicPath string) (string, error) {
	return f(entityTypeID, bundle, publicPath)
}
