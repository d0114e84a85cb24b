package metadata

import (
	"fmt"
	"strings"

	"jsonapiq/internal/core/apperror"
	"jsonapiq/internal/domain/resource"
)

// Path segments with special meaning.
const (
	segmentEntity = "entity"
	segmentID     = "id"
	fieldUUID     = "uuid"
)

var (
	_ resource.PathResolver    = (*FieldResolver)(nil)
	_ resource.IncludeResolver = (*FieldResolver)(nil)
)

// FieldResolver maps public dotted paths onto internal entity query paths
// using the registry. It only reads the registry.
type FieldResolver struct {
	registry *Registry
}

// NewFieldResolver creates a resolver over registry.
func NewFieldResolver(registry *Registry) *FieldResolver {
	return &FieldResolver{registry: registry}
}

// scope is the set of fields a path segment is looked up in.
type scope struct {
	name   string
	fields []FieldDef
}

func (s scope) lookup(public string) (FieldDef, bool) {
	for _, f := range s.fields {
		if f.Public() == public {
			return f, true
		}
	}
	return FieldDef{}, false
}

func (r *FieldResolver) bundleScope(path, entityTypeID, bundle string) (scope, error) {
	def, ok := r.registry.Get(entityTypeID)
	if !ok {
		return scope{}, apperror.NewUnresolvableField(path, fmt.Sprintf("unknown entity type '%s'", entityTypeID))
	}
	if _, ok := def.Bundle(bundle); !ok {
		return scope{}, apperror.NewUnresolvableField(path, fmt.Sprintf("unknown bundle '%s' of entity type '%s'", bundle, entityTypeID))
	}
	return scope{name: entityTypeID + "--" + bundle, fields: def.FieldsFor(bundle)}, nil
}

// targetScope covers every bundle of the referenced entity type.
func (r *FieldResolver) targetScope(path string, f FieldDef) (scope, error) {
	def, ok := r.registry.Get(f.ReferenceType)
	if !ok {
		return scope{}, apperror.NewUnresolvableField(path,
			fmt.Sprintf("field '%s' references unknown entity type '%s'", f.Public(), f.ReferenceType))
	}
	return scope{name: def.Name, fields: def.AllFields()}, nil
}

// ResolvePath implements resource.PathResolver.
//
//	uid.uuid          -> uid.entity.uuid.value
//	uid.id            -> uid.entity.uuid.value
//	uid               -> uid.target_id
//	body.format       -> body.format
//	field_tags.name   -> field_tags.entity.name.value
func (r *FieldResolver) ResolvePath(entityTypeID, bundle, publicPath string) (string, error) {
	parts, err := splitPath(publicPath)
	if err != nil {
		return "", err
	}
	cur, err := r.bundleScope(publicPath, entityTypeID, bundle)
	if err != nil {
		return "", err
	}

	var out []string
	for i := 0; i < len(parts); i++ {
		part := parts[i]

		f, ok := cur.lookup(part)
		if !ok {
			if part == segmentID {
				if uuid, ok := cur.lookup(fieldUUID); ok {
					out = append(out, uuid.Name, uuid.MainProperty())
					if i != len(parts)-1 {
						return "", apperror.NewUnresolvableField(publicPath, "'id' must be the last path segment")
					}
					break
				}
			}
			return "", apperror.NewUnresolvableField(publicPath,
				fmt.Sprintf("the field '%s' does not exist on '%s'", part, cur.name))
		}
		out = append(out, f.Name)

		if i == len(parts)-1 {
			out = append(out, f.MainProperty())
			break
		}

		next := parts[i+1]
		if f.HasProperty(next) {
			if i+1 != len(parts)-1 {
				return "", apperror.NewUnresolvableField(publicPath,
					fmt.Sprintf("property '%s' of field '%s' cannot be traversed", next, f.Public()))
			}
			out = append(out, next)
			break
		}

		if !f.IsReference() {
			return "", apperror.NewUnresolvableField(publicPath,
				fmt.Sprintf("the property '%s' does not exist on field '%s'", next, f.Public()))
		}

		cur, err = r.targetScope(publicPath, f)
		if err != nil {
			return "", err
		}
		out = append(out, segmentEntity)
	}
	return strings.Join(out, "."), nil
}

// ResolveInclude validates a relationship path used by the include
// parameter: every segment must be a reference field. The internal field
// names are returned joined by dots.
func (r *FieldResolver) ResolveInclude(entityTypeID, bundle, publicPath string) (string, error) {
	parts, err := splitPath(publicPath)
	if err != nil {
		return "", err
	}
	cur, err := r.bundleScope(publicPath, entityTypeID, bundle)
	if err != nil {
		return "", err
	}

	out := make([]string, 0, len(parts))
	for _, part := range parts {
		f, ok := cur.lookup(part)
		if !ok {
			return "", apperror.NewUnresolvableField(publicPath,
				fmt.Sprintf("the field '%s' does not exist on '%s'", part, cur.name))
		}
		if !f.IsReference() {
			return "", apperror.NewUnresolvableField(publicPath,
				fmt.Sprintf("'%s' is not a relationship field", part))
		}
		out = append(out, f.Name)
		if cur, err = r.targetScope(publicPath, f); err != nil {
			return "", err
		}
	}
	return strings.Join(out, "."), nil
}

func splitPath(path string) ([]string, error) {
	if path == "" {
		return nil, apperror.NewUnresolvableField(path, "empty field path")
	}
	parts := strings.Split(path, ".")
	for _, p := range parts {
		if p == "" {
			return nil, apperror.NewUnresolvableField(path, "empty path segment")
		}
	}
	return parts, nil
}
