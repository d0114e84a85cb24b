// Package metadata describes entity types, their bundles and fields, and
// resolves public JSON:API field paths to internal storage paths.
package metadata

import (
	"sort"
	"sync"
)

// FieldType defines the data type of a field.
type FieldType string

const (
	TypeString    FieldType = "string"
	TypeText      FieldType = "text"
	TypeInteger   FieldType = "integer"
	TypeNumber    FieldType = "number" // float/decimal
	TypeBoolean   FieldType = "boolean"
	TypeDate      FieldType = "date"
	TypeReference FieldType = "reference"
)

// Main properties.
const (
	PropertyValue    = "value"
	PropertyTargetID = "target_id"
)

// EntityDef describes an entity type.
type EntityDef struct {
	Name      string      `json:"name"` // entity type id, e.g. "node"
	Label     string      `json:"label,omitempty"`
	TableName string      `json:"-"`
	KeyField  string      `json:"-"`      // internal name of the id column
	BundleKey string      `json:"-"`      // column holding the bundle, empty for single-bundle types
	Fields    []FieldDef  `json:"fields"` // base fields shared by every bundle
	Bundles   []BundleDef `json:"bundles"`
}

// BundleDef describes a bundle and its additional fields.
type BundleDef struct {
	Name   string     `json:"name"`
	Label  string     `json:"label,omitempty"`
	Fields []FieldDef `json:"fields"`
}

// FieldDef describes a field.
type FieldDef struct {
	Name          string    `json:"name"`                 // internal name
	PublicName    string    `json:"publicName,omitempty"` // alias exposed to clients
	Label         string    `json:"label,omitempty"`
	Type          FieldType `json:"type"`
	ReferenceType string    `json:"referenceType,omitempty"` // target entity type for references
	Properties    []string  `json:"properties,omitempty"`    // first one is the main property
	Multiple      bool      `json:"multiple,omitempty"`      // stored in a per-field table
}

// Public returns the name clients use.
func (f FieldDef) Public() string {
	if f.PublicName != "" {
		return f.PublicName
	}
	return f.Name
}

// IsReference reports whether the field points at another entity.
func (f FieldDef) IsReference() bool {
	return f.Type == TypeReference
}

// MainProperty returns the property used when a path ends at the field.
func (f FieldDef) MainProperty() string {
	if len(f.Properties) > 0 {
		return f.Properties[0]
	}
	if f.IsReference() {
		return PropertyTargetID
	}
	return PropertyValue
}

// HasProperty reports whether p is a property of the field.
func (f FieldDef) HasProperty(p string) bool {
	if p == f.MainProperty() {
		return true
	}
	for _, prop := range f.Properties {
		if prop == p {
			return true
		}
	}
	return false
}

// Key returns the id column, "id" by default.
func (d EntityDef) Key() string {
	if d.KeyField != "" {
		return d.KeyField
	}
	return "id"
}

// Field finds a field by internal name across base and bundle fields.
func (d EntityDef) Field(name string) (FieldDef, bool) {
	for _, f := range d.AllFields() {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDef{}, false
}

// Bundle returns bundle definition by name.
func (d EntityDef) Bundle(name string) (BundleDef, bool) {
	for _, b := range d.Bundles {
		if b.Name == name {
			return b, true
		}
	}
	return BundleDef{}, false
}

// FieldsFor returns base fields followed by the bundle's own fields.
func (d EntityDef) FieldsFor(bundle string) []FieldDef {
	fields := append([]FieldDef(nil), d.Fields...)
	if b, ok := d.Bundle(bundle); ok {
		fields = append(fields, b.Fields...)
	}
	return fields
}

// AllFields returns base fields and the fields of every bundle, first
// definition winning on name clashes.
func (d EntityDef) AllFields() []FieldDef {
	seen := make(map[string]bool)
	var fields []FieldDef
	add := func(list []FieldDef) {
		for _, f := range list {
			if !seen[f.Name] {
				seen[f.Name] = true
				fields = append(fields, f)
			}
		}
	}
	add(d.Fields)
	for _, b := range d.Bundles {
		add(b.Fields)
	}
	return fields
}

// Registry stores entity definitions. It is populated at startup and read
// concurrently afterwards.
type Registry struct {
	mu       sync.RWMutex
	entities map[string]EntityDef
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entities: make(map[string]EntityDef),
	}
}

// Register adds or replaces an entity definition.
func (r *Registry) Register(def EntityDef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entities[def.Name] = def
}

// Get returns an entity definition by entity type id.
func (r *Registry) Get(name string) (EntityDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.entities[name]
	return d, ok
}

// HasResource reports whether entity type and bundle both exist.
func (r *Registry) HasResource(entityTypeID, bundle string) bool {
	def, ok := r.Get(entityTypeID)
	if !ok {
		return false
	}
	_, ok = def.Bundle(bundle)
	return ok
}

// List returns definitions sorted by name.
func (r *Registry) List() []EntityDef {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]EntityDef, 0, len(r.entities))
	for _, def := range r.entities {
		list = append(list, def)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}
