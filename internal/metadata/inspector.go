package metadata

import (
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// Struct tags read by the inspector:
//
//	json:"author"       public name (falls back to field name)
//	field:"uid"         internal name (falls back to public name)
//	ref:"user"          entity reference to the given entity type
//	props:"value,format" field properties, main property first
//	label:"Author"      human readable label

// InspectEntity builds an entity definition whose base fields come from the
// struct base.
func InspectEntity(base any, name, label, table, key string) EntityDef {
	return EntityDef{
		Name:      name,
		Label:     label,
		TableName: table,
		KeyField:  key,
		Fields:    InspectFields(base),
		Bundles:   make([]BundleDef, 0),
	}
}

// InspectBundle builds a bundle definition from the struct model. Embedded
// base structs are skipped so only bundle fields remain.
func InspectBundle(model any, name, label string) BundleDef {
	t := structType(model)
	fields := make([]FieldDef, 0)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous || f.PkgPath != "" {
			continue
		}
		if def, ok := inspectField(f); ok {
			fields = append(fields, def)
		}
	}
	return BundleDef{Name: name, Label: label, Fields: fields}
}

// InspectFields analyzes a struct and returns its field definitions,
// flattening embedded structs.
func InspectFields(model any) []FieldDef {
	fields := make([]FieldDef, 0)
	inspectStruct(structType(model), &fields)
	return fields
}

func structType(model any) reflect.Type {
	t := reflect.TypeOf(model)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

func inspectStruct(t reflect.Type, fields *[]FieldDef) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.PkgPath != "" { // unexported
			continue
		}

		// Handle embedded structs (flattening)
		if field.Anonymous {
			inspectStruct(field.Type, fields)
			continue
		}

		if def, ok := inspectField(field); ok {
			*fields = append(*fields, def)
		}
	}
}

func inspectField(field reflect.StructField) (FieldDef, bool) {
	public := jsonName(field)
	if public == "-" {
		return FieldDef{}, false
	}

	def := FieldDef{
		Name:  public,
		Label: field.Name,
	}
	if internal, ok := field.Tag.Lookup("field"); ok && internal != "" {
		def.Name = internal
		if internal != public {
			def.PublicName = public
		}
	}
	if label, ok := field.Tag.Lookup("label"); ok {
		def.Label = label
	}
	if props, ok := field.Tag.Lookup("props"); ok && props != "" {
		def.Properties = strings.Split(props, ",")
	}

	t := field.Type
	if t.Kind() == reflect.Slice && t.Elem().Kind() != reflect.Uint8 {
		def.Multiple = true
		t = t.Elem()
	}

	if target, ok := field.Tag.Lookup("ref"); ok && target != "" {
		def.Type = TypeReference
		def.ReferenceType = target
		return def, true
	}

	mapFieldType(&def, t)
	return def, true
}

var (
	timeType    = reflect.TypeOf(time.Time{})
	decimalType = reflect.TypeOf(decimal.Decimal{})
)

func mapFieldType(def *FieldDef, t reflect.Type) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch t {
	case timeType:
		def.Type = TypeDate
		return
	case decimalType:
		def.Type = TypeNumber
		return
	}

	switch t.Kind() {
	case reflect.String:
		def.Type = TypeString
		if len(def.Properties) > 1 {
			def.Type = TypeText
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		def.Type = TypeInteger
	case reflect.Float32, reflect.Float64:
		def.Type = TypeNumber
	case reflect.Bool:
		def.Type = TypeBoolean
	default:
		def.Type = TypeString // fallback
	}
}

func jsonName(field reflect.StructField) string {
	if tag, ok := field.Tag.Lookup("json"); ok {
		parts := strings.Split(tag, ",")
		if parts[0] != "" {
			return parts[0]
		}
	}
	// Fallback: camelCase
	runes := []rune(field.Name)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}
