// Package sorting parses the JSON:API sort query parameter.
package sorting

import (
	"sort"
	"strings"

	"jsonapiq/internal/core/apperror"
	"jsonapiq/internal/core/params"
	"jsonapiq/internal/domain/resource"
)

// Direction is the ordering direction of a sort key.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// Wire-format keys of an explicit sort item.
const (
	KeyPath      = "path"
	KeyDirection = "direction"
	KeyLangcode  = "langcode"
)

// Spec is one sort key. Language is empty when not given.
type Spec struct {
	Path      string    `json:"path"`
	Direction Direction `json:"direction"`
	Language  string    `json:"langcode,omitempty"`
}

// Specs is an ordered list of sort keys, primary first.
type Specs []Spec

// String renders the shorthand form, e.g. "-created,title". Language is
// not representable in shorthand and is dropped.
func (s Specs) String() string {
	parts := make([]string, len(s))
	for i, spec := range s {
		if spec.Direction == Desc {
			parts[i] = "-" + spec.Path
		} else {
			parts[i] = spec.Path
		}
	}
	return strings.Join(parts, ",")
}

var itemKeys = []string{KeyDirection, KeyLangcode, KeyPath}

// Parser turns the sort parameter into sort keys with resolved paths.
type Parser struct {
	resolver resource.PathResolver
}

// NewParser creates a sort parser resolving paths through resolver.
func NewParser(resolver resource.PathResolver) *Parser {
	return &Parser{resolver: resolver}
}

// Parse accepts either the shorthand string ("-a,b") or an explicit map of
// items (sort[x][path]=a&sort[x][direction]=DESC).
func (p *Parser) Parse(res resource.Type, raw *params.Value) (Specs, error) {
	if raw == nil || (!raw.IsMap() && raw.String() == "") || (raw.IsMap() && raw.Map().Len() == 0) {
		return nil, apperror.NewMalformedSort("you need to provide a value for the sort parameter")
	}

	var specs Specs
	var err error
	if raw.IsMap() {
		specs, err = parseItems(raw.Map())
	} else {
		specs, err = parseShorthand(raw.String())
	}
	if err != nil {
		return nil, err
	}

	for i := range specs {
		internal, err := p.resolver.ResolvePath(res.EntityTypeID, res.Bundle, specs[i].Path)
		if err != nil {
			return nil, err
		}
		specs[i].Path = internal
	}
	return specs, nil
}

func parseShorthand(raw string) (Specs, error) {
	tokens := strings.Split(raw, ",")
	specs := make(Specs, 0, len(tokens))
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		spec := Spec{Path: token, Direction: Asc}
		if strings.HasPrefix(token, "-") {
			spec.Path = strings.TrimSpace(token[1:])
			spec.Direction = Desc
		}
		if spec.Path == "" {
			return nil, apperror.NewMalformedSort("you need to provide a field name for the sort parameter").
				WithDetail("value", raw)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func parseItems(raw *params.Map) (Specs, error) {
	specs := make(Specs, 0, raw.Len())
	for _, key := range raw.Keys() {
		v, _ := raw.Get(key)
		if !v.IsMap() {
			return nil, apperror.NewMalformedSort("sort item '%s' must be an object", key)
		}
		item := v.Map()

		path, ok := item.Get(KeyPath)
		if !ok || path.IsMap() || path.String() == "" {
			return nil, apperror.NewMalformedSort("you need to provide a field name for the sort parameter").
				WithDetail("item", key)
		}

		merged := item.Clone()
		if !merged.Has(KeyDirection) {
			merged.SetString(KeyDirection, string(Asc))
		}
		if !merged.Has(KeyLangcode) {
			merged.SetString(KeyLangcode, "")
		}
		if !sameKeys(merged.Keys(), itemKeys) {
			return nil, apperror.NewMalformedSort("you have provided an invalid set of sort keys").
				WithDetail("item", key).
				WithDetail("keys", item.Keys())
		}

		dir, _ := merged.Get(KeyDirection)
		direction := Direction(strings.ToUpper(dir.String()))
		if dir.IsMap() || (direction != Asc && direction != Desc) {
			return nil, apperror.NewMalformedSort("sort direction must be ASC or DESC").
				WithDetail("item", key)
		}
		lang, _ := merged.Get(KeyLangcode)
		if lang.IsMap() {
			return nil, apperror.NewMalformedSort("sort langcode must be a string").
				WithDetail("item", key)
		}

		specs = append(specs, Spec{Path: path.String(), Direction: direction, Language: lang.String()})
	}
	return specs, nil
}

func sameKeys(given, want []string) bool {
	if len(given) != len(want) {
		return false
	}
	sorted := append([]string(nil), given...)
	sort.Strings(sorted)
	for i := range want {
		if sorted[i] != want[i] {
			return false
		}
	}
	return true
}
