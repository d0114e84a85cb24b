package filter

import (
	"jsonapiq/internal/core/apperror"
	"jsonapiq/internal/core/params"
	"jsonapiq/internal/domain/resource"
)

// Parser turns the filter query parameter into a condition tree.
// It holds no per-request state and is safe for concurrent use.
type Parser struct {
	resolver resource.PathResolver
}

// NewParser creates a filter parser resolving paths through resolver.
func NewParser(resolver resource.PathResolver) *Parser {
	return &Parser{resolver: resolver}
}

// Parse expands and assembles raw into the root group. A nil raw value
// yields an empty root group.
func (p *Parser) Parse(res resource.Type, raw *params.Value) (*ConditionGroup, error) {
	if raw == nil {
		return NewConditionGroup(string(And), nil)
	}
	if !raw.IsMap() {
		return nil, apperror.NewMalformedFilter("the filter parameter must be keyed by filter id, e.g. filter[title]=value")
	}

	items, err := Expand(raw.Map(), res, p.resolver)
	if err != nil {
		return nil, err
	}
	return BuildTree(items)
}
