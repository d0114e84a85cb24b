// Package paging parses the JSON:API page query parameter (offset strategy).
package paging

import (
	"math"
	"strconv"

	"jsonapiq/internal/core/apperror"
	"jsonapiq/internal/core/params"
)

// DefaultMaxLimit is the page size cap used when none is configured.
const DefaultMaxLimit = 50

const (
	KeyOffset = "offset"
	KeyLimit  = "limit"
)

// Spec is an offset/limit window.
type Spec struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// Next returns the window following s; false when its offset would
// overflow int.
func (s Spec) Next() (Spec, bool) {
	if s.Offset > math.MaxInt-s.Limit {
		return s, false
	}
	return Spec{Offset: s.Offset + s.Limit, Limit: s.Limit}, true
}

// Prev returns the window preceding s; false on the first page.
func (s Spec) Prev() (Spec, bool) {
	if s.Offset == 0 {
		return s, false
	}
	offset := s.Offset - s.Limit
	if offset < 0 {
		offset = 0
	}
	return Spec{Offset: offset, Limit: s.Limit}, true
}

// Parser validates and defaults page windows.
type Parser struct {
	maxLimit int
}

// NewParser creates a parser capping limit at maxLimit; non-positive values
// select DefaultMaxLimit.
func NewParser(maxLimit int) Parser {
	if maxLimit <= 0 {
		maxLimit = DefaultMaxLimit
	}
	return Parser{maxLimit: maxLimit}
}

// MaxLimit returns the configured cap.
func (p Parser) MaxLimit() int {
	return p.maxLimit
}

// Parse returns {0, max} for an absent parameter. A limit above the cap is
// clamped silently; a negative offset or non-positive limit is rejected.
func (p Parser) Parse(raw *params.Value) (Spec, error) {
	spec := Spec{Offset: 0, Limit: p.maxLimit}
	if raw == nil {
		return spec, nil
	}
	if !raw.IsMap() {
		return Spec{}, apperror.NewMalformedPage("the page parameter needs to be an object, e.g. page[offset]=0&page[limit]=%d", p.maxLimit)
	}

	m := raw.Map()
	for _, k := range m.Keys() {
		if k != KeyOffset && k != KeyLimit {
			return Spec{}, apperror.NewMalformedPage("unsupported page key '%s'; use '%s' and '%s'", k, KeyOffset, KeyLimit).
				WithDetail("key", k)
		}
	}

	if v, ok := m.Get(KeyOffset); ok {
		n, err := intValue(v)
		if err != nil || n < 0 {
			return Spec{}, apperror.NewMalformedPage("page offset must be a non-negative integer").
				WithDetail("value", v.Native())
		}
		spec.Offset = n
	}

	if v, ok := m.Get(KeyLimit); ok {
		n, err := intValue(v)
		if err != nil || n <= 0 {
			return Spec{}, apperror.NewMalformedPage("page limit must be a positive integer").
				WithDetail("value", v.Native())
		}
		spec.Limit = min(n, p.maxLimit)
	}

	return spec, nil
}

func intValue(v *params.Value) (int, error) {
	if v.IsMap() {
		return 0, strconv.ErrSyntax
	}
	return strconv.Atoi(v.String())
}
