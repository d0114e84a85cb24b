// Package query assembles the filter, sort, page, include and fields
// parameters of a JSON:API collection request into a single Query.
package query

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"jsonapiq/internal/core/apperror"
	"jsonapiq/internal/core/params"
	"jsonapiq/internal/domain/filter"
	"jsonapiq/internal/domain/paging"
	"jsonapiq/internal/domain/resource"
	"jsonapiq/internal/domain/sorting"
	"jsonapiq/pkg/logger"
)

var tracer = otel.Tracer("jsonapiq/query")

// Query is a parsed collection request. Filter is never nil.
type Query struct {
	Resource resource.Type          `json:"resource"`
	Filter   *filter.ConditionGroup `json:"filter"`
	Sort     sorting.Specs          `json:"sort,omitempty"`
	Page     paging.Spec            `json:"page"`
	Include  []string               `json:"include,omitempty"`
	Fields   map[string][]string    `json:"fields,omitempty"`
}

// Parser is safe for concurrent use.
type Parser struct {
	filters  *filter.Parser
	sorts    *sorting.Parser
	pages    paging.Parser
	includes resource.IncludeResolver
}

// Config wires the resolvers a Parser needs.
type Config struct {
	Paths    resource.PathResolver
	Includes resource.IncludeResolver
	MaxLimit int
}

// NewParser creates a query parser. A nil include resolver rejects every
// include path.
func NewParser(cfg Config) *Parser {
	return &Parser{
		filters:  filter.NewParser(cfg.Paths),
		sorts:    sorting.NewParser(cfg.Paths),
		pages:    paging.NewParser(cfg.MaxLimit),
		includes: cfg.Includes,
	}
}

// MaxLimit returns the page size cap.
func (p *Parser) MaxLimit() int {
	return p.pages.MaxLimit()
}

// ParseRaw decodes rawQuery and parses it.
func (p *Parser) ParseRaw(ctx context.Context, res resource.Type, rawQuery string) (*Query, error) {
	m, err := params.Parse(rawQuery)
	if err != nil {
		return nil, err
	}
	return p.Parse(ctx, res, m)
}

// Parse runs every parameter parser over m. Parameters other than filter,
// sort, page, include and fields are ignored.
func (p *Parser) Parse(ctx context.Context, res resource.Type, m *params.Map) (q *Query, err error) {
	ctx, span := tracer.Start(ctx, "query.parse",
		trace.WithAttributes(attribute.String("resource", res.Name())))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	q = &Query{Resource: res}

	filterParam, _ := m.Get(apperror.ParamFilter)
	if q.Filter, err = p.filters.Parse(res, filterParam); err != nil {
		return nil, tagParameter(err, apperror.ParamFilter)
	}

	if v, ok := m.Get(apperror.ParamSort); ok {
		if q.Sort, err = p.sorts.Parse(res, v); err != nil {
			return nil, tagParameter(err, apperror.ParamSort)
		}
	}

	pageParam, _ := m.Get(apperror.ParamPage)
	if q.Page, err = p.pages.Parse(pageParam); err != nil {
		return nil, err
	}

	if v, ok := m.Get(apperror.ParamInclude); ok {
		if q.Include, err = p.parseInclude(res, v); err != nil {
			return nil, tagParameter(err, apperror.ParamInclude)
		}
	}

	if v, ok := m.Get(apperror.ParamFields); ok {
		if q.Fields, err = parseFields(v); err != nil {
			return nil, err
		}
	}

	logger.Debug(ctx, "query parsed",
		"resource", res.Name(),
		"filter", q.Filter.String(),
		"sort", q.Sort.String(),
		"offset", q.Page.Offset,
		"limit", q.Page.Limit,
		"include", q.Include,
	)
	return q, nil
}

func (p *Parser) parseInclude(res resource.Type, v *params.Value) ([]string, error) {
	if v.IsMap() {
		return nil, apperror.NewMalformedInclude("the include parameter must be a comma separated list of relationship paths")
	}
	tokens, err := splitList(v.String())
	if err != nil {
		return nil, apperror.NewMalformedInclude("the include parameter contains an empty relationship path").
			WithDetail("value", v.String()).
			WithCause(err)
	}

	seen := make(map[string]bool, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, path := range tokens {
		if seen[path] {
			continue
		}
		seen[path] = true

		if p.includes == nil {
			return nil, apperror.NewUnresolvableField(path, "relationships cannot be included")
		}
		internal, err := p.includes.ResolveInclude(res.EntityTypeID, res.Bundle, path)
		if err != nil {
			return nil, err
		}
		out = append(out, internal)
	}
	return out, nil
}

// parseFields reads fields[<type>]=a,b. An empty value selects no fields.
func parseFields(v *params.Value) (map[string][]string, error) {
	if !v.IsMap() {
		return nil, apperror.NewMalformedFields("the fields parameter must be keyed by resource type, e.g. fields[node--article]=title")
	}
	m := v.Map()
	out := make(map[string][]string, m.Len())
	for _, typeName := range m.Keys() {
		val, _ := m.Get(typeName)
		if typeName == "" || val.IsMap() {
			return nil, apperror.NewMalformedFields("fields[%s] must be a comma separated list of field names", typeName).
				WithDetail("type", typeName)
		}
		if val.String() == "" {
			out[typeName] = []string{}
			continue
		}
		names, err := splitList(val.String())
		if err != nil {
			return nil, apperror.NewMalformedFields("fields[%s] contains an empty field name", typeName).
				WithDetail("type", typeName).
				WithCause(err)
		}
		out[typeName] = names
	}
	return out, nil
}

// tagParameter records param on resolver errors, which do not know which
// query parameter carried the path.
func tagParameter(err error, param string) error {
	if appErr, ok := apperror.AsAppError(err); ok && appErr.Parameter() == "" {
		appErr.WithDetail("parameter", param)
	}
	return err
}

var errEmptyToken = errors.New("empty list item")

func splitList(s string) ([]string, error) {
	parts := strings.Split(s, ",")
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
		if parts[i] == "" {
			return nil, errEmptyToken
		}
	}
	return parts, nil
}
