// Package entity_repo runs parsed JSON:API collection queries against the
// PostgreSQL entity tables described by the metadata registry.
package entity_repo

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"jsonapiq/internal/core/apperror"
	"jsonapiq/internal/domain/filter"
	"jsonapiq/internal/domain/query"
	"jsonapiq/internal/domain/sorting"
	"jsonapiq/internal/metadata"
)

const (
	baseAlias     = "base"
	segmentEntity = "entity"
	// IDColumn is the result key holding the resource id (the uuid).
	IDColumn = "id"
)

// Compiled holds the statements built for one query. Count shares the
// joins and conditions of Select but ignores sorting and paging. Grouped is
// set when a multi-valued field made Select group by the entity key.
type Compiled struct {
	Select  squirrel.SelectBuilder
	Count   squirrel.SelectBuilder
	Grouped bool
}

// SQL renders the select statement.
func (c Compiled) SQL() (string, []any, error) {
	return c.Select.ToSql()
}

// Compiler turns queries into squirrel statements. It is stateless; every
// Compile call uses fresh join bookkeeping.
type Compiler struct {
	registry *metadata.Registry
}

// NewCompiler creates a compiler over registry.
func NewCompiler(registry *metadata.Registry) *Compiler {
	return &Compiler{registry: registry}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// join is a LEFT JOIN added while resolving a column.
type join struct {
	table string
	alias string
	on    string
}

// column is a resolved storage column and the field it belongs to.
type column struct {
	expr  string
	field metadata.FieldDef
	// main is false when the path addressed a secondary property.
	main bool
}

func (c column) onBase() bool {
	return strings.HasPrefix(c.expr, baseAlias+".")
}

// selected is a column of the select list.
type selected struct {
	expr string
	as   string
}

func dedupe(list []string) []string {
	seen := make(map[string]bool, len(list))
	out := list[:0]
	for _, s := range list {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

type compilation struct {
	registry *metadata.Registry
	root     metadata.EntityDef
	joins    []join
	aliases  map[string]string // path prefix -> alias
	grouped  bool
}

// Compile builds the select and count statements for q.
func (c *Compiler) Compile(q *query.Query) (Compiled, error) {
	def, ok := c.registry.Get(q.Resource.EntityTypeID)
	if !ok {
		return Compiled{}, apperror.NewNotFound("resource type", q.Resource.Name())
	}
	if _, ok := def.Bundle(q.Resource.Bundle); !ok {
		return Compiled{}, apperror.NewNotFound("resource type", q.Resource.Name())
	}

	cc := &compilation{
		registry: c.registry,
		root:     def,
		aliases:  make(map[string]string),
	}

	var where []squirrel.Sqlizer
	if def.BundleKey != "" {
		where = append(where, squirrel.Eq{qualify(baseAlias, def.BundleKey): q.Resource.Bundle})
	}
	if !q.Filter.Empty() {
		cond, err := cc.group(q.Filter)
		if err != nil {
			return Compiled{}, err
		}
		if cond != nil {
			where = append(where, cond)
		}
	}

	sortCols := make([]column, 0, len(q.Sort))
	for _, s := range q.Sort {
		col, err := cc.column(s.Path)
		if err != nil {
			return Compiled{}, apperror.NewMalformedSort("cannot sort by '%s'", s.Path).WithCause(err)
		}
		sortCols = append(sortCols, col)
	}

	key := qualify(baseAlias, def.Key())
	countExpr := "COUNT(*)"
	if cc.grouped {
		countExpr = "COUNT(DISTINCT " + key + ")"
	}

	selected := selectColumns(def, q)
	cols := make([]string, len(selected))
	for i, c := range selected {
		cols[i] = c.expr + " AS " + c.as
	}
	sel := cc.from(Builder().Select(cols...), where)

	// Multi-valued joins fan out rows, so one row per entity is restored by
	// grouping on the base columns. Joined sort columns are then aggregated.
	groupBy := []string{key}
	orderBy := make([]string, 0, len(sortCols))
	for i, col := range sortCols {
		dir, agg := "ASC", "MIN"
		if q.Sort[i].Direction == sorting.Desc {
			dir, agg = "DESC", "MAX"
		}
		expr := col.expr
		if cc.grouped {
			if col.onBase() {
				groupBy = append(groupBy, expr)
			} else {
				expr = agg + "(" + expr + ")"
			}
		}
		orderBy = append(orderBy, expr+" "+dir)
	}
	if cc.grouped {
		for _, c := range selected {
			groupBy = append(groupBy, c.expr)
		}
		sel = sel.GroupBy(dedupe(groupBy)...)
	}
	if len(orderBy) > 0 {
		sel = sel.OrderBy(orderBy...)
	}
	if q.Page.Limit > 0 {
		sel = sel.Limit(uint64(q.Page.Limit))
	}
	if q.Page.Offset > 0 {
		sel = sel.Offset(uint64(q.Page.Offset))
	}

	return Compiled{
		Select:  sel,
		Count:   cc.from(Builder().Select(countExpr), where),
		Grouped: cc.grouped,
	}, nil
}

func (cc *compilation) from(b squirrel.SelectBuilder, where []squirrel.Sqlizer) squirrel.SelectBuilder {
	b = b.From(cc.root.TableName + " AS " + baseAlias)
	for _, j := range cc.joins {
		b = b.LeftJoin(fmt.Sprintf("%s AS %s ON %s", j.table, j.alias, j.on))
	}
	for _, w := range where {
		b = b.Where(w)
	}
	return b
}

// selectColumns lists the single-valued fields of the bundle, restricted to
// the sparse fieldset when one is given. The uuid is always selected as id.
func selectColumns(def metadata.EntityDef, q *query.Query) []selected {
	var wanted map[string]bool
	if names, ok := q.Fields[q.Resource.Name()]; ok {
		wanted = make(map[string]bool, len(names))
		for _, n := range names {
			wanted[n] = true
		}
	}

	cols := []selected{{expr: qualify(baseAlias, "uuid"), as: IDColumn}}
	for _, f := range def.FieldsFor(q.Resource.Bundle) {
		if f.Multiple || f.Name == "uuid" {
			continue
		}
		if wanted != nil && !wanted[f.Public()] {
			continue
		}
		cols = append(cols, selected{expr: qualify(baseAlias, f.Name), as: f.Public()})
	}
	return cols
}

func (cc *compilation) group(g *filter.ConditionGroup) (squirrel.Sqlizer, error) {
	parts := make([]squirrel.Sqlizer, 0, len(g.Members))
	for _, m := range g.Members {
		switch v := m.(type) {
		case *filter.Condition:
			cond, err := cc.condition(v)
			if err != nil {
				return nil, err
			}
			parts = append(parts, cond)
		case *filter.ConditionGroup:
			if v.Empty() {
				continue
			}
			sub, err := cc.group(v)
			if err != nil {
				return nil, err
			}
			parts = append(parts, sub)
		}
	}
	if len(parts) == 0 {
		return nil, nil
	}
	if g.Conjunction == filter.Or {
		return squirrel.Or(parts), nil
	}
	return squirrel.And(parts), nil
}

func (cc *compilation) condition(c *filter.Condition) (squirrel.Sqlizer, error) {
	col, err := cc.column(c.Field)
	if err != nil {
		return nil, err
	}
	name := col.expr

	switch c.Operator {
	case filter.IsNull:
		return squirrel.Eq{name: nil}, nil
	case filter.IsNotNull:
		return squirrel.NotEq{name: nil}, nil
	}

	values, err := cc.coerce(col, c)
	if err != nil {
		return nil, err
	}

	switch c.Operator {
	case filter.InList, filter.NotInList:
		if len(values) == 0 {
			return nil, apperror.NewMalformedFilter("operator '%s' needs at least one value", c.Operator)
		}
		if c.Operator == filter.InList {
			return squirrel.Eq{name: values}, nil
		}
		return squirrel.NotEq{name: values}, nil
	case filter.Between, filter.NotBetween:
		if len(values) != 2 {
			return nil, apperror.NewMalformedFilter("operator '%s' needs exactly two values, got %d", c.Operator, len(values)).
				WithDetail("operator", string(c.Operator))
		}
		return squirrel.Expr(fmt.Sprintf("%s %s ? AND ?", name, c.Operator), values[0], values[1]), nil
	}

	if len(values) != 1 {
		return nil, apperror.NewMalformedFilter("operator '%s' needs a single value, got %d", c.Operator, len(values)).
			WithDetail("operator", string(c.Operator))
	}
	v := values[0]

	switch c.Operator {
	case filter.Equal:
		return squirrel.Eq{name: v}, nil
	case filter.NotEqual:
		return squirrel.NotEq{name: v}, nil
	case filter.Greater:
		return squirrel.Gt{name: v}, nil
	case filter.GreaterOrEqual:
		return squirrel.GtOrEq{name: v}, nil
	case filter.Less:
		return squirrel.Lt{name: v}, nil
	case filter.LessOrEqual:
		return squirrel.LtOrEq{name: v}, nil
	case filter.Contains:
		return squirrel.ILike{name: "%" + escapeLike(fmt.Sprint(v)) + "%"}, nil
	case filter.StartsWith:
		return squirrel.ILike{name: escapeLike(fmt.Sprint(v)) + "%"}, nil
	case filter.EndsWith:
		return squirrel.ILike{name: "%" + escapeLike(fmt.Sprint(v))}, nil
	}
	return nil, apperror.NewMalformedFilter("unsupported operator '%s'", c.Operator)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// coerce converts condition values to the Go type of the column. LIKE
// operators always compare text.
func (cc *compilation) coerce(col column, c *filter.Condition) ([]any, error) {
	raw := c.Values()
	out := make([]any, len(raw))

	typ := col.field.Type
	if !col.main {
		typ = metadata.TypeString
	}
	if typ == metadata.TypeReference {
		typ = metadata.TypeString
		if target, ok := cc.registry.Get(col.field.ReferenceType); ok {
			if key, ok := target.Field(target.Key()); ok {
				typ = key.Type
			}
		}
	}
	switch c.Operator {
	case filter.Contains, filter.StartsWith, filter.EndsWith:
		typ = metadata.TypeString
	}

	for i, s := range raw {
		v, err := coerceValue(typ, s)
		if err != nil {
			return nil, apperror.NewMalformedFilter("invalid %s value '%s' for '%s'", typ, s, c.Field).
				WithDetail("path", c.Field).
				WithCause(err)
		}
		out[i] = v
	}
	return out, nil
}

func coerceValue(typ metadata.FieldType, s string) (any, error) {
	switch typ {
	case metadata.TypeInteger:
		return strconv.ParseInt(s, 10, 64)
	case metadata.TypeNumber:
		return decimal.NewFromString(s)
	case metadata.TypeBoolean:
		return strconv.ParseBool(s)
	default:
		return s, nil
	}
}

// column maps an internal path such as "uid.entity.name.value" to a
// qualified column, adding the joins it needs.
//
//	title.value              -> base.title
//	body.format              -> base.body__format
//	uid.entity.name.value    -> t1.name (t1 = users_field_data)
//	field_tags.entity.name   -> t2.name (t1 = node__field_tags, t2 = taxonomy_term_field_data)
func (cc *compilation) column(path string) (column, error) {
	parts := strings.Split(path, ".")
	def := cc.root
	alias := baseAlias
	prefix := ""

	for i := 0; i < len(parts); i++ {
		f, ok := def.Field(parts[i])
		if !ok {
			return column{}, apperror.NewUnresolvableField(path,
				fmt.Sprintf("no storage for field '%s' on '%s'", parts[i], def.Name))
		}
		prefix += parts[i]

		owner := alias
		if f.Multiple {
			owner = cc.join(prefix, def.Name+"__"+f.Name, func(a string) string {
				return fmt.Sprintf("%s.entity_id = %s", a, qualify(alias, def.Key()))
			})
			cc.grouped = true
		}

		if i+1 < len(parts) && parts[i+1] == segmentEntity {
			target, ok := cc.registry.Get(f.ReferenceType)
			if !ok || !f.IsReference() {
				return column{}, apperror.NewUnresolvableField(path,
					fmt.Sprintf("field '%s' is not a reference", f.Name))
			}
			prefix += "." + segmentEntity
			ref := qualify(owner, f.Name)
			alias = cc.join(prefix, target.TableName, func(a string) string {
				return fmt.Sprintf("%s.%s = %s", a, target.Key(), ref)
			})
			def = target
			prefix += "."
			i++
			continue
		}

		prop := f.MainProperty()
		if i+1 < len(parts) {
			prop = parts[i+1]
			if i+2 != len(parts) || !f.HasProperty(prop) {
				return column{}, apperror.NewUnresolvableField(path,
					fmt.Sprintf("unknown property '%s' of field '%s'", prop, f.Name))
			}
		}
		main := prop == f.MainProperty()
		name := f.Name
		if !main {
			name += "__" + prop
		}
		return column{expr: qualify(owner, name), field: f, main: main}, nil
	}
	return column{}, apperror.NewUnresolvableField(path, "path does not end at a field")
}

// join returns the alias of the join registered under prefix, adding it
// when missing.
func (cc *compilation) join(prefix, table string, on func(alias string) string) string {
	if a, ok := cc.aliases[prefix]; ok {
		return a
	}
	a := fmt.Sprintf("t%d", len(cc.joins)+1)
	cc.aliases[prefix] = a
	cc.joins = append(cc.joins, join{table: table, alias: a, on: on(a)})
	return a
}

func qualify(alias, col string) string {
	return alias + "." + col
}
