package entity_repo

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jsonapiq/internal/core/apperror"
	"jsonapiq/internal/domain/content"
	"jsonapiq/internal/domain/filter"
	"jsonapiq/internal/domain/paging"
	"jsonapiq/internal/domain/query"
	"jsonapiq/internal/domain/resource"
	"jsonapiq/internal/domain/sorting"
)

var article = resource.Type{EntityTypeID: "node", Bundle: "article"}

func and(members ...filter.Member) *filter.ConditionGroup {
	return &filter.ConditionGroup{Conjunction: filter.And, Members: members}
}

func or(members ...filter.Member) *filter.ConditionGroup {
	return &filter.ConditionGroup{Conjunction: filter.Or, Members: members}
}

func cond(field string, op filter.Operator, value any) *filter.Condition {
	return &filter.Condition{Field: field, Operator: op, Value: value}
}

func titles(root *filter.ConditionGroup) *query.Query {
	return &query.Query{
		Resource: article,
		Filter:   root,
		Page:     paging.Spec{Limit: 10},
		Fields:   map[string][]string{"node--article": {"title"}},
	}
}

func TestCompile_ReferenceJoin(t *testing.T) {
	c := NewCompiler(content.NewRegistry())

	compiled, err := c.Compile(titles(and(cond("uid.entity.uuid.value", filter.Equal, "abc"))))
	require.NoError(t, err)

	sql, args, err := compiled.SQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT base.uuid AS id, base.title AS title FROM node_field_data AS base "+
		"LEFT JOIN users_field_data AS t1 ON t1.uid = base.uid "+
		"WHERE base.type = $1 AND (t1.uuid = $2) LIMIT 10", sql)
	assert.Equal(t, []any{"article", "abc"}, args)
	assert.False(t, compiled.Grouped)

	countSQL, countArgs, err := compiled.Count.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM node_field_data AS base "+
		"LEFT JOIN users_field_data AS t1 ON t1.uid = base.uid "+
		"WHERE base.type = $1 AND (t1.uuid = $2)", countSQL)
	assert.Equal(t, args, countArgs)
}

func TestCompile_NestedGroupsMultiValued(t *testing.T) {
	c := NewCompiler(content.NewRegistry())

	q := titles(and(
		cond("title.value", filter.Contains, "50%_off"),
		or(
			cond("status.value", filter.Equal, "1"),
			cond("field_tags.entity.name.value", filter.InList, []string{"a", "b"}),
		),
	))
	q.Sort = sorting.Specs{{Path: "created.value", Direction: sorting.Desc}}
	q.Page = paging.Spec{Offset: 20, Limit: 10}

	compiled, err := c.Compile(q)
	require.NoError(t, err)
	assert.True(t, compiled.Grouped)

	sql, args, err := compiled.SQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT base.uuid AS id, base.title AS title "+
		"FROM node_field_data AS base "+
		"LEFT JOIN node__field_tags AS t1 ON t1.entity_id = base.nid "+
		"LEFT JOIN taxonomy_term_field_data AS t2 ON t2.tid = t1.field_tags "+
		"WHERE base.type = $1 AND (base.title ILIKE $2 AND (base.status = $3 OR t2.name IN ($4,$5))) "+
		"GROUP BY base.nid, base.created, base.uuid, base.title "+
		"ORDER BY base.created DESC LIMIT 10 OFFSET 20", sql)
	assert.Equal(t, []any{"article", `%50\%\_off%`, true, "a", "b"}, args)

	countSQL, _, err := compiled.Count.ToSql()
	require.NoError(t, err)
	assert.Contains(t, countSQL, "SELECT COUNT(DISTINCT base.nid) FROM node_field_data AS base")
	assert.NotContains(t, countSQL, "ORDER BY")
}

func TestCompile_Operators(t *testing.T) {
	c := NewCompiler(content.NewRegistry())

	tests := []struct {
		name     string
		cond     *filter.Condition
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "not equal",
			cond:     cond("title.value", filter.NotEqual, "x"),
			wantSQL:  "(base.title <> $2)",
			wantArgs: []any{"x"},
		},
		{
			name:     "between integers",
			cond:     cond("nid.value", filter.Between, []string{"1", "5"}),
			wantSQL:  "(base.nid BETWEEN $2 AND $3)",
			wantArgs: []any{int64(1), int64(5)},
		},
		{
			name:     "not between",
			cond:     cond("nid.value", filter.NotBetween, []string{"1", "5"}),
			wantSQL:  "(base.nid NOT BETWEEN $2 AND $3)",
			wantArgs: []any{int64(1), int64(5)},
		},
		{
			name:    "is null",
			cond:    cond("field_deadline.value", filter.IsNull, nil),
			wantSQL: "(base.field_deadline IS NULL)",
		},
		{
			name:    "is not null",
			cond:    cond("field_deadline.value", filter.IsNotNull, nil),
			wantSQL: "(base.field_deadline IS NOT NULL)",
		},
		{
			name:     "starts with",
			cond:     cond("title.value", filter.StartsWith, "ab"),
			wantSQL:  "(base.title ILIKE $2)",
			wantArgs: []any{"ab%"},
		},
		{
			name:     "ends with",
			cond:     cond("title.value", filter.EndsWith, "ab"),
			wantSQL:  "(base.title ILIKE $2)",
			wantArgs: []any{"%ab"},
		},
		{
			name:     "not in",
			cond:     cond("langcode.value", filter.NotInList, []string{"en", "de"}),
			wantSQL:  "(base.langcode NOT IN ($2,$3))",
			wantArgs: []any{"en", "de"},
		},
		{
			name:     "secondary property",
			cond:     cond("body.format", filter.Equal, "basic_html"),
			wantSQL:  "(base.body__format = $2)",
			wantArgs: []any{"basic_html"},
		},
		{
			name:     "main property",
			cond:     cond("body.value", filter.Equal, "text"),
			wantSQL:  "(base.body = $2)",
			wantArgs: []any{"text"},
		},
		{
			name:     "reference target id",
			cond:     cond("uid.target_id", filter.GreaterOrEqual, "7"),
			wantSQL:  "(base.uid >= $2)",
			wantArgs: []any{int64(7)},
		},
		{
			name:     "less",
			cond:     cond("sticky.value", filter.Less, "false"),
			wantSQL:  "(base.sticky < $2)",
			wantArgs: []any{false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compiled, err := c.Compile(titles(and(tt.cond)))
			require.NoError(t, err)

			sql, args, err := compiled.SQL()
			require.NoError(t, err)
			assert.Equal(t, "SELECT base.uuid AS id, base.title AS title FROM node_field_data AS base "+
				"WHERE base.type = $1 AND "+tt.wantSQL+" LIMIT 10", sql)
			assert.Equal(t, append([]any{"article"}, tt.wantArgs...), args)
		})
	}
}

func TestCompile_DecimalCoercion(t *testing.T) {
	c := NewCompiler(content.NewRegistry())

	compiled, err := c.Compile(titles(and(cond("field_rating.value", filter.Greater, "4.5"))))
	require.NoError(t, err)

	_, args, err := compiled.SQL()
	require.NoError(t, err)
	require.Len(t, args, 2)
	d, ok := args[1].(decimal.Decimal)
	require.True(t, ok)
	assert.True(t, d.Equal(decimal.RequireFromString("4.5")))
}

func TestCompile_SharedJoins(t *testing.T) {
	c := NewCompiler(content.NewRegistry())

	compiled, err := c.Compile(titles(and(
		cond("uid.entity.name.value", filter.Equal, "admin"),
		cond("uid.entity.mail.value", filter.Equal, "admin@example.com"),
		cond("uid.entity.roles.entity.label.value", filter.Equal, "Editor"),
	)))
	require.NoError(t, err)

	sql, _, err := compiled.SQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT base.uuid AS id, base.title AS title FROM node_field_data AS base "+
		"LEFT JOIN users_field_data AS t1 ON t1.uid = base.uid "+
		"LEFT JOIN user__roles AS t2 ON t2.entity_id = t1.uid "+
		"LEFT JOIN user_role AS t3 ON t3.id = t2.roles "+
		"WHERE base.type = $1 AND (t1.name = $2 AND t1.mail = $3 AND t3.label = $4) "+
		"GROUP BY base.nid, base.uuid, base.title LIMIT 10", sql)
}

func TestCompile_SortByMultiValuedField(t *testing.T) {
	c := NewCompiler(content.NewRegistry())

	q := titles(and())
	q.Sort = sorting.Specs{
		{Path: "field_tags.entity.name.value", Direction: sorting.Asc},
		{Path: "uid.entity.name.value", Direction: sorting.Desc},
		{Path: "title.value", Direction: sorting.Desc},
	}

	compiled, err := c.Compile(q)
	require.NoError(t, err)
	assert.True(t, compiled.Grouped)

	sql, args, err := compiled.SQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT base.uuid AS id, base.title AS title FROM node_field_data AS base "+
		"LEFT JOIN node__field_tags AS t1 ON t1.entity_id = base.nid "+
		"LEFT JOIN taxonomy_term_field_data AS t2 ON t2.tid = t1.field_tags "+
		"LEFT JOIN users_field_data AS t3 ON t3.uid = base.uid "+
		"WHERE base.type = $1 "+
		"GROUP BY base.nid, base.title, base.uuid "+
		"ORDER BY MIN(t2.name) ASC, MAX(t3.name) DESC, base.title DESC LIMIT 10", sql)
	assert.Equal(t, []any{"article"}, args)

	countSQL, _, err := compiled.Count.ToSql()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(countSQL, "SELECT COUNT(DISTINCT base.nid) FROM node_field_data AS base"), countSQL)

	// Without a multi-valued field the sort stays a plain ORDER BY.
	q.Sort = sorting.Specs{{Path: "uid.entity.name.value", Direction: sorting.Desc}}
	compiled, err = c.Compile(q)
	require.NoError(t, err)
	assert.False(t, compiled.Grouped)
	sql, _, err = compiled.SQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT base.uuid AS id, base.title AS title FROM node_field_data AS base "+
		"LEFT JOIN users_field_data AS t1 ON t1.uid = base.uid "+
		"WHERE base.type = $1 ORDER BY t1.name DESC LIMIT 10", sql)
}

func TestCompile_DefaultsAndSingleBundle(t *testing.T) {
	c := NewCompiler(content.NewRegistry())

	compiled, err := c.Compile(&query.Query{
		Resource: resource.Type{EntityTypeID: "node", Bundle: "page"},
		Filter:   and(or()),
		Page:     paging.Spec{Limit: paging.DefaultMaxLimit},
	})
	require.NoError(t, err)
	sql, args, err := compiled.SQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT base.uuid AS id, base.nid AS drupal_internal__nid, base.langcode AS langcode, "+
		"base.title AS title, base.status AS status, base.promote AS promote, base.sticky AS sticky, "+
		"base.created AS created, base.changed AS changed, base.uid AS uid, base.body AS body "+
		"FROM node_field_data AS base WHERE base.type = $1 LIMIT 50", sql)
	assert.Equal(t, []any{"page"}, args)

	compiled, err = c.Compile(&query.Query{
		Resource: resource.Type{EntityTypeID: "user", Bundle: "user"},
		Filter:   and(),
		Page:     paging.Spec{Limit: 5},
		Fields:   map[string][]string{"user--user": {"name"}},
	})
	require.NoError(t, err)
	sql, args, err = compiled.SQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT base.uuid AS id, base.name AS name FROM users_field_data AS base LIMIT 5", sql)
	assert.Empty(t, args)
}

func TestCompile_Errors(t *testing.T) {
	c := NewCompiler(content.NewRegistry())

	tests := []struct {
		name  string
		cond  *filter.Condition
		check func(error) bool
	}{
		{"between needs two values", cond("nid.value", filter.Between, "1"), apperror.IsMalformedFilter},
		{"in needs a value", cond("nid.value", filter.InList, []string{}), apperror.IsMalformedFilter},
		{"equal with a list", cond("title.value", filter.Equal, []string{"a", "b"}), apperror.IsMalformedFilter},
		{"invalid integer", cond("nid.value", filter.Equal, "abc"), apperror.IsMalformedFilter},
		{"invalid decimal", cond("field_rating.value", filter.Equal, "4,5"), apperror.IsMalformedFilter},
		{"invalid boolean", cond("status.value", filter.Equal, "yes"), apperror.IsMalformedFilter},
		{"unknown column", cond("nope.value", filter.Equal, "1"), apperror.IsUnresolvableField},
		{"unknown property", cond("title.summary", filter.Equal, "1"), apperror.IsUnresolvableField},
		{"entity hop on scalar", cond("title.entity.name.value", filter.Equal, "1"), apperror.IsUnresolvableField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Compile(titles(and(tt.cond)))
			require.Error(t, err)
			assert.True(t, tt.check(err), err.Error())
		})
	}

	_, err := c.Compile(&query.Query{Resource: resource.Type{EntityTypeID: "comment", Bundle: "comment"}, Filter: and()})
	assert.True(t, apperror.IsNotFound(err))

	q := titles(and())
	q.Sort = sorting.Specs{{Path: "nope.value", Direction: sorting.Asc}}
	_, err = c.Compile(q)
	assert.True(t, apperror.IsMalformedSort(err))
}
