package params

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jsonapiq/internal/core/apperror"
)

func TestParse_NestedKeepsOrder(t *testing.T) {
	m, err := Parse("filter[b][value]=1&filter[a][path]=title&filter[a][value]=x&sort=-created")
	require.NoError(t, err)

	assert.Equal(t, []string{"filter", "sort"}, m.Keys())

	f, ok := m.Get("filter")
	require.True(t, ok)
	require.True(t, f.IsMap())
	assert.Equal(t, []string{"b", "a"}, f.Map().Keys())

	a, _ := f.Map().Get("a")
	assert.Equal(t, []string{"path", "value"}, a.Map().Keys())

	s, _ := m.Get("sort")
	assert.False(t, s.IsMap())
	assert.Equal(t, "-created", s.String())
}

func TestParse_Unescape(t *testing.T) {
	m, err := Parse("filter%5Bx%5D%5Boperator%5D=IS+NULL&filter[y][value]=a%20b")
	require.NoError(t, err)

	f, _ := m.Get("filter")
	x, _ := f.Map().Get("x")
	op, _ := x.Map().Get("operator")
	assert.Equal(t, "IS NULL", op.String())

	y, _ := f.Map().Get("y")
	v, _ := y.Map().Get("value")
	assert.Equal(t, "a b", v.String())
}

func TestParse_EmptyBracketsAppend(t *testing.T) {
	m, err := Parse("v[]=a&v[]=b&v[5]=c&v[]=d")
	require.NoError(t, err)

	v, _ := m.Get("v")
	assert.Equal(t, []string{"0", "1", "5", "6"}, v.Map().Keys())
	assert.Equal(t, []string{"a", "b", "c", "d"}, v.Strings())
}

func TestParse_LaterAssignmentWins(t *testing.T) {
	m, err := Parse("filter[a]=1&filter[a][value]=2")
	require.NoError(t, err)

	f, _ := m.Get("filter")
	a, _ := f.Map().Get("a")
	require.True(t, a.IsMap())
	v, _ := a.Map().Get("value")
	assert.Equal(t, "2", v.String())

	m = MustParse("filter[a][value]=2&filter[a]=1")
	f, _ = m.Get("filter")
	a, _ = f.Map().Get("a")
	assert.False(t, a.IsMap())
	assert.Equal(t, "1", a.String())
}

func TestParse_UnbalancedBracketsStayLiteral(t *testing.T) {
	m, err := Parse("filter[a=1&[x]=2&b]=3")
	require.NoError(t, err)

	assert.Equal(t, []string{"filter[a", "[x]", "b]"}, m.Keys())
}

func TestParse_InvalidEscape(t *testing.T) {
	_, err := Parse("filter[a]=%zz")
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestMap_DeleteAndClone(t *testing.T) {
	m := MustParse("a=1&b[c]=2&d=3")
	c := m.Clone()

	m.Delete("b")
	assert.Equal(t, []string{"a", "d"}, m.Keys())
	assert.Equal(t, []string{"a", "b", "d"}, c.Keys())

	b, _ := c.Get("b")
	assert.Equal(t, map[string]any{"c": "2"}, b.Native())
}

func TestMap_EncodeKeepsOrder(t *testing.T) {
	raw := "sort[z][path]=title&sort[a][path]=created&filter[t][]=a b&filter[t][]=c&page[limit]=1"
	m := MustParse(raw)

	encoded := m.Encode()
	assert.Equal(t, "sort%5Bz%5D%5Bpath%5D=title&sort%5Ba%5D%5Bpath%5D=created"+
		"&filter%5Bt%5D%5B0%5D=a+b&filter%5Bt%5D%5B1%5D=c&page%5Blimit%5D=1", encoded)

	again, err := Parse(encoded)
	require.NoError(t, err)
	assert.Equal(t, Nested(m).Native(), Nested(again).Native())
	sort, _ := again.Get("sort")
	assert.Equal(t, []string{"z", "a"}, sort.Map().Keys())
	assert.Equal(t, []string{"sort", "filter", "page"}, again.Keys())
}
