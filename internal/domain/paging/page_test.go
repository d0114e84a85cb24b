package paging

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jsonapiq/internal/core/apperror"
	"jsonapiq/internal/core/params"
)

func parse(t *testing.T, p Parser, rawQuery string) (Spec, error) {
	t.Helper()
	v, _ := params.MustParse(rawQuery).Get("page")
	return p.Parse(v)
}

func TestParse_Defaults(t *testing.T) {
	p := NewParser(0)
	assert.Equal(t, DefaultMaxLimit, p.MaxLimit())

	spec, err := parse(t, p, "sort=title")
	require.NoError(t, err)
	assert.Equal(t, Spec{Offset: 0, Limit: DefaultMaxLimit}, spec)

	spec, err = parse(t, p, "page[offset]=20")
	require.NoError(t, err)
	assert.Equal(t, Spec{Offset: 20, Limit: DefaultMaxLimit}, spec)
}

func TestParse_ClampsLimit(t *testing.T) {
	p := NewParser(50)
	for _, limit := range []int{1, 2, 49, 50, 51, 100, 1 << 20} {
		spec, err := parse(t, p, "page[limit]="+strconv.Itoa(limit))
		require.NoError(t, err)
		assert.Equal(t, min(limit, 50), spec.Limit, "limit %d", limit)

		// Clamping twice changes nothing.
		again, err := parse(t, p, "page[limit]="+strconv.Itoa(spec.Limit))
		require.NoError(t, err)
		assert.Equal(t, spec, again)
	}
}

func TestParse_RejectsNonPositiveLimit(t *testing.T) {
	p := NewParser(50)
	for _, limit := range []string{"0", "-1", "-50"} {
		_, err := parse(t, p, "page[limit]="+limit)
		require.Error(t, err)
		assert.True(t, apperror.IsMalformedPage(err), limit)
	}
}

func TestParse_Errors(t *testing.T) {
	p := NewParser(10)
	for _, q := range []string{
		"page=3",
		"page[offset]=-1",
		"page[offset]=abc",
		"page[limit]=1.5",
		"page[limit][]=1",
		"page[number]=2",
	} {
		_, err := parse(t, p, q)
		require.Error(t, err, q)
		assert.True(t, apperror.IsMalformedPage(err), q)
	}
}

func TestSpec_NextPrev(t *testing.T) {
	s := Spec{Offset: 10, Limit: 25}
	next, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, Spec{Offset: 35, Limit: 25}, next)

	prev, ok := s.Prev()
	require.True(t, ok)
	assert.Equal(t, Spec{Offset: 0, Limit: 25}, prev)

	_, ok = Spec{Offset: 0, Limit: 25}.Prev()
	assert.False(t, ok)
}

func TestSpec_NextAtMaxOffset(t *testing.T) {
	p := NewParser(50)
	spec, err := parse(t, p, "page[offset]="+strconv.Itoa(math.MaxInt)+"&page[limit]=10")
	require.NoError(t, err)

	_, ok := spec.Next()
	assert.False(t, ok)

	next, ok := Spec{Offset: math.MaxInt - 10, Limit: 10}.Next()
	require.True(t, ok)
	assert.Equal(t, math.MaxInt, next.Offset)
}
