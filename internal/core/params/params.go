// Package params decodes bracket-notation query strings (filter[a][b]=c)
// into an ordered tree of values.
//
// net/url.Values loses both nesting and declaration order, and filter
// trees depend on both, so decoding is done here.
package params

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"jsonapiq/internal/core/apperror"
)

// Value is a decoded parameter: either a scalar string or a nested Map.
type Value struct {
	str    string
	nested *Map
}

// Scalar creates a scalar value.
func Scalar(s string) *Value {
	return &Value{str: s}
}

// Nested creates a map value.
func Nested(m *Map) *Value {
	if m == nil {
		m = NewMap()
	}
	return &Value{nested: m}
}

// IsMap reports whether v holds nested values.
func (v *Value) IsMap() bool {
	return v != nil && v.nested != nil
}

// String returns the scalar content; empty for maps.
func (v *Value) String() string {
	if v == nil {
		return ""
	}
	return v.str
}

// Map returns nested values or nil for scalars.
func (v *Value) Map() *Map {
	if v == nil {
		return nil
	}
	return v.nested
}

// Strings flattens v into a list: a scalar yields one element, a map yields
// its scalar members in declaration order.
func (v *Value) Strings() []string {
	if v == nil {
		return nil
	}
	if !v.IsMap() {
		return []string{v.str}
	}
	out := make([]string, 0, v.nested.Len())
	for _, k := range v.nested.Keys() {
		child, _ := v.nested.Get(k)
		out = append(out, child.Strings()...)
	}
	return out
}

// Native converts v to plain Go values (string or ordered key/value pairs),
// for logging and debug output.
func (v *Value) Native() any {
	if !v.IsMap() {
		return v.String()
	}
	out := make(map[string]any, v.nested.Len())
	for _, k := range v.nested.Keys() {
		child, _ := v.nested.Get(k)
		out[k] = child.Native()
	}
	return out
}

// Map is an insertion-ordered string-keyed collection of values.
type Map struct {
	keys []string
	vals map[string]*Value
}

// NewMap creates an empty map.
func NewMap() *Map {
	return &Map{vals: make(map[string]*Value)}
}

// Len returns number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Get returns value by key.
func (m *Map) Get(key string) (*Value, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.vals[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Set stores value under key. An existing key keeps its position.
func (m *Map) Set(key string, v *Value) {
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = v
}

// SetString is shorthand for Set(key, Scalar(s)).
func (m *Map) SetString(key, s string) {
	m.Set(key, Scalar(s))
}

// Delete removes key, keeping the order of the rest.
func (m *Map) Delete(key string) {
	if _, ok := m.vals[key]; !ok {
		return
	}
	delete(m.vals, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Clone returns a deep copy.
func (m *Map) Clone() *Map {
	out := NewMap()
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		if v.IsMap() {
			out.Set(k, Nested(v.nested.Clone()))
		} else {
			out.Set(k, Scalar(v.str))
		}
	}
	return out
}

// nextIndex returns the index used by an empty bracket pair (a[]=v).
func (m *Map) nextIndex() string {
	next := 0
	for _, k := range m.keys {
		if n, err := strconv.Atoi(k); err == nil && n >= next {
			next = n + 1
		}
	}
	return strconv.Itoa(next)
}

// Parse decodes a raw query string.
func Parse(rawQuery string) (*Map, error) {
	root := NewMap()
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawVal, _ := strings.Cut(pair, "=")

		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, apperror.NewValidation("invalid query string encoding").
				WithDetail("key", rawKey).
				WithCause(err)
		}
		val, err := url.QueryUnescape(rawVal)
		if err != nil {
			return nil, apperror.NewValidation("invalid query string encoding").
				WithDetail("key", key).
				WithCause(err)
		}
		if key == "" {
			continue
		}

		assign(root, splitKey(key), val)
	}
	return root, nil
}

// Escape encodes s for use as a key or value in a raw query string.
func Escape(s string) string {
	return url.QueryEscape(s)
}

// Encode renders m as a raw query string in bracket notation, keeping key
// order. Parse(m.Encode()) yields an equal map.
func (m *Map) Encode() string {
	var b strings.Builder
	m.encode(&b, "")
	return b.String()
}

func (m *Map) encode(b *strings.Builder, prefix string) {
	for _, k := range m.Keys() {
		name := k
		if prefix != "" {
			name = prefix + "[" + k + "]"
		}
		v, _ := m.Get(k)
		if v.IsMap() {
			v.nested.encode(b, name)
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(Escape(name))
		b.WriteByte('=')
		b.WriteString(Escape(v.str))
	}
}

// MustParse is Parse for literals in tests and fixtures.
func MustParse(rawQuery string) *Map {
	m, err := Parse(rawQuery)
	if err != nil {
		panic(fmt.Sprintf("params: %v", err))
	}
	return m
}

// splitKey turns "a[b][]" into ["a", "b", ""]. Unbalanced brackets leave the
// key literal.
func splitKey(key string) []string {
	open := strings.IndexByte(key, '[')
	if open <= 0 {
		return []string{key}
	}
	parts := []string{key[:open]}
	rest := key[open:]
	for rest != "" {
		if rest[0] != '[' {
			return []string{key}
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return []string{key}
		}
		parts = append(parts, rest[1:end])
		rest = rest[end+1:]
	}
	return parts
}

func assign(m *Map, path []string, val string) {
	key := path[0]
	if key == "" {
		key = m.nextIndex()
	}
	if len(path) == 1 {
		m.SetString(key, val)
		return
	}
	child, ok := m.Get(key)
	if !ok || !child.IsMap() {
		child = Nested(NewMap())
		m.Set(key, child)
	}
	assign(child.nested, path[1:], val)
}
