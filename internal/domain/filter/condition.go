package filter

import (
	"sort"

	"jsonapiq/internal/core/params"
)

// validKeySets are the only accepted key combinations of a condition,
// each sorted.
var validKeySets = [][]string{
	{KeyPath, KeyValue},
	{KeyOperator, KeyPath},
	{KeyOperator, KeyPath, KeyValue},
}

// ParseCondition builds a leaf condition from one flat filter item whose
// path has already been resolved.
func ParseCondition(raw *params.Map) (*Condition, error) {
	given := raw.Keys()
	if !validKeySet(given) {
		if raw.Has(KeyPath) && !raw.Has(KeyValue) && !raw.Has(KeyOperator) {
			return nil, errMissingValue()
		}
		return nil, errInvalidKeys(given)
	}

	path, _ := raw.Get(KeyPath)
	if path.IsMap() {
		return nil, errInvalidKeys(given)
	}

	op := Equal
	if v, ok := raw.Get(KeyOperator); ok {
		if v.IsMap() {
			return nil, errInvalidOperator("[]")
		}
		op = Operator(v.String())
		if !op.Valid() {
			return nil, errInvalidOperator(v.String())
		}
	}

	value, hasValue := raw.Get(KeyValue)
	switch {
	case op.Nullary() && hasValue:
		return nil, errNullaryWithValue(op)
	case !op.Nullary() && !hasValue:
		return nil, errMissingValue()
	}

	c := &Condition{Field: path.String(), Operator: op}
	if hasValue {
		if value.IsMap() {
			c.Value = value.Strings()
		} else {
			c.Value = value.String()
		}
	}
	return c, nil
}

func validKeySet(given []string) bool {
	sorted := append([]string(nil), given...)
	sort.Strings(sorted)
	for _, set := range validKeySets {
		if len(set) != len(sorted) {
			continue
		}
		match := true
		for i := range set {
			if set[i] != sorted[i] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
