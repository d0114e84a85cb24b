package filter

import (
	"strings"

	"jsonapiq/internal/core/apperror"
)

func errInvalidConjunction(conjunction string) error {
	return apperror.NewMalformedFilter("invalid conjunction '%s'; allowed conjunctions: AND, OR", conjunction).
		WithDetail("conjunction", conjunction)
}

func errInvalidOperator(op string) error {
	names := make([]string, len(Operators))
	for i, o := range Operators {
		names[i] = string(o)
	}
	return apperror.NewMalformedFilter("the '%s' operator is not allowed in a filter parameter; allowed operators: %s",
		op, strings.Join(names, ", ")).
		WithDetail("operator", op)
}

func errNullaryWithValue(op Operator) error {
	return apperror.NewMalformedFilter("filters using the '%s' operator should not provide a value", op).
		WithDetail("operator", string(op))
}

func errMissingValue() error {
	return apperror.NewMalformedFilter("filter parameter is missing a '%s' key", KeyValue)
}

func errInvalidKeys(given []string) error {
	return apperror.NewMalformedFilter("filter condition keys %v are invalid; a condition requires '%s' together with '%s', '%s' or both",
		given, KeyPath, KeyValue, KeyOperator).
		WithDetail("keys", given)
}
