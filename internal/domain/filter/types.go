// Package filter parses JSON:API filter query parameters into a tree of
// AND/OR condition groups.
package filter

import (
	"fmt"
	"strings"
)

// Operator defines the comparison applied by a condition.
type Operator string

const (
	Equal          Operator = "="
	NotEqual       Operator = "<>"
	Greater        Operator = ">"
	GreaterOrEqual Operator = ">="
	Less           Operator = "<"
	LessOrEqual    Operator = "<="
	InList         Operator = "IN"
	NotInList      Operator = "NOT IN"
	Between        Operator = "BETWEEN"
	NotBetween     Operator = "NOT BETWEEN"
	IsNull         Operator = "IS NULL"
	IsNotNull      Operator = "IS NOT NULL"
	Contains       Operator = "CONTAINS"
	StartsWith     Operator = "STARTS_WITH"
	EndsWith       Operator = "ENDS_WITH"
)

// Operators lists every allowed operator.
var Operators = []Operator{
	Equal, NotEqual, Greater, GreaterOrEqual, Less, LessOrEqual,
	InList, NotInList, Between, NotBetween,
	IsNull, IsNotNull,
	Contains, StartsWith, EndsWith,
}

// Valid reports whether op is one of the allowed operators.
func (op Operator) Valid() bool {
	for _, allowed := range Operators {
		if op == allowed {
			return true
		}
	}
	return false
}

// Nullary reports whether op must not carry a value.
func (op Operator) Nullary() bool {
	return op == IsNull || op == IsNotNull
}

// Conjunction joins the members of a group.
type Conjunction string

const (
	And Conjunction = "AND"
	Or  Conjunction = "OR"
)

// Wire-format keys.
const (
	// RootID is the implicit root group; clients may not use it as a filter id.
	RootID = "@root"

	KeyPath        = "path"
	KeyValue       = "value"
	KeyOperator    = "operator"
	KeyCondition   = "condition"
	KeyGroup       = "group"
	KeyConjunction = "conjunction"
	KeyMemberOf    = "memberOf"
)

// Member is an element of a ConditionGroup: *Condition or *ConditionGroup.
type Member interface {
	member()
}

// Condition is a single comparison on a resolved internal field path.
// Value is nil, a string or a []string.
type Condition struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value,omitempty"`
}

func (*Condition) member() {}

// Values returns Value as a list.
func (c *Condition) Values() []string {
	switch v := c.Value.(type) {
	case nil:
		return nil
	case string:
		return []string{v}
	case []string:
		return v
	default:
		return []string{fmt.Sprint(v)}
	}
}

// ConditionGroup aggregates conditions and nested groups.
type ConditionGroup struct {
	Conjunction Conjunction `json:"conjunction"`
	Members     []Member    `json:"members"`
}

func (*ConditionGroup) member() {}

// NewConditionGroup validates the conjunction (case-sensitive AND or OR).
func NewConditionGroup(conjunction string, members []Member) (*ConditionGroup, error) {
	c := Conjunction(conjunction)
	if c != And && c != Or {
		return nil, errInvalidConjunction(conjunction)
	}
	if members == nil {
		members = []Member{}
	}
	return &ConditionGroup{Conjunction: c, Members: members}, nil
}

// Conditions returns the direct leaf members.
func (g *ConditionGroup) Conditions() []*Condition {
	var out []*Condition
	for _, m := range g.Members {
		if c, ok := m.(*Condition); ok {
			out = append(out, c)
		}
	}
	return out
}

// Groups returns the direct nested groups.
func (g *ConditionGroup) Groups() []*ConditionGroup {
	var out []*ConditionGroup
	for _, m := range g.Members {
		if sub, ok := m.(*ConditionGroup); ok {
			out = append(out, sub)
		}
	}
	return out
}

// Empty reports whether the group has no members.
func (g *ConditionGroup) Empty() bool {
	return g == nil || len(g.Members) == 0
}

// String renders the tree in an infix form, e.g. (a = 1 AND (b IS NULL OR c IN [x y])).
func (g *ConditionGroup) String() string {
	parts := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		switch v := m.(type) {
		case *Condition:
			if v.Operator.Nullary() {
				parts = append(parts, fmt.Sprintf("%s %s", v.Field, v.Operator))
			} else {
				parts = append(parts, fmt.Sprintf("%s %s %v", v.Field, v.Operator, v.Value))
			}
		case *ConditionGroup:
			parts = append(parts, v.String())
		}
	}
	return "(" + strings.Join(parts, " "+string(g.Conjunction)+" ") + ")"
}
