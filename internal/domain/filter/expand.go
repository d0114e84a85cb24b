package filter

import (
	"jsonapiq/internal/core/apperror"
	"jsonapiq/internal/core/params"
	"jsonapiq/internal/domain/resource"
)

// ItemKind tags an expanded filter item.
type ItemKind int

const (
	ConditionItem ItemKind = iota + 1
	GroupItem
)

func (k ItemKind) String() string {
	switch k {
	case ConditionItem:
		return "condition"
	case GroupItem:
		return "group"
	default:
		return "unknown"
	}
}

// Item is one flat filter entry after shorthand expansion, before it is
// folded into the tree.
type Item struct {
	ID       string
	Kind     ItemKind
	MemberOf string

	// Condition holds path (already resolved), value and operator keys.
	// Set for ConditionItem only.
	Condition *params.Map

	// Conjunction is set for GroupItem only.
	Conjunction string
}

// Expand normalizes every shorthand form of the raw filter map into
// canonical condition and group items, keeping declaration order.
func Expand(raw *params.Map, res resource.Type, resolver resource.PathResolver) ([]*Item, error) {
	items := make([]*Item, 0, raw.Len())
	for _, key := range raw.Keys() {
		if key == RootID {
			return nil, apperror.NewReservedIdentifier(RootID)
		}
		v, _ := raw.Get(key)

		item, err := expandItem(key, v)
		if err != nil {
			return nil, err
		}

		if item.Kind == ConditionItem {
			if err := resolveConditionPath(item.Condition, res, resolver); err != nil {
				return nil, err
			}
		}
		items = append(items, item)
	}
	return items, nil
}

func expandItem(key string, v *params.Value) (*Item, error) {
	var m *params.Map
	if v.IsMap() {
		m = v.Map().Clone()
	} else {
		// filter[promote]=1
		m = params.NewMap()
		m.Set(KeyValue, v)
	}

	cond, hasCond, err := subMap(key, m, KeyCondition)
	if err != nil {
		return nil, err
	}
	group, hasGroup, err := subMap(key, m, KeyGroup)
	if err != nil {
		return nil, err
	}
	if hasCond && hasGroup {
		return nil, apperror.NewMalformedFilter("filter '%s' cannot define both a '%s' and a '%s'", key, KeyCondition, KeyGroup).
			WithDetail("id", key)
	}

	item := &Item{ID: key, MemberOf: RootID}
	if err := liftMemberOf(item, m); err != nil {
		return nil, err
	}

	if hasCond || hasGroup {
		for _, k := range m.Keys() {
			if k != KeyCondition && k != KeyGroup {
				return nil, apperror.NewMalformedFilter("filter '%s' has an unknown key '%s'", key, k).
					WithDetail("id", key)
			}
		}
	}

	switch {
	case hasGroup:
		if err := liftMemberOf(item, group); err != nil {
			return nil, err
		}
		conj, err := groupConjunction(key, group)
		if err != nil {
			return nil, err
		}
		item.Kind = GroupItem
		item.Conjunction = conj

	case hasCond:
		if err := liftMemberOf(item, cond); err != nil {
			return nil, err
		}
		item.Kind = ConditionItem
		item.Condition = cond

	case m.Has(KeyValue) || m.Has(KeyPath) || m.Has(KeyOperator):
		// filter[uuid][value]=123 implies path "uuid".
		if !m.Has(KeyPath) {
			m.SetString(KeyPath, key)
		}
		item.Kind = ConditionItem
		item.Condition = m

	default:
		return nil, apperror.NewMalformedFilter("filter '%s' must define a '%s' or a '%s'", key, KeyCondition, KeyGroup).
			WithDetail("id", key)
	}

	if item.Kind == ConditionItem && !item.Condition.Has(KeyOperator) {
		item.Condition.SetString(KeyOperator, string(Equal))
	}
	return item, nil
}

// subMap fetches a nested map under name, which must not be a scalar.
func subMap(id string, m *params.Map, name string) (*params.Map, bool, error) {
	v, ok := m.Get(name)
	if !ok {
		return nil, false, nil
	}
	if !v.IsMap() {
		return nil, false, apperror.NewMalformedFilter("filter '%s': '%s' must be an object", id, name).
			WithDetail("id", id)
	}
	return v.Map(), true, nil
}

// liftMemberOf moves a memberOf key from m onto the item.
func liftMemberOf(item *Item, m *params.Map) error {
	v, ok := m.Get(KeyMemberOf)
	if !ok {
		return nil
	}
	m.Delete(KeyMemberOf)
	if v.IsMap() || v.String() == "" {
		return apperror.NewMalformedFilter("filter '%s': '%s' must name a group id", item.ID, KeyMemberOf).
			WithDetail("id", item.ID)
	}
	item.MemberOf = v.String()
	return nil
}

func groupConjunction(id string, group *params.Map) (string, error) {
	for _, k := range group.Keys() {
		if k != KeyConjunction {
			return "", apperror.NewMalformedFilter("filter group '%s' has an unknown key '%s'", id, k).
				WithDetail("id", id)
		}
	}
	v, ok := group.Get(KeyConjunction)
	if !ok || v.IsMap() {
		return "", apperror.NewMalformedFilter("filter group '%s' requires a '%s'", id, KeyConjunction).
			WithDetail("id", id)
	}
	return v.String(), nil
}

// resolveConditionPath replaces the public path with the internal one.
// Resolver errors are returned unchanged.
func resolveConditionPath(cond *params.Map, res resource.Type, resolver resource.PathResolver) error {
	v, ok := cond.Get(KeyPath)
	if !ok || v.IsMap() {
		return nil
	}
	internal, err := resolver.ResolvePath(res.EntityTypeID, res.Bundle, v.String())
	if err != nil {
		return err
	}
	cond.SetString(KeyPath, internal)
	return nil
}
