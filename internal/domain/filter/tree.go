package filter

import (
	"jsonapiq/internal/core/apperror"
)

// BuildTree assembles expanded items into the root AND group. Membership is
// resolved by parent id, so items may reference groups declared later.
// Members keep the order in which items were declared.
func BuildTree(items []*Item) (*ConditionGroup, error) {
	byID := make(map[string]*Item, len(items))
	children := make(map[string][]*Item)
	for _, item := range items {
		byID[item.ID] = item
		children[item.MemberOf] = append(children[item.MemberOf], item)
	}

	if err := validateMembership(items, byID); err != nil {
		return nil, err
	}

	return buildGroup(RootID, string(And), children)
}

// buildGroup builds the subtree of group id, children first.
func buildGroup(id, conjunction string, children map[string][]*Item) (*ConditionGroup, error) {
	members := make([]Member, 0, len(children[id]))
	for _, child := range children[id] {
		switch child.Kind {
		case GroupItem:
			sub, err := buildGroup(child.ID, child.Conjunction, children)
			if err != nil {
				return nil, err
			}
			members = append(members, sub)
		case ConditionItem:
			c, err := ParseCondition(child.Condition)
			if err != nil {
				return nil, err
			}
			members = append(members, c)
		}
	}
	return NewConditionGroup(conjunction, members)
}

// validateMembership rejects dangling parents, parents that are conditions,
// and memberOf cycles.
func validateMembership(items []*Item, byID map[string]*Item) error {
	for _, item := range items {
		if item.MemberOf == RootID {
			continue
		}
		parent, ok := byID[item.MemberOf]
		if !ok {
			return apperror.NewMalformedFilter("filter '%s' is a member of an unknown group '%s'", item.ID, item.MemberOf).
				WithDetail("id", item.ID)
		}
		if parent.Kind != GroupItem {
			return apperror.NewMalformedFilter("filter '%s' is a member of '%s', which is not a group", item.ID, item.MemberOf).
				WithDetail("id", item.ID)
		}
	}

	for _, item := range items {
		if item.Kind != GroupItem {
			continue
		}
		chain := []string{item.ID}
		seen := map[string]bool{item.ID: true}
		for cur := item.MemberOf; cur != RootID; cur = byID[cur].MemberOf {
			chain = append(chain, cur)
			if seen[cur] {
				return apperror.NewCyclicGroupReference(chain)
			}
			seen[cur] = true
		}
	}
	return nil
}
