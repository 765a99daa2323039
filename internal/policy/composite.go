package policy

import "github.com/screenveil/screenveil/internal/domain"

type compositeAnd struct {
	members []domain.CaptureCondition
}

func (c compositeAnd) ShouldProtect(ctx domain.CaptureContext) bool {
	for _, m := range c.members {
		if !m.ShouldProtect(ctx) {
			return false
		}
	}
	// Vacuously true for an empty member set.
	return true
}

// And combines conditions conjunctively: all members must protect.
func And(conditions ...domain.CaptureCondition) domain.CaptureCondition {
	members := make([]domain.CaptureCondition, len(conditions))
	copy(members, conditions)
	return compositeAnd{members: members}
}

type compositeOr struct {
	members []domain.CaptureCondition
}

func (c compositeOr) ShouldProtect(ctx domain.CaptureContext) bool {
	for _, m := range c.members {
		if m.ShouldProtect(ctx) {
			return true
		}
	}
	// Vacuously false for an empty member set.
	return false
}

// Or combines conditions disjunctively: any protecting member suffices.
func Or(conditions ...domain.CaptureCondition) domain.CaptureCondition {
	members := make([]domain.CaptureCondition, len(conditions))
	copy(members, conditions)
	return compositeOr{members: members}
}
