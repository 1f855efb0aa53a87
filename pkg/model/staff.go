package model

import "github.com/google/uuid"

// Staff is a schedulable restaurant employee.
type Staff struct {
	BaseModel
	RestaurantID uuid.UUID `json:"restaurant_id" db:"restaurant_id"`
	Name         string    `json:"name" db:"name"`
	Code         string    `json:"code" db:"code"`
	Role         string    `json:"role" db:"role"` // server/cook/host/manager
	IsActive     bool      `json:"is_active" db:"is_active"`

	// GroupIDs is the set of StaffGroup memberships this person holds;
	// staff-group constraints (constraintconfig.go) key off this.
	GroupIDs []uuid.UUID `json:"group_ids,omitempty" db:"group_ids"`

	PrefersEarlyShift bool `json:"prefers_early_shift" db:"prefers_early_shift"`
}

// StaffGroup is a named cohort of staff that a staff-group constraint can
// reference (e.g. "certified bartenders", "closers").
type StaffGroup struct {
	BaseModel
	RestaurantID uuid.UUID   `json:"restaurant_id" db:"restaurant_id"`
	Name         string      `json:"name" db:"name"`
	MemberIDs    []uuid.UUID `json:"member_ids" db:"member_ids"`
}

func (s *Staff) InGroup(groupID uuid.UUID) bool {
	for _, g := range s.GroupIDs {
		if g == groupID {
			return true
		}
	}
	return false
}
