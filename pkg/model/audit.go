package model

import (
	"time"

	"github.com/google/uuid"
)

// AuditEntry records a single mutation to a config version or a published
// schedule. The audit table is append-only (spec.md §3); there is no
// Update or Delete operation anywhere in this package for it.
type AuditEntry struct {
	BaseModel
	RestaurantID    uuid.UUID  `json:"restaurant_id" db:"restaurant_id"`
	ConfigVersionID *uuid.UUID `json:"config_version_id,omitempty" db:"config_version_id"`
	PeriodID        *uuid.UUID `json:"period_id,omitempty" db:"period_id"`
	Actor           uuid.UUID  `json:"actor" db:"actor"`
	Table           string     `json:"table" db:"table_name"`
	Action          string     `json:"action" db:"action"`
	Detail          string     `json:"detail,omitempty" db:"detail"`
	Before          JSONMap    `json:"before,omitempty" db:"before"`
	After           JSONMap    `json:"after,omitempty" db:"after"`
	OccurredAt      time.Time  `json:"occurred_at" db:"occurred_at"`
}

// NewAuditEntry stamps OccurredAt and a fresh BaseModel.
func NewAuditEntry(restaurantID, actor uuid.UUID, action string) AuditEntry {
	return AuditEntry{
		BaseModel:    NewBaseModel(),
		RestaurantID: restaurantID,
		Actor:        actor,
		Action:       action,
		OccurredAt:   time.Now(),
	}
}
