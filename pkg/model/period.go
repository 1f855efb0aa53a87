package model

import (
	"time"

	"github.com/google/uuid"
)

// PlanningPeriod is a rolling window — two months in production — that a
// single Sync Hub owning goroutine is responsible for. It is the unit of
// ownership described in spec.md §5.
type PlanningPeriod struct {
	BaseModel
	RestaurantID uuid.UUID `json:"restaurant_id" db:"restaurant_id"`
	StartDate    string    `json:"start_date" db:"start_date"`
	EndDate      string    `json:"end_date" db:"end_date"`
	ReadOnly     bool      `json:"read_only" db:"read_only"`
	ArchivedAt   *time.Time `json:"archived_at,omitempty" db:"archived_at"`
}

// Dates enumerates every calendar day covered by the period.
func (p *PlanningPeriod) Dates() ([]string, error) {
	return DateRange{StartDate: p.StartDate, EndDate: p.EndDate}.Days()
}

// Key identifies a period uniquely for the purpose of hub ownership lookup —
// one period per restaurant per date range.
func (p *PlanningPeriod) Key() string {
	return p.RestaurantID.String() + ":" + p.StartDate + ":" + p.EndDate
}
