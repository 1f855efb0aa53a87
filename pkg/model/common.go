// Package model defines the core data model of the scheduling core.
package model

import (
	"time"

	"github.com/google/uuid"
)

// ConstraintCategory distinguishes constraints that must hold from those
// the optimizer only tries to satisfy.
type ConstraintCategory string

const (
	ConstraintHard ConstraintCategory = "hard"
	ConstraintSoft ConstraintCategory = "soft"
)

// BaseModel carries the identity and bookkeeping fields shared by every
// persisted entity.
type BaseModel struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"-" db:"deleted_at"`
}

// NewBaseModel stamps a fresh identity and timestamps.
func NewBaseModel() BaseModel {
	now := time.Now()
	return BaseModel{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// JSONMap backs JSONB columns that don't warrant their own struct.
type JSONMap map[string]interface{}

// TimeRange is a half-open interval [Start, End).
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (tr TimeRange) Duration() time.Duration {
	return tr.End.Sub(tr.Start)
}

func (tr TimeRange) Overlaps(other TimeRange) bool {
	return tr.Start.Before(other.End) && other.Start.Before(tr.End)
}

func (tr TimeRange) Contains(t time.Time) bool {
	return !t.Before(tr.Start) && t.Before(tr.End)
}

// DateRange is an inclusive calendar-day range, YYYY-MM-DD on both ends.
type DateRange struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// Days enumerates every date in the range, inclusive, in the "2006-01-02" layout.
func (dr DateRange) Days() ([]string, error) {
	start, err := time.Parse("2006-01-02", dr.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := time.Parse("2006-01-02", dr.EndDate)
	if err != nil {
		return nil, err
	}
	var days []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format("2006-01-02"))
	}
	return days, nil
}
