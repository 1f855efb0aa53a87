package model

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// Cell addresses one (staff, date) schedule entry. It is comparable and used
// directly as a map key.
type Cell struct {
	StaffID uuid.UUID `json:"staff_id"`
	Date    string    `json:"date"`
}

func (c Cell) String() string {
	return fmt.Sprintf("%s@%s", c.StaffID, c.Date)
}

// Schedule holds the assigned symbol for every scheduled cell of a planning
// period, plus the version counter the Sync Hub uses to order and reject
// stale writes (spec.md §4.2 ordering guarantees).
type Schedule struct {
	PeriodID     uuid.UUID `json:"period_id"`
	Version      uint64    `json:"version"`
	LastModifier uuid.UUID `json:"last_modifier,omitempty"`
	Stats        *ScheduleStats `json:"stats,omitempty"`

	cells map[Cell]Symbol
}

// NewSchedule returns an empty schedule at version 0.
func NewSchedule(periodID uuid.UUID) *Schedule {
	return &Schedule{
		PeriodID: periodID,
		cells:    make(map[Cell]Symbol),
	}
}

// Get returns the symbol at a cell, SymbolUnset if never assigned.
func (s *Schedule) Get(c Cell) Symbol {
	if s.cells == nil {
		return SymbolUnset
	}
	if v, ok := s.cells[c]; ok {
		return v
	}
	return SymbolUnset
}

// Set assigns a symbol and bumps the version. It does not itself perform
// conflict resolution — that is the Sync Hub's job (internal/hub/conflict.go).
func (s *Schedule) Set(c Cell, sym Symbol, modifier uuid.UUID) {
	if s.cells == nil {
		s.cells = make(map[Cell]Symbol)
	}
	s.cells[c] = sym
	s.Version++
	s.LastModifier = modifier
}

// SetBulk assigns many cells as a single version bump, per the
// SHIFT_BULK_UPDATE operation's atomicity requirement.
func (s *Schedule) SetBulk(updates map[Cell]Symbol, modifier uuid.UUID) {
	if s.cells == nil {
		s.cells = make(map[Cell]Symbol)
	}
	for c, sym := range updates {
		s.cells[c] = sym
	}
	if len(updates) > 0 {
		s.Version++
		s.LastModifier = modifier
	}
}

// CellValue is an assigned (cell, symbol) pair, the unit of persistence and
// wire transfer.
type CellValue struct {
	Cell
	Symbol Symbol
}

// Cells returns a stable-ordered snapshot of every assigned cell, used for
// persistence and replay.
func (s *Schedule) Cells() []CellValue {
	out := make([]CellValue, 0, len(s.cells))
	for c, v := range s.cells {
		out = append(out, CellValue{Cell: c, Symbol: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StaffID.String() < out[j].StaffID.String()
	})
	return out
}

// Clone deep-copies the schedule, used by the optimizer to branch on
// candidate assignments without mutating the hub's authoritative state.
func (s *Schedule) Clone() *Schedule {
	clone := &Schedule{
		PeriodID:     s.PeriodID,
		Version:      s.Version,
		LastModifier: s.LastModifier,
		cells:        make(map[Cell]Symbol, len(s.cells)),
	}
	for k, v := range s.cells {
		clone.cells[k] = v
	}
	if s.Stats != nil {
		stats := *s.Stats
		clone.Stats = &stats
	}
	return clone
}

// ScheduleStats summarizes a schedule for display and audit, supplementing
// the distilled spec with the fill-rate-style reporting a complete
// persistence adapter needs (SPEC_FULL.md §10).
type ScheduleStats struct {
	TotalCells      int            `json:"total_cells"`
	AssignedCells   int            `json:"assigned_cells"`
	WorkingCells    int            `json:"working_cells"`
	ViolationsByTag map[string]int `json:"violations_by_tag,omitempty"`
	ObjectiveScore  float64        `json:"objective_score"`
	SolveDurationMS int64          `json:"solve_duration_ms"`
}
