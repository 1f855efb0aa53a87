package optimizer

import (
	"github.com/google/uuid"
	"github.com/shiftsync/core/pkg/model"
)

// Variables is the arena-style index over the 4·S·D decision-variable space
// (spec.md §4.1, §9): rather than a cyclic staff<->shift<->date object
// graph, every cell is addressed by a flat (staffIndex, dateIndex) pair and
// assignments are looked up through slices, not pointers.
type Variables struct {
	staffIndex map[uuid.UUID]int
	staffIDs   []uuid.UUID
	dates      []string
	dateIndex  map[string]int
}

func NewVariables(staff []*model.Staff, dates []string) *Variables {
	v := &Variables{
		staffIndex: make(map[uuid.UUID]int, len(staff)),
		staffIDs:   make([]uuid.UUID, len(staff)),
		dates:      append([]string(nil), dates...),
		dateIndex:  make(map[string]int, len(dates)),
	}
	for i, id := range orderedStaffIDs(staff) {
		v.staffIndex[id] = i
		v.staffIDs[i] = id
	}
	for i, d := range dates {
		v.dateIndex[d] = i
	}
	return v
}

func (v *Variables) NumStaff() int { return len(v.staffIDs) }
func (v *Variables) NumDates() int { return len(v.dates) }
func (v *Variables) Dates() []string {
	return append([]string(nil), v.dates...)
}
func (v *Variables) StaffAt(i int) uuid.UUID { return v.staffIDs[i] }
func (v *Variables) DateAt(i int) string     { return v.dates[i] }

// Cells enumerates every (staff, date) cell in a stable, deterministic
// order — staff-major, date-minor — which is the tie-breaking policy's
// iteration order throughout the optimizer.
func (v *Variables) Cells() []model.Cell {
	cells := make([]model.Cell, 0, len(v.staffIDs)*len(v.dates))
	for _, staffID := range v.staffIDs {
		for _, date := range v.dates {
			cells = append(cells, model.Cell{StaffID: staffID, Date: date})
		}
	}
	return cells
}
