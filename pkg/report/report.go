// Package report bridges the domain Schedule to the statistical analyzers in
// pkg/stats, translating Cell/Symbol pairs directly into the date/symbol
// shape those analyzers work with.
package report

import (
	"github.com/shiftsync/core/pkg/model"
	"github.com/shiftsync/core/pkg/stats"
)

// Coverage runs the CoverageAnalyzer over one period's schedule, requiring
// at least one working staff member per scheduled date.
func Coverage(sched *model.Schedule, dates []string, staffCount int) *stats.CoverageMetrics {
	analyzer := stats.NewCoverageAnalyzer()

	slots := make([]stats.DateSlot, len(dates))
	for i, d := range dates {
		slots[i] = stats.DateSlot{Date: d}
	}

	return analyzer.Analyze(slots, staffCount, toAssignments(sched))
}

// Fairness runs the FairnessAnalyzer over one period's schedule.
func Fairness(sched *model.Schedule, staff []*model.Staff) *stats.FairnessMetrics {
	analyzer := stats.NewFairnessAnalyzer()

	infos := make([]*stats.StaffInfo, 0, len(staff))
	for _, s := range staff {
		infos = append(infos, &stats.StaffInfo{ID: s.ID.String(), Name: s.Name})
	}

	return analyzer.Analyze(toAssignments(sched), infos)
}

func toAssignments(sched *model.Schedule) []stats.Assignment {
	cells := sched.Cells()
	out := make([]stats.Assignment, 0, len(cells))
	for _, cv := range cells {
		if cv.Symbol == model.SymbolUnset {
			continue
		}
		out = append(out, stats.Assignment{
			StaffID: cv.StaffID.String(),
			Date:    cv.Date,
			Symbol:  cv.Symbol.String(),
		})
	}
	return out
}
