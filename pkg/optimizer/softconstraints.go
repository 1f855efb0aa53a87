package optimizer

import (
	"time"

	"github.com/shiftsync/core/pkg/model"
)

// groupOverlapLimit is the fixed threshold spec.md §4.1 names for the
// staff-group overlap soft constraint.
const groupOverlapLimit = 2

// ScoreSoft computes the weighted objective (lower is better) across the
// optimizer's four soft constraint categories, and a per-tag violation
// count for reporting.
func ScoreSoft(p *Problem, sched *model.Schedule, w Weights) (float64, map[string]int) {
	var total float64
	counts := make(map[string]int)

	total += scoreStaffGroups(p, sched, w.StaffGroup, counts)
	total += scoreDailyLimits(p, sched, w.DailyLimit, counts)
	total += scoreMonthlyCaps(p, sched, w.MonthlyCap, counts)
	total += scorePriority(p, sched, w.Priority, counts)

	return total, counts
}

// scoreStaffGroups penalizes, per group and per date not itself
// calendar-mandated, 2·(#OFF in group) + (#EARLY in group) exceeding 2;
// weight 100 per violating date (spec.md §4.1).
func scoreStaffGroups(p *Problem, sched *model.Schedule, weight float64, counts map[string]int) float64 {
	mandated := make(map[string]bool, len(p.Config.CalendarRules))
	for _, r := range p.Config.CalendarRules {
		mandated[r.Date] = true
	}

	var cost float64
	for _, rule := range p.Config.StaffGroupRules {
		group, ok := p.Groups[rule.GroupID]
		if !ok {
			continue
		}
		members := make(map[string]bool, len(group.MemberIDs))
		for _, id := range group.MemberIDs {
			members[id.String()] = true
		}
		for _, d := range p.Dates {
			if mandated[d] {
				continue
			}
			offCount, earlyCount := 0, 0
			for _, s := range p.Staff {
				if !members[s.ID.String()] {
					continue
				}
				switch sched.Get(model.Cell{StaffID: s.ID, Date: d}) {
				case model.SymbolOff:
					offCount++
				case model.SymbolEarly:
					earlyCount++
				}
			}
			if 2*offCount+earlyCount > groupOverlapLimit {
				cost += weight
				counts["staff_group"]++
			}
		}
	}
	return cost
}

// scoreDailyLimits bounds how many staff hold a given symbol on any one
// date within [Min, Max]; weight 50 per unit of violation.
func scoreDailyLimits(p *Problem, sched *model.Schedule, weight float64, counts map[string]int) float64 {
	var cost float64
	for _, rule := range p.Config.DailyLimitRules {
		for _, d := range p.Dates {
			n := 0
			for _, s := range p.Staff {
				if sched.Get(model.Cell{StaffID: s.ID, Date: d}) == rule.Symbol {
					n++
				}
			}
			if n < rule.Min {
				cost += float64(rule.Min-n) * weight
				counts["daily_limit"]++
			}
			if rule.Max > 0 && n > rule.Max {
				cost += float64(n-rule.Max) * weight
				counts["daily_limit"]++
			}
		}
	}
	return cost
}

// scoreMonthlyCaps bounds, per staff, the number of OFF days held across
// the whole period within [MinOff, MaxOff]; CountCalendarOff chooses
// whether must_day_off dates are part of the tally. Weight 80 per unit.
func scoreMonthlyCaps(p *Problem, sched *model.Schedule, weight float64, counts map[string]int) float64 {
	if len(p.Config.MonthlyLimitRules) == 0 {
		return 0
	}
	rule := p.Config.MonthlyLimitRules[0]

	mandatedOff := make(map[string]bool, len(p.Config.CalendarRules))
	for _, r := range p.Config.CalendarRules {
		if r.Kind == model.CalendarMustDayOff {
			mandatedOff[r.Date] = true
		}
	}

	var cost float64
	for _, s := range p.Staff {
		n := 0
		for _, d := range p.Dates {
			if sched.Get(model.Cell{StaffID: s.ID, Date: d}) != model.SymbolOff {
				continue
			}
			if !rule.CountCalendarOff && mandatedOff[d] {
				continue
			}
			n++
		}
		if n < rule.MinOff {
			cost += float64(rule.MinOff-n) * weight
			counts["monthly_cap"]++
		}
		if rule.MaxOff > 0 && n > rule.MaxOff {
			cost += float64(n-rule.MaxOff) * weight
			counts["monthly_cap"]++
		}
	}
	return cost
}

// scorePriority rewards satisfying a preferred (staff, day-of-week,
// symbol) rule and penalizes satisfying an avoided one, both scaled by
// the rule's Level against the baseline weight (spec.md §4.1).
func scorePriority(p *Problem, sched *model.Schedule, weight float64, counts map[string]int) float64 {
	var cost float64
	for _, rule := range p.Config.PriorityRules {
		level := rule.Level
		if level <= 0 {
			level = 1
		}
		for _, d := range p.Dates {
			t, err := time.Parse("2006-01-02", d)
			if err != nil || int(t.Weekday()) != rule.Weekday {
				continue
			}
			got := sched.Get(model.Cell{StaffID: rule.StaffID, Date: d})
			switch rule.Tag {
			case model.PriorityPreferred:
				if got != rule.Symbol {
					cost += weight * float64(level)
					counts["priority"]++
				}
			case model.PriorityAvoided:
				if got == rule.Symbol {
					cost += weight * float64(level)
					counts["priority"]++
				}
			}
		}
	}
	return cost
}
