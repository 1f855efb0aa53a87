package optimizer

import (
	"fmt"

	"github.com/shiftsync/core/pkg/model"
)

// Violation names the hard constraint that failed and where.
type Violation struct {
	Tag    string
	Cell   model.Cell
	Detail string
}

// HardCheck is one of the optimizer's 5 hard constraints. Every HardCheck
// must return zero violations for a Solution to be returned from Optimize.
type HardCheck func(p *Problem, sched *model.Schedule, dates []string) []Violation

// HardChecks lists, in priority order, the 5 hard constraints of spec.md §4.1.
var HardChecks = []struct {
	Tag   string
	Check HardCheck
}{
	{"exactly_one_shift", checkExactlyOneShift},
	{"calendar_must_off", checkCalendarMustOff},
	{"calendar_must_work", checkCalendarMustWork},
	{"adjacent_conflict", checkAdjacentConflict},
	{"max_consecutive_work", checkMaxConsecutiveWork},
}

// Violations runs every hard constraint and collects all failures.
func Violations(p *Problem, sched *model.Schedule) []Violation {
	var all []Violation
	for _, hc := range HardChecks {
		all = append(all, hc.Check(p, sched, p.Dates)...)
	}
	return all
}

func IsFeasible(p *Problem, sched *model.Schedule) bool {
	return len(Violations(p, sched)) == 0
}

// checkExactlyOneShift is hard constraint #1: every (staff, date) cell
// must hold exactly one assigned symbol — SymbolUnset is never a legal
// final-solution value.
func checkExactlyOneShift(p *Problem, sched *model.Schedule, dates []string) []Violation {
	var out []Violation
	for _, s := range p.Staff {
		for _, d := range dates {
			c := model.Cell{StaffID: s.ID, Date: d}
			if sched.Get(c) == model.SymbolUnset {
				out = append(out, Violation{Tag: "exactly_one_shift", Cell: c, Detail: "未分配任何班次符号"})
			}
		}
	}
	return out
}

// earlyPreferenceIndex builds the (staff, date) lookup hard constraint #2
// consults before defaulting a must_day_off date to OFF.
func earlyPreferenceIndex(rules []model.EarlyPreferenceRule) map[model.Cell]bool {
	idx := make(map[model.Cell]bool, len(rules))
	for _, r := range rules {
		idx[model.Cell{StaffID: r.StaffID, Date: r.Date}] = true
	}
	return idx
}

// checkCalendarMustOff is hard constraint #2: on a must_day_off date,
// every staff member holds OFF, unless an early-shift preference covers
// that (staff, date), in which case they must hold EARLY instead.
func checkCalendarMustOff(p *Problem, sched *model.Schedule, dates []string) []Violation {
	early := earlyPreferenceIndex(p.Config.EarlyPreferenceRules)
	var out []Violation
	for _, r := range p.Config.CalendarRules {
		if r.Kind != model.CalendarMustDayOff {
			continue
		}
		for _, s := range p.Staff {
			c := model.Cell{StaffID: s.ID, Date: r.Date}
			want := model.SymbolOff
			if early[c] {
				want = model.SymbolEarly
			}
			if got := sched.Get(c); got != want {
				out = append(out, Violation{Tag: "calendar_must_off", Cell: c,
					Detail: fmt.Sprintf("日期 %s 强制休假, 要求符号 %s, 实际 %s", r.Date, want, got)})
			}
		}
	}
	return out
}

// checkCalendarMustWork is hard constraint #3: on a must_work date, every
// staff member holds WORK.
func checkCalendarMustWork(p *Problem, sched *model.Schedule, dates []string) []Violation {
	var out []Violation
	for _, r := range p.Config.CalendarRules {
		if r.Kind != model.CalendarMustWork {
			continue
		}
		for _, s := range p.Staff {
			c := model.Cell{StaffID: s.ID, Date: r.Date}
			if got := sched.Get(c); got != model.SymbolWork {
				out = append(out, Violation{Tag: "calendar_must_work", Cell: c,
					Detail: fmt.Sprintf("日期 %s 强制在岗, 实际 %s", r.Date, got)})
			}
		}
	}
	return out
}

// mustOffDates indexes the dates hard constraint #4 treats as exempt
// anchors — adjacency is never checked across them.
func mustOffDates(rules []model.CalendarRule) map[string]bool {
	idx := make(map[string]bool, len(rules))
	for _, r := range rules {
		if r.Kind == model.CalendarMustDayOff {
			idx[r.Date] = true
		}
	}
	return idx
}

// checkAdjacentConflict is hard constraint #4: for every consecutive pair
// of dates, the patterns (OFF,OFF), (EARLY,OFF), (OFF,EARLY) are
// forbidden; (EARLY,EARLY) is permitted. The check is skipped across any
// calendar-mandated off date, which is treated as an exempt anchor.
func checkAdjacentConflict(p *Problem, sched *model.Schedule, dates []string) []Violation {
	anchors := mustOffDates(p.Config.CalendarRules)
	var out []Violation
	for _, s := range p.Staff {
		for i := 0; i+1 < len(dates); i++ {
			today, tomorrow := dates[i], dates[i+1]
			if anchors[today] || anchors[tomorrow] {
				continue
			}
			a := sched.Get(model.Cell{StaffID: s.ID, Date: today})
			b := sched.Get(model.Cell{StaffID: s.ID, Date: tomorrow})
			if a == model.SymbolEarly && b == model.SymbolEarly {
				continue // EARLY,EARLY is the one permitted rest-like pair
			}
			restLike := func(sym model.Symbol) bool { return sym == model.SymbolOff || sym == model.SymbolEarly }
			if restLike(a) && restLike(b) {
				out = append(out, Violation{Tag: "adjacent_conflict", Cell: model.Cell{StaffID: s.ID, Date: tomorrow},
					Detail: fmt.Sprintf("连续日期 %s/%s 不得为 %s/%s", today, tomorrow, a, b)})
			}
		}
	}
	return out
}

// checkMaxConsecutiveWork is hard constraint #5: every window of 6
// consecutive dates contains at least one OFF or EARLY for each staff
// member — the universal invariant that no 6-day span is rest-free.
func checkMaxConsecutiveWork(p *Problem, sched *model.Schedule, dates []string) []Violation {
	const window = 6
	if len(dates) < window {
		return nil
	}
	var out []Violation
	for _, s := range p.Staff {
		for start := 0; start+window <= len(dates); start++ {
			rested := false
			for i := start; i < start+window; i++ {
				sym := sched.Get(model.Cell{StaffID: s.ID, Date: dates[i]})
				if sym == model.SymbolOff || sym == model.SymbolEarly {
					rested = true
					break
				}
			}
			if !rested {
				out = append(out, Violation{Tag: "max_consecutive_work",
					Cell:   model.Cell{StaffID: s.ID, Date: dates[start+window-1]},
					Detail: fmt.Sprintf("员工 %s 在 %s..%s 的 6 日窗口内无休息", s.ID, dates[start], dates[start+window-1])})
			}
		}
	}
	return out
}
