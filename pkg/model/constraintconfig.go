package model

import "github.com/google/uuid"

// ConfigVersion is an immutable, atomically-swapped snapshot of every
// constraint family. The optimizer always solves against exactly one
// ConfigVersion (spec.md §3, §4.3 GetActiveConfigVersion).
type ConfigVersion struct {
	BaseModel
	RestaurantID uuid.UUID `json:"restaurant_id" db:"restaurant_id"`
	Active       bool      `json:"active" db:"active"`
	Comment      string    `json:"comment,omitempty" db:"comment"`

	StaffGroupRules      []StaffGroupRule      `json:"staff_group_rules"`
	DailyLimitRules      []DailyLimitRule      `json:"daily_limit_rules"`
	MonthlyLimitRules    []MonthlyLimitRule    `json:"monthly_limit_rules"`
	PriorityRules        []PriorityRule        `json:"priority_rules"`
	CalendarRules        []CalendarRule        `json:"calendar_rules"`
	EarlyPreferenceRules []EarlyPreferenceRule `json:"early_preference_rules"`
}

// StaffGroupRule names a group subject to the overlap soft constraint: on
// any one date, 2·(#OFF in group) + (#EARLY in group) must not exceed 2
// (spec.md §4.1); weight family 100 per violating date, deployment-tuned
// via Weights.StaffGroup rather than per rule.
type StaffGroupRule struct {
	GroupID uuid.UUID `json:"group_id"`
}

// DailyLimitRule bounds how many staff hold a given symbol (OFF or EARLY,
// per spec.md §3) on a single calendar day. Weight family: 50.
type DailyLimitRule struct {
	Symbol Symbol  `json:"symbol"`
	Min    int     `json:"min"`
	Max    int     `json:"max"`
	Weight float64 `json:"weight"`
}

// MonthlyLimitRule bounds, per staff, how many OFF days fall within the
// period. CountCalendarOff chooses whether dates carrying a must_day_off
// calendar rule are included in the tally. Weight family: 80.
type MonthlyLimitRule struct {
	MinOff           int     `json:"min_off"`
	MaxOff           int     `json:"max_off"`
	CountCalendarOff bool    `json:"count_calendar_off"`
	Weight           float64 `json:"weight"`
}

// PriorityTag marks a PriorityRule as a reward or a penalty.
type PriorityTag string

const (
	PriorityPreferred PriorityTag = "preferred"
	PriorityAvoided   PriorityTag = "avoided"
)

// PriorityRule is a per-staff soft preference keyed by day-of-week and
// shift symbol (spec.md §3, §4.1): satisfying a Preferred rule rewards the
// objective, violating an Avoided one penalizes it, both scaled by Level
// against the baseline weight 10 (model.DefaultWeights.Priority).
// Weekday follows time.Weekday (0=Sunday .. 6=Saturday).
type PriorityRule struct {
	StaffID uuid.UUID   `json:"staff_id"`
	Weekday int         `json:"weekday"`
	Symbol  Symbol      `json:"symbol"`
	Tag     PriorityTag `json:"tag"`
	Level   int         `json:"level"`
}

// CalendarRuleKind is one of the two per-date directives spec.md §3
// names: a mandated day off or a mandated working day.
type CalendarRuleKind string

const (
	CalendarMustDayOff CalendarRuleKind = "must_day_off"
	CalendarMustWork   CalendarRuleKind = "must_work"
)

// CalendarRule pins a date to a mandated outcome, independent of staff
// (e.g. a public holiday closure or a mandatory staffing day).
type CalendarRule struct {
	Date string           `json:"date"`
	Kind CalendarRuleKind `json:"kind"`
}

// EarlyPreferenceRule names one (staff, date) pair on which, when a
// must_day_off calendar rule applies to that date, the named staff member
// is assigned EARLY instead of OFF (spec.md §3, hard constraint #2, and
// the boundary behavior "early-shift preference wins over must_day_off").
type EarlyPreferenceRule struct {
	StaffID uuid.UUID `json:"staff_id"`
	Date    string    `json:"date"`
}

// DefaultWeights are spec.md's most-repeated soft-constraint weight
// values, the ones optimizer.DefaultWeights returns (SPEC_FULL.md, Open
// Question decision 2).
var DefaultWeights = struct {
	StaffGroup float64
	DailyLimit float64
	MonthlyCap float64
	Priority   float64
}{
	StaffGroup: 100,
	DailyLimit: 50,
	MonthlyCap: 80,
	Priority:   10,
}
