// Package optimizer implements the CP-SAT-flavored Constraint Optimizer:
// a single operation, Optimize, that turns a Problem into a Solution or a
// Failure. Decision variables are arena-indexed booleans over
// staff × date × symbol rather than a cyclic object graph, per the
// re-architecture notes this component was distilled from.
package optimizer

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shiftsync/core/pkg/errors"
	"github.com/shiftsync/core/pkg/logger"
	"github.com/shiftsync/core/pkg/model"
)

// Problem is the complete, self-contained input to a solve: the staff
// roster, the period's date range, the active configuration version, and
// an optional starting point (e.g. the Hub's current schedule, for
// incremental re-optimization after a manual edit).
type Problem struct {
	PeriodID uuid.UUID
	Dates    []string
	Staff    []*model.Staff
	Groups   map[uuid.UUID]*model.StaffGroup
	Config   *model.ConfigVersion
	Seed     *model.Schedule // optional warm start
	Budget   time.Duration   // solve time budget; 0 means DefaultBudget
}

// FailureReason enumerates the Optimizer's failure modes (spec.md §4.1).
type FailureReason string

const (
	FailureInfeasible   FailureReason = "infeasible"
	FailureTimeout      FailureReason = "timeout"
	FailureInvalidInput FailureReason = "invalid_input"
)

// Failure is the negative outcome of Optimize.
type Failure struct {
	Reason FailureReason
	Detail string
}

func (f *Failure) Error() string {
	return string(f.Reason) + ": " + f.Detail
}

// Weights scales each soft constraint category. It is a parameter of
// Optimize, never hardcoded in the search; no configuration field sets it.
type Weights struct {
	StaffGroup float64
	DailyLimit float64
	MonthlyCap float64
	Priority   float64
}

// DefaultWeights mirrors model.DefaultWeights.
func DefaultWeights() Weights {
	return Weights{
		StaffGroup: model.DefaultWeights.StaffGroup,
		DailyLimit: model.DefaultWeights.DailyLimit,
		MonthlyCap: model.DefaultWeights.MonthlyCap,
		Priority:   model.DefaultWeights.Priority,
	}
}

const (
	DefaultBudget = 10 * time.Second
	MaxBudget     = 60 * time.Second
)

// Optimize is the Optimizer's single operation. It never returns a partial
// Solution alongside an error — exactly one of (Solution, Failure) is set.
func Optimize(ctx context.Context, problem *Problem, weights Weights) (*model.Schedule, *Failure) {
	start := time.Now()
	log := logger.NewSchedulerLogger()

	if err := validate(problem); err != nil {
		return nil, &Failure{Reason: FailureInvalidInput, Detail: err.Error()}
	}

	budget := problem.Budget
	if budget <= 0 {
		budget = DefaultBudget
	}
	if budget > MaxBudget {
		budget = MaxBudget
	}
	solveCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	vars := NewVariables(problem.Staff, problem.Dates)
	log.StartSchedule(problem.PeriodID.String(), len(problem.Staff), len(problem.Dates))

	sched, err := construct(solveCtx, problem, vars)
	if err != nil {
		if solveCtx.Err() != nil {
			return nil, &Failure{Reason: FailureTimeout, Detail: "construction exceeded solve budget"}
		}
		return nil, &Failure{Reason: FailureInfeasible, Detail: err.Error()}
	}

	pool := NewPool(defaultWorkers())
	sched = localSearch(solveCtx, pool, problem, vars, sched, weights)

	score, violations := ScoreSoft(problem, sched, weights)
	sched.Stats = &model.ScheduleStats{
		TotalCells:      len(problem.Staff) * len(problem.Dates),
		AssignedCells:   len(sched.Cells()),
		WorkingCells:    countWorking(sched),
		ViolationsByTag: violations,
		ObjectiveScore:  score,
		SolveDurationMS: time.Since(start).Milliseconds(),
	}

	log.ScheduleComplete(problem.PeriodID.String(), time.Since(start), score)
	return sched, nil
}

func countWorking(sched *model.Schedule) int {
	n := 0
	for _, cv := range sched.Cells() {
		if cv.Symbol.IsWorking() {
			n++
		}
	}
	return n
}

func validate(p *Problem) error {
	if p == nil {
		return errors.InvalidInput("problem", "不能为空")
	}
	if len(p.Staff) == 0 {
		return errors.InvalidInput("staff", "排班期内没有员工")
	}
	if len(p.Dates) == 0 {
		return errors.InvalidInput("dates", "排班期日期范围为空")
	}
	if p.Config == nil {
		return errors.InvalidInput("config", "缺少生效的约束配置版本")
	}
	seen := make(map[uuid.UUID]bool, len(p.Staff))
	for _, s := range p.Staff {
		if seen[s.ID] {
			return errors.InvalidInput("staff", "员工ID重复: "+s.ID.String())
		}
		seen[s.ID] = true
	}
	return nil
}

// orderedStaffIDs returns staff IDs in a stable order, the tie-breaking
// policy's foundation: ties always resolve in ascending ID order, never by
// map iteration order.
func orderedStaffIDs(staff []*model.Staff) []uuid.UUID {
	ids := make([]uuid.UUID, len(staff))
	for i, s := range staff {
		ids[i] = s.ID
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

func defaultWorkers() int {
	return 4
}
