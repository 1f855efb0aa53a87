package optimizer

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shiftsync/core/pkg/model"
)

// construct builds a feasible initial Solution deterministically: a
// per-staff sweep over dates that guarantees every hard constraint holds
// before local search ever begins. Calendar rules pin a date's symbol
// outright; an early-shift preference overrides a must_day_off date's
// default OFF with EARLY (spec.md §4.1 #2); absent a rule, a staff member
// works until the 6-day rest window (#5) forces a single OFF day, which
// by construction is never adjacent to another rest day (#4).
func construct(ctx context.Context, p *Problem, vars *Variables) (*model.Schedule, error) {
	sched := model.NewSchedule(p.PeriodID)
	if p.Seed != nil {
		sched = p.Seed.Clone()
	}

	calendar := make(map[string]model.CalendarRule, len(p.Config.CalendarRules))
	for _, r := range p.Config.CalendarRules {
		calendar[r.Date] = r
	}
	early := earlyPreferenceIndex(p.Config.EarlyPreferenceRules)

	modifier := uuid.Nil
	const restWindow = 6

	for _, s := range p.Staff {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		sinceRest := 0
		for _, d := range vars.Dates() {
			cell := model.Cell{StaffID: s.ID, Date: d}
			if sched.Get(cell) != model.SymbolUnset {
				sinceRest = 0 // respect warm-start seed, assume it rests the window
				continue
			}

			rule, hasRule := calendar[d]
			var sym model.Symbol
			switch {
			case hasRule && rule.Kind == model.CalendarMustWork:
				sym = model.SymbolWork
			case hasRule && rule.Kind == model.CalendarMustDayOff:
				sym = model.SymbolOff
				if early[cell] {
					sym = model.SymbolEarly
				}
			case sinceRest >= restWindow-1:
				sym = model.SymbolOff
			default:
				sym = model.SymbolWork
			}

			sched.Set(cell, sym, modifier)
			if sym == model.SymbolOff || sym == model.SymbolEarly {
				sinceRest = 0
			} else {
				sinceRest++
			}
		}
	}

	if violations := Violations(p, sched); len(violations) > 0 {
		return nil, fmt.Errorf("构造阶段未能满足 %d 项硬约束, 例如: %s", len(violations), violations[0].Detail)
	}
	return sched, nil
}

// candidateFlip is one local-search move: reassign a single cell to an
// alternate working symbol.
type candidateFlip struct {
	cell   model.Cell
	symbol model.Symbol
}

// localSearch runs bounded hill-climbing: each round evaluates every legal
// single-cell flip in parallel via the pool, keeps the best
// score-improving, hard-constraint-preserving flip, and stops when no
// round improves the score or the solve budget is exhausted. Iteration and
// tie-breaking order are fixed (orderedStaffIDs × vars.Dates()), so two
// runs over the same Problem always return the same Solution.
func localSearch(ctx context.Context, pool *Pool, p *Problem, vars *Variables, sched *model.Schedule, w Weights) *model.Schedule {
	const maxRounds = 200
	current := sched
	currentScore, _ := ScoreSoft(p, current, w)

	for round := 0; round < maxRounds; round++ {
		select {
		case <-ctx.Done():
			return current
		default:
		}

		flips := candidateFlips(vars, current)
		type evalResult struct {
			flip    candidateFlip
			score   float64
			ok      bool
		}

		results, err := Map(ctx, pool, flips, func(_ context.Context, f candidateFlip) (evalResult, error) {
			trial := current.Clone()
			trial.Set(f.cell, f.symbol, current.LastModifier)
			if !IsFeasible(p, trial) {
				return evalResult{flip: f}, nil
			}
			score, _ := ScoreSoft(p, trial, w)
			return evalResult{flip: f, score: score, ok: true}, nil
		})
		if err != nil {
			return current
		}

		best := -1
		for i, r := range results {
			if !r.ok || r.score >= currentScore {
				continue
			}
			if best == -1 || r.score < results[best].score {
				best = i
			}
		}
		if best == -1 {
			break // local optimum
		}

		current = current.Clone()
		current.Set(results[best].flip.cell, results[best].flip.symbol, current.LastModifier)
		currentScore, _ = ScoreSoft(p, current, w)
	}

	return current
}

// candidateFlips enumerates every working-cell reassignment worth trying:
// only cells currently holding a working symbol may flip among
// {WORK, EARLY, LATE}, since OFF cells are pinned by the construction
// phase's coverage guarantee.
func candidateFlips(vars *Variables, current *model.Schedule) []candidateFlip {
	var flips []candidateFlip
	for _, cell := range vars.Cells() {
		if !current.Get(cell).IsWorking() {
			continue
		}
		for _, sym := range []model.Symbol{model.SymbolWork, model.SymbolEarly, model.SymbolLate} {
			if sym == current.Get(cell) {
				continue
			}
			flips = append(flips, candidateFlip{cell: cell, symbol: sym})
		}
	}
	return flips
}
