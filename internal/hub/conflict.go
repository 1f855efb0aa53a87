package hub

import "github.com/shiftsync/core/pkg/model"

// Policy selects one of the three deployment-wide conflict resolution
// strategies of spec.md §4.2.
type Policy string

const (
	PolicyLastWriterWins  Policy = "last"
	PolicyFirstWriterWins Policy = "first"
	PolicyMerge           Policy = "merge"
)

// ParsePolicy parses the operator-surface {last|first|merge} token.
func ParsePolicy(s string) (Policy, bool) {
	switch Policy(s) {
	case PolicyLastWriterWins, PolicyFirstWriterWins, PolicyMerge:
		return Policy(s), true
	default:
		return "", false
	}
}

// decision is the outcome of applying a policy to one incoming mutation.
type decision struct {
	accept      bool
	conflicting []model.Cell
}

// resolve decides whether an incoming mutation touching cells may be
// applied given the period's current version and the change log recorded
// since baseVersion. It never mutates state; the caller applies or
// rejects based on the returned decision.
func resolve(policy Policy, currentVersion, baseVersion uint64, cells []model.Cell, log *ChangeLog) decision {
	if baseVersion == currentVersion {
		return decision{accept: true}
	}

	switch policy {
	case PolicyLastWriterWins:
		return decision{accept: true}
	case PolicyFirstWriterWins:
		return decision{accept: false}
	case PolicyMerge:
		touchedSince, windowCovered := touchedCellsSinceChecked(log, baseVersion)
		if !windowCovered {
			// base_version fell out of the replay window: cannot prove
			// disjointness, so conservatively reject every touched cell.
			return decision{accept: false, conflicting: cells}
		}
		var conflicting []model.Cell
		for _, c := range cells {
			if touchedSince[c] {
				conflicting = append(conflicting, c)
			}
		}
		if len(conflicting) > 0 {
			return decision{accept: false, conflicting: conflicting}
		}
		return decision{accept: true}
	default:
		return decision{accept: false}
	}
}

func touchedCellsSinceChecked(log *ChangeLog, baseVersion uint64) (map[model.Cell]bool, bool) {
	ops, ok := log.Since(baseVersion)
	if !ok {
		return nil, false
	}
	touched := make(map[model.Cell]bool)
	for _, op := range ops {
		for _, cp := range op.Cells {
			id, err := parseUUID(cp.StaffID)
			if err != nil {
				continue
			}
			touched[model.Cell{StaffID: id, Date: cp.Date}] = true
		}
	}
	return touched, true
}
