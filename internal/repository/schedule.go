package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shiftsync/core/internal/database"
	"github.com/shiftsync/core/pkg/model"
)

// ScheduleRepository implements the Persistence Adapter's LoadPeriod and
// SavePeriod operations (spec.md §4.3). SavePeriod writes the schedule row
// and every cell inside one transaction — a period is never observable
// half-written.
type ScheduleRepository struct {
	db *database.DB
}

func NewScheduleRepository(db *database.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// LoadPeriod reads a period's full schedule, or a fresh empty one if the
// period has never been saved.
func (r *ScheduleRepository) LoadPeriod(ctx context.Context, periodID uuid.UUID) (*model.Schedule, error) {
	sched := model.NewSchedule(periodID)

	var version uint64
	var lastModifier uuid.UUID
	err := r.db.QueryRowContext(ctx, `
		SELECT version, last_modifier FROM schedules WHERE period_id = $1
	`, periodID).Scan(&version, &lastModifier)
	switch {
	case err == sql.ErrNoRows:
		return sched, nil
	case err != nil:
		return nil, fmt.Errorf("查询排班版本失败: %w", err)
	}
	sched.Version = version
	sched.LastModifier = lastModifier

	rows, err := r.db.QueryContext(ctx, `
		SELECT staff_id, date, symbol FROM schedule_cells WHERE period_id = $1
	`, periodID)
	if err != nil {
		return nil, fmt.Errorf("查询排班单元格失败: %w", err)
	}
	defer rows.Close()

	updates := make(map[model.Cell]model.Symbol)
	for rows.Next() {
		var staffID uuid.UUID
		var date string
		var symStr string
		if err := rows.Scan(&staffID, &date, &symStr); err != nil {
			return nil, fmt.Errorf("扫描排班单元格失败: %w", err)
		}
		sym, ok := model.ParseSymbol(symStr)
		if !ok {
			continue
		}
		updates[model.Cell{StaffID: staffID, Date: date}] = sym
	}
	// Set bumps Version per cell; restore the persisted version afterwards since this is a load, not a write
	for c, sym := range updates {
		sched.Set(c, sym, lastModifier)
	}
	sched.Version = version
	return sched, nil
}

// SavePeriod atomically persists the full schedule for a period: the
// version/last-modifier row and every assigned cell.
func (r *ScheduleRepository) SavePeriod(ctx context.Context, sched *model.Schedule) error {
	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO schedules (period_id, version, last_modifier, updated_at)
			VALUES ($1, $2, $3, now())
			ON CONFLICT (period_id) DO UPDATE SET
				version = EXCLUDED.version, last_modifier = EXCLUDED.last_modifier, updated_at = now()
		`, sched.PeriodID, sched.Version, sched.LastModifier)
		if err != nil {
			return fmt.Errorf("写入排班版本失败: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_cells WHERE period_id = $1`, sched.PeriodID); err != nil {
			return fmt.Errorf("清空排班单元格失败: %w", err)
		}

		for _, cv := range sched.Cells() {
			if cv.Symbol == model.SymbolUnset {
				continue
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO schedule_cells (period_id, staff_id, date, symbol)
				VALUES ($1, $2, $3, $4)
			`, sched.PeriodID, cv.StaffID, cv.Date, cv.Symbol.String())
			if err != nil {
				return fmt.Errorf("写入排班单元格失败: %w", err)
			}
		}
		return nil
	})
}
