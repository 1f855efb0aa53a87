package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shiftsync/core/internal/database"
	"github.com/shiftsync/core/internal/naming"
	"github.com/shiftsync/core/pkg/model"
)

// ConfigRepository implements the Persistence Adapter's configuration-
// version surface (spec.md §4.3): GetActiveConfigVersion, WriteConfigChange,
// and one query per constraint family (one table each), run one after
// another.
type ConfigRepository struct {
	db *database.DB
}

func NewConfigRepository(db *database.DB) *ConfigRepository {
	return &ConfigRepository{db: db}
}

// GetActiveConfigVersion loads the restaurant's one active configuration
// version along with every constraint family keyed to it.
func (r *ConfigRepository) GetActiveConfigVersion(ctx context.Context, restaurantID uuid.UUID) (*model.ConfigVersion, error) {
	cv := &model.ConfigVersion{RestaurantID: restaurantID}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, active, comment, created_at, updated_at
		FROM config_versions WHERE restaurant_id = $1 AND active = true
	`, restaurantID).Scan(&cv.ID, &cv.Active, &cv.Comment, &cv.CreatedAt, &cv.UpdatedAt)
	switch {
	case err == sql.ErrNoRows:
		return nil, fmt.Errorf("餐厅 %s 没有激活的配置版本", restaurantID)
	case err != nil:
		return nil, fmt.Errorf("查询激活配置版本失败: %w", err)
	}

	var loadErr error
	if cv.StaffGroupRules, loadErr = r.listStaffGroupRules(ctx, cv.ID); loadErr != nil {
		return nil, loadErr
	}
	if cv.DailyLimitRules, loadErr = r.listDailyLimitRules(ctx, cv.ID); loadErr != nil {
		return nil, loadErr
	}
	if cv.MonthlyLimitRules, loadErr = r.listMonthlyLimitRules(ctx, cv.ID); loadErr != nil {
		return nil, loadErr
	}
	if cv.PriorityRules, loadErr = r.listPriorityRules(ctx, cv.ID); loadErr != nil {
		return nil, loadErr
	}
	if cv.CalendarRules, loadErr = r.listCalendarRules(ctx, cv.ID); loadErr != nil {
		return nil, loadErr
	}
	if cv.EarlyPreferenceRules, loadErr = r.listEarlyPreferenceRules(ctx, cv.ID); loadErr != nil {
		return nil, loadErr
	}
	return cv, nil
}

func (r *ConfigRepository) listStaffGroupRules(ctx context.Context, versionID uuid.UUID) ([]model.StaffGroupRule, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT group_id FROM staff_group_rules WHERE config_version_id = $1`, versionID)
	if err != nil {
		return nil, fmt.Errorf("查询人员组规则失败: %w", err)
	}
	defer rows.Close()
	var out []model.StaffGroupRule
	for rows.Next() {
		var rule model.StaffGroupRule
		if err := rows.Scan(&rule.GroupID); err != nil {
			return nil, fmt.Errorf("扫描人员组规则失败: %w", err)
		}
		out = append(out, rule)
	}
	return out, nil
}

func (r *ConfigRepository) listDailyLimitRules(ctx context.Context, versionID uuid.UUID) ([]model.DailyLimitRule, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT symbol, min_count, max_count, weight FROM daily_limit_rules WHERE config_version_id = $1`, versionID)
	if err != nil {
		return nil, fmt.Errorf("查询每日限额规则失败: %w", err)
	}
	defer rows.Close()
	var out []model.DailyLimitRule
	for rows.Next() {
		var symStr string
		var rule model.DailyLimitRule
		if err := rows.Scan(&symStr, &rule.Min, &rule.Max, &rule.Weight); err != nil {
			return nil, fmt.Errorf("扫描每日限额规则失败: %w", err)
		}
		sym, ok := model.ParseSymbol(symStr)
		if !ok {
			continue
		}
		rule.Symbol = sym
		out = append(out, rule)
	}
	return out, nil
}

func (r *ConfigRepository) listMonthlyLimitRules(ctx context.Context, versionID uuid.UUID) ([]model.MonthlyLimitRule, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT min_off, max_off, count_calendar_off, weight FROM monthly_limit_rules WHERE config_version_id = $1`, versionID)
	if err != nil {
		return nil, fmt.Errorf("查询月度限额规则失败: %w", err)
	}
	defer rows.Close()
	var out []model.MonthlyLimitRule
	for rows.Next() {
		var rule model.MonthlyLimitRule
		if err := rows.Scan(&rule.MinOff, &rule.MaxOff, &rule.CountCalendarOff, &rule.Weight); err != nil {
			return nil, fmt.Errorf("扫描月度限额规则失败: %w", err)
		}
		out = append(out, rule)
	}
	return out, nil
}

func (r *ConfigRepository) listPriorityRules(ctx context.Context, versionID uuid.UUID) ([]model.PriorityRule, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT staff_id, weekday, symbol, tag, level FROM priority_rules WHERE config_version_id = $1`, versionID)
	if err != nil {
		return nil, fmt.Errorf("查询优先级规则失败: %w", err)
	}
	defer rows.Close()
	var out []model.PriorityRule
	for rows.Next() {
		var rule model.PriorityRule
		var symStr, tagStr string
		if err := rows.Scan(&rule.StaffID, &rule.Weekday, &symStr, &tagStr, &rule.Level); err != nil {
			return nil, fmt.Errorf("扫描优先级规则失败: %w", err)
		}
		sym, ok := model.ParseSymbol(symStr)
		if !ok {
			continue
		}
		rule.Symbol = sym
		rule.Tag = model.PriorityTag(tagStr)
		out = append(out, rule)
	}
	return out, nil
}

func (r *ConfigRepository) listCalendarRules(ctx context.Context, versionID uuid.UUID) ([]model.CalendarRule, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT date, kind FROM calendar_rules WHERE config_version_id = $1`, versionID)
	if err != nil {
		return nil, fmt.Errorf("查询日历规则失败: %w", err)
	}
	defer rows.Close()
	var out []model.CalendarRule
	for rows.Next() {
		var rule model.CalendarRule
		var kindStr string
		if err := rows.Scan(&rule.Date, &kindStr); err != nil {
			return nil, fmt.Errorf("扫描日历规则失败: %w", err)
		}
		rule.Kind = model.CalendarRuleKind(kindStr)
		out = append(out, rule)
	}
	return out, nil
}

func (r *ConfigRepository) listEarlyPreferenceRules(ctx context.Context, versionID uuid.UUID) ([]model.EarlyPreferenceRule, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT staff_id, date FROM early_preference_rules WHERE config_version_id = $1`, versionID)
	if err != nil {
		return nil, fmt.Errorf("查询早班偏好规则失败: %w", err)
	}
	defer rows.Close()
	var out []model.EarlyPreferenceRule
	for rows.Next() {
		var rule model.EarlyPreferenceRule
		if err := rows.Scan(&rule.StaffID, &rule.Date); err != nil {
			return nil, fmt.Errorf("扫描早班偏好规则失败: %w", err)
		}
		out = append(out, rule)
	}
	return out, nil
}

// WriteConfigChange appends an audit entry inside its own transaction. That
// transaction holds only the audit INSERT; the configuration mutation the
// entry describes is not written here. Before/After blobs arrive shaped like the
// camelCase wire protocol (they are diffs of a SettingsSyncRequestPayload)
// and are converted to snake_case at this exact persistence boundary,
// converted back to camelCase on read.
func (r *ConfigRepository) WriteConfigChange(ctx context.Context, entry model.AuditEntry) error {
	beforeJSON, err := json.Marshal(naming.MapToSnakeCase(entry.Before))
	if err != nil {
		return fmt.Errorf("序列化变更前快照失败: %w", err)
	}
	afterJSON, err := json.Marshal(naming.MapToSnakeCase(entry.After))
	if err != nil {
		return fmt.Errorf("序列化变更后快照失败: %w", err)
	}

	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO audit_entries (id, restaurant_id, config_version_id, period_id, actor, table_name, action, detail, before, after, occurred_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, entry.ID, entry.RestaurantID, entry.ConfigVersionID, entry.PeriodID, entry.Actor, entry.Table, entry.Action, entry.Detail, beforeJSON, afterJSON, entry.OccurredAt)
		if err != nil {
			return fmt.Errorf("写入审计记录失败: %w", err)
		}
		return nil
	})
}

// ListAuditEntries returns a restaurant's audit trail, before/after blobs
// converted back to camelCase for display at the wire boundary.
func (r *ConfigRepository) ListAuditEntries(ctx context.Context, restaurantID uuid.UUID, limit int) ([]*model.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, restaurant_id, config_version_id, period_id, actor, table_name, action, detail, before, after, occurred_at, created_at
		FROM audit_entries WHERE restaurant_id = $1 ORDER BY occurred_at DESC LIMIT $2
	`, restaurantID, limit)
	if err != nil {
		return nil, fmt.Errorf("查询审计记录失败: %w", err)
	}
	defer rows.Close()

	var out []*model.AuditEntry
	for rows.Next() {
		entry := &model.AuditEntry{}
		var beforeJSON, afterJSON []byte
		if err := rows.Scan(&entry.ID, &entry.RestaurantID, &entry.ConfigVersionID, &entry.PeriodID, &entry.Actor,
			&entry.Table, &entry.Action, &entry.Detail, &beforeJSON, &afterJSON, &entry.OccurredAt, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("扫描审计记录失败: %w", err)
		}
		var before, after model.JSONMap
		_ = json.Unmarshal(beforeJSON, &before)
		_ = json.Unmarshal(afterJSON, &after)
		entry.Before = naming.MapToCamelCase(before)
		entry.After = naming.MapToCamelCase(after)
		out = append(out, entry)
	}
	return out, nil
}
