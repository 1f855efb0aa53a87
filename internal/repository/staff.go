package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shiftsync/core/pkg/model"
)

// StaffRepository is the persistence adapter's ListStaff/UpsertStaff surface
// (spec.md §4.3).
type StaffRepository struct {
	db DB
}

func NewStaffRepository(db DB) *StaffRepository {
	return &StaffRepository{db: db}
}

// Upsert implements UpsertStaff: insert on a new ID, update in place otherwise.
func (r *StaffRepository) Upsert(ctx context.Context, s *model.Staff) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
		s.CreatedAt = time.Now()
	}
	s.UpdatedAt = time.Now()

	groupsJSON, err := json.Marshal(s.GroupIDs)
	if err != nil {
		return fmt.Errorf("序列化group_ids失败: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO staff (id, restaurant_id, name, code, role, is_active, group_ids, prefers_early_shift, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, code = EXCLUDED.code, role = EXCLUDED.role,
			is_active = EXCLUDED.is_active, group_ids = EXCLUDED.group_ids,
			prefers_early_shift = EXCLUDED.prefers_early_shift, updated_at = EXCLUDED.updated_at
	`, s.ID, s.RestaurantID, s.Name, s.Code, s.Role, s.IsActive, groupsJSON, s.PrefersEarlyShift, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("写入员工失败: %w", err)
	}
	return nil
}

func (r *StaffRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Staff, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, restaurant_id, name, code, role, is_active, group_ids, prefers_early_shift, created_at, updated_at
		FROM staff WHERE id = $1 AND deleted_at IS NULL
	`, id)
	return scanStaff(row)
}

// ListStaff implements the Persistence Adapter's ListStaff operation.
func (r *StaffRepository) ListStaff(ctx context.Context, filter ListFilter) ([]*model.Staff, int, error) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	conditions = append(conditions, "deleted_at IS NULL")
	if filter.RestaurantID != nil {
		conditions = append(conditions, fmt.Sprintf("restaurant_id = $%d", argIndex))
		args = append(args, *filter.RestaurantID)
		argIndex++
	}
	if filter.Status == "active" {
		conditions = append(conditions, "is_active = true")
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR code ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+filter.Search+"%")
		argIndex++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM staff WHERE %s", whereClause)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("查询总数失败: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 10000
	}
	query := fmt.Sprintf(`
		SELECT id, restaurant_id, name, code, role, is_active, group_ids, prefers_early_shift, created_at, updated_at
		FROM staff WHERE %s ORDER BY created_at ASC LIMIT $%d OFFSET $%d
	`, whereClause, argIndex, argIndex+1)
	args = append(args, limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询员工列表失败: %w", err)
	}
	defer rows.Close()

	var out []*model.Staff
	for rows.Next() {
		s, err := scanStaffRow(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, nil
}

// ListActive returns every currently-active staff member for a restaurant.
func (r *StaffRepository) ListActive(ctx context.Context, restaurantID uuid.UUID) ([]*model.Staff, error) {
	filter := DefaultListFilter().WithRestaurantID(restaurantID).WithStatus("active").WithLimit(10000)
	staff, _, err := r.ListStaff(ctx, filter)
	return staff, err
}

// ListGroups returns every staff-group cohort for a restaurant, keyed by ID
// for the optimizer's staff-group constraint lookups.
func (r *StaffRepository) ListGroups(ctx context.Context, restaurantID uuid.UUID) (map[uuid.UUID]*model.StaffGroup, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, restaurant_id, name, member_ids, created_at, updated_at
		FROM staff_groups WHERE restaurant_id = $1 AND deleted_at IS NULL
	`, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("查询人员组失败: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]*model.StaffGroup)
	for rows.Next() {
		g := &model.StaffGroup{}
		var membersJSON []byte
		if err := rows.Scan(&g.ID, &g.RestaurantID, &g.Name, &membersJSON, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("扫描人员组失败: %w", err)
		}
		json.Unmarshal(membersJSON, &g.MemberIDs)
		out[g.ID] = g
	}
	return out, nil
}

func scanStaff(row *sql.Row) (*model.Staff, error) {
	s := &model.Staff{}
	var groupsJSON []byte
	err := row.Scan(&s.ID, &s.RestaurantID, &s.Name, &s.Code, &s.Role, &s.IsActive, &groupsJSON, &s.PrefersEarlyShift, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("扫描员工数据失败: %w", err)
	}
	json.Unmarshal(groupsJSON, &s.GroupIDs)
	return s, nil
}

func scanStaffRow(rows *sql.Rows) (*model.Staff, error) {
	s := &model.Staff{}
	var groupsJSON []byte
	if err := rows.Scan(&s.ID, &s.RestaurantID, &s.Name, &s.Code, &s.Role, &s.IsActive, &groupsJSON, &s.PrefersEarlyShift, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, fmt.Errorf("扫描员工数据失败: %w", err)
	}
	json.Unmarshal(groupsJSON, &s.GroupIDs)
	return s, nil
}
