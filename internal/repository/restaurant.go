// Package repository provides the persistence adapter's data access layer.
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

// RestaurantRepository persists the tenancy boundary every other table scopes to.
type RestaurantRepository struct {
	db DB
}

func NewRestaurantRepository(db DB) *RestaurantRepository {
	return &RestaurantRepository{db: db}
}

func (r *RestaurantRepository) Create(ctx context.Context, rest *model.Restaurant) error {
	if rest.ID == uuid.Nil {
		rest.ID = uuid.New()
	}
	now := time.Now()
	rest.CreatedAt, rest.UpdatedAt = now, now

	settingsJSON, err := json.Marshal(rest.Settings)
	if err != nil {
		return fmt.Errorf("序列化settings失败: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO restaurants (id, name, code, settings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rest.ID, rest.Name, rest.Code, settingsJSON, rest.CreatedAt, rest.UpdatedAt)
	if err != nil {
		return fmt.Errorf("创建餐厅失败: %w", err)
	}
	return nil
}

func (r *RestaurantRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Restaurant, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, code, settings, created_at, updated_at
		FROM restaurants WHERE id = $1 AND deleted_at IS NULL
	`, id)
	return scanRestaurant(row)
}

func (r *RestaurantRepository) Update(ctx context.Context, rest *model.Restaurant) error {
	rest.UpdatedAt = time.Now()
	settingsJSON, err := json.Marshal(rest.Settings)
	if err != nil {
		return fmt.Errorf("序列化settings失败: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE restaurants SET name = $2, code = $3, settings = $4, updated_at = $5
		WHERE id = $1 AND deleted_at IS NULL
	`, rest.ID, rest.Name, rest.Code, settingsJSON, rest.UpdatedAt)
	if err != nil {
		return fmt.Errorf("更新餐厅失败: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("餐厅不存在")
	}
	return nil
}

func (r *RestaurantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE restaurants SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`,
		id, time.Now())
	if err != nil {
		return fmt.Errorf("删除餐厅失败: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("餐厅不存在")
	}
	return nil
}

func (r *RestaurantRepository) List(ctx context.Context, filter ListFilter) ([]*model.Restaurant, int, error) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	conditions = append(conditions, "deleted_at IS NULL")
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR code ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+filter.Search+"%")
		argIndex++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM restaurants WHERE %s", whereClause)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("查询总数失败: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, name, code, settings, created_at, updated_at
		FROM restaurants WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d
	`, whereClause, argIndex, argIndex+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询列表失败: %w", err)
	}
	defer rows.Close()

	var out []*model.Restaurant
	for rows.Next() {
		rest, err := scanRestaurantRow(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rest)
	}
	return out, total, nil
}

func scanRestaurant(row *sql.Row) (*model.Restaurant, error) {
	rest := &model.Restaurant{}
	var settingsJSON []byte
	err := row.Scan(&rest.ID, &rest.Name, &rest.Code, &settingsJSON, &rest.CreatedAt, &rest.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("扫描餐厅数据失败: %w", err)
	}
	json.Unmarshal(settingsJSON, &rest.Settings)
	return rest, nil
}

func scanRestaurantRow(rows *sql.Rows) (*model.Restaurant, error) {
	rest := &model.Restaurant{}
	var settingsJSON []byte
	if err := rows.Scan(&rest.ID, &rest.Name, &rest.Code, &settingsJSON, &rest.CreatedAt, &rest.UpdatedAt); err != nil {
		return nil, fmt.Errorf("扫描餐厅数据失败: %w", err)
	}
	json.Unmarshal(settingsJSON, &rest.Settings)
	return rest, nil
}
