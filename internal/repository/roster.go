package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shiftsync/core/pkg/model"
)

// Roster composes the staff and configuration repositories into the single
// read used by the operator's reload_config command.
type Roster struct {
	staff  *StaffRepository
	config *ConfigRepository
}

func NewRoster(staff *StaffRepository, config *ConfigRepository) *Roster {
	return &Roster{staff: staff, config: config}
}

// LoadRoster implements internal/operator.StaffSource.
func (r *Roster) LoadRoster(ctx context.Context, restaurantID uuid.UUID) ([]*model.Staff, map[uuid.UUID]*model.StaffGroup, *model.ConfigVersion, error) {
	staff, err := r.staff.ListActive(ctx, restaurantID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("加载在职员工失败: %w", err)
	}
	groups, err := r.staff.ListGroups(ctx, restaurantID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("加载人员组失败: %w", err)
	}
	config, err := r.config.GetActiveConfigVersion(ctx, restaurantID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("加载激活配置版本失败: %w", err)
	}
	return staff, groups, config, nil
}
