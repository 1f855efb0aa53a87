package optimizer

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shiftsync/core/pkg/model"
)

func staffFixture(n int) []*model.Staff {
	staff := make([]*model.Staff, n)
	for i := 0; i < n; i++ {
		staff[i] = &model.Staff{
			BaseModel: model.NewBaseModel(),
			Name:      "staff",
			IsActive:  true,
		}
	}
	return staff
}

func TestOptimize_ProducesFeasibleSolution(t *testing.T) {
	staff := staffFixture(5)
	problem := &Problem{
		PeriodID: uuid.New(),
		Dates:    []string{"2026-08-03", "2026-08-04", "2026-08-05"},
		Staff:    staff,
		Groups:   map[uuid.UUID]*model.StaffGroup{},
		Config:   &model.ConfigVersion{},
		Budget:   2 * time.Second,
	}

	sched, failure := Optimize(context.Background(), problem, DefaultWeights())
	if failure != nil {
		t.Fatalf("期望求解成功, got failure: %v", failure)
	}
	if violations := Violations(problem, sched); len(violations) != 0 {
		t.Fatalf("期望零硬约束违反, got %d: %+v", len(violations), violations[0])
	}
}

func TestOptimize_RejectsEmptyStaff(t *testing.T) {
	problem := &Problem{
		PeriodID: uuid.New(),
		Dates:    []string{"2026-08-03"},
		Staff:    nil,
		Config:   &model.ConfigVersion{},
	}
	_, failure := Optimize(context.Background(), problem, DefaultWeights())
	if failure == nil || failure.Reason != FailureInvalidInput {
		t.Fatalf("期望 invalid_input 失败, got %+v", failure)
	}
}

func TestOptimize_RejectsMissingConfig(t *testing.T) {
	problem := &Problem{
		PeriodID: uuid.New(),
		Dates:    []string{"2026-08-03"},
		Staff:    staffFixture(1),
	}
	_, failure := Optimize(context.Background(), problem, DefaultWeights())
	if failure == nil || failure.Reason != FailureInvalidInput {
		t.Fatalf("期望 invalid_input 失败, got %+v", failure)
	}
}

func TestOptimize_IsDeterministic(t *testing.T) {
	staff := staffFixture(6)
	dates := []string{"2026-08-03", "2026-08-04", "2026-08-05", "2026-08-06"}
	config := &model.ConfigVersion{
		DailyLimitRules: []model.DailyLimitRule{
			{Symbol: model.SymbolWork, Min: 2, Max: 4, Weight: model.DefaultWeights.DailyLimit},
		},
	}

	run := func() *model.Schedule {
		problem := &Problem{
			PeriodID: uuid.New(),
			Dates:    append([]string(nil), dates...),
			Staff:    staff,
			Groups:   map[uuid.UUID]*model.StaffGroup{},
			Config:   config,
			Budget:   2 * time.Second,
		}
		sched, failure := Optimize(context.Background(), problem, DefaultWeights())
		if failure != nil {
			t.Fatalf("求解失败: %v", failure)
		}
		return sched
	}

	first := run()
	second := run()

	firstCells := first.Cells()
	secondCells := second.Cells()
	if len(firstCells) != len(secondCells) {
		t.Fatalf("两次求解单元格数量不一致")
	}
	for i := range firstCells {
		if firstCells[i].Cell != secondCells[i].Cell || firstCells[i].Symbol != secondCells[i].Symbol {
			t.Fatalf("两次求解结果不一致于第 %d 个单元格: %+v vs %+v", i, firstCells[i], secondCells[i])
		}
	}
}

func TestConstruct_RespectsCalendarMustDayOff(t *testing.T) {
	staff := staffFixture(3)
	problem := &Problem{
		PeriodID: uuid.New(),
		Dates:    []string{"2026-08-03", "2026-12-25"},
		Staff:    staff,
		Groups:   map[uuid.UUID]*model.StaffGroup{},
		Config: &model.ConfigVersion{
			CalendarRules: []model.CalendarRule{
				{Date: "2026-12-25", Kind: model.CalendarMustDayOff},
			},
		},
	}
	vars := NewVariables(problem.Staff, problem.Dates)
	sched, err := construct(context.Background(), problem, vars)
	if err != nil {
		t.Fatalf("构造失败: %v", err)
	}
	for _, s := range staff {
		if got := sched.Get(model.Cell{StaffID: s.ID, Date: "2026-12-25"}); got != model.SymbolOff {
			t.Fatalf("节假日应强制 OFF, got %v", got)
		}
	}
}

func TestConstruct_EarlyPreferenceOverridesMustDayOff(t *testing.T) {
	staff := staffFixture(3)
	s1 := staff[0]
	problem := &Problem{
		PeriodID: uuid.New(),
		Dates:    []string{"2026-08-03", "2026-08-04", "2026-08-05"},
		Staff:    staff,
		Groups:   map[uuid.UUID]*model.StaffGroup{},
		Config: &model.ConfigVersion{
			CalendarRules: []model.CalendarRule{
				{Date: "2026-08-04", Kind: model.CalendarMustDayOff},
			},
			EarlyPreferenceRules: []model.EarlyPreferenceRule{
				{StaffID: s1.ID, Date: "2026-08-04"},
			},
		},
	}
	vars := NewVariables(problem.Staff, problem.Dates)
	sched, err := construct(context.Background(), problem, vars)
	if err != nil {
		t.Fatalf("构造失败: %v", err)
	}
	if got := sched.Get(model.Cell{StaffID: s1.ID, Date: "2026-08-04"}); got != model.SymbolEarly {
		t.Fatalf("有早班偏好的员工应被分配 EARLY, got %v", got)
	}
	for _, s := range staff[1:] {
		if got := sched.Get(model.Cell{StaffID: s.ID, Date: "2026-08-04"}); got != model.SymbolOff {
			t.Fatalf("无早班偏好的员工应被分配 OFF, got %v", got)
		}
	}
}

func TestCheckMaxConsecutiveWork_FlagsRestFreeWindow(t *testing.T) {
	staff := staffFixture(1)
	dates := []string{"2026-08-01", "2026-08-02", "2026-08-03", "2026-08-04", "2026-08-05", "2026-08-06"}
	sched := model.NewSchedule(uuid.New())
	for _, d := range dates {
		sched.Set(model.Cell{StaffID: staff[0].ID, Date: d}, model.SymbolWork, uuid.Nil)
	}
	problem := &Problem{PeriodID: uuid.New(), Dates: dates, Staff: staff, Config: &model.ConfigVersion{}}
	violations := checkMaxConsecutiveWork(problem, sched, dates)
	if len(violations) == 0 {
		t.Fatalf("连续 6 天无休息应报告违反")
	}
}

func TestCheckAdjacentConflict_ForbidsConsecutiveOff(t *testing.T) {
	staff := staffFixture(1)
	dates := []string{"2026-08-01", "2026-08-02"}
	sched := model.NewSchedule(uuid.New())
	sched.Set(model.Cell{StaffID: staff[0].ID, Date: dates[0]}, model.SymbolOff, uuid.Nil)
	sched.Set(model.Cell{StaffID: staff[0].ID, Date: dates[1]}, model.SymbolOff, uuid.Nil)
	problem := &Problem{PeriodID: uuid.New(), Dates: dates, Staff: staff, Config: &model.ConfigVersion{}}
	if violations := checkAdjacentConflict(problem, sched, dates); len(violations) == 0 {
		t.Fatalf("连续两天 OFF 应报告违反")
	}
}

func TestCheckAdjacentConflict_PermitsConsecutiveEarly(t *testing.T) {
	staff := staffFixture(1)
	dates := []string{"2026-08-01", "2026-08-02"}
	sched := model.NewSchedule(uuid.New())
	sched.Set(model.Cell{StaffID: staff[0].ID, Date: dates[0]}, model.SymbolEarly, uuid.Nil)
	sched.Set(model.Cell{StaffID: staff[0].ID, Date: dates[1]}, model.SymbolEarly, uuid.Nil)
	problem := &Problem{PeriodID: uuid.New(), Dates: dates, Staff: staff, Config: &model.ConfigVersion{}}
	if violations := checkAdjacentConflict(problem, sched, dates); len(violations) != 0 {
		t.Fatalf("连续两天 EARLY 应被允许, got %+v", violations)
	}
}
