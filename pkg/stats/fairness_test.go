package stats

import "testing"

func TestFairnessAnalyzer_Analyze(t *testing.T) {
	analyzer := NewFairnessAnalyzer()

	staff := []*StaffInfo{
		{ID: "emp1", Name: "员工1"},
		{ID: "emp2", Name: "员工2"},
	}

	assignments := []Assignment{
		{StaffID: "emp1", Date: "2026-01-11", Symbol: "OFF"},
		{StaffID: "emp1", Date: "2026-01-12", Symbol: "OFF"},
		{StaffID: "emp2", Date: "2026-01-11", Symbol: "WORK"},
	}

	metrics := analyzer.Analyze(assignments, staff)

	if metrics == nil {
		t.Fatal("metrics 不应为 nil")
	}

	if metrics.OffDaysGini < 0 || metrics.OffDaysGini > 1 {
		t.Errorf("基尼系数应在 0-1 之间, got %f", metrics.OffDaysGini)
	}

	if len(metrics.StaffStats) != 2 {
		t.Errorf("期望 2 条员工统计, got %d", len(metrics.StaffStats))
	}
}

func TestFairnessAnalyzer_EmptyInput(t *testing.T) {
	analyzer := NewFairnessAnalyzer()

	metrics := analyzer.Analyze(nil, nil)

	if metrics == nil {
		t.Fatal("空输入也应返回 metrics")
	}
}

func TestFairnessAnalyzer_PerfectFairness(t *testing.T) {
	analyzer := NewFairnessAnalyzer()

	staff := []*StaffInfo{
		{ID: "emp1", Name: "员工1"},
		{ID: "emp2", Name: "员工2"},
	}

	assignments := []Assignment{
		{StaffID: "emp1", Date: "2026-01-11", Symbol: "OFF"},
		{StaffID: "emp2", Date: "2026-01-11", Symbol: "OFF"},
	}

	metrics := analyzer.Analyze(assignments, staff)

	if metrics.OffDaysGini > 0.01 {
		t.Errorf("完全相同的休息日数量应有接近 0 的基尼系数, got %f", metrics.OffDaysGini)
	}
}

func TestFairnessAnalyzer_OverallScore(t *testing.T) {
	analyzer := NewFairnessAnalyzer()

	staff := []*StaffInfo{{ID: "emp1", Name: "员工1"}}
	assignments := []Assignment{{StaffID: "emp1", Date: "2026-01-11", Symbol: "OFF"}}

	metrics := analyzer.Analyze(assignments, staff)

	if metrics.OverallFairnessScore < 0 || metrics.OverallFairnessScore > 100 {
		t.Errorf("分数应在 0-100 之间, got %f", metrics.OverallFairnessScore)
	}
}
