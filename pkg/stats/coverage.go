// Package stats 提供排班统计分析：覆盖率与公平性指标，直接建立在
// WORK/OFF/EARLY/LATE 四种符号之上，而非通用的工时区间。
package stats

import "fmt"

// DateSlot 是覆盖率分析中的一个待覆盖日期。
type DateSlot struct {
	Date string `json:"date"`
}

// Assignment 是一次 (员工, 日期, 符号) 分配，由 pkg/report 从
// model.Schedule 翻译而来，使本包不必依赖 pkg/model。
type Assignment struct {
	StaffID string `json:"staff_id"`
	Date    string `json:"date"`
	Symbol  string `json:"symbol"` // WORK/OFF/EARLY/LATE
}

// CoverageMetrics 覆盖率指标
type CoverageMetrics struct {
	TotalDates         int                    `json:"total_dates"`
	TotalStaff         int                    `json:"total_staff"`
	WorkingAssignments int                    `json:"working_assignments"`
	OverallCoverage    float64                `json:"overall_coverage"` // 在岗人次 / (日期数*员工数) * 100
	DailyCoverage      map[string]DayCoverage `json:"daily_coverage"`
	SymbolDistribution map[string]float64     `json:"symbol_distribution"` // 各符号占全部分配的比例
	UnderstaffedDates  []UnderstaffedDate     `json:"understaffed_dates"`
}

// DayCoverage 单日的符号分布
type DayCoverage struct {
	Date         string  `json:"date"`
	Working      int     `json:"working"`
	Off          int     `json:"off"`
	Early        int     `json:"early"`
	Late         int     `json:"late"`
	CoverageRate float64 `json:"coverage_rate"` // Working / TotalStaff * 100
}

// UnderstaffedDate 是在岗人数低于最低需求的日期
type UnderstaffedDate struct {
	Date     string `json:"date"`
	Required int    `json:"required"`
	Working  int    `json:"working"`
	Shortage int    `json:"shortage"`
}

// CoverageAnalyzer 覆盖率分析器
type CoverageAnalyzer struct {
	minWorkingPerDate int // 每日最低在岗人数
}

// NewCoverageAnalyzer 创建覆盖率分析器，默认每日至少 1 人在岗
func NewCoverageAnalyzer() *CoverageAnalyzer {
	return &CoverageAnalyzer{minWorkingPerDate: 1}
}

// SetMinWorkingPerDate 设置每日最低在岗人数需求
func (c *CoverageAnalyzer) SetMinWorkingPerDate(n int) {
	c.minWorkingPerDate = n
}

// Analyze 分析一个排班期内的覆盖率
func (c *CoverageAnalyzer) Analyze(dates []DateSlot, staffCount int, assignments []Assignment) *CoverageMetrics {
	if len(dates) == 0 || staffCount == 0 {
		return &CoverageMetrics{
			DailyCoverage:      make(map[string]DayCoverage),
			SymbolDistribution: make(map[string]float64),
			OverallCoverage:    100,
		}
	}

	byDate := make(map[string]*DayCoverage, len(dates))
	for _, d := range dates {
		byDate[d.Date] = &DayCoverage{Date: d.Date}
	}

	symbolCounts := make(map[string]int)
	for _, a := range assignments {
		day, ok := byDate[a.Date]
		if !ok {
			continue
		}
		symbolCounts[a.Symbol]++
		switch a.Symbol {
		case "WORK":
			day.Working++
		case "OFF":
			day.Off++
		case "EARLY":
			day.Early++
		case "LATE":
			day.Late++
		}
	}

	var understaffed []UnderstaffedDate
	totalWorking := 0
	for _, d := range dates {
		day := byDate[d.Date]
		day.CoverageRate = float64(day.Working) / float64(staffCount) * 100
		totalWorking += day.Working
		if day.Working < c.minWorkingPerDate {
			understaffed = append(understaffed, UnderstaffedDate{
				Date:     d.Date,
				Required: c.minWorkingPerDate,
				Working:  day.Working,
				Shortage: c.minWorkingPerDate - day.Working,
			})
		}
	}

	dailyCoverage := make(map[string]DayCoverage, len(byDate))
	for date, day := range byDate {
		dailyCoverage[date] = *day
	}

	totalSlots := len(dates) * staffCount
	overall := 100.0
	if totalSlots > 0 {
		overall = float64(totalWorking) / float64(totalSlots) * 100
	}

	symbolDist := make(map[string]float64, len(symbolCounts))
	if total := len(assignments); total > 0 {
		for sym, n := range symbolCounts {
			symbolDist[sym] = float64(n) / float64(total) * 100
		}
	}

	return &CoverageMetrics{
		TotalDates:         len(dates),
		TotalStaff:         staffCount,
		WorkingAssignments: totalWorking,
		OverallCoverage:    overall,
		DailyCoverage:      dailyCoverage,
		SymbolDistribution: symbolDist,
		UnderstaffedDates:  understaffed,
	}
}

// GenerateCoverageReport 生成覆盖率报告文本
func (c *CoverageAnalyzer) GenerateCoverageReport(metrics *CoverageMetrics) string {
	report := fmt.Sprintf("=== 覆盖率分析报告 ===\n\n在岗人次: %d\n整体覆盖率: %.1f%%\n",
		metrics.WorkingAssignments, metrics.OverallCoverage)

	if len(metrics.UnderstaffedDates) > 0 {
		report += "\n【人手不足日期】\n"
		for _, d := range metrics.UnderstaffedDates {
			report += fmt.Sprintf("  - %s 需要 %d 人，仅有 %d 人，缺 %d 人\n", d.Date, d.Required, d.Working, d.Shortage)
		}
	}

	return report
}
