// Package stats 提供排班统计分析功能
package stats

import (
	"math"
	"sort"
)

// StaffInfo 参与公平性分析的员工
type StaffInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FairnessMetrics 公平性指标，围绕休息日与早班两个轴计算，对应月度上下限
// 与早班优先两类软约束实际影响到的员工体验，而非通用的工时均衡。
type FairnessMetrics struct {
	OffDaysGini          float64     `json:"off_days_gini"`     // 休息日分配基尼系数
	EarlyShiftsGini      float64     `json:"early_shifts_gini"` // 早班分配基尼系数
	AvgOffDays           float64     `json:"avg_off_days"`
	MaxOffDays           int         `json:"max_off_days"`
	MinOffDays           int         `json:"min_off_days"`
	OffDaysRange         int         `json:"off_days_range"`
	StaffStats           []StaffStat `json:"staff_stats"`
	OverallFairnessScore float64     `json:"overall_fairness_score"`
}

// StaffStat 单个员工在排班期内的统计
type StaffStat struct {
	StaffID     string  `json:"staff_id"`
	StaffName   string  `json:"staff_name"`
	WorkDays    int     `json:"work_days"`
	OffDays     int     `json:"off_days"`
	EarlyShifts int     `json:"early_shifts"`
	LateShifts  int     `json:"late_shifts"`
	Deviation   float64 `json:"deviation"` // 休息日数量与平均值的偏差百分比
}

// FairnessAnalyzer 公平性分析器
type FairnessAnalyzer struct{}

// NewFairnessAnalyzer 创建公平性分析器
func NewFairnessAnalyzer() *FairnessAnalyzer {
	return &FairnessAnalyzer{}
}

// Analyze 分析一个排班期内各员工的休息日与早班分布是否均衡
func (f *FairnessAnalyzer) Analyze(assignments []Assignment, staff []*StaffInfo) *FairnessMetrics {
	if len(assignments) == 0 || len(staff) == 0 {
		return &FairnessMetrics{OverallFairnessScore: 100}
	}

	staffMap := make(map[string]*StaffInfo, len(staff))
	for _, s := range staff {
		staffMap[s.ID] = s
	}

	staffStats := f.calculateStaffStats(assignments, staffMap)

	offDays := make([]float64, len(staffStats))
	earlyShifts := make([]float64, len(staffStats))
	for i, s := range staffStats {
		offDays[i] = float64(s.OffDays)
		earlyShifts[i] = float64(s.EarlyShifts)
	}

	avgOff := f.calculateMean(offDays)
	maxOff, minOff := f.calculateRange(offDays)

	for i := range staffStats {
		if avgOff > 0 {
			staffStats[i].Deviation = (float64(staffStats[i].OffDays) - avgOff) / avgOff * 100
		}
	}

	offGini := f.calculateGini(offDays)
	earlyGini := f.calculateGini(earlyShifts)
	overallScore := f.calculateOverallScore(offGini, earlyGini)

	return &FairnessMetrics{
		OffDaysGini:          offGini,
		EarlyShiftsGini:      earlyGini,
		AvgOffDays:           avgOff,
		MaxOffDays:           int(maxOff),
		MinOffDays:           int(minOff),
		OffDaysRange:         int(maxOff - minOff),
		StaffStats:           staffStats,
		OverallFairnessScore: overallScore,
	}
}

// calculateStaffStats 统计每个员工的休息日/早班/晚班次数
func (f *FairnessAnalyzer) calculateStaffStats(assignments []Assignment, staffMap map[string]*StaffInfo) []StaffStat {
	statMap := make(map[string]*StaffStat)

	for _, a := range assignments {
		stat, exists := statMap[a.StaffID]
		if !exists {
			name := a.StaffID
			if s, ok := staffMap[a.StaffID]; ok {
				name = s.Name
			}
			stat = &StaffStat{StaffID: a.StaffID, StaffName: name}
			statMap[a.StaffID] = stat
		}

		switch a.Symbol {
		case "OFF":
			stat.OffDays++
		case "EARLY":
			stat.EarlyShifts++
			stat.WorkDays++
		case "LATE":
			stat.LateShifts++
			stat.WorkDays++
		case "WORK":
			stat.WorkDays++
		}
	}

	result := make([]StaffStat, 0, len(statMap))
	for _, stat := range statMap {
		result = append(result, *stat)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].OffDays > result[j].OffDays
	})

	return result
}

func (f *FairnessAnalyzer) calculateMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func (f *FairnessAnalyzer) calculateRange(values []float64) (max, min float64) {
	if len(values) == 0 {
		return 0, 0
	}
	max, min = values[0], values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return
}

// calculateGini 计算基尼系数，衡量 values 在员工间的分布均衡程度，0 为完全
// 平均，1 为完全集中。
func (f *FairnessAnalyzer) calculateGini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	if sum == 0 {
		return 0
	}

	gini := 0.0
	for i, v := range sorted {
		gini += (2*float64(i+1) - float64(n) - 1) * v
	}

	gini = gini / (float64(n) * sum)
	return math.Max(0, math.Min(1, gini))
}

// calculateOverallScore 将休息日与早班两个基尼系数合成一个 0-100 分数。早班
// 权重略低，因为员工可以主动申报早班偏好，差异本身不完全代表不公平。
func (f *FairnessAnalyzer) calculateOverallScore(offGini, earlyGini float64) float64 {
	const (
		offWeight   = 0.7
		earlyWeight = 0.3
	)
	score := offWeight*(1-offGini)*100 + earlyWeight*(1-earlyGini)*100
	return math.Max(0, math.Min(100, score))
}

// CompareSchedules 比较两个排班方案的公平性
func (f *FairnessAnalyzer) CompareSchedules(before, after []Assignment, staff []*StaffInfo) map[string]float64 {
	metrics1 := f.Analyze(before, staff)
	metrics2 := f.Analyze(after, staff)

	return map[string]float64{
		"off_days_gini_diff":      metrics2.OffDaysGini - metrics1.OffDaysGini,
		"early_shifts_gini_diff":  metrics2.EarlyShiftsGini - metrics1.EarlyShiftsGini,
		"overall_score_diff":      metrics2.OverallFairnessScore - metrics1.OverallFairnessScore,
		"before_overall_score":    metrics1.OverallFairnessScore,
		"after_overall_score":     metrics2.OverallFairnessScore,
	}
}
