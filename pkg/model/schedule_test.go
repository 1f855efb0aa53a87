package model

import (
	"testing"

	"github.com/google/uuid"
)

func TestSchedule_SetAndGet(t *testing.T) {
	period := uuid.New()
	staff := uuid.New()
	modifier := uuid.New()
	sched := NewSchedule(period)

	cell := Cell{StaffID: staff, Date: "2026-08-03"}
	if got := sched.Get(cell); got != SymbolUnset {
		t.Fatalf("未赋值单元格应为 SymbolUnset, got %v", got)
	}

	sched.Set(cell, SymbolWork, modifier)
	if got := sched.Get(cell); got != SymbolWork {
		t.Fatalf("期望 SymbolWork, got %v", got)
	}
	if sched.Version != 1 {
		t.Fatalf("期望 version=1, got %d", sched.Version)
	}
	if sched.LastModifier != modifier {
		t.Fatalf("last modifier mismatch")
	}
}

func TestSchedule_SetBulk_SingleVersionBump(t *testing.T) {
	period := uuid.New()
	modifier := uuid.New()
	staffA, staffB := uuid.New(), uuid.New()
	sched := NewSchedule(period)

	updates := map[Cell]Symbol{
		{StaffID: staffA, Date: "2026-08-03"}: SymbolWork,
		{StaffID: staffB, Date: "2026-08-03"}: SymbolOff,
	}
	sched.SetBulk(updates, modifier)

	if sched.Version != 1 {
		t.Fatalf("批量更新应只递增一次版本号, got %d", sched.Version)
	}
	if sched.Get(Cell{StaffID: staffA, Date: "2026-08-03"}) != SymbolWork {
		t.Fatalf("staffA 赋值丢失")
	}
	if sched.Get(Cell{StaffID: staffB, Date: "2026-08-03"}) != SymbolOff {
		t.Fatalf("staffB 赋值丢失")
	}
}

func TestSchedule_SetBulk_EmptyDoesNotBumpVersion(t *testing.T) {
	sched := NewSchedule(uuid.New())
	sched.SetBulk(nil, uuid.New())
	if sched.Version != 0 {
		t.Fatalf("空批量更新不应递增版本号, got %d", sched.Version)
	}
}

func TestSchedule_Clone_IsIndependent(t *testing.T) {
	period := uuid.New()
	staff := uuid.New()
	modifier := uuid.New()
	sched := NewSchedule(period)
	sched.Set(Cell{StaffID: staff, Date: "2026-08-03"}, SymbolWork, modifier)

	clone := sched.Clone()
	clone.Set(Cell{StaffID: staff, Date: "2026-08-04"}, SymbolOff, modifier)

	if sched.Get(Cell{StaffID: staff, Date: "2026-08-04"}) != SymbolUnset {
		t.Fatalf("克隆后的写入不应影响原始排班")
	}
	if clone.Version == sched.Version {
		t.Fatalf("克隆版本号应独立递增")
	}
}

func TestSchedule_Cells_StableOrder(t *testing.T) {
	period := uuid.New()
	staffA, staffB := uuid.New(), uuid.New()
	sched := NewSchedule(period)
	sched.Set(Cell{StaffID: staffB, Date: "2026-08-05"}, SymbolWork, uuid.New())
	sched.Set(Cell{StaffID: staffA, Date: "2026-08-04"}, SymbolOff, uuid.New())

	cells := sched.Cells()
	if len(cells) != 2 {
		t.Fatalf("期望 2 个单元格, got %d", len(cells))
	}
	if cells[0].Date != "2026-08-04" {
		t.Fatalf("期望按日期排序, got %s", cells[0].Date)
	}
}

func TestSymbol_StringRoundTrip(t *testing.T) {
	for _, sym := range append([]Symbol{SymbolUnset}, AllSymbols...) {
		s := sym.String()
		parsed, ok := ParseSymbol(s)
		if !ok {
			t.Fatalf("ParseSymbol(%q) failed", s)
		}
		if parsed != sym {
			t.Fatalf("round-trip mismatch: %v -> %q -> %v", sym, s, parsed)
		}
	}
}

func TestSymbol_IsWorking(t *testing.T) {
	cases := map[Symbol]bool{
		SymbolWork:  true,
		SymbolEarly: true,
		SymbolLate:  true,
		SymbolOff:   false,
		SymbolUnset: false,
	}
	for sym, want := range cases {
		if got := sym.IsWorking(); got != want {
			t.Fatalf("%v.IsWorking() = %v, want %v", sym, got, want)
		}
	}
}
