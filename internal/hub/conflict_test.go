package hub

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shiftsync/core/pkg/model"
)

func TestResolve_LastWriterWinsAlwaysAccepts(t *testing.T) {
	log := NewChangeLog(8)
	cell := model.Cell{StaffID: uuid.New(), Date: "2026-08-03"}
	d := resolve(PolicyLastWriterWins, 5, 1, []model.Cell{cell}, log)
	if !d.accept {
		t.Fatalf("last-writer-wins 应始终接受")
	}
}

func TestResolve_FirstWriterWinsRejectsStaleBase(t *testing.T) {
	log := NewChangeLog(8)
	cell := model.Cell{StaffID: uuid.New(), Date: "2026-08-03"}
	d := resolve(PolicyFirstWriterWins, 5, 1, []model.Cell{cell}, log)
	if d.accept {
		t.Fatalf("first-writer-wins 应拒绝过期 base_version")
	}
}

func TestResolve_FirstWriterWinsAcceptsCurrentBase(t *testing.T) {
	log := NewChangeLog(8)
	cell := model.Cell{StaffID: uuid.New(), Date: "2026-08-03"}
	d := resolve(PolicyFirstWriterWins, 5, 5, []model.Cell{cell}, log)
	if !d.accept {
		t.Fatalf("base_version 与当前版本相等时应接受")
	}
}

func TestResolve_MergeAcceptsDisjointCells(t *testing.T) {
	staffA := uuid.New()
	staffB := uuid.New()
	log := NewChangeLog(8)
	log.Append(Operation{Seq: 1, Version: 2, Cells: []CellPayload{{StaffID: staffA.String(), Date: "2026-08-03"}}})

	incoming := model.Cell{StaffID: staffB, Date: "2026-08-03"}
	d := resolve(PolicyMerge, 2, 1, []model.Cell{incoming}, log)
	if !d.accept {
		t.Fatalf("不相交的单元格应被合并接受")
	}
}

func TestResolve_MergeRejectsOverlappingCells(t *testing.T) {
	staffA := uuid.New()
	log := NewChangeLog(8)
	log.Append(Operation{Seq: 1, Version: 2, Cells: []CellPayload{{StaffID: staffA.String(), Date: "2026-08-03"}}})

	incoming := model.Cell{StaffID: staffA, Date: "2026-08-03"}
	d := resolve(PolicyMerge, 2, 1, []model.Cell{incoming}, log)
	if d.accept {
		t.Fatalf("重叠的单元格应被合并拒绝")
	}
	if len(d.conflicting) != 1 {
		t.Fatalf("期望 1 个冲突单元格, got %d", len(d.conflicting))
	}
}

func TestResolve_MergeOutsideWindowRejectsConservatively(t *testing.T) {
	staffA := uuid.New()
	log := NewChangeLog(1)
	log.Append(Operation{Seq: 1, Version: 2})
	log.Append(Operation{Seq: 2, Version: 3}) // overwrites the only slot

	incoming := model.Cell{StaffID: staffA, Date: "2026-08-03"}
	d := resolve(PolicyMerge, 3, 1, []model.Cell{incoming}, log)
	if d.accept {
		t.Fatalf("base_version 超出窗口时应保守拒绝")
	}
}

func TestParsePolicy(t *testing.T) {
	cases := map[string]bool{"last": true, "first": true, "merge": true, "bogus": false}
	for in, want := range cases {
		_, ok := ParsePolicy(in)
		if ok != want {
			t.Fatalf("ParsePolicy(%q) ok=%v, want %v", in, ok, want)
		}
	}
}
