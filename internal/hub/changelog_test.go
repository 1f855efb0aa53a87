package hub

import "testing"

func TestChangeLog_SinceWithinWindow(t *testing.T) {
	log := NewChangeLog(4)
	for v := uint64(1); v <= 3; v++ {
		log.Append(Operation{Seq: v, Version: v})
	}

	ops, ok := log.Since(1)
	if !ok {
		t.Fatalf("版本 1 应在窗口内")
	}
	if len(ops) != 2 || ops[0].Version != 2 || ops[1].Version != 3 {
		t.Fatalf("期望回放版本 2、3, got %+v", ops)
	}
}

func TestChangeLog_SinceOutsideWindowFallsBackToSnapshot(t *testing.T) {
	log := NewChangeLog(2)
	for v := uint64(1); v <= 5; v++ {
		log.Append(Operation{Seq: v, Version: v})
	}

	if _, ok := log.Since(1); ok {
		t.Fatalf("版本 1 已被覆盖, 应返回 false 要求全量快照")
	}
	ops, ok := log.Since(3)
	if !ok {
		t.Fatalf("版本 3 应仍在窗口内")
	}
	if len(ops) != 2 {
		t.Fatalf("期望 2 条回放记录, got %d", len(ops))
	}
}

func TestChangeLog_EmptyLogSinceZero(t *testing.T) {
	log := NewChangeLog(4)
	ops, ok := log.Since(0)
	if !ok || ops != nil {
		t.Fatalf("空日志从版本 0 开始应返回空且在窗口内")
	}
}
