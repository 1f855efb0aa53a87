package client

import "testing"

func TestBackoff_NeverExceedsCap(t *testing.T) {
	b := NewBackoff()
	for i := 0; i < 20; i++ {
		d := b.Next()
		if d > DefaultBackoffCap {
			t.Fatalf("第 %d 次退避 %v 超过上限 %v", i, d, DefaultBackoffCap)
		}
		if d < 0 {
			t.Fatalf("退避时长不应为负")
		}
	}
}

func TestBackoff_ResetRestartsFromBase(t *testing.T) {
	b := NewBackoff()
	for i := 0; i < 10; i++ {
		b.Next()
	}
	b.Reset()
	if b.attempt != 0 {
		t.Fatalf("Reset 后计数应归零, got %d", b.attempt)
	}
}
