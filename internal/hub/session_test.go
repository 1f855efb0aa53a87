package hub

import (
	"testing"

	"github.com/google/uuid"
)

func TestSession_EnqueueDropsPastQueueLimit(t *testing.T) {
	sess := NewSession(uuid.New())
	ok := true
	var accepted int
	for i := 0; i < DefaultMaxQueuedMessages+10 && ok; i++ {
		msg, _ := encode(TypeShiftUpdated, "", ShiftUpdatedPayload{Version: uint64(i)})
		ok = sess.Enqueue(msg)
		if ok {
			accepted++
		}
	}
	if ok {
		t.Fatalf("超过 DefaultMaxQueuedMessages 条后应开始拒绝")
	}
	if accepted != DefaultMaxQueuedMessages {
		t.Fatalf("期望恰好接受 %d 条, got %d", DefaultMaxQueuedMessages, accepted)
	}
}

func TestSession_EnqueueOversizedMessageRejected(t *testing.T) {
	sess := NewSession(uuid.New())
	big := make([]CellPayload, 0, 200000)
	for i := 0; i < 200000; i++ {
		big = append(big, CellPayload{StaffID: "x", Date: "2026-08-03", Symbol: "WORK"})
	}
	msg, _ := encode(TypeSyncResponse, "", SyncResponsePayload{Cells: big})
	if sess.Enqueue(msg) {
		t.Fatalf("超过 DefaultMaxQueuedBytes 的消息应被拒绝")
	}
}

func TestSession_CloseIsIdempotent(t *testing.T) {
	sess := NewSession(uuid.New())
	sess.Close()
	sess.Close()
	select {
	case <-sess.Done():
	default:
		t.Fatalf("Close 后 Done 通道应已关闭")
	}
}

func TestSession_CancelGenerateInvokesStoredCancel(t *testing.T) {
	sess := NewSession(uuid.New())
	called := false
	sess.SetGenerateCancel(func() { called = true })
	sess.CancelGenerate()
	if !called {
		t.Fatalf("CancelGenerate 应调用已注册的取消函数")
	}
}
