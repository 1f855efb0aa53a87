package hub

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shiftsync/core/pkg/model"
	"github.com/shiftsync/core/pkg/optimizer"
)

// memStore is an in-memory Store double, used so hub tests never touch a
// real database.
type memStore struct {
	mu   sync.Mutex
	data map[uuid.UUID]*model.Schedule
	fail bool
}

func newMemStore() *memStore { return &memStore{data: make(map[uuid.UUID]*model.Schedule)} }

func (m *memStore) LoadPeriod(_ context.Context, periodID uuid.UUID) (*model.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.data[periodID]; ok {
		return s.Clone(), nil
	}
	return model.NewSchedule(periodID), nil
}

func (m *memStore) SavePeriod(_ context.Context, sched *model.Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errTestPersist
	}
	m.data[sched.PeriodID] = sched.Clone()
	return nil
}

var errTestPersist = &testError{"模拟持久化失败"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }

func newTestHub(t *testing.T, store Store) *PeriodHub {
	t.Helper()
	periodID := uuid.New()
	h := NewPeriodHub(periodID, store, optimizer.NewPool(2), zerolog.Nop(), PolicyLastWriterWins, 16, EncodingTag)
	if err := h.Start(context.Background()); err != nil {
		t.Fatalf("启动周期失败: %v", err)
	}
	return h
}

func TestPeriodHub_AttachReturnsSnapshot(t *testing.T) {
	h := newTestHub(t, newMemStore())
	sess := NewSession(h.PeriodID)
	msg := h.Attach(sess)
	if msg.Type != TypeSyncResponse {
		t.Fatalf("期望 SYNC_RESPONSE, got %s", msg.Type)
	}
}

func TestPeriodHub_ShiftUpdateAcceptedAndBroadcast(t *testing.T) {
	h := newTestHub(t, newMemStore())
	sess := NewSession(h.PeriodID)
	h.Attach(sess)

	staffID := uuid.New()
	result := h.HandleShiftUpdate(context.Background(), uuid.New(), ShiftUpdatePayload{
		StaffID: staffID.String(), Date: "2026-08-03", Symbol: "WORK", BaseVersion: 0,
	})
	if !result.accepted {
		t.Fatalf("期望接受更新, got %+v", result)
	}
	if result.version != 1 {
		t.Fatalf("期望版本递增到 1, got %d", result.version)
	}

	select {
	case ob := <-sess.Outbound():
		if ob.msg.Type != TypeShiftUpdated {
			t.Fatalf("期望收到 SHIFT_UPDATED 广播, got %s", ob.msg.Type)
		}
	case <-time.After(time.Second):
		t.Fatalf("未收到广播消息")
	}
}

func TestPeriodHub_FirstWriterWinsRejectsStaleUpdate(t *testing.T) {
	store := newMemStore()
	periodID := uuid.New()
	h := NewPeriodHub(periodID, store, optimizer.NewPool(2), zerolog.Nop(), PolicyFirstWriterWins, 16, EncodingTag)
	if err := h.Start(context.Background()); err != nil {
		t.Fatalf("启动周期失败: %v", err)
	}

	staffID := uuid.New()
	first := h.HandleShiftUpdate(context.Background(), uuid.New(), ShiftUpdatePayload{
		StaffID: staffID.String(), Date: "2026-08-03", Symbol: "WORK", BaseVersion: 0,
	})
	if !first.accepted {
		t.Fatalf("首次更新应被接受")
	}

	second := h.HandleShiftUpdate(context.Background(), uuid.New(), ShiftUpdatePayload{
		StaffID: staffID.String(), Date: "2026-08-04", Symbol: "OFF", BaseVersion: 0,
	})
	if second.accepted {
		t.Fatalf("base_version 过期时 first-writer-wins 应拒绝")
	}
	if second.version != first.version {
		t.Fatalf("拒绝响应应携带当前版本")
	}
}

func TestPeriodHub_PersistFailureTripsReadOnly(t *testing.T) {
	store := newMemStore()
	store.fail = true
	h := newTestHub(t, store)

	staffID := uuid.New()
	for i := 0; i < persistFailureThreshold; i++ {
		h.HandleShiftUpdate(context.Background(), uuid.New(), ShiftUpdatePayload{
			StaffID: staffID.String(), Date: "2026-08-03", Symbol: "WORK", BaseVersion: 0,
		})
	}
	if !h.IsReadOnly() {
		t.Fatalf("连续持久化失败后周期应进入只读模式")
	}

	result := h.HandleShiftUpdate(context.Background(), uuid.New(), ShiftUpdatePayload{
		StaffID: staffID.String(), Date: "2026-08-05", Symbol: "WORK", BaseVersion: 0,
	})
	if result.err == nil {
		t.Fatalf("只读模式下应拒绝新的更新")
	}
}

func TestPeriodHub_InvalidSymbolRejected(t *testing.T) {
	h := newTestHub(t, newMemStore())
	result := h.HandleShiftUpdate(context.Background(), uuid.New(), ShiftUpdatePayload{
		StaffID: uuid.New().String(), Date: "2026-08-03", Symbol: "BOGUS", BaseVersion: 0,
	})
	if result.err == nil {
		t.Fatalf("非法符号应被拒绝")
	}
}
