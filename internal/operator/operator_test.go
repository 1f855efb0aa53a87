package operator

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shiftsync/core/internal/hub"
	"github.com/shiftsync/core/pkg/model"
	"github.com/shiftsync/core/pkg/optimizer"
)

// memStore is an in-memory hub.Store double, mirrors internal/hub's own
// test double so operator tests never touch a real database.
type memStore struct{ data map[uuid.UUID]*model.Schedule }

func newMemStore() *memStore { return &memStore{data: make(map[uuid.UUID]*model.Schedule)} }

func (m *memStore) LoadPeriod(_ context.Context, periodID uuid.UUID) (*model.Schedule, error) {
	if s, ok := m.data[periodID]; ok {
		return s, nil
	}
	return model.NewSchedule(periodID), nil
}

func (m *memStore) SavePeriod(_ context.Context, sched *model.Schedule) error {
	m.data[sched.PeriodID] = sched
	return nil
}

type fakeStaffSource struct {
	staff  []*model.Staff
	groups map[uuid.UUID]*model.StaffGroup
	config *model.ConfigVersion
	err    error
}

func (f *fakeStaffSource) LoadRoster(_ context.Context, _ uuid.UUID) ([]*model.Staff, map[uuid.UUID]*model.StaffGroup, *model.ConfigVersion, error) {
	return f.staff, f.groups, f.config, f.err
}

func newTestHandlers() (*Handlers, *hub.Manager, *fakeStaffSource) {
	manager := hub.NewManager(newMemStore(), optimizer.NewPool(2), zerolog.Nop(), hub.PolicyLastWriterWins, 16, hub.EncodingTag)
	staff := &fakeStaffSource{}
	return NewHandlers(manager, staff, zerolog.Nop()), manager, staff
}

func TestHandlers_Health(t *testing.T) {
	h, manager, _ := newTestHandlers()
	mux := http.NewServeMux()
	h.Register(mux)

	ctx := context.Background()
	if _, err := manager.Get(ctx, uuid.New()); err != nil {
		t.Fatalf("打开周期失败: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/health", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("期望 200, got %d", rec.Code)
	}
	var resp healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("响应解析失败: %v", err)
	}
	if resp.Status != "ok" || resp.OpenPeriods != 1 {
		t.Fatalf("期望 1 个打开周期, got %+v", resp)
	}
}

func TestHandlers_SetConflictPolicy(t *testing.T) {
	h, manager, _ := newTestHandlers()
	mux := http.NewServeMux()
	h.Register(mux)

	periodID := uuid.New()
	ph, _ := manager.Get(context.Background(), periodID)

	body, _ := json.Marshal(setConflictPolicyRequest{Policy: "merge"})
	req := httptest.NewRequest(http.MethodPost, "/admin/set_conflict_policy", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("期望 200, got %d: %s", rec.Code, rec.Body.String())
	}

	staffID := uuid.New()
	first := ph.HandleShiftUpdate(context.Background(), uuid.New(), hub.ShiftUpdatePayload{
		StaffID: staffID.String(), Date: "2026-08-03", Symbol: "WORK", BaseVersion: 0,
	})
	second := ph.HandleShiftUpdate(context.Background(), uuid.New(), hub.ShiftUpdatePayload{
		StaffID: staffID.String(), Date: "2026-08-03", Symbol: "OFF", BaseVersion: 0,
	})
	_ = first
	_ = second
}

func TestHandlers_SetConflictPolicy_RejectsUnknown(t *testing.T) {
	h, _, _ := newTestHandlers()
	mux := http.NewServeMux()
	h.Register(mux)

	body, _ := json.Marshal(setConflictPolicyRequest{Policy: "bogus"})
	req := httptest.NewRequest(http.MethodPost, "/admin/set_conflict_policy", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code == http.StatusOK {
		t.Fatalf("未知策略应返回错误状态")
	}
}

func TestHandlers_ReloadConfig(t *testing.T) {
	h, _, staff := newTestHandlers()
	mux := http.NewServeMux()
	h.Register(mux)

	restaurantID := uuid.New()
	staffID := uuid.New()
	staff.staff = []*model.Staff{{BaseModel: model.BaseModel{ID: staffID}, RestaurantID: restaurantID}}
	staff.groups = map[uuid.UUID]*model.StaffGroup{}
	staff.config = &model.ConfigVersion{RestaurantID: restaurantID}

	body, _ := json.Marshal(reloadConfigRequest{RestaurantID: restaurantID.String()})
	req := httptest.NewRequest(http.MethodPost, "/admin/reload_config", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("期望 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandlers_ReloadConfig_RejectsBadUUID(t *testing.T) {
	h, _, _ := newTestHandlers()
	mux := http.NewServeMux()
	h.Register(mux)

	body, _ := json.Marshal(reloadConfigRequest{RestaurantID: "not-a-uuid"})
	req := httptest.NewRequest(http.MethodPost, "/admin/reload_config", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code == http.StatusOK {
		t.Fatalf("非法 restaurantId 应返回错误状态")
	}
}

func TestHandlers_Drain(t *testing.T) {
	h, manager, _ := newTestHandlers()
	mux := http.NewServeMux()
	h.Register(mux)

	periodID := uuid.New()
	if _, err := manager.Get(context.Background(), periodID); err != nil {
		t.Fatalf("打开周期失败: %v", err)
	}

	body, _ := json.Marshal(drainRequest{PeriodID: periodID.String()})
	req := httptest.NewRequest(http.MethodPost, "/admin/drain", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("期望 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandlers_Report(t *testing.T) {
	h, manager, _ := newTestHandlers()
	mux := http.NewServeMux()
	h.Register(mux)

	periodID := uuid.New()
	ph, err := manager.Get(context.Background(), periodID)
	if err != nil {
		t.Fatalf("打开周期失败: %v", err)
	}
	staffID := uuid.New()
	ph.SetStaff([]*model.Staff{{BaseModel: model.BaseModel{ID: staffID}}}, nil, &model.ConfigVersion{})
	ph.HandleShiftUpdate(context.Background(), uuid.New(), hub.ShiftUpdatePayload{
		StaffID: staffID.String(), Date: "2026-08-03", Symbol: "WORK", BaseVersion: 0,
	})

	url := "/admin/report?periodId=" + periodID.String() + "&dateFrom=2026-08-03&dateTo=2026-08-04"
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("期望 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp reportResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("响应解析失败: %v", err)
	}
	if resp.Coverage == nil || resp.Fairness == nil {
		t.Fatalf("期望覆盖率和公平性都非空, got %+v", resp)
	}
	if resp.Coverage.WorkingAssignments != 1 {
		t.Fatalf("期望 1 个在岗分配, got %d", resp.Coverage.WorkingAssignments)
	}
}

func TestHandlers_Report_RejectsBadUUID(t *testing.T) {
	h, _, _ := newTestHandlers()
	mux := http.NewServeMux()
	h.Register(mux)

	req := httptest.NewRequest(http.MethodGet, "/admin/report?periodId=not-a-uuid", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code == http.StatusOK {
		t.Fatalf("非法 periodId 应返回错误状态")
	}
}

func TestHandlers_Drain_UnknownPeriod(t *testing.T) {
	h, _, _ := newTestHandlers()
	mux := http.NewServeMux()
	h.Register(mux)

	body, _ := json.Marshal(drainRequest{PeriodID: uuid.New().String()})
	req := httptest.NewRequest(http.MethodPost, "/admin/drain", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code == http.StatusOK {
		t.Fatalf("未知周期应返回错误状态")
	}
}
