package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/shiftsync/core/internal/hub"
	"github.com/shiftsync/core/pkg/model"
)

func TestSession_SendBeforeConnectQueuesLocally(t *testing.T) {
	s := NewSession("ws://unused", uuid.New())
	if err := s.Send(hub.TypeShiftUpdate, hub.ShiftUpdatePayload{StaffID: uuid.New().String(), Date: "2026-08-03", Symbol: "WORK"}); err != nil {
		t.Fatalf("未连接时排队不应返回错误: %v", err)
	}
	if len(s.queued) != 1 {
		t.Fatalf("期望队列长度 1, got %d", len(s.queued))
	}
}

func TestSession_QueueDropsOldestPastLimit(t *testing.T) {
	s := NewSession("ws://unused", uuid.New())
	for i := 0; i < DefaultOutboundQueueSize+10; i++ {
		_ = s.Send(hub.TypeShiftUpdate, hub.ShiftUpdatePayload{StaffID: uuid.New().String(), Date: "2026-08-03"})
	}
	if len(s.queued) != DefaultOutboundQueueSize {
		t.Fatalf("队列长度应保持在上限 %d, got %d", DefaultOutboundQueueSize, len(s.queued))
	}
}

// stubServer upgrades one connection, sends a snapshot SYNC_RESPONSE, and
// records every message the client sends afterward.
type stubServer struct {
	received chan hub.Message
}

func newStubServer() (*httptest.Server, *stubServer) {
	stub := &stubServer{received: make(chan hub.Message, 16)}
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		resp := hub.SyncResponsePayload{
			PeriodID: uuid.Nil.String(),
			Version:  1,
			Snapshot: true,
			Cells: []hub.CellPayload{
				{StaffID: uuid.Nil.String(), Date: "2026-08-03", Symbol: "WORK"},
			},
		}
		raw, _ := json.Marshal(resp)
		_ = conn.WriteJSON(hub.Message{Type: hub.TypeSyncResponse, Payload: raw, Timestamp: time.Now()})

		for {
			var msg hub.Message
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			select {
			case stub.received <- msg:
			default:
			}
		}
	}))
	return srv, stub
}

func TestSession_ConnectFlushesQueuedCommandsAndAppliesSnapshot(t *testing.T) {
	srv, stub := newStubServer()
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	staffID := uuid.New()
	periodID := uuid.Nil
	sess := NewSession(wsURL, periodID)
	if err := sess.Send(hub.TypeShiftUpdate, hub.ShiftUpdatePayload{StaffID: staffID.String(), Date: "2026-08-04", Symbol: "OFF"}); err != nil {
		t.Fatalf("排队失败: %v", err)
	}

	statusCh := make(chan Status, 8)
	sess.OnStatusChange(statusCh)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sess.Run(ctx)

	waitForStatus(t, statusCh, StatusConnected)

	select {
	case msg := <-stub.received:
		if msg.Type != hub.TypeShiftUpdate {
			t.Fatalf("期望重连后优先发送排队的 SHIFT_UPDATE, got %s", msg.Type)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("服务端未在预期时间内收到排队的消息")
	}

	deadline := time.After(2 * time.Second)
	for {
		sched := sess.Schedule()
		if sched.Get(model.Cell{StaffID: uuid.Nil, Date: "2026-08-03"}) == model.SymbolWork {
			break
		}
		select {
		case <-deadline:
			t.Fatal("客户端未应用快照中的单元格")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func waitForStatus(t *testing.T, ch chan Status, want Status) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case st := <-ch:
			if st == want {
				return
			}
		case <-deadline:
			t.Fatalf("未在预期时间内达到状态 %v", want)
		}
	}
}
