// Package client implements the Client Session Library (spec.md §4.4):
// it hides websocket connection lifecycle from a UI layer behind an
// observable schedule, a send interface, and a connection-status signal.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/shiftsync/core/internal/hub"
	"github.com/shiftsync/core/pkg/model"
)

// Status is the connection-status signal a UI layer observes.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// DefaultOutboundQueueSize is the bounded buffer of commands sent while
// disconnected, per spec.md §4.4 ("bounded queue, default 200 entries").
const DefaultOutboundQueueSize = 200

// Session is one client's connection to a period's Sync Hub. It is safe
// for concurrent use.
type Session struct {
	url      string
	periodID uuid.UUID

	mu         sync.Mutex
	schedule   *model.Schedule
	status     Status
	statusSubs []chan Status
	conn       *websocket.Conn
	queued     []hub.Message
	cancelGen  func()

	backoff *Backoff
	done    chan struct{}
}

// NewSession creates a session targeting one period; call Run to start
// the connection lifecycle.
func NewSession(url string, periodID uuid.UUID) *Session {
	return &Session{
		url:      url,
		periodID: periodID,
		schedule: model.NewSchedule(periodID),
		backoff:  NewBackoff(),
		done:     make(chan struct{}),
	}
}

// Schedule returns the session's current observed schedule state. The
// returned value is a snapshot; mutate it with Send, never in place.
func (s *Session) Schedule() *model.Schedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schedule.Clone()
}

// Status returns the current connection status.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// OnStatusChange registers a channel that receives every status
// transition. The channel is buffered by the caller's choosing; a full
// channel silently drops the update rather than blocking the session.
func (s *Session) OnStatusChange(ch chan Status) {
	s.mu.Lock()
	s.statusSubs = append(s.statusSubs, ch)
	s.mu.Unlock()
}

func (s *Session) setStatus(st Status) {
	s.mu.Lock()
	s.status = st
	subs := append([]chan Status(nil), s.statusSubs...)
	s.mu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- st:
		default:
		}
	}
}

// Run drives the connection lifecycle until ctx is cancelled: connect,
// pump messages, and on disconnect, reconnect with exponential backoff
// and jitter, flushing any commands queued while offline.
func (s *Session) Run(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := s.connectAndPump(ctx); err != nil {
			s.setStatus(StatusDisconnected)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.backoff.Next()):
		}
	}
}

func (s *Session) connectAndPump(ctx context.Context) error {
	s.setStatus(StatusConnecting)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("连接同步中心失败: %w", err)
	}
	defer conn.Close()

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	s.backoff.Reset()
	s.setStatus(StatusConnected)
	s.flushQueued()

	s.sendSyncRequest()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			s.conn = nil
			s.mu.Unlock()
			return err
		}
		var msg hub.Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		s.handleMessage(msg)
	}
}

func (s *Session) handleMessage(msg hub.Message) {
	switch msg.Type {
	case hub.TypeSyncResponse:
		var resp hub.SyncResponsePayload
		if err := json.Unmarshal(msg.Payload, &resp); err != nil {
			return
		}
		s.applySnapshot(resp)
	case hub.TypeShiftUpdated:
		var upd hub.ShiftUpdatedPayload
		if err := json.Unmarshal(msg.Payload, &upd); err != nil {
			return
		}
		s.applyShiftUpdated(upd)
	case hub.TypeScheduleGenerated:
		var gen hub.ScheduleGeneratedPayload
		if err := json.Unmarshal(msg.Payload, &gen); err != nil {
			return
		}
		s.applyGenerated(gen)
	}
}

func (s *Session) applySnapshot(resp hub.SyncResponsePayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if resp.Snapshot {
		fresh := model.NewSchedule(s.periodID)
		fresh.Version = resp.Version
		for _, cp := range resp.Cells {
			id, err := uuid.Parse(cp.StaffID)
			if err != nil {
				continue
			}
			sym, ok := model.ParseSymbol(cp.Symbol)
			if !ok {
				continue
			}
			fresh.Set(model.Cell{StaffID: id, Date: cp.Date}, sym, uuid.Nil)
		}
		fresh.Version = resp.Version
		s.schedule = fresh
		return
	}
	for _, op := range resp.Replay {
		s.applyOperationLocked(op)
	}
}

func (s *Session) applyOperationLocked(op hub.Operation) {
	for _, cp := range op.Cells {
		id, err := uuid.Parse(cp.StaffID)
		if err != nil {
			continue
		}
		sym, ok := model.ParseSymbol(cp.Symbol)
		if !ok {
			continue
		}
		s.schedule.Set(model.Cell{StaffID: id, Date: cp.Date}, sym, uuid.Nil)
	}
	s.schedule.Version = op.Version
}

func (s *Session) applyShiftUpdated(upd hub.ShiftUpdatedPayload) {
	id, err := uuid.Parse(upd.StaffID)
	if err != nil {
		return
	}
	sym, ok := model.ParseSymbol(upd.Symbol)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedule.Set(model.Cell{StaffID: id, Date: upd.Date}, sym, uuid.Nil)
	s.schedule.Version = upd.Version
}

func (s *Session) applyGenerated(gen hub.ScheduleGeneratedPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fresh := model.NewSchedule(s.periodID)
	for _, cp := range gen.Cells {
		id, err := uuid.Parse(cp.StaffID)
		if err != nil {
			continue
		}
		sym, ok := model.ParseSymbol(cp.Symbol)
		if !ok {
			continue
		}
		fresh.Set(model.Cell{StaffID: id, Date: cp.Date}, sym, uuid.Nil)
	}
	fresh.Version = gen.Version
	s.schedule = fresh
	s.cancelGen = nil
}

func (s *Session) sendSyncRequest() {
	since := s.Schedule().Version
	payload := hub.SyncRequestPayload{PeriodID: s.periodID.String(), SinceVersion: &since}
	s.sendNow(hub.TypeSyncRequest, payload)
}

// Send submits a command to the hub. While disconnected it is appended to
// the bounded outbound queue (oldest entries dropped once full) and
// flushed on the next successful reconnect.
func (s *Session) Send(t hub.MessageType, payload interface{}) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()

	if conn == nil {
		return s.enqueue(t, payload)
	}
	return s.sendNow(t, payload)
}

func (s *Session) sendNow(t hub.MessageType, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	msg := hub.Message{Type: t, Payload: raw, Timestamp: time.Now()}

	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return s.enqueue(t, payload)
	}
	return conn.WriteJSON(msg)
}

func (s *Session) enqueue(t hub.MessageType, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	msg := hub.Message{Type: t, Payload: raw, Timestamp: time.Now()}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.queued = append(s.queued, msg)
	if len(s.queued) > DefaultOutboundQueueSize {
		s.queued = s.queued[len(s.queued)-DefaultOutboundQueueSize:]
	}
	return nil
}

func (s *Session) flushQueued() {
	s.mu.Lock()
	pending := s.queued
	s.queued = nil
	conn := s.conn
	s.mu.Unlock()

	for _, msg := range pending {
		if conn == nil {
			return
		}
		_ = conn.WriteJSON(msg)
	}
}

// GenerateSchedule requests a solve, superseding this session's own
// previous in-flight request if any (spec.md §4.2 cancellation rule
// applies hub-side; this tracks ownership client-side so Close/Cancel
// don't leave a dangling reference).
func (s *Session) GenerateSchedule(req hub.GenerateSchedulePayload) error {
	s.mu.Lock()
	s.cancelGen = func() {} // hub owns actual cancellation; this just marks ownership
	s.mu.Unlock()
	return s.Send(hub.TypeGenerateSchedule, req)
}

// CancelGenerate marks this session's in-flight solve as abandoned
// client-side (the server cancels it when the connection drops).
func (s *Session) CancelGenerate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelGen != nil {
		s.cancelGen()
		s.cancelGen = nil
	}
}

// Close cancels any in-flight solve this session owns and closes the
// underlying connection, per spec.md §4.4 ("cancels its own in-flight
// GENERATE_SCHEDULE request on navigation or disconnect").
func (s *Session) Close() {
	s.CancelGenerate()
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

func (s *Session) Done() <-chan struct{} {
	return s.done
}
