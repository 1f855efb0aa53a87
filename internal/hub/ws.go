package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/shiftsync/core/pkg/errors"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server upgrades HTTP connections to the Sync Hub's wire protocol and
// dispatches each connection's messages to its period's hub, grounded on
// the StaffSyncServer connection-dispatch pattern of the theshidiq
// websocket reference server.
type Server struct {
	manager *Manager
	log     zerolog.Logger
}

func NewServer(manager *Manager, log zerolog.Logger) *Server {
	return &Server{manager: manager, log: log}
}

// ServeHTTP upgrades the request and pumps it until the client disconnects
// or is dropped for backpressure. The period is selected by a "period_id"
// query parameter, resolved once at connect time.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	periodID, err := uuid.Parse(r.URL.Query().Get("period_id"))
	if err != nil {
		http.Error(w, "missing or invalid period_id", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket 升级失败")
		return
	}

	h, err := s.manager.Get(r.Context(), periodID)
	if err != nil {
		s.log.Error().Err(err).Str("period_id", periodID.String()).Msg("周期加载失败")
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "period unavailable"))
		_ = conn.Close()
		return
	}

	sess := NewSession(periodID)
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go s.writePump(conn, sess)

	ack, _ := encode(TypeConnectionAck, sess.ID, ConnectionAckPayload{ClientID: sess.ClientID.String(), ServerTime: time.Now()})
	sess.Enqueue(ack)
	sync := h.Attach(sess)
	sess.Enqueue(sync)

	s.readPump(ctx, conn, h, sess)

	h.Detach(sess)
	cancel()
	_ = conn.Close()
}

func (s *Server) readPump(ctx context.Context, conn *websocket.Conn, h *PeriodHub, sess *Session) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.sendError(sess, "invalid_message", "消息格式无法解析")
			continue
		}
		s.dispatch(ctx, h, sess, msg)
	}
}

func (s *Server) dispatch(ctx context.Context, h *PeriodHub, sess *Session, msg Message) {
	switch msg.Type {
	case TypeSyncRequest:
		var req SyncRequestPayload
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			s.sendError(sess, "invalid_message", "SYNC_REQUEST 载荷无效")
			return
		}
		sess.Enqueue(h.HandleSync(req))

	case TypeShiftUpdate:
		var upd ShiftUpdatePayload
		if err := json.Unmarshal(msg.Payload, &upd); err != nil {
			s.sendError(sess, "invalid_message", "SHIFT_UPDATE 载荷无效")
			return
		}
		result := h.HandleShiftUpdate(ctx, sess.ClientID, upd)
		s.respondToApply(sess, result)

	case TypeShiftBulkUpdate:
		var upd ShiftBulkUpdatePayload
		if err := json.Unmarshal(msg.Payload, &upd); err != nil {
			s.sendError(sess, "invalid_message", "SHIFT_BULK_UPDATE 载荷无效")
			return
		}
		result := h.HandleBulkUpdate(ctx, sess.ClientID, upd)
		s.respondToApply(sess, result)

	case TypeGenerateSchedule:
		var req GenerateSchedulePayload
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			s.sendError(sess, "invalid_message", "GENERATE_SCHEDULE 载荷无效")
			return
		}
		resultCh := h.HandleGenerateSchedule(ctx, sess, req)
		go func() {
			if m, ok := <-resultCh; ok {
				sess.Enqueue(m)
			}
		}()

	default:
		s.sendError(sess, "invalid_message", "未知的消息类型")
	}
}

func (s *Server) respondToApply(sess *Session, result applyResult) {
	if result.err != nil {
		s.sendError(sess, string(errors.GetCode(result.err)), result.err.Error())
		return
	}
	if !result.accepted {
		var conflicting []CellPayload
		for _, c := range result.conflicting {
			conflicting = append(conflicting, CellPayload{StaffID: c.StaffID.String(), Date: c.Date})
		}
		msg, _ := encode(TypeConflict, sess.ID, ConflictPayload{CurrentVersion: result.version, ConflictingCells: conflicting})
		sess.Enqueue(msg)
	}
}

func (s *Server) sendError(sess *Session, kind, detail string) {
	msg, _ := encode(TypeError, sess.ID, ErrorPayload{Kind: kind, Detail: detail})
	sess.Enqueue(msg)
}

func (s *Server) writePump(conn *websocket.Conn, sess *Session) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case ob, ok := <-sess.Outbound():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(ob.msg); err != nil {
				return
			}
			sess.drained()
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-sess.Done():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(4000, "slow_consumer"))
			return
		}
	}
}
