package hub

import (
	"encoding/json"
	"sync/atomic"

	"github.com/google/uuid"
)

// Backpressure thresholds from spec.md §4.2: Enqueue refuses a message when
// the queue already holds DefaultMaxQueuedMessages, or when that one
// message's encoded size exceeds DefaultMaxQueuedBytes, and the caller then
// drops the session with SLOW_CONSUMER. The total bytes queued across
// messages are not tracked.
const (
	DefaultMaxQueuedMessages = 100
	DefaultMaxQueuedBytes    = 1 << 20 // 1 MiB
)

// outbound is one framed record queued for delivery to a session, paired
// with its encoded size; the backpressure check does not read size.
type outbound struct {
	msg  Message
	size int
}

// Session is one attached client connection's hub-side state: a bounded
// outbound queue plus the cancel function of any in-flight
// GENERATE_SCHEDULE it uniquely owns.
type Session struct {
	ID       string
	ClientID uuid.UUID
	PeriodID uuid.UUID

	queue     chan outbound
	queuedLen int64 // atomic: number of currently queued messages

	cancelGenerate atomic.Value // func() or nil, cancels this session's in-flight solve

	closed chan struct{}
}

func NewSession(periodID uuid.UUID) *Session {
	return &Session{
		ID:       uuid.New().String(),
		ClientID: uuid.New(),
		PeriodID: periodID,
		queue:    make(chan outbound, DefaultMaxQueuedMessages),
		closed:   make(chan struct{}),
	}
}

// Enqueue attempts to queue msg for delivery. It returns false if the
// session's backpressure threshold is exceeded, in which case the caller
// must drop the session with SLOW_CONSUMER.
func (s *Session) Enqueue(msg Message) bool {
	raw, err := json.Marshal(msg)
	if err != nil {
		return false
	}
	if len(raw) > DefaultMaxQueuedBytes {
		return false
	}
	select {
	case s.queue <- outbound{msg: msg, size: len(raw)}:
		atomic.AddInt64(&s.queuedLen, 1)
		return true
	default:
		return false // queue full: DefaultMaxQueuedMessages exceeded
	}
}

// Outbound exposes the session's delivery queue to its write pump.
func (s *Session) Outbound() <-chan outbound {
	return s.queue
}

func (s *Session) drained() {
	atomic.AddInt64(&s.queuedLen, -1)
}

// SetGenerateCancel records the cancel function of this session's current
// in-flight GENERATE_SCHEDULE request, so a superseding request or a
// disconnect can cooperatively cancel it (spec.md §4.2, §5).
func (s *Session) SetGenerateCancel(cancel func()) {
	s.cancelGenerate.Store(cancel)
}

// CancelGenerate cancels this session's in-flight solve, if any.
func (s *Session) CancelGenerate() {
	if v := s.cancelGenerate.Load(); v != nil {
		if cancel, ok := v.(func()); ok && cancel != nil {
			cancel()
		}
	}
}

// Close marks the session closed; idempotent.
func (s *Session) Close() {
	select {
	case <-s.closed:
	default:
		close(s.closed)
		s.CancelGenerate()
	}
}

func (s *Session) Done() <-chan struct{} {
	return s.closed
}
