package hub

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shiftsync/core/pkg/errors"
	"github.com/shiftsync/core/pkg/model"
	"github.com/shiftsync/core/pkg/optimizer"
)

// Store is the subset of the Persistence Adapter a PeriodHub needs: load
// the authoritative schedule on startup and write it back on every
// accepted mutation.
type Store interface {
	LoadPeriod(ctx context.Context, periodID uuid.UUID) (*model.Schedule, error)
	SavePeriod(ctx context.Context, sched *model.Schedule) error
}

// persistFailureThreshold is how many consecutive SavePeriod failures put
// a period into read-only mode (spec.md §4.2, §7).
const persistFailureThreshold = 3

// PeriodHub is the single-writer owning context for one open planning
// period: every mutation to its schedule is processed by one goroutine
// (run), so the schedule map and version counter never need a lock
// (spec.md §5, "mutation of the schedule map ... runs without yielding").
type PeriodHub struct {
	PeriodID uuid.UUID

	store  Store
	log    zerolog.Logger
	pool   *optimizer.Pool

	commands chan func()
	done     chan struct{}

	schedule   *model.Schedule
	changeLog  *ChangeLog
	policy     Policy
	sessions   map[string]*Session
	seq        uint64
	readOnly   bool
	failures   int

	staff  []*model.Staff
	groups map[uuid.UUID]*model.StaffGroup
	config *model.ConfigVersion

	wireEncoding SymbolEncoding
}

func NewPeriodHub(periodID uuid.UUID, store Store, pool *optimizer.Pool, log zerolog.Logger, policy Policy, changeLogSize int, wireEncoding SymbolEncoding) *PeriodHub {
	return &PeriodHub{
		PeriodID:     periodID,
		store:        store,
		pool:         pool,
		log:          log.With().Str("period_id", periodID.String()).Logger(),
		commands:     make(chan func(), 256),
		done:         make(chan struct{}),
		changeLog:    NewChangeLog(changeLogSize),
		policy:       policy,
		sessions:     make(map[string]*Session),
		config:       &model.ConfigVersion{},
		groups:       map[uuid.UUID]*model.StaffGroup{},
		wireEncoding: wireEncoding,
	}
}

// Start loads the period's authoritative state and begins the single
// command loop that serializes every mutation.
func (h *PeriodHub) Start(ctx context.Context) error {
	sched, err := h.store.LoadPeriod(ctx, h.PeriodID)
	if err != nil {
		return fmt.Errorf("加载周期状态失败: %w", err)
	}
	h.schedule = sched
	go h.run(ctx)
	return nil
}

func (h *PeriodHub) run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-h.commands:
			cmd()
		}
	}
}

// submit enqueues fn to run on the period's owning goroutine and blocks
// until it has executed, giving callers a synchronous-looking API over an
// actor internally.
func (h *PeriodHub) submit(fn func()) {
	reply := make(chan struct{})
	h.commands <- func() {
		fn()
		close(reply)
	}
	<-reply
}

// Attach registers a new session and returns its initial SYNC_RESPONSE.
func (h *PeriodHub) Attach(sess *Session) Message {
	var msg Message
	h.submit(func() {
		h.sessions[sess.ID] = sess
		resp := SyncResponsePayload{
			PeriodID: h.PeriodID.String(),
			Version:  h.schedule.Version,
			Snapshot: true,
		}
		for _, c := range h.schedule.Cells() {
			resp.Cells = append(resp.Cells, toCellPayload(c, h.wireEncoding))
		}
		msg, _ = encode(TypeSyncResponse, "", resp)
	})
	return msg
}

// Detach removes a session and cancels any solve it uniquely owns.
func (h *PeriodHub) Detach(sess *Session) {
	h.submit(func() {
		delete(h.sessions, sess.ID)
		sess.Close()
	})
}

// SetStaff refreshes the roster and config used to build Optimizer
// problems; called by the operator surface's reload_config.
func (h *PeriodHub) SetStaff(staff []*model.Staff, groups map[uuid.UUID]*model.StaffGroup, config *model.ConfigVersion) {
	h.submit(func() {
		h.staff = staff
		h.groups = groups
		h.config = config
	})
}

// SetPolicy changes the conflict resolution strategy for this period.
func (h *PeriodHub) SetPolicy(p Policy) {
	h.submit(func() { h.policy = p })
}

// HandleSync answers a SYNC_REQUEST, replaying from the change log when
// possible and falling back to a full snapshot otherwise.
func (h *PeriodHub) HandleSync(req SyncRequestPayload) Message {
	var msg Message
	h.submit(func() {
		resp := SyncResponsePayload{PeriodID: h.PeriodID.String(), Version: h.schedule.Version}
		if req.SinceVersion != nil {
			if ops, ok := h.changeLog.Since(*req.SinceVersion); ok {
				resp.Replay = ops
				msg, _ = encode(TypeSyncResponse, "", resp)
				return
			}
		}
		resp.Snapshot = true
		for _, c := range h.schedule.Cells() {
			resp.Cells = append(resp.Cells, toCellPayload(c, h.wireEncoding))
		}
		msg, _ = encode(TypeSyncResponse, "", resp)
	})
	return msg
}

// applyResult is the outcome of attempting one mutation.
type applyResult struct {
	accepted    bool
	version     uint64
	conflicting []model.Cell
	err         error
}

// HandleShiftUpdate applies one cell edit under the period's conflict
// policy, persists it, and broadcasts on acceptance.
func (h *PeriodHub) HandleShiftUpdate(ctx context.Context, actor uuid.UUID, upd ShiftUpdatePayload) applyResult {
	staffID, err := parseUUID(upd.StaffID)
	if err != nil {
		return applyResult{err: errors.New(errors.CodeInvalidMessage, "无效的员工 ID")}
	}
	sym, ok := model.ParseSymbol(upd.Symbol)
	if !ok {
		return applyResult{err: errors.New(errors.CodeInvalidMessage, "无效的班次符号")}
	}
	cell := model.Cell{StaffID: staffID, Date: upd.Date}

	var result applyResult
	h.submit(func() {
		if h.readOnly {
			result = applyResult{err: errors.New(errors.CodePersistenceUnavailable, "周期处于只读模式")}
			return
		}
		d := resolve(h.policy, h.schedule.Version, upd.BaseVersion, []model.Cell{cell}, h.changeLog)
		if !d.accept {
			result = applyResult{accepted: false, version: h.schedule.Version, conflicting: d.conflicting}
			return
		}

		trial := h.schedule.Clone()
		trial.Set(cell, sym, actor)
		if err := h.store.SavePeriod(ctx, trial); err != nil {
			h.onPersistFailure(err)
			result = applyResult{err: errors.Wrap(err, errors.CodePersistenceUnavailable, "保存排班失败")}
			return
		}
		h.failures = 0
		h.schedule = trial
		h.seq++
		h.changeLog.Append(Operation{Seq: h.seq, Version: h.schedule.Version, Cells: []CellPayload{toCellPayload(model.CellValue{Cell: cell, Symbol: sym}, h.wireEncoding)}})
		h.broadcastLocked(TypeShiftUpdated, ShiftUpdatedPayload{
			StaffID: upd.StaffID, Date: upd.Date, Symbol: encodeSymbol(sym, h.wireEncoding), Version: h.schedule.Version,
		})
		result = applyResult{accepted: true, version: h.schedule.Version}
	})
	return result
}

// HandleBulkUpdate replaces the whole period's schedule under the
// conflict policy.
func (h *PeriodHub) HandleBulkUpdate(ctx context.Context, actor uuid.UUID, upd ShiftBulkUpdatePayload) applyResult {
	cells := make(map[model.Cell]model.Symbol, len(upd.Cells))
	touched := make([]model.Cell, 0, len(upd.Cells))
	for _, cp := range upd.Cells {
		staffID, err := parseUUID(cp.StaffID)
		if err != nil {
			return applyResult{err: errors.New(errors.CodeInvalidMessage, "无效的员工 ID")}
		}
		sym, ok := model.ParseSymbol(cp.Symbol)
		if !ok {
			return applyResult{err: errors.New(errors.CodeInvalidMessage, "无效的班次符号")}
		}
		c := model.Cell{StaffID: staffID, Date: cp.Date}
		cells[c] = sym
		touched = append(touched, c)
	}

	var result applyResult
	h.submit(func() {
		if h.readOnly {
			result = applyResult{err: errors.New(errors.CodePersistenceUnavailable, "周期处于只读模式")}
			return
		}
		d := resolve(h.policy, h.schedule.Version, upd.BaseVersion, touched, h.changeLog)
		if !d.accept {
			result = applyResult{accepted: false, version: h.schedule.Version, conflicting: d.conflicting}
			return
		}

		trial := h.schedule.Clone()
		trial.SetBulk(cells, actor)
		if err := h.store.SavePeriod(ctx, trial); err != nil {
			h.onPersistFailure(err)
			result = applyResult{err: errors.Wrap(err, errors.CodePersistenceUnavailable, "保存排班失败")}
			return
		}
		h.failures = 0
		h.schedule = trial
		h.seq++
		var ops []CellPayload
		for c, sym := range cells {
			ops = append(ops, toCellPayload(model.CellValue{Cell: c, Symbol: sym}, h.wireEncoding))
		}
		h.changeLog.Append(Operation{Seq: h.seq, Version: h.schedule.Version, Cells: ops})
		for _, cp := range ops {
			h.broadcastLocked(TypeShiftUpdated, ShiftUpdatedPayload{
				StaffID: cp.StaffID, Date: cp.Date, Symbol: cp.Symbol, Version: h.schedule.Version,
			})
		}
		result = applyResult{accepted: true, version: h.schedule.Version}
	})
	return result
}

// HandleGenerateSchedule invokes the Optimizer off the period context, per
// spec.md §4.2 ("the context does not block other sessions while a solve
// is in flight"). It returns a channel delivering exactly one result.
func (h *PeriodHub) HandleGenerateSchedule(ctx context.Context, sess *Session, req GenerateSchedulePayload) <-chan Message {
	out := make(chan Message, 1)

	timeout := time.Duration(req.TimeoutS) * time.Second
	if timeout <= 0 {
		timeout = optimizer.DefaultBudget
	}
	if timeout > optimizer.MaxBudget {
		timeout = optimizer.MaxBudget
	}

	solveCtx, cancel := context.WithTimeout(ctx, timeout)
	sess.CancelGenerate() // supersede any solve this session already owns
	sess.SetGenerateCancel(cancel)

	var dates []string
	var staff []*model.Staff
	var groups map[uuid.UUID]*model.StaffGroup
	var config *model.ConfigVersion
	var seed *model.Schedule
	var baseVersion uint64

	h.submit(func() {
		staff = h.staff
		groups = h.groups
		config = h.config
		seed = h.schedule.Clone()
		baseVersion = h.schedule.Version
		dr := model.DateRange{StartDate: req.DateFrom, EndDate: req.DateTo}
		dates, _ = dr.Days()
	})

	go func() {
		defer cancel()
		started := time.Now()
		problem := &optimizer.Problem{
			PeriodID: h.PeriodID,
			Dates:    dates,
			Staff:    staff,
			Groups:   groups,
			Config:   config,
			Seed:     seed,
			Budget:   timeout,
		}
		sched, failure := optimizer.Optimize(solveCtx, problem, optimizer.DefaultWeights())
		if failure != nil {
			kind := "infeasible"
			switch failure.Reason {
			case optimizer.FailureTimeout:
				kind = "timeout"
			case optimizer.FailureInvalidInput:
				kind = "invalid_message"
			}
			if solveCtx.Err() == context.Canceled {
				kind = "cancelled"
			}
			msg, _ := encode(TypeError, "", ErrorPayload{Kind: kind, Detail: failure.Error()})
			out <- msg
			close(out)
			return
		}

		_ = baseVersion // the solve always applies onto the latest base, not the one it started from

		var result applyResult
		h.submit(func() {
			if err := h.store.SavePeriod(ctx, sched); err != nil {
				h.onPersistFailure(err)
				result.err = err
				return
			}
			h.failures = 0
			h.schedule = sched
			h.seq++
			var ops []CellPayload
			for _, c := range sched.Cells() {
				ops = append(ops, toCellPayload(c, h.wireEncoding))
			}
			h.changeLog.Append(Operation{Seq: h.seq, Version: h.schedule.Version, Cells: ops})
			for _, cp := range ops {
				h.broadcastLocked(TypeShiftUpdated, ShiftUpdatedPayload{
					StaffID: cp.StaffID, Date: cp.Date, Symbol: cp.Symbol, Version: h.schedule.Version,
				})
			}
		})
		if result.err != nil {
			msg, _ := encode(TypeError, "", ErrorPayload{Kind: "persistence_unavailable", Detail: result.err.Error()})
			out <- msg
			close(out)
			return
		}

		payload := ScheduleGeneratedPayload{
			Version:     sched.Version,
			IsOptimal:   solveCtx.Err() == nil,
			SolveTimeMS: time.Since(started).Milliseconds(),
			Stats:       sched.Stats,
		}
		for _, c := range sched.Cells() {
			payload.Cells = append(payload.Cells, toCellPayload(c, h.wireEncoding))
		}
		msg, _ := encode(TypeScheduleGenerated, "", payload)
		out <- msg
		close(out)
	}()

	return out
}

// broadcastLocked must only be called from within the command loop.
func (h *PeriodHub) broadcastLocked(t MessageType, payload interface{}) {
	msg, err := encode(t, "", payload)
	if err != nil {
		return
	}
	for _, sess := range h.sessions {
		if !sess.Enqueue(msg) {
			h.log.Warn().Str("session_id", sess.ID).Msg("会话积压超限, 断开连接")
			sess.Close()
			delete(h.sessions, sess.ID)
		}
	}
}

// onPersistFailure must only be called from within the command loop; it
// tracks consecutive SavePeriod failures and trips read-only mode past
// persistFailureThreshold (spec.md §4.2, §7).
func (h *PeriodHub) onPersistFailure(err error) {
	h.failures++
	h.log.Error().Err(err).Int("failures", h.failures).Msg("持久化写入失败")
	if h.failures >= persistFailureThreshold {
		h.readOnly = true
		h.log.Error().Msg("周期进入只读模式")
	}
}

// Drain detaches every session, used by the operator surface's
// drain {period_id} command.
func (h *PeriodHub) Drain() {
	h.submit(func() {
		for id, sess := range h.sessions {
			sess.Close()
			delete(h.sessions, id)
		}
	})
}

func (h *PeriodHub) IsReadOnly() bool {
	var ro bool
	h.submit(func() { ro = h.readOnly })
	return ro
}

// Report returns a snapshot of the current schedule and roster, used by the
// operator surface's coverage/fairness reporting. It reads through the
// command loop like every other query so it never races a concurrent edit.
func (h *PeriodHub) Report() (*model.Schedule, []*model.Staff) {
	var sched *model.Schedule
	var staff []*model.Staff
	h.submit(func() {
		sched = h.schedule.Clone()
		staff = h.staff
	})
	return sched, staff
}

// Rearm clears read-only mode and resets the failure counter, used by the
// background sweep once persistence checks succeed again.
func (h *PeriodHub) Rearm() {
	h.submit(func() {
		if h.readOnly {
			h.log.Info().Msg("周期退出只读模式")
		}
		h.readOnly = false
		h.failures = 0
	})
}
