// Package operator implements the minimal admin command surface of
// spec.md §6.3 (health, reload_config, set_conflict_policy, drain) as
// HTTP handlers, exposed behind the "admin" API key scope and consumed
// by cmd/shiftctl.
package operator

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shiftsync/core/internal/hub"
	"github.com/shiftsync/core/pkg/errors"
	"github.com/shiftsync/core/pkg/model"
	"github.com/shiftsync/core/pkg/report"
	"github.com/shiftsync/core/pkg/stats"
)

// StaffSource reloads the roster and active configuration backing a
// period, used by reload_config. Grounded on internal/repository's
// generic Repository[T] query shape.
type StaffSource interface {
	LoadRoster(ctx context.Context, restaurantID uuid.UUID) ([]*model.Staff, map[uuid.UUID]*model.StaffGroup, *model.ConfigVersion, error)
}

// Handlers wires the Sync Hub manager to the admin surface.
type Handlers struct {
	manager *hub.Manager
	staff   StaffSource
	log     zerolog.Logger
}

func NewHandlers(manager *hub.Manager, staff StaffSource, log zerolog.Logger) *Handlers {
	return &Handlers{manager: manager, staff: staff, log: log}
}

// Register mounts the admin handlers on mux at their full "/admin/..."
// paths; callers compose the RequireScope("admin", ...) middleware at the
// router layer.
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("/admin/health", h.health)
	mux.HandleFunc("/admin/reload_config", h.reloadConfig)
	mux.HandleFunc("/admin/set_conflict_policy", h.setConflictPolicy)
	mux.HandleFunc("/admin/drain", h.drain)
	mux.HandleFunc("/admin/report", h.report)
}

type healthResponse struct {
	Status      string `json:"status"`
	OpenPeriods int    `json:"openPeriods"`
}

func (h *Handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", OpenPeriods: h.manager.OpenPeriods()})
}

type reloadConfigRequest struct {
	RestaurantID string `json:"restaurantId"`
}

func (h *Handlers) reloadConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, errors.New(errors.CodeInvalidInput, "仅支持 POST"))
		return
	}
	var req reloadConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.New(errors.CodeInvalidMessage, "请求体无法解析"))
		return
	}
	restaurantID, err := uuid.Parse(req.RestaurantID)
	if err != nil {
		writeError(w, errors.InvalidInput("restaurantId", "不是合法的 UUID"))
		return
	}

	staff, groups, config, err := h.staff.LoadRoster(r.Context(), restaurantID)
	if err != nil {
		h.log.Error().Err(err).Msg("重新加载人员配置失败")
		writeError(w, errors.Wrap(err, errors.CodeDatabaseError, "加载人员配置失败"))
		return
	}
	h.manager.ReloadStaff(staff, groups, config)
	writeJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
}

type setConflictPolicyRequest struct {
	Policy string `json:"policy"`
}

func (h *Handlers) setConflictPolicy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, errors.New(errors.CodeInvalidInput, "仅支持 POST"))
		return
	}
	var req setConflictPolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.New(errors.CodeInvalidMessage, "请求体无法解析"))
		return
	}
	policy, ok := hub.ParsePolicy(req.Policy)
	if !ok {
		writeError(w, errors.InvalidInput("policy", "必须是 last|first|merge 之一"))
		return
	}
	h.manager.SetPolicy(policy)
	h.log.Info().Str("policy", string(policy)).Msg("冲突解决策略已更新")
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated", "policy": string(policy)})
}

type drainRequest struct {
	PeriodID string `json:"periodId"`
}

func (h *Handlers) drain(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, errors.New(errors.CodeInvalidInput, "仅支持 POST"))
		return
	}
	var req drainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.New(errors.CodeInvalidMessage, "请求体无法解析"))
		return
	}
	periodID, err := uuid.Parse(req.PeriodID)
	if err != nil {
		writeError(w, errors.InvalidInput("periodId", "不是合法的 UUID"))
		return
	}
	if !h.manager.Drain(periodID) {
		writeError(w, errors.NotFound("period", req.PeriodID))
		return
	}
	h.log.Info().Str("period_id", periodID.String()).Msg("周期已下线")
	writeJSON(w, http.StatusOK, map[string]string{"status": "drained"})
}

type reportResponse struct {
	Coverage *stats.CoverageMetrics `json:"coverage"`
	Fairness *stats.FairnessMetrics `json:"fairness"`
}

// report answers GET /admin/report?periodId=...&dateFrom=...&dateTo=... with
// the current coverage and fairness snapshot of one period.
func (h *Handlers) report(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, errors.New(errors.CodeInvalidInput, "仅支持 GET"))
		return
	}
	periodID, err := uuid.Parse(r.URL.Query().Get("periodId"))
	if err != nil {
		writeError(w, errors.InvalidInput("periodId", "不是合法的 UUID"))
		return
	}
	dr := model.DateRange{StartDate: r.URL.Query().Get("dateFrom"), EndDate: r.URL.Query().Get("dateTo")}
	dates, err := dr.Days()
	if err != nil {
		writeError(w, errors.InvalidInput("dateFrom/dateTo", "日期区间无效"))
		return
	}

	ph, err := h.manager.Get(r.Context(), periodID)
	if err != nil {
		writeError(w, err)
		return
	}
	sched, staff := ph.Report()

	writeJSON(w, http.StatusOK, reportResponse{
		Coverage: report.Coverage(sched, dates, len(staff)),
		Fairness: report.Fairness(sched, staff),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, errors.GetHTTPStatus(err), map[string]string{
		"error":   string(errors.GetCode(err)),
		"message": err.Error(),
	})
}
