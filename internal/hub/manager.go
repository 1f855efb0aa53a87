package hub

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shiftsync/core/pkg/model"
	"github.com/shiftsync/core/pkg/optimizer"
)

// Manager is the cross-period registry: readers get a lock-free snapshot
// via atomic.Value; writers that change the registry map serialize through
// writeMu and publish a new snapshot map atomically (spec.md §5,
// "shared-resource policy"). ReloadStaff takes no lock and publishes no new
// map: it hands the new roster to each open period's hub.
type Manager struct {
	store Store
	pool  *optimizer.Pool
	log   zerolog.Logger

	writeMu  sync.Mutex
	snapshot atomic.Value // map[uuid.UUID]*PeriodHub

	defaultPolicy Policy
	changeLogSize int
	wireEncoding  SymbolEncoding
}

func NewManager(store Store, pool *optimizer.Pool, log zerolog.Logger, defaultPolicy Policy, changeLogSize int, wireEncoding SymbolEncoding) *Manager {
	m := &Manager{store: store, pool: pool, log: log, defaultPolicy: defaultPolicy, changeLogSize: changeLogSize, wireEncoding: wireEncoding}
	m.snapshot.Store(map[uuid.UUID]*PeriodHub{})
	return m
}

func (m *Manager) load() map[uuid.UUID]*PeriodHub {
	return m.snapshot.Load().(map[uuid.UUID]*PeriodHub)
}

// Get returns the running hub for a period, starting it on first access.
func (m *Manager) Get(ctx context.Context, periodID uuid.UUID) (*PeriodHub, error) {
	if h, ok := m.load()[periodID]; ok {
		return h, nil
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	current := m.load()
	if h, ok := current[periodID]; ok {
		return h, nil
	}

	h := NewPeriodHub(periodID, m.store, m.pool, m.log, m.defaultPolicy, m.changeLogSize, m.wireEncoding)
	if err := h.Start(ctx); err != nil {
		return nil, err
	}

	next := make(map[uuid.UUID]*PeriodHub, len(current)+1)
	for k, v := range current {
		next[k] = v
	}
	next[periodID] = h
	m.snapshot.Store(next)
	return h, nil
}

// SetPolicy changes the conflict policy for every currently open period
// and the default applied to newly opened ones (operator surface
// set_conflict_policy).
func (m *Manager) SetPolicy(p Policy) {
	m.writeMu.Lock()
	m.defaultPolicy = p
	m.writeMu.Unlock()
	for _, h := range m.load() {
		h.SetPolicy(p)
	}
}

// Drain detaches every session of one period (operator surface
// drain {period_id}).
func (m *Manager) Drain(periodID uuid.UUID) bool {
	h, ok := m.load()[periodID]
	if !ok {
		return false
	}
	h.Drain()
	return true
}

// ReloadStaff refreshes the roster/config every open period's hub uses to
// build Optimizer problems (operator surface reload_config).
func (m *Manager) ReloadStaff(staff []*model.Staff, groups map[uuid.UUID]*model.StaffGroup, config *model.ConfigVersion) {
	for _, h := range m.load() {
		h.SetStaff(staff, groups, config)
	}
}

// OpenPeriods returns the count of currently active period hubs, for
// health reporting.
func (m *Manager) OpenPeriods() int {
	return len(m.load())
}

// RearmAll clears read-only mode on every open period, called by the
// background sweep once a persistence health check succeeds again.
func (m *Manager) RearmAll() {
	for _, h := range m.load() {
		h.Rearm()
	}
}

// ReadOnlyPeriods returns the IDs of every currently read-only period.
func (m *Manager) ReadOnlyPeriods() []uuid.UUID {
	var ids []uuid.UUID
	for id, h := range m.load() {
		if h.IsReadOnly() {
			ids = append(ids, id)
		}
	}
	return ids
}
