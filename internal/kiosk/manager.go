package kiosk

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pmcafe/kiosk/pkg/errors"
	"github.com/pmcafe/kiosk/pkg/logger"
	"github.com/pmcafe/kiosk/pkg/metrics"
)

const defaultIdleTTL = 30 * time.Minute

type ManagerParams struct {
	Submitter       Submitter
	MaxLineQuantity int
	ResetAfter      time.Duration
	IdleTTL         time.Duration
	Logger          *logger.Logger
	Metrics         *metrics.OrderMetrics
	Now             func() time.Time
	NewID           func() string
}

// Manager owns the open kiosk sessions.
type Manager struct {
	submitter  Submitter
	maxQty     int
	resetAfter time.Duration
	idleTTL    time.Duration
	logg       *logger.Logger
	metrics    *metrics.OrderMetrics
	now        func() time.Time
	newID      func() string

	mu       sync.RWMutex
	sessions map[string]*Controller
}

func NewManager(params ManagerParams) (*Manager, error) {
	if params.Submitter == nil {
		return nil, errors.New("order submitter required")
	}
	idle := params.IdleTTL
	if idle <= 0 {
		idle = defaultIdleTTL
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	newID := params.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return &Manager{
		submitter:  params.Submitter,
		maxQty:     params.MaxLineQuantity,
		resetAfter: params.ResetAfter,
		idleTTL:    idle,
		logg:       logg,
		metrics:    params.Metrics,
		now:        now,
		newID:      newID,
		sessions:   make(map[string]*Controller),
	}, nil
}

// Open starts a session on the HOME screen.
func (m *Manager) Open(ctx context.Context) (*Controller, error) {
	ctrl, err := NewController(ControllerParams{
		ID:              m.newID(),
		Submitter:       m.submitter,
		MaxLineQuantity: m.maxQty,
		ResetAfter:      m.resetAfter,
		Now:             m.now,
	})
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.sessions[ctrl.ID()] = ctrl
	n := len(m.sessions)
	m.mu.Unlock()

	m.metrics.SetActiveSessions(n)
	m.logg.Info(m.logg.WithSessionID(ctx, ctrl.ID()), "kiosk session opened")
	return ctrl, nil
}

func (m *Manager) Get(id string) (*Controller, error) {
	m.mu.RLock()
	ctrl, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "kiosk session not found").
			WithDetails(map[string]string{"sessionId": id})
	}
	return ctrl, nil
}

// Close ends a session. Unknown ids are ignored.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	ctrl, ok := m.sessions[id]
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()
	if !ok {
		return false
	}
	ctrl.Close()
	m.metrics.SetActiveSessions(n)
	return true
}

// CloseAll ends every session. Used on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Controller)
	m.mu.Unlock()
	for _, ctrl := range sessions {
		ctrl.Close()
	}
	m.metrics.SetActiveSessions(0)
}

// SweepIdle closes sessions idle longer than the configured TTL and returns how many.
func (m *Manager) SweepIdle(ctx context.Context) int {
	cutoff := m.now().Add(-m.idleTTL)

	m.mu.RLock()
	open := make([]*Controller, 0, len(m.sessions))
	for _, ctrl := range m.sessions {
		open = append(open, ctrl)
	}
	m.mu.RUnlock()

	var idle []*Controller
	for _, ctrl := range open {
		if ctrl.LastActive().Before(cutoff) {
			idle = append(idle, ctrl)
		}
	}
	if len(idle) == 0 {
		return 0
	}

	m.mu.Lock()
	var stale []*Controller
	for _, ctrl := range idle {
		// skip sessions closed or replaced since the scan
		if m.sessions[ctrl.ID()] == ctrl {
			delete(m.sessions, ctrl.ID())
			stale = append(stale, ctrl)
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()

	for _, ctrl := range stale {
		ctrl.Close()
	}
	if len(stale) > 0 {
		m.metrics.SetActiveSessions(n)
		m.logg.Info(m.logg.WithField(ctx, "closed", len(stale)), "idle kiosk sessions swept")
	}
	return len(stale)
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// SweepJob runs SweepIdle on the scheduler.
type SweepJob struct {
	manager *Manager
}

func NewSweepJob(manager *Manager) (*SweepJob, error) {
	if manager == nil {
		return nil, errors.New("kiosk manager required")
	}
	return &SweepJob{manager: manager}, nil
}

func (j *SweepJob) Name() string { return "kiosk-session-sweep" }

func (j *SweepJob) Run(ctx context.Context) error {
	j.manager.SweepIdle(ctx)
	return nil
}
