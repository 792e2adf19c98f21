package clinicauth

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	internalaudit "github.com/ovumlab/clinicauth/internal/audit"
	internalmetrics "github.com/ovumlab/clinicauth/internal/metrics"
	"github.com/ovumlab/clinicauth/role"
	"github.com/ovumlab/clinicauth/store"
)

// Manager is the session state machine. It owns one logical session:
// the persisted record, the in-memory principal, and the canonical
// role and permission row derived from it.
//
// Snapshot reads through [Manager.Current] are safe from any goroutine.
// Mutating operations publish their result atomically, but the Manager
// does not serialize overlapping mutations against each other; callers
// are expected to disable the triggering action while one is in flight.
type Manager struct {
	config   Config
	store    *store.Store
	accounts AccountService
	audit    *internalaudit.Dispatcher
	metrics  *internalmetrics.Metrics
	logger   *zap.Logger
	validate *validator.Validate

	mu         sync.RWMutex
	phase      Phase
	principal  Principal
	credential Credential
	role       role.Role
	perms      role.Row
	pending    *Principal
	revalDone  chan struct{}
}

// Current returns an immutable snapshot of the session. The role and
// permission row in the snapshot were derived in the same mutation that
// set the principal.
func (m *Manager) Current() Session {
	if m == nil {
		return Session{Phase: PhaseUnauthenticated}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return Session{
		Phase:       m.phase,
		Principal:   m.principal,
		Role:        m.role,
		Permissions: m.perms,
	}
}

// PendingRegistration returns the principal held in memory after a
// registration that still requires email verification. The second
// return is false when no registration is pending. The pending
// principal is never persisted and never authenticates the session.
func (m *Manager) PendingRegistration() (Principal, bool) {
	if m == nil {
		return Principal{}, false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.pending == nil {
		return Principal{}, false
	}
	return *m.pending, true
}

// Close flushes and stops the audit dispatcher. The Manager must not be
// used afterwards.
func (m *Manager) Close() {
	if m == nil {
		return
	}
	if m.audit != nil {
		m.audit.Close()
	}
}

// AuditDropped reports how many audit events were dropped because the
// dispatch buffer was full.
func (m *Manager) AuditDropped() uint64 {
	if m == nil || m.audit == nil {
		return 0
	}
	return m.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of all counters.
func (m *Manager) MetricsSnapshot() MetricsSnapshot {
	if m == nil || m.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return m.metrics.Snapshot()
}

// Ping probes the session store and reports the round-trip latency.
// The error wraps [ErrStoreUnavailable] when Redis is unreachable;
// hosts expose this as their readiness check.
func (m *Manager) Ping(ctx context.Context) (time.Duration, error) {
	if !m.ready() {
		return 0, ErrManagerNotReady
	}
	return m.store.Ping(ctx)
}

func (m *Manager) metricInc(id MetricID) {
	if m == nil || m.metrics == nil {
		return
	}
	m.metrics.Inc(id)
}

func (m *Manager) ready() bool {
	return m != nil && m.store != nil && m.accounts != nil
}

// setAuthenticatedLocked publishes a new principal and credential pair.
// The canonical role and permission row are re-derived here, and only
// here, so a snapshot can never pair a principal with stale permissions.
// Caller holds m.mu.
func (m *Manager) setAuthenticatedLocked(p Principal, cred Credential) {
	r := role.Normalize(p.RawRole)
	m.phase = PhaseAuthenticated
	m.principal = p
	m.credential = cred
	m.role = r
	m.perms = role.PermissionsFor(r)
}

// resetLocked returns the session to the resting state. Caller holds m.mu.
func (m *Manager) resetLocked() {
	m.phase = PhaseUnauthenticated
	m.principal = Principal{}
	m.credential = Credential{}
	m.role = role.User
	m.perms = role.PermissionsFor(role.User)
}

// persistAndPublish writes the full record to the store and, only after
// the write succeeded, publishes the authenticated state. A failed write
// leaves the session unchanged.
func (m *Manager) persistAndPublish(ctx context.Context, p Principal, cred Credential) error {
	if err := m.store.Save(ctx, &store.Record{
		Principal:    p,
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
	}); err != nil {
		return err
	}

	m.mu.Lock()
	m.setAuthenticatedLocked(p, cred)
	m.pending = nil
	m.mu.Unlock()

	m.metricInc(MetricSessionPersisted)
	return nil
}

func (m *Manager) accessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.credential.AccessToken
}

func (m *Manager) record() *store.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return &store.Record{
		Principal:    m.principal,
		AccessToken:  m.credential.AccessToken,
		RefreshToken: m.credential.RefreshToken,
	}
}
