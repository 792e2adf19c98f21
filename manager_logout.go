package clinicauth

import (
	"context"

	"go.uber.org/zap"
)

// Logout ends the session. The remote invalidation call is best-effort:
// a failure is logged and audited but never blocks the local teardown.
// The store is always cleared and the phase always returns to
// [PhaseUnauthenticated]; only a failure to clear the local store
// surfaces as an error, and even then the in-memory session is gone.
func (m *Manager) Logout(ctx context.Context) error {
	if !m.ready() {
		return ErrManagerNotReady
	}

	m.mu.RLock()
	principalID := m.principal.ID
	email := m.principal.Email
	token := m.credential.AccessToken
	authenticated := m.phase == PhaseAuthenticated
	m.mu.RUnlock()

	if authenticated && token != "" {
		if err := m.accounts.Logout(ctx, token); err != nil {
			m.logger.Warn("remote session invalidation failed",
				zap.String("principal_id", principalID),
				zap.Error(err))
			m.metricInc(MetricLogoutRemoteFailure)
			m.emitAudit(ctx, auditEventLogoutRemoteFail, false, principalID, email, err, nil)
		}
	}

	clearErr := m.store.Clear(ctx)

	m.mu.Lock()
	m.resetLocked()
	m.pending = nil
	m.mu.Unlock()

	m.metricInc(MetricLogout)
	m.metricInc(MetricSessionCleared)
	m.emitAudit(ctx, auditEventLogout, clearErr == nil, principalID, email, clearErr, nil)

	return clearErr
}
