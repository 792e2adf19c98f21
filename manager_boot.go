package clinicauth

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/ovumlab/clinicauth/store"
)

// Boot restores the session after a process restart. An absent or
// partial persisted record leaves the Manager in [PhaseUnauthenticated].
// A complete record is restored optimistically: the Manager publishes
// [PhaseAuthenticated] from the cached principal immediately, then
// revalidates against the account service in the background. When
// revalidation fails for any reason the store is cleared and the phase
// returns to Unauthenticated; an expired credential and a malformed one
// are not distinguished.
//
// Callers that need to observe the background pass (tests, shutdown
// paths) wait on [Manager.RevalidationDone].
func (m *Manager) Boot(ctx context.Context) error {
	if !m.ready() {
		return ErrManagerNotReady
	}

	done := make(chan struct{})

	m.mu.Lock()
	m.phase = PhaseInitializing
	m.revalDone = done
	m.mu.Unlock()

	rec, err := m.store.Load(ctx)
	if err != nil {
		close(done)
		m.mu.Lock()
		m.resetLocked()
		m.mu.Unlock()
		if errors.Is(err, store.ErrAbsent) {
			m.metricInc(MetricBootAbsent)
			return nil
		}
		return err
	}

	m.mu.Lock()
	m.setAuthenticatedLocked(rec.Principal, Credential{
		AccessToken:  rec.AccessToken,
		RefreshToken: rec.RefreshToken,
	})
	m.mu.Unlock()

	m.metricInc(MetricBootRestore)
	m.emitAudit(ctx, auditEventSessionRestored, true, rec.Principal.ID, rec.Principal.Email, nil, nil)

	go m.revalidate(done)

	return nil
}

// RevalidationDone returns a channel that is closed once the background
// revalidation started by the most recent [Manager.Boot] has finished.
// When Boot found no session to restore the channel is already closed.
// Before any Boot call the returned channel is closed as well.
func (m *Manager) RevalidationDone() <-chan struct{} {
	if m == nil {
		return closedChan()
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.revalDone == nil {
		return closedChan()
	}
	return m.revalDone
}

func closedChan() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// revalidate runs detached from the Boot caller's context: the outcome
// must land even if the caller moved on. The outcome binds to the
// session restored at Boot time; when a logout or a fresh login changed
// the session meanwhile the result is discarded so a stale answer can
// never overwrite the newer state.
func (m *Manager) revalidate(done chan struct{}) {
	defer close(done)

	ctx := context.Background()
	token := m.accessToken()

	payload, err := m.accounts.CurrentPrincipal(ctx, token)
	if err == nil && payload == nil {
		err = ErrInvalidCredentialResponse
	}
	if err != nil {
		m.mu.Lock()
		if m.phase != PhaseAuthenticated || m.credential.AccessToken != token {
			m.mu.Unlock()
			m.logger.Debug("discarding revalidation outcome for superseded session")
			return
		}
		m.resetLocked()
		m.mu.Unlock()
		m.logger.Warn("session revalidation failed, clearing session",
			zap.Error(err))
		if clearErr := m.store.Clear(ctx); clearErr != nil {
			m.logger.Warn("session clear after failed revalidation",
				zap.Error(clearErr))
		}
		m.metricInc(MetricRevalidationFailure)
		m.metricInc(MetricSessionCleared)
		m.emitAudit(ctx, auditEventSessionInvalidated, false, "", "", err, nil)
		return
	}

	principal := principalFromPayload(*payload)

	m.mu.Lock()
	if m.phase != PhaseAuthenticated || m.credential.AccessToken != token {
		m.mu.Unlock()
		m.logger.Debug("discarding revalidation outcome for superseded session")
		return
	}
	cred := m.credential
	m.setAuthenticatedLocked(principal, cred)
	m.mu.Unlock()

	if err := m.store.Save(ctx, &store.Record{
		Principal:    principal,
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
	}); err != nil {
		m.logger.Warn("persist revalidated principal", zap.Error(err))
	}

	m.metricInc(MetricRevalidationSuccess)
	m.emitAudit(ctx, auditEventSessionRevalidated, true, principal.ID, principal.Email, nil, nil)
}
