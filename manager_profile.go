package clinicauth

import (
	"context"
	"fmt"
)

// RefreshProfile re-fetches the principal from the account service and
// replaces the persisted copy. The credential pair is left untouched.
// Unlike boot-time revalidation, a failure here surfaces to the caller
// without deauthenticating; the cached principal stays live.
func (m *Manager) RefreshProfile(ctx context.Context) error {
	if !m.ready() {
		return ErrManagerNotReady
	}

	m.mu.RLock()
	authenticated := m.phase == PhaseAuthenticated
	cred := m.credential
	principalID := m.principal.ID
	m.mu.RUnlock()

	if !authenticated {
		return ErrNotAuthenticated
	}

	payload, err := m.accounts.CurrentPrincipal(ctx, cred.AccessToken)
	if err == nil && payload == nil {
		err = ErrInvalidCredentialResponse
	}
	if err != nil {
		m.metricInc(MetricProfileRefreshFailure)
		m.emitAudit(ctx, auditEventProfileRefresh, false, principalID, "", err, nil)
		return err
	}

	principal := principalFromPayload(*payload)

	if err := m.persistAndPublish(ctx, principal, cred); err != nil {
		m.metricInc(MetricProfileRefreshFailure)
		m.emitAudit(ctx, auditEventProfileRefresh, false, principal.ID, principal.Email, err, nil)
		return err
	}

	m.metricInc(MetricProfileRefresh)
	m.emitAudit(ctx, auditEventProfileRefresh, true, principal.ID, principal.Email, nil, nil)

	return nil
}

// UpdateProfile applies a partial profile mutation. The update is sent
// to the account service first; the local principal and the persisted
// copy change only after the service accepted it. There is no local
// pre-commit to roll back on failure.
func (m *Manager) UpdateProfile(ctx context.Context, update ProfileUpdate) error {
	if !m.ready() {
		return ErrManagerNotReady
	}
	if err := m.validate.Struct(update); err != nil {
		m.metricInc(MetricProfileUpdateFailure)
		return fmt.Errorf("invalid profile update: %w", err)
	}

	m.mu.RLock()
	authenticated := m.phase == PhaseAuthenticated
	cred := m.credential
	principalID := m.principal.ID
	m.mu.RUnlock()

	if !authenticated {
		return ErrNotAuthenticated
	}

	payload, err := m.accounts.UpdateProfile(ctx, cred.AccessToken, update)
	if err == nil && payload == nil {
		err = ErrInvalidCredentialResponse
	}
	if err != nil {
		m.metricInc(MetricProfileUpdateFailure)
		m.emitAudit(ctx, auditEventProfileUpdate, false, principalID, "", err, nil)
		return err
	}

	principal := principalFromPayload(*payload)

	if err := m.persistAndPublish(ctx, principal, cred); err != nil {
		m.metricInc(MetricProfileUpdateFailure)
		m.emitAudit(ctx, auditEventProfileUpdate, false, principal.ID, principal.Email, err, nil)
		return err
	}

	m.metricInc(MetricProfileUpdate)
	m.emitAudit(ctx, auditEventProfileUpdate, true, principal.ID, principal.Email, nil, nil)

	return nil
}
