package clinicauth

import (
	"context"
	"fmt"
)

// Register creates an account through the account service. Input is
// validated locally before the service is contacted. The gates are the
// same as [Manager.Login], plus one partial-success case: when the
// service asserts VerificationPending and returns no tokens, the
// returned principal is held in memory only (see
// [Manager.PendingRegistration]), the session stays
// [PhaseUnauthenticated], and Register returns
// [ErrEmailVerificationRequired]. A payload missing tokens without the
// pending flag is rejected as [ErrInvalidCredentialResponse]; the
// service must assert pending verification explicitly, it is never
// inferred from token absence.
func (m *Manager) Register(ctx context.Context, input RegisterInput) error {
	if !m.ready() {
		return ErrManagerNotReady
	}
	if err := m.validate.Struct(input); err != nil {
		m.metricInc(MetricRegisterFailure)
		m.emitAudit(ctx, auditEventRegisterFailure, false, "", input.Email, err, func() map[string]string {
			return map[string]string{
				"reason": "invalid_input",
			}
		})
		return fmt.Errorf("invalid registration input: %w", err)
	}

	payload, err := m.accounts.Register(ctx, input)
	if err != nil {
		m.metricInc(MetricRegisterFailure)
		m.emitAudit(ctx, auditEventRegisterFailure, false, "", input.Email, err, nil)
		return err
	}
	if payload == nil {
		m.metricInc(MetricRegisterFailure)
		m.emitAudit(ctx, auditEventRegisterFailure, false, "", input.Email, ErrInvalidCredentialResponse, nil)
		return ErrInvalidCredentialResponse
	}

	if payload.Banned {
		m.metricInc(MetricRegisterFailure)
		m.emitAudit(ctx, auditEventRegisterFailure, false, payload.Principal.ID, input.Email, ErrAccountBanned, nil)
		return ErrAccountBanned
	}

	if payload.VerificationPending {
		principal := principalFromPayload(payload.Principal)

		m.mu.Lock()
		m.pending = &principal
		m.mu.Unlock()

		m.metricInc(MetricRegisterPending)
		m.emitAudit(ctx, auditEventRegisterPending, true, principal.ID, input.Email, nil, nil)
		return ErrEmailVerificationRequired
	}

	if payload.AccessToken == "" || payload.RefreshToken == "" {
		m.metricInc(MetricRegisterFailure)
		m.emitAudit(ctx, auditEventRegisterFailure, false, payload.Principal.ID, input.Email, ErrInvalidCredentialResponse, func() map[string]string {
			return map[string]string{
				"reason": "missing_tokens_without_pending_flag",
			}
		})
		return ErrInvalidCredentialResponse
	}

	principal := principalFromPayload(payload.Principal)
	cred := Credential{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
	}

	if err := m.persistAndPublish(ctx, principal, cred); err != nil {
		m.metricInc(MetricRegisterFailure)
		m.emitAudit(ctx, auditEventRegisterFailure, false, principal.ID, input.Email, err, nil)
		return err
	}

	m.metricInc(MetricRegisterSuccess)
	m.emitAudit(ctx, auditEventRegisterSuccess, true, principal.ID, input.Email, nil, nil)

	return nil
}

// VerifyEmail confirms an email verification challenge with the account
// service. On success a pending registration for the same email is
// released; the session stays [PhaseUnauthenticated] until a subsequent
// [Manager.Login].
func (m *Manager) VerifyEmail(ctx context.Context, email, code string) error {
	if !m.ready() {
		return ErrManagerNotReady
	}
	if email == "" || code == "" {
		return ErrVerificationInvalid
	}

	if err := m.accounts.VerifyEmail(ctx, email, code); err != nil {
		m.emitAudit(ctx, auditEventEmailVerified, false, "", email, err, nil)
		return err
	}

	m.mu.Lock()
	if m.pending != nil && m.pending.Email == email {
		m.pending = nil
	}
	m.mu.Unlock()

	m.metricInc(MetricEmailVerified)
	m.emitAudit(ctx, auditEventEmailVerified, true, "", email, nil, nil)

	return nil
}

// ResendVerification asks the account service to send a fresh
// verification challenge.
func (m *Manager) ResendVerification(ctx context.Context, email string) error {
	if !m.ready() {
		return ErrManagerNotReady
	}
	if email == "" {
		return ErrVerificationInvalid
	}

	if err := m.accounts.ResendVerification(ctx, email); err != nil {
		m.emitAudit(ctx, auditEventVerificationResend, false, "", email, err, nil)
		return err
	}

	m.emitAudit(ctx, auditEventVerificationResend, true, "", email, nil, nil)
	return nil
}
