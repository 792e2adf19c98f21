package clinicauth

import (
	"context"
)

// Login authenticates against the account service. The ban and
// email-verification gates run before any token is trusted: a banned
// account returns [ErrAccountBanned] and an unverified one returns an
// [EmailNotVerifiedError] carrying the email, in both cases with
// nothing persisted and the session unchanged. A success payload
// missing either token is rejected as [ErrInvalidCredentialResponse].
//
// On success the full record is persisted atomically and the session
// transitions to [PhaseAuthenticated] with the role and permission row
// recomputed from the returned principal.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	if !m.ready() {
		return ErrManagerNotReady
	}
	if email == "" || password == "" {
		m.metricInc(MetricLoginFailure)
		m.emitAudit(ctx, auditEventLoginFailure, false, "", email, ErrInvalidCredentials, nil)
		return ErrInvalidCredentials
	}

	payload, err := m.accounts.Login(ctx, email, password)
	if err != nil {
		m.metricInc(MetricLoginFailure)
		m.emitAudit(ctx, auditEventLoginFailure, false, "", email, err, nil)
		return err
	}
	if payload == nil {
		m.metricInc(MetricLoginFailure)
		m.emitAudit(ctx, auditEventLoginFailure, false, "", email, ErrInvalidCredentialResponse, nil)
		return ErrInvalidCredentialResponse
	}

	if payload.Banned {
		m.metricInc(MetricLoginBanned)
		m.emitAudit(ctx, auditEventLoginBanned, false, payload.Principal.ID, email, ErrAccountBanned, nil)
		return ErrAccountBanned
	}
	if !payload.EmailVerified {
		m.metricInc(MetricLoginUnverified)
		m.emitAudit(ctx, auditEventLoginUnverified, false, payload.Principal.ID, email, ErrEmailNotVerified, nil)
		return &EmailNotVerifiedError{Email: email}
	}
	if payload.AccessToken == "" || payload.RefreshToken == "" {
		m.metricInc(MetricLoginFailure)
		m.emitAudit(ctx, auditEventLoginFailure, false, payload.Principal.ID, email, ErrInvalidCredentialResponse, func() map[string]string {
			return map[string]string{
				"reason": "missing_tokens",
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
		m.metricInc(MetricLoginFailure)
		m.emitAudit(ctx, auditEventLoginFailure, false, principal.ID, email, err, nil)
		return err
	}

	m.metricInc(MetricLoginSuccess)
	m.emitAudit(ctx, auditEventLoginSuccess, true, principal.ID, email, nil, func() map[string]string {
		return map[string]string{
			"role": m.Current().Role.String(),
		}
	})

	return nil
}
