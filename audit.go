package clinicauth

import (
	"context"
	"errors"
	"io"
	"time"

	internalaudit "github.com/ovumlab/clinicauth/internal/audit"
	"github.com/ovumlab/clinicauth/store"
)

// AuditEvent is the event model delivered to audit sinks.
type AuditEvent = internalaudit.Event

// AuditSink receives emitted audit events. Sinks must be safe for
// concurrent use; the dispatcher calls Emit from its own goroutine.
type AuditSink = internalaudit.Sink

// NoOpSink drops audit events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink buffers audit events in a channel, mainly for tests and
// in-process consumers.
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink writes one JSON object per line to an io.Writer.
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink returns a [ChannelSink] with the given buffer.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink returns a [JSONWriterSink] writing to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

const (
	auditEventLoginSuccess       = "login_success"
	auditEventLoginFailure       = "login_failure"
	auditEventLoginBanned        = "login_banned"
	auditEventLoginUnverified    = "login_unverified"
	auditEventRegisterSuccess    = "register_success"
	auditEventRegisterPending    = "register_pending_verification"
	auditEventRegisterFailure    = "register_failure"
	auditEventSessionRestored    = "session_restored"
	auditEventSessionRevalidated = "session_revalidated"
	auditEventSessionInvalidated = "session_invalidated"
	auditEventLogout             = "logout"
	auditEventLogoutRemoteFail   = "logout_remote_failure"
	auditEventProfileRefresh     = "profile_refresh"
	auditEventProfileUpdate      = "profile_update"
	auditEventEmailVerified      = "email_verification_confirm"
	auditEventVerificationResend = "email_verification_resend"
)

// AuditErrorCode is the normalized error identifier recorded in
// [AuditEvent.Error].
type AuditErrorCode string

const (
	auditErrAccountBanned         AuditErrorCode = "account_banned"
	auditErrEmailNotVerified      AuditErrorCode = "email_not_verified"
	auditErrVerificationRequired  AuditErrorCode = "verification_required"
	auditErrVerificationInvalid   AuditErrorCode = "verification_invalid"
	auditErrInvalidCredentials    AuditErrorCode = "invalid_credentials"
	auditErrInvalidCredentialResp AuditErrorCode = "invalid_credential_response"
	auditErrNotAuthenticated      AuditErrorCode = "not_authenticated"
	auditErrStoreUnavailable      AuditErrorCode = "store_unavailable"
	auditErrServiceFailure        AuditErrorCode = "service_failure"
)

func auditErrorCode(err error) AuditErrorCode {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAccountBanned):
		return auditErrAccountBanned
	case errors.Is(err, ErrEmailNotVerified):
		return auditErrEmailNotVerified
	case errors.Is(err, ErrEmailVerificationRequired):
		return auditErrVerificationRequired
	case errors.Is(err, ErrVerificationInvalid):
		return auditErrVerificationInvalid
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrInvalidCredentialResponse):
		return auditErrInvalidCredentialResp
	case errors.Is(err, ErrNotAuthenticated):
		return auditErrNotAuthenticated
	case errors.Is(err, store.ErrRedisUnavailable):
		return auditErrStoreUnavailable
	default:
		return auditErrServiceFailure
	}
}

func (m *Manager) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	principalID string,
	email string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if m == nil || m.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}
	if ua := userAgentFromContext(ctx); ua != "" {
		if metadata == nil {
			metadata = map[string]string{}
		}
		metadata["user_agent"] = ua
	}

	event := AuditEvent{
		EventID:     internalaudit.NewEventID(),
		Timestamp:   time.Now().UTC(),
		EventType:   eventType,
		PrincipalID: principalID,
		Email:       email,
		IP:          clientIPFromContext(ctx),
		Success:     success,
		Metadata:    metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	m.audit.Emit(ctx, event)
}
