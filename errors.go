package clinicauth

import (
	"errors"
	"fmt"

	"github.com/ovumlab/clinicauth/store"
)

var (
	// ErrAccountBanned is returned by [Manager.Login] and [Manager.Register]
	// when the account service reports the account as banned. It is checked
	// before any token is persisted.
	ErrAccountBanned = errors.New("account banned")
	// ErrEmailNotVerified is the login-time verification gate. The concrete
	// error is an [EmailNotVerifiedError] carrying the still-unauthenticated
	// email; match with errors.Is against this sentinel.
	ErrEmailNotVerified = errors.New("email not verified")
	// ErrEmailVerificationRequired is the post-registration variant: the
	// account was created but verification is outstanding, and the returned
	// principal is held in memory only. Distinct from [ErrEmailNotVerified]
	// so callers can render the two flows differently.
	ErrEmailVerificationRequired = errors.New("email verification required")
	// ErrInvalidCredentialResponse is returned when the account service
	// claims success but the payload is missing required tokens or flags.
	ErrInvalidCredentialResponse = errors.New("invalid credential response")
	// ErrInvalidCredentials is returned for empty login input before the
	// account service is contacted.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotAuthenticated is returned by operations that require an
	// authenticated session (profile refresh and update, logout of a remote
	// session).
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrManagerNotReady is returned when a Manager is used before
	// [Builder.Build] wired its dependencies.
	ErrManagerNotReady = errors.New("manager not initialized")
	// ErrVerificationInvalid is returned by [Manager.VerifyEmail] for an
	// empty email or code.
	ErrVerificationInvalid = errors.New("email verification challenge invalid")
)

// ErrStoreUnavailable wraps transport-level session store failures. It is
// the same sentinel the store package uses, re-exported so callers need
// only import clinicauth.
var ErrStoreUnavailable = store.ErrRedisUnavailable

// EmailNotVerifiedError carries the email that failed the login-time
// verification gate so the caller can route to the verification page
// without an authenticated session. Matches [ErrEmailNotVerified] under
// errors.Is.
type EmailNotVerifiedError struct {
	Email string
}

func (e *EmailNotVerifiedError) Error() string {
	return fmt.Sprintf("email not verified: %s", e.Email)
}

func (e *EmailNotVerifiedError) Is(target error) bool {
	return target == ErrEmailNotVerified
}
