package clinicauth

import (
	"context"
	"time"

	"github.com/ovumlab/clinicauth/role"
	"github.com/ovumlab/clinicauth/store"
)

// Phase is the session lifecycle state published by [Manager.Current].
type Phase uint8

const (
	// PhaseUnauthenticated is the resting state: no principal, no
	// credentials, nothing persisted.
	PhaseUnauthenticated Phase = iota
	// PhaseInitializing is the transient state while [Manager.Boot] decides
	// whether a persisted session can be restored. Guards treat it as
	// "pending", not as a decision.
	PhaseInitializing
	// PhaseAuthenticated means a principal and credential pair are held and
	// role/permissions have been derived from them.
	PhaseAuthenticated
)

func (p Phase) String() string {
	switch p {
	case PhaseUnauthenticated:
		return "unauthenticated"
	case PhaseInitializing:
		return "initializing"
	case PhaseAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Principal is the authenticated identity record, persisted by the store
// subpackage and canonicalized here.
type Principal = store.Principal

// Credential is the opaque token pair owned by the [Manager]. Claims are
// never inspected client-side; tokens are stored and replayed verbatim.
type Credential struct {
	AccessToken  string
	RefreshToken string
}

// Session is the immutable snapshot returned by [Manager.Current]. Role
// and Permissions are always derived from the principal in the same
// mutation that set it; a snapshot never carries a stale pairing.
type Session struct {
	Phase       Phase
	Principal   Principal
	Role        role.Role
	Permissions role.Row
}

// Authenticated reports whether the snapshot holds a live principal.
func (s Session) Authenticated() bool {
	return s.Phase == PhaseAuthenticated
}

// Can reports whether the snapshot's role grants the capability. Always
// false outside [PhaseAuthenticated].
func (s Session) Can(c role.Capability) bool {
	return s.Phase == PhaseAuthenticated && s.Permissions.Has(c)
}

// PrincipalPayload is the identity record as the account service reports
// it. Role is an arbitrary string; it is normalized by the Manager and
// never trusted in this shape.
type PrincipalPayload struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	DisplayName   string    `json:"display_name"`
	Role          string    `json:"role"`
	Phone         string    `json:"phone,omitempty"`
	EmailVerified bool      `json:"email_verified"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AuthPayload is the account service's response to login and register
// calls. Banned and EmailVerified are contractually significant: both are
// checked before either token is trusted or persisted.
// VerificationPending must be asserted explicitly for the
// registered-but-unverified partial success; token absence alone is
// treated as a malformed response.
type AuthPayload struct {
	Principal           PrincipalPayload `json:"principal"`
	AccessToken         string           `json:"access_token,omitempty"`
	RefreshToken        string           `json:"refresh_token,omitempty"`
	Banned              bool             `json:"banned"`
	EmailVerified       bool             `json:"email_verified"`
	VerificationPending bool             `json:"verification_pending"`
}

// RegisterInput is the profile submitted to [Manager.Register]. Validated
// at the Manager boundary before the account service is contacted.
type RegisterInput struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"display_name" validate:"required,min=1"`
	Phone       string `json:"phone,omitempty" validate:"omitempty,e164"`
	Role        string `json:"role,omitempty"`
}

// ProfileUpdate is a partial profile mutation. Nil fields are left
// untouched; the merge is applied locally only after the account service
// accepts it.
type ProfileUpdate struct {
	DisplayName *string `json:"display_name,omitempty" validate:"omitempty,min=1"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,e164"`
}

// AccountService is the external identity collaborator. Implementations
// own transport, timeouts, and retries; the Manager performs none of its
// own. accountapi.Client is the production implementation and
// accountapi/fake serves tests.
type AccountService interface {
	Login(ctx context.Context, email, password string) (*AuthPayload, error)
	Register(ctx context.Context, input RegisterInput) (*AuthPayload, error)
	Logout(ctx context.Context, accessToken string) error
	CurrentPrincipal(ctx context.Context, accessToken string) (*PrincipalPayload, error)
	UpdateProfile(ctx context.Context, accessToken string, update ProfileUpdate) (*PrincipalPayload, error)
	VerifyEmail(ctx context.Context, email, code string) error
	ResendVerification(ctx context.Context, email string) error
}

func principalFromPayload(p PrincipalPayload) Principal {
	return Principal{
		ID:            p.ID,
		Email:         p.Email,
		DisplayName:   p.DisplayName,
		RawRole:       p.Role,
		Phone:         p.Phone,
		EmailVerified: p.EmailVerified,
		Active:        p.Active,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
