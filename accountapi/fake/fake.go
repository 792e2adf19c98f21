// Package fake provides an in-memory account service for testing.
//
// Use fake.New() in unit tests to avoid network calls; accounts, flags,
// and failures are configured through options and mutators.
package fake

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	clinicauth "github.com/ovumlab/clinicauth"
)

var (
	// ErrUnknownAccount is returned for lookups of emails the fake was
	// never told about.
	ErrUnknownAccount = errors.New("fake: unknown account")
	// ErrBadPassword is returned for a wrong password.
	ErrBadPassword = errors.New("fake: invalid email or password")
	// ErrBadToken is returned when a token does not match a live session.
	ErrBadToken = errors.New("fake: invalid access token")
	// ErrBadCode is returned for a wrong verification code.
	ErrBadCode = errors.New("fake: invalid verification code")
)

type account struct {
	principal        clinicauth.PrincipalPayload
	password         string
	banned           bool
	emailVerified    bool
	verificationCode string
	accessToken      string
	refreshToken     string
}

// Option configures the fake service.
type Option func(*Service)

// WithAccount seeds a login-ready account with a verified email.
func WithAccount(email, password, roleName string) Option {
	return func(s *Service) {
		s.accounts[email] = &account{
			principal: clinicauth.PrincipalPayload{
				ID:            uuid.NewString(),
				Email:         email,
				DisplayName:   email,
				Role:          roleName,
				EmailVerified: true,
				Active:        true,
				CreatedAt:     time.Now().UTC(),
				UpdatedAt:     time.Now().UTC(),
			},
			password:      password,
			emailVerified: true,
		}
	}
}

// WithBanned marks a seeded account as banned.
func WithBanned(email string) Option {
	return func(s *Service) {
		if a, ok := s.accounts[email]; ok {
			a.banned = true
		}
	}
}

// WithUnverified marks a seeded account as awaiting email verification
// and sets the code that VerifyEmail will accept.
func WithUnverified(email, code string) Option {
	return func(s *Service) {
		if a, ok := s.accounts[email]; ok {
			a.emailVerified = false
			a.principal.EmailVerified = false
			a.verificationCode = code
		}
	}
}

// WithRegistrationPending makes Register answer with the explicit
// verification-pending flag and no tokens.
func WithRegistrationPending(code string) Option {
	return func(s *Service) {
		s.registerPending = true
		s.pendingCode = code
	}
}

// Service is an in-memory clinicauth.AccountService.
type Service struct {
	mu              sync.Mutex
	accounts        map[string]*account
	registerPending bool
	pendingCode     string
	resendCount     map[string]int

	// Per-operation failure injection. Set directly from tests.
	LoginErr    error
	RegisterErr error
	LogoutErr   error
	CurrentErr  error
	UpdateErr   error
	VerifyErr   error
	ResendErr   error
}

var _ clinicauth.AccountService = (*Service)(nil)

// New builds a fake account service.
func New(opts ...Option) *Service {
	s := &Service{
		accounts:    make(map[string]*account),
		resendCount: make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login implements clinicauth.AccountService.
func (s *Service) Login(_ context.Context, email, password string) (*clinicauth.AuthPayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.LoginErr != nil {
		return nil, s.LoginErr
	}

	a, ok := s.accounts[email]
	if !ok {
		return nil, ErrUnknownAccount
	}
	if a.password != password {
		return nil, ErrBadPassword
	}

	payload := &clinicauth.AuthPayload{
		Principal:     a.principal,
		Banned:        a.banned,
		EmailVerified: a.emailVerified,
	}
	if a.banned || !a.emailVerified {
		return payload, nil
	}

	a.accessToken = uuid.NewString()
	a.refreshToken = uuid.NewString()
	payload.AccessToken = a.accessToken
	payload.RefreshToken = a.refreshToken

	return payload, nil
}

// Register implements clinicauth.AccountService.
func (s *Service) Register(_ context.Context, input clinicauth.RegisterInput) (*clinicauth.AuthPayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.RegisterErr != nil {
		return nil, s.RegisterErr
	}
	if _, exists := s.accounts[input.Email]; exists {
		return nil, errors.New("fake: account already exists")
	}

	a := &account{
		principal: clinicauth.PrincipalPayload{
			ID:          uuid.NewString(),
			Email:       input.Email,
			DisplayName: input.DisplayName,
			Role:        input.Role,
			Phone:       input.Phone,
			Active:      true,
			CreatedAt:   time.Now().UTC(),
			UpdatedAt:   time.Now().UTC(),
		},
		password: input.Password,
	}
	s.accounts[input.Email] = a

	if s.registerPending {
		a.verificationCode = s.pendingCode
		return &clinicauth.AuthPayload{
			Principal:           a.principal,
			VerificationPending: true,
		}, nil
	}

	a.emailVerified = true
	a.principal.EmailVerified = true
	a.accessToken = uuid.NewString()
	a.refreshToken = uuid.NewString()

	return &clinicauth.AuthPayload{
		Principal:     a.principal,
		AccessToken:   a.accessToken,
		RefreshToken:  a.refreshToken,
		EmailVerified: true,
	}, nil
}

// Logout implements clinicauth.AccountService.
func (s *Service) Logout(_ context.Context, accessToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.LogoutErr != nil {
		return s.LogoutErr
	}

	for _, a := range s.accounts {
		if a.accessToken == accessToken {
			a.accessToken = ""
			a.refreshToken = ""
			return nil
		}
	}
	return ErrBadToken
}

// CurrentPrincipal implements clinicauth.AccountService.
func (s *Service) CurrentPrincipal(_ context.Context, accessToken string) (*clinicauth.PrincipalPayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.CurrentErr != nil {
		return nil, s.CurrentErr
	}

	for _, a := range s.accounts {
		if a.accessToken != "" && a.accessToken == accessToken {
			principal := a.principal
			return &principal, nil
		}
	}
	return nil, ErrBadToken
}

// UpdateProfile implements clinicauth.AccountService.
func (s *Service) UpdateProfile(_ context.Context, accessToken string, update clinicauth.ProfileUpdate) (*clinicauth.PrincipalPayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.UpdateErr != nil {
		return nil, s.UpdateErr
	}

	for _, a := range s.accounts {
		if a.accessToken != "" && a.accessToken == accessToken {
			if update.DisplayName != nil {
				a.principal.DisplayName = *update.DisplayName
			}
			if update.Phone != nil {
				a.principal.Phone = *update.Phone
			}
			a.principal.UpdatedAt = time.Now().UTC()
			principal := a.principal
			return &principal, nil
		}
	}
	return nil, ErrBadToken
}

// VerifyEmail implements clinicauth.AccountService.
func (s *Service) VerifyEmail(_ context.Context, email, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.VerifyErr != nil {
		return s.VerifyErr
	}

	a, ok := s.accounts[email]
	if !ok {
		return ErrUnknownAccount
	}
	if a.verificationCode == "" || a.verificationCode != code {
		return ErrBadCode
	}

	a.emailVerified = true
	a.principal.EmailVerified = true
	a.verificationCode = ""
	return nil
}

// ResendVerification implements clinicauth.AccountService.
func (s *Service) ResendVerification(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ResendErr != nil {
		return s.ResendErr
	}

	a, ok := s.accounts[email]
	if !ok {
		return ErrUnknownAccount
	}
	if a.emailVerified {
		return nil
	}

	s.resendCount[email]++
	return nil
}

// ResendCount reports how many verification resends were requested for
// an email.
func (s *Service) ResendCount(email string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resendCount[email]
}

// RevokeToken invalidates an account's live tokens, simulating remote
// expiry between process runs.
func (s *Service) RevokeToken(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.accounts[email]; ok {
		a.accessToken = ""
		a.refreshToken = ""
	}
}

// AccessToken returns the live access token for an email, or "".
func (s *Service) AccessToken(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.accounts[email]; ok {
		return a.accessToken
	}
	return ""
}
