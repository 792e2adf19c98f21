package clinicauth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type mockAccountService struct {
	mu sync.Mutex

	loginPayload    *AuthPayload
	loginErr        error
	registerPayload *AuthPayload
	registerErr     error
	logoutErr       error
	currentPayload  *PrincipalPayload
	currentErr      error
	currentGate     chan struct{}
	updatePayload   *PrincipalPayload
	updateErr       error
	verifyErr       error
	resendErr       error

	loginCalls    int
	registerCalls int
	logoutCalls   int
	currentCalls  int
	updateCalls   int
	verifyCalls   int
	resendCalls   int

	lastVerifyEmail string
	lastVerifyCode  string
	lastUpdate      ProfileUpdate
}

func (m *mockAccountService) Login(_ context.Context, _, _ string) (*AuthPayload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loginCalls++
	if m.loginErr != nil {
		return nil, m.loginErr
	}
	return clonePayload(m.loginPayload), nil
}

func (m *mockAccountService) Register(_ context.Context, _ RegisterInput) (*AuthPayload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registerCalls++
	if m.registerErr != nil {
		return nil, m.registerErr
	}
	return clonePayload(m.registerPayload), nil
}

func (m *mockAccountService) Logout(_ context.Context, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logoutCalls++
	return m.logoutErr
}

func (m *mockAccountService) CurrentPrincipal(_ context.Context, _ string) (*PrincipalPayload, error) {
	m.mu.Lock()
	gate := m.currentGate
	m.mu.Unlock()
	if gate != nil {
		<-gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentCalls++
	if m.currentErr != nil {
		return nil, m.currentErr
	}
	return clonePrincipalPayload(m.currentPayload), nil
}

func (m *mockAccountService) UpdateProfile(_ context.Context, _ string, update ProfileUpdate) (*PrincipalPayload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	m.lastUpdate = update
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	return clonePrincipalPayload(m.updatePayload), nil
}

func (m *mockAccountService) VerifyEmail(_ context.Context, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifyCalls++
	m.lastVerifyEmail = email
	m.lastVerifyCode = code
	return m.verifyErr
}

func (m *mockAccountService) ResendVerification(_ context.Context, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resendCalls++
	return m.resendErr
}

func clonePayload(p *AuthPayload) *AuthPayload {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

func clonePrincipalPayload(p *PrincipalPayload) *PrincipalPayload {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return mr, rdb
}

func newTestManager(t *testing.T, svc AccountService) (*Manager, *miniredis.Miniredis) {
	t.Helper()

	mr, rdb := newTestRedis(t)
	return newTestManagerWithRedis(t, svc, rdb), mr
}

func newTestManagerWithRedis(t *testing.T, svc AccountService, rdb redis.UniversalClient) *Manager {
	t.Helper()

	m, err := New().
		WithRedis(rdb).
		WithAccountService(svc).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(m.Close)

	return m
}

func testAuthPayload(rawRole string) *AuthPayload {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	return &AuthPayload{
		Principal: PrincipalPayload{
			ID:            "p1",
			Email:         "doc@clinic.example",
			DisplayName:   "Dr. Vega",
			Role:          rawRole,
			EmailVerified: true,
			Active:        true,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		AccessToken:   "access-1",
		RefreshToken:  "refresh-1",
		EmailVerified: true,
	}
}

func waitRevalidation(t *testing.T, m *Manager) {
	t.Helper()

	select {
	case <-m.RevalidationDone():
	case <-time.After(2 * time.Second):
		t.Fatal("revalidation did not finish")
	}
}

func TestBuilderRequiresDependencies(t *testing.T) {
	_, rdb := newTestRedis(t)

	if _, err := New().WithAccountService(&mockAccountService{}).Build(); err == nil {
		t.Fatal("expected error without redis client")
	}
	if _, err := New().WithRedis(rdb).Build(); err == nil {
		t.Fatal("expected error without account service")
	}

	b := New().WithRedis(rdb).WithAccountService(&mockAccountService{})
	if _, err := b.Build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if _, err := b.Build(); err == nil {
		t.Fatal("expected error on builder reuse")
	}
}

func TestPingReportsStoreAvailability(t *testing.T) {
	m, mr := newTestManager(t, &mockAccountService{})

	if _, err := m.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}

	mr.Close()
	if _, err := m.Ping(context.Background()); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected store unavailable, got %v", err)
	}
}

func TestCurrentBeforeBoot(t *testing.T) {
	m, _ := newTestManager(t, &mockAccountService{})

	sess := m.Current()
	if sess.Phase != PhaseUnauthenticated {
		t.Fatalf("expected unauthenticated, got %s", sess.Phase)
	}
	if sess.Authenticated() {
		t.Fatal("expected not authenticated")
	}
}
