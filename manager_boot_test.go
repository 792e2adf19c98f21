package clinicauth

import (
	"context"
	"errors"
	"testing"

	"github.com/ovumlab/clinicauth/role"
)

func TestBootAbsentSession(t *testing.T) {
	m, _ := newTestManager(t, &mockAccountService{})

	if err := m.Boot(context.Background()); err != nil {
		t.Fatalf("Boot failed: %v", err)
	}
	waitRevalidation(t, m)

	if m.Current().Phase != PhaseUnauthenticated {
		t.Fatal("expected unauthenticated after booting with empty store")
	}
	if got := m.MetricsSnapshot().Counters[MetricBootAbsent]; got != 1 {
		t.Fatalf("expected 1 boot absent, got %d", got)
	}
}

func TestBootRoundTripAfterLogin(t *testing.T) {
	payload := testAuthPayload("Lab Technician")
	svc := &mockAccountService{
		loginPayload:   payload,
		currentPayload: &payload.Principal,
	}
	_, rdb := newTestRedis(t)

	first := newTestManagerWithRedis(t, svc, rdb)
	if err := first.Login(context.Background(), "doc@clinic.example", "pw"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	// Fresh manager over the same store simulates a process restart.
	second := newTestManagerWithRedis(t, svc, rdb)
	if err := second.Boot(context.Background()); err != nil {
		t.Fatalf("Boot failed: %v", err)
	}

	sess := second.Current()
	if sess.Phase != PhaseAuthenticated {
		t.Fatalf("expected optimistic restore, got %s", sess.Phase)
	}
	if sess.Role != role.LabTechnician {
		t.Fatalf("expected same canonical role after restart, got %s", sess.Role)
	}

	waitRevalidation(t, second)

	sess = second.Current()
	if sess.Phase != PhaseAuthenticated {
		t.Fatal("expected authenticated after successful revalidation")
	}
	if sess.Role != role.LabTechnician {
		t.Fatalf("expected lab_technician after revalidation, got %s", sess.Role)
	}
	if got := second.MetricsSnapshot().Counters[MetricRevalidationSuccess]; got != 1 {
		t.Fatalf("expected 1 revalidation success, got %d", got)
	}
}

func TestBootRevalidationFailureClearsSession(t *testing.T) {
	payload := testAuthPayload("Doctor")
	svc := &mockAccountService{loginPayload: payload}
	_, rdb := newTestRedis(t)

	first := newTestManagerWithRedis(t, svc, rdb)
	if err := first.Login(context.Background(), "doc@clinic.example", "pw"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	svc.mu.Lock()
	svc.currentErr = errors.New("invalid token")
	svc.mu.Unlock()

	second := newTestManagerWithRedis(t, svc, rdb)
	if err := second.Boot(context.Background()); err != nil {
		t.Fatalf("Boot failed: %v", err)
	}
	waitRevalidation(t, second)

	if second.Current().Phase != PhaseUnauthenticated {
		t.Fatal("expected unauthenticated after failed revalidation")
	}
	present, err := second.store.Present(context.Background())
	if err != nil {
		t.Fatalf("Present failed: %v", err)
	}
	if present {
		t.Fatal("expected store cleared after failed revalidation")
	}
	if got := second.MetricsSnapshot().Counters[MetricRevalidationFailure]; got != 1 {
		t.Fatalf("expected 1 revalidation failure, got %d", got)
	}
}

func TestBootRevalidationPicksUpRemoteChange(t *testing.T) {
	payload := testAuthPayload("Receptionist")
	svc := &mockAccountService{loginPayload: payload}
	_, rdb := newTestRedis(t)

	first := newTestManagerWithRedis(t, svc, rdb)
	if err := first.Login(context.Background(), "doc@clinic.example", "pw"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	// The role changed server-side while the process was down.
	promoted := payload.Principal
	promoted.Role = "Admin"
	svc.mu.Lock()
	svc.currentPayload = &promoted
	svc.mu.Unlock()

	second := newTestManagerWithRedis(t, svc, rdb)
	if err := second.Boot(context.Background()); err != nil {
		t.Fatalf("Boot failed: %v", err)
	}

	if second.Current().Role != role.Receptionist {
		t.Fatalf("optimistic restore should use the cached role, got %s", second.Current().Role)
	}

	waitRevalidation(t, second)

	sess := second.Current()
	if sess.Role != role.Admin {
		t.Fatalf("revalidation must republish role and permissions, got %s", sess.Role)
	}
	if !sess.Can(role.CapManageSystem) {
		t.Fatal("expected admin capability after revalidation")
	}

	// The refreshed principal is persisted, so a third boot restores it
	// without depending on the revalidation pass.
	rec, err := second.store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if rec.Principal.RawRole != "Admin" {
		t.Fatalf("expected persisted raw role Admin, got %q", rec.Principal.RawRole)
	}
}

func TestBootRevalidationDiscardedAfterLogout(t *testing.T) {
	payload := testAuthPayload("Doctor")
	svc := &mockAccountService{
		loginPayload:   payload,
		currentPayload: &payload.Principal,
		currentGate:    make(chan struct{}),
	}
	_, rdb := newTestRedis(t)

	first := newTestManagerWithRedis(t, svc, rdb)
	if err := first.Login(context.Background(), "doc@clinic.example", "pw"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	second := newTestManagerWithRedis(t, svc, rdb)
	if err := second.Boot(context.Background()); err != nil {
		t.Fatalf("Boot failed: %v", err)
	}

	// Log out while the revalidation call is still in flight, then let
	// it complete. Its answer no longer matches a live session and must
	// not re-authenticate or re-persist anything.
	if err := second.Logout(context.Background()); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	close(svc.currentGate)
	waitRevalidation(t, second)

	if got := second.Current().Phase; got != PhaseUnauthenticated {
		t.Fatalf("expected unauthenticated after logout, got %s", got)
	}
	present, err := second.store.Present(context.Background())
	if err != nil {
		t.Fatalf("Present failed: %v", err)
	}
	if present {
		t.Fatal("expected store to stay cleared after logout")
	}
	if got := second.MetricsSnapshot().Counters[MetricRevalidationSuccess]; got != 0 {
		t.Fatalf("expected discarded revalidation not to count as success, got %d", got)
	}
}

func TestBootPartialRecordResetsToUnauthenticated(t *testing.T) {
	payload := testAuthPayload("Doctor")
	svc := &mockAccountService{loginPayload: payload}
	mr, rdb := newTestRedis(t)

	first := newTestManagerWithRedis(t, svc, rdb)
	if err := first.Login(context.Background(), "doc@clinic.example", "pw"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	// Simulate a torn write: one of the three keys is gone.
	mr.Del("clinicauth:session:refresh")

	second := newTestManagerWithRedis(t, svc, rdb)
	if err := second.Boot(context.Background()); err != nil {
		t.Fatalf("Boot failed: %v", err)
	}
	waitRevalidation(t, second)

	if second.Current().Phase != PhaseUnauthenticated {
		t.Fatal("partial record must reset to unauthenticated")
	}
	present, err := second.store.Present(context.Background())
	if err != nil {
		t.Fatalf("Present failed: %v", err)
	}
	if present {
		t.Fatal("expected partial record cleared")
	}
}
