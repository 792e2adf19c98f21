package fake

import (
	"context"
	"errors"
	"testing"

	clinicauth "github.com/ovumlab/clinicauth"
)

func TestLoginFlags(t *testing.T) {
	svc := New(
		WithAccount("ok@x.com", "pw", "Doctor"),
		WithAccount("banned@x.com", "pw", "Doctor"),
		WithBanned("banned@x.com"),
		WithAccount("unverified@x.com", "pw", "Patient"),
		WithUnverified("unverified@x.com", "123456"),
	)
	ctx := context.Background()

	ok, err := svc.Login(ctx, "ok@x.com", "pw")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if ok.AccessToken == "" || ok.RefreshToken == "" || !ok.EmailVerified || ok.Banned {
		t.Fatalf("unexpected payload %+v", ok)
	}

	banned, err := svc.Login(ctx, "banned@x.com", "pw")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !banned.Banned || banned.AccessToken != "" {
		t.Fatalf("banned account must not receive tokens: %+v", banned)
	}

	unverified, err := svc.Login(ctx, "unverified@x.com", "pw")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if unverified.EmailVerified || unverified.AccessToken != "" {
		t.Fatalf("unverified account must not receive tokens: %+v", unverified)
	}

	if _, err := svc.Login(ctx, "ok@x.com", "wrong"); !errors.Is(err, ErrBadPassword) {
		t.Fatalf("expected ErrBadPassword, got %v", err)
	}
	if _, err := svc.Login(ctx, "ghost@x.com", "pw"); !errors.Is(err, ErrUnknownAccount) {
		t.Fatalf("expected ErrUnknownAccount, got %v", err)
	}
}

func TestVerifyEmailUnlocksLogin(t *testing.T) {
	svc := New(
		WithAccount("u@x.com", "pw", "Patient"),
		WithUnverified("u@x.com", "123456"),
	)
	ctx := context.Background()

	if err := svc.VerifyEmail(ctx, "u@x.com", "999999"); !errors.Is(err, ErrBadCode) {
		t.Fatalf("expected ErrBadCode, got %v", err)
	}
	if err := svc.VerifyEmail(ctx, "u@x.com", "123456"); err != nil {
		t.Fatalf("VerifyEmail failed: %v", err)
	}

	payload, err := svc.Login(ctx, "u@x.com", "pw")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !payload.EmailVerified || payload.AccessToken == "" {
		t.Fatalf("expected verified login with tokens, got %+v", payload)
	}
}

func TestRegistrationPending(t *testing.T) {
	svc := New(WithRegistrationPending("654321"))
	ctx := context.Background()

	payload, err := svc.Register(ctx, clinicauth.RegisterInput{
		Email:       "new@x.com",
		Password:    "long-enough-pw",
		DisplayName: "New",
		Role:        "Patient",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if !payload.VerificationPending || payload.AccessToken != "" {
		t.Fatalf("expected pending payload without tokens, got %+v", payload)
	}

	if err := svc.VerifyEmail(ctx, "new@x.com", "654321"); err != nil {
		t.Fatalf("VerifyEmail failed: %v", err)
	}
	if _, err := svc.Login(ctx, "new@x.com", "long-enough-pw"); err != nil {
		t.Fatalf("Login after verification failed: %v", err)
	}
}

func TestTokenLifecycle(t *testing.T) {
	svc := New(WithAccount("doc@x.com", "pw", "Doctor"))
	ctx := context.Background()

	payload, err := svc.Login(ctx, "doc@x.com", "pw")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	principal, err := svc.CurrentPrincipal(ctx, payload.AccessToken)
	if err != nil {
		t.Fatalf("CurrentPrincipal failed: %v", err)
	}
	if principal.Email != "doc@x.com" {
		t.Fatalf("unexpected principal %+v", principal)
	}

	if tok := svc.AccessToken("doc@x.com"); tok != payload.AccessToken {
		t.Fatalf("expected matching live token, got %q", tok)
	}

	svc.RevokeToken("doc@x.com")
	if _, err := svc.CurrentPrincipal(ctx, payload.AccessToken); !errors.Is(err, ErrBadToken) {
		t.Fatalf("expected ErrBadToken after revoke, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	svc := New(WithAccount("doc@x.com", "pw", "Doctor"))
	ctx := context.Background()

	payload, err := svc.Login(ctx, "doc@x.com", "pw")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	name := "Renamed"
	updated, err := svc.UpdateProfile(ctx, payload.AccessToken, clinicauth.ProfileUpdate{DisplayName: &name})
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if updated.DisplayName != "Renamed" {
		t.Fatalf("unexpected profile %+v", updated)
	}

	again, err := svc.CurrentPrincipal(ctx, payload.AccessToken)
	if err != nil {
		t.Fatalf("CurrentPrincipal failed: %v", err)
	}
	if again.DisplayName != "Renamed" {
		t.Fatal("expected update visible on subsequent reads")
	}
}

func TestResendVerification(t *testing.T) {
	svc := New(
		WithAccount("u@x.com", "pw", "Patient"),
		WithUnverified("u@x.com", "123456"),
	)
	ctx := context.Background()

	if err := svc.ResendVerification(ctx, "u@x.com"); err != nil {
		t.Fatalf("ResendVerification failed: %v", err)
	}
	if got := svc.ResendCount("u@x.com"); got != 1 {
		t.Fatalf("expected 1 resend, got %d", got)
	}
	if err := svc.ResendVerification(ctx, "ghost@x.com"); !errors.Is(err, ErrUnknownAccount) {
		t.Fatalf("expected ErrUnknownAccount, got %v", err)
	}
}
