package authflow

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func registerUnverified(t *testing.T, engine *Engine, email string) {
	t.Helper()

	if _, err := engine.Register(context.Background(), RegisterRequest{
		Name:     "Alice",
		Email:    email,
		Password: "correct-horse-battery",
	}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
}

func TestVerifyEmailSuccessEstablishesSession(t *testing.T) {
	store := newMemStore()
	engine := newTestEngine(t, testConfig(), store, &recordMailer{})

	registerUnverified(t, engine, "alice@example.com")
	code := store.get(t, "alice@example.com").VerificationCode

	result, err := engine.VerifyEmail(context.Background(), "ALICE@example.com", code)
	if err != nil {
		t.Fatalf("VerifyEmail failed: %v", err)
	}

	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatal("verification must land the caller signed in")
	}
	if !result.Account.EmailVerified {
		t.Fatal("result must reflect verified state")
	}

	stored := store.get(t, "alice@example.com")
	if !stored.EmailVerified {
		t.Fatal("account must be verified in the store")
	}
	if stored.VerificationCode != "" || stored.VerificationExpires != nil {
		t.Fatal("verification pair must be cleared after use")
	}
	if !stored.RefreshTokens.Contains(result.RefreshToken) {
		t.Fatal("session must be persisted with the verification")
	}
}

func TestVerifyEmailWrongCode(t *testing.T) {
	store := newMemStore()
	engine := newTestEngine(t, testConfig(), store, &recordMailer{})

	registerUnverified(t, engine, "alice@example.com")
	code := store.get(t, "alice@example.com").VerificationCode

	wrong := "0000"
	if wrong == code {
		wrong = "0001"
	}

	_, err := engine.VerifyEmail(context.Background(), "alice@example.com", wrong)
	if !errors.Is(err, ErrInvalidOrExpired) {
		t.Fatalf("expected ErrInvalidOrExpired, got %v", err)
	}

	if store.get(t, "alice@example.com").EmailVerified {
		t.Fatal("wrong code must not verify the account")
	}
}

func TestVerifyEmailCodeIsSingleUse(t *testing.T) {
	store := newMemStore()
	engine := newTestEngine(t, testConfig(), store, &recordMailer{})

	registerUnverified(t, engine, "alice@example.com")
	code := store.get(t, "alice@example.com").VerificationCode

	if _, err := engine.VerifyEmail(context.Background(), "alice@example.com", code); err != nil {
		t.Fatalf("first VerifyEmail failed: %v", err)
	}

	_, err := engine.VerifyEmail(context.Background(), "alice@example.com", code)
	if !errors.Is(err, ErrAlreadyVerified) {
		t.Fatalf("expected ErrAlreadyVerified on replay, got %v", err)
	}
}

func TestVerifyEmailExpiredCode(t *testing.T) {
	store := newMemStore()
	engine := newTestEngine(t, testConfig(), store, &recordMailer{})

	registerUnverified(t, engine, "alice@example.com")

	stored := store.get(t, "alice@example.com")
	past := time.Now().Add(-time.Second)
	stored.VerificationExpires = &past

	_, err := engine.VerifyEmail(context.Background(), "alice@example.com", stored.VerificationCode)
	if !errors.Is(err, ErrInvalidOrExpired) {
		t.Fatalf("expected ErrInvalidOrExpired, got %v", err)
	}
}

func TestVerifyEmailExpiryIsStrict(t *testing.T) {
	store := newMemStore()
	engine := newTestEngine(t, testConfig(), store, &recordMailer{})

	registerUnverified(t, engine, "alice@example.com")

	// A code exactly at its deadline is already dead.
	stored := store.get(t, "alice@example.com")
	now := time.Now()
	stored.VerificationExpires = &now

	_, err := engine.VerifyEmail(context.Background(), "alice@example.com", stored.VerificationCode)
	if !errors.Is(err, ErrInvalidOrExpired) {
		t.Fatalf("expected ErrInvalidOrExpired at the boundary, got %v", err)
	}
}

func TestVerifyEmailUnknownAccount(t *testing.T) {
	engine := newTestEngine(t, testConfig(), newMemStore(), &recordMailer{})

	_, err := engine.VerifyEmail(context.Background(), "ghost@example.com", "1234")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResendVerificationInvalidatesOldCode(t *testing.T) {
	store := newMemStore()
	mailer := &recordMailer{}
	engine := newTestEngine(t, testConfig(), store, mailer)

	registerUnverified(t, engine, "alice@example.com")
	oldCode := store.get(t, "alice@example.com").VerificationCode

	// Codes can collide in a 4-digit space; retry until they differ.
	var newCode string
	for i := 0; i < 20; i++ {
		result, err := engine.ResendVerification(context.Background(), "alice@example.com")
		if err != nil {
			t.Fatalf("ResendVerification failed: %v", err)
		}
		if result.MailError != nil {
			t.Fatalf("unexpected mail error: %v", result.MailError)
		}
		newCode = store.get(t, "alice@example.com").VerificationCode
		if newCode != oldCode {
			break
		}
	}
	if newCode == oldCode {
		t.Fatal("resend never produced a different code")
	}

	if _, err := engine.VerifyEmail(context.Background(), "alice@example.com", oldCode); !errors.Is(err, ErrInvalidOrExpired) {
		t.Fatalf("old code must be invalid after resend, got %v", err)
	}
	if _, err := engine.VerifyEmail(context.Background(), "alice@example.com", newCode); err != nil {
		t.Fatalf("new code must work: %v", err)
	}

	if !strings.Contains(mailer.last(t).Text, newCode) {
		t.Fatal("resend mail must carry the new code")
	}
}

func TestResendVerificationAlreadyVerified(t *testing.T) {
	store := newMemStore()
	engine := newTestEngine(t, testConfig(), store, &recordMailer{})

	registerVerified(t, engine, store, "alice@example.com")

	_, err := engine.ResendVerification(context.Background(), "alice@example.com")
	if !errors.Is(err, ErrAlreadyVerified) {
		t.Fatalf("expected ErrAlreadyVerified, got %v", err)
	}
}

func TestResendVerificationUnknownAccount(t *testing.T) {
	engine := newTestEngine(t, testConfig(), newMemStore(), &recordMailer{})

	_, err := engine.ResendVerification(context.Background(), "ghost@example.com")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRegisterVerifyLogoutEndToEnd(t *testing.T) {
	store := newMemStore()
	engine := newTestEngine(t, testConfig(), store, &recordMailer{})

	if _, err := engine.Register(context.Background(), RegisterRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "correct-horse-battery",
	}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	code := store.get(t, "alice@example.com").VerificationCode
	session, err := engine.VerifyEmail(context.Background(), "alice@example.com", code)
	if err != nil {
		t.Fatalf("VerifyEmail failed: %v", err)
	}

	if err := engine.Logout(context.Background(), session.RefreshToken); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	if store.get(t, "alice@example.com").RefreshTokens.Len() != 0 {
		t.Fatal("expected no sessions after logout")
	}

	if _, err := engine.Login(context.Background(), "alice@example.com", "correct-horse-battery"); err != nil {
		t.Fatalf("Login after logout failed: %v", err)
	}
}
