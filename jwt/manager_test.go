package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"strings"
	"testing"
	"time"
)

func testManager(t *testing.T) *Manager {
	t.Helper()

	m, err := NewManager(Config{
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("test-secret-0123456789abcdef"),
		Issuer:        "authflow-test",
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

func TestCreateAndParseAccess(t *testing.T) {
	m := testManager(t)

	tok, err := m.CreateAccess("acct-1", "member")
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}

	claims, err := m.ParseAccess(tok)
	if err != nil {
		t.Fatalf("ParseAccess failed: %v", err)
	}

	if claims.AccountID() != "acct-1" {
		t.Fatalf("AccountID = %q, want acct-1", claims.AccountID())
	}
	if claims.Role != "member" {
		t.Fatalf("Role = %q, want member", claims.Role)
	}
	if claims.Scope != ScopeAccess {
		t.Fatalf("Scope = %q, want access", claims.Scope)
	}
	if claims.ID == "" {
		t.Fatal("expected a jti claim")
	}
}

func TestScopeSeparation(t *testing.T) {
	m := testManager(t)

	access, err := m.CreateAccess("acct-1", "member")
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}
	refresh, err := m.CreateRefresh("acct-1", "member")
	if err != nil {
		t.Fatalf("CreateRefresh failed: %v", err)
	}

	if _, err := m.ParseRefresh(access); !errors.Is(err, ErrWrongScope) {
		t.Fatalf("access token as refresh: expected ErrWrongScope, got %v", err)
	}
	if _, err := m.ParseAccess(refresh); !errors.Is(err, ErrWrongScope) {
		t.Fatalf("refresh token as access: expected ErrWrongScope, got %v", err)
	}
}

func TestParseRejectsTamperedToken(t *testing.T) {
	m := testManager(t)

	tok, err := m.CreateAccess("acct-1", "member")
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}

	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %q", tok)
	}

	// Flip a character in the payload.
	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	if _, err := m.ParseAccess(tampered); err == nil {
		t.Fatal("tampered token must not parse")
	}
}

func TestParseRejectsWrongKey(t *testing.T) {
	m := testManager(t)

	other, err := NewManager(Config{
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("a-completely-different-secret"),
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	tok, err := other.CreateAccess("acct-1", "member")
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}

	if _, err := m.ParseAccess(tok); err == nil {
		t.Fatal("token signed with another key must not parse")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	// Construct directly to mint an already expired token.
	m := &Manager{config: Config{
		AccessTTL:     -time.Minute,
		RefreshTTL:    time.Hour,
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("test-secret-0123456789abcdef"),
		Issuer:        "authflow-test",
	}}

	tok, err := m.CreateAccess("acct-1", "member")
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}

	valid := testManager(t)
	if _, err := valid.ParseAccess(tok); err == nil {
		t.Fatal("expired token must not parse")
	}
}

func TestCreateRequiresAccountID(t *testing.T) {
	m := testManager(t)

	if _, err := m.CreateAccess("", "member"); err == nil {
		t.Fatal("expected error for empty account id")
	}
}

func TestEd25519RoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}

	m, err := NewManager(Config{
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    time.Hour,
		SigningMethod: MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     pub,
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	tok, err := m.CreateRefresh("acct-1", "admin")
	if err != nil {
		t.Fatalf("CreateRefresh failed: %v", err)
	}

	claims, err := m.ParseRefresh(tok)
	if err != nil {
		t.Fatalf("ParseRefresh failed: %v", err)
	}
	if claims.AccountID() != "acct-1" || claims.Role != "admin" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestNewManagerValidation(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"zero access ttl", Config{RefreshTTL: time.Hour, SigningMethod: MethodHS256, PrivateKey: []byte("k")}},
		{"missing key", Config{AccessTTL: time.Minute, RefreshTTL: time.Hour, SigningMethod: MethodHS256}},
		{"unknown method", Config{AccessTTL: time.Minute, RefreshTTL: time.Hour, SigningMethod: "rs256", PrivateKey: []byte("k")}},
		{"excessive leeway", Config{AccessTTL: time.Minute, RefreshTTL: time.Hour, SigningMethod: MethodHS256, PrivateKey: []byte("k"), Leeway: time.Hour}},
		{"ed25519 without public key", Config{AccessTTL: time.Minute, RefreshTTL: time.Hour, SigningMethod: MethodEd25519}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewManager(tc.cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
