package authflow

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"
)

// collectSink records every event it receives.
type collectSink struct {
	mu     sync.Mutex
	events []AuditEvent
}

func (s *collectSink) Emit(_ context.Context, event AuditEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *collectSink) snapshot() []AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]AuditEvent, len(s.events))
	copy(out, s.events)
	return out
}

func (s *collectSink) find(eventType string) (AuditEvent, bool) {
	for _, e := range s.snapshot() {
		if e.EventType == eventType {
			return e, true
		}
	}
	return AuditEvent{}, false
}

// blockingSink never returns until released, to force dispatcher backpressure.
type blockingSink struct {
	release chan struct{}
}

func (s *blockingSink) Emit(context.Context, AuditEvent) {
	<-s.release
}

func newAuditedEngine(t *testing.T, sink AuditSink) (*Engine, *memStore) {
	t.Helper()

	store := newMemStore()
	engine, err := New().
		WithConfig(testConfig()).
		WithStore(store).
		WithMailer(&recordMailer{}).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine, store
}

func TestAuditEventsFlowToSink(t *testing.T) {
	sink := &collectSink{}
	engine, store := newAuditedEngine(t, sink)

	pass := registerVerified(t, engine, store, "alice@example.com")

	ctx := WithClientIP(context.Background(), "203.0.113.5")
	if _, err := engine.Login(ctx, "alice@example.com", pass); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if _, err := engine.Login(ctx, "alice@example.com", "wrong-password"); err == nil {
		t.Fatal("expected failed login")
	}

	// The dispatcher is async; Close drains it.
	engine.Close()

	success, ok := sink.find(auditEventLoginSuccess)
	if !ok {
		t.Fatal("missing login_success event")
	}
	if !success.Success || success.Email != "alice@example.com" || success.IP != "203.0.113.5" {
		t.Fatalf("unexpected success event: %+v", success)
	}
	if success.Timestamp.IsZero() || time.Since(success.Timestamp) > time.Minute {
		t.Fatalf("implausible timestamp: %v", success.Timestamp)
	}

	failure, ok := sink.find(auditEventLoginFailure)
	if !ok {
		t.Fatal("missing login_failure event")
	}
	if failure.Success || failure.Error != string(auditErrInvalidCredentials) {
		t.Fatalf("unexpected failure event: %+v", failure)
	}

	if _, ok := sink.find(auditEventRegisterSuccess); !ok {
		t.Fatal("missing register_success event")
	}
	if _, ok := sink.find(auditEventVerificationConfirm); !ok {
		t.Fatal("missing verification_confirm event")
	}
}

func TestAuditRevocationEvents(t *testing.T) {
	sink := &collectSink{}
	engine, store := newAuditedEngine(t, sink)

	pass := registerVerified(t, engine, store, "alice@example.com")
	id := store.get(t, "alice@example.com").ID

	if err := engine.ChangePassword(context.Background(), id, pass, "brand-new-password"); err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}

	engine.Close()

	revoked, ok := sink.find(auditEventSessionsRevoked)
	if !ok {
		t.Fatal("missing sessions_revoked event")
	}
	if revoked.Metadata["reason"] != "password_change" {
		t.Fatalf("unexpected revocation metadata: %+v", revoked.Metadata)
	}
	if _, ok := sink.find(auditEventPasswordChangeSuccess); !ok {
		t.Fatal("missing password_change_success event")
	}
}

func TestAuditDispatcherDropsWhenFull(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}

	d := newAuditDispatcher(AuditConfig{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: true,
	}, sink)

	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: "x"})
	}

	dropped := d.Dropped()

	// Unblock the sink before Close so the drain can finish.
	close(sink.release)
	d.Close()

	if dropped == 0 {
		t.Fatal("expected dropped events with a full buffer")
	}
}

func TestAuditDispatcherDisabled(t *testing.T) {
	d := newAuditDispatcher(AuditConfig{Enabled: false}, &collectSink{})
	if d != nil {
		t.Fatal("disabled config must not start a dispatcher")
	}

	// nil dispatcher methods are safe no-ops.
	d.Emit(context.Background(), AuditEvent{})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher reports zero drops")
	}
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: "login_success",
		Email:     "alice@example.com",
		Success:   true,
	})
	sink.Emit(context.Background(), AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: "login_failure",
		Success:   false,
		Error:     "invalid_credentials",
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 JSON lines, got %d", len(lines))
	}

	var first AuditEvent
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("line 1 is not valid JSON: %v", err)
	}
	if first.EventType != "login_success" || first.Email != "alice@example.com" {
		t.Fatalf("unexpected decoded event: %+v", first)
	}
}

func TestChannelSink(t *testing.T) {
	sink := NewChannelSink(4)

	sink.Emit(context.Background(), AuditEvent{EventType: "logout"})

	select {
	case event := <-sink.Events():
		if event.EventType != "logout" {
			t.Fatalf("unexpected event %+v", event)
		}
	default:
		t.Fatal("expected buffered event")
	}
}
