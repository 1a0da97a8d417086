package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"addressbook/internal/apierr"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestIssueAndParse(t *testing.T) {
	m, err := NewManager(testSecret, time.Hour, nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	tok, issued, err := m.Issue(42)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	got, err := m.Parse(context.Background(), tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.UserID != 42 || got.ID != issued.ID {
		t.Fatalf("claims: want=%+v got=%+v", issued, got)
	}
}

func TestParseRejectsTamperedAndForeignTokens(t *testing.T) {
	m, _ := NewManager(testSecret, time.Hour, nil)
	other, _ := NewManager("ffffffffffffffffffffffffffffffff", time.Hour, nil)
	tok, _, _ := other.Issue(1)

	for name, raw := range map[string]string{
		"foreign": tok,
		"garbage": "not.a.jwt",
		"empty":   "",
	} {
		if _, err := m.Parse(context.Background(), raw); !errors.Is(err, apierr.ErrAuth) {
			t.Fatalf("%s: want ErrAuth, got %v", name, err)
		}
	}
}

func TestParseRejectsExpired(t *testing.T) {
	m, _ := NewManager(testSecret, time.Minute, nil)
	base := time.Now()
	m.now = func() time.Time { return base }
	tok, _, _ := m.Issue(1)

	m.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, err := m.Parse(context.Background(), tok); !errors.Is(err, apierr.ErrAuth) {
		t.Fatalf("want ErrAuth, got %v", err)
	}
}

func TestRevoke(t *testing.T) {
	m, _ := NewManager(testSecret, time.Hour, NewMemoryRevoker())
	ctx := context.Background()
	tok, claims, _ := m.Issue(7)
	keep, _, _ := m.Issue(7)

	if err := m.Revoke(ctx, claims); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := m.Parse(ctx, tok); !errors.Is(err, apierr.ErrAuth) {
		t.Fatalf("revoked token: want ErrAuth, got %v", err)
	}
	if _, err := m.Parse(ctx, keep); err != nil {
		t.Fatalf("other session should survive: %v", err)
	}
}

func TestMemoryRevokerExpires(t *testing.T) {
	r := NewMemoryRevoker()
	base := time.Now()
	r.now = func() time.Time { return base }
	ctx := context.Background()

	_ = r.Revoke(ctx, "a", time.Minute)
	if ok, _ := r.IsRevoked(ctx, "a"); !ok {
		t.Fatal("expected revoked")
	}
	r.now = func() time.Time { return base.Add(time.Hour) }
	if ok, _ := r.IsRevoked(ctx, "a"); ok {
		t.Fatal("entry should have lapsed")
	}
	_ = r.Revoke(ctx, "b", time.Minute)
	if _, ok := r.entries["a"]; ok {
		t.Fatal("lapsed entries should be pruned on write")
	}
}

func TestNewManagerRejectsShortSecret(t *testing.T) {
	if _, err := NewManager("short", time.Hour, nil); err == nil {
		t.Fatal("expected error")
	}
}
