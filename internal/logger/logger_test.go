package logger

import "testing"

func TestSanitizeKVsRedactsSecrets(t *testing.T) {
	got := sanitizeKVs([]interface{}{
		"username", "carol",
		"password", "hunter2",
		"session_token", "abc",
		"Authorization", "Bearer xyz",
		"dangling",
	})
	want := []interface{}{
		"username", "carol",
		"password", "[REDACTED]",
		"session_token", "[REDACTED]",
		"Authorization", "[REDACTED]",
		"dangling",
	}
	if len(got) != len(want) {
		t.Fatalf("len: want=%d got=%d (%v)", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("kv[%d]: want=%v got=%v", i, want[i], got[i])
		}
	}
}

func TestNewModes(t *testing.T) {
	for _, mode := range []string{"dev", "prod", "test"} {
		l, err := New(mode)
		if err != nil {
			t.Fatalf("New(%q): %v", mode, err)
		}
		l.With("component", "test").Debug("hello", "password", "x")
	}
}
