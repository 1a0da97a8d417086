package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSecureFilename(t *testing.T) {
	cases := map[string]string{
		"photo.png":           "photo.png",
		"my photo.png":        "my_photo.png",
		"../../etc/passwd":    "etc_passwd",
		`C:\Users\me\pic.jpg`: "C_Users_me_pic.jpg",
		"a/../b.gif":          "a_b.gif",
		"...hidden.png":       "hidden.png",
		"头像.png":              "png",
		"":                    "",
	}
	for in, want := range cases {
		if got := SecureFilename(in); got != want {
			t.Fatalf("SecureFilename(%q): want=%q got=%q", in, want, got)
		}
	}
}

func TestAvatarKey(t *testing.T) {
	cases := []struct {
		id   uint
		name string
		want string
	}{
		{7, "me.png", "user_7_me.png"},
		{7, "../me.JPG", "user_7_me.JPG"},
		{3, "头像.png", "user_3_avatar.png"},
		{3, "头像.GIF", "user_3_avatar.gif"},
	}
	for _, tc := range cases {
		if got := AvatarKey(tc.id, tc.name); got != tc.want {
			t.Fatalf("AvatarKey(%d, %q): want=%q got=%q", tc.id, tc.name, tc.want, got)
		}
		if !ValidKey(AvatarKey(tc.id, tc.name)) {
			t.Fatalf("AvatarKey(%d, %q) produced an invalid key", tc.id, tc.name)
		}
	}
}

func TestValidKey(t *testing.T) {
	for _, k := range []string{"", ".", "..", "a/b", `a\b`, "../x", ".env"} {
		if ValidKey(k) {
			t.Fatalf("%q should be invalid", k)
		}
	}
	for _, k := range []string{"default.png", "user_1_a.png"} {
		if !ValidKey(k) {
			t.Fatalf("%q should be valid", k)
		}
	}
}

func TestLocalLifecycle(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	s, err := NewLocal(dir)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	ctx := context.Background()

	if err := s.Put(ctx, "user_1_a.png", strings.NewReader("PNGDATA"), "image/png"); err != nil {
		t.Fatalf("put: %v", err)
	}
	rc, err := s.Open(ctx, "user_1_a.png")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "PNGDATA" {
		t.Fatalf("content: got=%q", data)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}

	if err := s.Delete(ctx, "user_1_a.png"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Open(ctx, "user_1_a.png"); !errors.Is(err, ErrNotExist) {
		t.Fatalf("open after delete: want ErrNotExist, got %v", err)
	}
	if err := s.Delete(ctx, "user_1_a.png"); !errors.Is(err, ErrNotExist) {
		t.Fatalf("double delete: want ErrNotExist, got %v", err)
	}
	if err := s.Put(ctx, "../escape.png", strings.NewReader("x"), ""); err == nil {
		t.Fatal("expected invalid key error")
	}
}

func TestContentTypeFor(t *testing.T) {
	if got := ContentTypeFor("a.JPEG"); got != "image/jpeg" {
		t.Fatalf("got=%q", got)
	}
	if got := ContentTypeFor("a.bin"); got != "application/octet-stream" {
		t.Fatalf("got=%q", got)
	}
}
