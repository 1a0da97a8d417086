package identity_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"addressbook/internal/apierr"
	"addressbook/internal/blobstore"
	"addressbook/internal/identity"
	"addressbook/internal/logger"
	"addressbook/internal/models"
	"addressbook/internal/testdb"
)

func newTestStore(t *testing.T) identity.Store {
	t.Helper()
	return identity.NewStoreWithCost(testdb.Open(t), logger.Nop(), bcrypt.MinCost)
}

func register(t *testing.T, s identity.Store, username, email, password string) *models.User {
	t.Helper()
	u, err := s.Register(context.Background(), identity.RegisterInput{Username: username, Email: email, Password: password})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return u
}

func TestRegisterHashesPassword(t *testing.T) {
	s := newTestStore(t)
	u := register(t, s, "alice", "alice@example.com", "s3cret!")

	if u.PasswordHash == "" || strings.Contains(u.PasswordHash, "s3cret!") {
		t.Fatalf("password stored in the clear: %q", u.PasswordHash)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("s3cret!")); err != nil {
		t.Fatalf("hash does not verify: %v", err)
	}
	if u.Avatar != models.DefaultAvatar {
		t.Fatalf("avatar: want=%q got=%q", models.DefaultAvatar, u.Avatar)
	}
}

func TestRegisterConflicts(t *testing.T) {
	s := newTestStore(t)
	register(t, s, "alice", "alice@example.com", "pw1234")

	cases := []identity.RegisterInput{
		{Username: "alice", Email: "other@example.com", Password: "pw1234"},
		{Username: "alice2", Email: "alice@example.com", Password: "pw1234"},
	}
	for _, in := range cases {
		_, err := s.Register(context.Background(), in)
		if !errors.Is(err, apierr.ErrConflict) {
			t.Fatalf("%+v: want ErrConflict, got %v", in, err)
		}
	}
}

func TestAuthenticate(t *testing.T) {
	s := newTestStore(t)
	want := register(t, s, "alice", "alice@example.com", "pw1234")
	ctx := context.Background()

	got, err := s.Authenticate(ctx, "alice@example.com", "pw1234")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != want.ID {
		t.Fatalf("user: want=%d got=%d", want.ID, got.ID)
	}
	if _, err := s.Authenticate(ctx, "alice@example.com", "wrong"); !errors.Is(err, apierr.ErrAuth) {
		t.Fatalf("wrong password: want ErrAuth, got %v", err)
	}
	if _, err := s.Authenticate(ctx, "nobody@example.com", "pw1234"); !errors.Is(err, apierr.ErrAuth) {
		t.Fatalf("unknown email: want ErrAuth, got %v", err)
	}
}

func TestFinders(t *testing.T) {
	s := newTestStore(t)
	u := register(t, s, "alice", "alice@example.com", "pw1234")
	ctx := context.Background()

	if got, err := s.FindByUsername(ctx, "alice"); err != nil || got.ID != u.ID {
		t.Fatalf("by username: %v %v", got, err)
	}
	if got, err := s.FindByEmail(ctx, "alice@example.com"); err != nil || got.ID != u.ID {
		t.Fatalf("by email: %v %v", got, err)
	}
	if _, err := s.FindByID(ctx, 4242); !errors.Is(err, apierr.ErrNotFound) {
		t.Fatalf("by id: want ErrNotFound, got %v", err)
	}
}

func TestAvatarUploadReplacesPrevious(t *testing.T) {
	s := newTestStore(t)
	u := register(t, s, "alice", "alice@example.com", "pw1234")
	blobs, err := blobstore.NewLocal(filepath.Join(t.TempDir(), "uploads"))
	if err != nil {
		t.Fatalf("blobs: %v", err)
	}
	svc := identity.NewAvatarService(s, blobs, logger.Nop())
	ctx := context.Background()

	first, err := svc.Upload(ctx, u.ID, "me.png", strings.NewReader("one"))
	if err != nil {
		t.Fatalf("first upload: %v", err)
	}
	if want := fmt.Sprintf("user_%d_me.png", u.ID); first != want {
		t.Fatalf("key: want=%q got=%q", want, first)
	}

	// same filename again must not delete the file it just wrote
	again, err := svc.Upload(ctx, u.ID, "me.png", strings.NewReader("two"))
	if err != nil || again != first {
		t.Fatalf("re-upload: key=%q err=%v", again, err)
	}
	rc, err := svc.Open(ctx, first)
	if err != nil {
		t.Fatalf("open after re-upload: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "two" {
		t.Fatalf("content: got=%q", data)
	}

	second, err := svc.Upload(ctx, u.ID, "new.gif", strings.NewReader("three"))
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}
	if _, err := svc.Open(ctx, first); !errors.Is(err, apierr.ErrNotFound) {
		t.Fatalf("previous avatar should be gone, got %v", err)
	}
	reloaded, _ := s.FindByID(ctx, u.ID)
	if reloaded.Avatar != second {
		t.Fatalf("avatar: want=%q got=%q", second, reloaded.Avatar)
	}
}

func TestAvatarRejectsExtension(t *testing.T) {
	s := newTestStore(t)
	u := register(t, s, "alice", "alice@example.com", "pw1234")
	blobs, _ := blobstore.NewLocal(t.TempDir())
	svc := identity.NewAvatarService(s, blobs, logger.Nop())

	_, err := svc.Upload(context.Background(), u.ID, "evil.svg", strings.NewReader("<svg/>"))
	if !errors.Is(err, apierr.ErrUnsupportedMedia) {
		t.Fatalf("want ErrUnsupportedMedia, got %v", err)
	}
	reloaded, _ := s.FindByID(context.Background(), u.ID)
	if reloaded.Avatar != models.DefaultAvatar {
		t.Fatalf("avatar changed: %q", reloaded.Avatar)
	}
}

// failingAvatarStore rejects avatar updates so the upload path has to
// clean up the blob it already wrote.
type failingAvatarStore struct {
	identity.Store
}

func (failingAvatarStore) UpdateAvatar(context.Context, uint, string) (string, error) {
	return "", errors.New("db unavailable")
}

func TestAvatarUploadRemovesBlobWhenUpdateFails(t *testing.T) {
	s := newTestStore(t)
	u := register(t, s, "alice", "alice@example.com", "pw1234")
	blobs, _ := blobstore.NewLocal(t.TempDir())
	svc := identity.NewAvatarService(failingAvatarStore{Store: s}, blobs, logger.Nop())
	ctx := context.Background()

	if _, err := svc.Upload(ctx, u.ID, "me.png", strings.NewReader("one")); err == nil {
		t.Fatal("expected upload error")
	}
	key := blobstore.AvatarKey(u.ID, "me.png")
	if _, err := blobs.Open(ctx, key); !errors.Is(err, blobstore.ErrNotExist) {
		t.Fatalf("orphaned blob %q left behind: %v", key, err)
	}
	reloaded, _ := s.FindByID(ctx, u.ID)
	if reloaded.Avatar != models.DefaultAvatar {
		t.Fatalf("avatar changed: %q", reloaded.Avatar)
	}
}
