package identity

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"addressbook/internal/apierr"
	"addressbook/internal/blobstore"
	"addressbook/internal/logger"
	"addressbook/internal/models"
)

var avatarExtensions = map[string]bool{"png": true, "jpg": true, "jpeg": true, "gif": true}

func AllowedAvatar(filename string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	return avatarExtensions[ext]
}

type AvatarService struct {
	users Store
	blobs blobstore.Store
	log   *logger.Logger
}

func NewAvatarService(users Store, blobs blobstore.Store, baseLog *logger.Logger) *AvatarService {
	return &AvatarService{users: users, blobs: blobs, log: baseLog.With("service", "AvatarService")}
}

// Upload stores the image under a per-user key, points the user at it and
// removes the previous custom avatar. It returns the new key.
func (s *AvatarService) Upload(ctx context.Context, userID uint, filename string, r io.Reader) (string, error) {
	if !AllowedAvatar(filename) {
		return "", apierr.UnsupportedMedia("avatar must be png, jpg, jpeg or gif")
	}
	key := blobstore.AvatarKey(userID, filename)
	if err := s.blobs.Put(ctx, key, r, blobstore.ContentTypeFor(key)); err != nil {
		return "", err
	}
	previous, err := s.users.UpdateAvatar(ctx, userID, key)
	if err != nil {
		s.discard(ctx, userID, key)
		return "", err
	}
	if previous != "" && previous != models.DefaultAvatar && previous != key {
		if err := s.blobs.Delete(ctx, previous); err != nil && !errors.Is(err, blobstore.ErrNotExist) {
			s.log.Warn("failed to remove previous avatar", "user_id", userID, "key", previous, "error", err)
		}
	}
	s.log.Info("avatar updated", "user_id", userID, "key", key)
	return key, nil
}

// discard removes a blob written for a failed update, unless the user
// already points at that key.
func (s *AvatarService) discard(ctx context.Context, userID uint, key string) {
	if u, err := s.users.FindByID(ctx, userID); err == nil && u.Avatar == key {
		return
	}
	if err := s.blobs.Delete(ctx, key); err != nil && !errors.Is(err, blobstore.ErrNotExist) {
		s.log.Warn("failed to remove orphaned avatar", "user_id", userID, "key", key, "error", err)
	}
}

// Open streams a stored avatar.
func (s *AvatarService) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, err := s.blobs.Open(ctx, key)
	if errors.Is(err, blobstore.ErrNotExist) {
		return nil, apierr.NotFound("file %s", key)
	}
	return rc, err
}
