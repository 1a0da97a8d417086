package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode"

	"addressbook/internal/config"
	"addressbook/internal/logger"
)

var ErrNotExist = errors.New("blob does not exist")

// Store persists uploaded files under flat keys.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (Store, error) {
	switch cfg.BlobBackend {
	case "", "local":
		return NewLocal(cfg.UploadDir)
	case "s3":
		return NewS3(ctx, cfg.S3Bucket, cfg.S3Prefix, cfg.S3Endpoint, log)
	case "gcs":
		return NewGCS(ctx, cfg.GCSBucket, cfg.GCSPrefix, log)
	default:
		return nil, fmt.Errorf("unsupported BLOB_BACKEND %q", cfg.BlobBackend)
	}
}

// ValidKey rejects keys that could escape a flat namespace.
func ValidKey(key string) bool {
	return key != "" && key != "." && key != ".." &&
		!strings.ContainsAny(key, `/\`) && key == SecureFilename(key)
}

// SecureFilename reduces name to ASCII letters, digits, '.', '_' and '-',
// turning whitespace runs into '_' and trimming leading dots and
// underscores, so "../../etc/passwd" becomes "etc_passwd".
func SecureFilename(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	var b strings.Builder
	lastUnderscore := false
	for _, r := range name {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '-'):
			b.WriteRune(r)
			lastUnderscore = false
		case r == '_' || r == '/' || unicode.IsSpace(r):
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "._")
	out = strings.ReplaceAll(out, "_._", "_")
	out = strings.ReplaceAll(out, "_.._", "_")
	return strings.Trim(out, "._")
}

// AvatarKey namespaces an uploaded avatar per user.
func AvatarKey(userID uint, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	name := SecureFilename(filename)
	if name == "" || strings.ToLower(filepath.Ext(name)) != ext {
		// non-ASCII names can sanitize away entirely
		name = "avatar"
		if e := SecureFilename(ext); e != "" {
			name += "." + e
		}
	}
	return fmt.Sprintf("user_%d_%s", userID, name)
}

func ContentTypeFor(key string) string {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}
