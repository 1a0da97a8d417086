package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"

	"addressbook/internal/logger"
)

// GCS stores blobs as objects under prefix in one bucket, authenticated
// through application default credentials.
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
	log    *logger.Logger
}

func NewGCS(ctx context.Context, bucket, prefix string, log *logger.Logger) (*GCS, error) {
	if bucket == "" {
		return nil, errors.New("GCS_BUCKET is required for the gcs blob backend")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	return &GCS{client: client, bucket: bucket, prefix: prefix, log: log.With("blobstore", "gcs", "bucket", bucket)}, nil
}

func (g *GCS) object(key string) (*storage.ObjectHandle, error) {
	if !ValidKey(key) {
		return nil, fmt.Errorf("invalid blob key %q", key)
	}
	return g.client.Bucket(g.bucket).Object(g.prefix + key), nil
}

func (g *GCS) Put(ctx context.Context, key string, r io.Reader, contentType string) error {
	o, err := g.object(key)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := o.NewWriter(ctx)
	if contentType == "" {
		contentType = ContentTypeFor(key)
	}
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

func (g *GCS) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	o, err := g.object(key)
	if err != nil {
		return nil, ErrNotExist
	}
	rc, err := o.NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, err
	}
	return rc, nil
}

func (g *GCS) Delete(ctx context.Context, key string) error {
	o, err := g.object(key)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := o.Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return ErrNotExist
		}
		g.log.Warn("delete object failed", "key", key, "error", err)
		return fmt.Errorf("failed to delete GCS object %q: %w", key, err)
	}
	return nil
}
