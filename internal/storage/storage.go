// Package storage keeps post header images in an object store. MinIO
// serves self-hosted deployments; Google Cloud Storage serves managed
// ones. The backend is selected by config and may be absent entirely, in
// which case image handling is disabled.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/quillpress/server/config"
)

// Backend is implemented per object store. Get returns the stored
// content type alongside the reader so callers can serve the object with
// the type it was uploaded under.
type Backend interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
}

// Images is the image store handed to the HTTP layer.
type Images struct {
	backend Backend
}

// NewImages wraps the provided backend.
func NewImages(backend Backend) *Images {
	return &Images{backend: backend}
}

// FromConfig builds the image store named in cfg. An empty backend name
// yields a nil store.
func FromConfig(ctx context.Context, cfg config.StorageConfig) (*Images, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "":
		return nil, nil
	case "minio":
		backend, err := NewMinio(cfg.Minio)
		if err != nil {
			return nil, err
		}
		return NewImages(backend), nil
	case "gcs":
		backend, err := NewGCS(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		return NewImages(backend), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// EnsureBucket makes sure the image bucket exists, creating it if the
// backend allows that.
func (i *Images) EnsureBucket(ctx context.Context) error {
	return i.backend.EnsureBucket(ctx)
}

// Put stores an image under key.
func (i *Images) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("image key is required")
	}
	return i.backend.Put(ctx, key, r, size, contentType)
}

// Get opens the image stored under key and reports its content type. The
// caller closes the reader.
func (i *Images) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if strings.TrimSpace(key) == "" {
		return nil, "", errors.New("image key is required")
	}
	return i.backend.Get(ctx, key)
}

// Delete removes the image stored under key.
func (i *Images) Delete(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("image key is required")
	}
	return i.backend.Delete(ctx, key)
}
