package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/quillpress/server/config"
)

// GCS stores images in a Google Cloud Storage bucket.
type GCS struct {
	client    *gcs.Client
	handle    *gcs.BucketHandle
	projectID string
	bucket    string
}

// NewGCS connects to Cloud Storage using the credentials file from cfg,
// or ambient credentials when none is set.
func NewGCS(ctx context.Context, cfg config.GCSConfig) (*GCS, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("gcs bucket is required")
	}

	var opts []option.ClientOption
	if strings.TrimSpace(cfg.CredentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect gcs: %w", err)
	}

	return &GCS{
		client:    client,
		handle:    client.Bucket(cfg.Bucket),
		projectID: cfg.ProjectID,
		bucket:    cfg.Bucket,
	}, nil
}

func (g *GCS) EnsureBucket(ctx context.Context) error {
	_, err := g.handle.Attrs(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gcs.ErrBucketNotExist) {
		return fmt.Errorf("ensure bucket %s: %w", g.bucket, err)
	}
	if strings.TrimSpace(g.projectID) == "" {
		return errors.New("gcs project id is required to create the bucket")
	}
	return g.handle.Create(ctx, g.projectID, nil)
}

func (g *GCS) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	writer := g.handle.Object(key).NewWriter(ctx)
	if strings.TrimSpace(contentType) != "" {
		writer.ContentType = contentType
	}
	if size > 0 {
		// Images are small; buffer the whole object into one request.
		writer.ChunkSize = 0
	}
	if _, err := io.Copy(writer, r); err != nil {
		_ = writer.Close()
		return fmt.Errorf("put %s: %w", key, err)
	}
	return writer.Close()
}

func (g *GCS) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	reader, err := g.handle.Object(key).NewReader(ctx)
	if err != nil {
		return nil, "", err
	}
	return reader, reader.Attrs.ContentType, nil
}

func (g *GCS) Delete(ctx context.Context, key string) error {
	return g.handle.Object(key).Delete(ctx)
}
