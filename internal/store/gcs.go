package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCS uploads artifacts to a Google Cloud Storage bucket and returns the
// public object URL. The bucket is assumed to serve objects publicly; the
// URL format is part of the manifest producer contract.
type GCS struct {
	client *storage.Client
	bucket string
}

// NewGCS opens the storage client for the named bucket. Credentials come from
// application-default credentials unless overridden via opts (tests pass a
// custom endpoint).
func NewGCS(ctx context.Context, bucket string, opts ...option.ClientOption) (*GCS, error) {
	if bucket == "" {
		return nil, errors.New("bucket name required")
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCS{client: client, bucket: bucket}, nil
}

// Upload copies the local file into the bucket under objectName and returns
// the public URL.
func (g *GCS) Upload(ctx context.Context, localPath, objectName string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	w := g.client.Bucket(g.bucket).Object(objectName).NewWriter(ctx)
	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("upload %s: %w", objectName, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("upload %s: %w", objectName, err)
	}

	return PublicURL(g.bucket, objectName), nil
}

// Close releases the underlying client.
func (g *GCS) Close() error {
	return g.client.Close()
}

// PublicURL is the https form the consuming app stores in scene records.
func PublicURL(bucket, object string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, object)
}
