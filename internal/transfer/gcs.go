package transfer

import (
	"context"
	"fmt"
	"io"
	"path"

	"cloud.google.com/go/storage"

	"shoebox/internal/box"
	"shoebox/internal/config"
)

// GCSTransfer uploads to a Google Cloud Storage bucket. Credentials come
// from the ambient application default credentials.
type GCSTransfer struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSTransfer creates a GCS client for the target configuration.
func NewGCSTransfer(ctx context.Context, cfg config.TargetConfig) (*GCSTransfer, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	return &GCSTransfer{
		client: client,
		bucket: cfg.GCSBucket,
		prefix: cfg.GCSPrefix,
	}, nil
}

// Send writes the content to the bucket object. The object only becomes
// visible when the writer closes cleanly; on a read failure or a size
// mismatch the write is canceled before that, so nothing is committed.
func (t *GCSTransfer) Send(ctx context.Context, key string, r io.Reader, size int64) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	obj := t.client.Bucket(t.bucket).Object(path.Join(t.prefix, key))
	w := obj.NewWriter(ctx)

	written, err := io.Copy(w, r)
	if err != nil {
		cancel()
		w.Close()
		return fmt.Errorf("writing to bucket: %w", err)
	}
	if written != size {
		cancel()
		w.Close()
		return fmt.Errorf("size mismatch: expected %d bytes, wrote %d", size, written)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing upload: %w", err)
	}
	return nil
}

func (t *GCSTransfer) Close() error {
	return t.client.Close()
}

// Compile-time check that GCSTransfer implements box.Transfer
var _ box.Transfer = (*GCSTransfer)(nil)
