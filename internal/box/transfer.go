package box

import (
	"context"
	"io"
)

// Transfer moves file content to one upload target. Implementations exist
// for S3, Google Cloud Storage, local directories, and an in-memory store
// for tests.
type Transfer interface {
	// Send stores the content of r under key. size is the expected byte
	// count; implementations that can verify it must fail on a mismatch.
	// A nil error means the content durably reached the target.
	Send(ctx context.Context, key string, r io.Reader, size int64) error

	// Close releases any client resources held by the transfer.
	Close() error
}
