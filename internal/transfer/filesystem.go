// Package transfer implements box.Transfer for the supported upload
// targets: S3, Google Cloud Storage, local directories, and an in-memory
// store for tests.
package transfer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"shoebox/internal/box"
)

// FileSystemTransfer copies uploads into a local directory, typically a
// mounted external drive or network share.
type FileSystemTransfer struct {
	name string
	root string
}

// NewFileSystemTransfer creates a transfer writing into root, creating
// the directory if needed.
func NewFileSystemTransfer(name, root string) (*FileSystemTransfer, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating target directory: %w", err)
	}
	return &FileSystemTransfer{name: name, root: root}, nil
}

// Send stores the content under key inside the target directory. Keys are
// stored names, which are bound to content, so an existing file with the
// same key is the same upload retried: the reader is drained and verified
// instead of rewritten.
func (t *FileSystemTransfer) Send(ctx context.Context, key string, r io.Reader, size int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	destPath := filepath.Join(t.root, key)
	if _, err := os.Stat(destPath); err == nil {
		written, err := io.Copy(io.Discard, r)
		if err != nil {
			return fmt.Errorf("reading content: %w", err)
		}
		if written != size {
			return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, written)
		}
		return nil
	}

	return t.writeFile(destPath, r, size)
}

// writeFile writes atomically: temp file in the target directory, rename
// into place only after the byte count checks out.
func (t *FileSystemTransfer) writeFile(destPath string, r io.Reader, expectedSize int64) error {
	tmpFile, err := os.CreateTemp(t.root, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing content: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	success = true
	return nil
}

func (t *FileSystemTransfer) Close() error {
	return nil
}

// Compile-time check that FileSystemTransfer implements box.Transfer
var _ box.Transfer = (*FileSystemTransfer)(nil)
