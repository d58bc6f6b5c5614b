package box

import (
	"io"
)

// Filesystem abstracts file operations so the import and upload flows can
// run against a mock in tests.
type Filesystem interface {
	// Resolve validates a raw path: it must exist, be absolute after
	// resolution, and be a regular file or directory.
	Resolve(rawPath string) (*Path, error)

	// ListFiles returns the regular files directly inside dir, sorted by
	// name. Subdirectories are not descended into.
	ListFiles(dir *Path) ([]*Path, error)

	// Open opens a file for reading.
	Open(path string) (io.ReadCloser, error)

	// Exists reports whether anything exists at path.
	Exists(path string) (bool, error)

	// HashFile streams the file through SHA-256 and returns the content ID
	// and the byte count.
	HashFile(path string) (contentID string, size int64, err error)

	// CopyFile copies src to dst atomically. The destination appears only
	// complete; a partial copy or a byte count other than expectedSize
	// leaves no file behind and returns an error. An existing dst is
	// never replaced.
	CopyFile(src, dst string, expectedSize int64) (written int64, err error)

	// Remove deletes a single file.
	Remove(path string) error

	// MkdirAll creates a directory and any missing parents.
	MkdirAll(path string) error

	// RemoveAll deletes a path and everything beneath it.
	RemoveAll(path string) error
}
