// Package fs implements box.Filesystem against the real OS filesystem.
package fs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"shoebox/internal/box"
)

// OSFilesystem performs real filesystem operations using the os package.
type OSFilesystem struct{}

// NewOSFilesystem creates a filesystem backed by the OS.
func NewOSFilesystem() *OSFilesystem {
	return &OSFilesystem{}
}

// Resolve validates a raw path and returns a Path object.
func (m *OSFilesystem) Resolve(rawPath string) (*box.Path, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat path: %w", err)
	}

	// Special files cannot be hashed or copied meaningfully.
	mode := info.Mode()
	if mode&os.ModeSymlink != 0 {
		return nil, fmt.Errorf("symlinks not supported: %s", absPath)
	}
	if mode&os.ModeDevice != 0 {
		return nil, fmt.Errorf("device files not supported: %s", absPath)
	}
	if mode&os.ModeNamedPipe != 0 {
		return nil, fmt.Errorf("named pipes not supported: %s", absPath)
	}
	if mode&os.ModeSocket != 0 {
		return nil, fmt.Errorf("sockets not supported: %s", absPath)
	}

	return box.NewPath(absPath, info.IsDir(), info), nil
}

// ListFiles returns the regular files directly inside dir, in name order.
// Subdirectories and special files are skipped, not descended into.
func (m *OSFilesystem) ListFiles(dir *box.Path) ([]*box.Path, error) {
	if !dir.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir)
	}

	entries, err := os.ReadDir(dir.String())
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}

	var paths []*box.Path
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", entry.Name(), err)
		}
		fullPath := filepath.Join(dir.String(), entry.Name())
		paths = append(paths, box.NewPath(fullPath, false, info))
	}

	return paths, nil
}

// Open opens a file for reading.
func (m *OSFilesystem) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// Exists reports whether anything exists at path.
func (m *OSFilesystem) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", path, err)
}

// HashFile streams the file through SHA-256.
func (m *OSFilesystem) HashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	contentID, size, err := box.HashReader(f)
	if err != nil {
		return "", 0, fmt.Errorf("hashing %s: %w", path, err)
	}
	return contentID, size, nil
}

// CopyFile copies src to dst through a temp file in the destination
// directory, linking into place only after the full content is written
// and the byte count matches expectedSize. An existing dst is never
// replaced. On any failure the temp file is removed and dst is left
// untouched.
func (m *OSFilesystem) CopyFile(src, dst string, expectedSize int64) (int64, error) {
	srcFile, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("opening source: %w", err)
	}
	defer srcFile.Close()

	destDir := filepath.Dir(dst)
	tmpFile, err := os.CreateTemp(destDir, ".tmp-*")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			tmpFile.Close()
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, srcFile)
	if err != nil {
		return 0, fmt.Errorf("copying content: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return 0, fmt.Errorf("closing temp file: %w", err)
	}
	if written != expectedSize {
		return 0, fmt.Errorf("size mismatch: wrote %d bytes, expected %d", written, expectedSize)
	}

	// Link into place rather than rename: link refuses to replace a
	// destination that appeared after the caller checked.
	switch err := os.Link(tmpPath, dst); {
	case err == nil:
		os.Remove(tmpPath)
	case errors.Is(err, os.ErrExist):
		return 0, fmt.Errorf("destination already exists: %s", dst)
	default:
		// Fall back for filesystems without hard links.
		if err := os.Rename(tmpPath, dst); err != nil {
			return 0, fmt.Errorf("moving file into place: %w", err)
		}
	}
	success = true

	return written, nil
}

// Remove deletes a single file.
func (m *OSFilesystem) Remove(path string) error {
	return os.Remove(path)
}

// MkdirAll creates a directory and any missing parents.
func (m *OSFilesystem) MkdirAll(path string) error {
	return os.MkdirAll(path, 0755)
}

// RemoveAll deletes a path and everything beneath it.
func (m *OSFilesystem) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// Compile-time check that OSFilesystem implements box.Filesystem
var _ box.Filesystem = (*OSFilesystem)(nil)
