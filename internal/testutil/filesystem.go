package testutil

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"shoebox/internal/box"
)

// MockFile represents a file in the mock filesystem.
type MockFile struct {
	Content     []byte
	Permissions fs.FileMode
	ModTime     time.Time
	IsDirectory bool
}

// MockFilesystem is an in-memory implementation of box.Filesystem.
type MockFilesystem struct {
	files   map[string]*MockFile
	readErr map[string]error
}

// NewMockFilesystem creates an empty mock filesystem.
func NewMockFilesystem() *MockFilesystem {
	return &MockFilesystem{
		files:   make(map[string]*MockFile),
		readErr: make(map[string]error),
	}
}

// AddFile adds a file to the mock filesystem.
func (m *MockFilesystem) AddFile(path string, content []byte) {
	m.files[path] = &MockFile{
		Content:     content,
		Permissions: 0644,
		ModTime:     time.Now(),
	}
}

// AddDirectory adds a directory to the mock filesystem.
func (m *MockFilesystem) AddDirectory(path string) {
	m.files[path] = &MockFile{
		Permissions: 0755,
		ModTime:     time.Now(),
		IsDirectory: true,
	}
}

// FailReads makes every read of path (Open, HashFile, CopyFile source)
// return err.
func (m *MockFilesystem) FailReads(path string, err error) {
	m.readErr[path] = err
}

// File returns the mock file stored at path.
func (m *MockFilesystem) File(path string) (*MockFile, bool) {
	f, ok := m.files[path]
	return f, ok
}

func (m *MockFilesystem) Resolve(rawPath string) (*box.Path, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, err
	}

	file, ok := m.files[absPath]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", absPath)
	}

	return box.NewPath(absPath, file.IsDirectory, m.infoFor(absPath, file)), nil
}

// ListFiles returns the regular files directly inside dir, sorted by name.
func (m *MockFilesystem) ListFiles(dir *box.Path) ([]*box.Path, error) {
	if !dir.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir)
	}

	var names []string
	for path, file := range m.files {
		if file.IsDirectory {
			continue
		}
		if filepath.Dir(path) == dir.String() {
			names = append(names, path)
		}
	}
	sort.Strings(names)

	paths := make([]*box.Path, 0, len(names))
	for _, path := range names {
		paths = append(paths, box.NewPath(path, false, m.infoFor(path, m.files[path])))
	}
	return paths, nil
}

func (m *MockFilesystem) Open(path string) (io.ReadCloser, error) {
	if err := m.readErr[path]; err != nil {
		return nil, err
	}
	file, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path)
	}
	if file.IsDirectory {
		return nil, fmt.Errorf("cannot open directory: %s", path)
	}
	return io.NopCloser(bytes.NewReader(file.Content)), nil
}

func (m *MockFilesystem) Exists(path string) (bool, error) {
	_, ok := m.files[path]
	return ok, nil
}

func (m *MockFilesystem) HashFile(path string) (string, int64, error) {
	if err := m.readErr[path]; err != nil {
		return "", 0, err
	}
	file, ok := m.files[path]
	if !ok {
		return "", 0, fmt.Errorf("file not found: %s", path)
	}
	return box.HashReader(bytes.NewReader(file.Content))
}

func (m *MockFilesystem) CopyFile(src, dst string, expectedSize int64) (int64, error) {
	if err := m.readErr[src]; err != nil {
		return 0, err
	}
	file, ok := m.files[src]
	if !ok {
		return 0, fmt.Errorf("file not found: %s", src)
	}
	if int64(len(file.Content)) != expectedSize {
		return 0, fmt.Errorf("size mismatch: wrote %d bytes, expected %d", len(file.Content), expectedSize)
	}
	if _, ok := m.files[dst]; ok {
		return 0, fmt.Errorf("destination already exists: %s", dst)
	}
	m.AddFile(dst, append([]byte{}, file.Content...))
	return expectedSize, nil
}

func (m *MockFilesystem) Remove(path string) error {
	if _, ok := m.files[path]; !ok {
		return fmt.Errorf("file not found: %s", path)
	}
	delete(m.files, path)
	return nil
}

func (m *MockFilesystem) MkdirAll(path string) error {
	m.AddDirectory(path)
	return nil
}

func (m *MockFilesystem) RemoveAll(path string) error {
	delete(m.files, path)
	for p := range m.files {
		if strings.HasPrefix(p, path+string(filepath.Separator)) {
			delete(m.files, p)
		}
	}
	return nil
}

func (m *MockFilesystem) infoFor(path string, file *MockFile) fs.FileInfo {
	return &mockFileInfo{
		name:    filepath.Base(path),
		size:    int64(len(file.Content)),
		mode:    file.Permissions,
		modTime: file.ModTime,
		isDir:   file.IsDirectory,
	}
}

// mockFileInfo implements fs.FileInfo
type mockFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
	isDir   bool
}

func (m *mockFileInfo) Name() string       { return m.name }
func (m *mockFileInfo) Size() int64        { return m.size }
func (m *mockFileInfo) Mode() fs.FileMode  { return m.mode }
func (m *mockFileInfo) ModTime() time.Time { return m.modTime }
func (m *mockFileInfo) IsDir() bool        { return m.isDir }
func (m *mockFileInfo) Sys() any           { return nil }

// Compile-time check
var _ box.Filesystem = (*MockFilesystem)(nil)
