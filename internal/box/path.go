package box

import (
	"io/fs"
)

// Path is a filesystem path that has been resolved and validated by a
// Filesystem implementation. Holding a *Path means the path was absolute
// and pointed at a real file or directory at resolution time.
type Path struct {
	absPath string
	isDir   bool
	info    fs.FileInfo
}

// NewPath creates a validated Path. Intended for Filesystem implementations.
func NewPath(absPath string, isDir bool, info fs.FileInfo) *Path {
	return &Path{absPath: absPath, isDir: isDir, info: info}
}

func (p *Path) String() string {
	return p.absPath
}

func (p *Path) IsDir() bool {
	return p.isDir
}

func (p *Path) Info() fs.FileInfo {
	return p.info
}
