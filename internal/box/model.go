package box

import (
	"database/sql"
	"time"
)

// ManagedFile is one cataloged media file. Exactly one row exists per
// distinct content ID, no matter how many times the same bytes are imported.
type ManagedFile struct {
	// ContentID is the lowercase hex SHA-256 digest of the file content.
	ContentID string
	// OriginalName is the basename the file had at its import source.
	OriginalName string
	// StoredName is the basename inside the managed directory. It differs
	// from OriginalName only when a name collision forced a rename.
	StoredName string
	// SourcePath is the absolute path the file was imported from.
	SourcePath string
	// StoredPath is the absolute path of the managed copy.
	StoredPath string
	SizeBytes  int64
	MediaType  MediaType
	AddedAt    time.Time
	// Sidecar holds extracted metadata as JSON, or nil when extraction
	// produced nothing.
	Sidecar []byte
}

// Run is one recorded command invocation.
type Run struct {
	ID         int64
	Operation  string
	Parameters string
	StartedAt  time.Time
	FinishedAt sql.NullTime
	Status     string
	Added      int64
	Duplicates int64
	Failures   int64
}

// Persisted reports whether the run has been written to the catalog.
func (r *Run) Persisted() bool {
	return r.ID != 0
}

// ScanReport summarizes one import pass over a source directory.
type ScanReport struct {
	// Scanned counts every regular file the pass examined.
	Scanned int
	// Added counts files newly copied and committed to the catalog.
	Added int
	// Duplicates counts media whose content was already cataloged.
	Duplicates int
	// AlreadyPresent counts media that sat at their destination path with
	// identical content but no catalog row.
	AlreadyPresent int
	// Ignored counts non-media files.
	Ignored int
	// Failed counts files skipped because of per-file errors.
	Failed int
}

// UploadReport summarizes one upload pass against a single target.
type UploadReport struct {
	Uploaded int
	// Missing counts catalog rows whose stored file no longer exists.
	Missing int
	Failed  int
}

// FolderReport describes how much of a directory is not yet under
// catalog management.
type FolderReport struct {
	Total          int
	Unmanaged      int
	UnmanagedBytes int64
	ByExtension    map[string]*ExtensionStat
	Failed         int
}

// ExtensionStat aggregates unmanaged files sharing one extension.
type ExtensionStat struct {
	Count int
	Bytes int64
}

// CatalogStats is a point-in-time summary of the catalog.
type CatalogStats struct {
	TotalFiles  int64
	TotalBytes  int64
	ByMediaType map[MediaType]int64
	WithSidecar int64
	// UploadedByTarget counts uploaded files per configured target name.
	UploadedByTarget map[string]int64
}
