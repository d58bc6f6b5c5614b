package box

import (
	"context"
	"errors"
)

// ErrNotFound reports an operation against a content ID the catalog has
// no row for. Check with errors.Is.
var ErrNotFound = errors.New("not in catalog")

// CommitResult says what a Commit call did.
type CommitResult int

const (
	// CommitInserted means a new catalog row was created.
	CommitInserted CommitResult = iota + 1
	// CommitDuplicate means a row with the same content ID already
	// existed. The existing row is left untouched.
	CommitDuplicate
)

// Catalog is the persistent store of managed files, their upload state,
// and recorded runs. Rows are never updated or deleted once committed;
// the only mutations are inserts and run bookkeeping.
type Catalog interface {
	// Contains reports whether a file with the given content ID is cataloged.
	Contains(ctx context.Context, contentID string) (bool, error)

	// FindByContentID returns the catalog row for a content ID, or nil
	// when no such row exists.
	FindByContentID(ctx context.Context, contentID string) (*ManagedFile, error)

	// Commit inserts a new file row. When a row with the same content ID
	// already exists it returns CommitDuplicate and no error; any other
	// constraint violation is an error.
	Commit(ctx context.Context, file *ManagedFile) (CommitResult, error)

	// ListUnuploaded returns files missing from at least one of the given
	// targets, oldest first. An empty target list yields no files.
	ListUnuploaded(ctx context.Context, targets ...string) ([]*ManagedFile, error)

	// MarkUploaded records that a file reached a target. Marking the same
	// pair twice is a no-op; an unknown content ID wraps ErrNotFound.
	MarkUploaded(ctx context.Context, contentID, target string) error

	// Stats summarizes the catalog, including upload counts for the
	// given targets.
	Stats(ctx context.Context, targets []string) (*CatalogStats, error)

	// CreateRun opens a run record and returns it with its ID assigned.
	CreateRun(ctx context.Context, operation, parameters string) (*Run, error)

	// FinishRun closes a run record with its final status and counters.
	FinishRun(ctx context.Context, id int64, status string, added, duplicates, failures int64) error

	// ListRuns returns up to limit runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]*Run, error)

	Close() error
}
