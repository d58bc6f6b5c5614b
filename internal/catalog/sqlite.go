// Package catalog persists managed files, upload state, and run records
// in a single SQLite database.
package catalog

import (
	"bytes"
	"compress/gzip"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"shoebox/internal/box"
	"shoebox/internal/catalog/migrations"
)

// SQLiteCatalog implements box.Catalog on a SQLite database.
type SQLiteCatalog struct {
	db   *sql.DB
	path string
}

// Open opens the catalog at path, creating it and bringing its schema up
// to date when needed. path can be ":memory:" for tests.
func Open(path string) (*SQLiteCatalog, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating catalog: %w", err)
	}

	return &SQLiteCatalog{db: db, path: path}, nil
}

// OpenConnection opens a SQLite connection with the PRAGMAs the catalog
// relies on. Exported for tools and tests that need a raw connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// One connection only: SQLite has a single writer anyway, and each
	// pooled connection to ":memory:" would see its own empty database.
	db.SetMaxOpenConns(1)

	// SQLite ships with foreign keys off; the uploads table depends on
	// them being enforced.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return db, nil
}

func (c *SQLiteCatalog) Contains(ctx context.Context, contentID string) (bool, error) {
	var exists bool
	err := c.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM files WHERE content_id = ?)`, contentID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking content id: %w", err)
	}
	return exists, nil
}

func (c *SQLiteCatalog) FindByContentID(ctx context.Context, contentID string) (*box.ManagedFile, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT content_id, original_name, stored_name, source_path, stored_path,
                size_bytes, media_type, added_at, sidecar
         FROM files WHERE content_id = ?`, contentID)

	file, err := scanFile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding file by content id: %w", err)
	}
	return file, nil
}

// Commit inserts the file row. The content_id primary key arbitrates
// concurrent imports: whoever inserts first wins, everyone else gets
// CommitDuplicate. A stored_name collision is a real error, since two
// rows must never claim the same file in the managed directory.
func (c *SQLiteCatalog) Commit(ctx context.Context, f *box.ManagedFile) (box.CommitResult, error) {
	sidecar, err := compressSidecar(f.Sidecar)
	if err != nil {
		return 0, fmt.Errorf("compressing sidecar: %w", err)
	}

	_, err = c.db.ExecContext(ctx,
		`INSERT INTO files (content_id, original_name, stored_name, source_path,
                            stored_path, size_bytes, media_type, added_at, sidecar)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ContentID, f.OriginalName, f.StoredName, f.SourcePath, f.StoredPath,
		f.SizeBytes, string(f.MediaType), f.AddedAt.UTC(), sidecar)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return box.CommitDuplicate, nil
		}
		return 0, fmt.Errorf("inserting file: %w", err)
	}
	return box.CommitInserted, nil
}

func (c *SQLiteCatalog) ListUnuploaded(ctx context.Context, targets ...string) ([]*box.ManagedFile, error) {
	if len(targets) == 0 {
		return nil, nil
	}

	args := make([]any, 0, len(targets)+1)
	for _, t := range targets {
		args = append(args, t)
	}
	args = append(args, len(targets))

	query := fmt.Sprintf(
		`SELECT content_id, original_name, stored_name, source_path, stored_path,
                size_bytes, media_type, added_at, sidecar
         FROM files f
         WHERE (SELECT COUNT(*) FROM uploads u
                WHERE u.content_id = f.content_id AND u.target IN (%s)) < ?
         ORDER BY f.added_at, f.content_id`,
		placeholders(len(targets)))

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing unuploaded files: %w", err)
	}
	defer rows.Close()

	var files []*box.ManagedFile
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning file row: %w", err)
		}
		files = append(files, file)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading file rows: %w", err)
	}
	return files, nil
}

// MarkUploaded records the (content, target) pair. INSERT OR IGNORE makes
// a repeated mark a no-op, but a foreign key violation still surfaces,
// which is how an unknown content ID is detected.
func (c *SQLiteCatalog) MarkUploaded(ctx context.Context, contentID, target string) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO uploads (content_id, target, uploaded_at) VALUES (?, ?, ?)`,
		contentID, target, time.Now().UTC())
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey {
			return fmt.Errorf("marking %s uploaded to %s: %w", contentID, target, box.ErrNotFound)
		}
		return fmt.Errorf("marking uploaded: %w", err)
	}
	return nil
}

func (c *SQLiteCatalog) Stats(ctx context.Context, targets []string) (*box.CatalogStats, error) {
	stats := &box.CatalogStats{
		ByMediaType:      make(map[box.MediaType]int64),
		UploadedByTarget: make(map[string]int64),
	}

	err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(size_bytes), 0) FROM files`).
		Scan(&stats.TotalFiles, &stats.TotalBytes)
	if err != nil {
		return nil, fmt.Errorf("counting files: %w", err)
	}

	rows, err := c.db.QueryContext(ctx,
		`SELECT media_type, COUNT(*) FROM files GROUP BY media_type`)
	if err != nil {
		return nil, fmt.Errorf("counting by media type: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var mediaType string
		var count int64
		if err := rows.Scan(&mediaType, &count); err != nil {
			return nil, fmt.Errorf("scanning media type count: %w", err)
		}
		stats.ByMediaType[box.MediaType(mediaType)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading media type counts: %w", err)
	}

	err = c.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM files WHERE sidecar IS NOT NULL`).
		Scan(&stats.WithSidecar)
	if err != nil {
		return nil, fmt.Errorf("counting sidecars: %w", err)
	}

	for _, target := range targets {
		var count int64
		err := c.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM uploads WHERE target = ?`, target).Scan(&count)
		if err != nil {
			return nil, fmt.Errorf("counting uploads to %s: %w", target, err)
		}
		stats.UploadedByTarget[target] = count
	}

	return stats, nil
}

func (c *SQLiteCatalog) CreateRun(ctx context.Context, operation, parameters string) (*box.Run, error) {
	startedAt := time.Now().UTC()
	res, err := c.db.ExecContext(ctx,
		`INSERT INTO runs (operation, parameters, started_at, status) VALUES (?, ?, ?, 'running')`,
		operation, parameters, startedAt)
	if err != nil {
		return nil, fmt.Errorf("creating run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading run id: %w", err)
	}

	return &box.Run{
		ID:         id,
		Operation:  operation,
		Parameters: parameters,
		StartedAt:  startedAt,
		Status:     "running",
	}, nil
}

func (c *SQLiteCatalog) FinishRun(ctx context.Context, id int64, status string, added, duplicates, failures int64) error {
	_, err := c.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, status = ?, files_added = ?, duplicates = ?, failures = ?
         WHERE id = ?`,
		time.Now().UTC(), status, added, duplicates, failures, id)
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	return nil
}

func (c *SQLiteCatalog) ListRuns(ctx context.Context, limit int) ([]*box.Run, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, operation, parameters, started_at, finished_at, status,
                files_added, duplicates, failures
         FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []*box.Run
	for rows.Next() {
		r := &box.Run{}
		err := rows.Scan(&r.ID, &r.Operation, &r.Parameters, &r.StartedAt, &r.FinishedAt,
			&r.Status, &r.Added, &r.Duplicates, &r.Failures)
		if err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading run rows: %w", err)
	}
	return runs, nil
}

// Path returns the catalog file path (or ":memory:").
func (c *SQLiteCatalog) Path() string {
	return c.path
}

func (c *SQLiteCatalog) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (*box.ManagedFile, error) {
	f := &box.ManagedFile{}
	var mediaType string
	var sidecar []byte
	err := row.Scan(&f.ContentID, &f.OriginalName, &f.StoredName, &f.SourcePath,
		&f.StoredPath, &f.SizeBytes, &mediaType, &f.AddedAt, &sidecar)
	if err != nil {
		return nil, err
	}
	f.MediaType = box.MediaType(mediaType)

	f.Sidecar, err = decompressSidecar(sidecar)
	if err != nil {
		return nil, fmt.Errorf("decompressing sidecar: %w", err)
	}
	return f, nil
}

// compressSidecar gzips sidecar JSON for storage. Empty sidecars are
// stored as NULL.
func compressSidecar(data []byte) (any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompressSidecar(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// Compile-time check that SQLiteCatalog implements box.Catalog
var _ box.Catalog = (*SQLiteCatalog)(nil)
