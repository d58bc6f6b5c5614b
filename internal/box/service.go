package box

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Service implements the cataloging operations: importing media into the
// managed directory, reporting on unmanaged folders, and reading catalog
// summaries. It owns no resources; the caller wires in the catalog,
// filesystem, and extractor and closes them.
type Service struct {
	catalog   Catalog
	fs        Filesystem
	extractor MetadataExtractor
	logger    Logger
	clock     Clock
	// home is the absolute path of the managed directory.
	home string
}

// NewService creates a Service for the managed directory at home.
func NewService(catalog Catalog, fs Filesystem, extractor MetadataExtractor, logger Logger, clock Clock, home string) *Service {
	return &Service{
		catalog:   catalog,
		fs:        fs,
		extractor: extractor,
		logger:    logger,
		clock:     clock,
		home:      home,
	}
}

// ImportFolder catalogs every media file directly inside source. New
// content is copied into the managed directory and committed; content the
// catalog already holds is skipped. When source is the managed directory
// itself, files are cataloged in place without copying.
//
// Per-file problems (unreadable entries, copy failures) are logged,
// counted, and skipped; the pass continues. Only setup failures and
// catalog I/O errors abort the pass.
func (s *Service) ImportFolder(ctx context.Context, source *Path) (*ScanReport, error) {
	if !source.IsDir() {
		return nil, fmt.Errorf("source is not a directory: %s", source)
	}

	entries, err := s.fs.ListFiles(source)
	if err != nil {
		return nil, fmt.Errorf("listing source files: %w", err)
	}

	report := &ScanReport{}
	// Timestamps within one pass never go backwards, so catalog order
	// follows scan order even if the wall clock jumps.
	var lastAdded time.Time

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Scanned++

		name := filepath.Base(entry.String())
		mediaType := MediaTypeOf(name)
		if mediaType == MediaNone {
			s.logger.Debug("skipping non-media file", "name", name)
			report.Ignored++
			continue
		}

		contentID, size, err := s.fs.HashFile(entry.String())
		if err != nil {
			s.logger.Warn("cannot read file", "name", name, "error", err)
			report.Failed++
			continue
		}

		existing, err := s.catalog.FindByContentID(ctx, contentID)
		if err != nil {
			return report, fmt.Errorf("checking catalog for %s: %w", name, err)
		}
		if existing != nil {
			s.logger.Info("duplicate content", "name", name, "stored_as", existing.StoredName, "content_id", shortID(contentID))
			report.Duplicates++
			continue
		}

		destName := name
		destPath := filepath.Join(s.home, destName)
		inPlace := destPath == entry.String()

		if !inPlace {
			destExists, err := s.fs.Exists(destPath)
			if err != nil {
				s.logger.Warn("cannot check destination", "name", name, "error", err)
				report.Failed++
				continue
			}
			if destExists {
				destID, _, err := s.fs.HashFile(destPath)
				if err != nil {
					s.logger.Warn("cannot read existing destination", "name", name, "error", err)
					report.Failed++
					continue
				}
				if destID == contentID {
					// Same name, same bytes, no catalog row. Nothing
					// to copy and nothing safe to commit.
					s.logger.Info("already present", "name", name)
					report.AlreadyPresent++
					continue
				}
				destName, err = s.freeName(name)
				if err != nil {
					s.logger.Warn("cannot find a free name", "name", name, "error", err)
					report.Failed++
					continue
				}
				destPath = filepath.Join(s.home, destName)
				s.logger.Info("name collision", "name", name, "renamed_to", destName)
			}

			if _, err := s.fs.CopyFile(entry.String(), destPath, size); err != nil {
				s.logger.Warn("copy failed", "name", name, "error", err)
				report.Failed++
				continue
			}
		}

		addedAt := s.clock.Now()
		if addedAt.Before(lastAdded) {
			addedAt = lastAdded
		}
		lastAdded = addedAt

		file := &ManagedFile{
			ContentID:    contentID,
			OriginalName: name,
			StoredName:   destName,
			SourcePath:   entry.String(),
			StoredPath:   destPath,
			SizeBytes:    size,
			MediaType:    mediaType,
			AddedAt:      addedAt,
			Sidecar:      s.extractor.Extract(entry.String(), mediaType),
		}

		result, err := s.catalog.Commit(ctx, file)
		if err != nil {
			s.logger.Warn("commit failed", "name", name, "error", err)
			report.Failed++
			continue
		}
		if result == CommitDuplicate {
			// Lost the insert race: the content was committed between our
			// duplicate check and the insert. Remove the copy we made so
			// no unreferenced file lingers in the managed directory.
			if !inPlace {
				if err := s.fs.Remove(destPath); err != nil {
					s.logger.Warn("cannot remove orphaned copy", "path", destPath, "error", err)
				}
			}
			s.logger.Info("duplicate content", "name", name, "content_id", shortID(contentID))
			report.Duplicates++
			continue
		}

		s.logger.Info("file added", "name", destName, "content_id", shortID(contentID), "size", size)
		report.Added++
	}

	s.logger.Info("import complete", "source", source.String(),
		"added", report.Added, "duplicates", report.Duplicates+report.AlreadyPresent, "failed", report.Failed)
	return report, nil
}

// freeName returns an unused destination name for originalName by
// appending a timestamp suffix to the stem, extending it with a counter
// when even the suffixed name is taken.
func (s *Service) freeName(originalName string) (string, error) {
	ext := filepath.Ext(originalName)
	stem := strings.TrimSuffix(originalName, ext)
	suffix := s.clock.Now().Format("20060102_150405")

	candidate := fmt.Sprintf("%s_%s%s", stem, suffix, ext)
	for n := 2; ; n++ {
		exists, err := s.fs.Exists(filepath.Join(s.home, candidate))
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s_%s_%d%s", stem, suffix, n, ext)
	}
}

// ScanUnmanaged reports which files directly inside folder are not yet in
// the catalog, grouped by extension. The folder is not modified.
func (s *Service) ScanUnmanaged(ctx context.Context, folder *Path) (*FolderReport, error) {
	if !folder.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", folder)
	}

	entries, err := s.fs.ListFiles(folder)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}

	report := &FolderReport{ByExtension: make(map[string]*ExtensionStat)}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Total++

		contentID, size, err := s.fs.HashFile(entry.String())
		if err != nil {
			s.logger.Warn("cannot read file", "path", entry.String(), "error", err)
			report.Failed++
			continue
		}

		managed, err := s.catalog.Contains(ctx, contentID)
		if err != nil {
			return report, fmt.Errorf("checking catalog: %w", err)
		}
		if managed {
			continue
		}

		report.Unmanaged++
		report.UnmanagedBytes += size
		ext := strings.ToLower(filepath.Ext(entry.String()))
		if ext == "" {
			ext = "(none)"
		}
		stat := report.ByExtension[ext]
		if stat == nil {
			stat = &ExtensionStat{}
			report.ByExtension[ext] = stat
		}
		stat.Count++
		stat.Bytes += size
	}

	return report, nil
}

// Stats returns the catalog summary, with upload counts for the given
// target names.
func (s *Service) Stats(ctx context.Context, targets []string) (*CatalogStats, error) {
	stats, err := s.catalog.Stats(ctx, targets)
	if err != nil {
		return nil, fmt.Errorf("reading catalog stats: %w", err)
	}
	return stats, nil
}

// History returns up to limit recorded runs, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]*Run, error) {
	runs, err := s.catalog.ListRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

// shortID abbreviates a content ID for log lines.
func shortID(contentID string) string {
	if len(contentID) > 12 {
		return contentID[:12]
	}
	return contentID
}
