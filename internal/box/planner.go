package box

import (
	"context"
	"fmt"
)

// Planner decides which cataloged files still need to reach which upload
// targets, and executes uploads through a Transfer.
type Planner struct {
	catalog Catalog
	fs      Filesystem
	logger  Logger
}

// NewPlanner creates a Planner.
func NewPlanner(catalog Catalog, fs Filesystem, logger Logger) *Planner {
	return &Planner{catalog: catalog, fs: fs, logger: logger}
}

// DryRun returns the files missing from at least one of the given targets,
// oldest first, without touching the catalog or any target.
func (p *Planner) DryRun(ctx context.Context, targets []string) ([]*ManagedFile, error) {
	if len(targets) == 0 {
		return nil, nil
	}
	files, err := p.catalog.ListUnuploaded(ctx, targets...)
	if err != nil {
		return nil, fmt.Errorf("listing pending files: %w", err)
	}
	return files, nil
}

// Upload sends every file not yet on target through transfer, marking each
// one uploaded only after the transfer reports success. A file whose stored
// copy is missing is skipped with a warning and stays pending; a failed
// transfer is counted and the pass moves on to the next file.
func (p *Planner) Upload(ctx context.Context, target string, transfer Transfer) (*UploadReport, error) {
	files, err := p.catalog.ListUnuploaded(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("listing pending files: %w", err)
	}

	report := &UploadReport{}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		exists, err := p.fs.Exists(f.StoredPath)
		if err != nil {
			p.logger.Warn("cannot check stored file", "name", f.StoredName, "error", err)
			report.Failed++
			continue
		}
		if !exists {
			p.logger.Warn("stored file missing, skipping", "name", f.StoredName, "path", f.StoredPath)
			report.Missing++
			continue
		}

		if err := p.send(ctx, transfer, f); err != nil {
			p.logger.Warn("upload failed", "name", f.StoredName, "target", target, "error", err)
			report.Failed++
			continue
		}

		if err := p.catalog.MarkUploaded(ctx, f.ContentID, target); err != nil {
			return report, fmt.Errorf("recording upload of %s: %w", f.StoredName, err)
		}
		p.logger.Info("file uploaded", "name", f.StoredName, "target", target, "size", f.SizeBytes)
		report.Uploaded++
	}

	p.logger.Info("upload complete", "target", target,
		"uploaded", report.Uploaded, "missing", report.Missing, "failed", report.Failed)
	return report, nil
}

func (p *Planner) send(ctx context.Context, transfer Transfer, f *ManagedFile) error {
	r, err := p.fs.Open(f.StoredPath)
	if err != nil {
		return fmt.Errorf("opening stored file: %w", err)
	}
	defer r.Close()
	return transfer.Send(ctx, f.StoredName, r, f.SizeBytes)
}
