// Package app wires the catalog, filesystem, extractors, and transfers
// into the high-level operations the CLI exposes.
package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"shoebox/internal/box"
	"shoebox/internal/catalog"
	"shoebox/internal/config"
	"shoebox/internal/fs"
	"shoebox/internal/metadata"
	"shoebox/internal/transfer"
)

// App is the application layer between the CLI and the box services.
// It constructs all dependencies, exposes high-level operations that
// accept raw string paths, and finalizes the run record on Close.
type App struct {
	cfg     *config.Config
	catalog box.Catalog
	fsm     box.Filesystem
	service *box.Service
	planner *box.Planner
	home    *box.Path
	run     *box.Run
	logFile *os.File
}

// New creates a fully wired App for an already initialized managed
// directory. operation identifies the CLI command being run (e.g.
// "import", "upload"). The caller must call Close when done.
func New(operation string) (*App, error) {
	defaults, err := GetDefaults()
	if err != nil {
		return nil, err
	}

	boxDir := defaults["box_dir"]
	if _, err := os.Stat(boxDir); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s is not initialized (run \"shoebox init\" first)", defaults["home_dir"])
		}
		return nil, fmt.Errorf("stat %s: %w", boxDir, err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	return build(defaults, cfg, operation)
}

// Init creates the .shoebox sentinel with a starter config and a fresh
// catalog, then returns an App ready to catalog the managed directory.
// It fails when the directory is already initialized.
func Init() (*App, error) {
	defaults, err := GetDefaults()
	if err != nil {
		return nil, err
	}

	boxDir := defaults["box_dir"]
	if _, err := os.Stat(boxDir); err == nil {
		return nil, fmt.Errorf("already initialized: %s exists", boxDir)
	}
	if err := os.MkdirAll(boxDir, 0755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", boxDir, err)
	}

	// From here on a failure must remove the sentinel again, or the
	// half-initialized directory would refuse both init and every other
	// command.
	if err := config.Init(defaults["config_path"], config.NewConfig()); err != nil {
		os.RemoveAll(boxDir)
		return nil, err
	}
	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		os.RemoveAll(boxDir)
		return nil, fmt.Errorf("loading config: %w", err)
	}

	a, err := build(defaults, cfg, "init")
	if err != nil {
		os.RemoveAll(boxDir)
		return nil, err
	}
	return a, nil
}

// build wires the App once the sentinel and config are in place.
func build(defaults map[string]string, cfg *config.Config, operation string) (*App, error) {
	cat, err := catalog.Open(defaults["catalog_path"])
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	runID := box.UUIDGenerator{}.New()
	logger, logFile, err := newLogger(defaults["log_dir"], runID)
	if err != nil {
		cat.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	fsm := fs.NewOSFilesystem()
	home, err := fsm.Resolve(defaults["home_dir"])
	if err != nil {
		cat.Close()
		logFile.Close()
		return nil, fmt.Errorf("resolving managed directory: %w", err)
	}
	if !home.IsDir() {
		cat.Close()
		logFile.Close()
		return nil, fmt.Errorf("managed path is not a directory: %s", home)
	}

	adapter := &slogAdapter{l: logger}
	svc := box.NewService(cat, fsm, metadata.NewExtractor(), adapter, box.RealClock{}, home.String())
	planner := box.NewPlanner(cat, fsm, adapter)

	return &App{
		cfg:     cfg,
		catalog: cat,
		fsm:     fsm,
		service: svc,
		planner: planner,
		home:    home,
		run:     &box.Run{Operation: operation, Status: "success"},
		logFile: logFile,
	}, nil
}

// persistRun saves the run to the catalog, giving it an auto-increment
// ID. Only called for commands that mutate state. Parameters must be
// filled in before the call; FinishRun later updates only the status
// and counters.
func (a *App) persistRun(ctx context.Context) error {
	if a.run.Persisted() {
		return nil // already persisted
	}
	created, err := a.catalog.CreateRun(ctx, a.run.Operation, a.run.Parameters)
	if err != nil {
		return fmt.Errorf("persisting run: %w", err)
	}
	a.run.ID = created.ID
	return nil
}

// ImportHome catalogs the media already sitting in the managed directory,
// in place. Used by init.
func (a *App) ImportHome(ctx context.Context) (*box.ScanReport, error) {
	if err := a.persistRun(ctx); err != nil {
		return nil, err
	}
	report, err := a.service.ImportFolder(ctx, a.home)
	a.recordImport(report, err)
	return report, err
}

// Import catalogs the media files directly inside rawPath, copying new
// content into the managed directory.
func (a *App) Import(ctx context.Context, rawPath string) (*box.ScanReport, error) {
	p, err := a.fsm.Resolve(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	if p.String() == a.home.String() {
		return nil, fmt.Errorf("source is the managed directory itself: %s", p)
	}

	a.run.Parameters = p.String()
	if err := a.persistRun(ctx); err != nil {
		return nil, err
	}

	report, err := a.service.ImportFolder(ctx, p)
	a.recordImport(report, err)
	return report, err
}

// DryRun lists the files still missing from targetName, or from every
// configured target when targetName is empty. Nothing is modified.
func (a *App) DryRun(ctx context.Context, targetName string) ([]*box.ManagedFile, error) {
	targets := a.cfg.TargetNames()
	if targetName != "" {
		if _, ok := a.cfg.Target(targetName); !ok {
			return nil, a.unknownTarget(targetName)
		}
		targets = []string{targetName}
	}
	return a.planner.DryRun(ctx, targets)
}

// Upload sends every pending file to the named target.
func (a *App) Upload(ctx context.Context, targetName string) (*box.UploadReport, error) {
	tc, ok := a.cfg.Target(targetName)
	if !ok {
		return nil, a.unknownTarget(targetName)
	}

	a.run.Parameters = targetName
	if err := a.persistRun(ctx); err != nil {
		return nil, err
	}

	tr, err := transfer.NewTransferFromConfig(ctx, tc)
	if err != nil {
		a.run.Status = "error"
		return nil, fmt.Errorf("creating transfer for %s: %w", targetName, err)
	}
	defer tr.Close()

	report, err := a.planner.Upload(ctx, targetName, tr)
	if report != nil {
		a.run.Added = int64(report.Uploaded)
		a.run.Failures = int64(report.Failed + report.Missing)
	}
	if err != nil {
		a.run.Status = "error"
	}
	return report, err
}

// Stats returns the catalog summary.
func (a *App) Stats(ctx context.Context) (*box.CatalogStats, error) {
	return a.service.Stats(ctx, a.cfg.TargetNames())
}

// Targets returns the configured target names.
func (a *App) Targets() []string {
	return a.cfg.TargetNames()
}

// ScanFolder reports the unmanaged files directly inside rawPath.
func (a *App) ScanFolder(ctx context.Context, rawPath string) (*box.FolderReport, error) {
	p, err := a.fsm.Resolve(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	return a.service.ScanUnmanaged(ctx, p)
}

// History returns the most recent runs.
func (a *App) History(ctx context.Context, limit int) ([]*box.Run, error) {
	return a.service.History(ctx, limit)
}

// recordImport carries an import outcome into the run record.
func (a *App) recordImport(report *box.ScanReport, err error) {
	if report != nil {
		a.run.Added = int64(report.Added)
		a.run.Duplicates = int64(report.Duplicates + report.AlreadyPresent)
		a.run.Failures = int64(report.Failed)
	}
	if err != nil {
		a.run.Status = "error"
	}
}

func (a *App) unknownTarget(name string) error {
	names := strings.Join(a.cfg.TargetNames(), ", ")
	if names == "" {
		names = "none"
	}
	return fmt.Errorf("unknown target %q (configured targets: %s)", name, names)
}

// Close finalizes the run record, if one was persisted, and closes all
// resources.
func (a *App) Close() error {
	var firstErr error

	if a.run.Persisted() {
		err := a.catalog.FinishRun(context.Background(), a.run.ID, a.run.Status,
			a.run.Added, a.run.Duplicates, a.run.Failures)
		if err != nil {
			firstErr = fmt.Errorf("finishing run: %w", err)
		}
	}

	if err := a.catalog.Close(); err != nil {
		if firstErr == nil {
			firstErr = fmt.Errorf("closing catalog: %w", err)
		}
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}

// Destroy removes the .shoebox sentinel with its catalog, config, and
// logs. Managed media files are left untouched.
func Destroy() (string, error) {
	defaults, err := GetDefaults()
	if err != nil {
		return "", err
	}

	boxDir := defaults["box_dir"]
	if _, err := os.Stat(boxDir); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("nothing to destroy: %s is not initialized", defaults["home_dir"])
		}
		return "", fmt.Errorf("stat %s: %w", boxDir, err)
	}

	if err := os.RemoveAll(boxDir); err != nil {
		return "", fmt.Errorf("removing %s: %w", boxDir, err)
	}
	return boxDir, nil
}
