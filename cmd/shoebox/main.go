package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"shoebox/internal/app"
	"shoebox/internal/box"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "shoebox",
	Short: "Content-addressed media catalog",
	Long: `shoebox keeps a directory of photos and videos deduplicated by content
and tracks which files have been uploaded to which targets.`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the current directory as a managed media directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.Init()
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.ImportHome(cmd.Context())
		if err != nil {
			return fmt.Errorf("cataloging existing files: %w", err)
		}

		defaults, err := app.GetDefaults()
		if err != nil {
			return err
		}
		fmt.Printf("Initialized %s\n", defaults["home_dir"])
		fmt.Printf("Catalog: %s\n", defaults["catalog_path"])
		fmt.Printf("Config:  %s\n", defaults["config_path"])
		printScanReport(report)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import SOURCE",
	Short: "Catalog media files from a source directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New("import")
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.Import(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		printScanReport(report)
		return nil
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload [TARGET]",
	Short: "Upload pending files to a configured target",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		target := ""
		if len(args) > 0 {
			target = args[0]
		}
		if target == "" && !dryRun {
			return fmt.Errorf("a target is required (or use --dry-run to list pending files)")
		}

		a, err := app.New("upload")
		if err != nil {
			return err
		}
		defer a.Close()

		if dryRun {
			files, err := a.DryRun(cmd.Context(), target)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Println("Nothing pending.")
				return nil
			}
			for _, f := range files {
				fmt.Printf("%s  %-5s  %10d  %s\n",
					f.ContentID[:12], f.MediaType, f.SizeBytes, f.StoredName)
			}
			fmt.Printf("\n%d file(s) pending upload\n", len(files))
			return nil
		}

		report, err := a.Upload(cmd.Context(), target)
		if err != nil {
			return fmt.Errorf("upload failed: %w", err)
		}

		fmt.Printf("Uploaded %d file(s) to %s", report.Uploaded, target)
		if report.Missing > 0 || report.Failed > 0 {
			fmt.Printf(" (%d missing, %d failed)", report.Missing, report.Failed)
		}
		fmt.Println()
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New("stats")
		if err != nil {
			return err
		}
		defer a.Close()

		stats, err := a.Stats(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Files:    %d (%s)\n", stats.TotalFiles, formatSize(stats.TotalBytes))
		fmt.Printf("Photos:   %d\n", stats.ByMediaType[box.MediaPhoto])
		fmt.Printf("Videos:   %d\n", stats.ByMediaType[box.MediaVideo])
		fmt.Printf("Sidecars: %d\n", stats.WithSidecar)
		for _, target := range a.Targets() {
			fmt.Printf("Uploaded to %s: %d\n", target, stats.UploadedByTarget[target])
		}
		return nil
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan FOLDER",
	Short: "Report unmanaged files in a folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New("scan")
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.ScanFolder(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if report.Unmanaged == 0 {
			fmt.Printf("All %d file(s) are already cataloged.\n", report.Total)
			return nil
		}

		exts := make([]string, 0, len(report.ByExtension))
		for ext := range report.ByExtension {
			exts = append(exts, ext)
		}
		sort.Strings(exts)
		for _, ext := range exts {
			stat := report.ByExtension[ext]
			fmt.Printf("%-8s %5d file(s)  %s\n", ext, stat.Count, formatSize(stat.Bytes))
		}
		fmt.Printf("\n%d of %d file(s) unmanaged (%s)\n",
			report.Unmanaged, report.Total, formatSize(report.UnmanagedBytes))
		if report.Failed > 0 {
			fmt.Printf("%d file(s) could not be read\n", report.Failed)
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View recorded runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := app.New("history")
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.History(cmd.Context(), limit)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}

		for _, r := range runs {
			duration := ""
			if r.FinishedAt.Valid {
				d := r.FinishedAt.Time.Sub(r.StartedAt)
				duration = d.Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %-8s  %s  %-8s  %-10s  added=%d dup=%d fail=%d\n",
				r.ID,
				r.Operation,
				r.StartedAt.Format("2006-01-02 15:04:05"),
				r.Status,
				duration,
				r.Added,
				r.Duplicates,
				r.Failures,
			)
		}
		return nil
	},
}

var destroyCmd = &cobra.Command{
	Use:   "destroy",
	Short: "Remove the catalog, config, and logs (media files are kept)",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		if !force {
			return fmt.Errorf("refusing to destroy the catalog without --force")
		}

		removed, err := app.Destroy()
		if err != nil {
			return err
		}
		fmt.Printf("Removed %s\n", removed)
		return nil
	},
}

// printScanReport summarizes an import pass on stdout.
func printScanReport(r *box.ScanReport) {
	fmt.Printf("Scanned %d file(s): %d added, %d duplicate(s), %d skipped\n",
		r.Scanned, r.Added, r.Duplicates+r.AlreadyPresent, r.Ignored)
	if r.Failed > 0 {
		fmt.Printf("%d file(s) failed\n", r.Failed)
	}
}

// formatSize renders a byte count with a binary unit suffix.
func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().Bool("dry-run", false, "List pending files without uploading")
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of runs to show")
	rootCmd.AddCommand(destroyCmd)
	destroyCmd.Flags().Bool("force", false, "Actually remove the catalog")
}
