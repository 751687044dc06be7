package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"hasheq/internal/diag"
	"hasheq/internal/diagfmt"
	"hasheq/internal/driver"
	"hasheq/internal/observ"
	"hasheq/internal/project"
)

// addPackageFlags registers the flags shared by commands that run the generator.
// multi adds the flags of commands that accept several packages.
func addPackageFlags(cmd *cobra.Command, multi bool) {
	cmd.Flags().String("format", "pretty", "diagnostics format (pretty|json|short)")
	cmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	cmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
	cmd.Flags().Int("jobs", 0, "max parallel workers per package (0=config or auto)")
	if multi {
		cmd.Flags().Bool("no-cache", false, "do not read or write the result cache")
		cmd.Flags().String("ui", "auto", "progress UI for several packages (auto|on|off)")
	}
}

func packageDir(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}

// loadConfig returns the explicit --config file or the hasheq.toml found above dir.
func loadConfig(cmd *cobra.Command, dir string) (project.Config, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return project.Config{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	if path != "" {
		return project.LoadFile(path)
	}
	m, _, err := project.Load(dir)
	if err != nil {
		return project.Config{}, err
	}
	return m.Config, nil
}

// packageOptions builds driver options for the absolute directory dir.
func packageOptions(cmd *cobra.Command, dir string, cache *driver.DiskCache) (driver.Options, error) {
	cfg, err := loadConfig(cmd, dir)
	if err != nil {
		return driver.Options{}, err
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return driver.Options{}, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return driver.Options{}, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if jobs == 0 {
		jobs = cfg.Build.Jobs
	}
	opts := driver.Options{
		Config:         cfg,
		MaxDiagnostics: maxDiagnostics,
		Jobs:           jobs,
	}
	if cfg.Build.Cache {
		opts.Cache = cache
	}
	return opts, nil
}

// openCache returns the shared result cache, or nil when --no-cache is set or the
// cache directory is unusable.
func openCache(cmd *cobra.Command) (*driver.DiskCache, error) {
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return nil, fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	if noCache {
		return nil, nil
	}
	cache, err := driver.OpenDiskCache("hasheq")
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "cache disabled: %v\n", err)
		return nil, nil
	}
	return cache, nil
}

// runPackage runs the generator over a single dir without the result cache.
func runPackage(cmd *cobra.Command, dir string) (*driver.Result, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	opts, err := packageOptions(cmd, abs, nil)
	if err != nil {
		return nil, err
	}
	res, err := driver.GeneratePackage(cmd.Context(), abs, opts)
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}
	return res, nil
}

// runPackages expands args into package directories and runs the generator over
// all of them. Results come back sorted by directory.
func runPackages(cmd *cobra.Command, args []string) ([]*driver.Result, error) {
	dirs, err := driver.ExpandPatterns(cmd.Context(), args)
	if err != nil {
		return nil, err
	}
	if len(dirs) == 0 {
		return nil, fmt.Errorf("no packages match %s", strings.Join(args, " "))
	}
	cache, err := openCache(cmd)
	if err != nil {
		return nil, err
	}
	jobs := make([]driver.Job, 0, len(dirs))
	for _, dir := range dirs {
		opts, err := packageOptions(cmd, dir, cache)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", displayDir(dir), err)
		}
		jobs = append(jobs, driver.Job{Dir: dir, Options: opts})
	}
	parallel, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return nil, fmt.Errorf("failed to get jobs flag: %w", err)
	}

	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return nil, fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiFlag)
	if err != nil {
		return nil, err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return nil, fmt.Errorf("failed to get quiet flag: %w", err)
	}

	var results []*driver.Result
	if !quiet && len(jobs) > 1 && shouldUseTUI(mode, cmd.OutOrStdout()) {
		results, err = runWithUI(cmd.Context(), cmd.OutOrStdout(), "hasheq "+cmd.Name(), jobs, parallel)
	} else {
		results, err = driver.GenerateAll(cmd.Context(), jobs, parallel, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}
	return results, nil
}

// displayDir renders dir relative to the working directory when it lies below it.
func displayDir(dir string) string {
	wd, err := os.Getwd()
	if err != nil {
		return dir
	}
	rel, err := filepath.Rel(wd, dir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return dir
	}
	if rel == "." {
		return "."
	}
	return "." + string(filepath.Separator) + rel
}

// printDiagnostics writes res.Bag in the format chosen by --format. With --quiet only
// warnings and errors are shown.
func printDiagnostics(cmd *cobra.Command, res *driver.Result) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}

	bag := res.Bag
	if quiet {
		bag.Filter(func(d diag.Diagnostic) bool { return d.Severity != diag.SevInfo })
	}
	bag.Dedup()
	bag.Sort()

	pathMode := diagfmt.PathModeRelative
	if fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}
	out := cmd.OutOrStdout()
	switch format {
	case "pretty":
		color, err := useColor(cmd, out)
		if err != nil {
			return err
		}
		diagfmt.Pretty(out, bag, res.FileSet, diagfmt.PrettyOpts{
			Color:     color,
			PathMode:  pathMode,
			ShowNotes: withNotes,
		})
	case "short":
		if s := diag.FormatShortDiagnostics(bag.Items(), res.FileSet, withNotes); s != "" {
			fmt.Fprintln(out, s)
		}
	case "json":
		jsonOpts := diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         pathMode,
			IncludeNotes:     withNotes,
		}
		if err := diagfmt.JSON(out, bag, res.FileSet, jsonOpts); err != nil {
			return fmt.Errorf("failed to format diagnostics: %w", err)
		}
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
	return nil
}

// printTimings writes the phase report when --timings is set. label names the
// package when a command ran several.
func printTimings(cmd *cobra.Command, label string, report observ.Report, cached bool) error {
	show, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	if !show {
		return nil
	}
	writeTimings(cmd.ErrOrStderr(), label, report, cached)
	return nil
}

func writeTimings(w io.Writer, label string, report observ.Report, cached bool) {
	if label == "" {
		fmt.Fprintln(w, "timings:")
	} else {
		fmt.Fprintf(w, "timings (%s):\n", label)
	}
	for _, p := range report.Phases {
		fmt.Fprintf(w, "  %-10s %7.2f ms", p.Name, p.DurationMS)
		if p.Note != "" {
			fmt.Fprintf(w, "  // %s", p.Note)
		}
		fmt.Fprintln(w)
	}
	total := fmt.Sprintf("  %-10s %7.2f ms", "total", report.TotalMS)
	if cached {
		total += "  // cached"
	}
	fmt.Fprintln(w, total)
}
