// Command spacefree scans directories for files matching a glob pattern and
// deletes them after an explicit confirmation. Scan and delete are strictly
// separated: nothing is mutated until the gate approves.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"spacefree/internal/config"
	"spacefree/internal/confirm"
	"spacefree/internal/deleter"
	"spacefree/internal/exitcodes"
	"spacefree/internal/fsops"
	"spacefree/internal/globmatch"
	"spacefree/internal/history"
	"spacefree/internal/logging"
	"spacefree/internal/metrics"
	"spacefree/internal/pathspec"
	"spacefree/internal/safety"
	"spacefree/internal/scan"
	"spacefree/internal/units"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

type flags struct {
	glob        string
	exclude     string
	minSize     string
	trash       bool
	dryRun      bool
	yes         bool
	parallelism int
	verbose     bool
	noProgress  bool
	configFile  string
	logFile     string
	historyDB   string
	metricsPort int
}

func run(args []string) int {
	code := exitcodes.Success
	fl := &flags{}

	root := &cobra.Command{
		Use:   "spacefree PATHS...",
		Short: "Batch-delete files matching a glob, with a confirmation gate",
		Long: `spacefree scans one or more directories for files matching a glob
pattern, shows what it found, and deletes the files only after explicit
confirmation. PATHS are directories to scan, or text files listing
directories (comma, space or newline separated).`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			code, err = execute(cmd, args, fl)
			return err
		},
	}

	f := root.Flags()
	f.StringVarP(&fl.glob, "glob", "g", "**/*", "glob pattern files must match")
	f.StringVar(&fl.exclude, "exclude", "", "glob pattern for files to keep")
	f.StringVar(&fl.minSize, "min-size", "", "minimum file size, e.g. 500K or 2GB")
	f.BoolVar(&fl.trash, "trash", false, "move files to the trash instead of deleting")
	f.BoolVar(&fl.dryRun, "dry-run", false, "report what would be deleted without deleting")
	f.BoolVarP(&fl.yes, "yes", "y", false, "skip the confirmation prompt")
	f.IntVarP(&fl.parallelism, "parallelism", "p", 0, "concurrent deletions (default 4x CPUs)")
	f.BoolVarP(&fl.verbose, "verbose", "v", false, "log every deleted file")
	f.BoolVar(&fl.noProgress, "no-progress", false, "disable the progress bar")
	f.StringVar(&fl.configFile, "config", "", "YAML defaults file")
	f.StringVar(&fl.logFile, "log-file", "", "mirror log output to this file")
	f.StringVar(&fl.historyDB, "history-db", "", "record outcomes to this SQLite database")
	f.IntVar(&fl.metricsPort, "metrics-port", 0, "serve Prometheus metrics on this port")

	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "spacefree: %v\n", err)
		if code == exitcodes.Success {
			code = exitcodes.RuntimeError
		}
	}
	return code
}

// resolveOptions merges the defaults file under the flags. A flag the user
// set always wins; file values only fill flags left at their defaults.
func resolveOptions(cmd *cobra.Command, args []string, fl *flags) (*config.Options, error) {
	path, required := fl.configFile, true
	if path == "" {
		required = false
		if dir, err := os.UserConfigDir(); err == nil {
			path = filepath.Join(dir, "spacefree", "config.yaml")
		}
	}

	fc := &config.FileConfig{}
	if path != "" {
		var err error
		fc, err = config.LoadFile(path, required)
		if err != nil {
			return nil, err
		}
	}

	changed := cmd.Flags().Changed
	if !changed("glob") && fc.Glob != "" {
		fl.glob = fc.Glob
	}
	if !changed("exclude") && fc.Exclude != "" {
		fl.exclude = fc.Exclude
	}
	if !changed("min-size") && fc.MinSize != "" {
		fl.minSize = fc.MinSize
	}
	if !changed("trash") && fc.Trash {
		fl.trash = true
	}
	if !changed("parallelism") && fc.Parallelism != 0 {
		fl.parallelism = fc.Parallelism
	}
	if !changed("log-file") && fc.LogFile != "" {
		fl.logFile = fc.LogFile
	}
	if !changed("history-db") && fc.HistoryDB != "" {
		fl.historyDB = fc.HistoryDB
	}
	if !changed("metrics-port") && fc.MetricsPort != 0 {
		fl.metricsPort = fc.MetricsPort
	}

	// An explicit zero is a config error, not a request for the default.
	if changed("parallelism") && fl.parallelism < 1 {
		return nil, fmt.Errorf("%w: got %d", config.ErrBadParallelism, fl.parallelism)
	}

	minSize, err := units.ParseSize(fl.minSize)
	if err != nil {
		return nil, fmt.Errorf("--min-size: %w", err)
	}

	opts := &config.Options{
		Paths:       args,
		Glob:        fl.glob,
		Exclude:     fl.exclude,
		MinSize:     minSize,
		Trash:       fl.trash,
		DryRun:      fl.dryRun,
		Yes:         fl.yes,
		Parallelism: fl.parallelism,
		Verbose:     fl.verbose,
		NoProgress:  fl.noProgress,
		LogFile:     fl.logFile,
		HistoryDB:   fl.historyDB,
		MetricsPort: fl.metricsPort,
	}
	if err := opts.ValidateAndDefault(); err != nil {
		return nil, err
	}
	return opts, nil
}

func execute(cmd *cobra.Command, args []string, fl *flags) (int, error) {
	opts, err := resolveOptions(cmd, args, fl)
	if err != nil {
		return exitcodes.InvalidConfig, err
	}

	matcher, err := globmatch.Compile(opts.Glob, opts.Exclude)
	if err != nil {
		return exitcodes.InvalidConfig, err
	}

	logger, closeLog, err := logging.New(opts.LogFile)
	if err != nil {
		return exitcodes.RuntimeError, err
	}
	defer closeLog()

	collected, err := pathspec.Collect(opts.Paths)
	for _, w := range collected.Warnings {
		logger.Printf("warning: %s", w)
	}
	if err != nil {
		return exitcodes.InvalidConfig, err
	}

	metrics.Init()
	if opts.MetricsPort > 0 {
		metrics.StartServer(fmt.Sprintf(":%d", opts.MetricsPort), logger)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			metrics.Shutdown(ctx, logger)
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := scan.Run(ctx, collected.Roots, matcher, opts.MinSize)
	if err != nil {
		return exitcodes.RuntimeError, err
	}
	for _, w := range result.Warnings {
		logger.Printf("warning: %s", w)
	}

	if len(result.Files) == 0 {
		fmt.Println("Nothing matched.")
		return exitcodes.Success, nil
	}

	mode := deleter.Permanent
	if opts.Trash {
		mode = deleter.Trash
	}
	if opts.DryRun {
		mode = deleter.DryRun
	}

	verb := "delete"
	if mode == deleter.Trash {
		verb = "trash"
	}

	if mode == deleter.DryRun {
		fmt.Printf("Would %s %d file(s), %s total.\n",
			verb, len(result.Files), humanize.IBytes(result.TotalBytes))
	} else if !opts.Yes {
		if err := confirm.Ask(os.Stdout, os.Stdin, confirm.Summary{
			Files:      len(result.Files),
			TotalBytes: result.TotalBytes,
			Preview:    result.Preview(),
			Truncated:  result.Truncated(),
			Mode:       verb,
		}); err != nil {
			return exitcodes.Aborted, err
		}
	}

	var recorder deleter.Recorder
	var db *history.DB
	if opts.HistoryDB != "" {
		db, err = history.Open(opts.HistoryDB)
		if err != nil {
			return exitcodes.RuntimeError, err
		}
		defer db.Close()
		if err := db.BeginRun(mode.String()); err != nil {
			return exitcodes.RuntimeError, err
		}
		recorder = db
	}

	var progress func(scan.File)
	if !opts.NoProgress && !opts.Verbose && mode != deleter.DryRun {
		bar := progressbar.NewOptions(len(result.Files),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("deleting"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		progress = func(scan.File) { bar.Add(1) }
	}

	d := deleter.New(deleter.Config{
		Mode:      mode,
		Remover:   fsops.OSRemover{},
		Validator: safety.NewValidator(collected.Roots, nil),
		Workers:   opts.Parallelism,
		Logger:    logger,
		Recorder:  recorder,
		Verbose:   opts.Verbose,
		Progress:  progress,
	})
	outcome := d.Run(ctx, result.Files)

	report(mode, outcome)

	if db != nil {
		counts, bytes, err := db.RunSummary()
		if err != nil {
			logger.Printf("warning: history summary: %v", err)
		} else {
			logger.Printf("history: recorded %v, %s total", counts, humanize.IBytes(bytes))
		}
	}

	if ctx.Err() != nil {
		return exitcodes.RuntimeError, errors.New("interrupted")
	}
	if outcome.Failed > 0 {
		return exitcodes.PartialFailure, fmt.Errorf("%d file(s) could not be removed", outcome.Failed)
	}
	return exitcodes.Success, nil
}

func report(mode deleter.Mode, out deleter.Outcome) {
	switch mode {
	case deleter.DryRun:
		fmt.Printf("Dry run: %d file(s), %s would be freed.\n",
			out.Succeeded, humanize.IBytes(out.BytesFreed))
	case deleter.Trash:
		fmt.Printf("Trashed %d file(s), %s freed.\n",
			out.Succeeded, humanize.IBytes(out.BytesFreed))
	default:
		fmt.Printf("Deleted %d file(s), %s freed.\n",
			out.Succeeded, humanize.IBytes(out.BytesFreed))
	}
	if out.SkippedMissing > 0 {
		fmt.Printf("Skipped %d file(s) that no longer existed.\n", out.SkippedMissing)
	}
	if out.Failed > 0 {
		fmt.Printf("Failed to process %d file(s); see the log for details.\n", out.Failed)
	}
}
