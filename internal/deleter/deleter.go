// Package deleter executes the mutation phase: a fixed pool of workers
// draining the candidate list produced by the scan. Nothing here runs until
// the confirmation gate has approved the run.
package deleter

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"spacefree/internal/fsops"
	"spacefree/internal/history"
	"spacefree/internal/metrics"
	"spacefree/internal/safety"
	"spacefree/internal/scan"
)

// Mode selects what happens to an approved candidate.
type Mode int

const (
	Permanent Mode = iota
	Trash
	DryRun
)

func (m Mode) String() string {
	switch m {
	case Trash:
		return "trash"
	case DryRun:
		return "dry-run"
	default:
		return "permanent"
	}
}

func (m Mode) action() string {
	switch m {
	case Trash:
		return history.ActionTrash
	case DryRun:
		return history.ActionDryRun
	default:
		return history.ActionDelete
	}
}

// Outcome accumulates per-file results across all workers. SkippedMissing is
// not counted as a failure: a file that vanished between scan and delete
// needed no work.
type Outcome struct {
	Succeeded      uint64
	Failed         uint64
	SkippedMissing uint64
	BytesFreed     uint64
}

// Logger interface for structured deletion logging
type Logger interface {
	Info(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// stdLogger wraps standard log.Logger to implement the Logger interface
type stdLogger struct {
	*log.Logger
}

func (l *stdLogger) Info(msg string, args ...interface{}) {
	l.logWithLevel("INFO", msg, args...)
}

func (l *stdLogger) Error(msg string, args ...interface{}) {
	l.logWithLevel("ERROR", msg, args...)
}

func (l *stdLogger) logWithLevel(level, msg string, args ...interface{}) {
	parts := []interface{}{fmt.Sprintf("[%s]", level), msg}
	parts = append(parts, args...)
	l.Logger.Println(parts...)
}

// Recorder persists per-file outcomes; satisfied by *history.DB.
type Recorder interface {
	Record(action, path string, size uint64, errMsg string) error
}

// Metrics interface for deletion metrics
type Metrics interface {
	FilesDeletedTotal() prometheus.Counter
	BytesFreedTotal() prometheus.Counter
	DeleteErrorsTotal() prometheus.Counter
	SkippedMissingTotal() prometheus.Counter
}

// globalMetrics wraps the registered package metrics
type globalMetrics struct{}

func (globalMetrics) FilesDeletedTotal() prometheus.Counter   { return metrics.FilesDeletedTotal }
func (globalMetrics) BytesFreedTotal() prometheus.Counter     { return metrics.BytesFreedTotal }
func (globalMetrics) DeleteErrorsTotal() prometheus.Counter   { return metrics.DeleteErrorsTotal }
func (globalMetrics) SkippedMissingTotal() prometheus.Counter { return metrics.SkippedMissingTotal }

// Config assembles a Deleter. Remover, Validator and Workers are required;
// the rest default sensibly.
type Config struct {
	Mode      Mode
	Remover   fsops.Remover
	Validator *safety.Validator
	Workers   int

	Logger   *log.Logger
	Recorder Recorder          // optional history sink
	Verbose  bool              // log every file, not just failures
	Progress func(f scan.File) // called after each processed file
}

type Deleter struct {
	mode      Mode
	remover   fsops.Remover
	validator *safety.Validator
	workers   int
	logger    Logger
	metrics   Metrics
	recorder  Recorder
	verbose   bool
	progress  func(f scan.File)
}

func New(cfg Config) *Deleter {
	// The counters are package globals; make sure they exist even when the
	// caller never started the metrics subsystem itself.
	metrics.Init()

	l := cfg.Logger
	if l == nil {
		l = log.Default()
	}
	return &Deleter{
		mode:      cfg.Mode,
		remover:   cfg.Remover,
		validator: cfg.Validator,
		workers:   cfg.Workers,
		logger:    &stdLogger{Logger: l},
		metrics:   globalMetrics{},
		recorder:  cfg.Recorder,
		verbose:   cfg.Verbose,
		progress:  cfg.Progress,
	}
}

// Run drains files through the worker pool and returns the aggregate
// outcome. Every file is attempted even when earlier ones fail; only context
// cancellation stops the run early.
func (d *Deleter) Run(ctx context.Context, files []scan.File) Outcome {
	start := time.Now()

	var succeeded, failed, skipped, bytes atomic.Uint64

	jobs := make(chan scan.File)
	var wg sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for f := range jobs {
				switch err := d.processOne(f); {
				case err == nil:
					succeeded.Add(1)
					bytes.Add(f.Size)
				case errors.Is(err, fs.ErrNotExist):
					skipped.Add(1)
				default:
					failed.Add(1)
				}
				if d.progress != nil {
					d.progress(f)
				}
			}
		}()
	}

feed:
	for _, f := range files {
		select {
		case jobs <- f:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	metrics.RunDuration.Observe(time.Since(start).Seconds())

	return Outcome{
		Succeeded:      succeeded.Load(),
		Failed:         failed.Load(),
		SkippedMissing: skipped.Load(),
		BytesFreed:     bytes.Load(),
	}
}

// processOne handles a single candidate. The returned error is nil on
// success, fs.ErrNotExist when the file vanished, and the underlying failure
// otherwise.
func (d *Deleter) processOne(f scan.File) error {
	if err := d.validator.ValidateTarget(f.Path); err != nil {
		d.logger.Error("refusing to delete", "path", f.Path, "error", err)
		d.record(history.ActionError, f, err)
		d.metrics.DeleteErrorsTotal().Inc()
		return err
	}

	if d.mode == DryRun {
		d.logger.Info("[DRY RUN] would delete", "path", f.Path, "size", f.Size)
		d.record(history.ActionDryRun, f, nil)
		return nil
	}

	var err error
	if d.mode == Trash {
		err = d.remover.Trash(f.Path)
	} else {
		err = d.remover.Remove(f.Path)
	}

	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// Already gone, likely deleted by another process since the scan.
			d.logger.Info("file already gone", "path", f.Path)
			d.record(history.ActionSkipMissing, f, nil)
			d.metrics.SkippedMissingTotal().Inc()
			return err
		}
		d.logger.Error("failed to delete", "path", f.Path, "error", err)
		d.record(history.ActionError, f, err)
		d.metrics.DeleteErrorsTotal().Inc()
		return err
	}

	if d.verbose {
		d.logger.Info("deleted", "path", f.Path, "size", f.Size, "mode", d.mode.String())
	}
	d.record(d.mode.action(), f, nil)
	d.metrics.FilesDeletedTotal().Inc()
	d.metrics.BytesFreedTotal().Add(float64(f.Size))
	return nil
}

func (d *Deleter) record(action string, f scan.File, cause error) {
	if d.recorder == nil {
		return
	}
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	if err := d.recorder.Record(action, f.Path, f.Size, msg); err != nil {
		// History is best effort; never fail the run over it.
		d.logger.Error("failed to record history", "error", err)
	}
}
