// Package metrics exposes run counters over Prometheus. The server is
// optional; counters are always updated so tests and the final report can
// read them regardless.
package metrics

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// FilesDeletedTotal counts files removed or trashed this process.
	FilesDeletedTotal prometheus.Counter

	// BytesFreedTotal counts bytes reclaimed.
	BytesFreedTotal prometheus.Counter

	// DeleteErrorsTotal counts per-file failures.
	DeleteErrorsTotal prometheus.Counter

	// SkippedMissingTotal counts files that vanished between scan and delete.
	SkippedMissingTotal prometheus.Counter

	// RunDuration tracks wall time of the delete phase.
	RunDuration prometheus.Histogram
)

var (
	initOnce    sync.Once
	serverMutex sync.Mutex
	currentSrv  *http.Server
)

// Init registers all metrics. Safe to call multiple times (uses sync.Once).
func Init() {
	initOnce.Do(func() {
		FilesDeletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spacefree_files_deleted_total",
			Help: "Total number of files deleted or trashed.",
		})
		BytesFreedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spacefree_bytes_freed_total",
			Help: "Total bytes reclaimed.",
		})
		DeleteErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spacefree_delete_errors_total",
			Help: "Total number of per-file deletion failures.",
		})
		SkippedMissingTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spacefree_skipped_missing_total",
			Help: "Files that no longer existed at deletion time.",
		})
		RunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "spacefree_run_duration_seconds",
			Help:    "Duration of the delete phase in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		})

		prometheus.MustRegister(
			FilesDeletedTotal,
			BytesFreedTotal,
			DeleteErrorsTotal,
			SkippedMissingTotal,
			RunDuration,
		)
	})
}

// StartServer starts the metrics HTTP server on addr, exposing /metrics.
func StartServer(addr string, logger *log.Logger) {
	serverMutex.Lock()
	defer serverMutex.Unlock()

	if currentSrv != nil {
		logger.Printf("metrics server already running on %s", currentSrv.Addr)
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	currentSrv = srv

	go func() {
		logger.Printf("metrics server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("metrics server error: %v", err)
		}
	}()
}

// Shutdown stops the metrics server if one is running.
func Shutdown(ctx context.Context, logger *log.Logger) {
	serverMutex.Lock()
	defer serverMutex.Unlock()

	if currentSrv == nil {
		return
	}
	if err := currentSrv.Shutdown(ctx); err != nil {
		logger.Printf("metrics server shutdown error: %v", err)
	}
	currentSrv = nil
}
