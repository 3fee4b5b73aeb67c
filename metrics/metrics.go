// Package metrics provides Prometheus instrumentation for shrines and the virtual tree.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Work item outcomes.
const (
	StatusOK       = "ok"
	StatusFailed   = "failed"
	StatusPanicked = "panicked"
)

var (
	workItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oosikle_shrine_work_items_total",
			Help: "Total number of work items executed by shrine workers",
		},
		[]string{"shrine", "status"},
	)

	workItemDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oosikle_shrine_work_item_duration_seconds",
			Help:    "Time spent executing a single work item on the worker thread",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"shrine"},
	)

	rejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oosikle_shrine_rejected_total",
			Help: "Total number of calls rejected because the shrine worker was unavailable",
		},
		[]string{"shrine"},
	)

	workersRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "oosikle_shrine_workers",
			Help: "Number of shrine worker threads currently running",
		},
	)

	treeBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "oosikle_facadefs_tree_build_seconds",
			Help:    "Time to build a virtual directory tree from the catalog",
			Buckets: prometheus.DefBuckets,
		},
	)

	treeFiles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "oosikle_facadefs_tree_files",
			Help: "Number of files in the most recently built virtual directory tree",
		},
	)
)

// RecordWorkItem records the outcome and duration of one executed work item.
func RecordWorkItem(shrine, status string, d time.Duration) {
	workItemsTotal.WithLabelValues(shrine, status).Inc()
	workItemDuration.WithLabelValues(shrine).Observe(d.Seconds())
}

// RecordRejected counts a call that found the worker gone.
func RecordRejected(shrine string) {
	rejectedTotal.WithLabelValues(shrine).Inc()
}

// WorkerStarted and WorkerStopped track the number of live worker threads.
func WorkerStarted() {
	workersRunning.Inc()
}

func WorkerStopped() {
	workersRunning.Dec()
}

// RecordTreeBuild records a completed tree build and its total file count.
func RecordTreeBuild(d time.Duration, files int) {
	treeBuildDuration.Observe(d.Seconds())
	treeFiles.Set(float64(files))
}

// Handler returns the HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
