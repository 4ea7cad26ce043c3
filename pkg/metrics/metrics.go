package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Volume inventory
	VolumesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vordr_volumes_total",
			Help: "Total number of volume records by state",
		},
		[]string{"state"},
	)

	// Lifecycle operations
	VolumeOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vordr_volume_operations_total",
			Help: "Total number of volume operations by operation and result",
		},
		[]string{"operation", "result"},
	)

	VolumeOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vordr_volume_operation_duration_seconds",
			Help:    "Volume operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Security checks
	ValidationFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vordr_validation_failures_total",
			Help: "Total number of rejected names and paths by reason",
		},
		[]string{"reason"},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(VolumesTotal)
	prometheus.MustRegister(VolumeOperationsTotal)
	prometheus.MustRegister(VolumeOperationDuration)
	prometheus.MustRegister(ValidationFailuresTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// WriteTextfile writes every registered metric to path in the text
// exposition format, for node_exporter's textfile collector
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

// Timer measures the duration of an operation
type Timer struct {
	start time.Time
}

// NewTimer starts a timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the time elapsed since the timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration records the elapsed time in seconds
func (t *Timer) ObserveDuration(h prometheus.Observer) {
	h.Observe(t.Duration().Seconds())
}

// ObserveDurationVec records the elapsed time for the given label values
func (t *Timer) ObserveDurationVec(h *prometheus.HistogramVec, labels ...string) {
	h.WithLabelValues(labels...).Observe(t.Duration().Seconds())
}

// RecordOperation counts a finished lifecycle operation and observes its duration
func RecordOperation(operation string, timer *Timer, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	VolumeOperationsTotal.WithLabelValues(operation, result).Inc()
	timer.ObserveDurationVec(VolumeOperationDuration, operation)
}
