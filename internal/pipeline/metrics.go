package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the pipeline's Prometheus collectors.
type Metrics struct {
	frames            prometheus.Counter
	detections        *prometheus.CounterVec
	detectionDuration prometheus.Histogram
	renderDuration    prometheus.Histogram
	staleFrames       prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		frames: f.NewCounter(prometheus.CounterOpts{
			Name: "courtvis_frames_total",
			Help: "Total number of annotated frames written",
		}),
		detections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "courtvis_detections_total",
			Help: "Scheduler decisions per frame",
		}, []string{"outcome"}), // outcome: success, failure, skipped
		detectionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "courtvis_detection_duration_seconds",
			Help:    "Detector call duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),
		renderDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "courtvis_frame_render_duration_seconds",
			Help:    "Overlay rendering duration per frame in seconds",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
		}),
		staleFrames: f.NewGauge(prometheus.GaugeOpts{
			Name: "courtvis_stale_frames",
			Help: "Frames since the last successful detection",
		}),
	}
}
