package pipeline

import (
	"math"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Definition
var (
	samplesProcessedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "spikelens_samples_processed_total",
			Help: "Total number of samples fed through the anomaly detector.",
		},
	)
	anomaliesDetectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "spikelens_anomalies_detected_total",
			Help: "Total number of samples flagged as anomalous.",
		},
	)
	windowMean = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "spikelens_window_mean",
			Help: "Mean of the detector's current sliding window.",
		},
	)
	windowStdDev = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "spikelens_window_stddev",
			Help: "Population standard deviation of the detector's current sliding window.",
		},
	)
	lastZScore = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "spikelens_last_zscore",
			Help: "Z-score of the most recently processed sample (0 when judgment was skipped).",
		},
	)
	windowFill = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "spikelens_window_fill",
			Help: "Number of samples currently held in the sliding window.",
		},
	)
)

// setGauge skips non-finite values so a NaN passing through the window never
// poisons the exported series.
func setGauge(g prometheus.Gauge, v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	g.Set(v)
}
