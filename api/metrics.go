package api

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts served predictions.
type Metrics struct {
	predictions *prometheus.CounterVec
	failures    *prometheus.CounterVec
	latency     prometheus.Histogram
}

// NewMetrics registers the prediction metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "risk_predictions_total",
			Help: "Predictions served, by model and label.",
		}, []string{"model", "label"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "risk_prediction_failures_total",
			Help: "Prediction requests that failed, by error kind.",
		}, []string{"kind"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "risk_assessment_duration_seconds",
			Help:    "Time spent building the vector and running both models.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.predictions, m.failures, m.latency)
	return m
}
