// Package metrics defines the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AICallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "matcorner_ai_calls_total",
		Help: "Total number of generative AI calls, by operation and status",
	}, []string{"operation", "status"})

	AICallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "matcorner_ai_call_duration_seconds",
		Help:    "Duration of generative AI calls",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"operation"})

	NavigationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "matcorner_navigation_total",
		Help: "Total number of diagram navigation attempts, by result",
	}, []string{"result"})

	SegmentExtractionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "matcorner_segment_extractions_total",
		Help: "Total number of video segment extractions, by status",
	}, []string{"status"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "matcorner_active_sessions",
		Help: "Number of currently active user sessions",
	})
)
