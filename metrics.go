package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "catpage",
			Name:      "fetch_total",
			Help:      "Total number of image fetches by outcome",
		},
		[]string{"source", "status"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "catpage",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of image fetches in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	// TransitionsTotal counts page state changes; "discarded" is a completion
	// that lost to a newer request.
	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "catpage",
			Name:      "page_transitions_total",
			Help:      "Total number of page state transitions",
		},
		[]string{"transition"},
	)

	PagesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "catpage",
			Name:      "pages_created_total",
			Help:      "Total number of page instances registered",
		},
	)
)

func RecordFetch(source, status string, duration float64) {
	FetchTotal.WithLabelValues(source, status).Inc()
	FetchDuration.WithLabelValues(source).Observe(duration)
}

func RecordTransition(transition string) {
	TransitionsTotal.WithLabelValues(transition).Inc()
}
