package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_provider_requests_total",
			Help: "Generation attempts per backend and outcome",
		},
		[]string{"provider", "outcome"},
	)

	ProviderFailovers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_provider_failovers_total",
			Help: "Primary/secondary swaps performed by the dispatcher",
		},
		[]string{"from", "to", "reason"},
	)

	ExtractionResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_extraction_results_total",
			Help: "Query analyses by result source",
		},
		[]string{"source"},
	)

	AugmentationDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_augmentation_decisions_total",
			Help: "Augmentation decisions by rationale",
		},
		[]string{"rationale"},
	)

	CatalogQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_catalog_queries_total",
			Help: "Catalog lookups by backend and outcome",
		},
		[]string{"backend", "outcome"},
	)

	WebSearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_web_search_requests_total",
			Help: "Web search calls by outcome",
		},
		[]string{"outcome"},
	)

	SessionsExpired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_sessions_expired_total",
			Help: "Sessions removed after their TTL, by detection path",
		},
		[]string{"path"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assistant_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "status"},
	)
)
