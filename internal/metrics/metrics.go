// Package metrics defines the Prometheus instruments for the sync service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label value constants to prevent typos
const (
	// HTTP endpoints
	EndpointConnect    = "connect"
	EndpointAuthorized = "authorized"
	EndpointDisconnect = "disconnect"
	EndpointAthlete    = "athlete"
	EndpointActivities = "activities"
	EndpointGear       = "gear"
	EndpointSync       = "sync"
	EndpointHealth     = "health"

	// Sync operations
	SyncOpIncremental = "incremental"
	SyncOpRebuild     = "rebuild"
	SyncOpSingle      = "single"
	SyncOpEquipment   = "equipment"
	SyncOpSportTypes  = "sport_types"

	// Sync results
	ResultSuccess = "success"
	ResultFailure = "failure"

	// Rate limit windows
	RateLimit15Min = "15min"
	RateLimitDaily = "daily"

	// Rate limit buckets
	BucketLimit = "limit"
	BucketUsage = "usage"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint", "status_code"},
	)
)

// Sync metrics
var (
	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_runs_total",
			Help: "Total number of sync operations by outcome",
		},
		[]string{"operation", "result"},
	)

	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sync_duration_seconds",
			Help:    "Time spent in sync operations",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"operation"},
	)

	ActivitiesSyncedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "activities_synced_total",
			Help: "Total number of activities written by sync passes",
		},
	)
)

// Geocoding metrics
var (
	GeocodeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geocode_requests_total",
			Help: "Total number of reverse geocoding lookups by outcome",
		},
		[]string{"result"},
	)
)

// Remote API metrics
var (
	RemoteAPIRateLimit = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "remote_api_rate_limit",
			Help: "Remote API rate limit windows (limit and current usage)",
		},
		[]string{"window", "bucket"},
	)
)
