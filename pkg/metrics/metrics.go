package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure|locked).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "careerhub_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// PermissionChecks counts permission resolutions and their outcome (granted|denied|error),
	// labelled with the verdict source (admin|override|role|none).
	PermissionChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "careerhub_permission_checks_total",
			Help: "Total number of permission checks",
		},
		[]string{"permission", "result"},
	)

	// AuditWrites counts audit log entries persisted by action.
	AuditWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "careerhub_audit_writes_total",
			Help: "Total number of permission audit log entries written",
		},
		[]string{"action"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "careerhub_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
