// Package metrics defines the Prometheus collectors for the practice API.
// Collectors are registered on the default registry at package init through
// promauto and exposed by the /metrics route.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "practice"

// PermissionDecisionsTotal counts gate decisions.
// Labels:
//   - capability: the capability checked, or "authenticated" for routes that
//     only require a caller
//   - outcome: "granted", "unauthenticated" or "forbidden"
var PermissionDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "permission_decisions_total",
		Help:      "Total number of permission gate decisions.",
	},
	[]string{"capability", "outcome"},
)

// HandlerFailuresTotal counts handler failures by kind.
var HandlerFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "handler_failures_total",
		Help:      "Total number of route handler failures, by failure kind.",
	},
	[]string{"kind"},
)

// AuditWritesTotal counts audit sink writes.
// Label result: "ok" or "error".
var AuditWritesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_writes_total",
		Help:      "Total number of audit records written, by result.",
	},
	[]string{"result"},
)

// DeliveriesTotal counts notification deliveries.
// Labels:
//   - channel: "email"
//   - status: "sent" or "failed"
var DeliveriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_deliveries_total",
		Help:      "Total number of notification delivery attempts, by channel and status.",
	},
	[]string{"channel", "status"},
)

// DeliveryLogFailuresTotal counts delivery log writes that failed and were
// swallowed.
var DeliveryLogFailuresTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "delivery_log_failures_total",
		Help:      "Total number of delivery log writes that failed.",
	},
)

// RateLimitedTotal counts requests rejected by the rate limiter.
var RateLimitedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected by the rate limiter.",
	},
)

// IntegrationEventsProcessedTotal counts processed inbound integration events.
// Label result: "processed" or "failed".
var IntegrationEventsProcessedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "integration_events_processed_total",
		Help:      "Total number of inbound integration events handled, by result.",
	},
	[]string{"result"},
)

// EPrescriptionSubmissionsTotal counts e-prescribing submissions.
// Label result: "submitted", "rejected" or "failed".
var EPrescriptionSubmissionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "eprescription_submissions_total",
		Help:      "Total number of e-prescription submissions, by result.",
	},
	[]string{"result"},
)
