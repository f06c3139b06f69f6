// Package metrics defines and registers the custom Prometheus metrics of the
// task management API. It is the single source of truth for metric names,
// labels and help strings. All metrics register with the default registry on
// package init via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "taskapi"

// ── Auth metrics ─────────────────────────────────────────────────────────────

// AuthFailuresTotal counts requests rejected during authentication.
// Label:
//   - reason: the reason code returned to the client (e.g. "TOKEN_EXPIRED")
var AuthFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_failures_total",
		Help:      "Total number of requests rejected during authentication, by reason code.",
	},
	[]string{"reason"},
)

// AccessDenialsTotal counts authenticated requests refused for lack of role.
// Label:
//   - operation: the registered operation name (e.g. "analytics.report")
var AccessDenialsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_denials_total",
		Help:      "Total number of requests denied by role, by operation.",
	},
	[]string{"operation"},
)

// CredentialStoreErrorsTotal counts identity lookups that failed for reasons
// other than a missing user.
var CredentialStoreErrorsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "credential_store_errors_total",
		Help:      "Total number of credential store failures during identity resolution.",
	},
)

// ── Rate limit metrics ───────────────────────────────────────────────────────

// RateLimitedTotal counts requests rejected with 429.
// Label:
//   - scope: "general" or "auth"
var RateLimitedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected by the rate limiter.",
	},
	[]string{"scope"},
)

// RateLimiterErrorsTotal counts limiter backend failures. Requests are let
// through when this happens.
var RateLimiterErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limiter_errors_total",
		Help:      "Total number of rate limiter backend errors (request allowed).",
	},
	[]string{"scope"},
)

// ── Task metrics ─────────────────────────────────────────────────────────────

// TasksCreatedTotal counts newly created tasks.
// Label:
//   - priority: "low", "medium" or "high"
var TasksCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_created_total",
		Help:      "Total number of tasks created, by priority.",
	},
	[]string{"priority"},
)

// TasksDeletedTotal counts deleted tasks.
var TasksDeletedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_deleted_total",
		Help:      "Total number of tasks deleted.",
	},
)

// ── Audit metrics ────────────────────────────────────────────────────────────

// AuditEventsTotal counts audit records by outcome.
// Label:
//   - result: "persisted", "failed" or "dropped" (queue full or closed)
var AuditEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_total",
		Help:      "Total number of access-denial audit records, by outcome.",
	},
	[]string{"result"},
)

// AuditQueueDepth tracks records waiting in each dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit records pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// AuditWriteDuration measures how long persisting one audit record takes.
var AuditWriteDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "audit_write_duration_seconds",
		Help:      "Duration of a single audit record write.",
		Buckets:   prometheus.DefBuckets,
	},
)
