// Package metrics defines and registers all custom Prometheus metrics for
// the forum API. It is the single source of truth for metric names, labels,
// and help strings; registration happens at import time via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "forum"

// ── Account metrics ───────────────────────────────────────────────────────────

// AccountsRegisteredTotal counts successful registrations.
var AccountsRegisteredTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "accounts_registered_total",
		Help:      "Total number of accounts successfully registered.",
	},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "bad_credentials", "not_found", "locked"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, labelled by result.",
	},
	[]string{"result"},
)

// AuthzDecisionsTotal counts authorization policy evaluations.
// Labels:
//   - action: the gated action (e.g. "account.delete")
//   - decision: "allow" or "deny"
var AuthzDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authz_decisions_total",
		Help:      "Total number of authorization policy decisions.",
	},
	[]string{"action", "decision"},
)

// ── Forum metrics ─────────────────────────────────────────────────────────────

// PostsCreatedTotal counts newly created forum posts.
var PostsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "posts_created_total",
		Help:      "Total number of forum posts created.",
	},
)

// CommentsAddedTotal counts comments appended to posts.
var CommentsAddedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "comments_added_total",
		Help:      "Total number of comments added to posts.",
	},
)

// ── Audit queue metrics ───────────────────────────────────────────────────────

// AuditQueueDepth tracks the number of audit events waiting in each worker
// channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// AuditEventsDroppedTotal counts audit events discarded because the worker
// channel was full.
var AuditEventsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_dropped_total",
		Help:      "Total number of audit events dropped due to a full queue.",
	},
)
