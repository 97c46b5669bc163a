// Package metrics defines and registers all custom Prometheus metrics for the
// grading gateway. It is the single source of truth for metric names, labels,
// and help strings. Metrics register with the default registry at import time
// via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "grading_gateway"

// ── Session metrics ───────────────────────────────────────────────────────────

// LoginsTotal counts credential exchanges.
// Label:
//   - result: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// SessionRefreshesTotal counts CheckAuthStatus runs settling the session.
// Label:
//   - outcome: "authenticated" or "unauthenticated"
var SessionRefreshesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_refreshes_total",
		Help:      "Total number of session validations, by settled outcome.",
	},
	[]string{"outcome"},
)

// GuardDecisionsTotal counts access-guard evaluations on protected routes.
// Label:
//   - decision: "allow", "deny", "redirect", or "loading"
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of access-guard decisions, by outcome.",
	},
	[]string{"decision"},
)

// ── Job proxy metrics ─────────────────────────────────────────────────────────

// ProxyForwardsTotal counts requests relayed to the grading backend.
// Labels:
//   - route: "job_status" or "post_grades"
//   - code: HTTP status returned to the client (e.g. "200", "404", "500")
var ProxyForwardsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "proxy_forwards_total",
		Help:      "Total number of proxied job requests, by route and client-facing status.",
	},
	[]string{"route", "code"},
)

// ProxyUpstreamErrorsTotal counts forwards that failed at the transport layer
// (backend unreachable), as opposed to backend-reported errors.
// Label:
//   - route: "job_status" or "post_grades"
var ProxyUpstreamErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "proxy_upstream_errors_total",
		Help:      "Total number of proxied requests that could not reach the backend.",
	},
	[]string{"route"},
)

// ProxyForwardDuration measures end-to-end forward latency. Buckets stretch
// far beyond the defaults because grade posting is a multi-minute operation.
// Label:
//   - route: "job_status" or "post_grades"
var ProxyForwardDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "proxy_forward_duration_seconds",
		Help:      "Duration of proxied job requests from receipt to relay.",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	},
	[]string{"route"},
)
