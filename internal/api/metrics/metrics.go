// Package metrics defines and registers all custom Prometheus metrics for the
// coursehub services. It is the single source of truth for metric names,
// labels, and help strings; promauto registers everything with the default
// registry at import time.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "coursehub"

// ── Token lifecycle metrics ───────────────────────────────────────────────────

// TokensIssuedTotal counts persisted token records.
// Label:
//   - kind: "accessToken" or "refreshToken"
var TokensIssuedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_issued_total",
		Help:      "Total number of token records persisted, by kind.",
	},
	[]string{"kind"},
)

// TokensRevokedTotal counts tokens swept by revoke-all operations (sign-in
// rotation, log-out, refresh, identity updates).
var TokensRevokedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_revoked_total",
		Help:      "Total number of tokens marked revoked and expired by revoke sweeps.",
	},
)

// TokensUnusableTotal counts validations that found a token record with both
// terminal flags set. The verdict is still false; this counter is what makes
// the state observable.
var TokensUnusableTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_unusable_total",
		Help:      "Total number of validations that found a token both revoked and expired.",
	},
)

// ── Validation metrics ────────────────────────────────────────────────────────

// TokenValidationsTotal counts validate-access-token verdicts.
// Label:
//   - result: "valid" or "invalid"
var TokenValidationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_validations_total",
		Help:      "Total number of access-token validation verdicts, by result.",
	},
	[]string{"result"},
)

// ── Cross-service call metrics ────────────────────────────────────────────────

// RemoteFallbacksTotal counts guarded remote calls that fell back after
// exhausting the breaker or retry budget.
// Label:
//   - dependency: the breaker name (e.g. "user-service")
var RemoteFallbacksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "remote_fallbacks_total",
		Help:      "Total number of guarded remote calls answered by a fallback.",
	},
	[]string{"dependency"},
)
