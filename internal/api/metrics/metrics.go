// Package metrics defines and registers all custom Prometheus metrics for the
// KYC service. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "kyc"

// ── Provider metrics ──────────────────────────────────────────────────────────

// ProviderCallsTotal counts provider checks by outcome.
// Labels:
//   - check: "phone", "nin", "bvn", "bank_account", "business"
//   - result: "found", "not_found" or "unavailable"
var ProviderCallsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_calls_total",
		Help:      "Total number of verification provider checks, by check and result.",
	},
	[]string{"check", "result"},
)

// ProviderCallDuration measures a provider check including retries.
var ProviderCallDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "provider_call_duration_seconds",
		Help:      "Duration of verification provider checks including retries.",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	},
	[]string{"check"},
)

// ── Tier metrics ──────────────────────────────────────────────────────────────

// TierTransitionsTotal counts persisted tier status changes.
// Labels:
//   - tier: "tier1", "tier2", "tier3"
//   - status: the new status
var TierTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tier_transitions_total",
		Help:      "Total number of persisted tier status transitions.",
	},
	[]string{"tier", "status"},
)

// GateDenialsTotal counts requests blocked by tier gating, once per missing tier.
var GateDenialsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gate_denials_total",
		Help:      "Total number of requests denied by tier gating, by missing tier.",
	},
	[]string{"tier"},
)

// ── Side effect metrics ───────────────────────────────────────────────────────

// SideEffectsTotal counts completion side effects.
// Labels:
//   - kind: "referral", "event", "email"
//   - result: "ok", "error" or "dropped"
var SideEffectsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "side_effects_total",
		Help:      "Total number of best-effort side effects, by kind and result.",
	},
	[]string{"kind", "result"},
)

// DispatchQueueDepth tracks the number of completion events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var DispatchQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "dispatch_queue_depth",
		Help:      "Current number of completion events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
