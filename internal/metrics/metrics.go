// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//nolint:gochecknoglobals // process-wide collectors
var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	routingDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mbuy",
			Subsystem: "routing",
			Name:      "decisions_total",
			Help:      "Host routing decisions by action.",
		},
		[]string{"action"},
	)

	storefrontRenders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mbuy",
			Subsystem: "storefront",
			Name:      "renders_total",
			Help:      "Store page renders by result.",
		},
		[]string{"result"},
	)

	backendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mbuy",
			Subsystem: "backend",
			Name:      "request_duration_seconds",
			Help:      "Duration of backend API calls.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"operation", "outcome"},
	)

	onboardingSteps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mbuy",
			Subsystem: "onboarding",
			Name:      "step_transitions_total",
			Help:      "Onboarding wizard transitions by target step and action.",
		},
		[]string{"step", "action"},
	)
)

func init() {
	Registry.MustRegister(
		routingDecisions,
		storefrontRenders,
		backendDuration,
		onboardingSteps,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordRoutingDecision counts one host routing decision.
func RecordRoutingDecision(action string) {
	routingDecisions.WithLabelValues(action).Inc()
}

// RecordStorefrontRender counts one store page render outcome.
func RecordStorefrontRender(result string) {
	storefrontRenders.WithLabelValues(result).Inc()
}

// RecordBackendCall records the duration of a backend API call.
func RecordBackendCall(operation, outcome string, duration time.Duration) {
	if duration <= 0 {
		duration = time.Millisecond
	}
	backendDuration.WithLabelValues(operation, outcome).Observe(duration.Seconds())
}

// RecordOnboardingTransition counts a wizard transition.
func RecordOnboardingTransition(step, action string) {
	onboardingSteps.WithLabelValues(step, action).Inc()
}
