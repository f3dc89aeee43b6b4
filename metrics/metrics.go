// Package metrics wires dumbster's runtime counters into Prometheus, gated behind NewRegistry's
// enabled argument (config Metrics.Enabled, or the -metrics flag) the same way laitos gates its ActivityMonitor/ProcessExplorer metrics behind
// misc.EnablePrometheusIntegration (daemon/maintenance/perfmetrics.go): when metrics are
// disabled, NewRegistry returns a Registry whose methods are safe no-ops, so callers never need
// to branch on whether metrics are turned on.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const label = "server_name"

// Registry holds the Prometheus collectors dumbster reports into. A zero-value-equivalent
// Registry (as returned by NewRegistry when enabled is false) has nil collectors; every method
// guards against that so instrumentation call sites don't need an "if metrics enabled" check.
type Registry struct {
	enabled bool

	connectionsAccepted *prometheus.CounterVec
	connectionsActive   *prometheus.GaugeVec
	messagesCaptured    *prometheus.CounterVec
	connectionDuration  *prometheus.HistogramVec
}

// NewRegistry constructs and registers the dumbster metric collectors when enabled is true. When
// false, it returns a Registry whose Observe*/Inc methods do nothing.
func NewRegistry(enabled bool) *Registry {
	r := &Registry{enabled: enabled}
	if !enabled {
		return r
	}
	labels := []string{label}
	r.connectionsAccepted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dumbster_connections_accepted_total",
		Help: "Total number of SMTP connections accepted.",
	}, labels)
	r.connectionsActive = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dumbster_connections_active",
		Help: "Number of SMTP connections currently being handled.",
	}, labels)
	r.messagesCaptured = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dumbster_messages_captured_total",
		Help: "Total number of messages appended to the capture queue.",
	}, labels)
	r.connectionDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dumbster_connection_duration_seconds",
		Help:    "Duration of a handled SMTP connection, from accept to close.",
		Buckets: prometheus.DefBuckets,
	}, labels)
	prometheus.MustRegister(r.connectionsAccepted, r.connectionsActive, r.messagesCaptured, r.connectionDuration)
	return r
}

// ConnectionAccepted records one accepted connection for serverName.
func (r *Registry) ConnectionAccepted(serverName string) {
	if !r.enabled {
		return
	}
	r.connectionsAccepted.WithLabelValues(serverName).Inc()
	r.connectionsActive.WithLabelValues(serverName).Inc()
}

// ConnectionClosed records that a previously accepted connection finished, after lasting
// duration, and reports how many messages it contributed to the capture queue.
func (r *Registry) ConnectionClosed(serverName string, duration float64, messages int) {
	if !r.enabled {
		return
	}
	r.connectionsActive.WithLabelValues(serverName).Dec()
	r.connectionDuration.WithLabelValues(serverName).Observe(duration)
	if messages > 0 {
		r.messagesCaptured.WithLabelValues(serverName).Add(float64(messages))
	}
}

// Handler returns the HTTP handler serving the Prometheus exposition format, or nil when metrics
// are disabled.
func (r *Registry) Handler() http.Handler {
	if !r.enabled {
		return nil
	}
	return promhttp.Handler()
}
