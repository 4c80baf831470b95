package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes the listener and radar poller counters. A fresh set is
// registered per Registerer so tests can use isolated registries.
type Metrics struct {
	AlertsDispatched prometheus.Counter
	AlertsSuppressed prometheus.Counter
	Reconnects       prometheus.Counter
	ProbeFailures    prometheus.Counter
	ConnectionState  prometheus.Gauge
	RadarSamples     prometheus.Counter
	RadarFailures    prometheus.Counter
}

// NewMetrics registers the monitor metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AlertsDispatched: factory.NewCounter(prometheus.CounterOpts{
			Name: "herdwatch_alerts_dispatched_total",
			Help: "Alerts persisted and handed to notification dispatch.",
		}),
		AlertsSuppressed: factory.NewCounter(prometheus.CounterOpts{
			Name: "herdwatch_alerts_suppressed_total",
			Help: "Alerts dropped by the duplicate-suppression window.",
		}),
		Reconnects: factory.NewCounter(prometheus.CounterOpts{
			Name: "herdwatch_listener_reconnects_total",
			Help: "Reconnection attempts made by the alert listener.",
		}),
		ProbeFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "herdwatch_listener_probe_failures_total",
			Help: "Failed peripheral connectivity probes.",
		}),
		ConnectionState: factory.NewGauge(prometheus.GaugeOpts{
			Name: "herdwatch_listener_connection_state",
			Help: "Listener state: 0 disconnected, 1 connecting, 2 connected, 3 backoff, 4 offline.",
		}),
		RadarSamples: factory.NewCounter(prometheus.CounterOpts{
			Name: "herdwatch_radar_samples_total",
			Help: "Radar telemetry samples fetched successfully.",
		}),
		RadarFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "herdwatch_radar_failures_total",
			Help: "Failed radar telemetry fetches.",
		}),
	}
}
