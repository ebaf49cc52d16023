package channel

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the channel's Prometheus collectors. All methods are nil-safe
// so an unregistered channel pays nothing.
type Metrics struct {
	reconnects       prometheus.Counter
	notifications    prometheus.Counter
	framesDropped    prometheus.Counter
	callbackFailures prometheus.Counter
}

// NewMetrics registers the channel collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		reconnects: f.NewCounter(prometheus.CounterOpts{
			Namespace: "leviton",
			Subsystem: "channel",
			Name:      "reconnect_attempts_total",
			Help:      "Reconnection attempts, successful or not.",
		}),
		notifications: f.NewCounter(prometheus.CounterOpts{
			Namespace: "leviton",
			Subsystem: "channel",
			Name:      "notifications_total",
			Help:      "Notifications dispatched to callbacks.",
		}),
		framesDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: "leviton",
			Subsystem: "channel",
			Name:      "frames_dropped_total",
			Help:      "Inbound frames dropped as malformed or unrecognized.",
		}),
		callbackFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: "leviton",
			Subsystem: "channel",
			Name:      "callback_failures_total",
			Help:      "Application callbacks that panicked during dispatch.",
		}),
	}
}

func (m *Metrics) incReconnects() {
	if m != nil {
		m.reconnects.Inc()
	}
}

func (m *Metrics) incNotifications() {
	if m != nil {
		m.notifications.Inc()
	}
}

func (m *Metrics) incFramesDropped() {
	if m != nil {
		m.framesDropped.Inc()
	}
}

func (m *Metrics) incCallbackFailures() {
	if m != nil {
		m.callbackFailures.Inc()
	}
}
