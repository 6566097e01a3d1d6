package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// RefreshTotal counts filtered refreshes by outcome (applied, stale, failed).
	RefreshTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "civicsync",
		Subsystem: "client",
		Name:      "refresh_total",
		Help:      "Total number of filtered issue refreshes, labeled by result.",
	}, []string{"result"})

	// SearchTotal counts geocoding searches by outcome.
	SearchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "civicsync",
		Subsystem: "client",
		Name:      "search_total",
		Help:      "Total number of geocoding searches, labeled by result.",
	}, []string{"result"})

	// OperationsInFlight is the number of outbound requests currently pending.
	OperationsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "civicsync",
		Subsystem: "client",
		Name:      "operations_in_flight",
		Help:      "Number of outbound requests currently pending.",
	})

	// MarkersShown is the size of the issue snapshot.
	MarkersShown = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "civicsync",
		Subsystem: "client",
		Name:      "markers_shown",
		Help:      "Number of issues in the displayed snapshot.",
	})

	// RealtimeConnected is 1 while the realtime channel is connected.
	RealtimeConnected = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "civicsync",
		Subsystem: "client",
		Name:      "realtime_connected",
		Help:      "Whether the realtime channel is currently connected.",
	})

	// RealtimeEventsTotal counts realtime events by outcome (merged, malformed, invalid).
	RealtimeEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "civicsync",
		Subsystem: "client",
		Name:      "realtime_events_total",
		Help:      "Total number of realtime new_issue events, labeled by result.",
	}, []string{"result"})
)

// Register registers client metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			RefreshTotal,
			SearchTotal,
			OperationsInFlight,
			MarkersShown,
			RealtimeConnected,
			RealtimeEventsTotal,
		)
	})
}
