package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// NodeMetrics records campaign and purchase activity of the node.
type NodeMetrics struct {
	campaignsCreated prometheus.Counter
	boxesSold        prometheus.Counter
	eventsEmitted    *prometheus.CounterVec
}

var (
	nodeMetricsOnce sync.Once
	nodeRegistry    *NodeMetrics
)

// Metrics returns the lazily-initialised node metrics registry.
func Metrics() *NodeMetrics {
	nodeMetricsOnce.Do(func() {
		nodeRegistry = &NodeMetrics{
			campaignsCreated: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "ltb",
				Subsystem: "factory",
				Name:      "campaigns_created_total",
				Help:      "Total campaigns created by the orchestrator.",
			}),
			boxesSold: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "ltb",
				Subsystem: "lottery",
				Name:      "boxes_sold_total",
				Help:      "Total boxes sold across all campaigns.",
			}),
			eventsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "ltb",
				Subsystem: "node",
				Name:      "events_total",
				Help:      "Committed node events segmented by type.",
			}, []string{"type"}),
		}
		prometheus.MustRegister(
			nodeRegistry.campaignsCreated,
			nodeRegistry.boxesSold,
			nodeRegistry.eventsEmitted,
		)
	})
	return nodeRegistry
}

// ObserveCampaignCreated counts a successful campaign creation.
func (m *NodeMetrics) ObserveCampaignCreated() {
	if m == nil {
		return
	}
	m.campaignsCreated.Inc()
}

// ObserveBoxesSold counts boxes minted by a successful purchase.
func (m *NodeMetrics) ObserveBoxesSold(amount uint64) {
	if m == nil {
		return
	}
	m.boxesSold.Add(float64(amount))
}

// ObserveEvent counts a committed event by type.
func (m *NodeMetrics) ObserveEvent(eventType string) {
	if m == nil {
		return
	}
	m.eventsEmitted.WithLabelValues(eventType).Inc()
}
