package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the gauges and counters of a run, registered on a private
// registry. A batch job has no scrape endpoint, so the registry is written
// out with WriteTextfile for the node-exporter textfile collector.
type Metrics struct {
	registry *prometheus.Registry

	Nodes            prometheus.Gauge
	Edges            prometheus.Gauge
	RowsRead         prometheus.Gauge
	RowsFiltered     prometheus.Gauge
	Hubs             prometheus.Gauge
	Components       prometheus.Gauge
	Threshold        *prometheus.GaugeVec
	PhaseSeconds     *prometheus.GaugeVec
	SourcesProcessed prometheus.Counter
	Runs             *prometheus.CounterVec
}

// NewMetrics creates and registers every metric on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		Nodes: f.NewGauge(prometheus.GaugeOpts{
			Name: "hubscan_graph_nodes",
			Help: "Number of nodes in the interaction graph.",
		}),
		Edges: f.NewGauge(prometheus.GaugeOpts{
			Name: "hubscan_graph_edges",
			Help: "Number of distinct undirected edges in the interaction graph.",
		}),
		RowsRead: f.NewGauge(prometheus.GaugeOpts{
			Name: "hubscan_input_rows",
			Help: "Data rows read from the interaction table.",
		}),
		RowsFiltered: f.NewGauge(prometheus.GaugeOpts{
			Name: "hubscan_input_rows_filtered",
			Help: "Rows dropped by the score filter.",
		}),
		Hubs: f.NewGauge(prometheus.GaugeOpts{
			Name: "hubscan_hubs",
			Help: "Number of nodes selected as hubs.",
		}),
		Components: f.NewGauge(prometheus.GaugeOpts{
			Name: "hubscan_components",
			Help: "Number of connected components.",
		}),
		Threshold: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hubscan_hub_threshold",
			Help: "Percentile threshold per metric.",
		}, []string{"metric"}),
		PhaseSeconds: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hubscan_phase_duration_seconds",
			Help: "Wall time of each pipeline phase in the last run.",
		}, []string{"phase"}),
		SourcesProcessed: f.NewCounter(prometheus.CounterOpts{
			Name: "hubscan_betweenness_sources_total",
			Help: "Single-source shortest-path passes completed.",
		}),
		Runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hubscan_runs_total",
			Help: "Analysis runs by outcome.",
		}, []string{"status"}),
	}
}

// ObservePhase records the duration of a named phase.
func (m *Metrics) ObservePhase(phase string, d time.Duration) {
	if m == nil {
		return
	}
	m.PhaseSeconds.WithLabelValues(phase).Set(d.Seconds())
}

// Registry exposes the private registry, mainly for tests and gatherers.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile atomically writes the current metric values to path in the
// Prometheus text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("observability: write metrics %s: %w", path, err)
	}
	return nil
}
