// Package report renders the results of an analysis run as files and text:
// CSV node tables, a JSON summary, a TOML run manifest, distribution
// histograms, and a Graphviz network drawing.
package report

import (
	"sort"
	"time"

	"github.com/papapumpkin/hubscan/internal/hubs"
	"github.com/papapumpkin/hubscan/internal/interactions"
)

// Artifact file names written into the output directory.
const (
	NodesFile                = "nodes.csv"
	HubGenesFile             = "hub_genes_output.csv"
	SummaryFile              = "summary.json"
	ManifestFile             = "run.toml"
	DegreeHistogramFile      = "degree_distribution.txt"
	BetweennessHistogramFile = "betweenness_centrality_distribution.txt"
	NetworkFile              = "network.dot"
)

// DefaultBins is the histogram resolution used for both distributions.
const DefaultBins = 30

const (
	defaultTopHubs    = 10
	histogramBarWidth = 50
)

// Timings records the wall time of each pipeline phase.
type Timings struct {
	Load        time.Duration
	Build       time.Duration
	Degree      time.Duration
	Betweenness time.Duration
	Select      time.Duration
	Total       time.Duration
}

// Analysis is the reporting view of a finished run. Records are in node id
// order.
type Analysis struct {
	RunID      string
	Input      string
	StartedAt  time.Time
	Nodes      int
	Edges      int
	Load       interactions.Stats
	Records    []hubs.Record
	Selection  hubs.Selection
	Components []int
	Timings    Timings

	// Partitions is the number of source partitions whose betweenness
	// totals were reduced. Rerunning with the same count reproduces the
	// scores bit for bit.
	Partitions int
}

// LargestComponent returns the size of the biggest connected component.
func (a *Analysis) LargestComponent() int {
	if len(a.Components) == 0 {
		return 0
	}
	return a.Components[0]
}

// RankedHubs returns the hubs ordered by betweenness descending, then degree
// descending, then name. limit <= 0 returns all of them.
func RankedHubs(sel hubs.Selection, limit int) []hubs.Record {
	out := make([]hubs.Record, len(sel.Hubs))
	copy(out, sel.Hubs)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Betweenness != out[j].Betweenness {
			return out[i].Betweenness > out[j].Betweenness
		}
		if out[i].Degree != out[j].Degree {
			return out[i].Degree > out[j].Degree
		}
		return out[i].Node < out[j].Node
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
