package report

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Manifest is the run.toml record of a run. It names the artifacts written
// alongside it and is read back by the show command.
type Manifest struct {
	RunID      string             `toml:"run_id"`
	Input      string             `toml:"input"`
	StartedAt  time.Time          `toml:"started_at"`
	Artifacts  []string           `toml:"artifacts"`
	Load       ManifestLoad       `toml:"load"`
	Graph      ManifestGraph      `toml:"graph"`
	Hubs       ManifestHubs       `toml:"hubs"`
	Centrality ManifestCentrality `toml:"centrality"`
	Timings    ManifestTimings    `toml:"timings"`
}

// ManifestCentrality holds the settings needed to reproduce the scores.
type ManifestCentrality struct {
	Partitions int `toml:"partitions"`
}

// ManifestLoad holds the input row counts.
type ManifestLoad struct {
	Rows     int `toml:"rows"`
	Kept     int `toml:"kept"`
	Filtered int `toml:"filtered"`
}

// ManifestGraph holds the graph shape.
type ManifestGraph struct {
	Nodes            int `toml:"nodes"`
	Edges            int `toml:"edges"`
	Components       int `toml:"components"`
	LargestComponent int `toml:"largest_component"`
}

// ManifestHubs holds the hub selection outcome.
type ManifestHubs struct {
	Percentile           float64 `toml:"percentile"`
	DegreeThreshold      float64 `toml:"degree_threshold"`
	BetweennessThreshold float64 `toml:"betweenness_threshold"`
	DegreeFlat           bool    `toml:"degree_flat"`
	BetweennessFlat      bool    `toml:"betweenness_flat"`
	Count                int     `toml:"count"`
	ByDegree             int     `toml:"by_degree"`
	ByBetweenness        int     `toml:"by_betweenness"`
}

// ManifestTimings holds phase durations in seconds.
type ManifestTimings struct {
	Load        float64 `toml:"load"`
	Build       float64 `toml:"build"`
	Degree      float64 `toml:"degree"`
	Betweenness float64 `toml:"betweenness"`
	Select      float64 `toml:"select"`
	Total       float64 `toml:"total"`
}

// BuildManifest describes a and the artifacts written for it.
func BuildManifest(a *Analysis, artifacts []string) Manifest {
	sel := a.Selection
	return Manifest{
		RunID:     a.RunID,
		Input:     a.Input,
		StartedAt: a.StartedAt,
		Artifacts: artifacts,
		Load:      ManifestLoad{Rows: a.Load.Rows, Kept: a.Load.Kept, Filtered: a.Load.Filtered},
		Graph: ManifestGraph{
			Nodes:            a.Nodes,
			Edges:            a.Edges,
			Components:       len(a.Components),
			LargestComponent: a.LargestComponent(),
		},
		Hubs: ManifestHubs{
			Percentile:           sel.Percentile,
			DegreeThreshold:      sel.Thresholds.Degree,
			BetweennessThreshold: sel.Thresholds.Betweenness,
			DegreeFlat:           sel.DegreeFlat,
			BetweennessFlat:      sel.BetweennessFlat,
			Count:                len(sel.Hubs),
			ByDegree:             sel.ByDegree,
			ByBetweenness:        sel.ByBetweenness,
		},
		Centrality: ManifestCentrality{Partitions: a.Partitions},
		Timings: ManifestTimings{
			Load:        a.Timings.Load.Seconds(),
			Build:       a.Timings.Build.Seconds(),
			Degree:      a.Timings.Degree.Seconds(),
			Betweenness: a.Timings.Betweenness.Seconds(),
			Select:      a.Timings.Select.Seconds(),
			Total:       a.Timings.Total.Seconds(),
		},
	}
}

// WriteManifest encodes m as TOML.
func WriteManifest(w io.Writer, m Manifest) error {
	if err := toml.NewEncoder(w).Encode(m); err != nil {
		return fmt.Errorf("report: manifest: %w", err)
	}
	return nil
}

// LoadManifest reads and decodes the run.toml at path.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("report: read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("report: parse manifest %s: %w", path, err)
	}
	return m, nil
}
