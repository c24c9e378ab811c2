package report

import (
	"fmt"
	"io"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// Summary is the machine-readable digest of a run written to summary.json.
type Summary struct {
	RunID            string             `json:"run_id"`
	Input            string             `json:"input"`
	StartedAt        time.Time          `json:"started_at"`
	Nodes            int                `json:"nodes"`
	Edges            int                `json:"edges"`
	Rows             int                `json:"rows"`
	Kept             int                `json:"kept"`
	Filtered         int                `json:"filtered"`
	Components       int                `json:"components"`
	LargestComponent int                `json:"largest_component"`
	Percentile       float64            `json:"percentile"`
	Partitions       int                `json:"partitions"`
	Thresholds       SummaryThresholds  `json:"thresholds"`
	Hubs             SummaryHubs        `json:"hubs"`
	TopHubs          []SummaryHub       `json:"top_hubs"`
	TimingsSeconds   map[string]float64 `json:"timings_seconds"`
}

// SummaryThresholds mirrors hubs.Thresholds with the flat flags.
type SummaryThresholds struct {
	Degree          float64 `json:"degree"`
	Betweenness     float64 `json:"betweenness"`
	DegreeFlat      bool    `json:"degree_flat"`
	BetweennessFlat bool    `json:"betweenness_flat"`
}

// SummaryHubs counts hubs per criterion.
type SummaryHubs struct {
	Total         int `json:"total"`
	ByDegree      int `json:"by_degree"`
	ByBetweenness int `json:"by_betweenness"`
}

// SummaryHub is one entry of the top-hub list.
type SummaryHub struct {
	Gene        string  `json:"gene"`
	Degree      int     `json:"degree"`
	Betweenness float64 `json:"betweenness"`
}

// BuildSummary condenses a into a Summary listing the ten highest ranked hubs.
func BuildSummary(a *Analysis) Summary {
	sel := a.Selection
	s := Summary{
		RunID:            a.RunID,
		Input:            a.Input,
		StartedAt:        a.StartedAt,
		Nodes:            a.Nodes,
		Edges:            a.Edges,
		Rows:             a.Load.Rows,
		Kept:             a.Load.Kept,
		Filtered:         a.Load.Filtered,
		Components:       len(a.Components),
		LargestComponent: a.LargestComponent(),
		Percentile:       sel.Percentile,
		Partitions:       a.Partitions,
		Thresholds: SummaryThresholds{
			Degree:          sel.Thresholds.Degree,
			Betweenness:     sel.Thresholds.Betweenness,
			DegreeFlat:      sel.DegreeFlat,
			BetweennessFlat: sel.BetweennessFlat,
		},
		Hubs: SummaryHubs{
			Total:         len(sel.Hubs),
			ByDegree:      sel.ByDegree,
			ByBetweenness: sel.ByBetweenness,
		},
		TopHubs:        []SummaryHub{},
		TimingsSeconds: a.Timings.seconds(),
	}
	for _, r := range RankedHubs(sel, defaultTopHubs) {
		s.TopHubs = append(s.TopHubs, SummaryHub{Gene: r.Node, Degree: r.Degree, Betweenness: r.Betweenness})
	}
	return s
}

// WriteSummary encodes the summary of a as indented JSON.
func WriteSummary(w io.Writer, a *Analysis) error {
	data, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(BuildSummary(a), "", "  ")
	if err != nil {
		return fmt.Errorf("report: summary: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("report: summary: %w", err)
	}
	return nil
}

// ReadSummary decodes a summary written by WriteSummary.
func ReadSummary(r io.Reader) (Summary, error) {
	var s Summary
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.NewDecoder(r).Decode(&s); err != nil {
		return Summary{}, fmt.Errorf("report: read summary: %w", err)
	}
	return s, nil
}

func (t Timings) seconds() map[string]float64 {
	return map[string]float64{
		"load":        t.Load.Seconds(),
		"build":       t.Build.Seconds(),
		"degree":      t.Degree.Seconds(),
		"betweenness": t.Betweenness.Seconds(),
		"select":      t.Select.Seconds(),
		"total":       t.Total.Seconds(),
	}
}
