package report

import (
	"fmt"
	"strings"
)

// ReportStrategy defines how to present the results of a run as text.
// Each implementation produces a distinct view of the same analysis.
type ReportStrategy interface {
	Render(a *Analysis) string
}

// HubRankingStrategy lists hubs by betweenness, then degree. Limit <= 0
// lists every hub.
type HubRankingStrategy struct {
	Limit int
}

// Render produces the ranked hub list with the criteria each hub met.
func (s HubRankingStrategy) Render(a *Analysis) string {
	sel := a.Selection
	if len(sel.Hubs) == 0 {
		return "No hubs selected."
	}

	ranked := RankedHubs(sel, s.Limit)
	var b strings.Builder
	fmt.Fprintf(&b, "# Hub Ranking (%d of %d hubs)\n\n", len(ranked), len(sel.Hubs))
	for i, r := range ranked {
		var by []string
		if !sel.DegreeFlat && float64(r.Degree) >= sel.Thresholds.Degree {
			by = append(by, "degree")
		}
		if !sel.BetweennessFlat && r.Betweenness >= sel.Thresholds.Betweenness {
			by = append(by, "betweenness")
		}
		fmt.Fprintf(&b, "%d. %s  degree=%d  betweenness=%.6f  [%s]\n",
			i+1, r.Node, r.Degree, r.Betweenness, strings.Join(by, ", "))
	}
	return b.String()
}

// DistributionStrategy summarizes thresholds, hub counts, and the
// connected-component structure.
type DistributionStrategy struct{}

// Render produces the distribution summary.
func (s DistributionStrategy) Render(a *Analysis) string {
	sel := a.Selection
	var b strings.Builder
	b.WriteString("# Distribution Summary\n\n")
	fmt.Fprintf(&b, "Nodes: %d  Edges: %d\n", a.Nodes, a.Edges)
	fmt.Fprintf(&b, "Rows: %d  kept: %d  filtered: %d\n", a.Load.Rows, a.Load.Kept, a.Load.Filtered)
	fmt.Fprintf(&b, "Percentile: %g\n", sel.Percentile)
	fmt.Fprintf(&b, "Degree threshold: %.4f%s\n", sel.Thresholds.Degree, flatNote(sel.DegreeFlat))
	fmt.Fprintf(&b, "Betweenness threshold: %.6f%s\n", sel.Thresholds.Betweenness, flatNote(sel.BetweennessFlat))
	fmt.Fprintf(&b, "Hubs: %d (by degree: %d, by betweenness: %d)\n",
		len(sel.Hubs), sel.ByDegree, sel.ByBetweenness)

	fmt.Fprintf(&b, "Components: %d", len(a.Components))
	if len(a.Components) > 0 {
		fmt.Fprintf(&b, " (largest: %d", a.LargestComponent())
		if n := a.Nodes; n > 0 {
			fmt.Fprintf(&b, ", %.1f%% of nodes", 100*float64(a.LargestComponent())/float64(n))
		}
		b.WriteString(")")
	}
	b.WriteByte('\n')
	return b.String()
}

func flatNote(flat bool) string {
	if flat {
		return " (flat, selects none)"
	}
	return ""
}
