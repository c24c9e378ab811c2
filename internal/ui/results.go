package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/papapumpkin/hubscan/internal/hubs"
	"github.com/papapumpkin/hubscan/internal/interactions"
	"github.com/papapumpkin/hubscan/internal/report"
	"github.com/papapumpkin/hubscan/internal/store"
)

func row(label, value string) string {
	return styleLabel.Render(label) + value + "\n"
}

// Summary prints the headline numbers of a run and its top hubs.
func (p *Printer) Summary(a *report.Analysis, top int) {
	sel := a.Selection
	var b strings.Builder
	b.WriteString("\n" + styleHeading.Render("Run "+a.RunID) + "\n")
	b.WriteString(row("input", a.Input))
	b.WriteString(row("rows kept / filtered", fmt.Sprintf("%d / %d", a.Load.Kept, a.Load.Filtered)))
	b.WriteString(row("nodes / edges", fmt.Sprintf("%d / %d", a.Nodes, a.Edges)))
	b.WriteString(row("components", fmt.Sprintf("%d (largest %d)", len(a.Components), a.LargestComponent())))
	b.WriteString(row("degree threshold", thresholdText(sel.Thresholds.Degree, sel.DegreeFlat)))
	b.WriteString(row("betweenness threshold", thresholdText(sel.Thresholds.Betweenness, sel.BetweennessFlat)))
	b.WriteString(row("hubs", fmt.Sprintf("%d (degree %d, betweenness %d)",
		len(sel.Hubs), sel.ByDegree, sel.ByBetweenness)))

	b.WriteString(row("partitions", fmt.Sprintf("%d", a.Partitions)))

	if ranked := report.RankedHubs(sel, top); len(ranked) > 0 {
		b.WriteString("\n" + styleHeading.Render("Top hubs") + "\n")
		b.WriteString(hubLines(ranked))
	}
	p.Block(b.String())
	if msg := flatWarning(sel.DegreeFlat, sel.BetweennessFlat); msg != "" {
		p.Warn(msg)
	}
}

// flatWarning explains which metrics took no part in hub selection because
// every node scored the same.
func flatWarning(degreeFlat, betweennessFlat bool) string {
	var metrics []string
	if degreeFlat {
		metrics = append(metrics, "degree")
	}
	if betweennessFlat {
		metrics = append(metrics, "betweenness")
	}
	switch len(metrics) {
	case 0:
		return ""
	case 1:
		return fmt.Sprintf("every node has the same %s; it selects no hubs", metrics[0])
	default:
		return "every node has the same degree and betweenness; no hubs were selected"
	}
}

func thresholdText(v float64, flat bool) string {
	s := fmt.Sprintf("%.6g", v)
	if flat {
		s += styleMuted.Render(" (flat, no hubs by this metric)")
	}
	return s
}

func hubLines(records []hubs.Record) string {
	var b strings.Builder
	for i, r := range records {
		fmt.Fprintf(&b, "%3d. %s %-24s degree=%-6d betweenness=%.6f\n",
			i+1, styleAccent.Render(iconHub), r.Node, r.Degree, r.Betweenness)
	}
	return b.String()
}

// Artifacts lists the files written into dir.
func (p *Printer) Artifacts(dir string, files []string) {
	var b strings.Builder
	b.WriteString(styleHeading.Render("Artifacts") + styleMuted.Render(" in "+dir) + "\n")
	for _, f := range files {
		fmt.Fprintf(&b, "  %s\n", filepath.Base(f))
	}
	p.Block(b.String())
}

// Validation reports the outcome of reading an input file.
func (p *Printer) Validation(path string, stats interactions.Stats, nodes int) {
	p.Success(fmt.Sprintf("%s: %d row(s), %d kept, %d filtered, %d node(s)",
		path, stats.Rows, stats.Kept, stats.Filtered, nodes))
}

// Runs prints stored runs, newest first.
func (p *Printer) Runs(runs []store.Run) {
	if len(runs) == 0 {
		p.Info("no runs stored")
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", styleHeading.Render(fmt.Sprintf("%-36s  %-20s  %8s  %8s  %5s  %s",
		"RUN", "STARTED", "NODES", "EDGES", "HUBS", "INPUT")))
	for _, r := range runs {
		fmt.Fprintf(&b, "%-36s  %-20s  %8d  %8d  %5d  %s\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Nodes, r.Edges, r.Hubs, r.Input)
	}
	p.Block(b.String())
}

// RunHubs prints the stored hubs of one run.
func (p *Printer) RunHubs(runID string, records []hubs.Record) {
	if len(records) == 0 {
		p.Info("run " + runID + " has no hubs")
		return
	}
	p.Block(styleHeading.Render(fmt.Sprintf("Hubs of %s (%d)", runID, len(records))) + "\n" + hubLines(records))
}

// Manifest prints a stored run manifest.
func (p *Printer) Manifest(m report.Manifest) {
	var b strings.Builder
	b.WriteString(styleHeading.Render("Run "+m.RunID) + "\n")
	b.WriteString(row("input", m.Input))
	b.WriteString(row("started", m.StartedAt.Local().Format("2006-01-02 15:04:05")))
	b.WriteString(row("rows kept / filtered", fmt.Sprintf("%d / %d", m.Load.Kept, m.Load.Filtered)))
	b.WriteString(row("nodes / edges", fmt.Sprintf("%d / %d", m.Graph.Nodes, m.Graph.Edges)))
	b.WriteString(row("components", fmt.Sprintf("%d (largest %d)", m.Graph.Components, m.Graph.LargestComponent)))
	b.WriteString(row("percentile", fmt.Sprintf("%g", m.Hubs.Percentile)))
	b.WriteString(row("degree threshold", thresholdText(m.Hubs.DegreeThreshold, m.Hubs.DegreeFlat)))
	b.WriteString(row("betweenness threshold", thresholdText(m.Hubs.BetweennessThreshold, m.Hubs.BetweennessFlat)))
	b.WriteString(row("hubs", fmt.Sprintf("%d (degree %d, betweenness %d)",
		m.Hubs.Count, m.Hubs.ByDegree, m.Hubs.ByBetweenness)))
	b.WriteString(row("partitions", fmt.Sprintf("%d", m.Centrality.Partitions)))
	b.WriteString(row("total time", fmt.Sprintf("%.2fs", m.Timings.Total)))
	if len(m.Artifacts) > 0 {
		b.WriteString(row("artifacts", strings.Join(m.Artifacts, ", ")))
	}
	p.Block(b.String())
}
