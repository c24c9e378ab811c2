package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/papapumpkin/hubscan/internal/graph"
	"github.com/papapumpkin/hubscan/internal/hubs"
)

// Node colors of the network drawing.
const (
	HubColor   = "red"
	OtherColor = "blue"
)

// WriteDOT writes g as an undirected Graphviz document laid out with the
// force-directed sfdp engine. Hubs in sel are filled red, all other nodes
// blue. Render it with `sfdp -Tpng network.dot -o network.png`.
func WriteDOT(w io.Writer, g *graph.Graph, sel hubs.Selection) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "graph hubscan {")
	fmt.Fprintln(bw, "\tlayout=sfdp;")
	fmt.Fprintln(bw, "\toverlap=prism;")
	fmt.Fprintln(bw, "\toutputorder=edgesfirst;")
	fmt.Fprintf(bw, "\tlabel=%s;\n", dotID("Network Visualization with Hub Genes Highlighted"))
	fmt.Fprintln(bw, "\tlabelloc=t;")
	fmt.Fprintln(bw, "\tnode [shape=point, width=0.08, style=filled];")
	fmt.Fprintln(bw, "\tedge [color=gray, penwidth=0.5];")

	for id := 0; id < g.Len(); id++ {
		name := g.Name(id)
		color := OtherColor
		if sel.Contains(name) {
			color = HubColor
		}
		fmt.Fprintf(bw, "\t%s [color=%s];\n", dotID(name), color)
	}
	for u := 0; u < g.Len(); u++ {
		for _, v := range g.Neighbors(u) {
			if int(v) < u {
				continue
			}
			fmt.Fprintf(bw, "\t%s -- %s;\n", dotID(g.Name(u)), dotID(g.Name(int(v))))
		}
	}
	fmt.Fprintln(bw, "}")

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("report: dot: %w", err)
	}
	return nil
}

// dotID quotes s as a DOT string identifier.
func dotID(s string) string {
	return `"` + strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), `"`, `\"`) + `"`
}
