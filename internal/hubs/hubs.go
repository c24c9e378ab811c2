// Package hubs merges per-node centrality metrics into records and selects
// hub nodes by a percentile threshold on either degree or betweenness.
package hubs

import (
	"errors"
	"fmt"
)

// DefaultPercentile is the cut point for both distributions.
const DefaultPercentile = 0.8

// ErrLengthMismatch is returned by Merge when its inputs disagree in length.
var ErrLengthMismatch = errors.New("metric slices differ in length")

// Record is the centrality of a single node. Records are built once per run
// and never modified.
type Record struct {
	Node        string
	Degree      int
	Betweenness float64
}

// Thresholds holds the percentile cut points of the two distributions.
type Thresholds struct {
	Degree      float64
	Betweenness float64
}

// Selection is the outcome of hub classification.
type Selection struct {
	Percentile float64
	Thresholds Thresholds

	// DegreeFlat and BetweennessFlat report that every node shares the same
	// value on that metric, in which case the metric selects no node.
	DegreeFlat      bool
	BetweennessFlat bool

	// Hubs lists the selected records in input order.
	Hubs []Record

	// ByDegree and ByBetweenness count the hubs admitted by each criterion.
	// A node meeting both is counted in both.
	ByDegree      int
	ByBetweenness int

	members map[string]bool
}

// Contains reports whether node was selected as a hub.
func (s Selection) Contains(node string) bool {
	return s.members[node]
}

// Merge zips node names with their degree and betweenness into records, in
// the order given.
func Merge(names []string, degrees []int, betweenness []float64) ([]Record, error) {
	if len(names) != len(degrees) || len(names) != len(betweenness) {
		return nil, fmt.Errorf("hubs: merge: %w: %d names, %d degrees, %d betweenness",
			ErrLengthMismatch, len(names), len(degrees), len(betweenness))
	}
	out := make([]Record, len(names))
	for i, name := range names {
		out[i] = Record{Node: name, Degree: degrees[i], Betweenness: betweenness[i]}
	}
	return out, nil
}

// Select computes the p-th percentile of the degree and betweenness
// distributions and returns every record whose degree or betweenness is at
// or above the respective threshold.
//
// A metric whose distribution is flat admits no node: when all values are
// equal the threshold equals every value and the inclusive comparison would
// otherwise label the whole graph as hubs. An empty input yields an empty
// selection with zero thresholds.
func Select(records []Record, p float64) (Selection, error) {
	degrees := make([]float64, len(records))
	betweenness := make([]float64, len(records))
	for i, r := range records {
		degrees[i] = float64(r.Degree)
		betweenness[i] = r.Betweenness
	}

	dt, err := Percentile(degrees, p)
	if err != nil {
		return Selection{}, fmt.Errorf("hubs: degree threshold: %w", err)
	}
	bt, err := Percentile(betweenness, p)
	if err != nil {
		return Selection{}, fmt.Errorf("hubs: betweenness threshold: %w", err)
	}

	sel := Selection{
		Percentile: p,
		Thresholds: Thresholds{Degree: dt, Betweenness: bt},
		members:    make(map[string]bool),
	}
	if len(records) == 0 {
		return sel, nil
	}
	sel.DegreeFlat = flat(degrees)
	sel.BetweennessFlat = flat(betweenness)

	for i, r := range records {
		byDegree := !sel.DegreeFlat && degrees[i] >= dt
		byBetweenness := !sel.BetweennessFlat && betweenness[i] >= bt
		if byDegree {
			sel.ByDegree++
		}
		if byBetweenness {
			sel.ByBetweenness++
		}
		if byDegree || byBetweenness {
			sel.Hubs = append(sel.Hubs, r)
			sel.members[r.Node] = true
		}
	}
	return sel, nil
}
