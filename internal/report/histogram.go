package report

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
)

// ErrInvalidBins is returned for a non-positive bin count.
var ErrInvalidBins = errors.New("bin count must be positive")

// Histogram is an equal-width binning of a sample over [Min, Max]. Every bin
// is half-open except the last, which also holds Max.
type Histogram struct {
	Min    float64
	Max    float64
	Counts []int
}

// Width returns the width of one bin.
func (h Histogram) Width() float64 {
	if len(h.Counts) == 0 {
		return 0
	}
	return (h.Max - h.Min) / float64(len(h.Counts))
}

// Edges returns the len(Counts)+1 bin boundaries.
func (h Histogram) Edges() []float64 {
	out := make([]float64, len(h.Counts)+1)
	w := h.Width()
	for i := range out {
		out[i] = h.Min + float64(i)*w
	}
	out[len(out)-1] = h.Max
	return out
}

// Total returns the number of binned values.
func (h Histogram) Total() int {
	n := 0
	for _, c := range h.Counts {
		n += c
	}
	return n
}

// BuildHistogram bins values into the given number of equal-width bins over
// their range. A sample with a single distinct value x is binned over
// [x-0.5, x+0.5]; an empty sample yields zero counts over [0, 1].
func BuildHistogram(values []float64, bins int) (Histogram, error) {
	if bins <= 0 {
		return Histogram{}, fmt.Errorf("report: histogram: %w: %d", ErrInvalidBins, bins)
	}
	h := Histogram{Min: 0, Max: 1, Counts: make([]int, bins)}
	if len(values) == 0 {
		return h, nil
	}

	h.Min, h.Max = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		h.Min = math.Min(h.Min, v)
		h.Max = math.Max(h.Max, v)
	}
	if h.Min == h.Max {
		h.Min -= 0.5
		h.Max += 0.5
	}

	scale := float64(bins) / (h.Max - h.Min)
	for _, v := range values {
		i := int((v - h.Min) * scale)
		if i >= bins {
			i = bins - 1
		}
		h.Counts[i]++
	}
	return h, nil
}

// RenderHistogram draws h as a horizontal text bar chart.
func RenderHistogram(w io.Writer, h Histogram, title, xlabel string) error {
	peak := 0
	for _, c := range h.Counts {
		peak = max(peak, c)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", title)
	fmt.Fprintf(&b, "# %s, %d values, %d bins\n", xlabel, h.Total(), len(h.Counts))
	edges := h.Edges()
	for i, c := range h.Counts {
		bar := 0
		if peak > 0 {
			bar = int(math.Round(float64(c) / float64(peak) * histogramBarWidth))
		}
		if c > 0 && bar == 0 {
			bar = 1
		}
		closing := ")"
		if i == len(h.Counts)-1 {
			closing = "]"
		}
		fmt.Fprintf(&b, "[%12.6g, %12.6g%s %8d %s\n", edges[i], edges[i+1], closing, c, strings.Repeat("#", bar))
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("report: histogram: %w", err)
	}
	return nil
}

// RenderHistograms writes the degree and betweenness charts of records.
func RenderHistograms(degreeOut, betweennessOut io.Writer, degrees, betweenness []float64, bins int) error {
	dh, err := BuildHistogram(degrees, bins)
	if err != nil {
		return err
	}
	if err := RenderHistogram(degreeOut, dh, "Degree Distribution", "Degree"); err != nil {
		return err
	}
	bh, err := BuildHistogram(betweenness, bins)
	if err != nil {
		return err
	}
	return RenderHistogram(betweennessOut, bh, "Betweenness Centrality Distribution", "Betweenness Centrality")
}
