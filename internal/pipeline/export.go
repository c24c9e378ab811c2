package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/papapumpkin/hubscan/internal/hubs"
	"github.com/papapumpkin/hubscan/internal/report"
	"github.com/papapumpkin/hubscan/internal/store"
)

// EventsFile is the telemetry stream written into the output directory.
const EventsFile = "events.jsonl"

// ExportOptions controls which artifacts Export writes and where.
type ExportOptions struct {
	Dir  string
	Bins int
	DOT  bool
}

// Export writes the artifacts of res into opts.Dir, creating it if needed,
// and returns their paths in write order. The run manifest is written last
// and lists every other artifact.
func Export(res *Result, opts ExportOptions) ([]string, error) {
	if opts.Bins == 0 {
		opts.Bins = report.DefaultBins
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("pipeline: export: %w", err)
	}

	degrees := make([]float64, len(res.Records))
	betweenness := make([]float64, len(res.Records))
	for i, r := range res.Records {
		degrees[i] = float64(r.Degree)
		betweenness[i] = r.Betweenness
	}

	var written []string
	write := func(name string, fn func(io.Writer) error) error {
		path := filepath.Join(opts.Dir, name)
		if err := writeFile(path, fn); err != nil {
			return fmt.Errorf("pipeline: export %s: %w", name, err)
		}
		written = append(written, path)
		return nil
	}

	steps := []struct {
		name string
		fn   func(io.Writer) error
	}{
		{report.NodesFile, func(w io.Writer) error {
			return report.WriteNodeTable(w, res.Records, res.Selection)
		}},
		{report.HubGenesFile, func(w io.Writer) error {
			return report.WriteHubTable(w, res.Selection.Hubs)
		}},
		{report.SummaryFile, func(w io.Writer) error {
			return report.WriteSummary(w, &res.Analysis)
		}},
	}
	for _, s := range steps {
		if err := write(s.name, s.fn); err != nil {
			return written, err
		}
	}

	// Both histograms come from one call so the binning stays consistent.
	if err := writeHistograms(opts.Dir, degrees, betweenness, opts.Bins); err != nil {
		return written, err
	}
	written = append(written,
		filepath.Join(opts.Dir, report.DegreeHistogramFile),
		filepath.Join(opts.Dir, report.BetweennessHistogramFile))

	if opts.DOT {
		if err := write(report.NetworkFile, func(w io.Writer) error {
			return report.WriteDOT(w, res.Graph, res.Selection)
		}); err != nil {
			return written, err
		}
	}

	names := make([]string, len(written))
	for i, p := range written {
		names[i] = filepath.Base(p)
	}
	manifest := report.BuildManifest(&res.Analysis, names)
	if err := write(report.ManifestFile, func(w io.Writer) error {
		return report.WriteManifest(w, manifest)
	}); err != nil {
		return written, err
	}
	return written, nil
}

func writeHistograms(dir string, degrees, betweenness []float64, bins int) error {
	degPath := filepath.Join(dir, report.DegreeHistogramFile)
	btwPath := filepath.Join(dir, report.BetweennessHistogramFile)
	return writeFile(degPath, func(degOut io.Writer) error {
		return writeFile(btwPath, func(btwOut io.Writer) error {
			if err := report.RenderHistograms(degOut, btwOut, degrees, betweenness, bins); err != nil {
				return fmt.Errorf("pipeline: export histograms: %w", err)
			}
			return nil
		})
	})
}

// writeFile creates path, runs fn against it, and closes it, reporting the
// first error.
func writeFile(path string, fn func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(f)
}

// RunSaver stores a finished run. *store.Store satisfies it.
type RunSaver interface {
	SaveRun(ctx context.Context, run store.Run, records []hubs.Record, sel hubs.Selection) error
}

// StoredRun converts res into the header row kept by the run store.
func StoredRun(res *Result) store.Run {
	sel := res.Selection
	return store.Run{
		ID:                   res.RunID,
		Input:                res.Input,
		StartedAt:            res.StartedAt,
		Nodes:                res.Nodes,
		Edges:                res.Edges,
		Hubs:                 len(sel.Hubs),
		Percentile:           sel.Percentile,
		DegreeThreshold:      sel.Thresholds.Degree,
		BetweennessThreshold: sel.Thresholds.Betweenness,
		Duration:             res.Timings.Total,
	}
}

// Persist saves res through s.
func Persist(ctx context.Context, s RunSaver, res *Result) error {
	if err := s.SaveRun(ctx, StoredRun(res), res.Records, res.Selection); err != nil {
		return fmt.Errorf("pipeline: persist run %s: %w", res.RunID, err)
	}
	return nil
}
