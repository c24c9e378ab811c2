// Package pipeline runs a complete hub analysis: it reads an interaction
// table, builds the graph, computes degree and betweenness, selects hubs, and
// exports the results. Each phase is logged, measured, and recorded as a
// telemetry event.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/papapumpkin/hubscan/internal/centrality"
	"github.com/papapumpkin/hubscan/internal/config"
	"github.com/papapumpkin/hubscan/internal/graph"
	"github.com/papapumpkin/hubscan/internal/hubs"
	"github.com/papapumpkin/hubscan/internal/interactions"
	"github.com/papapumpkin/hubscan/internal/observability"
	"github.com/papapumpkin/hubscan/internal/report"
	"github.com/papapumpkin/hubscan/internal/telemetry"
)

// Phase names used in logs, metrics, and progress output.
const (
	PhaseLoad        = "load"
	PhaseBuild       = "build"
	PhaseDegree      = "degree"
	PhaseBetweenness = "betweenness"
	PhaseSelect      = "select"
)

// ProgressReporter receives human-facing progress. *ui.Printer satisfies it.
type ProgressReporter interface {
	Stage(name string)
	StageDone(name string, d time.Duration, detail string)
	Progress(label string, done, total int)
}

// Options configures the analysis phases.
type Options struct {
	Read       interactions.Options
	Centrality centrality.Options
	Percentile float64
}

// DefaultOptions returns STRING input defaults, normalized betweenness, and
// the default percentile.
func DefaultOptions() Options {
	return Options{
		Read:       interactions.DefaultOptions(),
		Centrality: centrality.DefaultOptions(),
		Percentile: hubs.DefaultPercentile,
	}
}

// OptionsFromConfig maps a validated configuration onto Options.
func OptionsFromConfig(cfg config.Config) (Options, error) {
	delim, err := cfg.DelimiterRune()
	if err != nil {
		return Options{}, err
	}
	return Options{
		Read: interactions.Options{
			Delimiter: delim,
			Columns: interactions.Columns{
				Source: cfg.Columns.Source,
				Target: cfg.Columns.Target,
				Score:  cfg.Columns.Score,
			},
			MinScore:       cfg.MinScore,
			RejectEmptyIDs: cfg.RejectEmpty,
		},
		Centrality: centrality.Options{
			Workers:    cfg.Workers,
			Partitions: cfg.Partitions,
			Normalized: true,
		},
		Percentile: cfg.Percentile,
	}, nil
}

// Loaded is a parsed input ready for analysis.
type Loaded struct {
	RunID     string
	Input     string
	StartedAt time.Time
	Graph     *graph.Graph
	Stats     interactions.Stats
	// ReadTime and BuildTime are the durations of parsing and graph
	// construction.
	ReadTime  time.Duration
	BuildTime time.Duration
}

// Result is a finished analysis: the reporting view plus the graph itself.
type Result struct {
	report.Analysis
	Graph *graph.Graph
}

// Analyzer runs analyses with a fixed set of options and collaborators.
// A zero-value collaborator is replaced by a no-op.
type Analyzer struct {
	opts     Options
	logger   *zap.Logger
	metrics  *observability.Metrics
	events   *telemetry.Emitter
	progress ProgressReporter
}

// Option customizes an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// WithMetrics sets the metrics the analyzer updates.
func WithMetrics(m *observability.Metrics) Option {
	return func(a *Analyzer) { a.metrics = m }
}

// WithTelemetry sets the event emitter. A nil emitter records nothing.
func WithTelemetry(e *telemetry.Emitter) Option {
	return func(a *Analyzer) { a.events = e }
}

// WithProgress sets the progress reporter.
func WithProgress(p ProgressReporter) Option {
	return func(a *Analyzer) { a.progress = p }
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(opts Options, options ...Option) *Analyzer {
	a := &Analyzer{opts: opts}
	for _, o := range options {
		o(a)
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	if a.metrics == nil {
		a.metrics = observability.NewMetrics()
	}
	if a.progress == nil {
		a.progress = nopProgress{}
	}
	return a
}

// Metrics returns the metrics updated by the analyzer.
func (a *Analyzer) Metrics() *observability.Metrics {
	return a.metrics
}

// Run loads path and analyzes it. A failure is recorded in metrics and
// telemetry before being returned.
func (a *Analyzer) Run(ctx context.Context, path string) (*Result, error) {
	loaded, err := a.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	return a.Analyze(ctx, loaded)
}

// Load reads the interaction table at path and builds its graph.
func (a *Analyzer) Load(ctx context.Context, path string) (*Loaded, error) {
	l := &Loaded{RunID: uuid.NewString(), Input: path, StartedAt: time.Now().UTC()}
	log := a.logger.With(zap.String("run", l.RunID))
	a.emit(l.RunID, telemetry.KindRunStart, map[string]any{"input": path})
	log.Info("run started", zap.String("input", path))

	a.progress.Stage("loading interactions")
	start := time.Now()
	b := graph.NewBuilder()
	stats, err := interactions.ReadFile(ctx, path, a.opts.Read, b)
	if err != nil {
		return nil, a.fail(l.RunID, PhaseLoad, err)
	}
	l.ReadTime = time.Since(start)
	start = time.Now()
	l.Graph = b.Build()
	l.BuildTime = time.Since(start)
	l.Stats = stats
	elapsed := l.ReadTime + l.BuildTime

	a.emit(l.RunID, telemetry.KindEdgesLoaded, stats)
	a.emit(l.RunID, telemetry.KindGraphBuilt, map[string]int{
		"nodes": l.Graph.Len(),
		"edges": l.Graph.EdgeCount(),
	})
	a.metrics.RowsRead.Set(float64(stats.Rows))
	a.metrics.RowsFiltered.Set(float64(stats.Filtered))
	a.metrics.Nodes.Set(float64(l.Graph.Len()))
	a.metrics.Edges.Set(float64(l.Graph.EdgeCount()))
	a.metrics.ObservePhase(PhaseLoad, l.ReadTime)
	a.metrics.ObservePhase(PhaseBuild, l.BuildTime)
	log.Info("graph built",
		zap.Int("rows", stats.Rows),
		zap.Int("kept", stats.Kept),
		zap.Int("filtered", stats.Filtered),
		zap.Int("nodes", l.Graph.Len()),
		zap.Int("edges", l.Graph.EdgeCount()),
		zap.Duration("elapsed", elapsed))
	a.progress.StageDone("loading interactions", elapsed,
		fmt.Sprintf("%d nodes, %d edges (%d of %d rows kept)",
			l.Graph.Len(), l.Graph.EdgeCount(), stats.Kept, stats.Rows))
	return l, nil
}

// Analyze computes the centrality metrics of a loaded graph and selects its
// hubs.
func (a *Analyzer) Analyze(ctx context.Context, l *Loaded) (*Result, error) {
	g := l.Graph
	log := a.logger.With(zap.String("run", l.RunID))
	res := &Result{
		Analysis: report.Analysis{
			RunID:      l.RunID,
			Input:      l.Input,
			StartedAt:  l.StartedAt,
			Nodes:      g.Len(),
			Edges:      g.EdgeCount(),
			Load:       l.Stats,
			Partitions: centrality.EffectivePartitions(g.Len(), a.opts.Centrality.Partitions),
		},
		Graph: g,
	}
	res.Timings.Load = l.ReadTime
	res.Timings.Build = l.BuildTime

	start := time.Now()
	degrees := graph.Degrees(g)
	res.Components = graph.Components(g)
	res.Timings.Degree = time.Since(start)
	a.metrics.Components.Set(float64(len(res.Components)))
	a.metrics.ObservePhase(PhaseDegree, res.Timings.Degree)
	log.Debug("degrees computed",
		zap.Int("components", len(res.Components)),
		zap.Duration("elapsed", res.Timings.Degree))

	a.progress.Stage("computing betweenness centrality")
	start = time.Now()
	bc, err := centrality.Betweenness(ctx, g, a.centralityOptions(l.RunID))
	if err != nil {
		return nil, a.fail(l.RunID, PhaseBetweenness, err)
	}
	res.Timings.Betweenness = time.Since(start)
	a.metrics.ObservePhase(PhaseBetweenness, res.Timings.Betweenness)
	a.emit(l.RunID, telemetry.KindBetweennessDone, map[string]any{
		"sources":    g.Len(),
		"partitions": res.Partitions,
		"seconds":    res.Timings.Betweenness.Seconds(),
	})
	log.Info("betweenness computed",
		zap.Int("sources", g.Len()),
		zap.Int("partitions", res.Partitions),
		zap.Duration("elapsed", res.Timings.Betweenness))
	a.progress.StageDone("computing betweenness centrality", res.Timings.Betweenness, "")

	start = time.Now()
	res.Records, err = hubs.Merge(g.Nodes(), degrees, bc)
	if err != nil {
		return nil, a.fail(l.RunID, PhaseSelect, err)
	}
	res.Selection, err = hubs.Select(res.Records, a.opts.Percentile)
	if err != nil {
		return nil, a.fail(l.RunID, PhaseSelect, err)
	}
	res.Timings.Select = time.Since(start)
	res.Timings.Total = time.Since(l.StartedAt)
	a.recordSelection(l.RunID, log, res)

	a.metrics.Runs.WithLabelValues("ok").Inc()
	a.metrics.ObservePhase("total", res.Timings.Total)
	a.emit(l.RunID, telemetry.KindRunDone, map[string]float64{"seconds": res.Timings.Total.Seconds()})
	log.Info("run finished", zap.Duration("elapsed", res.Timings.Total))
	return res, nil
}

func (a *Analyzer) recordSelection(runID string, log *zap.Logger, res *Result) {
	sel := res.Selection
	a.metrics.Hubs.Set(float64(len(sel.Hubs)))
	a.metrics.Threshold.WithLabelValues(PhaseDegree).Set(sel.Thresholds.Degree)
	a.metrics.Threshold.WithLabelValues(PhaseBetweenness).Set(sel.Thresholds.Betweenness)
	a.metrics.ObservePhase(PhaseSelect, res.Timings.Select)
	a.emit(runID, telemetry.KindHubsSelected, map[string]any{
		"percentile":            sel.Percentile,
		"degree_threshold":      sel.Thresholds.Degree,
		"betweenness_threshold": sel.Thresholds.Betweenness,
		"hubs":                  len(sel.Hubs),
	})
	if sel.DegreeFlat || sel.BetweennessFlat {
		log.Warn("flat distribution selects no hubs",
			zap.Bool("degree_flat", sel.DegreeFlat),
			zap.Bool("betweenness_flat", sel.BetweennessFlat))
	}
	log.Info("hubs selected",
		zap.Int("hubs", len(sel.Hubs)),
		zap.Int("by_degree", sel.ByDegree),
		zap.Int("by_betweenness", sel.ByBetweenness),
		zap.Float64("degree_threshold", sel.Thresholds.Degree),
		zap.Float64("betweenness_threshold", sel.Thresholds.Betweenness))
}

// centralityOptions wires engine progress into the reporter, metrics, and
// telemetry.
func (a *Analyzer) centralityOptions(runID string) centrality.Options {
	opts := a.opts.Centrality
	last := 0
	opts.Progress = func(done, total int) {
		if done > last {
			a.metrics.SourcesProcessed.Add(float64(done - last))
			last = done
		}
		a.progress.Progress("betweenness", last, total)
		a.emit(runID, telemetry.KindBetweennessProgress, map[string]int{"done": last, "total": total})
	}
	return opts
}

func (a *Analyzer) fail(runID, phase string, err error) error {
	a.metrics.Runs.WithLabelValues("failed").Inc()
	a.emit(runID, telemetry.KindRunFailed, map[string]string{"phase": phase, "error": err.Error()})
	a.logger.Error("run failed", zap.String("run", runID), zap.String("phase", phase), zap.Error(err))
	return fmt.Errorf("pipeline: %s: %w", phase, err)
}

func (a *Analyzer) emit(runID, kind string, data any) {
	if err := a.events.Emit(telemetry.Event{Kind: kind, RunID: runID, Data: data}); err != nil {
		a.logger.Warn("telemetry emit failed", zap.String("kind", kind), zap.Error(err))
	}
}

type nopProgress struct{}

func (nopProgress) Stage(string) {}

func (nopProgress) StageDone(string, time.Duration, string) {}

func (nopProgress) Progress(string, int, int) {}
