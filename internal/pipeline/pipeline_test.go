package pipeline

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/goleak"

	"github.com/papapumpkin/hubscan/internal/config"
	"github.com/papapumpkin/hubscan/internal/graph"
	"github.com/papapumpkin/hubscan/internal/hubs"
	"github.com/papapumpkin/hubscan/internal/observability"
	"github.com/papapumpkin/hubscan/internal/telemetry"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// A hub joined to four partners, one of which leads on to a sixth node. The
// last row falls under the default score cutoff.
const links = `protein1 protein2 combined_score
hub a 900
hub b 900
hub c 900
hub d 900
d e 800
a b 100
`

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "links.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

type recordingProgress struct {
	mu     sync.Mutex
	stages []string
	done   []string
	last   [2]int
}

func (r *recordingProgress) Stage(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, name)
}

func (r *recordingProgress) StageDone(name string, _ time.Duration, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done = append(r.done, name)
}

func (r *recordingProgress) Progress(_ string, done, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = [2]int{done, total}
}

func readKinds(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	var kinds []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var evt struct {
			Kind  string `json:"kind"`
			RunID string `json:"run"`
		}
		if err := jsoniter.Unmarshal(sc.Bytes(), &evt); err != nil {
			t.Fatalf("bad event line %q: %v", sc.Text(), err)
		}
		if evt.RunID == "" {
			t.Errorf("event %s has no run id", evt.Kind)
		}
		kinds = append(kinds, evt.Kind)
	}
	return kinds
}

func TestAnalyzer_Run(t *testing.T) {
	t.Parallel()
	input := writeInput(t, links)
	eventsPath := filepath.Join(t.TempDir(), EventsFile)
	events, err := telemetry.NewEmitter(eventsPath)
	if err != nil {
		t.Fatal(err)
	}
	progress := &recordingProgress{}
	metrics := observability.NewMetrics()

	a := NewAnalyzer(DefaultOptions(),
		WithMetrics(metrics),
		WithTelemetry(events),
		WithProgress(progress))
	res, err := a.Run(context.Background(), input)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := events.Close(); err != nil {
		t.Fatal(err)
	}

	if res.RunID == "" || res.Input != input {
		t.Errorf("run id %q input %q", res.RunID, res.Input)
	}
	if res.Nodes != 6 || res.Edges != 5 {
		t.Errorf("graph = %d nodes %d edges, want 6 and 5", res.Nodes, res.Edges)
	}
	if res.Load.Rows != 6 || res.Load.Kept != 5 || res.Load.Filtered != 1 {
		t.Errorf("load stats = %+v", res.Load)
	}
	if diff := cmp.Diff([]int{6}, res.Components); diff != "" {
		t.Errorf("components (-want +got):\n%s", diff)
	}

	wantHubs := []hubs.Record{
		{Node: "hub", Degree: 4, Betweenness: 0.9},
		{Node: "d", Degree: 2, Betweenness: 0.4},
	}
	approx := cmp.Comparer(func(x, y float64) bool { return x-y < 1e-12 && y-x < 1e-12 })
	if diff := cmp.Diff(wantHubs, res.Selection.Hubs, approx); diff != "" {
		t.Errorf("hubs (-want +got):\n%s", diff)
	}
	if res.Selection.ByDegree != 2 || res.Selection.ByBetweenness != 2 {
		t.Errorf("by degree %d, by betweenness %d", res.Selection.ByDegree, res.Selection.ByBetweenness)
	}
	if res.Partitions != 6 {
		t.Errorf("partitions = %d, want 6 (one per source below the default)", res.Partitions)
	}
	if res.Timings.Total <= 0 {
		t.Error("total timing not recorded")
	}

	if progress.last != [2]int{6, 6} {
		t.Errorf("final progress = %v, want [6 6]", progress.last)
	}
	if len(progress.stages) != 2 || len(progress.done) != 2 {
		t.Errorf("stages %v done %v", progress.stages, progress.done)
	}

	if got := testutil.ToFloat64(metrics.Nodes); got != 6 {
		t.Errorf("nodes gauge = %v, want 6", got)
	}
	if got := testutil.ToFloat64(metrics.Hubs); got != 2 {
		t.Errorf("hubs gauge = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.SourcesProcessed); got != 6 {
		t.Errorf("sources counter = %v, want 6", got)
	}
	if got := testutil.ToFloat64(metrics.Runs.WithLabelValues("ok")); got != 1 {
		t.Errorf("ok runs = %v, want 1", got)
	}

	kinds := readKinds(t, eventsPath)
	for _, want := range []string{
		telemetry.KindRunStart, telemetry.KindEdgesLoaded, telemetry.KindGraphBuilt,
		telemetry.KindBetweennessProgress, telemetry.KindBetweennessDone,
		telemetry.KindHubsSelected, telemetry.KindRunDone,
	} {
		found := false
		for _, k := range kinds {
			if k == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing telemetry event %s in %v", want, kinds)
		}
	}
	if kinds[0] != telemetry.KindRunStart || kinds[len(kinds)-1] != telemetry.KindRunDone {
		t.Errorf("event order = %v", kinds)
	}
}

func TestAnalyzer_Deterministic(t *testing.T) {
	t.Parallel()
	input := writeInput(t, links)
	opts := DefaultOptions()
	opts.Centrality.Workers = 3

	first, err := NewAnalyzer(opts).Run(context.Background(), input)
	if err != nil {
		t.Fatal(err)
	}
	second, err := NewAnalyzer(opts).Run(context.Background(), input)
	if err != nil {
		t.Fatal(err)
	}
	if first.RunID == second.RunID {
		t.Error("run ids should differ between runs")
	}
	if diff := cmp.Diff(first.Records, second.Records); diff != "" {
		t.Errorf("records differ between runs (-first +second):\n%s", diff)
	}
}

func TestAnalyzer_MalformedInput(t *testing.T) {
	t.Parallel()
	input := writeInput(t, "protein1 protein2 combined_score\na b 900\nc d high\n")
	eventsPath := filepath.Join(t.TempDir(), EventsFile)
	events, err := telemetry.NewEmitter(eventsPath)
	if err != nil {
		t.Fatal(err)
	}
	metrics := observability.NewMetrics()

	_, err = NewAnalyzer(DefaultOptions(), WithMetrics(metrics), WithTelemetry(events)).
		Run(context.Background(), input)
	events.Close()

	var me *graph.MalformedEdgeError
	if !errors.As(err, &me) {
		t.Fatalf("error = %v, want *graph.MalformedEdgeError", err)
	}
	if me.Line != 3 {
		t.Errorf("line = %d, want 3", me.Line)
	}
	if got := testutil.ToFloat64(metrics.Runs.WithLabelValues("failed")); got != 1 {
		t.Errorf("failed runs = %v, want 1", got)
	}
	kinds := readKinds(t, eventsPath)
	if kinds[len(kinds)-1] != telemetry.KindRunFailed {
		t.Errorf("last event = %s, want %s", kinds[len(kinds)-1], telemetry.KindRunFailed)
	}
}

func TestAnalyzer_Cancelled(t *testing.T) {
	t.Parallel()
	a := NewAnalyzer(DefaultOptions())
	loaded, err := a.Load(context.Background(), writeInput(t, links))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := a.Analyze(ctx, loaded); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestAnalyzer_EmptyInput(t *testing.T) {
	t.Parallel()
	res, err := NewAnalyzer(DefaultOptions()).Run(context.Background(), writeInput(t, ""))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Nodes != 0 || len(res.Selection.Hubs) != 0 {
		t.Errorf("empty input gave %d nodes, %d hubs", res.Nodes, len(res.Selection.Hubs))
	}
}

func TestOptionsFromConfig(t *testing.T) {
	t.Parallel()
	cfg := config.Config{
		Delimiter:   "tab",
		Columns:     config.ColumnsConfig{Source: "a", Target: "b", Score: ""},
		MinScore:    400,
		RejectEmpty: true,
		Percentile:  0.9,
		Workers:     2,
		Partitions:  8,
	}
	opts, err := OptionsFromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if opts.Read.Delimiter != '\t' || opts.Read.Columns.Source != "a" || opts.Read.MinScore != 400 || !opts.Read.RejectEmptyIDs {
		t.Errorf("read options = %+v", opts.Read)
	}
	if opts.Centrality.Workers != 2 || opts.Centrality.Partitions != 8 || !opts.Centrality.Normalized {
		t.Errorf("centrality options = %+v", opts.Centrality)
	}
	if opts.Percentile != 0.9 {
		t.Errorf("percentile = %v", opts.Percentile)
	}

	cfg.Delimiter = `""`
	if _, err := OptionsFromConfig(cfg); err == nil {
		t.Error("expected an error for a bad delimiter")
	}
}
