package telemetry

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestNewEmitter_CreatesFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "events.jsonl")

	em, err := NewEmitter(path)
	if err != nil {
		t.Fatalf("NewEmitter(%q): %v", path, err)
	}
	defer em.Close()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file to exist at %q: %v", path, err)
	}
}

func TestNewEmitter_ErrorOnBadPath(t *testing.T) {
	t.Parallel()
	_, err := NewEmitter("/nonexistent/dir/events.jsonl")
	if err == nil {
		t.Fatal("expected error for bad path, got nil")
	}
	if !strings.Contains(err.Error(), "telemetry: open") {
		t.Errorf("expected wrapped error, got: %v", err)
	}
}

func TestEmit_WritesValidJSONL(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "events.jsonl")

	em, err := NewEmitter(path)
	if err != nil {
		t.Fatalf("NewEmitter: %v", err)
	}

	events := []Event{
		{Timestamp: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Kind: KindRunStart, RunID: "r1"},
		{Timestamp: time.Date(2025, 1, 1, 0, 1, 0, 0, time.UTC), Kind: KindGraphBuilt, RunID: "r1", Data: map[string]int{"nodes": 10, "edges": 12}},
		{Timestamp: time.Date(2025, 1, 1, 0, 2, 0, 0, time.UTC), Kind: KindRunDone, RunID: "r1"},
	}

	for _, evt := range events {
		if err := em.Emit(evt); err != nil {
			t.Fatalf("Emit: %v", err)
		}
	}
	if err := em.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Read back and verify each line is valid JSON.
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var decoded []Event
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		var evt Event
		if err := json.Unmarshal([]byte(line), &evt); err != nil {
			t.Fatalf("invalid JSON line: %v\nline: %s", err, line)
		}
		decoded = append(decoded, evt)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scanner: %v", err)
	}

	if len(decoded) != len(events) {
		t.Fatalf("expected %d events, got %d", len(events), len(decoded))
	}
	for i, got := range decoded {
		if got.Kind != events[i].Kind {
			t.Errorf("event %d: kind=%q, want %q", i, got.Kind, events[i].Kind)
		}
		if got.RunID != events[i].RunID {
			t.Errorf("event %d: run=%q, want %q", i, got.RunID, events[i].RunID)
		}
		if !got.Timestamp.Equal(events[i].Timestamp) {
			t.Errorf("event %d: ts=%v, want %v", i, got.Timestamp, events[i].Timestamp)
		}
	}
}

func TestEmit_ConcurrentSafety(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "concurrent.jsonl")

	em, err := NewEmitter(path)
	if err != nil {
		t.Fatalf("NewEmitter: %v", err)
	}

	const n = 100
	var wg sync.WaitGroup
	wg.Add(n)
	for i := range n {
		go func(idx int) {
			defer wg.Done()
			evt := Event{
				Timestamp: time.Now(),
				Kind:      KindBetweennessProgress,
				RunID:     "concurrent",
				Data:      map[string]int{"idx": idx},
			}
			if err := em.Emit(evt); err != nil {
				t.Errorf("Emit from goroutine %d: %v", idx, err)
			}
		}(i)
	}
	wg.Wait()

	if err := em.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Verify all lines are valid JSON.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != n {
		t.Fatalf("expected %d lines, got %d", n, len(lines))
	}
	for i, line := range lines {
		var evt Event
		if err := json.Unmarshal([]byte(line), &evt); err != nil {
			t.Errorf("line %d: invalid JSON: %v", i, err)
		}
	}
}

func TestNilEmitter_NoOp(t *testing.T) {
	t.Parallel()
	var em *Emitter

	// Emit on nil should return nil.
	if err := em.Emit(Event{Kind: KindRunStart}); err != nil {
		t.Errorf("nil Emit: %v", err)
	}
	// Close on nil should return nil.
	if err := em.Close(); err != nil {
		t.Errorf("nil Close: %v", err)
	}
}

func TestEmit_AppendsToExistingFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "append.jsonl")

	// Write first batch.
	em1, err := NewEmitter(path)
	if err != nil {
		t.Fatalf("NewEmitter: %v", err)
	}
	if err := em1.Emit(Event{Kind: KindRunStart, RunID: "r1"}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	em1.Close()

	// Write second batch.
	em2, err := NewEmitter(path)
	if err != nil {
		t.Fatalf("NewEmitter: %v", err)
	}
	if err := em2.Emit(Event{Kind: KindRunDone, RunID: "r1"}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	em2.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
}

func TestEventKinds_AreDistinct(t *testing.T) {
	t.Parallel()
	kinds := []string{
		KindRunStart,
		KindEdgesLoaded,
		KindGraphBuilt,
		KindBetweennessProgress,
		KindBetweennessDone,
		KindHubsSelected,
		KindRunDone,
		KindRunFailed,
	}
	seen := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		if k == "" {
			t.Errorf("empty kind constant found")
		}
		if seen[k] {
			t.Errorf("duplicate kind: %q", k)
		}
		seen[k] = true
	}
}

func TestEvent_OmitsEmptyFields(t *testing.T) {
	t.Parallel()
	evt := Event{
		Timestamp: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Kind:      KindRunStart,
	}
	data, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	s := string(data)
	if strings.Contains(s, `"run"`) {
		t.Errorf("expected run to be omitted, got: %s", s)
	}
	if strings.Contains(s, `"data"`) {
		t.Errorf("expected data to be omitted, got: %s", s)
	}
}

func TestEmit_StampsZeroTimestamp(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "stamp.jsonl")

	em, err := NewEmitter(path)
	if err != nil {
		t.Fatalf("NewEmitter: %v", err)
	}
	before := time.Now().UTC().Add(-time.Second)
	if err := em.Emit(Event{Kind: KindHubsSelected, RunID: "r2"}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	em.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var evt Event
	if err := json.Unmarshal(data, &evt); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if evt.Timestamp.Before(before) {
		t.Errorf("timestamp %v not set", evt.Timestamp)
	}
}
