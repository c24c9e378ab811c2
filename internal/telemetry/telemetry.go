// Package telemetry provides a JSONL event stream for recording the phases of
// an analysis run. Loading, graph construction, betweenness progress, hub
// selection, and completion are each recorded as a structured JSON event
// tagged with the run id, so runs can be audited and compared afterwards.
package telemetry

import (
	"fmt"
	"os"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// Event kinds identify the type of telemetry event.
const (
	KindRunStart            = "run_start"
	KindEdgesLoaded         = "edges_loaded"
	KindGraphBuilt          = "graph_built"
	KindBetweennessProgress = "betweenness_progress"
	KindBetweennessDone     = "betweenness_done"
	KindHubsSelected        = "hubs_selected"
	KindRunDone             = "run_done"
	KindRunFailed           = "run_failed"
)

// Event represents a single telemetry record. Each event carries a timestamp,
// a kind tag, the run it belongs to, and optional structured data.
type Event struct {
	Timestamp time.Time `json:"ts"`
	Kind      string    `json:"kind"`
	RunID     string    `json:"run,omitempty"`
	Data      any       `json:"data,omitempty"`
}

// Emitter writes telemetry events to a JSONL file. It is safe for concurrent
// use by multiple goroutines. A nil *Emitter is a valid no-op emitter.
type Emitter struct {
	file *os.File
	enc  *jsoniter.Encoder
	mu   sync.Mutex
}

// NewEmitter creates a new Emitter that writes JSONL events to the file at
// path. The file is created if it does not exist, or appended to if it does.
func NewEmitter(path string) (*Emitter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open %s: %w", path, err)
	}
	return &Emitter{
		file: f,
		enc:  jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(f),
	}, nil
}

// Emit writes a single event. A zero Timestamp is set to the current time.
// Calling Emit on a nil Emitter is a no-op.
func (e *Emitter) Emit(evt Event) error {
	if e == nil {
		return nil
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.enc.Encode(evt); err != nil {
		return fmt.Errorf("telemetry: encode event: %w", err)
	}
	return nil
}

// Close closes the underlying file. Calling Close on a nil Emitter is a no-op.
func (e *Emitter) Close() error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.file.Close(); err != nil {
		return fmt.Errorf("telemetry: close: %w", err)
	}
	return nil
}
