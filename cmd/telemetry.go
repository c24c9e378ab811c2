package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/papapumpkin/hubscan/internal/pipeline"
	"github.com/papapumpkin/hubscan/internal/telemetry"
)

var eventsCmd = &cobra.Command{
	Use:   "events [events.jsonl]",
	Short: "View the JSONL telemetry events of analysis runs",
	Long: `Reads and formats the telemetry stream written with --telemetry.

Without an argument, reads events.jsonl in the output directory.
With --run, shows only the events of one run.
With --follow (-f), watches the file for new events (like tail -f).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEvents,
}

func init() {
	eventsCmd.Flags().String("run", "", "only show events of this run id")
	eventsCmd.Flags().BoolP("follow", "f", false, "follow the file for new events")
	rootCmd.AddCommand(eventsCmd)
}

func runEvents(cmd *cobra.Command, args []string) error {
	runID, _ := cmd.Flags().GetString("run")
	follow, _ := cmd.Flags().GetBool("follow")

	path, err := resolveEventsPath(cmd, args)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("events: open %s: %w", path, err)
	}
	defer f.Close()

	out := cmd.OutOrStdout()
	er := &eventReader{r: bufio.NewReader(f), runID: runID}
	if err := er.drain(out); err != nil {
		return fmt.Errorf("events: read %s: %w", path, err)
	}
	if !follow {
		er.flush(out)
		return nil
	}

	ctx, cancel := signalContext()
	defer cancel()
	return tailFollow(ctx, out, er, path)
}

func resolveEventsPath(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg.OutputDir, pipeline.EventsFile), nil
}

// eventReader prints events from a file that may still be growing. A line
// without its newline is held back until the rest of it arrives.
type eventReader struct {
	r       *bufio.Reader
	runID   string
	partial string
}

// drain prints every complete line currently readable.
func (er *eventReader) drain(w io.Writer) error {
	for {
		chunk, err := er.r.ReadString('\n')
		if err == io.EOF {
			er.partial += chunk
			return nil
		}
		if err != nil {
			return err
		}
		line := strings.TrimSpace(er.partial + chunk)
		er.partial = ""
		if line != "" {
			printEvent(w, line, er.runID)
		}
	}
}

// flush prints a held-back final line, for files that end without a newline.
func (er *eventReader) flush(w io.Writer) {
	if line := strings.TrimSpace(er.partial); line != "" {
		printEvent(w, line, er.runID)
	}
	er.partial = ""
}

// tailFollow watches the file for new data using fsnotify and prints new events.
func tailFollow(ctx context.Context, w io.Writer, er *eventReader, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("events: create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("events: watch %s: %w", path, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Write == 0 {
				continue
			}
			if err := er.drain(w); err != nil {
				return fmt.Errorf("events: read %s: %w", path, err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("events: watch %s: %w", path, err)
		}
	}
}

// printEvent decodes a JSONL line and prints a human-readable representation.
// Events of other runs are skipped when runID is set.
func printEvent(w io.Writer, line, runID string) {
	var evt telemetry.Event
	if err := jsoniter.Unmarshal([]byte(line), &evt); err != nil {
		fmt.Fprintf(w, "??? %s\n", line)
		return
	}
	if runID != "" && evt.RunID != runID {
		return
	}

	parts := []string{fmt.Sprintf("[%s]", evt.Timestamp.Local().Format(time.TimeOnly)), evt.Kind}
	if evt.RunID != "" {
		parts = append(parts, "run="+shortID(evt.RunID))
	}
	if evt.Data != nil {
		if m, ok := evt.Data.(map[string]any); ok {
			parts = append(parts, formatDataMap(m))
		} else {
			data, _ := jsoniter.Marshal(evt.Data)
			parts = append(parts, string(data))
		}
	}

	fmt.Fprintln(w, strings.Join(parts, " "))
}

// shortID trims a uuid to its first group.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

// formatDataMap formats a data map as key=value pairs sorted by key.
func formatDataMap(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%v", k, m[k])
	}
	return b.String()
}
