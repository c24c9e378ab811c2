// Package interactions reads protein-protein interaction tables and feeds
// the confident pairs into a graph builder.
//
// The expected input is a delimited text file with a header row, such as the
// STRING protein.links files:
//
//	protein1 protein2 combined_score
//	9606.ENSP00000000233 9606.ENSP00000272298 490
//
// Gzip-compressed input is detected by its magic bytes and decompressed
// transparently.
package interactions

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/papapumpkin/hubscan/internal/graph"
)

// DefaultMinScore is the combined-score cut used by STRING for
// high-confidence interactions.
const DefaultMinScore = 700

// ErrMissingColumn is returned when the header lacks a configured column.
var ErrMissingColumn = errors.New("missing column")

// ctxCheckEvery is how many rows are read between context checks.
const ctxCheckEvery = 4096

// Columns names the header columns holding each field. An empty Score
// disables score filtering.
type Columns struct {
	Source string
	Target string
	Score  string
}

// DefaultColumns returns the STRING column names.
func DefaultColumns() Columns {
	return Columns{Source: "protein1", Target: "protein2", Score: "combined_score"}
}

// Options configures a read.
type Options struct {
	Delimiter rune
	Columns   Columns
	// MinScore keeps rows whose score is strictly greater than it.
	MinScore float64
	// RejectEmptyIDs turns a row with an empty endpoint into a malformed
	// row. By default such rows pass through with "" as the identifier.
	RejectEmptyIDs bool
}

// DefaultOptions returns space-delimited STRING defaults.
func DefaultOptions() Options {
	return Options{Delimiter: ' ', Columns: DefaultColumns(), MinScore: DefaultMinScore}
}

// Stats counts the data rows seen by a read.
type Stats struct {
	Rows     int `json:"rows"`
	Kept     int `json:"kept"`
	Filtered int `json:"filtered"`
}

// EdgeSink receives every kept row as a two-field endpoint record.
// *graph.Builder satisfies it.
type EdgeSink interface {
	AddRecord(line int, fields []string) error
}

// ReadFile opens path and streams it into sink.
func ReadFile(ctx context.Context, path string, opts Options, sink EdgeSink) (Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return Stats{}, fmt.Errorf("interactions: open %s: %w", path, err)
	}
	defer f.Close()

	stats, err := Read(ctx, f, opts, sink)
	if err != nil {
		return stats, fmt.Errorf("interactions: %s: %w", path, err)
	}
	return stats, nil
}

// Read parses r and passes each kept row to sink. An input without even a
// header row is treated as an empty table.
func Read(ctx context.Context, r io.Reader, opts Options, sink EdgeSink) (Stats, error) {
	var stats Stats

	src, closeFn, err := decompress(r)
	if err != nil {
		return stats, err
	}
	defer closeFn()

	cr := csv.NewReader(src)
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	} else {
		cr.Comma = ' '
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return stats, nil
	}
	if err != nil {
		return stats, csvError(err)
	}
	idx, err := lookupColumns(header, opts.Columns)
	if err != nil {
		return stats, err
	}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		if err != nil {
			return stats, csvError(err)
		}
		stats.Rows++
		if stats.Rows%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
		}

		line, _ := cr.FieldPos(0)
		if len(rec) <= idx.max {
			return stats, &graph.MalformedEdgeError{
				Line:   line,
				Record: clone(rec),
				Reason: fmt.Sprintf("want at least %d fields, got %d", idx.max+1, len(rec)),
			}
		}
		if opts.RejectEmptyIDs && (rec[idx.source] == "" || rec[idx.target] == "") {
			return stats, &graph.MalformedEdgeError{
				Line:   line,
				Record: clone(rec),
				Reason: "empty endpoint",
			}
		}
		if idx.score >= 0 {
			score, err := strconv.ParseFloat(strings.TrimSpace(rec[idx.score]), 64)
			if err != nil {
				return stats, &graph.MalformedEdgeError{
					Line:   line,
					Record: clone(rec),
					Reason: fmt.Sprintf("bad %s %q", opts.Columns.Score, rec[idx.score]),
				}
			}
			if score <= opts.MinScore {
				stats.Filtered++
				continue
			}
		}
		if err := sink.AddRecord(line, []string{rec[idx.source], rec[idx.target]}); err != nil {
			return stats, err
		}
		stats.Kept++
	}
}

// columnIndex holds resolved header positions; score is -1 when unused.
type columnIndex struct {
	source, target, score int
	max                   int
}

func lookupColumns(header []string, cols Columns) (columnIndex, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		if _, dup := pos[h]; !dup {
			pos[h] = i
		}
	}

	find := func(name string) (int, error) {
		i, ok := pos[name]
		if !ok {
			return 0, fmt.Errorf("%w %q in header %q", ErrMissingColumn, name, header)
		}
		return i, nil
	}

	var (
		idx columnIndex
		err error
	)
	if idx.source, err = find(cols.Source); err != nil {
		return idx, err
	}
	if idx.target, err = find(cols.Target); err != nil {
		return idx, err
	}
	idx.score = -1
	if cols.Score != "" {
		if idx.score, err = find(cols.Score); err != nil {
			return idx, err
		}
	}
	idx.max = max(idx.source, idx.target, idx.score)
	return idx, nil
}

// decompress wraps r in a gzip reader when it starts with the gzip magic.
func decompress(r io.Reader) (io.Reader, func(), error) {
	br := bufio.NewReaderSize(r, 64*1024)
	magic, err := br.Peek(2)
	if err != nil || magic[0] != 0x1f || magic[1] != 0x8b {
		// Short or plain input; the csv reader reports anything odd.
		return br, func() {}, nil
	}
	zr, err := gzip.NewReader(br)
	if err != nil {
		return nil, nil, fmt.Errorf("interactions: gzip: %w", err)
	}
	return zr, func() { zr.Close() }, nil
}

// csvError converts a csv syntax error into a malformed-edge error at the
// same line.
func csvError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &graph.MalformedEdgeError{Line: pe.Line, Reason: pe.Err.Error()}
	}
	return fmt.Errorf("interactions: read: %w", err)
}

func clone(rec []string) []string {
	out := make([]string, len(rec))
	copy(out, rec)
	return out
}
