package graph

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedEdge is matched by every *MalformedEdgeError.
var ErrMalformedEdge = errors.New("malformed edge")

// MalformedEdgeError identifies an input record that is not a well-formed
// two-endpoint pair.
type MalformedEdgeError struct {
	Line   int      // 1-based line in the source, 0 if unknown
	Record []string // the offending fields
	Reason string
}

// Error formats the record position, reason, and raw fields.
func (e *MalformedEdgeError) Error() string {
	var b strings.Builder
	b.WriteString("malformed edge")
	if e.Line > 0 {
		fmt.Fprintf(&b, " at line %d", e.Line)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Record != nil {
		fmt.Fprintf(&b, " %q", e.Record)
	}
	return b.String()
}

// Is reports whether target is ErrMalformedEdge.
func (e *MalformedEdgeError) Is(target error) bool {
	return target == ErrMalformedEdge
}

// EdgeFromRecord converts a raw record into an Edge. The record must hold
// exactly two fields.
func EdgeFromRecord(line int, fields []string) (Edge, error) {
	if len(fields) != 2 {
		rec := make([]string, len(fields))
		copy(rec, fields)
		return Edge{}, &MalformedEdgeError{
			Line:   line,
			Record: rec,
			Reason: fmt.Sprintf("want 2 endpoints, got %d", len(fields)),
		}
	}
	return Edge{A: fields[0], B: fields[1]}, nil
}
