package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/papapumpkin/hubscan/internal/hubs"
)

// ErrBadTable is returned when a node table cannot be parsed.
var ErrBadTable = errors.New("bad node table")

var nodeTableHeader = []string{"node", "degree", "betweenness", "hub"}

// NodeRow is one parsed line of a node table.
type NodeRow struct {
	hubs.Record
	Hub bool
}

// WriteNodeTable writes every record with its hub flag as CSV.
func WriteNodeTable(w io.Writer, records []hubs.Record, sel hubs.Selection) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(nodeTableHeader); err != nil {
		return fmt.Errorf("report: node table: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.Node,
			strconv.Itoa(r.Degree),
			formatFloat(r.Betweenness),
			strconv.FormatBool(sel.Contains(r.Node)),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("report: node table: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("report: node table: %w", err)
	}
	return nil
}

// WriteHubTable writes the Gene,Degree,Betweenness table of the hubs only.
func WriteHubTable(w io.Writer, hubRecords []hubs.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Gene", "Degree", "Betweenness"}); err != nil {
		return fmt.Errorf("report: hub table: %w", err)
	}
	for _, r := range hubRecords {
		if err := cw.Write([]string{r.Node, strconv.Itoa(r.Degree), formatFloat(r.Betweenness)}); err != nil {
			return fmt.Errorf("report: hub table: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("report: hub table: %w", err)
	}
	return nil
}

// ReadNodeTable parses a table written by WriteNodeTable.
func ReadNodeTable(r io.Reader) ([]NodeRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(nodeTableHeader)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("report: %w: header: %w", ErrBadTable, err)
	}
	if strings.Join(header, ",") != strings.Join(nodeTableHeader, ",") {
		return nil, fmt.Errorf("report: %w: header %q", ErrBadTable, header)
	}

	var out []NodeRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("report: %w: %w", ErrBadTable, err)
		}
		line, _ := cr.FieldPos(0)
		row, err := parseNodeRow(rec)
		if err != nil {
			return nil, fmt.Errorf("report: %w: line %d: %w", ErrBadTable, line, err)
		}
		out = append(out, row)
	}
}

func parseNodeRow(rec []string) (NodeRow, error) {
	degree, err := strconv.Atoi(rec[1])
	if err != nil {
		return NodeRow{}, err
	}
	bc, err := strconv.ParseFloat(rec[2], 64)
	if err != nil {
		return NodeRow{}, err
	}
	hub, err := strconv.ParseBool(rec[3])
	if err != nil {
		return NodeRow{}, err
	}
	return NodeRow{Record: hubs.Record{Node: rec[0], Degree: degree, Betweenness: bc}, Hub: hub}, nil
}

// formatFloat prints the shortest representation that parses back exactly.
func formatFloat(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}
