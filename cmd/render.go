package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/hubscan/internal/report"
	"github.com/papapumpkin/hubscan/internal/ui"
)

var renderCmd = &cobra.Command{
	Use:   "render <nodes.csv>",
	Short: "Re-render the distribution histograms from a node table",
	Long: `Reads a nodes.csv written by analyze and writes the degree and betweenness
histograms again, for example with a different --bins. The histograms are
written next to the table unless --out names another directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().String("out", "", "directory for the histograms (default: the table's directory)")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	table := args[0]
	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = filepath.Dir(table)
	}

	f, err := os.Open(table)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	rows, err := report.ReadNodeTable(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("render: %s: %w", table, err)
	}

	degrees := make([]float64, len(rows))
	betweenness := make([]float64, len(rows))
	for i, r := range rows {
		degrees[i] = float64(r.Degree)
		betweenness[i] = r.Betweenness
	}

	if err := os.MkdirAll(out, 0o755); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	degPath := filepath.Join(out, report.DegreeHistogramFile)
	btwPath := filepath.Join(out, report.BetweennessHistogramFile)
	degFile, err := os.Create(degPath)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	defer degFile.Close()
	btwFile, err := os.Create(btwPath)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	defer btwFile.Close()

	if err := report.RenderHistograms(degFile, btwFile, degrees, betweenness, cfg.Bins); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := degFile.Close(); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := btwFile.Close(); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	ui.New().Artifacts(out, []string{degPath, btwPath})
	return nil
}
