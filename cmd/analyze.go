package cmd

import (
	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [input]",
	Short: "Analyze an interaction table and write hub artifacts",
	Long: `Reads a STRING-style link table, keeps interactions above the score cutoff,
and computes degree and betweenness centrality for every protein. Nodes at or
above the percentile threshold on either metric are reported as hubs.

Artifacts (node table, hub table, summary, manifest, histograms, and the
Graphviz network) are written to --output-dir.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	addReportFlags(analyzeCmd)
	rootCmd.AddCommand(analyzeCmd)
}

func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().String("report", "ranking", "text report on stdout: ranking, distribution, or none")
	cmd.Flags().Int("top", 10, "hubs listed in the summary and ranking (0 = all)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if _, err := reportStrategy(cmd); err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	s, err := openSession(ctx, cmd, args)
	if err != nil {
		return err
	}
	defer s.close()

	s.printer.Banner(version)
	res, written, err := s.analyze(ctx)
	if err != nil {
		return err
	}
	return s.report(cmd, res, written)
}
