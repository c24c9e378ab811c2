package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/hubscan/internal/report"
	"github.com/papapumpkin/hubscan/internal/ui"
)

var showCmd = &cobra.Command{
	Use:   "show <run.toml|output-dir>",
	Short: "Print the manifest of a finished run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			path = filepath.Join(path, report.ManifestFile)
		}
		m, err := report.LoadManifest(path)
		if err != nil {
			return err
		}
		ui.New().Manifest(m)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
