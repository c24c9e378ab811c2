package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/hubscan/internal/store"
	"github.com/papapumpkin/hubscan/internal/ui"
)

var errNoDatabase = errors.New("no run database: set db_path in the config or pass --db")

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List analysis runs stored in the run database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return withStore(cmd, func(ctx context.Context, s *store.Store) error {
			runs, err := s.Runs(ctx, limit)
			if err != nil {
				return err
			}
			ui.New().Runs(runs)
			return nil
		})
	},
}

var runsHubsCmd = &cobra.Command{
	Use:   "hubs <run-id>",
	Short: "Show the hubs of a stored run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, s *store.Store) error {
			records, err := s.Hubs(ctx, args[0])
			if err != nil {
				return err
			}
			ui.New().RunHubs(args[0], records)
			return nil
		})
	},
}

func init() {
	runsCmd.Flags().Int("limit", 20, "maximum runs to list (0 = all)")
	runsCmd.AddCommand(runsHubsCmd)
	rootCmd.AddCommand(runsCmd)
}

// withStore opens the configured run database for the duration of fn.
func withStore(cmd *cobra.Command, fn func(context.Context, *store.Store) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.DBPath == "" {
		return errNoDatabase
	}
	ctx, cancel := signalContext()
	defer cancel()

	s, err := store.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(ctx, s)
}
