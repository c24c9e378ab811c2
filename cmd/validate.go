package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/hubscan/internal/graph"
	"github.com/papapumpkin/hubscan/internal/interactions"
	"github.com/papapumpkin/hubscan/internal/pipeline"
	"github.com/papapumpkin/hubscan/internal/ui"
)

var validateCmd = &cobra.Command{
	Use:   "validate [input]",
	Short: "Check that an interaction table parses, without analyzing it",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		input, err := resolveInput(cfg, args)
		if err != nil {
			return err
		}
		opts, err := pipeline.OptionsFromConfig(cfg)
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		printer := ui.New()
		b := graph.NewBuilder()
		stats, err := interactions.ReadFile(ctx, input, opts.Read, b)
		if err != nil {
			var me *graph.MalformedEdgeError
			if errors.As(err, &me) {
				printer.Failure(fmt.Sprintf("%s: line %d: %s", input, me.Line, me.Reason))
			}
			return err
		}
		printer.Validation(input, stats, b.Len())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
