package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papapumpkin/hubscan/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [input]",
	Short: "Analyze an interaction table and re-analyze whenever it changes",
	Long: `Runs a full analysis, then watches the input file and repeats the whole
batch each time the file is rewritten or replaced. A failed run is reported and
the watch continues. Stop with Ctrl-C.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	addReportFlags(watchCmd)
	watchCmd.Flags().Duration("debounce", watch.DefaultDebounce, "quiet period before a change triggers a run")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
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

	w, err := watch.NewWatcher(s.input)
	if err != nil {
		return err
	}
	w.Debounce, _ = cmd.Flags().GetDuration("debounce")
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()

	s.printer.Banner(version)
	s.runOnce(ctx, cmd)
	s.printer.Info(fmt.Sprintf("watching %s for changes", w.File))

	for {
		select {
		case <-ctx.Done():
			return nil
		case c, ok := <-w.Changes:
			if !ok {
				return nil
			}
			s.logger.Info("input changed", zap.String("file", c.File), zap.Stringer("kind", c.Kind))
			if c.Kind == watch.ChangeRemoved {
				s.printer.Warn(c.File + " was removed; waiting for it to return")
				continue
			}
			s.runOnce(ctx, cmd)
		}
	}
}

// runOnce runs one batch and reports its outcome. Errors are printed rather
// than returned so the watch survives a bad edit of the input.
func (s *session) runOnce(ctx context.Context, cmd *cobra.Command) {
	res, written, err := s.analyze(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.printer.Error(err.Error())
		}
		return
	}
	if err := s.report(cmd, res, written); err != nil {
		s.printer.Error(err.Error())
	}
}
