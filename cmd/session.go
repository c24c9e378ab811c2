package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/papapumpkin/hubscan/internal/config"
	"github.com/papapumpkin/hubscan/internal/observability"
	"github.com/papapumpkin/hubscan/internal/pipeline"
	"github.com/papapumpkin/hubscan/internal/report"
	"github.com/papapumpkin/hubscan/internal/store"
	"github.com/papapumpkin/hubscan/internal/telemetry"
	"github.com/papapumpkin/hubscan/internal/ui"
)

// errNoInput is returned when neither an argument nor the input key names a
// file to analyze.
var errNoInput = errors.New("no input file: pass one as an argument or set input in the config")

// session holds the collaborators shared by the commands that run analyses.
type session struct {
	cfg      config.Config
	input    string
	printer  *ui.Printer
	logger   *zap.Logger
	metrics  *observability.Metrics
	events   *telemetry.Emitter
	store    *store.Store
	analyzer *pipeline.Analyzer
}

// loadConfig reads the configuration and applies flag overrides that have
// no configuration key.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// resolveInput picks the input file from args, falling back to the config.
func resolveInput(cfg config.Config, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if cfg.Input != "" {
		return cfg.Input, nil
	}
	return "", errNoInput
}

// openSession loads configuration and builds the logger, metrics, telemetry
// stream, optional run store, and analyzer.
func openSession(ctx context.Context, cmd *cobra.Command, args []string) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	input, err := resolveInput(cfg, args)
	if err != nil {
		return nil, err
	}
	opts, err := pipeline.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, input: input, printer: ui.New(), metrics: observability.NewMetrics()}
	s.logger, err = observability.NewLogger(cfg.Log, zapcore.Lock(os.Stderr))
	if err != nil {
		return nil, err
	}

	if cfg.Telemetry {
		if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
			s.close()
			return nil, fmt.Errorf("create output dir: %w", err)
		}
		s.events, err = telemetry.NewEmitter(filepath.Join(cfg.OutputDir, pipeline.EventsFile))
		if err != nil {
			s.close()
			return nil, err
		}
	}
	if cfg.DBPath != "" {
		s.store, err = store.Open(ctx, cfg.DBPath)
		if err != nil {
			s.close()
			return nil, err
		}
	}

	s.analyzer = pipeline.NewAnalyzer(opts,
		pipeline.WithLogger(s.logger),
		pipeline.WithMetrics(s.metrics),
		pipeline.WithTelemetry(s.events),
		pipeline.WithProgress(s.printer))
	return s, nil
}

// analyze runs one full batch: analysis, exports, persistence, and the
// metrics textfile.
func (s *session) analyze(ctx context.Context) (*pipeline.Result, []string, error) {
	res, err := s.analyzer.Run(ctx, s.input)
	if err != nil {
		s.writeMetrics()
		return nil, nil, err
	}
	written, err := pipeline.Export(res, pipeline.ExportOptions{
		Dir:  s.cfg.OutputDir,
		Bins: s.cfg.Bins,
		DOT:  s.cfg.DOT,
	})
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("artifacts written", zap.String("dir", s.cfg.OutputDir), zap.Int("files", len(written)))
	if s.store != nil {
		if err := pipeline.Persist(ctx, s.store, res); err != nil {
			return nil, nil, err
		}
		s.logger.Info("run stored", zap.String("db", s.cfg.DBPath), zap.String("run", res.RunID))
	}
	s.writeMetrics()
	return res, written, nil
}

// report prints the run summary, its artifacts, and the text report.
func (s *session) report(cmd *cobra.Command, res *pipeline.Result, written []string) error {
	top, _ := cmd.Flags().GetInt("top")
	s.printer.Summary(&res.Analysis, top)
	s.printer.Artifacts(s.cfg.OutputDir, written)
	strategy, err := reportStrategy(cmd)
	if err != nil {
		return err
	}
	if strategy != nil {
		fmt.Fprintln(cmd.OutOrStdout(), strategy.Render(&res.Analysis))
	}
	return nil
}

func (s *session) writeMetrics() {
	if s.cfg.MetricsFile == "" {
		return
	}
	if err := s.metrics.WriteTextfile(s.cfg.MetricsFile); err != nil {
		s.logger.Warn("metrics textfile not written", zap.String("path", s.cfg.MetricsFile), zap.Error(err))
	}
}

func (s *session) close() {
	if s.store != nil {
		if err := s.store.Close(); err != nil && s.logger != nil {
			s.logger.Warn("close run store", zap.Error(err))
		}
	}
	if err := s.events.Close(); err != nil && s.logger != nil {
		s.logger.Warn("close telemetry", zap.Error(err))
	}
	if s.logger != nil {
		_ = s.logger.Sync()
	}
}

// reportStrategy resolves the --report flag. "none" disables the text report.
func reportStrategy(cmd *cobra.Command) (report.ReportStrategy, error) {
	name, _ := cmd.Flags().GetString("report")
	top, _ := cmd.Flags().GetInt("top")
	switch name {
	case "ranking", "":
		return report.HubRankingStrategy{Limit: top}, nil
	case "distribution":
		return report.DistributionStrategy{}, nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown report %q (want ranking, distribution, or none)", name)
	}
}

// signalContext returns a context that is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			ui.New().Info("shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
