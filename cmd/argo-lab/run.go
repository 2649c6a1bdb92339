package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rxtech-lab/argo-strategy-lab/internal/backtest/engine"
	"github.com/rxtech-lab/argo-strategy-lab/internal/config"
	"github.com/rxtech-lab/argo-strategy-lab/internal/datasource"
	"github.com/rxtech-lab/argo-strategy-lab/internal/logger"
	"github.com/rxtech-lab/argo-strategy-lab/internal/runner"
	"github.com/rxtech-lab/argo-strategy-lab/internal/strategy"
	"github.com/rxtech-lab/argo-strategy-lab/internal/telemetry"
	"github.com/rxtech-lab/argo-strategy-lab/mocks"
	"github.com/rxtech-lab/argo-strategy-lab/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

const syntheticSymbol = "SYNTH"

func runFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "config",
			Aliases:  []string{"c"},
			Usage:    "Path to the run config `FILE`",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "data",
			Aliases: []string{"d"},
			Usage:   "Parquet or CSV bar file, overrides data.path",
		},
		&cli.StringFlag{
			Name:    "symbol",
			Aliases: []string{"s"},
			Usage:   "Symbol to backtest, overrides symbol",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Results folder, overrides results_folder",
		},
		&cli.StringFlag{
			Name:  "metrics-file",
			Usage: "Write Prometheus metrics in text format to this file when done",
		},
		&cli.BoolFlag{
			Name:  "no-progress",
			Usage: "Disable the progress bar",
		},
	}
}

// session holds everything a backtest or select command needs.
type session struct {
	config  config.RunConfig
	log     *logger.Logger
	metrics *telemetry.Metrics
	source  datasource.DataSource
	runner  *runner.Runner
}

func openSession(cmd *cli.Command) (*session, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	if path := cmd.String("data"); path != "" {
		cfg.Data.Path = path
	}

	if symbol := cmd.String("symbol"); symbol != "" {
		cfg.Symbol = symbol
	}

	if folder := cmd.String("output"); folder != "" {
		cfg.ResultsFolder = folder
	}

	log, err := logger.NewLoggerWithConfig(cfg.Log)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to create logger", err)
	}

	source, err := openSource(&cfg, log)
	if err != nil {
		return nil, err
	}

	metrics := telemetry.NewMetrics()

	return &session{
		config:  cfg,
		log:     log,
		metrics: metrics,
		source:  source,
		runner:  runner.New(cfg, source, strategy.NewDefaultRegistry(), log, metrics),
	}, nil
}

// openSource reads data.path through DuckDB or generates synthetic bars when it is empty.
func openSource(cfg *config.RunConfig, log *logger.Logger) (datasource.DataSource, error) {
	if cfg.Data.Path == "" {
		if cfg.Symbol == "" {
			cfg.Symbol = syntheticSymbol
		}

		generator := mocks.DefaultConfig()
		generator.Symbol = cfg.Symbol
		generator.Count = cfg.Data.Synthetic.Bars
		generator.InitialPrice = cfg.Data.Synthetic.InitialPrice
		generator.Volatility = cfg.Data.Synthetic.Volatility
		generator.Trend = cfg.Data.Synthetic.Trend

		bars := mocks.NewDataGenerator(cfg.Data.Synthetic.Seed).Generate(generator)

		log.Info("Generated synthetic bars",
			zap.String("symbol", cfg.Symbol),
			zap.Int("bars", len(bars)),
			zap.Int64("seed", cfg.Data.Synthetic.Seed),
		)

		return datasource.NewMemoryDataSource(bars), nil
	}

	source, err := datasource.NewDataSource(":memory:", log)
	if err != nil {
		return nil, err
	}

	if err := source.Initialize(cfg.Data.Path); err != nil {
		source.Close()

		return nil, err
	}

	return source, nil
}

func (s *session) close(cmd *cli.Command) error {
	defer s.log.Sync()

	if err := s.source.Close(); err != nil {
		s.log.Warn("Failed to close data source", zap.Error(err))
	}

	if path := cmd.String("metrics-file"); path != "" {
		if err := prometheus.WriteToTextfile(path, s.metrics.Registry); err != nil {
			return errors.Wrap(errors.ErrCodeWriteFailed, "failed to write metrics", err)
		}
	}

	return nil
}

// withSignals cancels ctx on SIGINT or SIGTERM.
func withSignals(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
}

func newProgressBar(w io.Writer, total int, description string, enabled bool) *progressbar.ProgressBar {
	if !enabled {
		w = io.Discard
	}

	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)
}

// barProgress drives a progress bar from the per bar callbacks of a single run.
func barProgress(w io.Writer, enabled bool) engine.LifecycleCallbacks {
	var bar *progressbar.ProgressBar

	onRunStart := engine.OnRunStartCallback(func(_ string, symbol string, _ []string, totalBars int) error {
		bar = newProgressBar(w, totalBars, fmt.Sprintf("Backtesting %s", symbol), enabled)

		return nil
	})
	onProcessData := engine.OnProcessDataCallback(func(current int, total int) error {
		if bar != nil {
			bar.ChangeMax(total)

			return bar.Set(current)
		}

		return nil
	})
	onRunEnd := engine.OnRunEndCallback(func(_ string, _ error) {
		if bar != nil {
			bar.Finish()
		}
	})

	return engine.LifecycleCallbacks{
		OnRunStart:    &onRunStart,
		OnProcessData: &onProcessData,
		OnRunEnd:      &onRunEnd,
	}
}

// strategyProgress counts finished strategies of a batch.
func strategyProgress(w io.Writer, log *logger.Logger, enabled bool) engine.LifecycleCallbacks {
	var bar *progressbar.ProgressBar

	onBatchStart := engine.OnBatchStartCallback(func(totalStrategies int, _ int) error {
		bar = newProgressBar(w, totalStrategies, "Running strategies", enabled)

		return nil
	})
	onStrategyEnd := engine.OnStrategyEndCallback(func(_ int, name string, err error) {
		if err != nil {
			log.Warn("Strategy failed", zap.String("strategy", name), zap.Error(err))
		}

		if bar != nil {
			bar.Add(1)
		}
	})
	onBatchEnd := engine.OnBatchEndCallback(func(_ error) {
		if bar != nil {
			bar.Finish()
		}
	})

	return engine.LifecycleCallbacks{
		OnBatchStart:  &onBatchStart,
		OnStrategyEnd: &onStrategyEnd,
		OnBatchEnd:    &onBatchEnd,
	}
}
