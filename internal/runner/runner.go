package runner

import (
	"context"

	"github.com/rxtech-lab/argo-strategy-lab/internal/backtest/engine"
	engine_v1 "github.com/rxtech-lab/argo-strategy-lab/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-strategy-lab/internal/config"
	"github.com/rxtech-lab/argo-strategy-lab/internal/datasource"
	"github.com/rxtech-lab/argo-strategy-lab/internal/logger"
	"github.com/rxtech-lab/argo-strategy-lab/internal/results"
	"github.com/rxtech-lab/argo-strategy-lab/internal/selector"
	"github.com/rxtech-lab/argo-strategy-lab/internal/strategy"
	"github.com/rxtech-lab/argo-strategy-lab/internal/telemetry"
	"github.com/rxtech-lab/argo-strategy-lab/internal/types"
	"go.uber.org/zap"
)

// SelectionLabel names the result folder of a selection.
const SelectionLabel = "selection"

// Runner loads bars from a data source, runs the configured strategies and
// persists the results.
type Runner struct {
	config   config.RunConfig
	source   datasource.DataSource
	registry *strategy.Registry
	log      *logger.Logger
	metrics  *telemetry.Metrics
}

// New binds a run config to an initialized data source.
func New(cfg config.RunConfig, source datasource.DataSource, registry *strategy.Registry, log *logger.Logger, metrics *telemetry.Metrics) *Runner {
	if log == nil {
		log = logger.NewNopLogger()
	}

	if registry == nil {
		registry = strategy.NewDefaultRegistry()
	}

	return &Runner{
		config:   cfg,
		source:   source,
		registry: registry,
		log:      log,
		metrics:  metrics,
	}
}

// Bars reads the configured symbol, window and interval from the data source.
func (r *Runner) Bars() ([]types.Bar, error) {
	bars, err := r.source.Bars(r.config.Query())
	if err != nil {
		return nil, err
	}

	r.log.Info("Loaded bars",
		zap.String("symbol", r.config.Symbol),
		zap.Int("bars", len(bars)),
	)

	return bars, nil
}

func (r *Runner) engine() (*engine_v1.BacktestEngineV1, error) {
	backtest, err := engine_v1.NewBacktestEngineV1(r.config.Engine, r.log)
	if err != nil {
		return nil, err
	}

	return backtest.WithMetrics(r.metrics), nil
}

func (r *Runner) folder(label string) string {
	return results.RunFolder(r.config.ResultsFolder, label, r.config.Data.Path, r.config.Engine.StartTime, r.config.Engine.EndTime)
}

// Backtest runs every configured strategy through one aggregator and writes
// the result. It returns the result folder.
func (r *Runner) Backtest(ctx context.Context, callbacks engine.LifecycleCallbacks) (types.BacktestResult, string, error) {
	bars, err := r.Bars()
	if err != nil {
		return types.BacktestResult{}, "", err
	}

	agg, err := r.config.BuildAggregator(r.registry)
	if err != nil {
		return types.BacktestResult{}, "", err
	}

	backtest, err := r.engine()
	if err != nil {
		return types.BacktestResult{}, "", err
	}

	result, err := backtest.Run(ctx, bars, agg, callbacks)
	if err != nil {
		return types.BacktestResult{}, "", err
	}

	folder := r.folder(r.config.Label())

	writer, err := results.NewWriter(folder, r.log)
	if err != nil {
		return result, "", err
	}
	defer writer.Close()

	if err := writer.Record(r.config.Label(), result, nil); err != nil {
		return result, "", err
	}

	if err := writer.Flush(); err != nil {
		return result, "", err
	}

	return result, folder, nil
}

// Select backtests each strategy on its own, ranks them and writes every run
// plus the ranking. Runs are written even when no strategy qualifies.
func (r *Runner) Select(ctx context.Context, callbacks engine.LifecycleCallbacks) (selector.Selection, string, error) {
	bars, err := r.Bars()
	if err != nil {
		return selector.Selection{}, "", err
	}

	backtest, err := r.engine()
	if err != nil {
		return selector.Selection{}, "", err
	}

	sel, err := selector.NewSelector(engine_v1.NewBatchRunner(backtest, r.registry, r.log), r.config.Selector, r.log)
	if err != nil {
		return selector.Selection{}, "", err
	}

	selection, runs, selectErr := sel.WithMetrics(r.metrics).Select(ctx, bars, r.config.Strategies, callbacks)
	if runs == nil {
		return selection, "", selectErr
	}

	folder := r.folder(SelectionLabel)

	writer, err := results.NewWriter(folder, r.log)
	if err != nil {
		return selection, "", err
	}
	defer writer.Close()

	if err := writer.RecordRuns(runs); err != nil {
		return selection, "", err
	}

	if selectErr == nil {
		if err := writer.WriteScores(selection.Ranking); err != nil {
			return selection, "", err
		}
	}

	if err := writer.Flush(); err != nil {
		return selection, "", err
	}

	return selection, folder, selectErr
}
