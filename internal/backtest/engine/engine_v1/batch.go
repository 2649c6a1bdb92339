package engine

import (
	"context"
	"fmt"
	"runtime"

	"github.com/rxtech-lab/argo-strategy-lab/internal/aggregator"
	"github.com/rxtech-lab/argo-strategy-lab/internal/backtest/engine"
	"github.com/rxtech-lab/argo-strategy-lab/internal/logger"
	"github.com/rxtech-lab/argo-strategy-lab/internal/strategy"
	"github.com/rxtech-lab/argo-strategy-lab/internal/telemetry"
	"github.com/rxtech-lab/argo-strategy-lab/internal/types"
	"github.com/rxtech-lab/argo-strategy-lab/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BatchRunnerV1 backtests every strategy config on its own over the same bars.
// Each run gets a fresh strategy from the registry and its own aggregator, so
// runs share nothing but the read-only bar slice.
type BatchRunnerV1 struct {
	engine   *BacktestEngineV1
	registry *strategy.Registry
	log      *logger.Logger
	metrics  *telemetry.Metrics
}

var _ engine.BatchRunner = (*BatchRunnerV1)(nil)

func NewBatchRunner(backtest *BacktestEngineV1, registry *strategy.Registry, log *logger.Logger) *BatchRunnerV1 {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &BatchRunnerV1{
		engine:   backtest,
		registry: registry,
		log:      log,
		metrics:  backtest.metrics,
	}
}

// RunBatch implements engine.BatchRunner.
func (r *BatchRunnerV1) RunBatch(ctx context.Context, bars []types.Bar, configs []strategy.StrategyConfig, callbacks engine.LifecycleCallbacks) (runs []engine.StrategyRun, err error) {
	if len(configs) == 0 {
		return nil, errors.New(errors.ErrCodeBacktestNoStrategies, "no strategies to backtest")
	}

	// invalid bars fail every run the same way, so they fail the batch
	if err := types.ValidateBars(bars); err != nil {
		return nil, err
	}

	if err := uniqueNames(configs); err != nil {
		return nil, err
	}

	defer func() {
		if callbacks.OnBatchEnd != nil {
			(*callbacks.OnBatchEnd)(err)
		}
	}()

	if callbacks.OnBatchStart != nil {
		if cbErr := (*callbacks.OnBatchStart)(len(configs), len(bars)); cbErr != nil {
			return nil, errors.Wrap(errors.ErrCodeCallbackFailed, "OnBatchStart callback failed", cbErr)
		}
	}

	runs = make([]engine.StrategyRun, len(configs))
	for i, cfg := range configs {
		runs[i] = engine.StrategyRun{Index: i, Name: cfg.Name}
	}

	// batch level callbacks stay with the batch
	runCallbacks := callbacks
	runCallbacks.OnBatchStart = nil
	runCallbacks.OnBatchEnd = nil
	runCallbacks.OnStrategyStart = nil
	runCallbacks.OnStrategyEnd = nil

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency())

	for i := range configs {
		g.Go(func() error {
			return r.runOne(gctx, bars, configs[i], &runs[i], len(configs), callbacks, runCallbacks)
		})
	}

	if err := g.Wait(); err != nil {
		return runs, err
	}

	failed := 0

	for _, run := range runs {
		if run.Failed() {
			failed++
		}
	}

	r.log.Info("Batch finished",
		zap.Int("strategies", len(configs)),
		zap.Int("failed", failed),
		zap.Int("bars", len(bars)),
	)

	return runs, nil
}

// runOne records a strategy failure on run and only returns errors that must
// stop the whole batch: cancellation and callback failures.
func (r *BatchRunnerV1) runOne(ctx context.Context, bars []types.Bar, cfg strategy.StrategyConfig, run *engine.StrategyRun,
	total int, callbacks, runCallbacks engine.LifecycleCallbacks) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestCancelled, "batch cancelled", err)
	}

	if callbacks.OnStrategyStart != nil {
		if err := (*callbacks.OnStrategyStart)(run.Index, run.Name, total); err != nil {
			return errors.Wrap(errors.ErrCodeCallbackFailed, "OnStrategyStart callback failed", err)
		}
	}

	result, err := r.backtest(ctx, bars, cfg, runCallbacks)

	if callbacks.OnStrategyEnd != nil {
		(*callbacks.OnStrategyEnd)(run.Index, run.Name, err)
	}

	if errors.HasCode(err, errors.ErrCodeBacktestCancelled) || errors.HasCode(err, errors.ErrCodeCallbackFailed) {
		return err
	}

	if err != nil {
		run.Err = err

		r.metrics.ObserveStrategyError(run.Name)
		r.log.Warn("Strategy excluded from batch",
			zap.String("strategy", run.Name),
			zap.Error(err),
		)

		return nil
	}

	run.Result = result

	return nil
}

func (r *BatchRunnerV1) backtest(ctx context.Context, bars []types.Bar, cfg strategy.StrategyConfig, callbacks engine.LifecycleCallbacks) (result types.BacktestResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.NewStrategyExecutionError(cfg.Name, fmt.Errorf("panic: %v", p))
		}
	}()

	if cfg.Disabled {
		return result, errors.Newf(errors.ErrCodeBacktestNoStrategies, "strategy %s is disabled", cfg.Name)
	}

	s, err := r.registry.Create(cfg)
	if err != nil {
		return result, err
	}

	agg, err := aggregator.New(aggregator.DefaultConfig(), []strategy.Strategy{s})
	if err != nil {
		return result, err
	}

	return r.engine.Run(ctx, bars, agg, callbacks)
}

func (r *BatchRunnerV1) concurrency() int {
	if n := r.engine.config.Concurrency; n > 0 {
		return n
	}

	return runtime.NumCPU()
}

func uniqueNames(configs []strategy.StrategyConfig) error {
	seen := make(map[string]struct{}, len(configs))

	for _, cfg := range configs {
		if _, dup := seen[cfg.Name]; dup {
			return errors.Newf(errors.ErrCodeStrategyConfigError, "duplicate strategy name %s", cfg.Name)
		}

		seen[cfg.Name] = struct{}{}
	}

	return nil
}
