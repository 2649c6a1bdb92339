package engine

import (
	"context"

	"github.com/rxtech-lab/argo-strategy-lab/internal/aggregator"
	"github.com/rxtech-lab/argo-strategy-lab/internal/strategy"
	"github.com/rxtech-lab/argo-strategy-lab/internal/types"
)

// Lifecycle callback types for backtest phases
// All callbacks with error return can abort execution if they return an error

// OnBatchStartCallback is called when a batch begins.
type OnBatchStartCallback func(totalStrategies int, totalBars int) error

// OnBatchEndCallback is called when a batch completes (always called via defer).
type OnBatchEndCallback func(err error)

// OnStrategyStartCallback is called when a strategy's run inside a batch begins.
type OnStrategyStartCallback func(strategyIndex int, strategyName string, totalStrategies int) error

// OnStrategyEndCallback is called when a strategy's run inside a batch ends.
// err is the strategy's own failure, which does not abort the batch.
type OnStrategyEndCallback func(strategyIndex int, strategyName string, err error)

// OnRunStartCallback is called when a single run begins.
// runID is a unique identifier for this run, generated before processing starts.
type OnRunStartCallback func(runID string, symbol string, strategies []string, totalBars int) error

// OnRunEndCallback is called when a single run ends (always called via defer).
type OnRunEndCallback func(runID string, err error)

// OnProcessDataCallback is called for each bar processed.
type OnProcessDataCallback func(current int, total int) error

// OnTradeCallback is called after each fill is recorded.
type OnTradeCallback func(runID string, trade types.Trade) error

// LifecycleCallbacks holds all lifecycle callback functions for the backtest engine.
// All fields are pointers - nil means no callback will be invoked.
// Batch runs with concurrency above one may invoke callbacks from several goroutines.
type LifecycleCallbacks struct {
	OnBatchStart    *OnBatchStartCallback
	OnBatchEnd      *OnBatchEndCallback
	OnStrategyStart *OnStrategyStartCallback
	OnStrategyEnd   *OnStrategyEndCallback
	OnRunStart      *OnRunStartCallback
	OnRunEnd        *OnRunEndCallback
	OnProcessData   *OnProcessDataCallback
	OnTrade         *OnTradeCallback
}

// Engine simulates a set of cooperating strategies over one bar series.
type Engine interface {
	// Run validates bars, drives the aggregator bar by bar and returns the trade log,
	// equity curve and performance metrics. A failing strategy aborts the run.
	// The context can be used to cancel the backtest operation.
	Run(ctx context.Context, bars []types.Bar, agg *aggregator.Aggregator, callbacks LifecycleCallbacks) (types.BacktestResult, error)
	// GetConfigSchema returns the schema of the engine configuration
	GetConfigSchema() (string, error)
}

// StrategyRun is the outcome of one strategy inside a batch.
type StrategyRun struct {
	Index  int
	Name   string
	Result types.BacktestResult
	// Err is set when the strategy failed. Its Result is then empty.
	Err error
}

// Failed reports whether the strategy errored.
func (r StrategyRun) Failed() bool {
	return r.Err != nil
}

// BatchRunner runs each strategy independently over the same bars.
type BatchRunner interface {
	// RunBatch returns one StrategyRun per config, in config order. Strategy
	// failures are recorded on their StrategyRun; only invalid input or
	// cancellation fail the whole batch.
	RunBatch(ctx context.Context, bars []types.Bar, configs []strategy.StrategyConfig, callbacks LifecycleCallbacks) ([]StrategyRun, error)
}
