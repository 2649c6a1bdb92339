package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-strategy-lab/internal/aggregator"
	"github.com/rxtech-lab/argo-strategy-lab/internal/backtest/engine"
	"github.com/rxtech-lab/argo-strategy-lab/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-strategy-lab/internal/logger"
	"github.com/rxtech-lab/argo-strategy-lab/internal/performance"
	"github.com/rxtech-lab/argo-strategy-lab/internal/telemetry"
	"github.com/rxtech-lab/argo-strategy-lab/internal/types"
	"github.com/rxtech-lab/argo-strategy-lab/internal/utils"
	"github.com/rxtech-lab/argo-strategy-lab/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BacktestEngineV1 replays a bar series through an aggregator and simulates a
// single long-only position. The engine holds no per-run state, so one engine
// can serve concurrent runs as long as each run gets its own aggregator.
type BacktestEngineV1 struct {
	config  BacktestEngineV1Config
	log     *logger.Logger
	fee     commission_fee.CommissionFee
	metrics *telemetry.Metrics
}

var _ engine.Engine = (*BacktestEngineV1)(nil)

func NewBacktestEngineV1(config BacktestEngineV1Config, log *logger.Logger) (*BacktestEngineV1, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	log.Debug("Backtest engine initialized",
		zap.Float64("initial_capital", config.InitialCapital),
		zap.Float64("trade_size", config.TradeSize),
		zap.String("broker", string(config.Broker)),
	)

	return &BacktestEngineV1{
		config: config,
		log:    log,
		fee:    commission_fee.GetCommissionFeeHandler(config.Broker),
	}, nil
}

// WithMetrics records every run on m.
func (b *BacktestEngineV1) WithMetrics(m *telemetry.Metrics) *BacktestEngineV1 {
	b.metrics = m

	return b
}

// Config returns the engine configuration.
func (b *BacktestEngineV1) Config() BacktestEngineV1Config {
	return b.config
}

// GetConfigSchema implements engine.Engine.
func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	return b.config.GenerateSchemaJSON()
}

// runState is owned by a single Run call.
type runState struct {
	runID    string
	capital  decimal.Decimal
	position types.Position
	trades   []types.Trade
	curve    []types.EquityPoint
	buys     int
	sells    int
	skipped  int
}

// Run implements engine.Engine.
func (b *BacktestEngineV1) Run(ctx context.Context, bars []types.Bar, agg *aggregator.Aggregator, callbacks engine.LifecycleCallbacks) (result types.BacktestResult, err error) {
	if agg == nil || len(agg.EnabledNames()) == 0 {
		return result, errors.New(errors.ErrCodeBacktestNoStrategies, "no enabled strategies to backtest")
	}

	if err := types.ValidateBars(bars); err != nil {
		return result, err
	}

	window := filterWindow(bars, b.config.StartTime, b.config.EndTime)
	if len(window) < types.MinBars {
		return result, errors.Newf(errors.ErrCodeBacktestNoData,
			"%d bars inside the backtest window, at least %d are required", len(window), types.MinBars)
	}

	started := time.Now()
	names := agg.EnabledNames()
	symbol := window[0].Symbol
	start := lookbackStart(agg.MinBars(), len(window))
	total := len(window) - start

	state := &runState{
		runID:    uuid.New().String(),
		capital:  decimal.NewFromFloat(b.config.InitialCapital),
		position: types.FlatPosition(symbol),
		trades:   []types.Trade{},
		curve:    make([]types.EquityPoint, 0, total+1),
	}
	state.curve = append(state.curve, types.EquityPoint{
		Time:    window[0].Time,
		Capital: b.config.InitialCapital,
	})

	// strategies may carry state from an earlier run
	agg.Reset()

	defer func() {
		b.observe(names, started, total, state, err)

		if callbacks.OnRunEnd != nil {
			(*callbacks.OnRunEnd)(state.runID, err)
		}
	}()

	if callbacks.OnRunStart != nil {
		if cbErr := (*callbacks.OnRunStart)(state.runID, symbol, names, total); cbErr != nil {
			return result, errors.Wrap(errors.ErrCodeCallbackFailed, "OnRunStart callback failed", cbErr)
		}
	}

	b.log.Debug("Backtest run started",
		zap.String("run_id", state.runID),
		zap.String("symbol", symbol),
		zap.Strings("strategies", names),
		zap.Int("bars", total),
	)

	for i := start; i < len(window); i++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, errors.Wrap(errors.ErrCodeBacktestCancelled, "backtest cancelled", ctxErr)
		}

		bar := window[i]

		decision, decideErr := agg.Decide(window[:i+1])
		if decideErr != nil {
			return result, decideErr
		}

		trade, filled := b.execute(state, bar, decision)
		if filled && callbacks.OnTrade != nil {
			if cbErr := (*callbacks.OnTrade)(state.runID, trade); cbErr != nil {
				return result, errors.Wrap(errors.ErrCodeCallbackFailed, "OnTrade callback failed", cbErr)
			}
		}

		state.mark(bar)

		if callbacks.OnProcessData != nil {
			if cbErr := (*callbacks.OnProcessData)(i-start+1, total); cbErr != nil {
				return result, errors.Wrap(errors.ErrCodeCallbackFailed, "OnProcessData callback failed", cbErr)
			}
		}
	}

	return b.finish(state, started, symbol, names, total), nil
}

// execute applies a decision to the position state machine:
// Flat + BUY opens a long, Long + SELL closes it, anything else is a no-op.
func (b *BacktestEngineV1) execute(state *runState, bar types.Bar, decision types.Decision) (types.Trade, bool) {
	switch {
	case decision.Signal == types.SignalBuy && !state.position.IsLong():
		return b.open(state, bar, decision.Triggering)
	case decision.Signal == types.SignalSell && state.position.IsLong():
		return b.close(state, bar, decision.Triggering), true
	default:
		return types.Trade{}, false
	}
}

func (b *BacktestEngineV1) open(state *runState, bar types.Bar, triggering []string) (types.Trade, bool) {
	price := bar.Close
	qty := b.quantity(state.capital.InexactFloat64(), price)
	fee := b.fee.Calculate(qty, price)

	cost := decimal.NewFromFloat(qty).Mul(decimal.NewFromFloat(price)).Add(decimal.NewFromFloat(fee))
	if qty <= 0 || cost.GreaterThan(state.capital) {
		state.skipped++

		b.log.Debug("Skipping entry, insufficient capital",
			zap.String("run_id", state.runID),
			zap.Time("time", bar.Time),
			zap.Float64("quantity", qty),
			zap.String("cost", cost.String()),
			zap.String("capital", state.capital.String()),
		)

		return types.Trade{}, false
	}

	state.position = types.Position{
		Symbol:        bar.Symbol,
		Side:          types.PositionSideLong,
		EntryPrice:    price,
		Quantity:      qty,
		EntryFee:      fee,
		OpenTimestamp: bar.Time,
	}

	trade := types.Trade{
		Time:                 bar.Time,
		Symbol:               bar.Symbol,
		Type:                 types.TradeTypeBuy,
		Price:                price,
		Quantity:             qty,
		TriggeringStrategies: append([]string(nil), triggering...),
		CapitalBefore:        state.capital.InexactFloat64(),
		Fee:                  fee,
		PnL:                  0,
	}

	state.trades = append(state.trades, trade)
	state.buys++

	b.log.Debug("Opened position",
		zap.String("run_id", state.runID),
		zap.Time("time", bar.Time),
		zap.Float64("price", price),
		zap.Float64("quantity", qty),
		zap.Strings("triggering", triggering),
	)

	return trade, true
}

// close books the round trip. Both legs' fees are charged here, so the BUY
// carries no pnl and capital only moves on SELL.
func (b *BacktestEngineV1) close(state *runState, bar types.Bar, triggering []string) types.Trade {
	pos := state.position
	price := bar.Close
	exitFee := b.fee.Calculate(pos.Quantity, price)

	pnl := decimal.NewFromFloat(price).Sub(decimal.NewFromFloat(pos.EntryPrice)).
		Mul(decimal.NewFromFloat(pos.Quantity)).
		Sub(decimal.NewFromFloat(pos.EntryFee)).
		Sub(decimal.NewFromFloat(exitFee))

	trade := types.Trade{
		Time:                 bar.Time,
		Symbol:               bar.Symbol,
		Type:                 types.TradeTypeSell,
		Price:                price,
		Quantity:             pos.Quantity,
		TriggeringStrategies: append([]string(nil), triggering...),
		CapitalBefore:        state.capital.InexactFloat64(),
		Fee:                  exitFee,
		PnL:                  pnl.InexactFloat64(),
	}

	state.capital = state.capital.Add(pnl)
	state.position = types.FlatPosition(pos.Symbol)
	state.trades = append(state.trades, trade)
	state.sells++

	b.log.Debug("Closed position",
		zap.String("run_id", state.runID),
		zap.Time("time", bar.Time),
		zap.Float64("price", price),
		zap.Float64("quantity", pos.Quantity),
		zap.String("pnl", pnl.String()),
	)

	return trade
}

// quantity sizes an entry: a fixed TradeSize, or PositionPct of capital net of fees.
func (b *BacktestEngineV1) quantity(capital, price float64) float64 {
	if b.config.TradeSize > 0 {
		return b.config.TradeSize
	}

	pct := b.config.PositionPct
	if pct == 0 {
		pct = 100
	}

	qty := utils.CalculateOrderQuantityByPercentage(capital, price, b.fee, pct/100)

	return utils.RoundToDecimalPrecision(qty, b.config.DecimalPrecision)
}

func (s *runState) mark(bar types.Bar) {
	s.curve = append(s.curve, types.EquityPoint{
		Time:          bar.Time,
		Capital:       s.capital.InexactFloat64(),
		PositionValue: s.position.MarketValue(bar.Close),
		UnrealizedPnL: s.position.UnrealizedPnL(bar.Close),
	})
}

func (b *BacktestEngineV1) finish(state *runState, started time.Time, symbol string, names []string, processed int) types.BacktestResult {
	metrics := performance.Calculate(state.trades, state.curve, b.config.InitialCapital, b.config.Performance)
	metrics.HasOpenPosition = state.position.IsLong()
	metrics.ProcessedBarsCount = processed

	result := types.BacktestResult{
		RunID:         state.runID,
		Timestamp:     started,
		Symbol:        symbol,
		Strategies:    names,
		Trades:        state.trades,
		EquityCurve:   state.curve,
		Metrics:       metrics,
		Warnings:      []string{},
		ProcessedBars: processed,
	}

	if processed == 0 {
		result.Warnings = append(result.Warnings, "series is shorter than the strategies' lookback, no bar was evaluated")
	}

	if state.skipped > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%d BUY signals skipped for insufficient capital", state.skipped))
	}

	if state.position.IsLong() {
		pos := state.position
		result.OpenPosition = &pos
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("position still open at end of series: %g %s @ %g since %s",
				pos.Quantity, pos.Symbol, pos.EntryPrice, pos.OpenTimestamp.Format(time.RFC3339)))

		b.log.Warn("Position open at end of series",
			zap.String("run_id", state.runID),
			zap.String("symbol", pos.Symbol),
			zap.Float64("quantity", pos.Quantity),
			zap.Float64("entry_price", pos.EntryPrice),
			zap.Float64("unrealized_pnl", metrics.UnrealizedPnL),
		)
	}

	b.log.Info("Backtest run finished",
		zap.String("run_id", state.runID),
		zap.String("symbol", symbol),
		zap.Strings("strategies", names),
		zap.Int("trades", len(state.trades)),
		zap.Float64("final_capital", metrics.FinalCapital),
		zap.Float64("roi", metrics.ROI),
	)

	return result
}

func (b *BacktestEngineV1) observe(names []string, started time.Time, processed int, state *runState, err error) {
	status := telemetry.StatusOK

	switch {
	case errors.HasCode(err, errors.ErrCodeBacktestCancelled):
		status = telemetry.StatusCancelled
	case err != nil:
		status = telemetry.StatusFailed
	}

	b.metrics.ObserveRun(strings.Join(names, "+"), status, time.Since(started).Seconds(),
		processed, state.buys, state.sells, state.capital.InexactFloat64())
}
