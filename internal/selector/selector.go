package selector

import (
	"context"

	"github.com/rxtech-lab/argo-strategy-lab/internal/backtest/engine"
	"github.com/rxtech-lab/argo-strategy-lab/internal/logger"
	"github.com/rxtech-lab/argo-strategy-lab/internal/strategy"
	"github.com/rxtech-lab/argo-strategy-lab/internal/telemetry"
	"github.com/rxtech-lab/argo-strategy-lab/internal/types"
	"go.uber.org/zap"
)

// Selector runs a strategy universe through a batch and picks the best one.
type Selector struct {
	runner  engine.BatchRunner
	config  Config
	log     *logger.Logger
	metrics *telemetry.Metrics
}

// NewSelector validates config and binds it to runner.
func NewSelector(runner engine.BatchRunner, config Config, log *logger.Logger) (*Selector, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Selector{
		runner: runner,
		config: config,
		log:    log,
	}, nil
}

// WithMetrics records composite scores on m.
func (s *Selector) WithMetrics(m *telemetry.Metrics) *Selector {
	s.metrics = m

	return s
}

// Config returns the selector configuration.
func (s *Selector) Config() Config {
	return s.config
}

// Select backtests every config independently and ranks the outcome. The runs
// are returned alongside the selection, also when no strategy qualifies.
func (s *Selector) Select(ctx context.Context, bars []types.Bar, configs []strategy.StrategyConfig, callbacks engine.LifecycleCallbacks) (Selection, []engine.StrategyRun, error) {
	runs, err := s.runner.RunBatch(ctx, bars, configs, callbacks)
	if err != nil {
		return Selection{}, nil, err
	}

	selection, err := Rank(runs, s.config)

	for name, reason := range selection.Excluded {
		s.log.Info("Strategy excluded from selection",
			zap.String("strategy", name),
			zap.String("reason", reason),
		)
	}

	for _, score := range selection.Ranking {
		s.metrics.ObserveScore(score.Name, score.Score)
	}

	if err != nil {
		s.log.Error("No strategy cleared the robustness gate",
			zap.Int("candidates", len(runs)),
			zap.Int("min_trades", s.config.MinTrades),
		)

		return selection, runs, err
	}

	s.log.Info("Strategy selected",
		zap.String("strategy", selection.Winner.Name),
		zap.Float64("score", selection.Winner.Score),
		zap.Int("ranked", len(selection.Ranking)),
	)

	return selection, runs, nil
}
