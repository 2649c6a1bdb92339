package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-strategy-lab/internal/aggregator"
	"github.com/rxtech-lab/argo-strategy-lab/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-strategy-lab/internal/datasource"
	"github.com/rxtech-lab/argo-strategy-lab/internal/strategy"
	"github.com/rxtech-lab/argo-strategy-lab/internal/version"
	"github.com/rxtech-lab/argo-strategy-lab/pkg/errors"
	"github.com/stretchr/testify/suite"
)

const fullConfig = `
version: v0.4.0
symbol: AAPL
data:
  path: data/AAPL.parquet
  interval: 1h
results_folder: out
engine:
  initial_capital: 25000
  broker: interactive_broker
  start_time: 2024-01-01T00:00:00Z
  end_time: 2024-06-30T00:00:00Z
aggregator:
  policy: weighted
  threshold: 0.6
  weights:
    rsi: 3
strategies:
  - name: ma
    type: ma_crossover
    weight: 2
    params:
      short_window: 5
      long_window: 20
  - name: rsi
    type: rsi_mean_reversion
    weight: 0.5
  - name: bands
    type: bollinger_breakout
    disabled: true
selector:
  min_trades: 2
  weights:
    roi: 50
log:
  level: debug
  format: console
`

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) TestParseFull() {
	config, err := Parse([]byte(fullConfig))
	suite.Require().NoError(err)

	suite.Equal("AAPL", config.Symbol)
	suite.Equal("data/AAPL.parquet", config.Data.Path)
	suite.Equal(datasource.Interval1h, config.Data.Interval)
	suite.Equal("out", config.ResultsFolder)

	suite.Equal(25000.0, config.Engine.InitialCapital)
	suite.Equal(commission_fee.BrokerInteractiveBroker, config.Engine.Broker)
	suite.True(config.Engine.StartTime.IsSome())
	suite.Equal(time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), config.Engine.EndTime.Unwrap().UTC())
	// Keys missing from the engine section keep their defaults.
	suite.Equal(100.0, config.Engine.PositionPct)

	suite.Equal(aggregator.PolicyWeighted, config.Aggregator.Policy)
	suite.Equal(0.6, config.Aggregator.Threshold)

	suite.Len(config.Strategies, 3)
	suite.True(config.Strategies[2].Disabled)

	suite.Equal(2, config.Selector.MinTrades)
	suite.Equal(50.0, config.Selector.Weights.ROI)
	// Unset selector weights keep their defaults.
	suite.Equal(25.0, config.Selector.Weights.Sharpe)

	suite.Equal("debug", config.Log.Level)
	suite.Equal("console", config.Log.Format)
}

func (suite *ConfigTestSuite) TestParseMinimal() {
	config, err := Parse([]byte("version: main\nstrategies:\n  - name: ma\n    type: ma_crossover\n"))
	suite.Require().NoError(err)

	defaults := DefaultRunConfig()
	suite.Equal(defaults.Engine.InitialCapital, config.Engine.InitialCapital)
	suite.Equal(aggregator.PolicyOR, config.Aggregator.Policy)
	suite.Equal(defaults.Selector, config.Selector)
	suite.Equal(defaults.Data.Synthetic, config.Data.Synthetic)
	suite.Empty(config.Data.Path)
	suite.Equal("results", config.ResultsFolder)
}

func (suite *ConfigTestSuite) TestParseErrors() {
	tests := []struct {
		name string
		yaml string
		code errors.ErrorCode
	}{
		{name: "malformed", yaml: "version: [", code: errors.ErrCodeInvalidConfiguration},
		{name: "no strategies", yaml: "version: main\n", code: errors.ErrCodeInvalidConfiguration},
		{name: "missing strategy type", yaml: "version: main\nstrategies:\n  - name: ma\n", code: errors.ErrCodeInvalidConfiguration},
		{name: "bad interval", yaml: "version: main\ndata:\n  interval: 3m\nstrategies:\n  - {name: ma, type: ma_crossover}\n", code: errors.ErrCodeInvalidConfiguration},
		{name: "version mismatch", yaml: "version: 99.0.0\nstrategies:\n  - {name: ma, type: ma_crossover}\n", code: errors.ErrCodeVersionMismatch},
		{name: "invalid version", yaml: "version: banana\nstrategies:\n  - {name: ma, type: ma_crossover}\n", code: errors.ErrCodeInvalidVersion},
		{name: "negative capital", yaml: "version: main\nengine:\n  initial_capital: -1\nstrategies:\n  - {name: ma, type: ma_crossover}\n", code: errors.ErrCodeInvalidConfiguration},
		{name: "zero selector weights", yaml: "version: main\nselector:\n  weights: {roi: 0, sharpe: 0, calmar: 0, win_rate: 0, drawdown: 0}\nstrategies:\n  - {name: ma, type: ma_crossover}\n", code: errors.ErrCodeInvalidWeights},
		{name: "duplicate names", yaml: "version: main\nstrategies:\n  - {name: ma, type: ma_crossover}\n  - {name: ma, type: rsi_mean_reversion}\n", code: errors.ErrCodeStrategyConfigError},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			_, err := Parse([]byte(tc.yaml))
			suite.Require().Error(err)
			suite.Equal(tc.code, errors.GetCode(err))
		})
	}
}

func (suite *ConfigTestSuite) TestEngineWindowValidated() {
	_, err := Parse([]byte(`
version: main
engine:
  start_time: 2024-06-01T00:00:00Z
  end_time: 2024-01-01T00:00:00Z
strategies:
  - {name: ma, type: ma_crossover}
`))
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeBacktestConfigError, errors.GetCode(err))
}

func (suite *ConfigTestSuite) TestLoad() {
	path := filepath.Join(suite.T().TempDir(), "run.yaml")
	suite.Require().NoError(os.WriteFile(path, []byte(fullConfig), 0644))

	config, err := Load(path)
	suite.Require().NoError(err)
	suite.Equal("AAPL", config.Symbol)

	_, err = Load(filepath.Join(suite.T().TempDir(), "missing.yaml"))
	suite.Equal(errors.ErrCodeInvalidConfiguration, errors.GetCode(err))
}

func (suite *ConfigTestSuite) TestAggregatorConfigWeights() {
	config, err := Parse([]byte(fullConfig))
	suite.Require().NoError(err)

	weights := config.AggregatorConfig().Weights
	suite.Equal(2.0, weights["ma"])
	// Explicit aggregator weight wins.
	suite.Equal(3.0, weights["rsi"])
	suite.Equal(1.0, weights["bands"])

	// The config itself is not modified.
	suite.Len(config.Aggregator.Weights, 1)
}

func (suite *ConfigTestSuite) TestBuildAggregator() {
	config, err := Parse([]byte(fullConfig))
	suite.Require().NoError(err)

	agg, err := config.BuildAggregator(strategy.NewDefaultRegistry())
	suite.Require().NoError(err)
	suite.Len(agg.Strategies(), 3)
	suite.Equal([]string{"ma", "rsi"}, agg.EnabledNames())

	config.Strategies = append(config.Strategies, strategy.StrategyConfig{Name: "x", Type: "nope"})
	_, err = config.BuildAggregator(strategy.NewDefaultRegistry())
	suite.Equal(errors.ErrCodeUnknownStrategyType, errors.GetCode(err))
}

func (suite *ConfigTestSuite) TestQueryAndLabel() {
	config, err := Parse([]byte(fullConfig))
	suite.Require().NoError(err)

	query := config.Query()
	suite.Equal("AAPL", query.Symbol)
	suite.True(query.Start.IsSome())
	suite.True(query.End.IsSome())
	suite.Equal(datasource.Interval1h, query.Interval.Unwrap())
	suite.Equal("ma+rsi", config.Label())

	config.Data.Interval = ""
	suite.True(config.Query().Interval.IsNone())

	for i := range config.Strategies {
		config.Strategies[i].Disabled = true
	}

	suite.Equal("none", config.Label())
}

func (suite *ConfigTestSuite) TestDefaultVersionIsCompatible() {
	suite.NoError(version.CheckConfig(DefaultRunConfig().Version))
}

func (suite *ConfigTestSuite) TestGenerateSchemaJSON() {
	schemaJSON, err := GenerateSchemaJSON()
	suite.Require().NoError(err)

	var schema map[string]any
	suite.Require().NoError(json.Unmarshal([]byte(schemaJSON), &schema))
	suite.Equal("argo-lab-run-config", schema["title"])
	suite.Contains(schemaJSON, `"strategies"`)
	suite.Contains(schemaJSON, `"date-time"`)
	suite.Contains(schemaJSON, `"interactive_broker"`)
	suite.Contains(schemaJSON, `"1w"`)
}
