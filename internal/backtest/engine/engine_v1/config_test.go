package engine

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-strategy-lab/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-strategy-lab/internal/performance"
	"github.com/rxtech-lab/argo-strategy-lab/pkg/errors"
	"github.com/stretchr/testify/suite"
	yamlv2 "gopkg.in/yaml.v2"
	"gopkg.in/yaml.v3"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) TestEmptyConfig() {
	config := EmptyConfig()

	suite.Equal(10000.0, config.InitialCapital)
	suite.Equal(0.0, config.TradeSize)
	suite.Equal(100.0, config.PositionPct)
	suite.Equal(commission_fee.BrokerZero, config.Broker)
	suite.True(config.StartTime.IsNone())
	suite.True(config.EndTime.IsNone())
	suite.Equal(0, config.DecimalPrecision)
	suite.Equal(performance.DefaultOptions(), config.Performance)
	suite.NoError(config.Validate())
}

func (suite *ConfigTestSuite) TestTestConfig() {
	startTime := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	endTime := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	broker := commission_fee.BrokerInteractiveBroker

	config := TestConfig(startTime, endTime, broker)

	suite.Equal(10000.0, config.InitialCapital)
	suite.Equal(broker, config.Broker)
	suite.Equal(startTime, config.StartTime.Unwrap())
	suite.Equal(endTime, config.EndTime.Unwrap())
	suite.NoError(config.Validate())
}

func (suite *ConfigTestSuite) TestValidate() {
	tests := []struct {
		name   string
		modify func(*BacktestEngineV1Config)
	}{
		{
			name:   "zero capital",
			modify: func(c *BacktestEngineV1Config) { c.InitialCapital = 0 },
		},
		{
			name:   "negative trade size",
			modify: func(c *BacktestEngineV1Config) { c.TradeSize = -1 },
		},
		{
			name:   "position above 100 percent",
			modify: func(c *BacktestEngineV1Config) { c.PositionPct = 150 },
		},
		{
			name:   "unknown broker",
			modify: func(c *BacktestEngineV1Config) { c.Broker = "robinhood" },
		},
		{
			name:   "kelly fraction above one",
			modify: func(c *BacktestEngineV1Config) { c.Performance.KellyFraction = 2 },
		},
		{
			name: "end before start",
			modify: func(c *BacktestEngineV1Config) {
				c.StartTime = optional.Some(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
				c.EndTime = optional.Some(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
			},
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			config := EmptyConfig()
			tc.modify(&config)

			err := config.Validate()
			suite.Require().Error(err)
			suite.Equal(errors.ErrCodeBacktestConfigError, errors.GetCode(err))
		})
	}
}

func (suite *ConfigTestSuite) TestGenerateSchema() {
	config := &BacktestEngineV1Config{}
	schema, err := config.GenerateSchema()

	suite.NoError(err)
	suite.NotNil(schema)
	suite.Equal("backtest-engine-v1-config", schema.Title)
	suite.Equal("Configuration schema for BacktestEngineV1", schema.Description)
	suite.Equal("http://json-schema.org/draft-07/schema#", schema.Version)
}

func (suite *ConfigTestSuite) TestGenerateSchemaJSON() {
	config := &BacktestEngineV1Config{}
	schemaJSON, err := config.GenerateSchemaJSON()

	suite.NoError(err)
	suite.NotEmpty(schemaJSON)

	// Verify it's valid JSON
	var result map[string]interface{}
	err = json.Unmarshal([]byte(schemaJSON), &result)
	suite.NoError(err)

	suite.Equal("backtest-engine-v1-config", result["title"])

	properties, ok := result["properties"].(map[string]interface{})
	suite.Require().True(ok)
	suite.Contains(properties, "initial_capital")
	suite.Contains(properties, "broker")

	startTime, ok := properties["start_time"].(map[string]interface{})
	suite.Require().True(ok)
	suite.Equal("date-time", startTime["format"])

	broker, ok := properties["broker"].(map[string]interface{})
	suite.Require().True(ok)
	suite.ElementsMatch([]interface{}{"interactive_broker", "zero_commission", "binance"}, broker["enum"])
}

func (suite *ConfigTestSuite) TestUnmarshalYAMLComplete() {
	yamlData := `
initial_capital: 50000
trade_size: 25
broker: interactive_broker
start_time: 2023-01-01T00:00:00Z
end_time: 2023-12-31T00:00:00Z
decimal_precision: 2
concurrency: 4
performance:
  risk_free_rate: 0.02
  annualization: 365
  kelly_fraction: 0.25
  max_position_pct: 10
`

	var config BacktestEngineV1Config
	err := yaml.Unmarshal([]byte(yamlData), &config)

	suite.NoError(err)
	suite.Equal(50000.0, config.InitialCapital)
	suite.Equal(25.0, config.TradeSize)
	suite.Equal(commission_fee.BrokerInteractiveBroker, config.Broker)
	suite.Equal(2, config.DecimalPrecision)
	suite.Equal(4, config.Concurrency)
	suite.Equal(performance.Options{RiskFreeRate: 0.02, Annualization: 365, KellyFraction: 0.25, MaxPositionPct: 10}, config.Performance)

	// Check dates
	startTime := config.StartTime.Unwrap()
	suite.Equal(2023, startTime.Year())
	suite.Equal(time.January, startTime.Month())
	suite.Equal(1, startTime.Day())

	endTime := config.EndTime.Unwrap()
	suite.Equal(2023, endTime.Year())
	suite.Equal(time.December, endTime.Month())
	suite.Equal(31, endTime.Day())
}

func (suite *ConfigTestSuite) TestUnmarshalYAMLKeepsDefaults() {
	yamlData := `
initial_capital: 25000
`

	var config BacktestEngineV1Config
	err := yaml.Unmarshal([]byte(yamlData), &config)

	suite.NoError(err)
	suite.Equal(25000.0, config.InitialCapital)
	suite.Equal(100.0, config.PositionPct)
	suite.Equal(commission_fee.BrokerZero, config.Broker)
	suite.Equal(performance.DefaultOptions(), config.Performance)
	suite.True(config.StartTime.IsNone())
	suite.True(config.EndTime.IsNone())
}

func (suite *ConfigTestSuite) TestUnmarshalYAMLv2() {
	yamlData := `
initial_capital: 10000
broker: binance
start_time: 2024-06-01T00:00:00Z
`

	var config BacktestEngineV1Config
	err := yamlv2.Unmarshal([]byte(yamlData), &config)

	suite.NoError(err)
	suite.Equal(commission_fee.BrokerBinance, config.Broker)
	suite.True(config.StartTime.IsSome())
	suite.True(config.EndTime.IsNone())
}

func (suite *ConfigTestSuite) TestUnmarshalYAMLInvalid() {
	yamlData := `
initial_capital: not_a_number
`

	var config BacktestEngineV1Config
	err := yaml.Unmarshal([]byte(yamlData), &config)

	suite.Error(err)
}

func (suite *ConfigTestSuite) TestMarshalYAMLRoundTrip() {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		config BacktestEngineV1Config
	}{
		{name: "no window", config: EmptyConfig()},
		{name: "window", config: TestConfig(start, end, commission_fee.BrokerBinance)},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			data, err := yaml.Marshal(tc.config)
			suite.Require().NoError(err)

			var decoded BacktestEngineV1Config
			suite.Require().NoError(yaml.Unmarshal(data, &decoded))
			suite.Equal(tc.config.InitialCapital, decoded.InitialCapital)
			suite.Equal(tc.config.Broker, decoded.Broker)
			suite.Equal(tc.config.StartTime.IsSome(), decoded.StartTime.IsSome())

			if tc.config.EndTime.IsSome() {
				suite.True(tc.config.EndTime.Unwrap().Equal(decoded.EndTime.Unwrap()))
			} else {
				suite.NotContains(string(data), "end_time")
			}
		})
	}
}
