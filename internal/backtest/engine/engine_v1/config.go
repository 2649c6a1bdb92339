package engine

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-strategy-lab/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-strategy-lab/internal/performance"
	"github.com/rxtech-lab/argo-strategy-lab/pkg/errors"
)

type BacktestEngineV1Config struct {
	InitialCapital float64 `yaml:"initial_capital" json:"initial_capital" jsonschema:"title=Initial Capital,description=Starting capital for the backtest in USD,minimum=0" validate:"gt=0"`
	// TradeSize is a fixed quantity per entry. Zero sizes every entry by PositionPct of capital.
	TradeSize float64 `yaml:"trade_size" json:"trade_size" jsonschema:"title=Trade Size,description=Fixed quantity per entry. Zero sizes entries by position_pct,minimum=0" validate:"gte=0"`
	// PositionPct is the share of capital committed per entry when TradeSize is zero.
	PositionPct      float64                    `yaml:"position_pct" json:"position_pct" jsonschema:"title=Position Percent,description=Percent of capital committed per entry when trade_size is zero,minimum=0,maximum=100,default=100" validate:"gte=0,lte=100"`
	Broker           commission_fee.Broker      `yaml:"broker" json:"broker" jsonschema:"title=Broker,description=The broker to use for commission calculations" validate:"omitempty,oneof=interactive_broker zero_commission binance"`
	DecimalPrecision int                        `yaml:"decimal_precision" json:"decimal_precision" jsonschema:"title=Decimal Precision,description=Decimal places kept on computed quantities,minimum=0,maximum=8,default=0" validate:"gte=0,lte=8"`
	StartTime        optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional start time for the backtest period"`
	EndTime          optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional end time for the backtest period"`
	// Performance parameterizes the metrics computed at the end of a run.
	Performance performance.Options `yaml:"performance" json:"performance" jsonschema:"title=Performance,description=Metric parameters"`
	// Concurrency bounds parallel strategy runs in a batch. Zero uses one worker per CPU.
	Concurrency int `yaml:"concurrency" json:"concurrency" jsonschema:"title=Concurrency,description=Maximum strategies run in parallel by a batch. Zero uses one per CPU,minimum=0" validate:"gte=0"`
}

// UnmarshalYAML implements custom unmarshaling for BacktestEngineV1Config.
// Keys missing from the document keep the values of EmptyConfig.
func (c *BacktestEngineV1Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type Config struct {
		InitialCapital   float64               `yaml:"initial_capital"`
		TradeSize        float64               `yaml:"trade_size"`
		PositionPct      float64               `yaml:"position_pct"`
		Broker           commission_fee.Broker `yaml:"broker"`
		DecimalPrecision int                   `yaml:"decimal_precision"`
		StartTime        *time.Time            `yaml:"start_time"`
		EndTime          *time.Time            `yaml:"end_time"`
		Performance      performance.Options   `yaml:"performance"`
		Concurrency      int                   `yaml:"concurrency"`
	}

	defaults := EmptyConfig()
	config := Config{
		InitialCapital:   defaults.InitialCapital,
		TradeSize:        defaults.TradeSize,
		PositionPct:      defaults.PositionPct,
		Broker:           defaults.Broker,
		DecimalPrecision: defaults.DecimalPrecision,
		Performance:      defaults.Performance,
		Concurrency:      defaults.Concurrency,
	}

	if err := unmarshal(&config); err != nil {
		return err
	}

	c.InitialCapital = config.InitialCapital
	c.TradeSize = config.TradeSize
	c.PositionPct = config.PositionPct
	c.Broker = config.Broker
	c.DecimalPrecision = config.DecimalPrecision
	c.Performance = config.Performance
	c.Concurrency = config.Concurrency
	c.StartTime = optional.None[time.Time]()
	c.EndTime = optional.None[time.Time]()

	if config.StartTime != nil {
		c.StartTime = optional.Some(*config.StartTime)
	}

	if config.EndTime != nil {
		c.EndTime = optional.Some(*config.EndTime)
	}

	return nil
}

// MarshalYAML writes the same shape UnmarshalYAML reads. Unset times are omitted.
func (c BacktestEngineV1Config) MarshalYAML() (interface{}, error) {
	type Config struct {
		InitialCapital   float64               `yaml:"initial_capital"`
		TradeSize        float64               `yaml:"trade_size"`
		PositionPct      float64               `yaml:"position_pct"`
		Broker           commission_fee.Broker `yaml:"broker"`
		DecimalPrecision int                   `yaml:"decimal_precision"`
		StartTime        *time.Time            `yaml:"start_time,omitempty"`
		EndTime          *time.Time            `yaml:"end_time,omitempty"`
		Performance      performance.Options   `yaml:"performance"`
		Concurrency      int                   `yaml:"concurrency"`
	}

	config := Config{
		InitialCapital:   c.InitialCapital,
		TradeSize:        c.TradeSize,
		PositionPct:      c.PositionPct,
		Broker:           c.Broker,
		DecimalPrecision: c.DecimalPrecision,
		Performance:      c.Performance,
		Concurrency:      c.Concurrency,
	}

	if c.StartTime.IsSome() {
		start := c.StartTime.Unwrap()
		config.StartTime = &start
	}

	if c.EndTime.IsSome() {
		end := c.EndTime.Unwrap()
		config.EndTime = &end
	}

	return config, nil
}

var configValidator = validator.New()

// Validate checks field ranges and the time window.
func (c BacktestEngineV1Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "invalid backtest engine config", err)
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && c.EndTime.Unwrap().Before(c.StartTime.Unwrap()) {
		return errors.Newf(errors.ErrCodeBacktestConfigError, "end_time %s is before start_time %s",
			c.EndTime.Unwrap().Format(time.RFC3339), c.StartTime.Unwrap().Format(time.RFC3339))
	}

	return nil
}

// GenerateSchema generates a JSON schema for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper:                     SchemaMapper,
	}

	// Generate schema from BacktestEngineV1Config struct
	schema := reflector.Reflect(c)

	// Set schema metadata
	schema.Title = "backtest-engine-v1-config"
	schema.Description = "Configuration schema for BacktestEngineV1"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// SchemaMapper renders optional times as date-time strings and brokers as an enum.
func SchemaMapper(t reflect.Type) *jsonschema.Schema {
	if t.String() == "optional.Option[time.Time]" {
		return &jsonschema.Schema{
			Type:   "string",
			Format: "date-time",
		}
	}

	if strings.Contains(t.String(), "commission_fee.Broker") {
		return &jsonschema.Schema{
			Type: "string",
			Enum: commission_fee.AllBrokers,
		}
	}

	return nil
}

// GenerateSchemaJSON generates a JSON schema string for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

func TestConfig(startTime time.Time, endTime time.Time, broker commission_fee.Broker) BacktestEngineV1Config {
	config := EmptyConfig()
	config.Broker = broker
	config.StartTime = optional.Some(startTime)
	config.EndTime = optional.Some(endTime)

	return config
}

// EmptyConfig returns a BacktestEngineV1Config with default values
func EmptyConfig() BacktestEngineV1Config {
	return BacktestEngineV1Config{
		InitialCapital:   10000,
		TradeSize:        0,
		PositionPct:      100,
		Broker:           commission_fee.BrokerZero,
		DecimalPrecision: 0,
		StartTime:        optional.None[time.Time](),
		EndTime:          optional.None[time.Time](),
		Performance:      performance.DefaultOptions(),
		Concurrency:      0,
	}
}
