package config

import (
	"encoding/json"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-strategy-lab/internal/aggregator"
	engine "github.com/rxtech-lab/argo-strategy-lab/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-strategy-lab/internal/datasource"
	"github.com/rxtech-lab/argo-strategy-lab/internal/logger"
	"github.com/rxtech-lab/argo-strategy-lab/internal/selector"
	"github.com/rxtech-lab/argo-strategy-lab/internal/strategy"
	"github.com/rxtech-lab/argo-strategy-lab/internal/version"
	"github.com/rxtech-lab/argo-strategy-lab/pkg/errors"
	"gopkg.in/yaml.v3"
)

// SyntheticConfig drives the bar generator used when no data path is set.
type SyntheticConfig struct {
	Seed         int64   `yaml:"seed" json:"seed" jsonschema:"title=Seed,description=Random seed,default=42"`
	Bars         int     `yaml:"bars" json:"bars" jsonschema:"title=Bars,description=Number of bars to generate,minimum=2,default=504" validate:"gte=2"`
	InitialPrice float64 `yaml:"initial_price" json:"initial_price" jsonschema:"title=Initial Price,minimum=0,default=100" validate:"gt=0"`
	Volatility   float64 `yaml:"volatility" json:"volatility" jsonschema:"title=Volatility,description=Typical relative move per bar,minimum=0,default=0.015" validate:"gte=0"`
	Trend        float64 `yaml:"trend" json:"trend" jsonschema:"title=Trend,description=Drift per bar"`
}

// DataConfig selects where bars come from.
type DataConfig struct {
	// Path is a parquet or CSV file. Empty uses synthetic bars.
	Path      string              `yaml:"path" json:"path" jsonschema:"title=Path,description=Parquet or CSV bar file. Empty generates synthetic bars"`
	Interval  datasource.Interval `yaml:"interval" json:"interval" jsonschema:"title=Interval,description=Optional resample interval" validate:"omitempty,oneof=1m 5m 15m 30m 1h 4h 6h 8h 12h 1d 1w"`
	Synthetic SyntheticConfig     `yaml:"synthetic" json:"synthetic" jsonschema:"title=Synthetic,description=Generator settings"`
}

// RunConfig is the top level YAML document read by the CLI.
type RunConfig struct {
	Version       string                        `yaml:"version" json:"version" jsonschema:"title=Version,description=Config format version" validate:"required"`
	Symbol        string                        `yaml:"symbol" json:"symbol" jsonschema:"title=Symbol,description=Symbol to backtest. Optional when the data file holds one symbol"`
	Data          DataConfig                    `yaml:"data" json:"data" jsonschema:"title=Data"`
	ResultsFolder string                        `yaml:"results_folder" json:"results_folder" jsonschema:"title=Results Folder,default=results"`
	Engine        engine.BacktestEngineV1Config `yaml:"engine" json:"engine" jsonschema:"title=Engine"`
	Aggregator    aggregator.Config             `yaml:"aggregator" json:"aggregator" jsonschema:"title=Aggregator"`
	Strategies    []strategy.StrategyConfig     `yaml:"strategies" json:"strategies" jsonschema:"title=Strategies" validate:"required,min=1,dive"`
	Selector      selector.Config               `yaml:"selector" json:"selector" jsonschema:"title=Selector"`
	Log           logger.Config                 `yaml:"log" json:"log" jsonschema:"title=Log"`
}

// DefaultRunConfig returns defaults for every section except strategies.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Version: version.GetVersion(),
		Data: DataConfig{
			Synthetic: SyntheticConfig{
				Seed:         42,
				Bars:         504,
				InitialPrice: 100,
				Volatility:   0.015,
			},
		},
		ResultsFolder: "results",
		Engine:        engine.EmptyConfig(),
		Aggregator:    aggregator.DefaultConfig(),
		Strategies:    []strategy.StrategyConfig{},
		Selector:      selector.DefaultConfig(),
		Log:           logger.DefaultConfig(),
	}
}

// Load reads and validates a run config file.
func Load(path string) (RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RunConfig{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config %s", path)
	}

	return Parse(data)
}

// Parse decodes data on top of DefaultRunConfig and validates the result.
func Parse(data []byte) (RunConfig, error) {
	config := DefaultRunConfig()

	if err := yaml.Unmarshal(data, &config); err != nil {
		return RunConfig{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
	}

	if err := config.Validate(); err != nil {
		return RunConfig{}, err
	}

	return config, nil
}

var configValidator = validator.New()

// Validate checks tags, the config version and each section's own rules.
func (c RunConfig) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid run config", err)
	}

	if err := version.CheckConfig(c.Version); err != nil {
		return err
	}

	if err := c.Engine.Validate(); err != nil {
		return err
	}

	if err := c.Selector.Validate(); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(c.Strategies))
	for _, s := range c.Strategies {
		if _, dup := seen[s.Name]; dup {
			return errors.Newf(errors.ErrCodeStrategyConfigError, "duplicate strategy name %s", s.Name)
		}

		seen[s.Name] = struct{}{}
	}

	return nil
}

// AggregatorConfig returns the aggregator section with a weight for every
// strategy. Explicit aggregator weights win over per-strategy weights.
func (c RunConfig) AggregatorConfig() aggregator.Config {
	config := c.Aggregator
	weights := make(map[string]float64, len(c.Strategies))

	for _, s := range c.Strategies {
		weights[s.Name] = s.EffectiveWeight()
	}

	for name, weight := range c.Aggregator.Weights {
		weights[name] = weight
	}

	config.Weights = weights

	return config
}

// BuildAggregator instantiates every strategy from registry and combines them.
func (c RunConfig) BuildAggregator(registry *strategy.Registry) (*aggregator.Aggregator, error) {
	strategies, err := registry.CreateAll(c.Strategies)
	if err != nil {
		return nil, err
	}

	return aggregator.New(c.AggregatorConfig(), strategies)
}

// Query returns the datasource query for the configured symbol, window and interval.
func (c RunConfig) Query() datasource.Query {
	query := datasource.Query{
		Symbol:   c.Symbol,
		Start:    c.Engine.StartTime,
		End:      c.Engine.EndTime,
		Interval: optional.None[datasource.Interval](),
	}

	if c.Data.Interval != "" {
		query.Interval = optional.Some(c.Data.Interval)
	}

	return query
}

// Label names the result folder of a run: the strategy names joined by "+".
func (c RunConfig) Label() string {
	names := make([]string, 0, len(c.Strategies))
	for _, s := range c.Strategies {
		if !s.Disabled {
			names = append(names, s.Name)
		}
	}

	if len(names) == 0 {
		return "none"
	}

	return strings.Join(names, "+")
}

// GenerateSchemaJSON emits the JSON schema of RunConfig.
func GenerateSchemaJSON() (string, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == reflect.TypeOf(datasource.Interval("")) {
				return &jsonschema.Schema{Type: "string", Enum: datasource.AllIntervals}
			}

			return engine.SchemaMapper(t)
		},
	}

	schema := reflector.Reflect(&RunConfig{})
	schema.Title = "argo-lab-run-config"
	schema.Description = "Configuration schema for argo-lab backtest and select runs"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(data), nil
}
