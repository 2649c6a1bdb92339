package strategy

import (
	"bytes"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-strategy-lab/internal/indicator"
	"github.com/rxtech-lab/argo-strategy-lab/pkg/errors"
	"gopkg.in/yaml.v3"
)

// StrategyType names a registered strategy constructor.
type StrategyType string

const (
	StrategyTypeMACrossover       StrategyType = "ma_crossover"
	StrategyTypeRSIMeanReversion  StrategyType = "rsi_mean_reversion"
	StrategyTypeBollingerBreakout StrategyType = "bollinger_breakout"
	StrategyTypeGoldenCross       StrategyType = "golden_cross"
	StrategyTypeVolumeBreakout    StrategyType = "volume_breakout"
)

// MAType selects the moving average used by crossover strategies.
type MAType string

const (
	MATypeSMA MAType = "sma"
	MATypeEMA MAType = "ema"
)

// StrategyConfig is the named parameter set of one strategy instance.
type StrategyConfig struct {
	Name     string       `yaml:"name" json:"name" jsonschema:"title=Name,description=Unique name of the strategy instance" validate:"required"`
	Type     StrategyType `yaml:"type" json:"type" jsonschema:"title=Type,description=Registered strategy type,enum=ma_crossover,enum=rsi_mean_reversion,enum=bollinger_breakout,enum=golden_cross,enum=volume_breakout" validate:"required"`
	Disabled bool         `yaml:"disabled" json:"disabled" jsonschema:"title=Disabled,description=Disabled strategies always return HOLD"`
	// Weight is used by the weighted aggregator. Zero means 1.
	Weight float64        `yaml:"weight" json:"weight" jsonschema:"title=Weight,description=Vote weight for the weighted policy,minimum=0" validate:"gte=0"`
	Params map[string]any `yaml:"params" json:"params" jsonschema:"title=Params,description=Strategy specific parameters"`
}

// EffectiveWeight returns Weight, defaulting to 1.
func (c StrategyConfig) EffectiveWeight() float64 {
	if c.Weight == 0 {
		return 1
	}

	return c.Weight
}

var paramsValidator = validator.New()

// decodeParams overlays params on top of the defaults already held by out and validates the result.
// Unknown keys are rejected.
func decodeParams(params map[string]any, out any) error {
	if len(params) > 0 {
		raw, err := yaml.Marshal(params)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidParameter, "failed to encode strategy params", err)
		}

		decoder := yaml.NewDecoder(bytes.NewReader(raw))
		decoder.KnownFields(true)

		if err := decoder.Decode(out); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidParameter, "failed to decode strategy params", err)
		}
	}

	if err := paramsValidator.Struct(out); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid strategy params", err)
	}

	return nil
}

func movingAverage(kind MAType, values []float64, window int) []float64 {
	if kind == MATypeEMA {
		return indicator.EMA(values, window)
	}

	return indicator.SMA(values, window)
}

func defined(values ...float64) bool {
	for _, v := range values {
		if !indicator.Defined(v) {
			return false
		}
	}

	return true
}
