package selector

import (
	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-strategy-lab/pkg/errors"
)

// Weights are the percentage weights of each sub-score in the composite.
// They need not sum to 100.
type Weights struct {
	ROI      float64 `yaml:"roi" json:"roi" validate:"gte=0" jsonschema:"title=ROI weight,default=30"`
	Sharpe   float64 `yaml:"sharpe" json:"sharpe" validate:"gte=0" jsonschema:"title=Sharpe weight,default=25"`
	Calmar   float64 `yaml:"calmar" json:"calmar" validate:"gte=0" jsonschema:"title=Calmar weight,default=20"`
	WinRate  float64 `yaml:"win_rate" json:"win_rate" validate:"gte=0" jsonschema:"title=Win rate weight,default=15"`
	Drawdown float64 `yaml:"drawdown" json:"drawdown" validate:"gte=0" jsonschema:"title=Drawdown weight,default=10"`
}

// Total returns the sum of all weights.
func (w Weights) Total() float64 {
	return w.ROI + w.Sharpe + w.Calmar + w.WinRate + w.Drawdown
}

// DefaultWeights returns the general-purpose weighting.
func DefaultWeights() Weights {
	return Weights{
		ROI:      30,
		Sharpe:   25,
		Calmar:   20,
		WinRate:  15,
		Drawdown: 10,
	}
}

// ConservativeWeights favours drawdown control over raw return.
func ConservativeWeights() Weights {
	return Weights{
		ROI:      15,
		Sharpe:   25,
		Calmar:   25,
		WinRate:  10,
		Drawdown: 25,
	}
}

// Config controls the robustness gate and the composite score.
type Config struct {
	// MinTrades is the number of closed trades a strategy needs to be ranked.
	MinTrades int     `yaml:"min_trades" json:"min_trades" validate:"gte=0" jsonschema:"title=Minimum closed trades,default=5"`
	Weights   Weights `yaml:"weights" json:"weights"`
}

// DefaultConfig returns a config with DefaultWeights and a five trade gate.
func DefaultConfig() Config {
	return Config{
		MinTrades: 5,
		Weights:   DefaultWeights(),
	}
}

// Validate checks the struct tags and that at least one weight is set.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidWeights, "invalid selector config", err)
	}

	if c.Weights.Total() <= 0 {
		return errors.New(errors.ErrCodeInvalidWeights, "at least one selector weight must be positive")
	}

	return nil
}
