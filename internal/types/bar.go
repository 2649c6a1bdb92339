package types

import (
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-strategy-lab/pkg/errors"
)

// MinBars is the minimum number of bars a backtest accepts.
const MinBars = 2

// Bar is one OHLCV sample for a fixed interval.
type Bar struct {
	Time   time.Time `yaml:"time" json:"time" csv:"time"`
	Symbol string    `yaml:"symbol" json:"symbol" csv:"symbol"`
	Open   float64   `yaml:"open" json:"open" csv:"open" validate:"gte=0"`
	High   float64   `yaml:"high" json:"high" csv:"high" validate:"gte=0,gtefield=Low"`
	Low    float64   `yaml:"low" json:"low" csv:"low" validate:"gte=0"`
	Close  float64   `yaml:"close" json:"close" csv:"close" validate:"gte=0,gtefield=Low,ltefield=High"`
	Volume float64   `yaml:"volume" json:"volume" csv:"volume" validate:"gte=0"`
}

// Closes returns the close price of every bar.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}

	return out
}

// Volumes returns the volume of every bar.
func Volumes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Volume
	}

	return out
}

var barValidator = validator.New()

// ValidateBars rejects malformed input before a simulation starts.
// Bars must be numeric, non-negative, satisfy high >= close >= low,
// and carry non-decreasing timestamps. At least MinBars bars are required.
func ValidateBars(bars []Bar) error {
	if len(bars) < MinBars {
		return errors.NewValidationErrorf(-1, "", "at least %d bars are required, got %d", MinBars, len(bars))
	}

	for i, bar := range bars {
		if err := validateBar(i, bar); err != nil {
			return err
		}

		if i > 0 && bar.Time.Before(bars[i-1].Time) {
			return errors.NewValidationErrorf(i, "time", "timestamp %s is before previous bar %s",
				bar.Time.Format(time.RFC3339), bars[i-1].Time.Format(time.RFC3339))
		}
	}

	return nil
}

// Validate checks a single bar in isolation.
func (b Bar) Validate() error {
	return validateBar(-1, b)
}

func validateBar(index int, bar Bar) error {
	fields := map[string]float64{
		"open":   bar.Open,
		"high":   bar.High,
		"low":    bar.Low,
		"close":  bar.Close,
		"volume": bar.Volume,
	}
	for _, name := range []string{"open", "high", "low", "close", "volume"} {
		v := fields[name]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.NewValidationErrorf(index, name, "value is not a finite number")
		}
	}

	if err := barValidator.Struct(bar); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			fe := validationErrors[0]

			return errors.NewValidationErrorf(index, fe.Field(), "failed %s check (value %v)", fe.Tag(), fe.Value())
		}

		return errors.NewValidationErrorf(index, "", "%v", err)
	}

	return nil
}
