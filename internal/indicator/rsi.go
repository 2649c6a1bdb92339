package indicator

import (
	"github.com/rxtech-lab/argo-strategy-lab/internal/types"
	"github.com/rxtech-lab/argo-strategy-lab/pkg/errors"
)

// RSIIndicator represents the Relative Strength Index indicator.
type RSIIndicator struct {
	period int
}

// NewRSI creates a new RSI indicator with default configuration.
func NewRSI() Indicator {
	return &RSIIndicator{
		period: 14, // Default period
	}
}

// Name returns the name of the indicator.
func (r *RSIIndicator) Name() types.IndicatorType {
	return types.IndicatorTypeRSI
}

// Config configures the RSI indicator. Expected parameters: period (int).
func (r *RSIIndicator) Config(params ...any) error {
	if len(params) < 1 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects at least 1 parameter: period (int)")
	}

	period, err := intParam(params, 0, "period")
	if err != nil {
		return err
	}

	r.period = period

	return nil
}

// Lookback is period+1 since RSI is computed from price changes.
func (r *RSIIndicator) Lookback() int {
	return r.period + 1
}

func (r *RSIIndicator) Series(bars []types.Bar) []float64 {
	return RSI(types.Closes(bars), r.period)
}

// RawValue implements the Indicator interface.
func (r *RSIIndicator) RawValue(bars []types.Bar) (float64, error) {
	return rawValue(r, bars)
}
