package indicator

import (
	"github.com/rxtech-lab/argo-strategy-lab/internal/types"
	"github.com/rxtech-lab/argo-strategy-lab/pkg/errors"
)

// ATRIndicator represents the Average True Range indicator.
type ATRIndicator struct {
	period int
}

// NewATR creates a new ATR indicator with default configuration.
func NewATR() Indicator {
	return &ATRIndicator{
		period: 14, // Default period
	}
}

// Name returns the name of the indicator.
func (a *ATRIndicator) Name() types.IndicatorType {
	return types.IndicatorTypeATR
}

// Config configures the ATR indicator. Expected parameters: period (int).
func (a *ATRIndicator) Config(params ...any) error {
	if len(params) != 1 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 1 parameter: period (int)")
	}

	period, err := intParam(params, 0, "period")
	if err != nil {
		return err
	}

	a.period = period

	return nil
}

func (a *ATRIndicator) Lookback() int {
	return a.period
}

func (a *ATRIndicator) Series(bars []types.Bar) []float64 {
	return ATR(bars, a.period)
}

func (a *ATRIndicator) RawValue(bars []types.Bar) (float64, error) {
	return rawValue(a, bars)
}
