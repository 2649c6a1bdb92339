package indicator

import (
	"github.com/rxtech-lab/argo-strategy-lab/internal/types"
	"github.com/rxtech-lab/argo-strategy-lab/pkg/errors"
)

// EMAIndicator represents the Exponential Moving Average indicator.
type EMAIndicator struct {
	period int
}

// NewEMA creates a new EMA indicator with default configuration.
func NewEMA() Indicator {
	return &EMAIndicator{
		period: 20,
	}
}

// Name returns the name of the indicator.
func (e *EMAIndicator) Name() types.IndicatorType {
	return types.IndicatorTypeEMA
}

// Config configures the EMA indicator. Expected parameters: period (int).
func (e *EMAIndicator) Config(params ...any) error {
	if len(params) != 1 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 1 parameter: period (int)")
	}

	period, err := intParam(params, 0, "period")
	if err != nil {
		return err
	}

	e.period = period

	return nil
}

func (e *EMAIndicator) Lookback() int {
	return e.period
}

func (e *EMAIndicator) Series(bars []types.Bar) []float64 {
	return EMA(types.Closes(bars), e.period)
}

func (e *EMAIndicator) RawValue(bars []types.Bar) (float64, error) {
	return rawValue(e, bars)
}
