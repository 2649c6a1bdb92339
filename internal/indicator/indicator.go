package indicator

import (
	"github.com/rxtech-lab/argo-strategy-lab/internal/types"
	"github.com/rxtech-lab/argo-strategy-lab/pkg/errors"
)

// Indicator interface defines methods that any technical indicator must implement.
type Indicator interface {
	// Name returns the name of the indicator
	Name() types.IndicatorType
	// Lookback returns the number of bars required before the indicator is defined
	Lookback() int
	// Series returns the NaN-padded indicator series for bars
	Series(bars []types.Bar) []float64
	// RawValue returns the indicator value at the last bar
	RawValue(bars []types.Bar) (float64, error)
	Config(params ...any) error
}

// rawValue is shared by every indicator. It returns an InsufficientDataError
// when bars is shorter than the lookback or the last value is undefined.
func rawValue(ind Indicator, bars []types.Bar) (float64, error) {
	symbol := ""
	if len(bars) > 0 {
		symbol = bars[len(bars)-1].Symbol
	}

	if len(bars) < ind.Lookback() {
		return 0, errors.NewInsufficientDataErrorf(ind.Lookback(), len(bars), symbol,
			"insufficient data points for %s: required %d, got %d", ind.Name(), ind.Lookback(), len(bars))
	}

	value := Last(ind.Series(bars))
	if !Defined(value) {
		return 0, errors.NewInsufficientDataErrorf(ind.Lookback(), len(bars), symbol,
			"%s is undefined at the last bar", ind.Name())
	}

	return value, nil
}

// intParam reads an int parameter, accepting float64 values from decoded config.
func intParam(params []any, index int, name string) (int, error) {
	var value int

	switch p := params[index].(type) {
	case int:
		value = p
	case float64:
		value = int(p)
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidType, "invalid type for %s parameter, expected int or float", name)
	}

	if value <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidPeriod, "%s must be a positive integer, got %d", name, value)
	}

	return value, nil
}

func floatParam(params []any, index int, name string) (float64, error) {
	switch p := params[index].(type) {
	case float64:
		return p, nil
	case int:
		return float64(p), nil
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidType, "invalid type for %s parameter, expected float64", name)
	}
}
