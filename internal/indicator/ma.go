package indicator

import (
	"github.com/rxtech-lab/argo-strategy-lab/internal/types"
	"github.com/rxtech-lab/argo-strategy-lab/pkg/errors"
)

// MA indicator implements Simple Moving Average calculation.
// With volume set it averages bar volume instead of the close.
type MA struct {
	period int
	volume bool
}

// NewMA creates a new MA indicator with default configuration.
func NewMA() Indicator {
	return &MA{
		period: 20, // Default period
	}
}

// NewVolumeMA creates a moving average of bar volume.
func NewVolumeMA() Indicator {
	return &MA{
		period: 20,
		volume: true,
	}
}

// Name returns the name of the indicator.
func (m *MA) Name() types.IndicatorType {
	if m.volume {
		return types.IndicatorTypeVolumeMA
	}

	return types.IndicatorTypeMA
}

// Expected parameters: period (int).
func (m *MA) Config(params ...any) error {
	if len(params) != 1 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 1 parameter: period (int)")
	}

	period, err := intParam(params, 0, "period")
	if err != nil {
		return err
	}

	m.period = period

	return nil
}

func (m *MA) Lookback() int {
	return m.period
}

func (m *MA) Series(bars []types.Bar) []float64 {
	if m.volume {
		return SMA(types.Volumes(bars), m.period)
	}

	return SMA(types.Closes(bars), m.period)
}

// RawValue returns the moving average at the last bar.
func (m *MA) RawValue(bars []types.Bar) (float64, error) {
	return rawValue(m, bars)
}
