package strategy

import (
	"github.com/rxtech-lab/argo-strategy-lab/internal/indicator"
	"github.com/rxtech-lab/argo-strategy-lab/internal/types"
)

type VolumeBreakoutParams struct {
	Window int     `yaml:"window" json:"window" validate:"gt=1"`
	K      float64 `yaml:"k" json:"k" validate:"gt=0"`
	// MinBreakoutPct is how far beyond the band the close must be, in percent of the band.
	MinBreakoutPct   float64 `yaml:"min_breakout_pct" json:"min_breakout_pct" validate:"gte=0"`
	VolumeWindow     int     `yaml:"volume_window" json:"volume_window" validate:"gt=0"`
	VolumeMultiplier float64 `yaml:"volume_multiplier" json:"volume_multiplier" validate:"gte=0"`
	ATRWindow        int     `yaml:"atr_window" json:"atr_window" validate:"gt=0"`
	// MaxVolatilityPct caps ATR as a percentage of close.
	MaxVolatilityPct float64 `yaml:"max_volatility_pct" json:"max_volatility_pct" validate:"gt=0"`
	StopLossATR      float64 `yaml:"stop_loss_atr" json:"stop_loss_atr" validate:"gt=0"`
	TakeProfitATR    float64 `yaml:"take_profit_atr" json:"take_profit_atr" validate:"gt=0"`
}

// VolumeBreakout fires on a Bollinger breakout that clears the band by a
// minimum margin, is backed by above-average volume and happens in a market
// calm enough by ATR. It also suggests ATR multiple exits for the caller.
type VolumeBreakout struct {
	name   string
	params VolumeBreakoutParams
}

// NewVolumeBreakout builds a volume confirmed breakout strategy.
func NewVolumeBreakout(cfg StrategyConfig) (Strategy, error) {
	params := VolumeBreakoutParams{
		Window:           20,
		K:                2,
		MinBreakoutPct:   0.5,
		VolumeWindow:     20,
		VolumeMultiplier: 1.5,
		ATRWindow:        14,
		MaxVolatilityPct: 5,
		StopLossATR:      2,
		TakeProfitATR:    3,
	}
	if err := decodeParams(cfg.Params, &params); err != nil {
		return nil, err
	}

	return &VolumeBreakout{name: cfg.Name, params: params}, nil
}

func (s *VolumeBreakout) Name() string {
	return s.name
}

func (s *VolumeBreakout) MinBars() int {
	return max(s.params.Window, s.params.VolumeWindow, s.params.ATRWindow)
}

func (s *VolumeBreakout) Reset() {}

func (s *VolumeBreakout) GenerateSignal(bars []types.Bar) (types.Signal, error) {
	if len(bars) < s.MinBars() {
		return types.SignalHold, nil
	}

	last := bars[len(bars)-1]

	upper, _, lower := indicator.Bollinger(types.Closes(bars), s.params.Window, s.params.K).At(len(bars) - 1)
	avgVolume := indicator.Last(indicator.SMA(types.Volumes(bars), s.params.VolumeWindow))
	atr := indicator.Last(indicator.ATR(bars, s.params.ATRWindow))

	if !defined(upper, lower, avgVolume, atr) || last.Close == 0 {
		return types.SignalHold, nil
	}

	if last.Volume < s.params.VolumeMultiplier*avgVolume {
		return types.SignalHold, nil
	}

	if atr/last.Close*100 > s.params.MaxVolatilityPct {
		return types.SignalHold, nil
	}

	margin := s.params.MinBreakoutPct / 100
	if last.Close > upper*(1+margin) {
		return types.SignalBuy, nil
	}

	if last.Close < lower*(1-margin) {
		return types.SignalSell, nil
	}

	return types.SignalHold, nil
}

// RiskLevels places the stop and target at ATR multiples around entry.
func (s *VolumeBreakout) RiskLevels(bars []types.Bar, entry float64) (RiskLevels, bool) {
	if len(bars) < s.params.ATRWindow {
		return RiskLevels{}, false
	}

	atr := indicator.Last(indicator.ATR(bars, s.params.ATRWindow))
	if !defined(atr) {
		return RiskLevels{}, false
	}

	return RiskLevels{
		StopLoss:   entry - s.params.StopLossATR*atr,
		TakeProfit: entry + s.params.TakeProfitATR*atr,
	}, true
}
