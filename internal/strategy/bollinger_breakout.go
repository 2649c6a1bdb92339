package strategy

import (
	"github.com/rxtech-lab/argo-strategy-lab/internal/indicator"
	"github.com/rxtech-lab/argo-strategy-lab/internal/types"
)

type BollingerParams struct {
	Window int     `yaml:"window" json:"window" validate:"gt=1"`
	K      float64 `yaml:"k" json:"k" validate:"gt=0"`
}

// BollingerBreakout buys when the close crosses above the upper band and
// sells when it crosses below the lower band.
type BollingerBreakout struct {
	name   string
	params BollingerParams
}

// NewBollingerBreakout builds a band breakout strategy. Defaults: 20, 2.0.
func NewBollingerBreakout(cfg StrategyConfig) (Strategy, error) {
	params := BollingerParams{Window: 20, K: 2}
	if err := decodeParams(cfg.Params, &params); err != nil {
		return nil, err
	}

	return &BollingerBreakout{name: cfg.Name, params: params}, nil
}

func (s *BollingerBreakout) Name() string {
	return s.name
}

func (s *BollingerBreakout) MinBars() int {
	return s.params.Window + 1
}

func (s *BollingerBreakout) Reset() {}

func (s *BollingerBreakout) GenerateSignal(bars []types.Bar) (types.Signal, error) {
	if len(bars) < s.MinBars() {
		return types.SignalHold, nil
	}

	bands := indicator.Bollinger(types.Closes(bars), s.params.Window, s.params.K)
	i := len(bars) - 1
	prevUpper, _, prevLower := bands.At(i - 1)
	upper, _, lower := bands.At(i)
	prevClose, lastClose := bars[i-1].Close, bars[i].Close

	if crossed(prevClose, lastClose, prevUpper, upper) == 1 {
		return types.SignalBuy, nil
	}

	if crossed(prevClose, lastClose, prevLower, lower) == -1 {
		return types.SignalSell, nil
	}

	return types.SignalHold, nil
}
