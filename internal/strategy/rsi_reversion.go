package strategy

import (
	"github.com/rxtech-lab/argo-strategy-lab/internal/indicator"
	"github.com/rxtech-lab/argo-strategy-lab/internal/types"
)

type RSIParams struct {
	Period     int     `yaml:"period" json:"period" validate:"gt=0"`
	Oversold   float64 `yaml:"oversold" json:"oversold" validate:"gte=0,ltfield=Overbought"`
	Overbought float64 `yaml:"overbought" json:"overbought" validate:"lte=100"`
}

// RSIMeanReversion buys when RSI crosses up through the oversold line and
// sells when it crosses down through the overbought line. Levels alone never fire.
type RSIMeanReversion struct {
	name   string
	params RSIParams
}

// NewRSIMeanReversion builds an RSI strategy. Defaults: 14, 30, 70.
func NewRSIMeanReversion(cfg StrategyConfig) (Strategy, error) {
	params := RSIParams{Period: 14, Oversold: 30, Overbought: 70}
	if err := decodeParams(cfg.Params, &params); err != nil {
		return nil, err
	}

	return &RSIMeanReversion{name: cfg.Name, params: params}, nil
}

func (s *RSIMeanReversion) Name() string {
	return s.name
}

// MinBars is period+2: RSI needs period changes and the crossing needs two values.
func (s *RSIMeanReversion) MinBars() int {
	return s.params.Period + 2
}

func (s *RSIMeanReversion) Reset() {}

func (s *RSIMeanReversion) GenerateSignal(bars []types.Bar) (types.Signal, error) {
	if len(bars) < s.MinBars() {
		return types.SignalHold, nil
	}

	prev, cur := indicator.LastTwo(indicator.RSI(types.Closes(bars), s.params.Period))
	if !defined(prev, cur) {
		return types.SignalHold, nil
	}

	if prev <= s.params.Oversold && cur > s.params.Oversold {
		return types.SignalBuy, nil
	}

	if prev >= s.params.Overbought && cur < s.params.Overbought {
		return types.SignalSell, nil
	}

	return types.SignalHold, nil
}
