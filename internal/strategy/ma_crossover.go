package strategy

import (
	"math"

	"github.com/rxtech-lab/argo-strategy-lab/internal/indicator"
	"github.com/rxtech-lab/argo-strategy-lab/internal/types"
)

// fullConfidenceSpread is the relative MA spread at which a crossover reports confidence 1.
const fullConfidenceSpread = 0.02

type MACrossoverParams struct {
	ShortWindow int    `yaml:"short_window" json:"short_window" validate:"gt=0"`
	LongWindow  int    `yaml:"long_window" json:"long_window" validate:"gtfield=ShortWindow"`
	MAType      MAType `yaml:"ma_type" json:"ma_type" validate:"oneof=sma ema"`
}

// MACrossover emits BUY when the short average crosses above the long one
// between the last two bars and SELL on the mirror crossing.
type MACrossover struct {
	name   string
	params MACrossoverParams
}

// NewMACrossover builds a crossover strategy. Defaults: 10/30 SMA.
func NewMACrossover(cfg StrategyConfig) (Strategy, error) {
	params := MACrossoverParams{ShortWindow: 10, LongWindow: 30, MAType: MATypeSMA}
	if err := decodeParams(cfg.Params, &params); err != nil {
		return nil, err
	}

	return &MACrossover{name: cfg.Name, params: params}, nil
}

func (s *MACrossover) Name() string {
	return s.name
}

// MinBars is long+1 so both the previous and current long average exist.
func (s *MACrossover) MinBars() int {
	return s.params.LongWindow + 1
}

func (s *MACrossover) Reset() {}

func (s *MACrossover) averages(bars []types.Bar) (shortPrev, shortCur, longPrev, longCur float64) {
	closes := types.Closes(bars)
	shortPrev, shortCur = indicator.LastTwo(movingAverage(s.params.MAType, closes, s.params.ShortWindow))
	longPrev, longCur = indicator.LastTwo(movingAverage(s.params.MAType, closes, s.params.LongWindow))

	return shortPrev, shortCur, longPrev, longCur
}

func (s *MACrossover) GenerateSignal(bars []types.Bar) (types.Signal, error) {
	if len(bars) < s.MinBars() {
		return types.SignalHold, nil
	}

	switch crossed(s.averages(bars)) {
	case 1:
		return types.SignalBuy, nil
	case -1:
		return types.SignalSell, nil
	default:
		return types.SignalHold, nil
	}
}

// Confidence grows with the relative spread between the averages.
func (s *MACrossover) Confidence(bars []types.Bar) float64 {
	if len(bars) < s.MinBars() {
		return 0
	}

	_, shortCur, _, longCur := s.averages(bars)
	if !defined(shortCur, longCur) || longCur == 0 {
		return 0
	}

	return math.Min(1, math.Abs(shortCur-longCur)/math.Abs(longCur)/fullConfidenceSpread)
}
