package strategy

import (
	"testing"

	"github.com/rxtech-lab/argo-strategy-lab/internal/types"
	"github.com/stretchr/testify/suite"
)

type VolumeBreakoutTestSuite struct {
	suite.Suite
}

func TestVolumeBreakoutSuite(t *testing.T) {
	suite.Run(t, new(VolumeBreakoutTestSuite))
}

func (suite *VolumeBreakoutTestSuite) newStrategy(params map[string]any) *VolumeBreakout {
	base := map[string]any{
		"window":             3,
		"k":                  1.0,
		"min_breakout_pct":   0,
		"volume_window":      3,
		"volume_multiplier":  1.5,
		"atr_window":         3,
		"max_volatility_pct": 50.0,
	}
	for k, v := range params {
		base[k] = v
	}

	s, err := NewVolumeBreakout(StrategyConfig{Name: "vb", Type: StrategyTypeVolumeBreakout, Params: base})
	suite.Require().NoError(err)

	return s.(*VolumeBreakout)
}

func breakoutBars(last, lastVolume float64) []types.Bar {
	bars := closesToBars([]float64{10, 10, 10, 10, last})
	bars[len(bars)-1].Volume = lastVolume

	return bars
}

func (suite *VolumeBreakoutTestSuite) TestSignals() {
	tests := []struct {
		name     string
		params   map[string]any
		last     float64
		volume   float64
		expected types.Signal
	}{
		{name: "upside breakout with volume", last: 20, volume: 3000, expected: types.SignalBuy},
		{name: "downside breakout with volume", last: 5, volume: 3000, expected: types.SignalSell},
		{name: "breakout without volume", last: 20, volume: 1000, expected: types.SignalHold},
		{name: "breakout too volatile", params: map[string]any{"max_volatility_pct": 10.0}, last: 20, volume: 3000, expected: types.SignalHold},
		{name: "breakout below minimum margin", params: map[string]any{"min_breakout_pct": 20.0}, last: 20, volume: 3000, expected: types.SignalHold},
		{name: "inside the bands", last: 10, volume: 3000, expected: types.SignalHold},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			s := suite.newStrategy(tc.params)
			sig, err := s.GenerateSignal(breakoutBars(tc.last, tc.volume))
			suite.NoError(err)
			suite.Equal(tc.expected, sig)
		})
	}
}

func (suite *VolumeBreakoutTestSuite) TestRiskLevels() {
	s := suite.newStrategy(map[string]any{"stop_loss_atr": 2.0, "take_profit_atr": 3.0})

	var provider RiskLevelProvider = s

	levels, ok := provider.RiskLevels(breakoutBars(20, 3000), 20)
	suite.True(ok)
	// ATR over the last three true ranges is (0+0+10)/3
	suite.InDelta(20-2*10.0/3, levels.StopLoss, 1e-9)
	suite.InDelta(20+3*10.0/3, levels.TakeProfit, 1e-9)

	_, ok = provider.RiskLevels(breakoutBars(20, 3000)[:2], 20)
	suite.False(ok)
}
