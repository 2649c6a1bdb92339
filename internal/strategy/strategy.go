package strategy

import (
	"github.com/rxtech-lab/argo-strategy-lab/internal/types"
)

// Strategy turns a bar prefix into a signal for its last bar.
// GenerateSignal is called once per bar with the full history so far and
// never sees future bars. Strategies abstain with HOLD when the prefix is too short.
type Strategy interface {
	// Name returns the unique name of the strategy instance
	Name() string
	// GenerateSignal returns the signal for the last bar of bars
	GenerateSignal(bars []types.Bar) (types.Signal, error)
	// Reset clears any state carried across calls
	Reset()
}

// Lookback is implemented by strategies that need a minimum prefix length.
type Lookback interface {
	MinBars() int
}

// ConfidenceProvider is implemented by strategies that can grade their own signal.
type ConfidenceProvider interface {
	// Confidence returns a value in [0, 1] for the signal at the last bar.
	Confidence(bars []types.Bar) float64
}

// RiskLevels are advisory exit prices. The engine does not enforce them.
type RiskLevels struct {
	StopLoss   float64 `yaml:"stop_loss" json:"stop_loss"`
	TakeProfit float64 `yaml:"take_profit" json:"take_profit"`
}

// RiskLevelProvider is implemented by strategies that suggest exits for an entry.
type RiskLevelProvider interface {
	// RiskLevels returns the levels for an entry at price. ok is false when
	// the prefix is too short to derive them.
	RiskLevels(bars []types.Bar, entry float64) (levels RiskLevels, ok bool)
}

// MinBars returns the lookback of s, or 1 when it declares none.
func MinBars(s Strategy) int {
	if l, ok := s.(Lookback); ok && l.MinBars() > 0 {
		return l.MinBars()
	}

	return 1
}

// Confidence returns the self-reported confidence of s, or 1 when it reports none.
func Confidence(s Strategy, bars []types.Bar) float64 {
	if c, ok := s.(ConfidenceProvider); ok {
		v := c.Confidence(bars)
		if v < 0 {
			return 0
		}

		if v > 1 {
			return 1
		}

		return v
	}

	return 1
}

// Enabled reports whether s takes part in aggregation.
func Enabled(s Strategy) bool {
	if d, ok := s.(interface{ Disabled() bool }); ok {
		return !d.Disabled()
	}

	return true
}

// disabled wraps a strategy so it always abstains.
type disabled struct {
	Strategy
}

func (d disabled) GenerateSignal(_ []types.Bar) (types.Signal, error) {
	return types.SignalHold, nil
}

func (d disabled) Disabled() bool {
	return true
}

// Disable returns a strategy that keeps the name of s and always returns HOLD.
func Disable(s Strategy) Strategy {
	return disabled{Strategy: s}
}

// crossed reports an upward (+1) or downward (-1) crossing of a over b between
// the previous and current samples. Undefined samples never cross.
func crossed(aPrev, aCur, bPrev, bCur float64) int {
	if !defined(aPrev, aCur, bPrev, bCur) {
		return 0
	}

	if aPrev <= bPrev && aCur > bCur {
		return 1
	}

	if aPrev >= bPrev && aCur < bCur {
		return -1
	}

	return 0
}
