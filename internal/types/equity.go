package types

import "time"

// EquityPoint is sampled once per processed bar. Capital only moves on SELL fills;
// UnrealizedPnL carries the mark-to-market of an open position.
type EquityPoint struct {
	Time          time.Time `yaml:"time" json:"time" csv:"time"`
	Capital       float64   `yaml:"capital" json:"capital" csv:"capital"`
	PositionValue float64   `yaml:"position_value" json:"position_value" csv:"position_value"`
	UnrealizedPnL float64   `yaml:"unrealized_pnl" json:"unrealized_pnl" csv:"unrealized_pnl"`
}

// Equity is the account value at this point.
func (e EquityPoint) Equity() float64 {
	return e.Capital + e.UnrealizedPnL
}

// EquityValues flattens a curve into account values.
func EquityValues(curve []EquityPoint) []float64 {
	out := make([]float64, len(curve))
	for i, p := range curve {
		out[i] = p.Equity()
	}

	return out
}
