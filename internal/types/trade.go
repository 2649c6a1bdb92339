package types

import (
	"time"
)

type TradeType string

const (
	TradeTypeBuy  TradeType = "BUY"
	TradeTypeSell TradeType = "SELL"
)

// Trade is an immutable fill record. A BUY never carries pnl; a SELL carries the
// realized pnl of the round trip net of fees, so CapitalAfter = CapitalBefore + PnL.
type Trade struct {
	Time                 time.Time `yaml:"time" json:"time" csv:"time"`
	Symbol               string    `yaml:"symbol" json:"symbol" csv:"symbol"`
	Type                 TradeType `yaml:"type" json:"type" csv:"type"`
	Price                float64   `yaml:"price" json:"price" csv:"price"`
	Quantity             float64   `yaml:"quantity" json:"quantity" csv:"quantity"`
	TriggeringStrategies []string  `yaml:"triggering_strategies" json:"triggering_strategies" csv:"-"`
	CapitalBefore        float64   `yaml:"capital_before" json:"capital_before" csv:"capital_before"`
	// Fee is the commission charged for this fill
	Fee float64 `yaml:"fee" json:"fee" csv:"fee"`
	// PnL is the profit and loss for this trade.
	// For example, you buy 10 shares at $100 and sell them at $110.
	// Then the PnL of the SELL is (110-100)*10 = $100 minus the fees of both fills.
	PnL float64 `yaml:"pnl" json:"pnl" csv:"pnl"`
}

// CapitalAfter returns the capital once this trade is booked.
func (t Trade) CapitalAfter() float64 {
	return t.CapitalBefore + t.PnL
}

// IsClosed reports whether the trade closes a round trip.
func (t Trade) IsClosed() bool {
	return t.Type == TradeTypeSell
}

type PositionSide string

const (
	PositionSideFlat PositionSide = "FLAT"
	PositionSideLong PositionSide = "LONG"
)

// Position represents current holdings of one symbol. It is owned by the engine.
type Position struct {
	Symbol        string       `yaml:"symbol" json:"symbol" csv:"symbol"`
	Side          PositionSide `yaml:"side" json:"side" csv:"side"`
	EntryPrice    float64      `yaml:"entry_price" json:"entry_price" csv:"entry_price"`
	Quantity      float64      `yaml:"quantity" json:"quantity" csv:"quantity"`
	EntryFee      float64      `yaml:"entry_fee" json:"entry_fee" csv:"entry_fee"`
	OpenTimestamp time.Time    `yaml:"open_timestamp" json:"open_timestamp" csv:"open_timestamp"`
}

// FlatPosition returns an empty position for symbol.
func FlatPosition(symbol string) Position {
	return Position{Symbol: symbol, Side: PositionSideFlat}
}

// IsLong reports whether the position is open.
func (p Position) IsLong() bool {
	return p.Side == PositionSideLong
}

// MarketValue is the quantity valued at price, zero when flat.
func (p Position) MarketValue(price float64) float64 {
	if !p.IsLong() {
		return 0
	}

	return p.Quantity * price
}

// UnrealizedPnL is the open profit at price, before exit fees.
func (p Position) UnrealizedPnL(price float64) float64 {
	if !p.IsLong() {
		return 0
	}

	return (price - p.EntryPrice) * p.Quantity
}
