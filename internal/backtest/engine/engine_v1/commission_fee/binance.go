package commission_fee

import "math"

// BinanceSpotRate is the spot taker rate as a fraction of notional.
const BinanceSpotRate = 0.001

// BinanceCommissionFee charges a flat share of the traded notional.
type BinanceCommissionFee struct {
	rate float64
}

func NewBinanceCommissionFee() CommissionFee {
	return &BinanceCommissionFee{rate: BinanceSpotRate}
}

func (c *BinanceCommissionFee) Calculate(quantity float64, price float64) float64 {
	return math.Abs(quantity*price) * c.rate
}
