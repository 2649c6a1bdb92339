package commission_fee

import "math"

const (
	ibPerShare    = 0.005
	ibMinimum     = 1.0
	ibMaxFraction = 0.01
)

// InteractiveBrokerCommissionFee follows the IBKR fixed schedule: a per share
// rate with a one dollar minimum, capped at one percent of the trade value.
type InteractiveBrokerCommissionFee struct {
}

func NewInteractiveBrokerCommissionFee() CommissionFee {
	return &InteractiveBrokerCommissionFee{}
}

func (c *InteractiveBrokerCommissionFee) Calculate(quantity float64, price float64) float64 {
	quantity = math.Abs(quantity)
	if quantity == 0 {
		return 0
	}

	fee := math.Max(ibPerShare*quantity, ibMinimum)

	if limit := ibMaxFraction * quantity * math.Abs(price); limit > 0 && fee > limit {
		return limit
	}

	return fee
}
