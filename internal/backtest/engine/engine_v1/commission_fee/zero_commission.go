package commission_fee

// ZeroCommissionFee charges nothing on either leg of a round trip. It is the
// engine default when no broker is configured.
type ZeroCommissionFee struct{}

func NewZeroCommissionFee() CommissionFee {
	return &ZeroCommissionFee{}
}

// Calculate ignores quantity and price, so PnL equals the raw price move.
func (c *ZeroCommissionFee) Calculate(_ float64, _ float64) float64 {
	return 0.0
}
