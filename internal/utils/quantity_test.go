package utils

import (
	"testing"

	"github.com/rxtech-lab/argo-strategy-lab/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/stretchr/testify/suite"
)

type UtilsTestSuite struct {
	suite.Suite
}

func TestUtilsTestSuite(t *testing.T) {
	suite.Run(t, new(UtilsTestSuite))
}

func (suite *UtilsTestSuite) TestCalculateMaxQuantity() {
	tests := []struct {
		name          string
		balance       float64
		price         float64
		commissionFee commission_fee.CommissionFee
		expectedQty   float64
	}{
		{
			name:          "Simple case with no commission",
			balance:       1000.0,
			price:         100.0,
			commissionFee: commission_fee.NewZeroCommissionFee(),
			expectedQty:   10,
		},
		{
			name:          "Case with commission",
			balance:       1000.0,
			price:         100.0,
			commissionFee: commission_fee.NewInteractiveBrokerCommissionFee(),
			expectedQty:   9,
		},
		{
			name:          "Case with notional commission",
			balance:       1000.0,
			price:         100.0,
			commissionFee: commission_fee.NewBinanceCommissionFee(),
			expectedQty:   9,
		},
		{
			name:          "Zero balance",
			balance:       0.0,
			price:         100.0,
			commissionFee: commission_fee.NewInteractiveBrokerCommissionFee(),
			expectedQty:   0,
		},
		{
			name:          "Zero price",
			balance:       1000.0,
			price:         0.0,
			commissionFee: commission_fee.NewInteractiveBrokerCommissionFee(),
			expectedQty:   0,
		},
		{
			name:          "Balance less than price",
			balance:       50.0,
			price:         100.0,
			commissionFee: commission_fee.NewInteractiveBrokerCommissionFee(),
			expectedQty:   0,
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			qty := RoundToDecimalPrecision(CalculateMaxQuantity(tc.balance, tc.price, tc.commissionFee), 0)
			suite.Equal(tc.expectedQty, qty, "Quantity mismatch")
		})
	}
}

func (suite *UtilsTestSuite) TestCalculateMaxQuantityCoversFees() {
	fee := commission_fee.NewBinanceCommissionFee()
	qty := CalculateMaxQuantity(1000, 100, fee)

	suite.LessOrEqual(qty*100+fee.Calculate(qty, 100), 1000.0)
	suite.Greater(qty, 9.9)
}

func (suite *UtilsTestSuite) TestRoundToDecimalPrecision() {
	tests := []struct {
		name      string
		quantity  float64
		precision int
		expected  float64
	}{
		{"whole units", 9.99, 0, 9},
		{"two decimals", 1.23456, 2, 1.23},
		{"always rounds down", 0.999, 1, 0.9},
		{"already rounded", 5, 3, 5},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.InDelta(tc.expected, RoundToDecimalPrecision(tc.quantity, tc.precision), 1e-12)
		})
	}
}

func (suite *UtilsTestSuite) TestCalculateOrderQuantityByPercentage() {
	tests := []struct {
		name          string
		balance       float64
		price         float64
		percentage    float64
		commissionFee commission_fee.CommissionFee
		expectedQty   float64
	}{
		{
			name:          "Simple case with no commission",
			balance:       1000.0,
			price:         100.0,
			percentage:    0.5,
			commissionFee: commission_fee.NewZeroCommissionFee(),
			expectedQty:   5,
		},
		{
			name:          "Full balance",
			balance:       1000.0,
			price:         100.0,
			percentage:    1,
			commissionFee: commission_fee.NewZeroCommissionFee(),
			expectedQty:   10,
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			qty := CalculateOrderQuantityByPercentage(tc.balance, tc.price, tc.commissionFee, tc.percentage)
			suite.Equal(tc.expectedQty, qty, "Quantity mismatch")
		})
	}
}
