package commission_fee

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type CommissionFeeTestSuite struct {
	suite.Suite
}

func TestCommissionFeeSuite(t *testing.T) {
	suite.Run(t, new(CommissionFeeTestSuite))
}

func (suite *CommissionFeeTestSuite) TestZeroCommissionFee() {
	fee := NewZeroCommissionFee()
	suite.NotNil(fee)

	tests := []struct {
		name     string
		quantity float64
		price    float64
		expected float64
	}{
		{"zero quantity", 0, 100, 0},
		{"small quantity", 10, 100, 0},
		{"large quantity", 10000, 5, 0},
		{"negative quantity", -100, 5, 0},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			result := fee.Calculate(tc.quantity, tc.price)
			suite.Equal(tc.expected, result)
		})
	}
}

func (suite *CommissionFeeTestSuite) TestInteractiveBrokerCommissionFee() {
	fee := NewInteractiveBrokerCommissionFee()
	suite.NotNil(fee)

	tests := []struct {
		name     string
		quantity float64
		price    float64
		expected float64
	}{
		{"zero quantity", 0, 100, 0},
		{"small quantity - min fee", 10, 100, 1.0},
		{"quantity at threshold", 200, 100, 1.0},
		{"large quantity", 1000, 100, 5.0},
		{"very large quantity", 10000, 100, 50.0},
		{"capped at one percent of value", 10, 1, 0.1},
		{"per share fee above cap", 1000, 0.2, 2.0},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.InDelta(tc.expected, fee.Calculate(tc.quantity, tc.price), 1e-9)
		})
	}
}

func (suite *CommissionFeeTestSuite) TestBinanceCommissionFee() {
	fee := NewBinanceCommissionFee()

	tests := []struct {
		name     string
		quantity float64
		price    float64
		expected float64
	}{
		{"one unit", 1, 100, 0.1},
		{"fractional quantity", 0.5, 20000, 10},
		{"zero quantity", 0, 20000, 0},
		{"negative quantity uses notional magnitude", -2, 50, 0.1},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.InDelta(tc.expected, fee.Calculate(tc.quantity, tc.price), 1e-9)
		})
	}
}

func (suite *CommissionFeeTestSuite) TestGetCommissionFeeHandler() {
	tests := []struct {
		name           string
		broker         Broker
		quantity       float64
		price          float64
		expectedResult float64
	}{
		{
			name:           "interactive broker",
			broker:         BrokerInteractiveBroker,
			quantity:       1000,
			price:          10,
			expectedResult: 5.0,
		},
		{
			name:           "binance",
			broker:         BrokerBinance,
			quantity:       10,
			price:          100,
			expectedResult: 1.0,
		},
		{
			name:           "zero commission",
			broker:         BrokerZero,
			quantity:       1000,
			price:          10,
			expectedResult: 0.0,
		},
		{
			name:           "unknown broker defaults to zero",
			broker:         Broker("unknown"),
			quantity:       1000,
			price:          10,
			expectedResult: 0.0,
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			handler := GetCommissionFeeHandler(tc.broker)
			suite.NotNil(handler)
			suite.InDelta(tc.expectedResult, handler.Calculate(tc.quantity, tc.price), 1e-9)
		})
	}
}

func (suite *CommissionFeeTestSuite) TestAllBrokers() {
	suite.Len(AllBrokers, 3)
	suite.Contains(AllBrokers, BrokerInteractiveBroker)
	suite.Contains(AllBrokers, BrokerZero)
	suite.Contains(AllBrokers, BrokerBinance)
}

func (suite *CommissionFeeTestSuite) TestBrokerConstants() {
	suite.Equal(Broker("interactive_broker"), BrokerInteractiveBroker)
	suite.Equal(Broker("zero_commission"), BrokerZero)
	suite.Equal(Broker("binance"), BrokerBinance)
}
