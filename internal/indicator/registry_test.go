package indicator

import (
	"testing"

	"github.com/rxtech-lab/argo-strategy-lab/internal/types"
	"github.com/rxtech-lab/argo-strategy-lab/pkg/errors"
	"github.com/stretchr/testify/suite"
)

// mockIndicator is a simple mock indicator for testing the registry
type mockIndicator struct {
	name types.IndicatorType
}

func newMockIndicator(name types.IndicatorType) *mockIndicator {
	return &mockIndicator{name: name}
}

func (m *mockIndicator) Name() types.IndicatorType {
	return m.name
}

func (m *mockIndicator) Lookback() int {
	return 1
}

func (m *mockIndicator) Series(bars []types.Bar) []float64 {
	return make([]float64, len(bars))
}

func (m *mockIndicator) RawValue(bars []types.Bar) (float64, error) {
	return 0, nil
}

func (m *mockIndicator) Config(params ...any) error {
	return nil
}

type RegistryTestSuite struct {
	suite.Suite
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistryTestSuite))
}

func (suite *RegistryTestSuite) TestNewIndicatorRegistry() {
	registry := NewIndicatorRegistry()
	suite.NotNil(registry)
}

func (suite *RegistryTestSuite) TestRegisterIndicator() {
	registry := NewIndicatorRegistry()

	indicator := newMockIndicator(types.IndicatorTypeRSI)
	err := registry.RegisterIndicator(indicator)
	suite.NoError(err)

	// Verify the indicator is registered
	retrieved, err := registry.GetIndicator(types.IndicatorTypeRSI)
	suite.NoError(err)
	suite.Equal(indicator, retrieved)
}

func (suite *RegistryTestSuite) TestRegisterIndicatorDuplicate() {
	registry := NewIndicatorRegistry()

	indicator1 := newMockIndicator(types.IndicatorTypeRSI)
	indicator2 := newMockIndicator(types.IndicatorTypeRSI)

	err := registry.RegisterIndicator(indicator1)
	suite.NoError(err)

	// Trying to register another indicator with the same name should fail
	err = registry.RegisterIndicator(indicator2)
	suite.Error(err)
	suite.Equal(errors.ErrCodeIndicatorAlreadyExists, errors.GetCode(err))
}

func (suite *RegistryTestSuite) TestGetIndicatorNotFound() {
	registry := NewIndicatorRegistry()

	_, err := registry.GetIndicator(types.IndicatorTypeRSI)
	suite.Error(err)
	suite.Equal(errors.ErrCodeIndicatorNotFound, errors.GetCode(err))
}

func (suite *RegistryTestSuite) TestListIndicators() {
	registry := NewIndicatorRegistry()

	// Empty registry should return empty list
	indicators := registry.ListIndicators()
	suite.Empty(indicators)

	// Register some indicators
	registry.RegisterIndicator(newMockIndicator(types.IndicatorTypeRSI))
	registry.RegisterIndicator(newMockIndicator(types.IndicatorTypeATR))
	registry.RegisterIndicator(newMockIndicator(types.IndicatorTypeEMA))

	// Should now have 3 indicators
	indicators = registry.ListIndicators()
	suite.Equal([]types.IndicatorType{types.IndicatorTypeATR, types.IndicatorTypeEMA, types.IndicatorTypeRSI}, indicators)
}

func (suite *RegistryTestSuite) TestRemoveIndicator() {
	registry := NewIndicatorRegistry()

	// Register an indicator
	indicator := newMockIndicator(types.IndicatorTypeRSI)
	err := registry.RegisterIndicator(indicator)
	suite.NoError(err)

	// Remove it
	err = registry.RemoveIndicator(types.IndicatorTypeRSI)
	suite.NoError(err)

	// Should no longer be found
	_, err = registry.GetIndicator(types.IndicatorTypeRSI)
	suite.Error(err)
}

func (suite *RegistryTestSuite) TestRemoveIndicatorNotFound() {
	registry := NewIndicatorRegistry()

	// Trying to remove a non-existent indicator should fail
	err := registry.RemoveIndicator(types.IndicatorTypeRSI)
	suite.Error(err)
	suite.Equal(errors.ErrCodeIndicatorNotFound, errors.GetCode(err))
}

func (suite *RegistryTestSuite) TestConcurrentAccess() {
	registry := NewIndicatorRegistry()

	done := make(chan bool)
	for i := range 10 {
		go func(idx int) {
			_ = registry.RegisterIndicator(newMockIndicator(types.IndicatorType(string(rune('A' + idx)))))
			_ = registry.Describe()
			done <- true
		}(i)
	}

	for range 10 {
		<-done
	}

	indicators := registry.ListIndicators()
	suite.Len(indicators, 10)
}

func (suite *RegistryTestSuite) TestDefaultRegistry() {
	registry := NewDefaultRegistry()

	indicators := registry.ListIndicators()
	suite.Len(indicators, 6)

	bb, err := registry.GetIndicator(types.IndicatorTypeBollingerBands)
	suite.NoError(err)
	suite.Equal(20, bb.Lookback())

	rsi, err := registry.GetIndicator(types.IndicatorTypeRSI)
	suite.NoError(err)
	suite.Equal(15, rsi.Lookback())
}

func (suite *RegistryTestSuite) TestDescribe() {
	registry := NewDefaultRegistry()

	descriptions := registry.Describe()
	suite.Require().Len(descriptions, 6)

	for i, d := range descriptions {
		ind, err := registry.GetIndicator(d.Name)
		suite.Require().NoError(err)
		suite.Equal(ind.Lookback(), d.Lookback)

		if i > 0 {
			suite.Less(string(descriptions[i-1].Name), string(d.Name))
		}
	}
}

func (suite *RegistryTestSuite) TestCompute() {
	registry := NewDefaultRegistry()

	bars := make([]types.Bar, 30)
	for i := range bars {
		price := float64(i + 1)
		bars[i] = types.Bar{Open: price, High: price, Low: price, Close: price, Volume: 1}
	}

	series, err := registry.Compute(types.IndicatorTypeBollingerBands, bars)
	suite.Require().NoError(err)
	suite.Len(series, len(bars))
	suite.False(Defined(series[18]))
	suite.True(Defined(series[19]))

	_, err = registry.Compute("unknown", bars)
	suite.Error(err)
	suite.Equal(errors.ErrCodeIndicatorNotFound, errors.GetCode(err))
}
