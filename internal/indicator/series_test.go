package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-strategy-lab/internal/types"
	"github.com/stretchr/testify/suite"
)

type SeriesTestSuite struct {
	suite.Suite
}

func TestSeriesSuite(t *testing.T) {
	suite.Run(t, new(SeriesTestSuite))
}

func barsFromHLC(hlc [][3]float64) []types.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]types.Bar, len(hlc))
	for i, v := range hlc {
		bars[i] = types.Bar{
			Time:   start.AddDate(0, 0, i),
			Symbol: "TEST",
			Open:   v[2],
			High:   v[0],
			Low:    v[1],
			Close:  v[2],
			Volume: 1000,
		}
	}

	return bars
}

func (suite *SeriesTestSuite) assertSeries(expected, actual []float64) {
	suite.Require().Len(actual, len(expected))
	for i := range expected {
		if math.IsNaN(expected[i]) {
			suite.True(math.IsNaN(actual[i]), "index %d should be NaN, got %f", i, actual[i])
			continue
		}

		suite.InDelta(expected[i], actual[i], 1e-9, "index %d", i)
	}
}

func (suite *SeriesTestSuite) TestSMA() {
	nan := math.NaN()

	tests := []struct {
		name     string
		values   []float64
		window   int
		expected []float64
	}{
		{name: "basic window", values: []float64{1, 2, 3, 4, 5}, window: 3, expected: []float64{nan, nan, 2, 3, 4}},
		{name: "window equals length", values: []float64{2, 4}, window: 2, expected: []float64{nan, 3}},
		{name: "window longer than input", values: []float64{1, 2}, window: 3, expected: []float64{nan, nan}},
		{name: "zero window", values: []float64{1, 2}, window: 0, expected: []float64{nan, nan}},
		{name: "empty input", values: []float64{}, window: 3, expected: []float64{}},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.assertSeries(tc.expected, SMA(tc.values, tc.window))
		})
	}
}

func (suite *SeriesTestSuite) TestEMA() {
	nan := math.NaN()
	suite.assertSeries([]float64{nan, nan, 2, 3, 4}, EMA([]float64{1, 2, 3, 4, 5}, 3))

	// seed is the SMA, then alpha = 2/(w+1)
	suite.assertSeries([]float64{nan, 15, 25}, EMA([]float64{10, 20, 30}, 2))
	suite.assertSeries([]float64{nan}, EMA([]float64{1}, 2))
}

func (suite *SeriesTestSuite) TestRSI() {
	nan := math.NaN()

	suite.Run("alternating changes", func() {
		suite.assertSeries([]float64{nan, nan, 50, 75, 37.5}, RSI([]float64{1, 2, 1, 2, 1}, 2))
	})

	suite.Run("no losses gives 100", func() {
		rsi := RSI([]float64{1, 2, 3, 4, 5}, 3)
		suite.Equal(100.0, Last(rsi))
	})

	suite.Run("no gains gives 0", func() {
		rsi := RSI([]float64{5, 4, 3, 2, 1}, 3)
		suite.Equal(0.0, Last(rsi))
	})

	suite.Run("insufficient data", func() {
		rsi := RSI([]float64{1, 2, 3}, 3)
		for _, v := range rsi {
			suite.True(math.IsNaN(v))
		}
	})
}

func (suite *SeriesTestSuite) TestBollinger() {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	bands := Bollinger(values, 8, 2)

	upper, middle, lower := bands.At(7)
	suite.InDelta(5.0, middle, 1e-9)
	suite.InDelta(9.0, upper, 1e-9)
	suite.InDelta(1.0, lower, 1e-9)

	for i := 0; i < 7; i++ {
		suite.False(Defined(bands.Upper[i]))
		suite.False(Defined(bands.Lower[i]))
	}
}

func (suite *SeriesTestSuite) TestBollingerFlatSeries() {
	bands := Bollinger([]float64{3, 3, 3}, 3, 2)
	upper, middle, lower := bands.At(2)
	suite.Equal(3.0, upper)
	suite.Equal(3.0, middle)
	suite.Equal(3.0, lower)
}

func (suite *SeriesTestSuite) TestTrueRangeAndATR() {
	bars := barsFromHLC([][3]float64{
		{10, 8, 9},
		{12, 11, 11.5},
		{11, 9, 10},
	})

	suite.assertSeries([]float64{2, 3, 2.5}, TrueRange(bars))
	suite.assertSeries([]float64{math.NaN(), 2.5, 2.75}, ATR(bars, 2))
}

func (suite *SeriesTestSuite) TestLastHelpers() {
	suite.True(math.IsNaN(Last(nil)))
	suite.Equal(3.0, Last([]float64{1, 2, 3}))

	prev, cur := LastTwo([]float64{1, 2, 3})
	suite.Equal(2.0, prev)
	suite.Equal(3.0, cur)

	prev, cur = LastTwo([]float64{1})
	suite.True(math.IsNaN(prev))
	suite.True(math.IsNaN(cur))
}

func (suite *SeriesTestSuite) TestDefined() {
	suite.True(Defined(0))
	suite.False(Defined(math.NaN()))
	suite.False(Defined(math.Inf(1)))
}
