package engine

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-strategy-lab/internal/types"
	"github.com/stretchr/testify/suite"
)

type UtilsTestSuite struct {
	suite.Suite
}

func TestUtilsSuite(t *testing.T) {
	suite.Run(t, new(UtilsTestSuite))
}

func (suite *UtilsTestSuite) TestFilterWindow() {
	bars := make([]types.Bar, 5)
	for i := range bars {
		bars[i] = types.Bar{Time: day0.AddDate(0, 0, i), Close: float64(i)}
	}

	tests := []struct {
		name   string
		start  optional.Option[time.Time]
		end    optional.Option[time.Time]
		closes []float64
	}{
		{name: "no window", start: optional.None[time.Time](), end: optional.None[time.Time](), closes: []float64{0, 1, 2, 3, 4}},
		{name: "start only", start: optional.Some(day0.AddDate(0, 0, 3)), end: optional.None[time.Time](), closes: []float64{3, 4}},
		{name: "end only", start: optional.None[time.Time](), end: optional.Some(day0.AddDate(0, 0, 1)), closes: []float64{0, 1}},
		{name: "both inclusive", start: optional.Some(day0.AddDate(0, 0, 1)), end: optional.Some(day0.AddDate(0, 0, 3)), closes: []float64{1, 2, 3}},
		{name: "empty", start: optional.Some(day0.AddDate(0, 0, 10)), end: optional.None[time.Time](), closes: []float64{}},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			got := filterWindow(bars, tc.start, tc.end)
			suite.Equal(tc.closes, types.Closes(got))
		})
	}
}

func (suite *UtilsTestSuite) TestLookbackStart() {
	tests := []struct {
		name    string
		minBars int
		n       int
		want    int
	}{
		{name: "no lookback", minBars: 0, n: 10, want: 0},
		{name: "single bar", minBars: 1, n: 10, want: 0},
		{name: "twenty bars", minBars: 20, n: 50, want: 19},
		{name: "longer than series", minBars: 20, n: 5, want: 5},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.Equal(tc.want, lookbackStart(tc.minBars, tc.n))
		})
	}
}
