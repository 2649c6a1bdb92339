package datasource

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-strategy-lab/internal/types"
	"github.com/rxtech-lab/argo-strategy-lab/pkg/errors"
)

type Interval string

const (
	Interval1m  Interval = "1m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
	Interval1h  Interval = "1h"
	Interval4h  Interval = "4h"
	Interval6h  Interval = "6h"
	Interval8h  Interval = "8h"
	Interval12h Interval = "12h"
	Interval1d  Interval = "1d"
	Interval1w  Interval = "1w"
)

// AllIntervals lists the supported resampling intervals.
var AllIntervals = []any{
	Interval1m, Interval5m, Interval15m, Interval30m,
	Interval1h, Interval4h, Interval6h, Interval8h, Interval12h,
	Interval1d, Interval1w,
}

// Query selects bars from a data source. Zero values select everything.
type Query struct {
	// Symbol restricts the result to one symbol.
	Symbol string
	// Start and End bound bar times, both inclusive.
	Start optional.Option[time.Time]
	End   optional.Option[time.Time]
	// Interval resamples bars into buckets of this size.
	Interval optional.Option[Interval]
}

// DataSource loads bar series at the boundary of the core.
type DataSource interface {
	// Initialize points the data source at a parquet or CSV file
	Initialize(path string) error
	// ReadAll yields the selected bars ordered by time
	ReadAll(query Query) func(yield func(types.Bar, error) bool)
	// Bars collects the selected bars of a single symbol
	Bars(query Query) ([]types.Bar, error)
	// Count returns the number of selected bars before resampling
	Count(query Query) (int, error)
	// Symbols returns every symbol in the data source, sorted
	Symbols() ([]string, error)
	// Close closes the data source and releases any resources
	Close() error
}

// Minutes returns the bucket size of interval.
func (i Interval) Minutes() (int, error) {
	var intervalMinutes int

	switch i {
	case Interval1m:
		intervalMinutes = 1
	case Interval5m:
		intervalMinutes = 5
	case Interval15m:
		intervalMinutes = 15
	case Interval30m:
		intervalMinutes = 30
	case Interval1h:
		intervalMinutes = 60
	case Interval4h:
		intervalMinutes = 240
	case Interval6h:
		intervalMinutes = 360
	case Interval8h:
		intervalMinutes = 480
	case Interval12h:
		intervalMinutes = 720
	case Interval1d:
		intervalMinutes = 1440
	case Interval1w:
		intervalMinutes = 10080
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidParameter, "unsupported interval: %s", i)
	}

	return intervalMinutes, nil
}

// Duration returns the bucket size of interval.
func (i Interval) Duration() (time.Duration, error) {
	minutes, err := i.Minutes()
	if err != nil {
		return 0, err
	}

	return time.Duration(minutes) * time.Minute, nil
}

// collect drains a ReadAll iterator and checks the result holds exactly one symbol.
func collect(seq func(yield func(types.Bar, error) bool)) ([]types.Bar, error) {
	bars := make([]types.Bar, 0, 1024)
	symbols := map[string]struct{}{}

	for bar, err := range seq {
		if err != nil {
			return nil, err
		}

		symbols[bar.Symbol] = struct{}{}
		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return nil, errors.New(errors.ErrCodeNoDataFound, "no bars match the query")
	}

	if len(symbols) > 1 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter,
			"query matches %d symbols, a backtest runs on a single symbol", len(symbols))
	}

	return bars, nil
}
