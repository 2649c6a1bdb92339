package provider

import (
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-strategy-lab/internal/datasource"
	"github.com/rxtech-lab/argo-strategy-lab/pkg/errors"
)

// binanceInterval maps an interval to a Binance kline interval.
// Ref: https://binance-docs.github.io/apidocs/spot/en/#kline-candlestick-data
func binanceInterval(interval datasource.Interval) (string, error) {
	switch interval {
	case datasource.Interval1m, datasource.Interval5m, datasource.Interval15m, datasource.Interval30m,
		datasource.Interval1h, datasource.Interval4h, datasource.Interval6h, datasource.Interval8h,
		datasource.Interval12h, datasource.Interval1d, datasource.Interval1w:
		return string(interval), nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidParameter, "unsupported interval for binance: %q", interval)
	}
}

// polygonTimespan maps an interval to a Polygon aggregate multiplier and timespan.
func polygonTimespan(interval datasource.Interval) (int, models.Timespan, error) {
	switch interval {
	case datasource.Interval1m:
		return 1, models.Minute, nil
	case datasource.Interval5m:
		return 5, models.Minute, nil
	case datasource.Interval15m:
		return 15, models.Minute, nil
	case datasource.Interval30m:
		return 30, models.Minute, nil
	case datasource.Interval1h:
		return 1, models.Hour, nil
	case datasource.Interval4h:
		return 4, models.Hour, nil
	case datasource.Interval6h:
		return 6, models.Hour, nil
	case datasource.Interval8h:
		return 8, models.Hour, nil
	case datasource.Interval12h:
		return 12, models.Hour, nil
	case datasource.Interval1d:
		return 1, models.Day, nil
	case datasource.Interval1w:
		return 1, models.Week, nil
	default:
		return 0, "", errors.Newf(errors.ErrCodeInvalidParameter, "unsupported interval for polygon: %q", interval)
	}
}
