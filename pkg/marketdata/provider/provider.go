package provider

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-strategy-lab/internal/datasource"
	"github.com/rxtech-lab/argo-strategy-lab/internal/logger"
	"github.com/rxtech-lab/argo-strategy-lab/pkg/errors"
	"github.com/rxtech-lab/argo-strategy-lab/pkg/marketdata/writer"
)

// ProviderType names a market data provider.
type ProviderType string

const (
	ProviderPolygon ProviderType = "polygon"
	ProviderBinance ProviderType = "binance"
)

// OnDownloadProgress reports how far a download has advanced. It may be nil.
type OnDownloadProgress = func(current float64, total float64, message string)

// Request selects the bars to download.
type Request struct {
	Ticker   string
	Start    time.Time
	End      time.Time
	Interval datasource.Interval
}

// Validate rejects an empty ticker, an inverted range and unknown intervals.
func (r Request) Validate() error {
	if r.Ticker == "" {
		return errors.New(errors.ErrCodeMissingParameter, "ticker is required")
	}

	if !r.End.After(r.Start) {
		return errors.Newf(errors.ErrCodeInvalidParameter, "end %s must be after start %s",
			r.End.Format(time.RFC3339), r.Start.Format(time.RFC3339))
	}

	if _, err := r.Interval.Minutes(); err != nil {
		return err
	}

	return nil
}

type Provider interface {
	// ConfigWriter sets the writer that receives downloaded bars.
	ConfigWriter(w writer.BarWriter)
	// Download fetches the requested bars, writes them and returns the finalized output path.
	// Cancelling ctx stops the download between pages.
	Download(ctx context.Context, req Request, onProgress OnDownloadProgress) (path string, err error)
}

// NewMarketDataProvider creates a provider backed by the real exchange clients.
func NewMarketDataProvider(providerType ProviderType, apiKey string, log *logger.Logger) (Provider, error) {
	switch providerType {
	case ProviderBinance:
		return NewBinanceClient(log), nil
	case ProviderPolygon:
		return NewPolygonClient(apiKey, log)
	default:
		return nil, errors.Newf(errors.ErrCodeUnsupportedProvider, "unsupported market data provider: %s", providerType)
	}
}

func report(onProgress OnDownloadProgress, current, total float64, message string) {
	if onProgress != nil {
		onProgress(current, total, message)
	}
}

func cancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeDownloadFailed, "download cancelled", err)
	}

	return nil
}
