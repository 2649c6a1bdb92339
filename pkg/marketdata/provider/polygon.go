package provider

import (
	"context"
	"fmt"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-strategy-lab/internal/logger"
	"github.com/rxtech-lab/argo-strategy-lab/internal/types"
	"github.com/rxtech-lab/argo-strategy-lab/pkg/errors"
	"github.com/rxtech-lab/argo-strategy-lab/pkg/marketdata/writer"
	"go.uber.org/zap"
)

// polygonPageLimit is the aggregate page size requested from Polygon.
const polygonPageLimit = 50000

// PolygonAggsIterator walks aggregate results page by page.
type PolygonAggsIterator interface {
	Next() bool
	Item() models.Agg
	Err() error
}

// PolygonAPIClient is the subset of the Polygon REST client used for downloads.
type PolygonAPIClient interface {
	ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator
}

type polygonAPI struct {
	client *polygon.Client
}

func (a polygonAPI) ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator {
	return a.client.ListAggs(ctx, params, options...)
}

type PolygonClient struct {
	api    PolygonAPIClient
	writer writer.BarWriter
	logger *logger.Logger
}

func NewPolygonClient(apiKey string, log *logger.Logger) (*PolygonClient, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "polygon api key is required")
	}

	return NewPolygonClientWithAPI(polygonAPI{client: polygon.New(apiKey)}, log), nil
}

// NewPolygonClientWithAPI creates a client over api.
func NewPolygonClientWithAPI(api PolygonAPIClient, log *logger.Logger) *PolygonClient {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &PolygonClient{api: api, logger: log}
}

func (c *PolygonClient) ConfigWriter(w writer.BarWriter) {
	c.writer = w
}

// Download lists aggregates, which Polygon returns adjusted and ascending, and writes them as bars.
// Progress is reported in elapsed days of the requested range.
func (c *PolygonClient) Download(ctx context.Context, req Request, onProgress OnDownloadProgress) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	multiplier, timespan, err := polygonTimespan(req.Interval)
	if err != nil {
		return "", err
	}

	if c.writer == nil {
		return "", errors.New(errors.ErrCodeWriteFailed, "writer is not configured")
	}

	if err := c.writer.Initialize(); err != nil {
		return "", err
	}

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     req.Ticker,
		Multiplier: multiplier,
		Timespan:   timespan,
		From:       models.Millis(req.Start),
		To:         models.Millis(req.End),
	}.WithLimit(polygonPageLimit)

	totalDays := req.End.Sub(req.Start).Hours()/24 + 1
	message := fmt.Sprintf("Downloading %s from Polygon", req.Ticker)

	iter := c.api.ListAggs(ctx, params)
	for iter.Next() {
		agg := iter.Item()
		bar := types.Bar{
			Time:   time.Time(agg.Timestamp).UTC(),
			Symbol: req.Ticker,
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
			Volume: agg.Volume,
		}
		if err := c.writer.Write(bar); err != nil {
			return "", err
		}

		if c.writer.Count()%1000 == 0 {
			if err := cancelled(ctx); err != nil {
				return "", err
			}

			report(onProgress, bar.Time.Sub(req.Start).Hours()/24, totalDays, message)
		}
	}

	if err := iter.Err(); err != nil {
		return "", errors.Wrapf(errors.ErrCodeDownloadFailed, err, "failed to list %s aggregates from polygon", req.Ticker)
	}

	report(onProgress, totalDays, totalDays, message)

	path, err := c.writer.Finalize()
	if err != nil {
		return "", err
	}

	c.logger.Info("Downloaded aggregates from polygon",
		zap.String("ticker", req.Ticker),
		zap.Int("multiplier", multiplier),
		zap.String("timespan", string(timespan)),
		zap.Int("bars", c.writer.Count()))

	return path, nil
}
