package provider

import (
	"context"
	"fmt"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/rxtech-lab/argo-strategy-lab/internal/logger"
	"github.com/rxtech-lab/argo-strategy-lab/internal/types"
	"github.com/rxtech-lab/argo-strategy-lab/pkg/errors"
	"github.com/rxtech-lab/argo-strategy-lab/pkg/marketdata/writer"
	"go.uber.org/zap"
)

// binancePageSize is the kline limit requested per page. Binance caps it at 1000.
const binancePageSize = 1000

// BinanceKlinesService is the subset of the go-binance klines service used for downloads.
type BinanceKlinesService interface {
	Symbol(symbol string) BinanceKlinesService
	Interval(interval string) BinanceKlinesService
	StartTime(startTime int64) BinanceKlinesService
	EndTime(endTime int64) BinanceKlinesService
	Limit(limit int) BinanceKlinesService
	Do(ctx context.Context, opts ...binance.RequestOption) ([]*binance.Kline, error)
}

// BinanceAPIClient creates klines services.
type BinanceAPIClient interface {
	NewKlinesService() BinanceKlinesService
}

type binanceAPI struct {
	client *binance.Client
}

func (a binanceAPI) NewKlinesService() BinanceKlinesService {
	return &binanceKlines{svc: a.client.NewKlinesService()}
}

type binanceKlines struct {
	svc *binance.KlinesService
}

func (k *binanceKlines) Symbol(symbol string) BinanceKlinesService {
	k.svc = k.svc.Symbol(symbol)

	return k
}

func (k *binanceKlines) Interval(interval string) BinanceKlinesService {
	k.svc = k.svc.Interval(interval)

	return k
}

func (k *binanceKlines) StartTime(startTime int64) BinanceKlinesService {
	k.svc = k.svc.StartTime(startTime)

	return k
}

func (k *binanceKlines) EndTime(endTime int64) BinanceKlinesService {
	k.svc = k.svc.EndTime(endTime)

	return k
}

func (k *binanceKlines) Limit(limit int) BinanceKlinesService {
	k.svc = k.svc.Limit(limit)

	return k
}

func (k *binanceKlines) Do(ctx context.Context, opts ...binance.RequestOption) ([]*binance.Kline, error) {
	return k.svc.Do(ctx, opts...)
}

type BinanceClient struct {
	api    BinanceAPIClient
	writer writer.BarWriter
	logger *logger.Logger
}

// NewBinanceClient uses the public market data API, which needs no credentials.
func NewBinanceClient(log *logger.Logger) *BinanceClient {
	return NewBinanceClientWithAPI(binanceAPI{client: binance.NewClient("", "")}, log)
}

// NewBinanceClientWithAPI creates a client over api.
func NewBinanceClientWithAPI(api BinanceAPIClient, log *logger.Logger) *BinanceClient {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &BinanceClient{api: api, logger: log}
}

func (c *BinanceClient) ConfigWriter(w writer.BarWriter) {
	c.writer = w
}

// Download pages through klines from req.Start to req.End. Each page starts one
// millisecond after the close time of the previous page's last kline.
func (c *BinanceClient) Download(ctx context.Context, req Request, onProgress OnDownloadProgress) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	interval, err := binanceInterval(req.Interval)
	if err != nil {
		return "", err
	}

	if c.writer == nil {
		return "", errors.New(errors.ErrCodeWriteFailed, "writer is not configured")
	}

	if err := c.writer.Initialize(); err != nil {
		return "", err
	}

	startMillis := req.Start.UnixMilli()
	endMillis := req.End.UnixMilli()
	current := startMillis
	message := fmt.Sprintf("Downloading %s klines from Binance", req.Ticker)

	for {
		if err := cancelled(ctx); err != nil {
			return "", err
		}

		klines, err := c.api.NewKlinesService().
			Symbol(req.Ticker).
			Interval(interval).
			StartTime(current).
			EndTime(endMillis).
			Limit(binancePageSize).
			Do(ctx)
		if err != nil {
			return "", errors.Wrapf(errors.ErrCodeDownloadFailed, err, "failed to fetch %s klines from binance", req.Ticker)
		}

		if err := writeKlines(c.writer, req.Ticker, klines); err != nil {
			return "", err
		}

		report(onProgress, float64(current-startMillis), float64(endMillis-startMillis), message)

		if len(klines) < binancePageSize {
			break
		}

		current = klines[len(klines)-1].CloseTime + 1
		if current >= endMillis {
			break
		}
	}

	report(onProgress, float64(endMillis-startMillis), float64(endMillis-startMillis), message)

	path, err := c.writer.Finalize()
	if err != nil {
		return "", err
	}

	c.logger.Info("Downloaded klines from binance",
		zap.String("ticker", req.Ticker),
		zap.String("interval", interval),
		zap.Int("bars", c.writer.Count()))

	return path, nil
}

// writeKlines converts klines into bars stamped with their open time.
func writeKlines(w writer.BarWriter, ticker string, klines []*binance.Kline) error {
	for _, k := range klines {
		values := make([]float64, 5)
		for i, raw := range []string{k.Open, k.High, k.Low, k.Close, k.Volume} {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return errors.Wrapf(errors.ErrCodeDownloadFailed, err, "invalid kline value %q at %d", raw, k.OpenTime)
			}

			values[i] = v
		}

		bar := types.Bar{
			Time:   time.UnixMilli(k.OpenTime).UTC(),
			Symbol: ticker,
			Open:   values[0],
			High:   values[1],
			Low:    values[2],
			Close:  values[3],
			Volume: values[4],
		}
		if err := w.Write(bar); err != nil {
			return err
		}
	}

	return nil
}
