package provider

import (
	"context"
	"errors"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-strategy-lab/internal/types"
)

// mockWriter records written bars in memory.
type mockWriter struct {
	initializeErr     error
	writeErr          error
	writeErrAfterN    int
	finalizeErr       error
	outputPath        string
	written           []types.Bar
	writeCallCount    int
	finalizeCallCount int
}

func (m *mockWriter) Initialize() error {
	return m.initializeErr
}

func (m *mockWriter) Write(bar types.Bar) error {
	m.writeCallCount++
	if m.writeErr != nil && m.writeCallCount > m.writeErrAfterN {
		return m.writeErr
	}

	m.written = append(m.written, bar)

	return nil
}

func (m *mockWriter) Finalize() (string, error) {
	m.finalizeCallCount++
	if m.finalizeErr != nil {
		return "", m.finalizeErr
	}

	return m.outputPath, nil
}

func (m *mockWriter) Close() error       { return nil }
func (m *mockWriter) OutputPath() string { return m.outputPath }
func (m *mockWriter) Count() int         { return len(m.written) }

// klinesCall captures the parameters of one klines request.
type klinesCall struct {
	symbol    string
	interval  string
	startTime int64
	endTime   int64
	limit     int
}

// mockBinanceAPIClient serves one page per request in order.
type mockBinanceAPIClient struct {
	pages [][]*binance.Kline
	errAt int
	err   error
	calls []klinesCall
}

func (m *mockBinanceAPIClient) NewKlinesService() BinanceKlinesService {
	return &mockKlinesService{client: m}
}

type mockKlinesService struct {
	client *mockBinanceAPIClient
	call   klinesCall
}

func (s *mockKlinesService) Symbol(symbol string) BinanceKlinesService {
	s.call.symbol = symbol

	return s
}

func (s *mockKlinesService) Interval(interval string) BinanceKlinesService {
	s.call.interval = interval

	return s
}

func (s *mockKlinesService) StartTime(startTime int64) BinanceKlinesService {
	s.call.startTime = startTime

	return s
}

func (s *mockKlinesService) EndTime(endTime int64) BinanceKlinesService {
	s.call.endTime = endTime

	return s
}

func (s *mockKlinesService) Limit(limit int) BinanceKlinesService {
	s.call.limit = limit

	return s
}

func (s *mockKlinesService) Do(_ context.Context, _ ...binance.RequestOption) ([]*binance.Kline, error) {
	index := len(s.client.calls)
	s.client.calls = append(s.client.calls, s.call)

	if s.client.err != nil && index == s.client.errAt {
		return nil, s.client.err
	}

	if index >= len(s.client.pages) {
		return nil, nil
	}

	return s.client.pages[index], nil
}

// klinesFrom builds n one-minute klines starting at start.
func klinesFrom(start time.Time, n int) []*binance.Kline {
	klines := make([]*binance.Kline, n)
	for i := range n {
		open := start.Add(time.Duration(i) * time.Minute)
		price := 100 + float64(i%10)
		klines[i] = &binance.Kline{
			OpenTime:  open.UnixMilli(),
			Open:      strconv.FormatFloat(price, 'f', 2, 64),
			High:      strconv.FormatFloat(price+1, 'f', 2, 64),
			Low:       strconv.FormatFloat(price-1, 'f', 2, 64),
			Close:     strconv.FormatFloat(price+0.5, 'f', 2, 64),
			Volume:    "12.5",
			CloseTime: open.Add(time.Minute).UnixMilli() - 1,
		}
	}

	return klines
}

// mockPolygonAPIClient returns a fixed iterator and records the request.
type mockPolygonAPIClient struct {
	aggs   []models.Agg
	err    error
	params *models.ListAggsParams
}

func (m *mockPolygonAPIClient) ListAggs(_ context.Context, params *models.ListAggsParams, _ ...models.RequestOption) PolygonAggsIterator {
	m.params = params

	return &mockPolygonIterator{aggs: m.aggs, err: m.err, index: -1}
}

type mockPolygonIterator struct {
	aggs  []models.Agg
	err   error
	index int
}

func (it *mockPolygonIterator) Next() bool {
	if it.index+1 >= len(it.aggs) {
		return false
	}

	it.index++

	return true
}

func (it *mockPolygonIterator) Item() models.Agg {
	return it.aggs[it.index]
}

func (it *mockPolygonIterator) Err() error {
	return it.err
}

func aggsFrom(start time.Time, n int) []models.Agg {
	aggs := make([]models.Agg, n)
	for i := range n {
		price := 50 + float64(i%7)
		aggs[i] = models.Agg{
			Open:      price,
			High:      price + 2,
			Low:       price - 2,
			Close:     price + 1,
			Volume:    1000,
			Timestamp: models.Millis(start.Add(time.Duration(i) * 24 * time.Hour)),
		}
	}

	return aggs
}

var errAPI = errors.New("api unavailable")
