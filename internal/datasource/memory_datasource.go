package datasource

import (
	"sort"
	"sync"
	"time"

	"github.com/rxtech-lab/argo-strategy-lab/internal/types"
	"github.com/rxtech-lab/argo-strategy-lab/pkg/errors"
)

// MemoryDataSource serves bars from memory. It either wraps a fixed slice or
// preloads everything from an underlying DataSource on Initialize.
type MemoryDataSource struct {
	underlying DataSource

	// bars ordered by time, then symbol
	bars []types.Bar

	mu sync.RWMutex
}

var _ DataSource = (*MemoryDataSource)(nil)

// NewMemoryDataSource serves a copy of bars.
func NewMemoryDataSource(bars []types.Bar) *MemoryDataSource {
	ds := &MemoryDataSource{}
	ds.load(append([]types.Bar(nil), bars...))

	return ds
}

// NewPreloadedDataSource loads every bar of underlying into memory on Initialize.
func NewPreloadedDataSource(underlying DataSource) *MemoryDataSource {
	return &MemoryDataSource{underlying: underlying}
}

func (m *MemoryDataSource) load(bars []types.Bar) {
	sort.SliceStable(bars, func(i, j int) bool {
		if bars[i].Time.Equal(bars[j].Time) {
			return bars[i].Symbol < bars[j].Symbol
		}

		return bars[i].Time.Before(bars[j].Time)
	})

	m.mu.Lock()
	m.bars = bars
	m.mu.Unlock()
}

// Initialize implements DataSource.
func (m *MemoryDataSource) Initialize(path string) error {
	if m.underlying == nil {
		return errors.New(errors.ErrCodeInvalidConfiguration, "memory data source has no underlying data source to load from")
	}

	if err := m.underlying.Initialize(path); err != nil {
		return err
	}

	var bars []types.Bar

	for bar, err := range m.underlying.ReadAll(Query{}) {
		if err != nil {
			return errors.Wrap(errors.ErrCodeDataNotFound, "failed to preload data", err)
		}

		bars = append(bars, bar)
	}

	m.load(bars)

	return nil
}

func (m *MemoryDataSource) selected(query Query) []types.Bar {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]types.Bar, 0, len(m.bars))

	for _, bar := range m.bars {
		if query.Symbol != "" && bar.Symbol != query.Symbol {
			continue
		}

		if query.Start.IsSome() && bar.Time.Before(query.Start.Unwrap()) {
			continue
		}

		if query.End.IsSome() && bar.Time.After(query.End.Unwrap()) {
			continue
		}

		out = append(out, bar)
	}

	return out
}

// ReadAll implements DataSource.
func (m *MemoryDataSource) ReadAll(query Query) func(yield func(types.Bar, error) bool) {
	return func(yield func(types.Bar, error) bool) {
		bars := m.selected(query)

		if query.Interval.IsSome() {
			var err error

			bars, err = Resample(bars, query.Interval.Unwrap())
			if err != nil {
				yield(types.Bar{}, err)

				return
			}
		}

		for _, bar := range bars {
			if !yield(bar, nil) {
				return
			}
		}
	}
}

// Bars implements DataSource.
func (m *MemoryDataSource) Bars(query Query) ([]types.Bar, error) {
	return collect(m.ReadAll(query))
}

// Count implements DataSource.
func (m *MemoryDataSource) Count(query Query) (int, error) {
	return len(m.selected(query)), nil
}

// Symbols implements DataSource.
func (m *MemoryDataSource) Symbols() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := map[string]struct{}{}
	symbols := []string{}

	for _, bar := range m.bars {
		if _, ok := seen[bar.Symbol]; ok {
			continue
		}

		seen[bar.Symbol] = struct{}{}
		symbols = append(symbols, bar.Symbol)
	}

	sort.Strings(symbols)

	return symbols, nil
}

// Close implements DataSource.
func (m *MemoryDataSource) Close() error {
	if m.underlying != nil {
		return m.underlying.Close()
	}

	return nil
}

// Resample folds time ordered bars into interval buckets per symbol: first
// open, highest high, lowest low, last close and summed volume. Buckets are
// aligned on UTC multiples of the interval, Mondays for weeks.
func Resample(bars []types.Bar, interval Interval) ([]types.Bar, error) {
	size, err := interval.Duration()
	if err != nil {
		return nil, err
	}

	type key struct {
		bucket time.Time
		symbol string
	}

	index := map[key]int{}
	out := make([]types.Bar, 0, len(bars))

	for _, bar := range bars {
		k := key{bucket: bar.Time.UTC().Truncate(size), symbol: bar.Symbol}

		i, ok := index[k]
		if !ok {
			index[k] = len(out)
			bucket := bar
			bucket.Time = k.bucket
			out = append(out, bucket)

			continue
		}

		agg := &out[i]
		agg.High = max(agg.High, bar.High)
		agg.Low = min(agg.Low, bar.Low)
		agg.Close = bar.Close
		agg.Volume += bar.Volume
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Time.Equal(out[j].Time) {
			return out[i].Symbol < out[j].Symbol
		}

		return out[i].Time.Before(out[j].Time)
	})

	return out, nil
}
