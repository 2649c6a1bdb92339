package indicator

import (
	"sort"
	"sync"

	"github.com/rxtech-lab/argo-strategy-lab/internal/types"
	"github.com/rxtech-lab/argo-strategy-lab/pkg/errors"
)

// IndicatorRegistry looks indicators up by type for strategies and the CLI.
type IndicatorRegistry interface {
	RegisterIndicator(indicator Indicator) error
	GetIndicator(name types.IndicatorType) (Indicator, error)
	// ListIndicators returns the registered types sorted by name
	ListIndicators() []types.IndicatorType
	RemoveIndicator(name types.IndicatorType) error
	// Describe returns the type and lookback of every registered indicator, sorted by name
	Describe() []Description
	// Compute returns the NaN-padded series of the named indicator over bars
	Compute(name types.IndicatorType, bars []types.Bar) ([]float64, error)
}

// Description summarises a registered indicator.
type Description struct {
	Name     types.IndicatorType `yaml:"name" json:"name"`
	Lookback int                 `yaml:"lookback" json:"lookback"`
}

type registry struct {
	indicators map[types.IndicatorType]Indicator
	mu         sync.RWMutex
}

// NewIndicatorRegistry creates an empty registry safe for concurrent use.
func NewIndicatorRegistry() IndicatorRegistry {
	return &registry{
		indicators: make(map[types.IndicatorType]Indicator),
	}
}

// NewDefaultRegistry returns a registry holding every built-in indicator with default settings.
func NewDefaultRegistry() IndicatorRegistry {
	r := NewIndicatorRegistry()
	for _, ind := range []Indicator{NewMA(), NewEMA(), NewRSI(), NewBollingerBands(), NewATR(), NewVolumeMA()} {
		// names are unique so registration cannot fail
		_ = r.RegisterIndicator(ind)
	}

	return r
}

func (r *registry) RegisterIndicator(indicator Indicator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := indicator.Name()
	if _, exists := r.indicators[name]; exists {
		return errors.Newf(errors.ErrCodeIndicatorAlreadyExists, "indicator %s already registered", name)
	}

	r.indicators[name] = indicator

	return nil
}

func (r *registry) GetIndicator(name types.IndicatorType) (Indicator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	indicator, exists := r.indicators[name]
	if !exists {
		return nil, errors.Newf(errors.ErrCodeIndicatorNotFound, "indicator %s not found", name)
	}

	return indicator, nil
}

func (r *registry) ListIndicators() []types.IndicatorType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]types.IndicatorType, 0, len(r.indicators))
	for name := range r.indicators {
		names = append(names, name)
	}

	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	return names
}

func (r *registry) RemoveIndicator(name types.IndicatorType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.indicators[name]; !exists {
		return errors.Newf(errors.ErrCodeIndicatorNotFound, "indicator %s not found", name)
	}

	delete(r.indicators, name)

	return nil
}

func (r *registry) Describe() []Description {
	names := r.ListIndicators()

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Description, 0, len(names))
	for _, name := range names {
		if ind, ok := r.indicators[name]; ok {
			out = append(out, Description{Name: name, Lookback: ind.Lookback()})
		}
	}

	return out
}

func (r *registry) Compute(name types.IndicatorType, bars []types.Bar) ([]float64, error) {
	ind, err := r.GetIndicator(name)
	if err != nil {
		return nil, err
	}

	return ind.Series(bars), nil
}
