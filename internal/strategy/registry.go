package strategy

import (
	"sort"
	"sync"

	"github.com/rxtech-lab/argo-strategy-lab/pkg/errors"
)

// Factory builds a strategy from its config.
type Factory func(cfg StrategyConfig) (Strategy, error)

// Registry maps strategy types to constructors. It is constructed once by the
// caller and passed to whatever builds strategies.
type Registry struct {
	factories map[StrategyType]Factory
	mu        sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[StrategyType]Factory),
		mu:        sync.RWMutex{},
	}
}

// NewDefaultRegistry creates a registry holding every built-in strategy.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.factories[StrategyTypeMACrossover] = NewMACrossover
	r.factories[StrategyTypeRSIMeanReversion] = NewRSIMeanReversion
	r.factories[StrategyTypeBollingerBreakout] = NewBollingerBreakout
	r.factories[StrategyTypeGoldenCross] = NewGoldenCross
	r.factories[StrategyTypeVolumeBreakout] = NewVolumeBreakout

	return r
}

// Register adds a constructor for a strategy type.
func (r *Registry) Register(kind StrategyType, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[kind]; exists {
		return errors.Newf(errors.ErrCodeStrategyAlreadyRegistered, "strategy type %s already registered", kind)
	}

	r.factories[kind] = factory

	return nil
}

// Types returns the registered strategy types in sorted order.
func (r *Registry) Types() []StrategyType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]StrategyType, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}

	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	return kinds
}

// Create builds a fresh strategy instance. Disabled configs produce a strategy that always holds.
func (r *Registry) Create(cfg StrategyConfig) (Strategy, error) {
	if err := paramsValidator.Struct(cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStrategyConfigError, "invalid strategy config", err)
	}

	r.mu.RLock()
	factory, exists := r.factories[cfg.Type]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.Newf(errors.ErrCodeUnknownStrategyType, "unknown strategy type %q for strategy %s", cfg.Type, cfg.Name)
	}

	s, err := factory(cfg)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeStrategyConfigError, err, "failed to create strategy %s", cfg.Name)
	}

	if cfg.Disabled {
		return Disable(s), nil
	}

	return s, nil
}

// CreateAll builds one strategy per config. Names must be unique.
func (r *Registry) CreateAll(cfgs []StrategyConfig) ([]Strategy, error) {
	seen := make(map[string]struct{}, len(cfgs))
	strategies := make([]Strategy, 0, len(cfgs))

	for _, cfg := range cfgs {
		if _, dup := seen[cfg.Name]; dup {
			return nil, errors.Newf(errors.ErrCodeStrategyConfigError, "duplicate strategy name %s", cfg.Name)
		}

		seen[cfg.Name] = struct{}{}

		s, err := r.Create(cfg)
		if err != nil {
			return nil, err
		}

		strategies = append(strategies, s)
	}

	return strategies, nil
}
