package aggregator

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-strategy-lab/internal/strategy"
	"github.com/rxtech-lab/argo-strategy-lab/internal/types"
	"github.com/rxtech-lab/argo-strategy-lab/pkg/errors"
)

// Policy is the cooperation rule combining strategy signals.
type Policy string

const (
	// PolicyOR fires when any enabled strategy fires.
	PolicyOR Policy = "or"
	// PolicyAND fires only when every enabled strategy agrees.
	PolicyAND Policy = "and"
	// PolicyWeighted fires when the weighted share of one side exceeds a threshold.
	PolicyWeighted Policy = "weighted"
)

// TieBreak resolves a prefix where both BUY and SELL would fire.
type TieBreak string

const (
	TieBreakBuyFirst  TieBreak = "buy_first"
	TieBreakSellFirst TieBreak = "sell_first"
	TieBreakHold      TieBreak = "hold"
)

// DefaultThreshold is the weighted share a side needs to fire.
const DefaultThreshold = 0.5

type Config struct {
	Policy   Policy   `yaml:"policy" json:"policy" jsonschema:"title=Policy,description=Cooperation policy,enum=or,enum=and,enum=weighted,default=or" validate:"oneof=or and weighted"`
	TieBreak TieBreak `yaml:"tie_break" json:"tie_break" jsonschema:"title=Tie Break,description=Resolution when BUY and SELL fire on the same bar,enum=buy_first,enum=sell_first,enum=hold,default=buy_first" validate:"omitempty,oneof=buy_first sell_first hold"`
	// Weights by strategy name. Missing names weigh 1.
	Weights map[string]float64 `yaml:"weights" json:"weights" jsonschema:"title=Weights,description=Per strategy weights for the weighted policy"`
	// Threshold is the share of total weight a side must exceed under the weighted policy.
	Threshold float64 `yaml:"threshold" json:"threshold" jsonschema:"title=Threshold,description=Weighted share required to fire,minimum=0,maximum=1,default=0.5" validate:"gte=0,lte=1"`
	// UseConfidence scales each weighted vote by the strategy's self reported confidence.
	UseConfidence bool `yaml:"use_confidence" json:"use_confidence" jsonschema:"title=Use Confidence,description=Scale weighted votes by strategy confidence"`
}

// DefaultConfig returns the OR policy with BUY checked before SELL.
func DefaultConfig() Config {
	return Config{
		Policy:    PolicyOR,
		TieBreak:  TieBreakBuyFirst,
		Threshold: DefaultThreshold,
	}
}

var configValidator = validator.New()

// Aggregator combines the signals of a fixed set of strategies for the same prefix.
type Aggregator struct {
	config     Config
	strategies []strategy.Strategy
	enabled    []strategy.Strategy
}

// New creates an aggregator over strategies. Strategy names must be unique.
func New(config Config, strategies []strategy.Strategy) (*Aggregator, error) {
	if config.TieBreak == "" {
		config.TieBreak = TieBreakBuyFirst
	}

	if config.Policy == PolicyWeighted && config.Threshold == 0 {
		config.Threshold = DefaultThreshold
	}

	if err := configValidator.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPolicy, "invalid aggregator config", err)
	}

	for name, weight := range config.Weights {
		if weight < 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
			return nil, errors.Newf(errors.ErrCodeInvalidWeights, "weight for strategy %s must be a finite non-negative number, got %v", name, weight)
		}
	}

	seen := make(map[string]struct{}, len(strategies))
	enabled := make([]strategy.Strategy, 0, len(strategies))

	for _, s := range strategies {
		if _, dup := seen[s.Name()]; dup {
			return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "duplicate strategy name %s", s.Name())
		}

		seen[s.Name()] = struct{}{}

		if strategy.Enabled(s) {
			enabled = append(enabled, s)
		}
	}

	return &Aggregator{
		config:     config,
		strategies: strategies,
		enabled:    enabled,
	}, nil
}

// Config returns the effective configuration.
func (a *Aggregator) Config() Config {
	return a.config
}

// Strategies returns every strategy, enabled or not, in registration order.
func (a *Aggregator) Strategies() []strategy.Strategy {
	return a.strategies
}

// EnabledNames returns the names of the strategies that vote.
func (a *Aggregator) EnabledNames() []string {
	names := make([]string, len(a.enabled))
	for i, s := range a.enabled {
		names[i] = s.Name()
	}

	return names
}

// MinBars is the shortest lookback among enabled strategies. Bars before it
// cannot produce anything but HOLD.
func (a *Aggregator) MinBars() int {
	if len(a.enabled) == 0 {
		return 1
	}

	minBars := math.MaxInt
	for _, s := range a.enabled {
		minBars = min(minBars, strategy.MinBars(s))
	}

	return minBars
}

// Reset clears the state of every strategy.
func (a *Aggregator) Reset() {
	for _, s := range a.strategies {
		s.Reset()
	}
}

// Decide queries every enabled strategy for the last bar of bars and combines the votes.
// A strategy that fails or panics yields a StrategyExecutionError.
func (a *Aggregator) Decide(bars []types.Bar) (types.Decision, error) {
	votes := make([]types.Vote, 0, len(a.enabled))

	for _, s := range a.enabled {
		signal, err := generate(s, bars)
		if err != nil {
			return types.Decision{}, err
		}

		confidence := 1.0
		if a.config.Policy == PolicyWeighted && a.config.UseConfidence && signal != types.SignalHold {
			confidence = strategy.Confidence(s, bars)
		}

		votes = append(votes, types.Vote{Strategy: s.Name(), Signal: signal, Confidence: confidence})
	}

	return a.Combine(votes), nil
}

func generate(s strategy.Strategy, bars []types.Bar) (signal types.Signal, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.NewStrategyExecutionError(s.Name(), fmt.Errorf("panic: %v", r))
		}
	}()

	signal, err = s.GenerateSignal(bars)
	if err != nil {
		return types.SignalHold, errors.NewStrategyExecutionError(s.Name(), err)
	}

	switch signal {
	case types.SignalBuy, types.SignalSell, types.SignalHold:
		return signal, nil
	default:
		return types.SignalHold, errors.NewStrategyExecutionError(s.Name(), fmt.Errorf("invalid signal %d", signal))
	}
}

// Combine applies the policy to votes from enabled strategies.
func (a *Aggregator) Combine(votes []types.Vote) types.Decision {
	var buys, sells []string

	for _, v := range votes {
		switch v.Signal {
		case types.SignalBuy:
			buys = append(buys, v.Strategy)
		case types.SignalSell:
			sells = append(sells, v.Strategy)
		}
	}

	var buyFires, sellFires bool

	switch a.config.Policy {
	case PolicyAND:
		buyFires = len(votes) > 0 && len(buys) == len(votes)
		sellFires = len(votes) > 0 && len(sells) == len(votes)
	case PolicyWeighted:
		buyFires, sellFires = a.weighted(votes)
	default:
		buyFires = len(buys) > 0
		sellFires = len(sells) > 0
	}

	decision := types.Decision{Signal: types.SignalHold, Triggering: []string{}, Votes: votes}

	if buyFires && sellFires {
		switch a.config.TieBreak {
		case TieBreakSellFirst:
			buyFires = false
		case TieBreakHold:
			return decision
		default:
			sellFires = false
		}
	}

	if buyFires {
		decision.Signal = types.SignalBuy
		decision.Triggering = buys
	} else if sellFires {
		decision.Signal = types.SignalSell
		decision.Triggering = sells
	}

	return decision
}

func (a *Aggregator) weighted(votes []types.Vote) (buyFires, sellFires bool) {
	var total, buyWeight, sellWeight float64

	for _, v := range votes {
		weight := a.weight(v.Strategy)
		total += weight

		switch v.Signal {
		case types.SignalBuy:
			buyWeight += weight * v.Confidence
		case types.SignalSell:
			sellWeight += weight * v.Confidence
		}
	}

	if total == 0 {
		return false, false
	}

	return buyWeight/total > a.config.Threshold, sellWeight/total > a.config.Threshold
}

func (a *Aggregator) weight(name string) float64 {
	if w, ok := a.config.Weights[name]; ok {
		return w
	}

	return 1
}
