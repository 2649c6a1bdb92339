package selector

import (
	"fmt"
	"math"
	"sort"

	"github.com/rxtech-lab/argo-strategy-lab/internal/backtest/engine"
	"github.com/rxtech-lab/argo-strategy-lab/internal/types"
	"github.com/rxtech-lab/argo-strategy-lab/pkg/errors"
)

// Normalization ranges of the sub-scores.
const (
	roiFloor       = -50.0
	roiCeiling     = 100.0
	ratioScale     = 100.0 / 3.0
	drawdownWindow = 50.0
)

// Selection is the outcome of ranking a batch.
type Selection struct {
	Winner types.StrategyScore `yaml:"winner" json:"winner"`
	// Ranking holds every strategy that cleared the gate, best first.
	Ranking []types.StrategyScore `yaml:"ranking" json:"ranking"`
	// Excluded maps strategy name to the reason it was not ranked.
	Excluded map[string]string `yaml:"excluded" json:"excluded"`
}

// SubScoresFor normalizes metrics into 0-100 components. NaN inputs score 0.
func SubScoresFor(m types.PerformanceMetrics) types.SubScores {
	return types.SubScores{
		ROI:      (clamp(m.ROI, roiFloor, roiCeiling) - roiFloor) / (roiCeiling - roiFloor) * 100,
		Sharpe:   clamp(m.SharpeRatio*ratioScale, 0, 100),
		Calmar:   clamp(m.CalmarRatio*ratioScale, 0, 100),
		WinRate:  clamp(m.WinRate, 0, 100),
		Drawdown: clamp(100-math.Abs(m.MaxDrawdown)/drawdownWindow*100, 0, 100),
	}
}

// Composite weighs the sub-scores. Weights are percentages, so default
// weights keep the composite on the 0-100 scale.
func Composite(s types.SubScores, w Weights) float64 {
	return (w.ROI*s.ROI +
		w.Sharpe*s.Sharpe +
		w.Calmar*s.Calmar +
		w.WinRate*s.WinRate +
		w.Drawdown*s.Drawdown) / 100
}

// Eligible applies the robustness gate to one run.
func Eligible(run engine.StrategyRun, minTrades int) (bool, string) {
	if run.Failed() {
		return false, fmt.Sprintf("run failed: %v", run.Err)
	}

	if closed := run.Result.Metrics.ClosedTrades; closed < minTrades {
		return false, fmt.Sprintf("%d closed trades, need %d", closed, minTrades)
	}

	return true, ""
}

// Rank gates, scores and orders the runs of a batch. Equal scores are ordered
// by name. It never falls back to an excluded strategy.
func Rank(runs []engine.StrategyRun, config Config) (Selection, error) {
	selection := Selection{
		Ranking:  []types.StrategyScore{},
		Excluded: map[string]string{},
	}

	for _, run := range runs {
		if ok, reason := Eligible(run, config.MinTrades); !ok {
			selection.Excluded[run.Name] = reason
			continue
		}

		sub := SubScoresFor(run.Result.Metrics)
		selection.Ranking = append(selection.Ranking, types.StrategyScore{
			Name:      run.Name,
			Score:     Composite(sub, config.Weights),
			SubScores: sub,
			Metrics:   run.Result.Metrics,
		})
	}

	if len(selection.Ranking) == 0 {
		return selection, errors.NewSelectionImpossibleError(len(runs), selection.Excluded)
	}

	sort.SliceStable(selection.Ranking, func(i, j int) bool {
		a, b := selection.Ranking[i], selection.Ranking[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}

		return a.Name < b.Name
	})

	for i := range selection.Ranking {
		selection.Ranking[i].Rank = i + 1
	}

	selection.Winner = selection.Ranking[0]

	return selection, nil
}

func clamp(value, low, high float64) float64 {
	if math.IsNaN(value) {
		return low
	}

	return math.Min(math.Max(value, low), high)
}
