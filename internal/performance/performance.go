package performance

import (
	"math"

	"github.com/rxtech-lab/argo-strategy-lab/internal/types"
)

// Metric functions never fail. Degenerate inputs such as fewer than two
// samples, zero variance or zero losses resolve to 0 or +Inf.

// DefaultAnnualization is the number of trading days per year.
const DefaultAnnualization = 252

// Options parameterizes Calculate.
type Options struct {
	// RiskFreeRate is the annual risk free rate as a fraction (0.02 = 2%).
	RiskFreeRate float64 `yaml:"risk_free_rate" json:"risk_free_rate" jsonschema:"title=Risk Free Rate,description=Annual risk free rate as a fraction,minimum=0,default=0" validate:"gte=0"`
	// Annualization is the number of bars per year.
	Annualization float64 `yaml:"annualization" json:"annualization" jsonschema:"title=Annualization,description=Bars per year used to annualize Sharpe,minimum=1,default=252" validate:"gte=0"`
	// KellyFraction scales the raw Kelly fraction (0.5 = half Kelly).
	KellyFraction float64 `yaml:"kelly_fraction" json:"kelly_fraction" jsonschema:"title=Kelly Fraction,description=Multiplier applied to the Kelly fraction,minimum=0,maximum=1,default=0.5" validate:"gte=0,lte=1"`
	// MaxPositionPct caps the Kelly position as a percentage of capital.
	MaxPositionPct float64 `yaml:"max_position_pct" json:"max_position_pct" jsonschema:"title=Max Position,description=Cap on the Kelly position in percent of capital,minimum=0,maximum=100,default=25" validate:"gte=0,lte=100"`
}

// DefaultOptions returns daily annualization, no risk free rate and half Kelly capped at 25%.
func DefaultOptions() Options {
	return Options{
		RiskFreeRate:   0,
		Annualization:  DefaultAnnualization,
		KellyFraction:  0.5,
		MaxPositionPct: 25,
	}
}

// Calculate derives every metric from the trade log and equity curve.
func Calculate(trades []types.Trade, curve []types.EquityPoint, initialCapital float64, opts Options) types.PerformanceMetrics {
	if opts.Annualization <= 0 {
		opts.Annualization = DefaultAnnualization
	}

	finalCapital := initialCapital
	if len(trades) > 0 {
		finalCapital = trades[len(trades)-1].CapitalAfter()
	}

	stats := summarizeTrades(trades)
	equity := types.EquityValues(curve)
	returns := Returns(equity)
	drawdown := MaxDrawdown(equity)
	roi := ROI(initialCapital, finalCapital)

	metrics := types.PerformanceMetrics{
		InitialCapital:    initialCapital,
		FinalCapital:      finalCapital,
		ROI:               roi,
		TotalTrades:       len(trades),
		ClosedTrades:      stats.closed,
		WinningTrades:     stats.wins,
		LosingTrades:      stats.losses,
		WinRate:           WinRate(trades),
		AverageWin:        stats.averageWin(),
		AverageLoss:       stats.averageLoss(),
		ProfitFactor:      ProfitFactor(trades),
		SharpeRatio:       SharpeRatio(returns, opts.RiskFreeRate, opts.Annualization),
		MaxDrawdown:       drawdown.Pct,
		MaxDrawdownPeak:   drawdown.Peak,
		MaxDrawdownTrough: drawdown.Trough,
		CurrentDrawdown:   CurrentDrawdown(equity),
		CalmarRatio:       CalmarRatio(roi, drawdown.Pct),
		Volatility:        Volatility(returns),
		TotalFees:         stats.fees,
		RealizedPnL:       finalCapital - initialCapital,
	}

	if len(curve) > 0 {
		metrics.UnrealizedPnL = curve[len(curve)-1].UnrealizedPnL
		metrics.HasOpenPosition = curve[len(curve)-1].PositionValue != 0
		metrics.ProcessedBarsCount = len(curve) - 1
	}

	metrics.KellyFraction = KellyFraction(metrics.WinRate/100, metrics.AverageWin, metrics.AverageLoss)
	metrics.KellyPositionSize = KellyPositionSize(finalCapital, metrics.WinRate/100, metrics.AverageWin, metrics.AverageLoss,
		opts.KellyFraction, opts.MaxPositionPct)

	return metrics
}

type tradeStats struct {
	closed, wins, losses int
	grossWin, grossLoss  float64
	fees                 float64
}

func (s tradeStats) averageWin() float64 {
	if s.wins == 0 {
		return 0
	}

	return s.grossWin / float64(s.wins)
}

// averageLoss is reported as a positive magnitude.
func (s tradeStats) averageLoss() float64 {
	if s.losses == 0 {
		return 0
	}

	return s.grossLoss / float64(s.losses)
}

func summarizeTrades(trades []types.Trade) tradeStats {
	var s tradeStats

	for _, t := range trades {
		s.fees += t.Fee

		if !t.IsClosed() {
			continue
		}

		s.closed++

		switch {
		case t.PnL > 0:
			s.wins++
			s.grossWin += t.PnL
		case t.PnL < 0:
			s.losses++
			s.grossLoss += -t.PnL
		}
	}

	return s
}

// ROI returns (final-initial)/initial in percent, or 0 without initial capital.
func ROI(initial, final float64) float64 {
	if initial == 0 {
		return 0
	}

	return (final - initial) / initial * 100
}

// WinRate returns winning closed trades over closed trades in percent.
func WinRate(trades []types.Trade) float64 {
	s := summarizeTrades(trades)
	if s.closed == 0 {
		return 0
	}

	return float64(s.wins) / float64(s.closed) * 100
}

// ProfitFactor is gross win over gross loss. It is +Inf with wins and no
// losses and 0 without wins.
func ProfitFactor(trades []types.Trade) float64 {
	s := summarizeTrades(trades)
	if s.wins == 0 {
		return 0
	}

	if s.grossLoss == 0 {
		return math.Inf(1)
	}

	return s.grossWin / s.grossLoss
}

// Returns converts an equity series into simple per-period returns.
// A zero equity value yields a zero return for the following period.
func Returns(equity []float64) []float64 {
	if len(equity) < 2 {
		return nil
	}

	returns := make([]float64, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		if equity[i-1] == 0 {
			continue
		}

		returns[i-1] = equity[i]/equity[i-1] - 1
	}

	return returns
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

// stdDev is the sample standard deviation. It needs at least two values.
func stdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	m := mean(values)

	var squared float64
	for _, v := range values {
		squared += (v - m) * (v - m)
	}

	return math.Sqrt(squared / float64(len(values)-1))
}

// SharpeRatio annualizes mean excess return over return volatility. The annual
// risk free rate is spread evenly over annualization periods.
func SharpeRatio(returns []float64, riskFreeRate, annualization float64) float64 {
	if len(returns) < 2 || annualization <= 0 {
		return 0
	}

	sd := stdDev(returns)
	if sd == 0 || math.IsNaN(sd) {
		return 0
	}

	perPeriod := riskFreeRate / annualization
	excess := mean(returns) - perPeriod

	return excess / sd * math.Sqrt(annualization)
}

// Volatility is the sample standard deviation of per-period returns.
func Volatility(returns []float64) float64 {
	return stdDev(returns)
}

// Drawdown describes the deepest decline from a running peak.
type Drawdown struct {
	// Pct is negative, or 0 when equity never declined.
	Pct         float64
	Peak        float64
	Trough      float64
	PeakIndex   int
	TroughIndex int
}

// MaxDrawdown scans equity for the largest relative decline from its running maximum.
func MaxDrawdown(equity []float64) Drawdown {
	if len(equity) < 2 {
		return Drawdown{}
	}

	var result Drawdown

	peak, peakIndex := equity[0], 0

	for i, v := range equity {
		if v > peak {
			peak, peakIndex = v, i
		}

		if peak <= 0 {
			continue
		}

		dd := (v - peak) / peak * 100
		if dd < result.Pct {
			result = Drawdown{Pct: dd, Peak: peak, Trough: v, PeakIndex: peakIndex, TroughIndex: i}
		}
	}

	return result
}

// CurrentDrawdown is the drawdown of the last point from the running maximum.
func CurrentDrawdown(equity []float64) float64 {
	if len(equity) < 2 {
		return 0
	}

	peak := equity[0]
	for _, v := range equity {
		peak = math.Max(peak, v)
	}

	last := equity[len(equity)-1]
	if peak <= 0 || last >= peak {
		return 0
	}

	return (last - peak) / peak * 100
}

// CalmarRatio is ROI over the magnitude of the max drawdown. A drawdown of 0
// or above is invalid and yields 0.
func CalmarRatio(roi, maxDrawdown float64) float64 {
	if maxDrawdown >= 0 {
		return 0
	}

	return roi / math.Abs(maxDrawdown)
}

// KellyFraction is winRate - (1-winRate)/(avgWin/avgLoss) clamped to [0, 1].
// winRate is a fraction. Invalid inputs yield 0.
func KellyFraction(winRate, avgWin, avgLoss float64) float64 {
	if winRate < 0 || winRate > 1 || avgWin <= 0 || avgLoss <= 0 {
		return 0
	}

	if math.IsNaN(winRate) || math.IsNaN(avgWin) || math.IsNaN(avgLoss) {
		return 0
	}

	payoff := avgWin / avgLoss
	kelly := winRate - (1-winRate)/payoff

	return math.Max(0, math.Min(1, kelly))
}

// KellyPositionSize converts a scaled Kelly fraction into a capital amount,
// capped at maxPositionPct of capital.
func KellyPositionSize(capital, winRate, avgWin, avgLoss, fraction, maxPositionPct float64) float64 {
	if capital <= 0 || fraction <= 0 || maxPositionPct <= 0 {
		return 0
	}

	scaled := KellyFraction(winRate, avgWin, avgLoss) * fraction
	capped := math.Min(scaled, maxPositionPct/100)

	return capital * capped
}
