package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-strategy-lab/internal/types"
)

// Series functions return output of the same length as their input.
// Points without enough history are NaN; callers treat NaN as "abstain".

// Defined reports whether v is a usable indicator value.
func Defined(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}

	return out
}

// SMA returns the trailing arithmetic mean over window.
func SMA(values []float64, window int) []float64 {
	out := nanSeries(len(values))
	if window <= 0 || len(values) < window {
		return out
	}

	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}

		if i >= window-1 {
			out[i] = sum / float64(window)
		}
	}

	return out
}

// EMA returns the exponential moving average seeded by the SMA of the first window values.
func EMA(values []float64, window int) []float64 {
	out := nanSeries(len(values))
	if window <= 0 || len(values) < window {
		return out
	}

	alpha := 2.0 / float64(window+1)

	var seed float64
	for i := 0; i < window; i++ {
		seed += values[i]
	}

	prev := seed / float64(window)
	out[window-1] = prev

	for i := window; i < len(values); i++ {
		prev = alpha*values[i] + (1-alpha)*prev
		out[i] = prev
	}

	return out
}

// RSI returns Wilder's relative strength index. The first value is defined at index period.
func RSI(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period <= 0 || len(values) < period+1 {
		return out
	}

	var avgGain, avgLoss float64

	for i := 1; i <= period; i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}

	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(values); i++ {
		change := values[i] - values[i-1]
		gain, loss := 0.0, 0.0

		if change > 0 {
			gain = change
		} else {
			loss = -change
		}

		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}

	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}

	rs := avgGain / avgLoss

	return 100 - (100 / (1 + rs))
}

// Bands holds the three Bollinger series.
type Bands struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// At returns the band values at index i.
func (b Bands) At(i int) (upper, middle, lower float64) {
	return b.Upper[i], b.Middle[i], b.Lower[i]
}

// Bollinger returns middle = SMA(window) and bands at middle ± k standard deviations.
// The standard deviation is the population deviation over the same window.
func Bollinger(values []float64, window int, k float64) Bands {
	middle := SMA(values, window)
	upper := nanSeries(len(values))
	lower := nanSeries(len(values))

	for i := range values {
		if !Defined(middle[i]) {
			continue
		}

		var squaredDiffSum float64
		for j := i - window + 1; j <= i; j++ {
			diff := values[j] - middle[i]
			squaredDiffSum += diff * diff
		}

		stdDev := math.Sqrt(squaredDiffSum / float64(window))
		upper[i] = middle[i] + k*stdDev
		lower[i] = middle[i] - k*stdDev
	}

	return Bands{Upper: upper, Middle: middle, Lower: lower}
}

// TrueRange returns max(high-low, |high-prev_close|, |low-prev_close|).
// The first bar has no previous close, so its range is high-low.
func TrueRange(bars []types.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, bar := range bars {
		tr := bar.High - bar.Low
		if i > 0 {
			prevClose := bars[i-1].Close
			tr = math.Max(tr, math.Max(math.Abs(bar.High-prevClose), math.Abs(bar.Low-prevClose)))
		}

		out[i] = tr
	}

	return out
}

// ATR returns the mean true range over window.
func ATR(bars []types.Bar, window int) []float64 {
	return SMA(TrueRange(bars), window)
}

// Last returns the final value of a series, or NaN when it is empty.
func Last(series []float64) float64 {
	if len(series) == 0 {
		return math.NaN()
	}

	return series[len(series)-1]
}

// LastTwo returns the previous and current values of a series.
func LastTwo(series []float64) (prev, cur float64) {
	if len(series) < 2 {
		return math.NaN(), math.NaN()
	}

	return series[len(series)-2], series[len(series)-1]
}
