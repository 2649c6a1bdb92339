package engine

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-strategy-lab/internal/types"
)

// filterWindow keeps the bars inside the inclusive [start, end] window.
func filterWindow(bars []types.Bar, start, end optional.Option[time.Time]) []types.Bar {
	if start.IsNone() && end.IsNone() {
		return bars
	}

	out := make([]types.Bar, 0, len(bars))

	for _, bar := range bars {
		if start.IsSome() && bar.Time.Before(start.Unwrap()) {
			continue
		}

		if end.IsSome() && bar.Time.After(end.Unwrap()) {
			continue
		}

		out = append(out, bar)
	}

	return out
}

// lookbackStart is the first bar index whose prefix satisfies minBars.
func lookbackStart(minBars, n int) int {
	start := minBars - 1
	if start < 0 {
		start = 0
	}

	if start > n {
		start = n
	}

	return start
}
