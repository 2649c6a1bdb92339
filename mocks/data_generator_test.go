package mocks

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-strategy-lab/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataGenerator_Generate(t *testing.T) {
	gen := NewDataGenerator(42) // Fixed seed for reproducibility
	config := DefaultConfig()
	config.Count = 100

	bars := gen.Generate(config)
	require.Len(t, bars, 100)

	for i, b := range bars {
		assert.Equal(t, config.Symbol, b.Symbol)
		assert.Greater(t, b.Low, 0.0, "index %d", i)
		assert.GreaterOrEqual(t, b.High, b.Close, "index %d", i)
		assert.LessOrEqual(t, b.Low, b.Close, "index %d", i)

		if i > 0 {
			assert.Equal(t, config.Interval, b.Time.Sub(bars[i-1].Time))
		}
	}

	assert.NoError(t, types.ValidateBars(bars))
}

func TestDataGenerator_Reproducibility(t *testing.T) {
	config := DefaultConfig()
	config.Count = 50

	first := NewDataGenerator(7).Generate(config)
	second := NewDataGenerator(7).Generate(config)
	assert.Equal(t, first, second)

	other := NewDataGenerator(8).Generate(config)
	assert.NotEqual(t, first, other)
}

func TestBarsFromCloses(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := BarsFromCloses("X", start, time.Hour, []float64{1, 2, 3})

	require.Len(t, bars, 3)
	assert.Equal(t, start.Add(2*time.Hour), bars[2].Time)
	assert.Equal(t, 3.0, bars[2].High)
	assert.NoError(t, types.ValidateBars(bars))
}
