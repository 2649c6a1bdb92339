package strategy

import (
	"math"
	"time"

	"github.com/rxtech-lab/argo-strategy-lab/internal/indicator"
	"github.com/rxtech-lab/argo-strategy-lab/internal/types"
)

type GoldenCrossParams struct {
	ShortWindow int    `yaml:"short_window" json:"short_window" validate:"gt=0"`
	LongWindow  int    `yaml:"long_window" json:"long_window" validate:"gtfield=ShortWindow"`
	MAType      MAType `yaml:"ma_type" json:"ma_type" validate:"oneof=sma ema"`
	// ConfirmationDays is the calendar time a cross must survive before it fires.
	ConfirmationDays float64 `yaml:"confirmation_days" json:"confirmation_days" validate:"gte=0"`
	// MinSpreadPct rejects crosses whose MA spread is below this percentage of the long MA.
	MinSpreadPct float64 `yaml:"min_spread_pct" json:"min_spread_pct" validate:"gte=0"`
	// MinVolumeRatio requires volume >= ratio x average volume. Zero disables the gate.
	MinVolumeRatio float64 `yaml:"min_volume_ratio" json:"min_volume_ratio" validate:"gte=0"`
	VolumeWindow   int     `yaml:"volume_window" json:"volume_window" validate:"gt=0"`
	// SlopeLookback compares each MA against its value this many bars ago. Zero disables the gate.
	SlopeLookback int `yaml:"slope_lookback" json:"slope_lookback" validate:"gte=0"`
	// MaxVolatilityPct caps ATR as a percentage of close. Zero disables the gate.
	MaxVolatilityPct float64 `yaml:"max_volatility_pct" json:"max_volatility_pct" validate:"gte=0"`
	ATRWindow        int     `yaml:"atr_window" json:"atr_window" validate:"gt=0"`
}

// CrossKind is the direction of a detected crossing.
type CrossKind int

const (
	CrossNone   CrossKind = 0
	CrossGolden CrossKind = 1
	CrossDeath  CrossKind = -1
)

// CrossPhase is the confirmation state of a GoldenCross strategy.
type CrossPhase int

const (
	PhaseNoCross CrossPhase = iota
	PhasePending
)

// CrossState is the state carried between calls.
type CrossState struct {
	Phase CrossPhase
	Kind  CrossKind
	// Since is the bar time at which the pending cross was detected.
	Since time.Time
}

// GoldenCross is a debounced crossover. A crossing enters a pending state and
// only fires once it has held for ConfirmationDays and every enabled gate passes.
// Confirmation is transient: the confirming bar emits BUY or SELL and the state
// is already back at NoCross, so a fresh crossing is required before the next
// signal. A discarded cross also returns to NoCross, and a crossing on the
// discarding bar starts a new pending cross.
type GoldenCross struct {
	name   string
	params GoldenCrossParams
	state  CrossState
}

// NewGoldenCross builds a golden/death cross strategy. Defaults: 50/200 SMA,
// 3 confirmation days, 0.1% minimum spread, 20 bar volume window, 14 bar ATR.
func NewGoldenCross(cfg StrategyConfig) (Strategy, error) {
	params := GoldenCrossParams{
		ShortWindow:      50,
		LongWindow:       200,
		MAType:           MATypeSMA,
		ConfirmationDays: 3,
		MinSpreadPct:     0.1,
		VolumeWindow:     20,
		ATRWindow:        14,
	}
	if err := decodeParams(cfg.Params, &params); err != nil {
		return nil, err
	}

	return &GoldenCross{name: cfg.Name, params: params}, nil
}

func (s *GoldenCross) Name() string {
	return s.name
}

func (s *GoldenCross) MinBars() int {
	return s.params.LongWindow + 1
}

// State returns the current confirmation state.
func (s *GoldenCross) State() CrossState {
	return s.state
}

// Reset returns the strategy to NoCross.
func (s *GoldenCross) Reset() {
	s.state = CrossState{Phase: PhaseNoCross}
}

func (s *GoldenCross) GenerateSignal(bars []types.Bar) (types.Signal, error) {
	if len(bars) < s.MinBars() {
		return types.SignalHold, nil
	}

	closes := types.Closes(bars)
	short := movingAverage(s.params.MAType, closes, s.params.ShortWindow)
	long := movingAverage(s.params.MAType, closes, s.params.LongWindow)
	last := bars[len(bars)-1]

	shortPrev, shortCur := indicator.LastTwo(short)
	longPrev, longCur := indicator.LastTwo(long)
	cross := CrossKind(crossed(shortPrev, shortCur, longPrev, longCur))

	if s.state.Phase == PhasePending {
		// an opposite crossing replaces the pending cross and restarts the window
		if cross != CrossNone && cross != s.state.Kind {
			s.state = CrossState{Phase: PhasePending, Kind: cross, Since: last.Time}

			return types.SignalHold, nil
		}

		elapsed := last.Time.Sub(s.state.Since).Hours() / 24
		if elapsed < s.params.ConfirmationDays {
			return types.SignalHold, nil
		}

		kind := s.state.Kind
		s.Reset()

		if s.gatesPass(kind, bars, short, long) {
			if kind == CrossGolden {
				return types.SignalBuy, nil
			}

			return types.SignalSell, nil
		}
	}

	if cross != CrossNone {
		s.state = CrossState{Phase: PhasePending, Kind: cross, Since: last.Time}
	}

	return types.SignalHold, nil
}

// gatesPass evaluates every enabled filter at the last bar.
func (s *GoldenCross) gatesPass(kind CrossKind, bars []types.Bar, short, long []float64) bool {
	i := len(bars) - 1
	direction := float64(kind)
	shortCur, longCur := short[i], long[i]

	if !defined(shortCur, longCur) || longCur == 0 {
		return false
	}

	// the cross must still be intact
	if direction*(shortCur-longCur) <= 0 {
		return false
	}

	// flat market
	spreadPct := math.Abs(shortCur-longCur) / math.Abs(longCur) * 100
	if spreadPct < s.params.MinSpreadPct {
		return false
	}

	if s.params.MinVolumeRatio > 0 {
		avgVolume := indicator.Last(indicator.SMA(types.Volumes(bars), s.params.VolumeWindow))
		if !defined(avgVolume) || avgVolume == 0 || bars[i].Volume/avgVolume < s.params.MinVolumeRatio {
			return false
		}
	}

	if lb := s.params.SlopeLookback; lb > 0 {
		if i-lb < 0 || !defined(short[i-lb], long[i-lb]) {
			return false
		}

		shortAgrees := direction*(shortCur-short[i-lb]) > 0
		longAgrees := direction*(longCur-long[i-lb]) > 0

		if !shortAgrees && !longAgrees {
			return false
		}
	}

	if s.params.MaxVolatilityPct > 0 {
		atr := indicator.Last(indicator.ATR(bars, s.params.ATRWindow))
		if !defined(atr) || bars[i].Close == 0 || atr/bars[i].Close*100 > s.params.MaxVolatilityPct {
			return false
		}
	}

	return true
}
