package types

// Signal is a strategy decision for the last bar of a prefix.
type Signal int

const (
	// SignalSell tells the engine to close an open long position.
	SignalSell Signal = -1
	// SignalHold tells the engine to take no action.
	SignalHold Signal = 0
	// SignalBuy tells the engine to open a long position.
	SignalBuy Signal = 1
)

// String returns the upper case name of the signal.
func (s Signal) String() string {
	switch s {
	case SignalBuy:
		return "BUY"
	case SignalSell:
		return "SELL"
	default:
		return "HOLD"
	}
}

// Vote is one strategy's signal for a prefix.
type Vote struct {
	Strategy string `yaml:"strategy" json:"strategy"`
	Signal   Signal `yaml:"signal" json:"signal"`
	// Confidence in [0, 1]. One when the strategy does not grade its signals.
	Confidence float64 `yaml:"confidence" json:"confidence"`
}

// Decision is the combined signal produced by an aggregator.
type Decision struct {
	Signal Signal `yaml:"signal" json:"signal"`
	// Triggering lists the strategies that voted for Signal, in registration order.
	Triggering []string `yaml:"triggering" json:"triggering"`
	// Votes holds every enabled strategy's vote for the same prefix.
	Votes []Vote `yaml:"votes" json:"votes"`
}
