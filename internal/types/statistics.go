package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// PerformanceMetrics is derived from a closed trade log and an equity curve.
// Percentages are expressed in percent (12.5 means 12.5%).
type PerformanceMetrics struct {
	InitialCapital float64 `yaml:"initial_capital" json:"initial_capital"`
	FinalCapital   float64 `yaml:"final_capital" json:"final_capital"`
	// ROI of the realized capital.
	ROI float64 `yaml:"roi" json:"roi"`
	// Count of all trades, BUY and SELL.
	TotalTrades int `yaml:"total_trades" json:"total_trades"`
	// Count of SELL trades, each closing one round trip.
	ClosedTrades  int     `yaml:"closed_trades" json:"closed_trades"`
	WinningTrades int     `yaml:"winning_trades" json:"winning_trades"`
	LosingTrades  int     `yaml:"losing_trades" json:"losing_trades"`
	WinRate       float64 `yaml:"win_rate" json:"win_rate"`
	AverageWin    float64 `yaml:"average_win" json:"average_win"`
	AverageLoss   float64 `yaml:"average_loss" json:"average_loss"`
	// ProfitFactor is +Inf when there are wins and no losses.
	ProfitFactor       float64 `yaml:"profit_factor" json:"profit_factor"`
	SharpeRatio        float64 `yaml:"sharpe_ratio" json:"sharpe_ratio"`
	MaxDrawdown        float64 `yaml:"max_drawdown" json:"max_drawdown"`
	CurrentDrawdown    float64 `yaml:"current_drawdown" json:"current_drawdown"`
	CalmarRatio        float64 `yaml:"calmar_ratio" json:"calmar_ratio"`
	Volatility         float64 `yaml:"volatility" json:"volatility"`
	KellyFraction      float64 `yaml:"kelly_fraction" json:"kelly_fraction"`
	KellyPositionSize  float64 `yaml:"kelly_position_size" json:"kelly_position_size"`
	TotalFees          float64 `yaml:"total_fees" json:"total_fees"`
	RealizedPnL        float64 `yaml:"realized_pnl" json:"realized_pnl"`
	UnrealizedPnL      float64 `yaml:"unrealized_pnl" json:"unrealized_pnl"`
	HasOpenPosition    bool    `yaml:"has_open_position" json:"has_open_position"`
	MaxDrawdownPeak    float64 `yaml:"max_drawdown_peak" json:"max_drawdown_peak"`
	MaxDrawdownTrough  float64 `yaml:"max_drawdown_trough" json:"max_drawdown_trough"`
	ProcessedBarsCount int     `yaml:"processed_bars" json:"processed_bars"`
}

// SubScores are the 0-100 normalized components of a composite score.
type SubScores struct {
	ROI      float64 `yaml:"roi" json:"roi"`
	Sharpe   float64 `yaml:"sharpe" json:"sharpe"`
	Calmar   float64 `yaml:"calmar" json:"calmar"`
	WinRate  float64 `yaml:"win_rate" json:"win_rate"`
	Drawdown float64 `yaml:"drawdown" json:"drawdown"`
}

// StrategyScore is a ranking artifact for one strategy.
type StrategyScore struct {
	Name      string             `yaml:"name" json:"name"`
	Score     float64            `yaml:"score" json:"score"`
	Rank      int                `yaml:"rank" json:"rank"`
	SubScores SubScores          `yaml:"sub_scores" json:"sub_scores"`
	Metrics   PerformanceMetrics `yaml:"metrics" json:"metrics"`
}

// BacktestResult is the output of one engine run.
type BacktestResult struct {
	// RunID is the unique identifier for this backtest run.
	RunID string `yaml:"run_id" json:"run_id"`
	// Timestamp is when this backtest run was executed.
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	Symbol    string    `yaml:"symbol" json:"symbol"`
	// Strategies are the enabled strategies that drove the run.
	Strategies    []string           `yaml:"strategies" json:"strategies"`
	Trades        []Trade            `yaml:"trades" json:"trades"`
	EquityCurve   []EquityPoint      `yaml:"equity_curve" json:"equity_curve"`
	Metrics       PerformanceMetrics `yaml:"metrics" json:"metrics"`
	OpenPosition  *Position          `yaml:"open_position,omitempty" json:"open_position,omitempty"`
	Warnings      []string           `yaml:"warnings" json:"warnings"`
	ProcessedBars int                `yaml:"processed_bars" json:"processed_bars"`
}

// RunSummary is the flat record written to stats.yaml.
type RunSummary struct {
	RunID      string             `yaml:"run_id" json:"run_id"`
	Timestamp  time.Time          `yaml:"timestamp" json:"timestamp"`
	Symbol     string             `yaml:"symbol" json:"symbol"`
	Strategies []string           `yaml:"strategies" json:"strategies"`
	Metrics    PerformanceMetrics `yaml:"metrics" json:"metrics"`
	Warnings   []string           `yaml:"warnings" json:"warnings"`
	// Error is set when the run failed inside a batch.
	Error string `yaml:"error,omitempty" json:"error,omitempty"`
}

// Summary flattens a result into a RunSummary.
func (r BacktestResult) Summary() RunSummary {
	return RunSummary{
		RunID:      r.RunID,
		Timestamp:  r.Timestamp,
		Symbol:     r.Symbol,
		Strategies: r.Strategies,
		Metrics:    r.Metrics,
		Warnings:   r.Warnings,
	}
}

func WriteRunSummaries(path string, summaries []RunSummary) error {
	// Marshal the struct to YAML
	data, err := yaml.Marshal(summaries)
	if err != nil {
		return fmt.Errorf("failed to marshal run summaries to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write run summaries to file: %w", err)
	}

	return nil
}

func WriteStrategyScores(path string, scores []StrategyScore) error {
	data, err := yaml.Marshal(scores)
	if err != nil {
		return fmt.Errorf("failed to marshal strategy scores to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write strategy scores to file: %w", err)
	}

	return nil
}
