package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rxtech-lab/argo-strategy-lab/internal/types"
	"github.com/urfave/cli/v3"
)

func backtestCommand() *cli.Command {
	return &cli.Command{
		Name:   "backtest",
		Usage:  "Run the configured strategies together through the aggregator",
		Flags:  runFlags(),
		Action: backtestAction,
	}
}

func backtestAction(ctx context.Context, cmd *cli.Command) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := withSignals(ctx)
	defer cancel()

	w := output(cmd)

	result, folder, runErr := s.runner.Backtest(ctx, barProgress(w, !cmd.Bool("no-progress")))
	if err := s.close(cmd); err != nil {
		return err
	}

	if runErr != nil {
		return fmt.Errorf("backtest failed: %w", runErr)
	}

	printResult(w, result)
	fmt.Fprintf(w, "Results written to %s\n", folder)

	return nil
}

func printResult(w io.Writer, result types.BacktestResult) {
	m := result.Metrics

	fmt.Fprintf(w, "Symbol:          %s\n", result.Symbol)
	fmt.Fprintf(w, "Strategies:      %v\n", result.Strategies)
	fmt.Fprintf(w, "Processed bars:  %d\n", result.ProcessedBars)
	fmt.Fprintf(w, "Trades:          %d (%d closed, win rate %.2f%%)\n", m.TotalTrades, m.ClosedTrades, m.WinRate)
	fmt.Fprintf(w, "Final capital:   %.2f (ROI %.2f%%)\n", m.FinalCapital, m.ROI)
	fmt.Fprintf(w, "Sharpe:          %.3f\n", m.SharpeRatio)
	fmt.Fprintf(w, "Max drawdown:    %.2f%%\n", m.MaxDrawdown)
	fmt.Fprintf(w, "Calmar:          %.3f\n", m.CalmarRatio)
	fmt.Fprintf(w, "Fees:            %.2f\n", m.TotalFees)

	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "Warning:         %s\n", warning)
	}
}
