package main

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/rxtech-lab/argo-strategy-lab/internal/selector"
	"github.com/rxtech-lab/argo-strategy-lab/pkg/errors"
	"github.com/urfave/cli/v3"
)

func selectCommand() *cli.Command {
	return &cli.Command{
		Name:   "select",
		Usage:  "Backtest each strategy on its own and rank them by composite score",
		Flags:  runFlags(),
		Action: selectAction,
	}
}

func selectAction(ctx context.Context, cmd *cli.Command) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := withSignals(ctx)
	defer cancel()

	w := output(cmd)

	selection, folder, selectErr := s.runner.Select(ctx, strategyProgress(w, s.log, !cmd.Bool("no-progress")))
	if err := s.close(cmd); err != nil {
		return err
	}

	if selectErr != nil {
		if errors.IsSelectionImpossibleError(selectErr) && folder != "" {
			printExcluded(w, selection.Excluded)
			fmt.Fprintf(w, "Runs written to %s\n", folder)
		}

		return fmt.Errorf("selection failed: %w", selectErr)
	}

	printSelection(w, selection)
	fmt.Fprintf(w, "Results written to %s\n", folder)

	return nil
}

func printSelection(w io.Writer, selection selector.Selection) {
	fmt.Fprintf(w, "%-4s %-24s %8s %8s %8s %8s\n", "RANK", "STRATEGY", "SCORE", "ROI%", "SHARPE", "MAXDD%")

	for _, score := range selection.Ranking {
		fmt.Fprintf(w, "%-4d %-24s %8.2f %8.2f %8.3f %8.2f\n",
			score.Rank, score.Name, score.Score, score.Metrics.ROI, score.Metrics.SharpeRatio, score.Metrics.MaxDrawdown)
	}

	printExcluded(w, selection.Excluded)
	fmt.Fprintf(w, "Selected: %s\n", selection.Winner.Name)
}

func printExcluded(w io.Writer, excluded map[string]string) {
	names := make([]string, 0, len(excluded))
	for name := range excluded {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		fmt.Fprintf(w, "Excluded %s: %s\n", name, excluded[name])
	}
}
