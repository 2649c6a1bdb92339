package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rxtech-lab/argo-strategy-lab/internal/datasource"
	"github.com/rxtech-lab/argo-strategy-lab/internal/logger"
	"github.com/rxtech-lab/argo-strategy-lab/mocks"
	"github.com/urfave/cli/v3"
)

func generateCommand() *cli.Command {
	defaults := mocks.DefaultConfig()

	return &cli.Command{
		Name:  "generate",
		Usage: "Write synthetic bars to a parquet or CSV file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "output",
				Aliases:  []string{"o"},
				Usage:    "Destination `FILE` ending in .parquet or .csv",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "symbol",
				Aliases: []string{"s"},
				Usage:   "Symbol of the generated bars",
				Value:   syntheticSymbol,
			},
			&cli.IntFlag{
				Name:  "bars",
				Usage: "Number of bars",
				Value: int64(defaults.Count),
			},
			&cli.IntFlag{
				Name:  "seed",
				Usage: "Random seed",
				Value: 42,
			},
			&cli.FloatFlag{
				Name:  "volatility",
				Usage: "Typical relative move per bar",
				Value: defaults.Volatility,
			},
			&cli.FloatFlag{
				Name:  "trend",
				Usage: "Drift per bar",
			},
			&cli.TimestampFlag{
				Name:  "start",
				Usage: "Time of the first bar in `YYYY-MM-DD` format",
				Value: defaults.StartTime,
				Config: cli.TimestampConfig{
					Timezone: time.UTC,
					Layouts:  []string{"2006-01-02"},
				},
			},
		},
		Action: generateAction,
	}
}

func generateAction(_ context.Context, cmd *cli.Command) error {
	config := mocks.DefaultConfig()
	config.Symbol = cmd.String("symbol")
	config.Count = int(cmd.Int("bars"))
	config.Volatility = cmd.Float("volatility")
	config.Trend = cmd.Float("trend")
	config.StartTime = cmd.Timestamp("start").UTC()

	if config.Count < 2 {
		return fmt.Errorf("at least 2 bars are required, got %d", config.Count)
	}

	bars := mocks.NewDataGenerator(cmd.Int("seed")).Generate(config)

	source, err := datasource.NewDataSource(":memory:", logger.NewNopLogger())
	if err != nil {
		return err
	}
	defer source.Close()

	path := cmd.String("output")
	if err := source.Write(path, bars); err != nil {
		return err
	}

	fmt.Fprintf(output(cmd), "Wrote %d %s bars from %s to %s\n",
		len(bars), config.Symbol, config.StartTime.Format(time.DateOnly), path)

	return nil
}
