package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	engine "github.com/rxtech-lab/argo-strategy-lab/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-strategy-lab/internal/config"
	"github.com/rxtech-lab/argo-strategy-lab/internal/datasource"
	"github.com/rxtech-lab/argo-strategy-lab/internal/indicator"
	"github.com/rxtech-lab/argo-strategy-lab/internal/logger"
	"github.com/rxtech-lab/argo-strategy-lab/internal/strategy"
	"github.com/rxtech-lab/argo-strategy-lab/internal/types"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	runSchemaName    = "run-config.json"
	engineSchemaName = "backtest-engine-v1-config.json"
	sampleConfigName = "run-config.yaml"
)

func indicatorsCommand() *cli.Command {
	return &cli.Command{
		Name:  "indicators",
		Usage: "List the registered indicators and strategy types",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Print the latest value of every indicator over this parquet or CSV `FILE`",
			},
			&cli.StringFlag{
				Name:    "symbol",
				Aliases: []string{"s"},
				Usage:   "Symbol to read from the data file",
			},
		},
		Action: indicatorsAction,
	}
}

func indicatorsAction(_ context.Context, cmd *cli.Command) error {
	w := output(cmd)
	registry := indicator.NewDefaultRegistry()

	var bars []types.Bar

	if path := cmd.String("data"); path != "" {
		source, err := datasource.NewDataSource(":memory:", logger.NewNopLogger())
		if err != nil {
			return err
		}
		defer source.Close()

		if err := source.Initialize(path); err != nil {
			return err
		}

		bars, err = source.Bars(datasource.Query{Symbol: cmd.String("symbol")})
		if err != nil {
			return err
		}
	}

	fmt.Fprintln(w, "Indicators:")

	for _, d := range registry.Describe() {
		if bars == nil {
			fmt.Fprintf(w, "  %-16s lookback %d\n", d.Name, d.Lookback)

			continue
		}

		series, err := registry.Compute(d.Name, bars)
		if err != nil {
			return err
		}

		value := "undefined"
		if last := indicator.Last(series); indicator.Defined(last) {
			value = fmt.Sprintf("%.4f", last)
		}

		fmt.Fprintf(w, "  %-16s lookback %-3d last %s\n", d.Name, d.Lookback, value)
	}

	fmt.Fprintln(w, "Strategies:")

	for _, kind := range strategy.NewDefaultRegistry().Types() {
		fmt.Fprintf(w, "  %s\n", kind)
	}

	return nil
}

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Write the config JSON schemas and a sample run config",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Directory to write into",
				Value:   "config",
			},
		},
		Action: schemaAction,
	}
}

func schemaAction(_ context.Context, cmd *cli.Command) error {
	dir := cmd.String("output")

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	runSchema, err := config.GenerateSchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate run config schema: %w", err)
	}

	engineConfig := engine.EmptyConfig()

	engineSchema, err := engineConfig.GenerateSchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate engine schema: %w", err)
	}

	files := map[string]string{
		runSchemaName:    runSchema,
		engineSchemaName: engineSchema,
	}

	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}

	w := output(cmd)

	// an existing sample is left alone
	samplePath := filepath.Join(dir, sampleConfigName)
	if _, err := os.Stat(samplePath); os.IsNotExist(err) {
		sample, err := yaml.Marshal(sampleConfig())
		if err != nil {
			return fmt.Errorf("failed to marshal sample config: %w", err)
		}

		sample = append([]byte("# yaml-language-server: $schema="+runSchemaName+"\n"), sample...)

		if err := os.WriteFile(samplePath, sample, 0644); err != nil {
			return fmt.Errorf("failed to write sample config: %w", err)
		}

		fmt.Fprintf(w, "Sample config written to %s\n", samplePath)
	}

	fmt.Fprintf(w, "Schemas written to %s\n", dir)

	return nil
}

func sampleConfig() config.RunConfig {
	cfg := config.DefaultRunConfig()
	cfg.Symbol = syntheticSymbol
	cfg.Strategies = []strategy.StrategyConfig{
		{Name: "ma_5_20", Type: strategy.StrategyTypeMACrossover, Params: map[string]any{"short_window": 5, "long_window": 20}},
		{Name: "rsi_14", Type: strategy.StrategyTypeRSIMeanReversion},
		{Name: "bollinger_20", Type: strategy.StrategyTypeBollingerBreakout},
		{Name: "golden_cross", Type: strategy.StrategyTypeGoldenCross},
		{Name: "volume_breakout", Type: strategy.StrategyTypeVolumeBreakout},
	}

	return cfg
}
