package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rxtech-lab/argo-strategy-lab/internal/datasource"
	"github.com/rxtech-lab/argo-strategy-lab/internal/logger"
	"github.com/rxtech-lab/argo-strategy-lab/pkg/errors"
	"github.com/rxtech-lab/argo-strategy-lab/pkg/marketdata"
	"github.com/rxtech-lab/argo-strategy-lab/pkg/marketdata/provider"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

func downloadCommand() *cli.Command {
	dateConfig := cli.TimestampConfig{
		Timezone: time.UTC,
		Layouts:  []string{"2006-01-02", time.RFC3339},
	}

	return &cli.Command{
		Name:  "download",
		Usage: "Download historical bars from a market data provider into a parquet file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "ticker",
				Aliases:  []string{"t"},
				Usage:    "Ticker symbol, e.g. SPY or BTCUSDT",
				Required: true,
			},
			&cli.TimestampFlag{
				Name:     "start",
				Aliases:  []string{"s"},
				Usage:    "Start date in `YYYY-MM-DD` format",
				Config:   dateConfig,
				Required: true,
			},
			&cli.TimestampFlag{
				Name:    "end",
				Aliases: []string{"e"},
				Usage:   "End date in `YYYY-MM-DD` format. Defaults to today.",
				Value:   time.Now().UTC().Truncate(24 * time.Hour),
				Config:  dateConfig,
			},
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage:   fmt.Sprintf("Data provider, one of %s", strings.Join(marketdata.GetSupportedProviders(), ", ")),
				Value:   string(provider.ProviderBinance),
			},
			&cli.StringFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "Bar interval",
				Value:   string(datasource.Interval1d),
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Output `DIR` for the parquet file",
				Value:   "data",
			},
			&cli.StringFlag{
				Name:    "api-key",
				Usage:   "Polygon API key",
				Sources: cli.EnvVars("POLYGON_API_KEY"),
			},
			&cli.BoolFlag{
				Name:  "no-progress",
				Usage: "Disable the progress bar",
			},
		},
		Action: downloadAction,
	}
}

func downloadAction(ctx context.Context, cmd *cli.Command) error {
	providerName := cmd.String("provider")

	info, err := marketdata.GetProviderInfo(providerName)
	if err != nil {
		return err
	}

	if info.RequiresAuth && cmd.String("api-key") == "" {
		return errors.Newf(errors.ErrCodeMissingParameter, "%s requires --api-key or POLYGON_API_KEY", info.DisplayName)
	}

	interval := datasource.Interval(cmd.String("interval"))
	if _, err := interval.Minutes(); err != nil {
		return err
	}

	log, err := logger.NewLoggerWithConfig(logger.DefaultConfig())
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to create logger", err)
	}
	defer log.Sync() //nolint:errcheck

	w := output(cmd)
	bar := newProgressBar(w, 100, fmt.Sprintf("Downloading %s", cmd.String("ticker")), !cmd.Bool("no-progress"))

	client, err := marketdata.NewClient(marketdata.ClientConfig{
		ProviderType:  provider.ProviderType(providerName),
		DataPath:      cmd.String("data"),
		PolygonApiKey: cmd.String("api-key"),
	}, percentProgress(bar), log)
	if err != nil {
		return err
	}

	ctx, stop := withSignals(ctx)
	defer stop()

	path, err := client.Download(ctx, marketdata.DownloadParams{
		Ticker:    cmd.String("ticker"),
		StartDate: cmd.Timestamp("start").UTC(),
		EndDate:   cmd.Timestamp("end").UTC(),
		Interval:  interval,
	})
	if err != nil {
		return err
	}

	_ = bar.Finish()
	fmt.Fprintf(w, "Downloaded %s bars to %s\n", info.DisplayName, path)

	return nil
}

// percentProgress maps provider progress onto a bar scaled to 100.
func percentProgress(bar *progressbar.ProgressBar) provider.OnDownloadProgress {
	return func(current, total float64, _ string) {
		if total <= 0 {
			return
		}

		_ = bar.Set(int(min(current/total, 1) * 100))
	}
}
