package main

import (
	"context"
	"io"
	"log"
	"os"

	"github.com/rxtech-lab/argo-strategy-lab/internal/version"
	"github.com/urfave/cli/v3"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "argo-lab",
		Usage:   "Backtest and rank trading strategies on historical bars",
		Version: version.GetVersion(),
		Commands: []*cli.Command{
			backtestCommand(),
			selectCommand(),
			indicatorsCommand(),
			schemaCommand(),
			generateCommand(),
			downloadCommand(),
		},
	}
}

// output is where commands print their reports.
func output(cmd *cli.Command) io.Writer {
	if root := cmd.Root(); root != nil && root.Writer != nil {
		return root.Writer
	}

	return os.Stdout
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
