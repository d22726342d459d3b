// Command mmknife is the CLI front end for the metamath package, mirroring
// standardbeagle-lci's cmd/lci/main.go: a single urfave/cli/v2 App, global
// flags overlaying config.DbOptions, one subcommand per operation.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/marnix/metamath-knife/internal/config"
	"github.com/urfave/cli/v2"
)

var projectRoot string

func loadOptions(c *cli.Context) config.DbOptions {
	dir := "."
	if len(c.Args().Slice()) > 0 {
		dir = filepath.Dir(c.Args().First())
	}
	opts, err := config.Load(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mmknife: %v\n", err)
		opts = config.Default()
	}
	if c.Bool("timing") {
		opts.Timing = true
	}
	if c.Bool("trace-recalc") {
		opts.TraceRecalc = true
	}
	if c.Bool("incremental") {
		opts.Incremental = true
	}
	if j := c.Int("jobs"); j > 0 {
		opts.Jobs = j
	}
	return opts
}

func main() {
	app := &cli.App{
		Name:                   "mmknife",
		Usage:                  "Metamath database processor",
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "timing", Usage: "Print wall-clock time per pass"},
			&cli.BoolFlag{Name: "trace-recalc", Usage: "Print recomputed segment names per pass"},
			&cli.BoolFlag{Name: "incremental", Usage: "Record per-segment usage metadata for reparse reuse"},
			&cli.IntFlag{Name: "jobs", Aliases: []string{"j"}, Usage: "Worker count (<=1 runs synchronously)"},
		},
		Commands: []*cli.Command{
			verifyCommand,
			grammarCommand,
			outlineCommand,
			exportCommand,
			checkCommand,
			watchCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
