package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fsnotify/fsnotify"
	metamath "github.com/marnix/metamath-knife"
	"github.com/marnix/metamath-knife/internal/diag"
	"github.com/urfave/cli/v2"
)

// watchCommand re-verifies a database on every save, the CLI-only
// convenience SPEC_FULL.md's domain-stack section calls out: a watch event
// always triggers Database.Parse on the whole file again, never a partial
// edit, so the core's no-streaming-incremental-parsing non-goal holds.
// Grounded in standardbeagle-lci's internal/indexing/watcher.go FileWatcher,
// but stripped to the single-file, no-debounce case a proof file's
// edit/save/reverify loop actually needs.
var watchCommand = &cli.Command{
	Name:      "watch",
	Usage:     "Re-verify a database every time its file changes on disk",
	ArgsUsage: "<file.mm>",
	Action: func(c *cli.Context) error {
		if c.Args().Len() != 1 {
			return cli.Exit("mmknife watch: exactly one file argument required", 2)
		}
		path := c.Args().First()

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("mmknife watch: %w", err)
		}
		defer watcher.Close()
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("mmknife watch: %w", err)
		}

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

		reverify := func() {
			db, err := open(c, path)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return
			}
			notations := db.DiagNotations([]metamath.DiagClass{diag.ClassParse, diag.ClassScope, diag.ClassVerify})
			db.Close()
			if len(notations) == 0 {
				fmt.Printf("%s: ok\n", displayPath(path))
				return
			}
			printNotations(notations)
		}

		reverify()
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					reverify()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				fmt.Fprintf(os.Stderr, "mmknife watch: %v\n", err)
			case <-sig:
				return nil
			}
		}
	},
}
