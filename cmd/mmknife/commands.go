package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	metamath "github.com/marnix/metamath-knife"
	"github.com/marnix/metamath-knife/internal/diag"
	"github.com/marnix/metamath-knife/internal/outline"
	"github.com/marnix/metamath-knife/pkg/pathutil"
	"github.com/urfave/cli/v2"
)

// open parses path into a fresh Database configured from opts and the repo's
// own .mmknife.kdl, mirroring loadConfigWithOverrides's config-then-flags
// layering in standardbeagle-lci's cmd/lci/main.go.
func open(c *cli.Context, path string) (*metamath.Database, error) {
	opts := loadOptions(c)
	db := metamath.New(opts)
	if err := db.Parse(path, nil); err != nil {
		db.Close()
		return nil, fmt.Errorf("mmknife: parsing %s: %w", path, err)
	}
	return db, nil
}

// displayPath renders path relative to the invocation directory, the same
// absolute-internally/relative-for-display split cmd/lci/main.go applies to
// `--root` (its loadConfigWithOverrides resolves it to an absolute path for
// consistent identity; display code converts back).
func displayPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	cwd, err := os.Getwd()
	if err != nil {
		return path
	}
	return pathutil.ToRelative(abs, cwd)
}

// printNotations renders notations one per line and reports whether any
// were printed — the CLI's "exit nonzero iff any diagnostic" contract.
func printNotations(notations []diag.Notation) bool {
	for _, n := range notations {
		fmt.Printf("%s: %s [%s]", n.Address, n.Message, n.Kind)
		if n.Suggestion != "" {
			fmt.Printf(" (did you mean %q?)", n.Suggestion)
		}
		fmt.Println()
	}
	return len(notations) > 0
}

var verifyCommand = &cli.Command{
	Name:      "verify",
	Usage:     "Parse and verify every proof in a Metamath database",
	ArgsUsage: "<file.mm>",
	Action: func(c *cli.Context) error {
		if c.Args().Len() != 1 {
			return cli.Exit("mmknife verify: exactly one file argument required", 2)
		}
		db, err := open(c, c.Args().First())
		if err != nil {
			return err
		}
		defer db.Close()

		notations := db.DiagNotations([]metamath.DiagClass{diag.ClassParse, diag.ClassScope, diag.ClassVerify})
		if printNotations(notations) {
			os.Exit(1)
		}
		fmt.Printf("%d statements, no diagnostics\n", len(db.Statements()))
		return nil
	},
}

var grammarCommand = &cli.Command{
	Name:      "grammar",
	Usage:     "Compile the grammar and parse every statement against it",
	ArgsUsage: "<file.mm>",
	Action: func(c *cli.Context) error {
		if c.Args().Len() != 1 {
			return cli.Exit("mmknife grammar: exactly one file argument required", 2)
		}
		db, err := open(c, c.Args().First())
		if err != nil {
			return err
		}
		defer db.Close()

		notations := db.DiagNotations([]metamath.DiagClass{diag.ClassGrammar, diag.ClassStmtParse})
		if printNotations(notations) {
			os.Exit(1)
		}
		r := db.StmtParsePass()
		count := 0
		for _, addr := range db.Statements() {
			if stmt, ok := db.Statement(addr); ok && stmt.Label != "" {
				if label, ok := db.NamePass().LabelAtom(stmt.Label); ok {
					if _, ok := r.Formula(label); ok {
						count++
					}
				}
			}
		}
		fmt.Printf("%d statements parsed against the grammar\n", count)
		return nil
	},
}

var outlineCommand = &cli.Command{
	Name:      "outline",
	Usage:     "Print the chapter/section/subsection heading tree",
	ArgsUsage: "<file.mm>",
	Action: func(c *cli.Context) error {
		if c.Args().Len() != 1 {
			return cli.Exit("mmknife outline: exactly one file argument required", 2)
		}
		db, err := open(c, c.Args().First())
		if err != nil {
			return err
		}
		defer db.Close()

		printSection(db.OutlinePass().Root, 0)
		return nil
	},
}

func printSection(s *outline.Section, depth int) {
	if s.Level != outline.LevelNone {
		fmt.Printf("%s%s\n", strings.Repeat("  ", depth-1), s.Title)
	}
	for _, child := range s.Children {
		printSection(child, depth+1)
	}
}

var exportCommand = &cli.Command{
	Name:      "export",
	Usage:     "Render a statement's proof as a .mmp proof-preview document",
	ArgsUsage: "<file.mm> <label>",
	Action: func(c *cli.Context) error {
		if c.Args().Len() != 2 {
			return cli.Exit("mmknife export: requires <file.mm> <label>", 2)
		}
		db, err := open(c, c.Args().Get(0))
		if err != nil {
			return err
		}
		defer db.Close()

		doc, err := db.Export(c.Args().Get(1))
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		fmt.Print(doc)
		return nil
	},
}

var checkCommand = &cli.Command{
	Name:      "check",
	Usage:     "Verify every database matched by one or more glob patterns",
	ArgsUsage: "<pattern>...",
	Action: func(c *cli.Context) error {
		files, err := expandGlobs(c.Args().Slice())
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return cli.Exit("mmknife check: no files matched", 2)
		}

		failed := 0
		for _, f := range files {
			db, err := open(c, f)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				failed++
				continue
			}
			notations := db.DiagNotations([]metamath.DiagClass{diag.ClassParse, diag.ClassScope, diag.ClassVerify})
			db.Close()
			if len(notations) > 0 {
				fmt.Printf("%s: %d diagnostics\n", displayPath(f), len(notations))
				printNotations(notations)
				failed++
				continue
			}
			fmt.Printf("%s: ok\n", displayPath(f))
		}
		if failed > 0 {
			os.Exit(1)
		}
		return nil
	},
}
